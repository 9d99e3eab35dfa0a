package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Bills — implements port.BillStore
// ============================================================

// supabaseBill maps the bills table columns.
type supabaseBill struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Vendor           *string   `json:"vendor"`
	Amount           *float64  `json:"amount"`
	Date             *string   `json:"date"`
	Category         *string   `json:"category"`
	Items            []string  `json:"items"`
	PaymentMethod    *string   `json:"payment_method"`
	ExtractionStatus string    `json:"extraction_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreateBill inserts a single bill row. Errors are returned unmodified:
// the bill insert is the ingestion pipeline's commit point and the caller
// surfaces failures directly.
func (c *Client) CreateBill(ctx context.Context, bill *domain.BillRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBill")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", bill.UserID))

	row := map[string]any{
		"id":                bill.ID,
		"user_id":           bill.UserID,
		"vendor":            bill.Vendor,
		"amount":            bill.Amount,
		"date":              bill.Date,
		"category":          bill.Category,
		"items":             bill.Items,
		"payment_method":    bill.PaymentMethod,
		"extraction_status": bill.ExtractionStatus,
		"created_at":        bill.CreatedAt.Format(time.RFC3339),
	}

	_, err := c.doPost(ctx, "bills", row)
	return err
}

// ListBills fetches all bill records for a user, oldest first.
func (c *Client) ListBills(ctx context.Context, userID string) ([]domain.BillRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBills")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var bills []domain.BillRecord

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("bills?user_id=eq.%s&order=created_at.asc&limit=1000", userID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				bills = []domain.BillRecord{}
				return nil
			}

			var rows []supabaseBill
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode bills: %w", err)
			}

			bills = make([]domain.BillRecord, 0, len(rows))
			for _, r := range rows {
				bills = append(bills, domain.BillRecord{
					ID:               r.ID,
					UserID:           r.UserID,
					Vendor:           r.Vendor,
					Amount:           r.Amount,
					Date:             r.Date,
					Category:         r.Category,
					Items:            r.Items,
					PaymentMethod:    r.PaymentMethod,
					ExtractionStatus: r.ExtractionStatus,
					CreatedAt:        r.CreatedAt,
				})
			}
			return nil
		})
	})

	if err != nil {
		return nil, wrapReadError("bills", err)
	}

	return bills, nil
}
