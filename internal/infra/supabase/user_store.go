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
// User Aggregates — implements port.UserStore
// ============================================================

// supabaseUser maps the user_aggregates table columns.
type supabaseUser struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	TotalBills        int64     `json:"total_bills"`
	CachedScore       float64   `json:"finaura_score"`
	TotalTransactions float64   `json:"total_transactions"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toDomainUser(u supabaseUser) *domain.UserAggregate {
	return &domain.UserAggregate{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		TotalBills:        u.TotalBills,
		CachedScore:       u.CachedScore,
		TotalTransactions: u.TotalTransactions,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// CreateUser inserts a new user aggregate row.
func (c *Client) CreateUser(ctx context.Context, user *domain.UserAggregate) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	row := map[string]any{
		"id":                 user.ID,
		"name":               user.Name,
		"email":              user.Email,
		"total_bills":        user.TotalBills,
		"finaura_score":      user.CachedScore,
		"total_transactions": user.TotalTransactions,
		"created_at":         user.CreatedAt.Format(time.RFC3339),
		"updated_at":         user.UpdatedAt.Format(time.RFC3339),
	}

	_, err := c.doPost(ctx, "user_aggregates", row)
	return err
}

// GetUser fetches a user aggregate by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*domain.UserAggregate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var user *domain.UserAggregate

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("user_aggregates?id=eq.%s&limit=1", userID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "user", ID: userID}
			}

			var rows []supabaseUser
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode user: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "user", ID: userID}
			}

			user = toDomainUser(rows[0])
			return nil
		})
	})

	if err != nil {
		return nil, wrapReadError("users", err)
	}

	return user, nil
}

// IncrementBillCounters bumps total_bills by 1 and total_transactions by
// amount in one server-side statement. A stored function keeps this a single
// atomic increment under concurrent uploads for the same user; the
// application never does read-modify-write here.
func (c *Client) IncrementBillCounters(ctx context.Context, userID string, amount float64) error {
	ctx, span := tracer.Start(ctx, "Supabase.IncrementBillCounters")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return c.doRPC(ctx, "increment_bill_counters", map[string]any{
		"p_user_id": userID,
		"p_amount":  amount,
	})
}

// UpdateCachedScore writes the freshly computed score back to the aggregate.
func (c *Client) UpdateCachedScore(ctx context.Context, userID string, score float64) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCachedScore")
	defer span.End()

	return c.doPatch(ctx, fmt.Sprintf("user_aggregates?id=eq.%s", userID), map[string]any{
		"finaura_score": score,
		"updated_at":    time.Now().Format(time.RFC3339),
	})
}
