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
// Vault Access Logs — implements port.VaultStore
// ============================================================

type supabaseVaultLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Accessor  string    `json:"accessor"`
	Purpose   string    `json:"purpose"`
	Granted   bool      `json:"granted"`
	Timestamp time.Time `json:"timestamp"`
}

// AppendAccessLog inserts one audit entry.
func (c *Client) AppendAccessLog(ctx context.Context, log *domain.VaultAccessLog) error {
	ctx, span := tracer.Start(ctx, "Supabase.AppendAccessLog")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", log.UserID))

	row := map[string]any{
		"id":        log.ID,
		"user_id":   log.UserID,
		"accessor":  log.Accessor,
		"purpose":   log.Purpose,
		"granted":   log.Granted,
		"timestamp": log.Timestamp.Format(time.RFC3339),
	}

	_, err := c.doPost(ctx, "vault_access_logs", row)
	return err
}

// ListAccessLogs fetches a user's audit trail, oldest first.
func (c *Client) ListAccessLogs(ctx context.Context, userID string) ([]domain.VaultAccessLog, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAccessLogs")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var logs []domain.VaultAccessLog

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("vault_access_logs?user_id=eq.%s&order=timestamp.asc&limit=1000", userID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				logs = []domain.VaultAccessLog{}
				return nil
			}

			var rows []supabaseVaultLog
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode vault logs: %w", err)
			}

			logs = make([]domain.VaultAccessLog, 0, len(rows))
			for _, r := range rows {
				logs = append(logs, domain.VaultAccessLog(r))
			}
			return nil
		})
	})

	if err != nil {
		return nil, wrapReadError("vault", err)
	}

	return logs, nil
}
