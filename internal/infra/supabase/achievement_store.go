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
// Achievement Unlocks — implements port.AchievementStore
// ============================================================

// supabaseUnlock maps the achievement_unlocks table columns. The table
// carries a unique index on (user_id, title).
type supabaseUnlock struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Points      int       `json:"points"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// CreateUnlock inserts an unlock row. When the (user_id, title) uniqueness
// constraint fires, doPost returns *domain.ErrDuplicate; the achievement
// engine treats that as "already unlocked". Deliberately not retried: a
// transient failure here is re-derived on the next evaluation.
func (c *Client) CreateUnlock(ctx context.Context, unlock *domain.AchievementUnlock) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUnlock")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", unlock.UserID),
		attribute.String("achievement.title", unlock.Title),
	)

	row := map[string]any{
		"id":          unlock.ID,
		"user_id":     unlock.UserID,
		"title":       unlock.Title,
		"description": unlock.Description,
		"icon":        unlock.Icon,
		"points":      unlock.Points,
		"unlocked_at": unlock.UnlockedAt.Format(time.RFC3339),
	}

	_, err := c.doPost(ctx, "achievement_unlocks", row)
	return err
}

// ListUnlocks fetches a user's unlocked achievements, oldest first.
func (c *Client) ListUnlocks(ctx context.Context, userID string) ([]domain.AchievementUnlock, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListUnlocks")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var unlocks []domain.AchievementUnlock

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("achievement_unlocks?user_id=eq.%s&order=unlocked_at.asc", userID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				unlocks = []domain.AchievementUnlock{}
				return nil
			}

			var rows []supabaseUnlock
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode unlocks: %w", err)
			}

			unlocks = make([]domain.AchievementUnlock, 0, len(rows))
			for _, r := range rows {
				unlocks = append(unlocks, domain.AchievementUnlock(r))
			}
			return nil
		})
	})

	if err != nil {
		return nil, wrapReadError("achievements", err)
	}

	return unlocks, nil
}
