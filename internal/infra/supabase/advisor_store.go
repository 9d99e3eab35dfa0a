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
// Chat Transcripts — implements port.ChatStore
// ============================================================

type supabaseChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendMessage inserts one chat turn.
func (c *Client) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	ctx, span := tracer.Start(ctx, "Supabase.AppendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", msg.SessionID))

	row := map[string]any{
		"id":         msg.ID,
		"session_id": msg.SessionID,
		"user_id":    msg.UserID,
		"role":       msg.Role,
		"content":    msg.Content,
		"created_at": msg.CreatedAt.Format(time.RFC3339),
	}

	_, err := c.doPost(ctx, "chat_messages", row)
	return err
}

// ListMessages fetches a session transcript in chronological order.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMessages")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	var messages []domain.ChatMessage

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("chat_messages?session_id=eq.%s&order=created_at.asc&limit=1000", sessionID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				messages = []domain.ChatMessage{}
				return nil
			}

			var rows []supabaseChatMessage
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode chat messages: %w", err)
			}

			messages = make([]domain.ChatMessage, 0, len(rows))
			for _, r := range rows {
				messages = append(messages, domain.ChatMessage(r))
			}
			return nil
		})
	})

	if err != nil {
		return nil, wrapReadError("chat", err)
	}

	return messages, nil
}
