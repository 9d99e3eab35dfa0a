package service

import (
	"context"
	"strings"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/observability"
	"github.com/finaura/finaura-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// historyLimit caps how many prior turns get sent to the agent per call.
const historyLimit = 20

// AdvisorService brokers chat between the API and the external advisor
// agent, persisting the transcript around the call.
type AdvisorService struct {
	caller  port.AdvisorCaller
	chats   port.ChatStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAdvisorService creates the advisor service with all dependencies injected.
func NewAdvisorService(caller port.AdvisorCaller, chats port.ChatStore, metrics *observability.Metrics, logger *zap.Logger) *AdvisorService {
	return &AdvisorService{
		caller:  caller,
		chats:   chats,
		metrics: metrics,
		logger:  logger,
	}
}

// Chat sends one user message to the advisor agent and returns its reply.
// Transcript persistence is best-effort on both sides of the call; only the
// agent call itself can fail the request.
func (s *AdvisorService) Chat(ctx context.Context, req *domain.ChatAPIRequest) (*domain.ChatAPIResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "message is required"}
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "must be a valid UUID"}
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, span := tracer.Start(ctx, "AdvisorService.Chat")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("chat", time.Since(start))
	}()

	history, err := s.chats.ListMessages(ctx, sessionID)
	if err != nil {
		// Degrade to a history-less call rather than failing the chat.
		s.logger.Warn("failed to load chat history",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("chat")
		history = nil
	}
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	if err := s.chats.AppendMessage(ctx, &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    req.UserID,
		Role:      "user",
		Content:   req.Message,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to persist user message",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("chat")
	}

	resp, err := s.caller.Call(ctx, &domain.AdvisorRequest{
		SessionID: sessionID,
		UserID:    req.UserID,
		Message:   req.Message,
		History:   history,
	})
	if err != nil {
		s.metrics.IncrRequest("error")
		s.metrics.IncrExternalError("advisor")
		return nil, err
	}
	s.metrics.IncrRequest("success")
	s.metrics.RecordTokens(resp.TokensUsed.PromptTokens, resp.TokensUsed.CompletionTokens)

	if err := s.chats.AppendMessage(ctx, &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    req.UserID,
		Role:      "assistant",
		Content:   resp.Reply,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to persist assistant message",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("chat")
	}

	return &domain.ChatAPIResponse{
		SessionID: sessionID,
		Response:  resp.Reply,
	}, nil
}

// History returns the transcript for a session, oldest first.
func (s *AdvisorService) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	if sessionID == "" {
		return nil, &domain.ErrValidation{Field: "session_id", Message: "session_id is required"}
	}

	ctx, span := tracer.Start(ctx, "AdvisorService.History")
	defer span.End()

	return s.chats.ListMessages(ctx, sessionID)
}
