package handler

import (
	"encoding/json"
	"net/http"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Advisor chat — POST /v1/chat, GET /v1/chat/{sessionId}/history
// ============================================================

func chatHandler(svc *service.AdvisorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		var req domain.ChatAPIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("session.id", req.SessionID))

		resp, err := svc.Chat(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func chatHistoryHandler(svc *service.AdvisorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/chat/{sessionId}/history")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		messages, err := svc.History(ctx, sessionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if messages == nil {
			messages = []domain.ChatMessage{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
	}
}
