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
// Data vault audit — POST /v1/vault/grants, GET /v1/users/{userId}/vault/logs
// ============================================================

func vaultGrantHandler(svc *service.VaultService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/vault/grants")
		defer span.End()

		var req domain.VaultGrantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("user.id", req.UserID))

		entry, err := svc.Grant(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, entry)
	}
}

func vaultLogsHandler(svc *service.VaultService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/vault/logs")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		logs, err := svc.Logs(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if logs == nil {
			logs = []domain.VaultAccessLog{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
	}
}
