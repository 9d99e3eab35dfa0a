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
// Users — POST /v1/users, GET /v1/users/{userId}
// ============================================================

func createUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users")
		defer span.End()

		var req domain.CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}

func getUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		user, err := svc.Get(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

// ============================================================
// Score — GET /v1/users/{userId}/score
// ============================================================

func getScoreHandler(svc *service.ScoreService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/score")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		result, err := svc.GetScore(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// ============================================================
// Achievements — GET /v1/users/{userId}/achievements
// ============================================================

func listAchievementsHandler(svc *service.AchievementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/achievements")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		unlocks, err := svc.List(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if unlocks == nil {
			unlocks = []domain.AchievementUnlock{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"achievements": unlocks})
	}
}
