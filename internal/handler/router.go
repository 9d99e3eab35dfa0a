package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/observability"
	"github.com/finaura/finaura-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router needs.
type Services struct {
	Users        *service.UserService
	Bills        *service.BillService
	Score        *service.ScoreService
	Achievements *service.AchievementService
	Advisor      *service.AdvisorService
	Vault        *service.VaultService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract consumed by the FinAura frontend.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Users))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Users
		r.Post("/users", createUserHandler(svcs.Users, logger))
		r.Get("/users/{userId}", getUserHandler(svcs.Users, logger))

		// Bill ingestion
		r.Post("/bills/upload", uploadBillHandler(svcs.Bills, logger))
		r.Get("/users/{userId}/bills", listBillsHandler(svcs.Bills, logger))

		// Score
		r.Get("/users/{userId}/score", getScoreHandler(svcs.Score, logger))

		// Achievements
		r.Get("/users/{userId}/achievements", listAchievementsHandler(svcs.Achievements, logger))

		// Advisor chat
		r.Post("/chat", chatHandler(svcs.Advisor, logger))
		r.Get("/chat/{sessionId}/history", chatHistoryHandler(svcs.Advisor, logger))
		r.Get("/metrics/advisor", advisorMetricsHandler(metrics))

		// Data vault audit trail
		r.Post("/vault/grants", vaultGrantHandler(svcs.Vault, logger))
		r.Get("/users/{userId}/vault/logs", vaultLogsHandler(svcs.Vault, logger))
	})

	return r
}

// ============================================================
// Health & readiness
// ============================================================

func healthzHandler(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "finaura-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		// Probe the storage layer with a lookup that is expected to miss.
		start := time.Now()
		_, err := users.Get(r.Context(), "00000000-0000-0000-0000-000000000000")
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		var notFound *domain.ErrNotFound
		if err != nil && !errors.As(err, &notFound) {
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name: "storage", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func advisorMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAdvisorSnapshot())
	}
}
