package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finaura/finaura-go/internal/config"
	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/handler"
	"github.com/finaura/finaura-go/internal/infra/cache"
	"github.com/finaura/finaura-go/internal/infra/client"
	"github.com/finaura/finaura-go/internal/infra/extraction"
	"github.com/finaura/finaura-go/internal/infra/memory"
	"github.com/finaura/finaura-go/internal/infra/observability"
	"github.com/finaura/finaura-go/internal/infra/resilience"
	"github.com/finaura/finaura-go/internal/infra/supabase"
	"github.com/finaura/finaura-go/internal/port"
	"github.com/finaura/finaura-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.String("extraction_model", cfg.ExtractionModel),
		zap.Duration("extraction_timeout", cfg.ExtractionTimeout),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finaura-backend")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	userCache := cache.New[any](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var userStore port.UserStore
	var billStore port.BillStore
	var achievementStore port.AchievementStore
	var chatStore port.ChatStore
	var vaultStore port.VaultStore

	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as data backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		supabaseClient := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		)
		userStore = supabaseClient
		billStore = supabaseClient
		achievementStore = supabaseClient
		chatStore = supabaseClient
		vaultStore = supabaseClient
	} else {
		logger.Warn("Supabase not configured, using in-memory store (data is not durable)")
		memStore := memory.NewStore()
		userStore = memStore
		billStore = memStore
		achievementStore = memStore
		chatStore = memStore
		vaultStore = memStore
	}

	var extractor port.BillExtractor
	if cfg.GeminiAPIKey != "" {
		geminiExtractor, err := extraction.NewGeminiExtractor(
			context.Background(),
			cfg.GeminiAPIKey,
			cfg.ExtractionModel,
			cfg.ExtractionTimeout,
			cfg.MaxConcurrency,
			logger,
		)
		if err != nil {
			logger.Fatal("failed to init extraction client", zap.Error(err))
		}
		defer geminiExtractor.Close()
		extractor = geminiExtractor
	} else {
		logger.Warn("GEMINI_API_KEY not set, bill extraction disabled")
		extractor = extraction.Disabled{}
	}

	advisorClient := client.NewAdvisorClient(httpClient, cfg.AdvisorAPIURL, cb, resilienceCfg)

	// --- Services ---
	achievementSvc := service.NewAchievementService(userStore, achievementStore, domain.DefaultTiers, metrics, logger)
	svcs := handler.Services{
		Users:        service.NewUserService(userStore, userCache, metrics, logger),
		Bills:        service.NewBillService(extractor, billStore, userStore, achievementSvc, userCache, metrics, logger),
		Score:        service.NewScoreService(billStore, userStore, userCache, metrics, logger),
		Achievements: achievementSvc,
		Advisor:      service.NewAdvisorService(advisorClient, chatStore, metrics, logger),
		Vault:        service.NewVaultService(vaultStore, userStore, logger),
	}

	// --- Router ---
	router := handler.NewRouter(svcs, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
