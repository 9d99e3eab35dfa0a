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

// UserService manages user aggregates. Reads go through a short TTL cache
// keyed "user:{id}"; every write path that moves the counters invalidates it.
type UserService struct {
	users   port.UserStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewUserService creates the user service with all dependencies injected.
func NewUserService(users port.UserStore, cache port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *UserService {
	return &UserService{
		users:   users,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Create registers a new user with zeroed counters and a neutral starting
// score.
func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserAggregate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "a valid email is required"}
	}

	ctx, span := tracer.Start(ctx, "UserService.Create")
	defer span.End()

	now := time.Now().UTC()
	user := &domain.UserAggregate{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email,
		CachedScore: 50.0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.String("user_id", user.ID))
	return user, nil
}

// Get fetches a user aggregate, cache-first.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.UserAggregate, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "must be a valid UUID"}
	}

	ctx, span := tracer.Start(ctx, "UserService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	cacheKey := "user:" + userID
	if cached, ok := s.cache.Get(cacheKey); ok {
		if user, ok := cached.(*domain.UserAggregate); ok {
			s.metrics.IncrCacheHit("user")
			return user, nil
		}
	}
	s.metrics.IncrCacheMiss("user")

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, user)
	return user, nil
}
