package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/observability"
	"github.com/finaura/finaura-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AchievementService evaluates milestone tiers against a user's bill count.
// Each (user, title) pair unlocks at most once, ever: the store's uniqueness
// constraint is the arbiter, not the prior read, so concurrent evaluations
// cannot double-unlock.
type AchievementService struct {
	users        port.UserStore
	achievements port.AchievementStore
	tiers        []domain.AchievementDefinition
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewAchievementService creates the achievement engine. Tiers are evaluated
// in ascending threshold order regardless of the order passed in.
func NewAchievementService(users port.UserStore, achievements port.AchievementStore, tiers []domain.AchievementDefinition, metrics *observability.Metrics, logger *zap.Logger) *AchievementService {
	sorted := make([]domain.AchievementDefinition, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold < sorted[j].Threshold
	})

	return &AchievementService{
		users:        users,
		achievements: achievements,
		tiers:        sorted,
		metrics:      metrics,
		logger:       logger,
	}
}

// Evaluate unlocks every tier the user's total_bills has crossed and
// returns the newly unlocked subset, ascending by threshold. A persistence
// failure on one tier never blocks the remaining tiers; eligibility is
// re-derived from total_bills on the next call, so missed unlocks are
// retryable.
func (s *AchievementService) Evaluate(ctx context.Context, userID string) ([]domain.AchievementUnlock, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "must be a valid UUID"}
	}

	ctx, span := tracer.Start(ctx, "AchievementService.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.achievements.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, err
	}
	already := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		already[u.Title] = struct{}{}
	}

	var newly []domain.AchievementUnlock
	for _, tier := range s.tiers {
		if user.TotalBills < tier.Threshold {
			break // tiers are sorted ascending, nothing further can match
		}
		if _, ok := already[tier.Title]; ok {
			continue
		}

		unlock := &domain.AchievementUnlock{
			ID:          uuid.NewString(),
			UserID:      userID,
			Title:       tier.Title,
			Description: tier.Description,
			Icon:        tier.Icon,
			Points:      tier.Points,
			UnlockedAt:  time.Now().UTC(),
		}

		if err := s.achievements.CreateUnlock(ctx, unlock); err != nil {
			var dup *domain.ErrDuplicate
			if errors.As(err, &dup) {
				// Lost a race with a concurrent evaluation: already unlocked.
				s.logger.Debug("achievement already unlocked",
					zap.String("user_id", userID),
					zap.String("title", tier.Title),
				)
				continue
			}
			s.logger.Warn("failed to persist achievement unlock",
				zap.String("user_id", userID),
				zap.String("title", tier.Title),
				zap.Error(err),
			)
			s.metrics.IncrExternalError("achievements")
			continue
		}

		s.metrics.IncrAchievementUnlocked(tier.Title)
		s.logger.Info("achievement unlocked",
			zap.String("user_id", userID),
			zap.String("title", tier.Title),
			zap.Int("points", tier.Points),
		)
		newly = append(newly, *unlock)
	}

	return newly, nil
}

// List returns a user's unlocked achievements.
func (s *AchievementService) List(ctx context.Context, userID string) ([]domain.AchievementUnlock, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "must be a valid UUID"}
	}

	ctx, span := tracer.Start(ctx, "AchievementService.List")
	defer span.End()

	return s.achievements.ListUnlocks(ctx, userID)
}
