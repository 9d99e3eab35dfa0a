package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/observability"
	"github.com/finaura/finaura-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sub-score caps. The three factors sum to at most 100.
const (
	maxFrequencyScore = 40.0
	maxCategoryScore  = 30.0
	maxActivityScore  = 30.0
)

// Factor names used in score explanations.
const (
	factorFrequency = "Bill Frequency"
	factorDiversity = "Category Diversity"
	factorActivity  = "Financial Activity"
)

// ComputeScore derives the FinAura score purely from a user's bill history.
// No external calls, no hidden state: concurrent callers may invoke it
// freely. Failed-extraction records are dropped first since they carry no
// usable category or amount.
//
// Scoring:
//   - frequency = min(5 * bills, 40)
//   - diversity = min(10 * distinct categories, 30)
//   - activity  = min(30, avgAmount/100 * 10)
//   - total     = clamp(frequency+diversity+activity, 0, 100), 1 decimal
//
// Impact labels: a factor at >=60% of its cap is positive, >=30% neutral,
// below that negative.
func ComputeScore(bills []domain.BillRecord) *domain.ScoreResult {
	scored := make([]domain.BillRecord, 0, len(bills))
	for _, b := range bills {
		if b.ExtractionStatus != domain.ExtractionFailed {
			scored = append(scored, b)
		}
	}

	if len(scored) == 0 {
		return emptyProfileScore()
	}

	n := len(scored)
	frequencyScore := math.Min(float64(n)*5, maxFrequencyScore)

	categories := make(map[string]struct{})
	for _, b := range scored {
		if b.Category != nil && *b.Category != "" {
			categories[*b.Category] = struct{}{}
		}
	}
	k := len(categories)
	categoryScore := math.Min(float64(k)*10, maxCategoryScore)

	var sum float64
	amounts := 0
	for _, b := range scored {
		if b.Amount != nil {
			sum += *b.Amount
			amounts++
		}
	}
	avgAmount := 0.0
	if amounts > 0 {
		avgAmount = sum / float64(amounts)
	}
	activityScore := math.Min(maxActivityScore, (avgAmount/100)*10)

	total := frequencyScore + categoryScore + activityScore
	total = math.Max(0, math.Min(100, total))
	total = math.Round(total*10) / 10

	factors := []domain.ScoreFactor{
		{Name: factorFrequency, Value: float64(n), Impact: impactFor(frequencyScore, maxFrequencyScore), Contribution: frequencyScore},
		{Name: factorDiversity, Value: float64(k), Impact: impactFor(categoryScore, maxCategoryScore), Contribution: categoryScore},
		{Name: factorActivity, Value: avgAmount, Impact: impactFor(activityScore, maxActivityScore), Contribution: activityScore},
	}

	return &domain.ScoreResult{
		Score:           total,
		Factors:         factors,
		Recommendations: recommendationsFor(n, k, total),
	}
}

// impactFor labels a sub-score against its cap.
func impactFor(score, max float64) string {
	ratio := score / max
	switch {
	case ratio >= 0.6:
		return domain.ImpactPositive
	case ratio >= 0.3:
		return domain.ImpactNeutral
	default:
		return domain.ImpactNegative
	}
}

// recommendationsFor matches fixed rules against the weakest factors.
// Deterministic on purpose: no randomness, no model call.
func recommendationsFor(bills, categories int, score float64) []string {
	var recs []string
	if bills < 5 {
		recs = append(recs, "Upload more bills to establish a stronger payment history")
	}
	if categories < 3 {
		recs = append(recs, "Diversify your bill categories to improve your score")
	}
	if score < 70 {
		recs = append(recs, "Keep uploading bills regularly to boost your FinAura score")
	} else {
		recs = append(recs, "Great job! Your financial behavior is excellent")
	}
	return recs
}

// emptyProfileScore is the cold-start result for users with no scorable
// bills: a neutral 50 with starter recommendations.
func emptyProfileScore() *domain.ScoreResult {
	return &domain.ScoreResult{
		Score: 50.0,
		Factors: []domain.ScoreFactor{
			{Name: factorFrequency, Value: 0, Impact: domain.ImpactNeutral, Contribution: 0},
			{Name: factorDiversity, Value: 0, Impact: domain.ImpactNeutral, Contribution: 0},
			{Name: factorActivity, Value: 0, Impact: domain.ImpactNeutral, Contribution: 0},
		},
		Recommendations: []string{
			"Start uploading bills to build your financial profile",
			"Regular bill payments improve your score",
			"Diverse payment categories strengthen your profile",
		},
	}
}

// ScoreService reads a user's bill history, computes the score and writes
// the total back to the user aggregate. The write-back is best-effort: a
// stale cached_score self-heals on the next read.
type ScoreService struct {
	bills   port.BillStore
	users   port.UserStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewScoreService creates the score service with all dependencies injected.
func NewScoreService(bills port.BillStore, users port.UserStore, cache port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *ScoreService {
	return &ScoreService{
		bills:   bills,
		users:   users,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// GetScore computes the current score for a user.
func (s *ScoreService) GetScore(ctx context.Context, userID string) (*domain.ScoreResult, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "must be a valid UUID"}
	}

	ctx, span := tracer.Start(ctx, "ScoreService.GetScore")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("score", time.Since(start))
	}()

	var bills []domain.BillRecord

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Existence check; missing users 404 instead of scoring an empty set.
		if _, err := s.users.GetUser(gCtx, userID); err != nil {
			return fmt.Errorf("user fetch: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		b, err := s.bills.ListBills(gCtx, userID)
		if err != nil {
			s.metrics.IncrExternalError("bills")
			return fmt.Errorf("bills fetch: %w", err)
		}
		bills = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := ComputeScore(bills)

	if err := s.users.UpdateCachedScore(ctx, userID, result.Score); err != nil {
		s.logger.Warn("failed to write back cached score",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("users")
	}
	s.cache.Delete("user:" + userID)

	return result, nil
}
