package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/cache"
	"github.com/finaura/finaura-go/internal/infra/memory"
	"github.com/finaura/finaura-go/internal/infra/observability"
	"github.com/finaura/finaura-go/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func strPtr(s string) *string    { return &s }
func f64Ptr(f float64) *float64  { return &f }

func billWith(category string, amount float64) domain.BillRecord {
	return domain.BillRecord{
		ID:               uuid.NewString(),
		Vendor:           strPtr("ACME"),
		Amount:           f64Ptr(amount),
		Date:             strPtr("2026-01-15"),
		Category:         strPtr(category),
		ExtractionStatus: domain.ExtractionOK,
		CreatedAt:        time.Now(),
	}
}

func TestComputeScore_EmptyProfile(t *testing.T) {
	result := service.ComputeScore(nil)

	if result.Score != 50.0 {
		t.Errorf("expected cold-start score 50.0, got %v", result.Score)
	}
	if len(result.Factors) != 3 {
		t.Fatalf("expected 3 factors, got %d", len(result.Factors))
	}
	for _, f := range result.Factors {
		if f.Impact != domain.ImpactNeutral {
			t.Errorf("expected neutral impact for %s, got %s", f.Name, f.Impact)
		}
	}
	if len(result.Recommendations) == 0 {
		t.Error("expected starter recommendations")
	}
}

func TestComputeScore_SingleBill(t *testing.T) {
	bills := []domain.BillRecord{billWith("groceries", 50)}
	result := service.ComputeScore(bills)

	// frequency 5, diversity 10, activity 50/100*10 = 5
	if result.Score != 20.0 {
		t.Errorf("expected score 20.0, got %v", result.Score)
	}
}

func TestComputeScore_CapsAt100(t *testing.T) {
	bills := make([]domain.BillRecord, 0, 1000)
	for i := 0; i < 1000; i++ {
		bills = append(bills, billWith(fmt.Sprintf("cat-%d", i%50), 100000))
	}
	result := service.ComputeScore(bills)

	if result.Score != 100.0 {
		t.Errorf("expected capped score 100.0, got %v", result.Score)
	}
	for _, f := range result.Factors {
		if f.Impact != domain.ImpactPositive {
			t.Errorf("expected positive impact for %s at cap, got %s", f.Name, f.Impact)
		}
	}
}

func TestComputeScore_AllFactorsMaxed(t *testing.T) {
	// 20 bills, 4 categories, avg 300: 40 + 30 + 30 = 100.
	bills := make([]domain.BillRecord, 0, 20)
	for i := 0; i < 20; i++ {
		bills = append(bills, billWith(fmt.Sprintf("cat-%d", i%4), 300))
	}
	result := service.ComputeScore(bills)

	if result.Score != 100.0 {
		t.Errorf("expected 100.0, got %v", result.Score)
	}
}

func TestComputeScore_FailedBillsExcluded(t *testing.T) {
	bills := []domain.BillRecord{
		billWith("groceries", 50),
		{ID: uuid.NewString(), ExtractionStatus: domain.ExtractionFailed},
		{ID: uuid.NewString(), ExtractionStatus: domain.ExtractionFailed},
	}
	result := service.ComputeScore(bills)

	// Only the one ok bill counts: same as the single-bill case.
	if result.Score != 20.0 {
		t.Errorf("expected failed records to be ignored, got score %v", result.Score)
	}
}

func TestComputeScore_OnlyFailedBillsIsColdStart(t *testing.T) {
	bills := []domain.BillRecord{
		{ID: uuid.NewString(), ExtractionStatus: domain.ExtractionFailed},
	}
	result := service.ComputeScore(bills)

	if result.Score != 50.0 {
		t.Errorf("expected cold-start 50.0 with only failed records, got %v", result.Score)
	}
}

func TestComputeScore_PartialBillsCount(t *testing.T) {
	// Partial records still contribute to frequency and whatever fields they have.
	amountless := billWith("utilities", 0)
	amountless.Amount = nil
	amountless.ExtractionStatus = domain.ExtractionPartial

	bills := []domain.BillRecord{billWith("groceries", 200), amountless}
	result := service.ComputeScore(bills)

	// frequency 10, diversity 20, activity avg(200)/100*10 = 20 -> 50.0
	if result.Score != 50.0 {
		t.Errorf("expected 50.0, got %v", result.Score)
	}
}

func TestComputeScore_RoundsToOneDecimal(t *testing.T) {
	// avg 123.45 -> activity 12.345 -> total 5+10+12.345 = 27.345 -> 27.3
	bills := []domain.BillRecord{billWith("dining", 123.45)}
	result := service.ComputeScore(bills)

	if result.Score != 27.3 {
		t.Errorf("expected 27.3, got %v", result.Score)
	}
}

func TestComputeScore_Deterministic(t *testing.T) {
	bills := []domain.BillRecord{
		billWith("groceries", 80),
		billWith("utilities", 120),
	}
	first := service.ComputeScore(bills)
	second := service.ComputeScore(bills)

	if first.Score != second.Score {
		t.Errorf("expected identical scores, got %v and %v", first.Score, second.Score)
	}
	if len(first.Recommendations) != len(second.Recommendations) {
		t.Error("expected identical recommendations")
	}
	for i := range first.Recommendations {
		if first.Recommendations[i] != second.Recommendations[i] {
			t.Errorf("recommendation %d differs", i)
		}
	}
}

func TestComputeScore_Recommendations(t *testing.T) {
	// Few bills, few categories, low score: all three weak-factor rules fire.
	result := service.ComputeScore([]domain.BillRecord{billWith("groceries", 10)})
	if len(result.Recommendations) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(result.Recommendations))
	}

	// Strong profile: only the congratulation remains.
	bills := make([]domain.BillRecord, 0, 20)
	for i := 0; i < 20; i++ {
		bills = append(bills, billWith(fmt.Sprintf("cat-%d", i%4), 300))
	}
	result = service.ComputeScore(bills)
	if len(result.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation for a maxed profile, got %d", len(result.Recommendations))
	}
}

func TestScoreService_GetScore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := uuid.NewString()
	store.CreateUser(ctx, &domain.UserAggregate{ID: userID, Name: "Ana"})

	b1 := billWith("groceries", 50)
	b1.UserID = userID
	store.CreateBill(ctx, &b1)

	svc := service.NewScoreService(store, store, cache.New[any](time.Minute), observability.NewMetrics(), zap.NewNop())

	result, err := svc.GetScore(ctx, userID)
	if err != nil {
		t.Fatalf("expected score, got %v", err)
	}
	if result.Score != 20.0 {
		t.Errorf("expected 20.0, got %v", result.Score)
	}

	// The total is written back to the user aggregate.
	user, _ := store.GetUser(ctx, userID)
	if user.CachedScore != 20.0 {
		t.Errorf("expected cached_score 20.0, got %v", user.CachedScore)
	}
}

func TestScoreService_GetScore_UnknownUser(t *testing.T) {
	store := memory.NewStore()
	svc := service.NewScoreService(store, store, cache.New[any](time.Minute), observability.NewMetrics(), zap.NewNop())

	var notFound *domain.ErrNotFound
	if _, err := svc.GetScore(context.Background(), uuid.NewString()); !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScoreService_GetScore_InvalidID(t *testing.T) {
	store := memory.NewStore()
	svc := service.NewScoreService(store, store, cache.New[any](time.Minute), observability.NewMetrics(), zap.NewNop())

	var validation *domain.ErrValidation
	if _, err := svc.GetScore(context.Background(), "not-a-uuid"); !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
