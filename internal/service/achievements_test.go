package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/memory"
	"github.com/finaura/finaura-go/internal/infra/observability"
	"github.com/finaura/finaura-go/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newAchievementService(store *memory.Store) *service.AchievementService {
	return service.NewAchievementService(store, store, domain.DefaultTiers, observability.NewMetrics(), zap.NewNop())
}

func TestAchievementService_Evaluate_UnlocksCrossedTiers(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := uuid.NewString()
	store.CreateUser(ctx, &domain.UserAggregate{ID: userID, TotalBills: 5})

	svc := newAchievementService(store)

	newly, err := svc.Evaluate(ctx, userID)
	if err != nil {
		t.Fatalf("expected evaluation, got %v", err)
	}
	if len(newly) != 2 {
		t.Fatalf("expected 2 unlocks at total_bills=5, got %d", len(newly))
	}
	if newly[0].Title != "First Step" || newly[1].Title != "Getting Started" {
		t.Errorf("expected ascending threshold order, got %q then %q", newly[0].Title, newly[1].Title)
	}
	if newly[0].Points != 10 || newly[1].Points != 25 {
		t.Errorf("unexpected points: %d, %d", newly[0].Points, newly[1].Points)
	}
}

func TestAchievementService_Evaluate_Idempotent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := uuid.NewString()
	store.CreateUser(ctx, &domain.UserAggregate{ID: userID, TotalBills: 5})

	svc := newAchievementService(store)

	if _, err := svc.Evaluate(ctx, userID); err != nil {
		t.Fatalf("first evaluation failed: %v", err)
	}
	newly, err := svc.Evaluate(ctx, userID)
	if err != nil {
		t.Fatalf("second evaluation failed: %v", err)
	}
	if len(newly) != 0 {
		t.Errorf("expected no new unlocks on re-evaluation, got %d", len(newly))
	}

	unlocks, _ := svc.List(ctx, userID)
	if len(unlocks) != 2 {
		t.Errorf("expected 2 stored unlocks, got %d", len(unlocks))
	}
}

func TestAchievementService_Evaluate_BelowFirstThreshold(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := uuid.NewString()
	store.CreateUser(ctx, &domain.UserAggregate{ID: userID, TotalBills: 0})

	svc := newAchievementService(store)

	newly, err := svc.Evaluate(ctx, userID)
	if err != nil {
		t.Fatalf("expected evaluation, got %v", err)
	}
	if len(newly) != 0 {
		t.Errorf("expected no unlocks at total_bills=0, got %d", len(newly))
	}
}

func TestAchievementService_Evaluate_ConcurrentSingleUnlock(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := uuid.NewString()
	store.CreateUser(ctx, &domain.UserAggregate{ID: userID, TotalBills: 10})

	svc := newAchievementService(store)

	var wg sync.WaitGroup
	var mu sync.Mutex
	unlockCounts := make(map[string]int)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			newly, err := svc.Evaluate(ctx, userID)
			if err != nil {
				t.Errorf("evaluation failed: %v", err)
				return
			}
			mu.Lock()
			for _, u := range newly {
				unlockCounts[u.Title]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Racing evaluations may each report zero or some tiers, but across all
	// of them every tier unlocks exactly once.
	for title, n := range unlockCounts {
		if n != 1 {
			t.Errorf("tier %q reported as newly unlocked %d times", title, n)
		}
	}
	unlocks, _ := svc.List(ctx, userID)
	if len(unlocks) != 3 {
		t.Errorf("expected 3 stored unlocks at total_bills=10, got %d", len(unlocks))
	}
}

func TestAchievementService_Evaluate_UnknownUser(t *testing.T) {
	store := memory.NewStore()
	svc := newAchievementService(store)

	var notFound *domain.ErrNotFound
	if _, err := svc.Evaluate(context.Background(), uuid.NewString()); !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAchievementService_Evaluate_InvalidID(t *testing.T) {
	store := memory.NewStore()
	svc := newAchievementService(store)

	var validation *domain.ErrValidation
	if _, err := svc.Evaluate(context.Background(), "nope"); !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
