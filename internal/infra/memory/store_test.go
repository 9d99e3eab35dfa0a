package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/memory"
)

func TestStore_UserLifecycle(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	user := &domain.UserAggregate{ID: "u1", Name: "Ana", Email: "ana@example.com"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("expected create, got %v", err)
	}

	var dup *domain.ErrDuplicate
	if err := s.CreateUser(ctx, user); !errors.As(err, &dup) {
		t.Fatalf("expected ErrDuplicate on second create, got %v", err)
	}

	got, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("expected get, got %v", err)
	}
	if got.Name != "Ana" {
		t.Errorf("expected name 'Ana', got '%s'", got.Name)
	}

	var notFound *domain.ErrNotFound
	if _, err := s.GetUser(ctx, "missing"); !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_IncrementBillCounters_Concurrent(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	s.CreateUser(ctx, &domain.UserAggregate{ID: "u1"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementBillCounters(ctx, "u1", 10)
		}()
	}
	wg.Wait()

	u, _ := s.GetUser(ctx, "u1")
	if u.TotalBills != 50 {
		t.Errorf("expected total_bills=50, got %d", u.TotalBills)
	}
	if u.TotalTransactions != 500 {
		t.Errorf("expected total_transactions=500, got %f", u.TotalTransactions)
	}
}

func TestStore_CreateUnlock_UniquePerUserAndTitle(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	unlock := &domain.AchievementUnlock{ID: "a1", UserID: "u1", Title: "First Step", Points: 10, UnlockedAt: time.Now()}
	if err := s.CreateUnlock(ctx, unlock); err != nil {
		t.Fatalf("expected unlock, got %v", err)
	}

	var dup *domain.ErrDuplicate
	again := &domain.AchievementUnlock{ID: "a2", UserID: "u1", Title: "First Step", Points: 10, UnlockedAt: time.Now()}
	if err := s.CreateUnlock(ctx, again); !errors.As(err, &dup) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same title for another user is fine.
	other := &domain.AchievementUnlock{ID: "a3", UserID: "u2", Title: "First Step", Points: 10, UnlockedAt: time.Now()}
	if err := s.CreateUnlock(ctx, other); err != nil {
		t.Fatalf("expected unlock for other user, got %v", err)
	}
}

func TestStore_CreateUnlock_ConcurrentRace(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	successes := make(chan struct{}, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			unlock := &domain.AchievementUnlock{
				ID:     "id",
				UserID: "u1",
				Title:  "Financial Tracker",
			}
			if err := s.CreateUnlock(ctx, unlock); err == nil {
				successes <- struct{}{}
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one successful unlock, got %d", count)
	}

	unlocks, _ := s.ListUnlocks(ctx, "u1")
	if len(unlocks) != 1 {
		t.Errorf("expected 1 stored unlock, got %d", len(unlocks))
	}
}

func TestStore_BillsAreIndependentRecords(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	bill := &domain.BillRecord{ID: "b1", UserID: "u1", ExtractionStatus: domain.ExtractionOK}
	s.CreateBill(ctx, bill)
	bill2 := &domain.BillRecord{ID: "b2", UserID: "u1", ExtractionStatus: domain.ExtractionFailed}
	s.CreateBill(ctx, bill2)

	bills, err := s.ListBills(ctx, "u1")
	if err != nil {
		t.Fatalf("expected list, got %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("expected 2 bills, got %d", len(bills))
	}
	if bills[0].ID != "b1" || bills[1].ID != "b2" {
		t.Error("expected insertion order to be preserved")
	}
}
