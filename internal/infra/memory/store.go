// Package memory provides in-memory implementations of the storage ports.
// Used for local development and tests; the Supabase client is the durable
// backend in production. Semantics match the durable layer: increments are
// atomic under the store lock and unlock inserts enforce (user_id, title)
// uniqueness.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
)

// Store holds all aggregates behind one mutex.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*domain.UserAggregate
	bills     map[string][]domain.BillRecord       // by user id
	unlocks   map[string][]domain.AchievementUnlock // by user id
	unlockKey map[string]struct{}                   // "userID|title" uniqueness index
	chats     map[string][]domain.ChatMessage // by session id
	vault     map[string][]domain.VaultAccessLog // by user id
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]*domain.UserAggregate),
		bills:     make(map[string][]domain.BillRecord),
		unlocks:   make(map[string][]domain.AchievementUnlock),
		unlockKey: make(map[string]struct{}),
		chats:     make(map[string][]domain.ChatMessage),
		vault:     make(map[string][]domain.VaultAccessLog),
	}
}

// --- port.UserStore ---

func (s *Store) CreateUser(_ context.Context, user *domain.UserAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return &domain.ErrDuplicate{Key: user.ID}
	}
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (*domain.UserAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	copied := *u
	return &copied, nil
}

func (s *Store) IncrementBillCounters(_ context.Context, userID string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u.TotalBills++
	u.TotalTransactions += amount
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) UpdateCachedScore(_ context.Context, userID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u.CachedScore = score
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// --- port.BillStore ---

func (s *Store) CreateBill(_ context.Context, bill *domain.BillRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bills[bill.UserID] = append(s.bills[bill.UserID], *bill)
	return nil
}

func (s *Store) ListBills(_ context.Context, userID string) ([]domain.BillRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bills := make([]domain.BillRecord, len(s.bills[userID]))
	copy(bills, s.bills[userID])
	return bills, nil
}

// --- port.AchievementStore ---

func (s *Store) CreateUnlock(_ context.Context, unlock *domain.AchievementUnlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%s|%s", unlock.UserID, unlock.Title)
	if _, exists := s.unlockKey[key]; exists {
		return &domain.ErrDuplicate{Key: key}
	}
	s.unlockKey[key] = struct{}{}
	s.unlocks[unlock.UserID] = append(s.unlocks[unlock.UserID], *unlock)
	return nil
}

func (s *Store) ListUnlocks(_ context.Context, userID string) ([]domain.AchievementUnlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unlocks := make([]domain.AchievementUnlock, len(s.unlocks[userID]))
	copy(unlocks, s.unlocks[userID])
	return unlocks, nil
}

// --- port.ChatStore ---

func (s *Store) AppendMessage(_ context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats[msg.SessionID] = append(s.chats[msg.SessionID], *msg)
	return nil
}

func (s *Store) ListMessages(_ context.Context, sessionID string) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]domain.ChatMessage, len(s.chats[sessionID]))
	copy(messages, s.chats[sessionID])
	return messages, nil
}

// --- port.VaultStore ---

func (s *Store) AppendAccessLog(_ context.Context, log *domain.VaultAccessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vault[log.UserID] = append(s.vault[log.UserID], *log)
	return nil
}

func (s *Store) ListAccessLogs(_ context.Context, userID string) ([]domain.VaultAccessLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.VaultAccessLog, len(s.vault[userID]))
	copy(logs, s.vault[userID])
	return logs, nil
}
