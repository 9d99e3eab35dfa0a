// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/finaura/finaura-go/internal/domain"
)

// BillExtractor invokes the external document-understanding model and
// normalizes its output. A single best-effort attempt per call: no retries,
// no store writes, bounded by the configured timeout.
type BillExtractor interface {
	Extract(ctx context.Context, image []byte, contentType string) (*domain.BillFields, error)
}

// BillStore persists bill records.
type BillStore interface {
	CreateBill(ctx context.Context, bill *domain.BillRecord) error
	ListBills(ctx context.Context, userID string) ([]domain.BillRecord, error)
}

// UserStore persists user aggregates. IncrementBillCounters must be a single
// atomic increment at the storage layer, never an application-level
// read-modify-write.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.UserAggregate) error
	GetUser(ctx context.Context, userID string) (*domain.UserAggregate, error)
	IncrementBillCounters(ctx context.Context, userID string, amount float64) error
	UpdateCachedScore(ctx context.Context, userID string, score float64) error
}

// AchievementStore persists achievement unlocks. CreateUnlock must enforce
// uniqueness on (user_id, title) and return *domain.ErrDuplicate when the
// pair already exists, so racing evaluations cannot double-unlock.
type AchievementStore interface {
	CreateUnlock(ctx context.Context, unlock *domain.AchievementUnlock) error
	ListUnlocks(ctx context.Context, userID string) ([]domain.AchievementUnlock, error)
}

// ChatStore persists advisor chat transcripts, append-only.
type ChatStore interface {
	AppendMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}

// VaultStore persists vault access-log entries, append-only.
type VaultStore interface {
	AppendAccessLog(ctx context.Context, log *domain.VaultAccessLog) error
	ListAccessLogs(ctx context.Context, userID string) ([]domain.VaultAccessLog, error)
}

// AdvisorCaller invokes the external advisor agent service.
type AdvisorCaller interface {
	Call(ctx context.Context, req *domain.AdvisorRequest) (*domain.AdvisorResponse, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
