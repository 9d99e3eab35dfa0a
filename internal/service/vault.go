package service

import (
	"context"
	"strings"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// VaultService records data-vault access grants as an append-only audit
// trail. Grants here are bookkeeping, not enforcement.
type VaultService struct {
	vault  port.VaultStore
	users  port.UserStore
	logger *zap.Logger
}

// NewVaultService creates the vault service.
func NewVaultService(vault port.VaultStore, users port.UserStore, logger *zap.Logger) *VaultService {
	return &VaultService{
		vault:  vault,
		users:  users,
		logger: logger,
	}
}

// Grant logs an access grant for a user's vault and returns the entry.
func (s *VaultService) Grant(ctx context.Context, req *domain.VaultGrantRequest) (*domain.VaultAccessLog, error) {
	if _, err := uuid.Parse(req.UserID); err != nil {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "must be a valid UUID"}
	}
	if strings.TrimSpace(req.Accessor) == "" {
		return nil, &domain.ErrValidation{Field: "accessor", Message: "accessor is required"}
	}
	if strings.TrimSpace(req.Purpose) == "" {
		return nil, &domain.ErrValidation{Field: "purpose", Message: "purpose is required"}
	}

	ctx, span := tracer.Start(ctx, "VaultService.Grant")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	if _, err := s.users.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	entry := &domain.VaultAccessLog{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Accessor:  req.Accessor,
		Purpose:   req.Purpose,
		Granted:   true,
		Timestamp: time.Now().UTC(),
	}

	if err := s.vault.AppendAccessLog(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("vault access granted",
		zap.String("user_id", req.UserID),
		zap.String("accessor", req.Accessor),
	)
	return entry, nil
}

// Logs returns a user's vault audit trail, oldest first.
func (s *VaultService) Logs(ctx context.Context, userID string) ([]domain.VaultAccessLog, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "must be a valid UUID"}
	}

	ctx, span := tracer.Start(ctx, "VaultService.Logs")
	defer span.End()

	return s.vault.ListAccessLogs(ctx, userID)
}
