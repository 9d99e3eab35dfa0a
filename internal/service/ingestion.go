package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/observability"
	"github.com/finaura/finaura-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

const (
	maxUploadBytes  = 10 << 20 // 10 MiB
	defaultCategory = "uncategorized"
)

// BillService runs the ingestion pipeline: extract, normalize, persist,
// bump counters, evaluate achievements. Every upload produces exactly one
// BillRecord; a failed extraction produces a failed record, not an error.
type BillService struct {
	extractor    port.BillExtractor
	bills        port.BillStore
	users        port.UserStore
	achievements *AchievementService
	cache        port.Cache[any]
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewBillService creates the ingestion service with all dependencies injected.
func NewBillService(extractor port.BillExtractor, bills port.BillStore, users port.UserStore, achievements *AchievementService, cache port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *BillService {
	return &BillService{
		extractor:    extractor,
		bills:        bills,
		users:        users,
		achievements: achievements,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
	}
}

// Ingest processes one uploaded bill image end to end.
//
// The bill insert is the commit point: failures before it leave no trace,
// failures after it (counter bump, achievement evaluation) are logged and
// absorbed so the caller still gets the persisted record. Identical images
// uploaded twice produce two independent records; there is no dedup.
func (s *BillService) Ingest(ctx context.Context, userID string, image []byte, contentType string) (*domain.BillRecord, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "must be a valid UUID"}
	}
	if len(image) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "file is empty"}
	}
	if len(image) > maxUploadBytes {
		return nil, &domain.ErrValidation{Field: "file", Message: "file exceeds 10MB limit"}
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, &domain.ErrValidation{Field: "file", Message: "file must be an image"}
	}

	ctx, span := tracer.Start(ctx, "BillService.Ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("upload.bytes", len(image)),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("ingest", time.Since(start))
	}()

	// Reject uploads for unknown users before touching the extractor.
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	record := &domain.BillRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	fields, err := s.extractor.Extract(ctx, image, contentType)
	if err != nil {
		// A failed extraction still counts as an upload: persist a failed
		// record with null fields and keep going.
		var extErr *domain.ErrExtraction
		reason := domain.ExtractionServiceError
		if errors.As(err, &extErr) {
			reason = extErr.Reason
		}
		s.metrics.IncrExtractionFailure(reason)
		s.logger.Warn("bill extraction failed",
			zap.String("user_id", userID),
			zap.String("bill_id", record.ID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		record.ExtractionStatus = domain.ExtractionFailed
		record.Items = []string{}
	} else {
		record.Vendor = fields.Vendor
		record.Amount = fields.Amount
		record.Date = fields.Date
		record.Category = fields.Category
		record.Items = fields.Items
		record.PaymentMethod = fields.PaymentMethod
		if record.Items == nil {
			record.Items = []string{}
		}
		if record.Category == nil {
			cat := defaultCategory
			record.Category = &cat
		}
		if fields.Complete() {
			record.ExtractionStatus = domain.ExtractionOK
		} else {
			record.ExtractionStatus = domain.ExtractionPartial
		}
	}
	span.SetAttributes(attribute.String("extraction.status", record.ExtractionStatus))

	// Commit point. A storage failure here aborts the upload with nothing
	// persisted and no counter movement.
	if err := s.bills.CreateBill(ctx, record); err != nil {
		s.metrics.IncrExternalError("bills")
		return nil, fmt.Errorf("failed to persist bill: %w", err)
	}
	s.metrics.IncrBillIngested(record.ExtractionStatus)

	amount := 0.0
	if record.Amount != nil {
		amount = *record.Amount
	}
	if err := s.users.IncrementBillCounters(ctx, userID, amount); err != nil {
		// The record is already durable; the counter self-corrects only via
		// ops tooling, so make the drift loud.
		s.logger.Error("failed to increment bill counters",
			zap.String("user_id", userID),
			zap.String("bill_id", record.ID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("users")
	}
	s.cache.Delete("user:" + userID)

	// Fire-and-continue: an achievement failure never fails the upload.
	if _, err := s.achievements.Evaluate(ctx, userID); err != nil {
		s.logger.Warn("achievement evaluation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	s.logger.Info("bill ingested",
		zap.String("user_id", userID),
		zap.String("bill_id", record.ID),
		zap.String("status", record.ExtractionStatus),
	)

	return record, nil
}

// ListBills returns a user's bill history, oldest first.
func (s *BillService) ListBills(ctx context.Context, userID string) ([]domain.BillRecord, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "must be a valid UUID"}
	}

	ctx, span := tracer.Start(ctx, "BillService.ListBills")
	defer span.End()

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.bills.ListBills(ctx, userID)
}
