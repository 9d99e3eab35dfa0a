package extraction

import (
	"context"
	"errors"

	"github.com/finaura/finaura-go/internal/domain"
)

// Disabled is the extractor used when no model API key is configured.
// Uploads still work end to end; every record comes out as failed.
type Disabled struct{}

func (Disabled) Extract(context.Context, []byte, string) (*domain.BillFields, error) {
	return nil, &domain.ErrExtraction{
		Reason: domain.ExtractionServiceError,
		Err:    errors.New("extraction disabled: no API key configured"),
	}
}
