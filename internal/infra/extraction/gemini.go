// Package extraction invokes the external document-understanding model and
// normalizes its output into typed bill fields. The model is treated as an
// untrusted black box: one best-effort attempt per call, bounded by the
// configured timeout, and anything it returns passes through the strict
// normalization boundary in normalize.go before reaching the rest of the
// system.
package extraction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/resilience"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var tracer = otel.Tracer("extraction")

const extractionPrompt = `Analyze this bill/invoice image and extract the following information in JSON format:
{
    "vendor": "vendor name",
    "amount": total amount as number,
    "date": "date in YYYY-MM-DD format",
    "category": "category like groceries, utilities, shopping, food, etc",
    "items": ["list of items if visible"],
    "payment_method": "cash/card/upi if visible"
}

Respond ONLY with valid JSON, no additional text.`

// GeminiExtractor implements port.BillExtractor using Google Gemini vision.
type GeminiExtractor struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	timeout  time.Duration
	bulkhead *resilience.Bulkhead
	logger   *zap.Logger
}

// NewGeminiExtractor creates the extractor. timeout bounds each Extract call;
// the adapter never hangs past it. maxConcurrency caps in-flight model calls.
func NewGeminiExtractor(ctx context.Context, apiKey, modelName string, timeout time.Duration, maxConcurrency int, logger *zap.Logger) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GeminiExtractor{
		client:   client,
		model:    client.GenerativeModel(modelName),
		timeout:  timeout,
		bulkhead: resilience.NewBulkhead(maxConcurrency),
		logger:   logger,
	}, nil
}

// Extract sends the image to the model and returns normalized bill fields.
// A single attempt: retry policy, if any, belongs to the caller. Failures
// come back as *domain.ErrExtraction so the pipeline can degrade instead of
// crashing.
func (g *GeminiExtractor) Extract(ctx context.Context, image []byte, contentType string) (*domain.BillFields, error) {
	ctx, span := tracer.Start(ctx, "Gemini.Extract")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrExtraction{
			Reason:    domain.ExtractionServiceError,
			Retryable: true,
			Err:       err,
		}
	}
	defer g.bulkhead.Release()

	parts := []genai.Part{
		genai.ImageData(imageFormat(contentType), image),
		genai.Text(extractionPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		g.logger.Warn("extraction model call failed", zap.Error(err))
		return nil, &domain.ErrExtraction{
			Reason:    domain.ExtractionServiceError,
			Retryable: isRetryable(err),
			Err:       err,
		}
	}

	text := responseText(resp)
	if text == "" {
		return nil, &domain.ErrExtraction{
			Reason: domain.ExtractionUnparseable,
			Err:    errors.New("empty model response"),
		}
	}

	fields, err := Normalize([]byte(text))
	if err != nil {
		g.logger.Warn("extraction response not parseable", zap.Error(err))
		return nil, &domain.ErrExtraction{
			Reason: domain.ExtractionUnparseable,
			Err:    err,
		}
	}
	return fields, nil
}

// Close releases the underlying client.
func (g *GeminiExtractor) Close() error {
	return g.client.Close()
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

// imageFormat maps a MIME type to the format suffix genai.ImageData expects.
func imageFormat(contentType string) string {
	if f, ok := strings.CutPrefix(contentType, "image/"); ok && f != "" {
		return f
	}
	return "png"
}

// isRetryable classifies transport errors: timeouts, rate limits and 5xx
// responses are worth a retry by the caller, everything else is not.
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return false
}
