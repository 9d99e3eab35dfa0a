package domain

import "fmt"

// Error types for consistent error handling across the backend.

// Extraction failure reasons.
const (
	ExtractionUnparseable  = "unparseable"
	ExtractionServiceError = "service_error"
)

// ErrExtraction indicates the document model could not produce usable
// structured fields. The ingestion pipeline absorbs it into a failed
// BillRecord; it never aborts an upload.
type ErrExtraction struct {
	Reason    string // unparseable or service_error
	Retryable bool
	Err       error
}

func (e *ErrExtraction) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Reason, e.Err)
}

func (e *ErrExtraction) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input), rejected before
// any side effect.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrDuplicate indicates a storage uniqueness constraint fired. On
// achievement unlocks this is benign: the row already exists.
type ErrDuplicate struct {
	Key string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("duplicate record: %s", e.Key)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
