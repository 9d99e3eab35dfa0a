package domain

import "time"

// ============================================================
// Bill Records
// ============================================================

// Extraction status of a BillRecord.
const (
	ExtractionOK      = "ok"      // all core fields extracted
	ExtractionPartial = "partial" // extraction succeeded, some fields missing
	ExtractionFailed  = "failed"  // the document model returned nothing usable
)

// BillRecord is the normalized result of one uploaded bill image.
// Records are immutable once persisted and owned by a single user.
type BillRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Vendor           *string   `json:"vendor"`
	Amount           *float64  `json:"amount"`
	Date             *string   `json:"date"` // YYYY-MM-DD
	Category         *string   `json:"category"`
	Items            []string  `json:"items"`
	PaymentMethod    *string   `json:"payment_method"`
	ExtractionStatus string    `json:"extraction_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// BillFields holds the typed output of the extraction boundary. Sub-fields
// the model could not produce (or produced garbage for) are nil rather than
// zero, so downstream code can tell "missing" from "zero".
type BillFields struct {
	Vendor        *string
	Amount        *float64
	Date          *string // YYYY-MM-DD
	Category      *string
	Items         []string
	PaymentMethod *string
}

// Complete reports whether all core fields (vendor, amount, date) survived
// normalization. Used to pick between extraction_status ok and partial.
func (f *BillFields) Complete() bool {
	return f.Vendor != nil && f.Amount != nil && f.Date != nil
}

// UploadResponse is returned by POST /v1/bills/upload.
type UploadResponse struct {
	Success bool        `json:"success"`
	Bill    *BillRecord `json:"bill"`
}
