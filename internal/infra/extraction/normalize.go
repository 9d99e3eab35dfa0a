package extraction

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
)

// rawBill mirrors the JSON shape the model is instructed to return. Loosely
// typed on purpose: models return amounts as strings, dates in odd formats,
// and wrap everything in markdown fences.
type rawBill struct {
	Vendor        string   `json:"vendor"`
	Amount        any      `json:"amount"`
	Date          string   `json:"date"`
	Category      string   `json:"category"`
	Items         []string `json:"items"`
	PaymentMethod string   `json:"payment_method"`
}

// Normalize converts the model's raw JSON payload into typed bill fields.
// Sub-fields that cannot be coerced become nil instead of propagating a type
// error; only a payload with no JSON object at all is an error.
func Normalize(payload []byte) (*domain.BillFields, error) {
	text := stripFences(string(payload))

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, errors.New("no JSON object found in response")
	}

	var raw rawBill
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, err
	}

	fields := &domain.BillFields{
		Vendor:        nonEmpty(raw.Vendor),
		Amount:        coerceAmount(raw.Amount),
		Date:          coerceDate(raw.Date),
		Category:      nonEmpty(raw.Category),
		PaymentMethod: nonEmpty(raw.PaymentMethod),
	}
	for _, item := range raw.Items {
		if item = strings.TrimSpace(item); item != "" {
			fields.Items = append(fields.Items, item)
		}
	}
	return fields, nil
}

// stripFences removes markdown code fences the model likes to wrap JSON in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// coerceAmount accepts a number or a numeric string (possibly with currency
// symbols and thousand separators). Negative or unparseable values become nil.
func coerceAmount(v any) *float64 {
	var amount float64
	switch val := v.(type) {
	case float64:
		amount = val
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}
			return -1
		}, val)
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		amount = parsed
	default:
		return nil
	}
	if amount < 0 {
		return nil
	}
	return &amount
}

// dateFormats are tried in order when normalizing the model's date output.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
}

// coerceDate normalizes to YYYY-MM-DD, or nil when no known format matches.
func coerceDate(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			out := d.Format("2006-01-02")
			return &out
		}
	}
	return nil
}
