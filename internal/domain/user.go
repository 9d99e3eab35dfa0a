package domain

import "time"

// ============================================================
// User Aggregate
// ============================================================

// UserAggregate holds a user's denormalized counters. total_bills and
// total_transactions are only ever incremented (atomically, in the store);
// cached_score is written back by the score service after each computation.
type UserAggregate struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	TotalBills        int64     `json:"total_bills"`
	CachedScore       float64   `json:"finaura_score"`
	TotalTransactions float64   `json:"total_transactions"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateUserRequest is the body for POST /v1/users.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
