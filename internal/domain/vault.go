package domain

import "time"

// ============================================================
// Vault Access Log
// ============================================================

// VaultAccessLog is one audit entry for a data-vault access grant. Pure
// append; no derived state hangs off these.
type VaultAccessLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Accessor  string    `json:"accessor"`
	Purpose   string    `json:"purpose"`
	Granted   bool      `json:"granted"`
	Timestamp time.Time `json:"timestamp"`
}

// VaultGrantRequest is the body for POST /v1/vault/grants.
type VaultGrantRequest struct {
	UserID   string `json:"user_id"`
	Accessor string `json:"accessor"`
	Purpose  string `json:"purpose"`
}
