package domain

import "time"

// ============================================================
// Advisor Chat (FinAura Bot)
// ============================================================

// ChatMessage is one turn in an advisor conversation. Transcripts are
// append-only.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"` // user or assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AdvisorRequest is sent to the external advisor agent.
type AdvisorRequest struct {
	SessionID string        `json:"session_id"`
	UserID    string        `json:"user_id"`
	Message   string        `json:"message"`
	History   []ChatMessage `json:"history,omitempty"`
}

// AdvisorResponse is the agent's reply.
type AdvisorResponse struct {
	Reply      string     `json:"reply"`
	TokensUsed TokenUsage `json:"tokens_used"`
}

// TokenUsage reports LLM token consumption for one agent call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatAPIRequest is the body for POST /v1/chat.
type ChatAPIRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
}

// ChatAPIResponse is returned by POST /v1/chat.
type ChatAPIResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}
