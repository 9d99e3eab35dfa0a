package domain

import "time"

// ============================================================
// Achievements
// ============================================================

// AchievementDefinition is one milestone tier. Definitions are static
// configuration, evaluated as data; adding a tier never touches the
// evaluation algorithm.
type AchievementDefinition struct {
	Title       string
	Description string
	Icon        string
	Threshold   int64
	Points      int
}

// DefaultTiers is the built-in milestone ladder, ordered by ascending
// threshold.
var DefaultTiers = []AchievementDefinition{
	{Title: "First Step", Description: "Upload your first bill", Icon: "trophy", Threshold: 1, Points: 10},
	{Title: "Getting Started", Description: "Upload 5 bills", Icon: "star", Threshold: 5, Points: 25},
	{Title: "Financial Tracker", Description: "Upload 10 bills", Icon: "medal", Threshold: 10, Points: 50},
	{Title: "Finance Master", Description: "Upload 20 bills", Icon: "crown", Threshold: 20, Points: 100},
}

// AchievementUnlock records that a user crossed a tier. Append-only; at most
// one unlock per (user_id, title), enforced by the store.
type AchievementUnlock struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Points      int       `json:"points"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}
