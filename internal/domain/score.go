package domain

// ============================================================
// FinAura Score
// ============================================================

// Impact labels on a score factor.
const (
	ImpactPositive = "positive"
	ImpactNeutral  = "neutral"
	ImpactNegative = "negative"
)

// ScoreFactor is one component of the score explanation. Value is the raw
// observed input (bill count, category count, average amount); Contribution
// is the sub-score it yielded.
type ScoreFactor struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Impact       string  `json:"impact"`
	Contribution float64 `json:"contribution"`
}

// ScoreResult is the full score explanation. It is recomputed on demand;
// only Score is cached on the user aggregate.
type ScoreResult struct {
	Score           float64       `json:"score"`
	Factors         []ScoreFactor `json:"factors"`
	Recommendations []string      `json:"recommendations"`
}
