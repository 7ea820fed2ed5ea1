package api

const (
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskUnknown = "unknown"
)

// RecentStats is the worker activity snapshot a risk prediction is based on.
type RecentStats struct {
	Cancellations           int     `json:"cancellations"`
	AcceptRate              float64 `json:"acceptRate"`
	AvgRating               float64 `json:"avgRating"`
	Penalties               int     `json:"penalties"`
	DaysSinceLastSuspension int     `json:"daysSinceLastSuspension"`
}

type PredictRequest struct {
	RecentStats *RecentStats `json:"recentStats"`
}

// Prediction is the suspension-risk verdict, either produced by the
// text-generation collaborator or by the deterministic fallback rules.
type Prediction struct {
	RiskLevel  string   `json:"riskLevel"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
	Mitigation []string `json:"mitigation"`
}
