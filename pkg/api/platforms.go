package api

type RatingBreakdown struct {
	Payment    int `json:"payment"`
	Suspension int `json:"suspension"`
	Support    int `json:"support"`
}

type RatePlatformRequest struct {
	Platform string          `json:"platform"`
	Ratings  RatingBreakdown `json:"ratings"`
	Comment  string          `json:"comment"`
}

// PlatformIndexEntry is one row of the cross-worker platform leaderboard,
// averaged per platform over every submitted rating.
type PlatformIndexEntry struct {
	Platform      string  `json:"platform"`
	AvgPayment    float64 `json:"avgPayment"`
	AvgSuspension float64 `json:"avgSuspension"`
	AvgSupport    float64 `json:"avgSupport"`
	Count         int64   `json:"count"`
}
