package api

// LineItem is a single entry in an itemized platform statement. Amounts
// missing from the wire payload decode as zero.
type LineItem struct {
	Amount float64 `json:"amount"`
}

// Statement is the expected-earnings document submitted with a payout. It
// carries either a flat total or a list of line items; the two variants are
// kept explicit so the expected-amount rule can branch on which one is set.
type Statement struct {
	Total *float64   `json:"total,omitempty"`
	Items []LineItem `json:"items,omitempty"`
}

type SubmitPayoutRequest struct {
	Platform          string    `json:"platform"`
	Period            string    `json:"period"`
	PlatformStatement Statement `json:"platformStatement"`
	ActualReceived    float64   `json:"actualReceived"`
}

type SubmitPayoutResponse struct {
	Verified bool     `json:"verified"`
	Expected float64  `json:"expected"`
	Delta    float64  `json:"delta"`
	Issues   []string `json:"issues"`
}
