package api

import "time"

type FairnessComponents struct {
	Payment    int `json:"payment"`
	Suspension int `json:"suspension"`
	Rating     int `json:"rating"`
	Disputes   int `json:"disputes"`
}

// FairnessSnapshot is reserved for a future score-over-time view; the
// history list is always empty for now.
type FairnessSnapshot struct {
	Score int       `json:"score"`
	Time  time.Time `json:"time"`
}

type FairnessScore struct {
	Score      int                `json:"score"`
	Components FairnessComponents `json:"components"`
	History    []FairnessSnapshot `json:"history"`
}
