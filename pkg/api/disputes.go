package api

import "github.com/google/uuid"

type CreateDisputeRequest struct {
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	EvidenceIds    []uuid.UUID `json:"evidenceIds"`
	GenerateAppeal bool        `json:"generateAppeal"`
	Platform       string      `json:"platform"`
	UserName       string      `json:"userName"`
}

type AppealLetter struct {
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	SummaryPoints []string `json:"summaryPoints"`
}

type CreateDisputeResponse struct {
	DisputeId    uuid.UUID     `json:"disputeId"`
	AppealLetter *AppealLetter `json:"appealLetter"`
}
