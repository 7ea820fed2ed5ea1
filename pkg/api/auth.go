package api

import (
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type UserInfo struct {
	Id    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
}

type ProfileResponse struct {
	Id              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Phone           string        `json:"phone"`
	Role            string        `json:"role"`
	Language        string        `json:"language"`
	FairnessSummary FairnessScore `json:"fairnessSummary"`
}
