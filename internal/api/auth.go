package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gigfair-backend/internal/database"
	"gigfair-backend/pkg/api"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type contextKey string

const workerIdKey contextKey = "worker_id"

// TokenIssuer signs and validates the HS256 bearer tokens that carry the
// worker identity. The rest of the service treats that identity as an
// opaque trusted input.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

type workerClaims struct {
	WorkerId string `json:"workerId"`
	jwt.RegisteredClaims
}

func (t *TokenIssuer) Issue(workerId uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, workerClaims{
		WorkerId: workerId.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})
	return token.SignedString(t.secret)
}

func (t *TokenIssuer) Parse(raw string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(raw, &workerClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := parsed.Claims.(*workerClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token claims")
	}

	workerId, err := uuid.Parse(claims.WorkerId)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse workerId claim: %w", err)
	}

	return workerId, nil
}

// RequireAuth rejects requests without a valid bearer token and attaches
// the worker id to the request context.
func (s *BackendService) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			http.Error(w, "missing or malformed authorization header", http.StatusUnauthorized)
			return
		}

		workerId, err := s.tokens.Parse(raw)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), workerIdKey, workerId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WorkerId(r *http.Request) (uuid.UUID, error) {
	id, ok := r.Context().Value(workerIdKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, CodedErrorf(http.StatusUnauthorized, "no authenticated worker on request")
	}
	return id, nil
}

func (s *BackendService) Register(r *http.Request) (any, error) {
	req, err := ParseRequest[api.RegisterRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Name == "" || req.Phone == "" || req.Password == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "name, phone, and password are required")
	}

	ctx := r.Context()

	var existing int64
	if err := s.db.WithContext(ctx).Model(&database.User{}).Where("phone = ?", req.Phone).Count(&existing).Error; err != nil {
		slog.Error("error checking for existing user", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create user")
	}
	if existing > 0 {
		return nil, CodedErrorf(http.StatusConflict, "user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("error hashing password", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create user")
	}

	user := database.User{
		Id:           uuid.New(),
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         "worker",
		Language:     "en",
		CreationTime: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		slog.Error("error creating user", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create user")
	}

	token, err := s.tokens.Issue(user.Id)
	if err != nil {
		slog.Error("error issuing token", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to issue token")
	}

	return api.AuthResponse{
		Token: token,
		User:  api.UserInfo{Id: user.Id, Name: user.Name, Phone: user.Phone},
	}, nil
}

func (s *BackendService) Login(r *http.Request) (any, error) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var user database.User
	if err := s.db.WithContext(ctx).First(&user, "phone = ?", req.Phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusUnauthorized, "invalid credentials")
		}
		slog.Error("error looking up user", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "login failed")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, CodedErrorf(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Issue(user.Id)
	if err != nil {
		slog.Error("error issuing token", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to issue token")
	}

	return api.AuthResponse{
		Token: token,
		User:  api.UserInfo{Id: user.Id, Name: user.Name, Phone: user.Phone},
	}, nil
}
