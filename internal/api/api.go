package api

import (
	"context"
	"log/slog"
	"net/http"

	"gigfair-backend/internal/dispute"
	"gigfair-backend/internal/fairness"
	"gigfair-backend/internal/llm"
	"gigfair-backend/internal/messaging"
	"gigfair-backend/internal/risk"
	"gigfair-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type BackendService struct {
	db        *gorm.DB
	publisher messaging.Publisher
	objects   storage.ObjectStore
	tokens    *TokenIssuer

	predictor *risk.Predictor
	assembler *dispute.Assembler
	fairness  *fairness.Aggregator
}

func NewBackendService(db *gorm.DB, publisher messaging.Publisher, objects storage.ObjectStore, generator llm.Generator, tokens *TokenIssuer) *BackendService {
	return &BackendService{
		db:        db,
		publisher: publisher,
		objects:   objects,
		tokens:    tokens,
		predictor: risk.NewPredictor(generator),
		assembler: dispute.NewAssembler(db, generator),
		fairness:  fairness.NewAggregator(db),
	}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", RestHandler(s.Register))
			r.Post("/login", RestHandler(s.Login))
		})

		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", RestHandler(s.GetMe))
				r.Put("/me", RestHandler(s.UpdateMe))
			})
			r.Route("/blackbox", func(r chi.Router) {
				r.Post("/trips", RestHandler(s.CreateTrip))
				r.Get("/trips/{worker_id}", RestHandler(s.GetTrips))
			})
			r.Route("/upload", func(r chi.Router) {
				r.Post("/evidence", RestHandler(s.UploadEvidence))
				r.Get("/evidence/{worker_id}", RestHandler(s.GetEvidence))
			})
			r.Route("/payouts", func(r chi.Router) {
				r.Post("/submit", RestHandler(s.SubmitPayout))
				r.Get("/{worker_id}", RestHandler(s.GetPayouts))
			})
			r.Route("/predict", func(r chi.Router) {
				r.Post("/suspension", RestHandler(s.PredictSuspension))
				r.Get("/history/{worker_id}", RestHandler(s.GetPredictionHistory))
			})
			r.Route("/fairness", func(r chi.Router) {
				r.Get("/{worker_id}", RestHandler(s.GetFairnessScore))
			})
			r.Route("/platforms", func(r chi.Router) {
				r.Post("/rate", RestHandler(s.RatePlatform))
				r.Get("/index", RestHandler(s.GetPlatformIndex))
				r.Get("/ratings/{worker_id}", RestHandler(s.GetWorkerRatings))
			})
			r.Route("/anomalies", func(r chi.Router) {
				r.Get("/{worker_id}", RestHandler(s.GetAnomalies))
				r.Post("/{anomaly_id}/ack", RestHandler(s.AcknowledgeAnomaly))
			})
			r.Route("/disputes", func(r chi.Router) {
				r.Post("/create", RestHandler(s.CreateDispute))
				r.Get("/{worker_id}", RestHandler(s.GetDisputes))
				r.Post("/{dispute_id}/resolve", RestHandler(s.ResolveDispute))
			})
			r.Route("/export", func(r chi.Router) {
				r.Get("/case/{dispute_id}", s.ExportCase)
			})
		})
	})
}

// publishAnomaly queues an anomaly record best-effort. The parent record is
// already committed when this runs; a publish failure costs an audit entry,
// not the request.
func (s *BackendService) publishAnomaly(ctx context.Context, payload messaging.AnomalyTaskPayload) {
	if err := s.publisher.PublishAnomalyTask(ctx, payload); err != nil {
		slog.Error("error publishing anomaly task", "worker_id", payload.WorkerId, "type", payload.Type, "error", err)
	}
}
