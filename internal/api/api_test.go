package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	backend "gigfair-backend/internal/api"
	"gigfair-backend/internal/database"
	"gigfair-backend/internal/messaging"
	"gigfair-backend/internal/storage"
	"gigfair-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

type testBackend struct {
	router *chi.Mux
	db     *gorm.DB
	queue  *messaging.InMemoryQueue
}

func newTestBackend(t *testing.T, create ...any) *testBackend {
	db := createDB(t, create...)

	queue := messaging.NewInMemoryQueue()
	t.Cleanup(queue.Close)

	objects, err := storage.NewLocalObjectStore(t.TempDir(), "http://localhost:8001/uploads")
	require.NoError(t, err)

	service := backend.NewBackendService(db, queue, objects, nil, backend.NewTokenIssuer("test-secret", time.Hour))

	router := chi.NewRouter()
	service.AddRoutes(router)

	return &testBackend{router: router, db: db, queue: queue}
}

func (b *testBackend) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)
	return rec
}

func (b *testBackend) register(t *testing.T, name, phone string) api.AuthResponse {
	rec := b.do(t, http.MethodPost, "/api/auth/register", "", api.RegisterRequest{Name: name, Phone: phone, Password: "secret123"})
	require.Equal(t, http.StatusOK, rec.Code, "received response: "+rec.Body.String())

	var resp api.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "received response: "+rec.Body.String())
	return out
}

func (b *testBackend) nextTask(t *testing.T) messaging.AnomalyTaskPayload {
	select {
	case task := <-b.queue.Tasks():
		var payload messaging.AnomalyTaskPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &payload))
		return payload
	default:
		t.Fatal("expected a queued anomaly task")
		return messaging.AnomalyTaskPayload{}
	}
}

func (b *testBackend) assertNoTasks(t *testing.T) {
	select {
	case task := <-b.queue.Tasks():
		t.Fatalf("unexpected queued task: %s", task.Payload())
	default:
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	b := newTestBackend(t)

	auth := b.register(t, "Asha", "+911234567890")
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "Asha", auth.User.Name)

	rec := b.do(t, http.MethodPost, "/api/auth/register", "", api.RegisterRequest{Name: "Asha Again", Phone: "+911234567890", Password: "other"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = b.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Phone: "+911234567890", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = b.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Phone: "+911234567890", Password: "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[api.AuthResponse](t, rec)
	assert.Equal(t, auth.User.Id, login.User.Id)

	rec = b.do(t, http.MethodGet, "/api/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[api.ProfileResponse](t, rec)
	assert.Equal(t, auth.User.Id, profile.Id)
	assert.Equal(t, "worker", profile.Role)
	assert.Equal(t, 100, profile.FairnessSummary.Score)
}

func TestAuthRequired(t *testing.T) {
	b := newTestBackend(t)

	rec := b.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = b.do(t, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	rec := b.do(t, http.MethodPut, "/api/users/me", auth.Token, api.UpdateProfileRequest{Name: "Asha K", Language: "hi"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = b.do(t, http.MethodGet, "/api/users/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[api.ProfileResponse](t, rec)
	assert.Equal(t, "Asha K", profile.Name)
	assert.Equal(t, "hi", profile.Language)
	assert.Equal(t, "+911234567890", profile.Phone)
}

func TestSubmitPayoutMatching(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	total := 1500.0
	rec := b.do(t, http.MethodPost, "/api/payouts/submit", auth.Token, api.SubmitPayoutRequest{
		Platform:          "rideshare",
		Period:            "2026-W35",
		PlatformStatement: api.Statement{Total: &total},
		ActualReceived:    1500,
	})
	require.Equal(t, http.StatusOK, rec.Code, "received response: "+rec.Body.String())

	resp := decode[api.SubmitPayoutResponse](t, rec)
	assert.True(t, resp.Verified)
	assert.Equal(t, 1500.0, resp.Expected)
	assert.Equal(t, 0.0, resp.Delta)
	assert.Empty(t, resp.Issues)

	b.assertNoTasks(t)

	rec = b.do(t, http.MethodGet, "/api/payouts/"+auth.User.Id.String(), auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []database.Payout `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].Verified)
}

func TestSubmitPayoutMismatchQueuesAnomaly(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	rec := b.do(t, http.MethodPost, "/api/payouts/submit", auth.Token, api.SubmitPayoutRequest{
		Platform: "delivery",
		Period:   "2026-W35",
		PlatformStatement: api.Statement{Items: []api.LineItem{
			{Amount: 80}, {Amount: 40},
		}},
		ActualReceived: 100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[api.SubmitPayoutResponse](t, rec)
	assert.False(t, resp.Verified)
	assert.Equal(t, 120.0, resp.Expected)
	assert.Equal(t, -20.0, resp.Delta)
	assert.Contains(t, resp.Issues, "payment_mismatch")

	payload := b.nextTask(t)
	assert.Equal(t, auth.User.Id, payload.WorkerId)
	assert.Equal(t, database.AnomalyPaymentDelta, payload.Type)
	assert.Equal(t, 20.0, payload.Score)
}

func TestSubmitPayoutRequiresPlatformAndPeriod(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	rec := b.do(t, http.MethodPost, "/api/payouts/submit", auth.Token, api.SubmitPayoutRequest{ActualReceived: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, b.db.Model(&database.Payout{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPredictSuspensionFallbackRules(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	rec := b.do(t, http.MethodPost, "/api/predict/suspension", auth.Token, api.PredictRequest{
		RecentStats: &api.RecentStats{
			Cancellations: 7,
			AcceptRate:    65,
			AvgRating:     4.1,
			Penalties:     2,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, "received response: "+rec.Body.String())

	prediction := decode[api.Prediction](t, rec)
	assert.Equal(t, api.RiskHigh, prediction.RiskLevel)
	assert.Equal(t, 0.99, prediction.Score)
	assert.NotEmpty(t, prediction.Reasons)

	payload := b.nextTask(t)
	assert.Equal(t, database.AnomalySuspensionRisk, payload.Type)
	assert.Equal(t, 0.99, payload.Score)

	rec = b.do(t, http.MethodGet, "/api/predict/history/"+auth.User.Id.String(), auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Items []database.RiskAssessment `json:"items"`
	}](t, rec)
	assert.Len(t, history.Items, 1)
}

func TestPredictSuspensionLowRiskNotQueued(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	rec := b.do(t, http.MethodPost, "/api/predict/suspension", auth.Token, api.PredictRequest{
		RecentStats: &api.RecentStats{
			Cancellations: 0,
			AcceptRate:    95,
			AvgRating:     4.9,
			Penalties:     0,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	prediction := decode[api.Prediction](t, rec)
	assert.Equal(t, api.RiskLow, prediction.RiskLevel)
	assert.Zero(t, prediction.Score)

	b.assertNoTasks(t)
}

func TestPredictSuspensionRejectsMissingStats(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	rec := b.do(t, http.MethodPost, "/api/predict/suspension", auth.Token, api.PredictRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, b.db.Model(&database.RiskAssessment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFairnessEndpoint(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	require.NoError(t, b.db.Create(&database.Payout{
		Id: uuid.New(), UserId: auth.User.Id, Platform: "rideshare", Period: "2026-W35", Verified: false,
	}).Error)
	require.NoError(t, b.db.Create(&database.Payout{
		Id: uuid.New(), UserId: auth.User.Id, Platform: "rideshare", Period: "2026-W36", Verified: true,
	}).Error)

	rec := b.do(t, http.MethodGet, "/api/fairness/"+auth.User.Id.String(), auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	score := decode[api.FairnessScore](t, rec)
	assert.Equal(t, 50, score.Components.Payment)
	assert.Equal(t, 100, score.Components.Suspension)
	assert.Equal(t, 80, score.Score)
	assert.NotNil(t, score.History)
	assert.Empty(t, score.History)
}

func TestTripRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	rec := b.do(t, http.MethodPost, "/api/blackbox/trips", auth.Token, api.CreateTripRequest{
		Platform:  "rideshare",
		TripId:    "trip-42",
		StartTime: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 8, 30, 9, 45, 0, 0, time.UTC),
		GpsPath:   json.RawMessage(`[{"lat":12.97,"lng":77.59}]`),
	})
	require.Equal(t, http.StatusOK, rec.Code, "received response: "+rec.Body.String())
	created := decode[api.CreateTripResponse](t, rec)
	assert.NotEqual(t, uuid.Nil, created.Id)

	rec = b.do(t, http.MethodGet, "/api/blackbox/trips/"+auth.User.Id.String(), auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []database.Trip `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "trip-42", list.Items[0].TripId)
}

func TestUploadEvidence(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "screenshot.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, form.WriteField("tags", `["payout","screenshot"]`))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload/evidence", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+auth.Token)
	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "received response: "+rec.Body.String())
	resp := decode[api.UploadEvidenceResponse](t, rec)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", resp.Sha256)
	assert.Contains(t, resp.StorageUrl, resp.EvidenceId.String())

	listRec := b.do(t, http.MethodGet, "/api/upload/evidence/"+auth.User.Id.String(), auth.Token, nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	list := decode[struct {
		Items []database.Evidence `json:"items"`
	}](t, listRec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, resp.Sha256, list.Items[0].Sha256)
}

func TestRatePlatformAndIndex(t *testing.T) {
	b := newTestBackend(t)
	asha := b.register(t, "Asha", "+911234567890")
	ravi := b.register(t, "Ravi", "+919999999999")

	rec := b.do(t, http.MethodPost, "/api/platforms/rate", asha.Token, api.RatePlatformRequest{
		Platform: "rideshare",
		Ratings:  api.RatingBreakdown{Payment: 8, Suspension: 6, Support: 4},
	})
	require.Equal(t, http.StatusOK, rec.Code, "received response: "+rec.Body.String())

	rec = b.do(t, http.MethodPost, "/api/platforms/rate", ravi.Token, api.RatePlatformRequest{
		Platform: "rideshare",
		Ratings:  api.RatingBreakdown{Payment: 4, Suspension: 2, Support: 6},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = b.do(t, http.MethodPost, "/api/platforms/rate", asha.Token, api.RatePlatformRequest{
		Platform: "rideshare",
		Ratings:  api.RatingBreakdown{Payment: 11, Suspension: 5, Support: 5},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = b.do(t, http.MethodGet, "/api/platforms/index", asha.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	index := decode[struct {
		Items []api.PlatformIndexEntry `json:"items"`
	}](t, rec)
	require.Len(t, index.Items, 1)
	assert.Equal(t, "rideshare", index.Items[0].Platform)
	assert.Equal(t, 6.0, index.Items[0].AvgPayment)
	assert.Equal(t, 4.0, index.Items[0].AvgSuspension)
	assert.Equal(t, 5.0, index.Items[0].AvgSupport)
	assert.Equal(t, int64(2), index.Items[0].Count)

	rec = b.do(t, http.MethodGet, "/api/platforms/ratings/"+asha.User.Id.String(), asha.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ratings := decode[struct {
		Items []database.PlatformRating `json:"items"`
	}](t, rec)
	assert.Len(t, ratings.Items, 1)
}

func TestDisputeLifecycle(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	rec := b.do(t, http.MethodPost, "/api/disputes/create", auth.Token, api.CreateDisputeRequest{
		Title:          "Unpaid surge bonus",
		Description:    "Surge bonus from last Friday never arrived.",
		Platform:       "rideshare",
		GenerateAppeal: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, "received response: "+rec.Body.String())

	created := decode[api.CreateDisputeResponse](t, rec)
	assert.NotEqual(t, uuid.Nil, created.DisputeId)
	require.NotNil(t, created.AppealLetter)
	assert.NotEmpty(t, created.AppealLetter.Subject)
	assert.NotEmpty(t, created.AppealLetter.Body)

	rec = b.do(t, http.MethodGet, "/api/disputes/"+auth.User.Id.String(), auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []database.Dispute `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, database.DisputeOpen, list.Items[0].Status)

	rec = b.do(t, http.MethodPost, "/api/disputes/"+created.DisputeId.String()+"/resolve", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var record database.Dispute
	require.NoError(t, b.db.First(&record, "id = ?", created.DisputeId).Error)
	assert.Equal(t, database.DisputeResolved, record.Status)

	rec = b.do(t, http.MethodPost, "/api/disputes/"+uuid.NewString()+"/resolve", auth.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDisputeRequiresTitle(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	rec := b.do(t, http.MethodPost, "/api/disputes/create", auth.Token, api.CreateDisputeRequest{Description: "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCase(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	evidenceId := uuid.New()
	require.NoError(t, b.db.Create(&database.Evidence{
		Id:         evidenceId,
		UserId:     auth.User.Id,
		StorageUrl: "http://localhost:8001/uploads/evidence/x/screenshot.png",
		Sha256:     "abc123",
		Tags:       datatypes.JSON(`["payout"]`),
	}).Error)

	rec := b.do(t, http.MethodPost, "/api/disputes/create", auth.Token, api.CreateDisputeRequest{
		Title:       "Unpaid surge bonus",
		EvidenceIds: []uuid.UUID{evidenceId},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[api.CreateDisputeResponse](t, rec)

	rec = b.do(t, http.MethodGet, "/api/export/case/"+created.DisputeId.String(), auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "case_"+created.DisputeId.String())
	assert.Contains(t, rec.Body.String(), "Unpaid surge bonus")
	assert.Contains(t, rec.Body.String(), "abc123")

	rec = b.do(t, http.MethodGet, "/api/export/case/"+uuid.NewString(), auth.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnomalyListAndAck(t *testing.T) {
	b := newTestBackend(t)
	auth := b.register(t, "Asha", "+911234567890")

	anomalyId := uuid.New()
	require.NoError(t, b.db.Create(&database.Anomaly{
		Id:      anomalyId,
		UserId:  auth.User.Id,
		Type:    database.AnomalyPaymentDelta,
		Details: datatypes.JSON(`{"delta":-20}`),
		Score:   20,
		Reasons: datatypes.JSON(`["payment mismatch detected"]`),
	}).Error)

	rec := b.do(t, http.MethodGet, "/api/anomalies/"+auth.User.Id.String(), auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []database.Anomaly `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.False(t, list.Items[0].Acknowledged)

	rec = b.do(t, http.MethodPost, "/api/anomalies/"+anomalyId.String()+"/ack", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var record database.Anomaly
	require.NoError(t, b.db.First(&record, "id = ?", anomalyId).Error)
	assert.True(t, record.Acknowledged)

	rec = b.do(t, http.MethodPost, "/api/anomalies/"+uuid.NewString()+"/ack", auth.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkerListsAreScoped(t *testing.T) {
	b := newTestBackend(t)
	asha := b.register(t, "Asha", "+911234567890")
	ravi := b.register(t, "Ravi", "+919999999999")

	total := 100.0
	rec := b.do(t, http.MethodPost, "/api/payouts/submit", asha.Token, api.SubmitPayoutRequest{
		Platform:          "rideshare",
		Period:            "2026-W35",
		PlatformStatement: api.Statement{Total: &total},
		ActualReceived:    100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = b.do(t, http.MethodGet, "/api/payouts/"+ravi.User.Id.String(), ravi.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []database.Payout `json:"items"`
	}](t, rec)
	assert.Empty(t, list.Items)
}
