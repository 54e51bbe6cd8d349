package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/adwriter/internal/adgen"
	"github.com/jonathan/adwriter/internal/ads"
	"github.com/jonathan/adwriter/internal/credits"
	"github.com/jonathan/adwriter/internal/docstore"
	"github.com/jonathan/adwriter/internal/jobs"
	"github.com/jonathan/adwriter/internal/llm"
	"github.com/jonathan/adwriter/internal/payments"
	"github.com/jonathan/adwriter/internal/profiles"
	"github.com/jonathan/adwriter/internal/server/middleware"
	"github.com/jonathan/adwriter/internal/staleness"
	"github.com/jonathan/adwriter/internal/types"
)

const (
	testJWTSecret     = "test-jwt-secret"
	testWebhookSecret = "test-webhook-secret"
)

type fakeLLM struct{ calls int }

func (f *fakeLLM) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	f.calls++
	return fmt.Sprintf("generated ad #%d", f.calls), nil
}

func (f *fakeLLM) Close() error { return nil }

type fakeInitiator struct{}

func (fakeInitiator) InitiateCheckout(_ context.Context, _ string, _ types.ServiceKind, _ int) (string, error) {
	return "https://pay.example/session/abc", nil
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	log := zap.NewNop()
	store := docstore.NewMemoryStore()
	repo := profiles.NewRepository(store, log)
	jobSvc := jobs.NewService(repo, log)
	gateway := adgen.NewGateway(&fakeLLM{}, time.Second)
	tracker := staleness.NewTracker(staleness.DocumentMarkers{})
	adSvc := ads.NewService(repo, jobSvc, gateway, tracker, nil, log)
	ledger := credits.NewLedger(repo, log)

	s := &Server{
		log:           log,
		validate:      validator.New(),
		store:         store,
		repo:          repo,
		jobs:          jobSvc,
		ads:           adSvc,
		ledger:        ledger,
		checkout:      payments.NewCheckout(ledger, jobSvc, nil, log),
		processor:     payments.NewProcessor(store, ledger, nil, log),
		webhookSecret: testWebhookSecret,
	}
	s.auth = middleware.Auth(NewJWTService(testJWTSecret))
	return s, s.routes()
}

func bearerToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Name: "Test User",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthNeedsNoAuth(t *testing.T) {
	_, h := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsKeptWhenSupplied(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-chosen-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "caller-chosen-id", rec.Header().Get("X-Request-ID"))
}

func TestAuthRejections(t *testing.T) {
	_, h := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCompanyProfileDefaultThenSave(t *testing.T) {
	_, h := newTestServer(t)
	token := bearerToken(t, "alice")

	rec := doRequest(t, h, http.MethodGet, "/company-profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile types.CompanyProfile
	decodeBody(t, rec, &profile)
	assert.Equal(t, "unknown", profile.Name)

	rec = doRequest(t, h, http.MethodPut, "/company-profile", token, map[string]any{
		"company_name": "Acme GmbH",
		"city":         "Berlin",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/company-profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &profile)
	assert.Equal(t, "Acme GmbH", profile.Name)
	assert.Equal(t, "Berlin", profile.City)
}

func TestPutCompanyProfileValidation(t *testing.T) {
	_, h := newTestServer(t)
	token := bearerToken(t, "alice")

	rec := doRequest(t, h, http.MethodPut, "/company-profile", token, map[string]any{
		"city": "Berlin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "company_name is required")
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	_, h := newTestServer(t)
	token := bearerToken(t, "alice")

	rec := doRequest(t, h, http.MethodPost, "/jobs", token, map[string]any{
		"job_title": "Backend Engineer",
		"location":  "Berlin",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created types.JobProfile
	decodeBody(t, rec, &created)
	assert.Equal(t, 1, created.JobID)
	assert.Equal(t, types.JobStatusDraft, created.Status)

	rec = doRequest(t, h, http.MethodPut, "/jobs/1", token, map[string]any{
		"job_title": "Senior Backend Engineer",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var edited types.JobProfile
	decodeBody(t, rec, &edited)
	assert.Equal(t, "Senior Backend Engineer", edited.Title)
	assert.Equal(t, "Berlin", edited.Location, "absent fields stay untouched")

	rec = doRequest(t, h, http.MethodDelete, "/jobs/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Profiles []types.JobProfile `json:"job_profiles"`
		Count    int                `json:"count"`
	}
	rec = doRequest(t, h, http.MethodGet, "/jobs", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &listing)
	assert.Equal(t, 0, listing.Count)

	rec = doRequest(t, h, http.MethodGet, "/jobs?show_deleted=yes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &listing)
	assert.Equal(t, 1, listing.Count)

	rec = doRequest(t, h, http.MethodPost, "/jobs/1/recover", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/jobs/1/clone", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var clone types.JobProfile
	decodeBody(t, rec, &clone)
	assert.Equal(t, 2, clone.JobID)
	assert.Equal(t, "Senior Backend Engineer", clone.Title)
}

func TestCreateJobRejectsUnknownFields(t *testing.T) {
	_, h := newTestServer(t)
	token := bearerToken(t, "alice")

	rec := doRequest(t, h, http.MethodPost, "/jobs", token, map[string]any{
		"job_titel": "typo",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJobErrors(t *testing.T) {
	_, h := newTestServer(t)
	token := bearerToken(t, "alice")

	rec := doRequest(t, h, http.MethodGet, "/jobs/99", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/jobs/zero", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdFlowOverHTTP(t *testing.T) {
	_, h := newTestServer(t)
	token := bearerToken(t, "alice")

	rec := doRequest(t, h, http.MethodPost, "/jobs", token, map[string]any{
		"job_title": "Backend Engineer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// First fetch generates.
	rec = doRequest(t, h, http.MethodGet, "/jobs/1/ad", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ad ads.Ad
	decodeBody(t, rec, &ad)
	assert.Equal(t, "generated ad #1", ad.Text)
	assert.False(t, ad.Stale)

	// An edit makes the cached ad stale; fetch reports but keeps it.
	rec = doRequest(t, h, http.MethodPut, "/jobs/1", token, map[string]any{
		"job_title": "Senior Backend Engineer",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/jobs/1/ad", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &ad)
	assert.True(t, ad.Stale)
	assert.Equal(t, "generated ad #1", ad.Text)

	// Explicit regeneration clears staleness.
	rec = doRequest(t, h, http.MethodPost, "/jobs/1/ad/regenerate", token, map[string]any{
		"service": "premium_service",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &ad)
	assert.Equal(t, "generated ad #2", ad.Text)
	assert.False(t, ad.Stale)

	// Manual overwrite is trusted as in sync.
	rec = doRequest(t, h, http.MethodPut, "/jobs/1/ad", token, map[string]any{
		"text": "hand written ad",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/jobs/1/ad", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &ad)
	assert.Equal(t, "hand written ad", ad.Text)
	assert.False(t, ad.Stale)
}

func TestRegenerateRejectsUnknownService(t *testing.T) {
	_, h := newTestServer(t)
	token := bearerToken(t, "alice")

	rec := doRequest(t, h, http.MethodPost, "/jobs", token, map[string]any{
		"job_title": "Engineer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/jobs/1/ad/regenerate", token, map[string]any{
		"service": "gold_service",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentWebhookGrantsCreditsOnce(t *testing.T) {
	_, h := newTestServer(t)
	token := bearerToken(t, "alice")

	event := map[string]any{
		"event_id":         "evt-1",
		"tenant_key":       "alice",
		"selected_service": "standard_service",
		"selected_amount":  3,
	}

	// Wrong secret is rejected.
	body, err := json.Marshal(event)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Secret", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	deliver := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
		req.Header.Set("X-Webhook-Secret", testWebhookSecret)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, deliver().Code)
	require.Equal(t, http.StatusOK, deliver().Code, "replay is acknowledged, not re-applied")

	rec = doRequest(t, h, http.MethodGet, "/company-profile/credits", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance types.CreditBalance
	decodeBody(t, rec, &balance)
	assert.Equal(t, 3, balance.StandardService)
}

func TestSubmitJobOverHTTP(t *testing.T) {
	s, h := newTestServer(t)
	token := bearerToken(t, "alice")

	rec := doRequest(t, h, http.MethodPost, "/jobs", token, map[string]any{
		"job_title": "Engineer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Without credits the submit is a 402.
	rec = doRequest(t, h, http.MethodPost, "/jobs/1/submit", token, map[string]any{
		"service": "standard_service",
	})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	_, err := s.ledger.Increment(context.Background(), "alice", types.ServiceStandard, 1)
	require.NoError(t, err)

	rec = doRequest(t, h, http.MethodPost, "/jobs/1/submit", token, map[string]any{
		"service": "standard_service",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/jobs/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var job types.JobProfile
	decodeBody(t, rec, &job)
	assert.Equal(t, types.JobStatusSubmitted, job.Status)
}

func TestInitiateCheckout(t *testing.T) {
	s, h := newTestServer(t)
	token := bearerToken(t, "alice")

	body := map[string]any{"service": "standard_service", "amount": 3}

	rec := doRequest(t, h, http.MethodPost, "/checkout", token, body)
	assert.Equal(t, http.StatusNotImplemented, rec.Code, "no provider configured")

	s.initiator = fakeInitiator{}
	rec = doRequest(t, h, http.MethodPost, "/checkout", token, body)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CheckoutResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "https://pay.example/session/abc", resp.RedirectURL)

	rec = doRequest(t, h, http.MethodPost, "/checkout", token, map[string]any{
		"service": "standard_service",
		"amount":  0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantsAreIsolatedOverHTTP(t *testing.T) {
	_, h := newTestServer(t)
	alice := bearerToken(t, "alice")
	bob := bearerToken(t, "bob")

	rec := doRequest(t, h, http.MethodPost, "/jobs", alice, map[string]any{
		"job_title": "Alice's job",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/jobs/1", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Subjects that differ only in case or punctuation are distinct accounts
// and must resolve to distinct partitions.
func TestSimilarSubjectsDoNotShareTenant(t *testing.T) {
	_, h := newTestServer(t)

	rec := doRequest(t, h, http.MethodPost, "/jobs", bearerToken(t, "UserA"), map[string]any{
		"job_title": "UserA's job",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var listing struct {
		Count int `json:"count"`
	}
	for _, subject := range []string{"usera", "User-A", "User_A"} {
		rec = doRequest(t, h, http.MethodGet, "/jobs", bearerToken(t, subject), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &listing)
		assert.Equal(t, 0, listing.Count, "subject %q sees another subject's jobs", subject)
	}
}

func TestSubjectlessTokenIsRejected(t *testing.T) {
	_, h := newTestServer(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Name: "No Subject",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	rec := doRequest(t, h, http.MethodGet, "/jobs", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
