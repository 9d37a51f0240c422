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

	"github.com/stretchr/testify/assert"

	"eta-service/internal/common/config"
	"eta-service/internal/common/errors"
	"eta-service/internal/common/logger"
	"eta-service/internal/models"
	"eta-service/internal/payment"
	"eta-service/internal/submission"
)

// --- fakes ---

type fakeSubmitter struct {
	intent       *payment.Intent
	startErr     error
	startCalls   int
	result       *submission.Result
	submitErr    error
	submitCalls  int
	lastIntentID string
}

func (f *fakeSubmitter) StartPayment(ctx context.Context, draft *models.ApplicationDraft) (*payment.Intent, error) {
	f.startCalls++
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.intent, nil
}

func (f *fakeSubmitter) Submit(ctx context.Context, draft *models.ApplicationDraft, intentID string) (*submission.Result, error) {
	f.submitCalls++
	f.lastIntentID = intentID
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.result, nil
}

type fakeStatus struct {
	result *models.StatusResult
	err    error
}

func (f *fakeStatus) Lookup(ctx context.Context, referenceNumber, email string) (*models.StatusResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeContact struct {
	messages []*models.ContactMessage
	err      error
}

func (f *fakeContact) RelayContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

type fakeCaptcha struct {
	err   error
	calls int
}

func (f *fakeCaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	f.calls++
	return f.err
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

type testEnv struct {
	server    *Server
	submitter *fakeSubmitter
	status    *fakeStatus
	contact   *fakeContact
	captcha   *fakeCaptcha
}

func newTestEnv() *testEnv {
	env := &testEnv{
		submitter: &fakeSubmitter{
			intent: &payment.Intent{IntentID: "pi_123", ClientSecret: "pi_123_secret"},
			result: &submission.Result{ReferenceNumber: "ETA-LX3K9M2F-A7QZ"},
		},
		status: &fakeStatus{
			result: &models.StatusResult{
				ReferenceNumber: "ETA-LX3K9M2F-A7QZ",
				Status:          models.StatusSubmitted,
				ApplicantName:   "Ayşe Yılmaz",
				SubmittedAt:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
			},
		},
		contact: &fakeContact{},
		captcha: &fakeCaptcha{},
	}

	cfg := &config.Config{}
	cfg.HTTP.Mode = "release"
	cfg.HTTP.Port = 8080
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Payment.Currency = "gbp"
	cfg.Payment.ServiceFeePence = 7900
	cfg.Payment.ProcessingFeePence = 250

	env.server = New(
		cfg,
		logger.NewNoOpLogger(),
		nil,
		func() Submitter { return env.submitter },
		env.status,
		env.contact,
		env.captcha,
		map[string]Pinger{"postgres": &fakePinger{}},
	)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		assert.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	return rec
}

// --- payment intent ---

func TestCreatePaymentIntent(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/payment-intent", reqBody{
		"formData":     map[string]interface{}{"email": "ayse@example.com"},
		"captchaToken": "token",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pi_123", resp["paymentIntentId"])
	assert.Equal(t, "pi_123_secret", resp["clientSecret"])
	assert.Equal(t, float64(8150), resp["amount"])
	assert.Equal(t, "gbp", resp["currency"])
	assert.Equal(t, 1, env.captcha.calls)
}

func TestCreatePaymentIntentCaptchaFailureSkipsPayment(t *testing.T) {
	env := newTestEnv()
	env.captcha.err = errors.NewCaptchaFailedError("invalid-input-response")

	rec := env.do(t, http.MethodPost, "/api/payment-intent", reqBody{
		"formData":     map[string]interface{}{},
		"captchaToken": "bad",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, env.submitter.startCalls, "captcha failure must precede payment work")
}

func TestCreatePaymentIntentProcessorError(t *testing.T) {
	env := newTestEnv()
	env.submitter.startErr = errors.NewPaymentIntentFailedError("Your card was declined.")

	rec := env.do(t, http.MethodPost, "/api/payment-intent", reqBody{"formData": map[string]interface{}{}})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	var resp errors.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Your card was declined.", resp.Error)
}

// --- submission ---

func TestSubmitApplication(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/applications", reqBody{
		"formData":        map[string]interface{}{"email": "ayse@example.com"},
		"paymentIntentId": "pi_123",
		"captchaToken":    "token",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "ETA-LX3K9M2F-A7QZ", resp["referenceNumber"])
	assert.Equal(t, false, resp["duplicate"])
	assert.Equal(t, "pi_123", env.submitter.lastIntentID)
}

func TestSubmitApplicationDuplicate(t *testing.T) {
	env := newTestEnv()
	env.submitter.result = &submission.Result{ReferenceNumber: "ETA-EXISTING-AAAA", Duplicate: true}

	rec := env.do(t, http.MethodPost, "/api/applications", reqBody{
		"formData":        map[string]interface{}{},
		"paymentIntentId": "pi_123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["duplicate"])
	assert.Equal(t, "ETA-EXISTING-AAAA", resp["referenceNumber"])
}

func TestSubmitApplicationShapeChecked(t *testing.T) {
	env := newTestEnv()

	// Missing paymentIntentId fails the schema before any captcha or
	// orchestrator work.
	rec := env.do(t, http.MethodPost, "/api/applications", reqBody{
		"formData": map[string]interface{}{},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.captcha.calls)
	assert.Equal(t, 0, env.submitter.submitCalls)
}

func TestSubmitApplicationValidationErrorCarriesFields(t *testing.T) {
	env := newTestEnv()
	env.submitter.submitErr = errors.NewValidationFailedError(map[string]string{
		"passportNumber": "passport.errors.numberInvalid",
	})

	rec := env.do(t, http.MethodPost, "/api/applications", reqBody{
		"formData":        map[string]interface{}{},
		"paymentIntentId": "pi_123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errors.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "passport.errors.numberInvalid", resp.Fields["passportNumber"])
}

// --- status ---

func TestStatusLookup(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/status", reqBody{
		"referenceNumber": "ETA-LX3K9M2F-A7QZ",
		"email":           "ayse@example.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp models.StatusResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusSubmitted, resp.Status)
	assert.Equal(t, "Ayşe Yılmaz", resp.ApplicantName)
}

func TestStatusLookupNotFound(t *testing.T) {
	env := newTestEnv()
	env.status.err = errors.NewApplicationNotFoundError("ETA-NOPE-XXXX")

	rec := env.do(t, http.MethodPost, "/api/status", reqBody{
		"referenceNumber": "ETA-NOPE-XXXX",
		"email":           "a@x.com",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusLookupRequiresBothFields(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/status", reqBody{"referenceNumber": "ETA-LX3K9M2F-A7QZ"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- contact ---

func TestContact(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/contact", reqBody{
		"name":         "Mehmet Demir",
		"email":        "mehmet@example.com",
		"message":      "How long does processing take?",
		"captchaToken": "token",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.contact.messages, 1)
	assert.Equal(t, "Mehmet Demir", env.contact.messages[0].Name)
}

func TestContactCaptchaGate(t *testing.T) {
	env := newTestEnv()
	env.captcha.err = errors.NewCaptchaRequiredError()

	rec := env.do(t, http.MethodPost, "/api/contact", reqBody{
		"name":    "Mehmet",
		"email":   "mehmet@example.com",
		"message": "hello",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.contact.messages)
}

// --- operational ---

func TestHealthz(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy":true`)
}

func TestHealthzDegraded(t *testing.T) {
	env := newTestEnv()
	env.server.health["postgres"] = &fakePinger{err: fmt.Errorf("connection refused")}

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 204, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

type reqBody = map[string]interface{}
