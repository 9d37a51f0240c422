package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"eta-service/internal/common/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.PaymentConfig{
		SecretKey: "sk_test_123",
		BaseURL:   baseURL,
	})
}

func TestCreateIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "8150", r.PostForm.Get("amount"))
		assert.Equal(t, "gbp", r.PostForm.Get("currency"))
		assert.Equal(t, "ayse@example.com", r.PostForm.Get("receipt_email"))
		assert.Equal(t, "uk-eta-application", r.PostForm.Get("metadata[service]"))
		assert.Equal(t, "Ayşe Yılmaz", r.PostForm.Get("metadata[applicant_name]"))
		assert.Equal(t, "U12345678", r.PostForm.Get("metadata[passport_number]"))
		assert.Equal(t, "7900", r.PostForm.Get("metadata[service_fee_pence]"))
		assert.Equal(t, "250", r.PostForm.Get("metadata[processing_fee_pence]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","client_secret":"pi_123_secret_abc","status":"requires_payment_method"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	intent, err := client.CreateIntent(context.Background(), 8150, "gbp", "ayse@example.com", Metadata{
		ApplicantName:  "Ayşe Yılmaz",
		PassportNumber: "U12345678",
		ServiceFee:     7900,
		ProcessingFee:  250,
	})

	assert.NoError(t, err)
	assert.Equal(t, "pi_123", intent.IntentID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
}

func TestCreateIntentProcessorRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateIntent(context.Background(), 8150, "gbp", "a@x.com", Metadata{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Your card was declined.")
}

func TestRetrieveCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payment_intents/pi_123", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","status":"succeeded","amount":8150,"currency":"gbp"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	charge, err := client.RetrieveCharge(context.Background(), "pi_123")

	assert.NoError(t, err)
	assert.Equal(t, "pi_123", charge.IntentID)
	assert.Equal(t, StatusSucceeded, charge.Status)
	assert.Equal(t, int64(8150), charge.AmountMinor)
	assert.Equal(t, "gbp", charge.Currency)
}

func TestRetrieveChargeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such payment_intent: 'pi_missing'"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.RetrieveCharge(context.Background(), "pi_missing")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "No such payment_intent")
}
