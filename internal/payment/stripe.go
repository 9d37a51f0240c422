// Package payment is a minimal client for the card-payment processor's REST
// API, covering only the two calls the submission flow needs: creating a
// charge intent and retrieving its status.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eta-service/internal/common/config"
	commonhttp "eta-service/internal/common/http"
)

// StatusSucceeded is the processor's terminal success status for a charge.
const StatusSucceeded = "succeeded"

// Intent is a created charge intent. The client secret goes back to the
// browser for card collection; it is never logged or persisted.
type Intent struct {
	IntentID     string
	ClientSecret string
}

// Charge is the retrieved state of an intent.
type Charge struct {
	IntentID    string
	Status      string
	AmountMinor int64
	Currency    string
}

// Metadata tags an intent for reconciliation against the application record.
type Metadata struct {
	ApplicantName  string
	PassportNumber string
	ServiceFee     int64
	ProcessingFee  int64
}

type Client struct {
	secretKey  string
	baseURL    string
	httpClient *commonhttp.Client
}

// apiError mirrors the processor's error envelope.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(cfg config.PaymentConfig) *Client {
	return &Client{
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: commonhttp.NewClient(30 * time.Second),
	}
}

// CreateIntent asks the processor for a new charge intent over the given
// amount in minor currency units. The receipt email and metadata let support
// match a charge to an application later.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency, receiptEmail string, meta Metadata) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)
	if receiptEmail != "" {
		form.Set("receipt_email", receiptEmail)
	}
	form.Set("metadata[service]", "uk-eta-application")
	form.Set("metadata[applicant_name]", meta.ApplicantName)
	form.Set("metadata[passport_number]", meta.PassportNumber)
	form.Set("metadata[service_fee_pence]", strconv.FormatInt(meta.ServiceFee, 10))
	form.Set("metadata[processing_fee_pence]", strconv.FormatInt(meta.ProcessingFee, 10))
	form.Set("automatic_payment_methods[enabled]", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment intent creation failed (status %d): %s", resp.StatusCode, extractErrorMessage(body))
	}

	var payload struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if payload.ID == "" || payload.ClientSecret == "" {
		return nil, fmt.Errorf("incomplete payment intent response")
	}

	return &Intent{IntentID: payload.ID, ClientSecret: payload.ClientSecret}, nil
}

// RetrieveCharge fetches the current state of an intent so the submission
// flow can confirm the charge actually succeeded before persisting anything.
func (c *Client) RetrieveCharge(ctx context.Context, intentID string) (*Charge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payment_intents/"+url.PathEscape(intentID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment intent retrieval failed (status %d): %s", resp.StatusCode, extractErrorMessage(body))
	}

	var payload struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &Charge{
		IntentID:    payload.ID,
		Status:      payload.Status,
		AmountMinor: payload.Amount,
		Currency:    payload.Currency,
	}, nil
}

// extractErrorMessage pulls the human-readable message out of the processor's
// error envelope, falling back to the raw body.
func extractErrorMessage(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return string(body)
}
