// Package captcha verifies bot-mitigation challenge tokens with the
// challenge provider before any form submission is processed.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eta-service/internal/common/config"
	"eta-service/internal/common/errors"
	commonhttp "eta-service/internal/common/http"
	"eta-service/internal/common/logger"
)

type Verifier struct {
	secretKey string
	verifyURL string
	client    *commonhttp.Client
	logger    logger.Logger
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func NewVerifier(cfg config.TurnstileConfig, log logger.Logger) *Verifier {
	return &Verifier{
		secretKey: cfg.SecretKey,
		verifyURL: cfg.VerifyURL,
		client:    commonhttp.NewClient(10 * time.Second),
		logger:    log,
	}
}

// Verify checks a client-supplied challenge token. With no secret configured
// the check is skipped with a warning so local development works without a
// provider account. A missing token, a failed verification, and an
// unreachable provider are three distinct errors so callers can message them
// differently; none of them is retried here.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if v.secretKey == "" {
		v.logger.Warn("Captcha secret not configured, skipping verification", nil)
		return nil
	}

	if token == "" {
		return errors.NewCaptchaRequiredError()
	}

	form := url.Values{}
	form.Set("secret", v.secretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.NewCaptchaUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.WithError(err).Error("Captcha verification request failed", nil)
		return errors.NewCaptchaUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("challenge provider returned status %d", resp.StatusCode)
		v.logger.WithError(err).Error("Captcha verification request failed", nil)
		return errors.NewCaptchaUnavailableError(err)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.logger.WithError(err).Error("Captcha verification response unreadable", nil)
		return errors.NewCaptchaUnavailableError(err)
	}

	if !result.Success {
		v.logger.Error("Captcha verification failed", map[string]interface{}{
			"error_codes": result.ErrorCodes,
		})
		return errors.NewCaptchaFailedError(strings.Join(result.ErrorCodes, ", "))
	}

	return nil
}
