package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"eta-service/internal/common/config"
	"eta-service/internal/common/errors"
	"eta-service/internal/common/logger"
)

func TestVerifySkipsWithoutSecret(t *testing.T) {
	v := NewVerifier(config.TurnstileConfig{}, logger.NewNoOpLogger())

	assert.NoError(t, v.Verify(context.Background(), "", ""))
	assert.NoError(t, v.Verify(context.Background(), "any-token", "1.2.3.4"))
}

func TestVerifyMissingToken(t *testing.T) {
	v := NewVerifier(config.TurnstileConfig{SecretKey: "secret"}, logger.NewNoOpLogger())

	err := v.Verify(context.Background(), "", "")
	assert.Equal(t, errors.ErrCodeCaptchaRequired, errors.CodeOf(err))
}

func TestVerifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		assert.Equal(t, "token-abc", r.PostForm.Get("response"))
		assert.Equal(t, "1.2.3.4", r.PostForm.Get("remoteip"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	v := NewVerifier(config.TurnstileConfig{SecretKey: "secret", VerifyURL: server.URL}, logger.NewNoOpLogger())
	assert.NoError(t, v.Verify(context.Background(), "token-abc", "1.2.3.4"))
}

func TestVerifyRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer server.Close()

	v := NewVerifier(config.TurnstileConfig{SecretKey: "secret", VerifyURL: server.URL}, logger.NewNoOpLogger())

	err := v.Verify(context.Background(), "bad-token", "")
	assert.Equal(t, errors.ErrCodeCaptchaFailed, errors.CodeOf(err))
	assert.False(t, errors.IsRetryable(err))
}

func TestVerifyProviderUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	v := NewVerifier(config.TurnstileConfig{SecretKey: "secret", VerifyURL: server.URL}, logger.NewNoOpLogger())

	err := v.Verify(context.Background(), "token", "")
	assert.Equal(t, errors.ErrCodeCaptchaUnavailable, errors.CodeOf(err))
	assert.True(t, errors.IsRetryable(err))
}
