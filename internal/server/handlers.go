package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eta-service/internal/common/errors"
	"eta-service/internal/models"
)

type paymentIntentRequest struct {
	FormData     models.ApplicationDraft `json:"formData"`
	CaptchaToken string                  `json:"captchaToken"`
}

type submitRequest struct {
	FormData        models.ApplicationDraft `json:"formData"`
	PaymentIntentID string                  `json:"paymentIntentId"`
	CaptchaToken    string                  `json:"captchaToken"`
}

type statusRequest struct {
	ReferenceNumber string `json:"referenceNumber"`
	Email           string `json:"email"`
}

type contactRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	CaptchaToken string `json:"captchaToken"`
}

func (s *Server) renderError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), errors.ToResponse(err))
}

// handleCreatePaymentIntent validates the draft and asks the processor for a
// charge intent. The captcha gate runs before any payment work.
func (s *Server) handleCreatePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := s.captcha.Verify(c.Request.Context(), req.CaptchaToken, c.ClientIP()); err != nil {
		s.renderError(c, err)
		return
	}

	intent, err := s.newOrch().StartPayment(c.Request.Context(), &req.FormData)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentIntentId": intent.IntentID,
		"clientSecret":    intent.ClientSecret,
		"amount":          s.cfg.Payment.TotalPence(),
		"currency":        s.cfg.Payment.Currency,
	})
}

// handleSubmitApplication confirms the charge and persists the application.
// The body shape is checked against the compiled schema before binding.
func (s *Server) handleSubmitApplication(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{Error: "unable to read request body"})
		return
	}

	if err := checkSubmitShape(body); err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{Error: err.Error()})
		return
	}

	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := s.captcha.Verify(c.Request.Context(), req.CaptchaToken, c.ClientIP()); err != nil {
		s.renderError(c, err)
		return
	}

	result, err := s.newOrch().Submit(c.Request.Context(), &req.FormData, req.PaymentIntentID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"referenceNumber": result.ReferenceNumber,
		"duplicate":       result.Duplicate,
	})
}

// handleStatusLookup is a pure read; no captcha gate, nothing mutated.
func (s *Server) handleStatusLookup(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.ReferenceNumber == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{Error: "referenceNumber and email are required"})
		return
	}

	result, err := s.status.Lookup(c.Request.Context(), req.ReferenceNumber, req.Email)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleContact relays a contact-form message after the captcha gate.
func (s *Server) handleContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{Error: "name, email and message are required"})
		return
	}

	if err := s.captcha.Verify(c.Request.Context(), req.CaptchaToken, c.ClientIP()); err != nil {
		s.renderError(c, err)
		return
	}

	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := s.contact.RelayContactMessage(c.Request.Context(), msg); err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleHealthz pings each backing service with a short deadline.
func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	for name, pinger := range s.health {
		if err := pinger.Ping(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
		} else {
			checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy, "checks": checks})
}
