// Package server wires the public HTTP API: payment-intent creation,
// application submission, status lookup, the contact form, and the
// operational endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eta-service/internal/common/config"
	"eta-service/internal/common/logger"
	"eta-service/internal/common/observability"
	"eta-service/internal/models"
	"eta-service/internal/payment"
	"eta-service/internal/submission"
)

// Submitter is one submission attempt's state machine. A fresh one is built
// per request via the factory so requests never share orchestrator state.
type Submitter interface {
	StartPayment(ctx context.Context, draft *models.ApplicationDraft) (*payment.Intent, error)
	Submit(ctx context.Context, draft *models.ApplicationDraft, intentID string) (*submission.Result, error)
}

// StatusLookup answers reference/email status queries.
type StatusLookup interface {
	Lookup(ctx context.Context, referenceNumber, email string) (*models.StatusResult, error)
}

// ContactRelay forwards contact-form messages to the operator inbox.
type ContactRelay interface {
	RelayContactMessage(ctx context.Context, msg *models.ContactMessage) error
}

// CaptchaGate verifies bot-mitigation tokens before any form processing.
type CaptchaGate interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg     *config.Config
	logger  logger.Logger
	engine  *gin.Engine
	obs     *observability.Observability
	newOrch func() Submitter
	status  StatusLookup
	contact ContactRelay
	captcha CaptchaGate
	health  map[string]Pinger
}

func New(
	cfg *config.Config,
	log logger.Logger,
	obs *observability.Observability,
	newOrch func() Submitter,
	statusSvc StatusLookup,
	contact ContactRelay,
	captchaGate CaptchaGate,
	health map[string]Pinger,
) *Server {
	gin.SetMode(cfg.HTTP.Mode)

	s := &Server{
		cfg:     cfg,
		logger:  log,
		engine:  gin.New(),
		obs:     obs,
		newOrch: newOrch,
		status:  statusSvc,
		contact: contact,
		captcha: captchaGate,
		health:  health,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(corsMiddleware(cfg.HTTP.AllowedOrigins))
	s.engine.Use(requestLogger(log, obs))

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.POST("/payment-intent", s.handleCreatePaymentIntent)
		api.POST("/applications", s.handleSubmitApplication)
		api.POST("/status", s.handleStatusLookup)
		api.POST("/contact", s.handleContact)
	}

	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler exposes the router for tests and for the HTTP server in main.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr is the listen address from configuration.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.cfg.HTTP.Port)
}
