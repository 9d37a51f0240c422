// Package status answers "where is my application" queries. A lookup is a
// pure read keyed by reference number plus the applicant's email; it has no
// side effects beyond warming the cache.
package status

import (
	"context"
	"database/sql"

	"eta-service/internal/common/errors"
	"eta-service/internal/common/logger"
	"eta-service/internal/common/metrics"
	"eta-service/internal/models"
	"eta-service/internal/reference"
)

// ApplicationFinder is the slice of the store this service reads from.
type ApplicationFinder interface {
	FindByReference(ctx context.Context, referenceNumber, email string) (*models.SubmittedApplication, error)
}

// ApplicationUpdater is the slice of the store the status-update path writes
// through. UpdateStatus returns the applicant email of the updated row.
type ApplicationUpdater interface {
	UpdateStatus(ctx context.Context, referenceNumber string, status models.ApplicationStatus) (string, error)
}

// ResultCache is the slice of the status cache this service uses. A nil
// cache disables caching.
type ResultCache interface {
	Get(ctx context.Context, referenceNumber, email string) (*models.StatusResult, error)
	Set(ctx context.Context, email string, result *models.StatusResult) error
	Invalidate(ctx context.Context, referenceNumber, email string) error
}

type Service struct {
	finder  ApplicationFinder
	updater ApplicationUpdater
	cache   ResultCache
	logger  logger.Logger
}

func NewService(finder ApplicationFinder, updater ApplicationUpdater, cache ResultCache, log logger.Logger) *Service {
	return &Service{finder: finder, updater: updater, cache: cache, logger: log}
}

// Lookup returns the display status for a reference number and email pair.
// A malformed reference, an unknown reference, and a wrong email all produce
// the same not-found outcome so the endpoint cannot be used to probe which
// references exist. Cache errors are logged and treated as misses.
func (s *Service) Lookup(ctx context.Context, referenceNumber, email string) (*models.StatusResult, error) {
	ref := reference.Normalize(referenceNumber)
	if !reference.IsValid(ref) {
		metrics.StatusLookups.WithLabelValues("not_found").Inc()
		return nil, errors.NewApplicationNotFoundError(ref)
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, ref, email)
		if err != nil {
			s.logger.WithError(err).Warn("Status cache read failed, falling through to store", nil)
		}
		if cached != nil {
			metrics.StatusLookups.WithLabelValues("cached").Inc()
			return cached, nil
		}
	}

	app, err := s.finder.FindByReference(ctx, ref, email)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("find_by_reference", err)
	}
	if app == nil {
		metrics.StatusLookups.WithLabelValues("not_found").Inc()
		return nil, errors.NewApplicationNotFoundError(ref)
	}

	result := &models.StatusResult{
		ReferenceNumber: app.ReferenceNumber,
		Status:          app.Status,
		ApplicantName:   app.ApplicantName(),
		SubmittedAt:     app.SubmittedAt,
		UpdatedAt:       app.UpdatedAt,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, email, result); err != nil {
			s.logger.WithError(err).Warn("Status cache write failed, continuing", nil)
		}
	}

	metrics.StatusLookups.WithLabelValues("found").Inc()
	return result, nil
}

// UpdateStatus moves an application to a new lifecycle status and drops the
// cached lookup result, so the status page never serves the old status for
// the remainder of the cache TTL. Invalidation failures are logged and left
// to the TTL; the database update already succeeded.
func (s *Service) UpdateStatus(ctx context.Context, referenceNumber string, newStatus models.ApplicationStatus) error {
	ref := reference.Normalize(referenceNumber)

	email, err := s.updater.UpdateStatus(ctx, ref, newStatus)
	if err == sql.ErrNoRows {
		return errors.NewApplicationNotFoundError(ref)
	}
	if err != nil {
		return errors.NewDatabaseQueryFailedError("update_status", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, ref, email); err != nil {
			s.logger.WithError(err).Warn("Status cache invalidation failed, entry expires with the TTL", nil)
		}
	}
	return nil
}
