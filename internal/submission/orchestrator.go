// Package submission orchestrates the end of the application flow: charge
// intent creation, charge confirmation, idempotent persistence, photo upload,
// and notifications. One orchestrator serves one submission attempt; the
// collaborators behind it are shared and stateless.
package submission

import (
	"context"
	stderrors "errors"
	"time"

	"eta-service/internal/common/errors"
	"eta-service/internal/common/logger"
	"eta-service/internal/common/metrics"
	"eta-service/internal/models"
	"eta-service/internal/payment"
	"eta-service/internal/reference"
	"eta-service/internal/store"
	"eta-service/internal/validation"
)

// PaymentClient creates and retrieves charge intents.
type PaymentClient interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, receiptEmail string, meta payment.Metadata) (*payment.Intent, error)
	RetrieveCharge(ctx context.Context, intentID string) (*payment.Charge, error)
}

// ApplicationStore persists and looks up submitted applications.
type ApplicationStore interface {
	Insert(ctx context.Context, app *models.SubmittedApplication) error
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.SubmittedApplication, error)
}

// PhotoUploader stores one photo and returns its public URL.
type PhotoUploader interface {
	Upload(ctx context.Context, referenceNumber, name, dataURL string) (string, error)
}

// Notifier sends the post-submission messages.
type Notifier interface {
	SendConfirmation(ctx context.Context, app *models.SubmittedApplication) error
	SendOperatorNotice(ctx context.Context, app *models.SubmittedApplication) error
}

// SMSNotifier texts the applicant their reference number.
type SMSNotifier interface {
	SendConfirmation(ctx context.Context, app *models.SubmittedApplication) error
}

// SearchIndexer mirrors the record for back-office search.
type SearchIndexer interface {
	Index(ctx context.Context, app *models.SubmittedApplication)
}

// Pricing is the configured charge breakdown in minor currency units.
type Pricing struct {
	ServiceFeeMinor    int64
	ProcessingFeeMinor int64
	Currency           string
}

func (p Pricing) TotalMinor() int64 {
	return p.ServiceFeeMinor + p.ProcessingFeeMinor
}

// Result is the terminal outcome of a submission. Duplicate is true when the
// charge id had already been persisted and the existing record was returned.
type Result struct {
	ReferenceNumber string
	Duplicate       bool
}

type Orchestrator struct {
	payments  PaymentClient
	store     ApplicationStore
	photos    PhotoUploader
	mailer    Notifier
	texter    SMSNotifier
	indexer   SearchIndexer
	validator *validation.Validator
	pricing   Pricing
	logger    logger.Logger

	now func() time.Time

	phase   Phase
	lastErr error
}

func NewOrchestrator(
	payments PaymentClient,
	appStore ApplicationStore,
	photos PhotoUploader,
	mailer Notifier,
	texter SMSNotifier,
	indexer SearchIndexer,
	validator *validation.Validator,
	pricing Pricing,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		payments:  payments,
		store:     appStore,
		photos:    photos,
		mailer:    mailer,
		texter:    texter,
		indexer:   indexer,
		validator: validator,
		pricing:   pricing,
		logger:    log,
		now:       time.Now,
		phase:     PhaseReviewing,
	}
}

// Phase returns the orchestrator's current position in the flow.
func (o *Orchestrator) Phase() Phase { return o.phase }

// LastError returns the error that moved the orchestrator to Errored.
func (o *Orchestrator) LastError() error { return o.lastErr }

// Reset returns an errored orchestrator to Reviewing. The draft lives with
// the caller, so nothing else needs restoring.
func (o *Orchestrator) Reset() {
	if o.phase == PhaseErrored {
		o.phase = PhaseReviewing
		o.lastErr = nil
	}
}

func (o *Orchestrator) fail(err error) error {
	stage := o.phase.String()
	o.phase = PhaseErrored
	o.lastErr = err
	if stdErr, ok := errors.AsStandardError(err); ok {
		metrics.SubmissionFailures.WithLabelValues(stage, string(stdErr.Code)).Inc()
	}
	return err
}

// StartPayment validates the completed draft, requires every consent flag,
// and asks the processor for a charge intent over the configured total. On
// success the orchestrator waits for the browser to confirm the charge.
func (o *Orchestrator) StartPayment(ctx context.Context, draft *models.ApplicationDraft) (*payment.Intent, error) {
	if fieldErrs := o.validator.ValidateConsent(draft.ConsentFlags); fieldErrs != nil {
		return nil, o.fail(errors.NewConsentRequiredError(fieldErrs))
	}
	if fieldErrs := o.validator.ValidateDraft(draft); fieldErrs != nil {
		return nil, o.fail(errors.NewValidationFailedError(fieldErrs))
	}

	o.phase = PhaseAwaitingChargeIntent

	intent, err := o.payments.CreateIntent(ctx, o.pricing.TotalMinor(), o.pricing.Currency, draft.Email, payment.Metadata{
		ApplicantName:  draft.ApplicantName(),
		PassportNumber: draft.PassportNumber,
		ServiceFee:     o.pricing.ServiceFeeMinor,
		ProcessingFee:  o.pricing.ProcessingFeeMinor,
	})
	if err != nil {
		// The processor's message goes to the user verbatim; the draft is
		// untouched and the attempt can be retried.
		return nil, o.fail(errors.NewPaymentIntentFailedError(err.Error()))
	}

	metrics.PaymentIntentsCreated.Inc()
	o.logger.Info("Payment intent created", map[string]interface{}{
		"payment_intent_id": intent.IntentID,
		"amount":            o.pricing.TotalMinor(),
		"currency":          o.pricing.Currency,
	})

	o.phase = PhaseAwaitingChargeConfirmation
	return intent, nil
}

// Submit confirms the charge succeeded and persists the application exactly
// once per charge id. Photo upload, notifications, and search indexing are
// soft operations: their failures are logged and never block completion.
func (o *Orchestrator) Submit(ctx context.Context, draft *models.ApplicationDraft, intentID string) (*Result, error) {
	started := o.now()
	if o.phase == PhaseReviewing {
		// Resuming a session after the browser confirmed the charge.
		o.phase = PhaseAwaitingChargeConfirmation
	}

	charge, err := o.retrieveChargeWithRetry(ctx, intentID)
	if err != nil {
		return nil, o.fail(err)
	}
	if charge.Status != payment.StatusSucceeded {
		return nil, o.fail(errors.NewPaymentNotCompletedError(intentID, charge.Status))
	}

	o.phase = PhaseSubmitting

	// Idempotency guard: a retried or double-clicked submit with the same
	// charge id returns the original record instead of writing a second one.
	existing, err := o.store.FindByPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, o.fail(errors.NewDatabaseQueryFailedError("find_by_payment_intent", err))
	}
	if existing != nil {
		return o.complete(existing, true, started), nil
	}

	app := models.NewSubmittedApplication(
		reference.Generate(o.now()),
		draft,
		charge.IntentID,
		charge.AmountMinor,
		charge.Currency,
		o.now().UTC(),
	)

	// Photo uploads must not block submission; a missing photo is handled
	// by back office follow-up, a lost payment is not.
	app.SelfiePhotoURL = o.uploadPhoto(ctx, app.ReferenceNumber, "selfie", draft.SelfiePhoto)
	app.PassportPhotoURL = o.uploadPhoto(ctx, app.ReferenceNumber, "passport", draft.PassportPhoto)

	if err := o.store.Insert(ctx, app); err != nil {
		if stderrors.Is(err, store.ErrDuplicatePaymentIntent) {
			// Lost the race against a concurrent submit of the same charge.
			// The constraint held, so re-read and return the winner's record.
			winner, findErr := o.store.FindByPaymentIntent(ctx, intentID)
			if findErr == nil && winner != nil {
				return o.complete(winner, true, started), nil
			}
			return nil, o.fail(errors.NewDatabaseInsertFailedError(intentID, err))
		}
		// Payment has already succeeded here, so the message directs the
		// user to support with the charge id instead of a blind retry.
		return nil, o.fail(errors.NewDatabaseInsertFailedError(intentID, err))
	}

	o.notify(ctx, app)
	o.indexer.Index(ctx, app)

	return o.complete(app, false, started), nil
}

// retrieveChargeWithRetry allows one automatic retry on charge retrieval;
// the status check itself is never retried.
func (o *Orchestrator) retrieveChargeWithRetry(ctx context.Context, intentID string) (*payment.Charge, error) {
	charge, err := o.payments.RetrieveCharge(ctx, intentID)
	if err == nil {
		return charge, nil
	}

	o.logger.WithError(err).Warn("Charge retrieval failed, retrying once", map[string]interface{}{
		"payment_intent_id": intentID,
	})

	charge, retryErr := o.payments.RetrieveCharge(ctx, intentID)
	if retryErr != nil {
		return nil, errors.NewPaymentLookupFailedError(intentID, retryErr)
	}
	return charge, nil
}

func (o *Orchestrator) uploadPhoto(ctx context.Context, referenceNumber, name, dataURL string) string {
	if dataURL == "" {
		return ""
	}
	url, err := o.photos.Upload(ctx, referenceNumber, name, dataURL)
	if err != nil {
		metrics.SoftFailures.WithLabelValues("photo_upload").Inc()
		o.logger.WithError(err).Warn("Photo upload failed, continuing without it", map[string]interface{}{
			"reference_number": referenceNumber,
			"photo":            name,
		})
		return ""
	}
	return url
}

// notify sends the confirmation email, operator notice, and SMS. Failures
// are logged and swallowed on purpose: submission success is defined solely
// by successful persistence.
func (o *Orchestrator) notify(ctx context.Context, app *models.SubmittedApplication) {
	if err := o.mailer.SendConfirmation(ctx, app); err != nil {
		metrics.SoftFailures.WithLabelValues("confirmation_email").Inc()
		o.logger.WithError(err).Warn("Confirmation email failed, continuing", map[string]interface{}{
			"reference_number": app.ReferenceNumber,
		})
	}
	if err := o.mailer.SendOperatorNotice(ctx, app); err != nil {
		metrics.SoftFailures.WithLabelValues("operator_email").Inc()
		o.logger.WithError(err).Warn("Operator notice failed, continuing", map[string]interface{}{
			"reference_number": app.ReferenceNumber,
		})
	}
	if err := o.texter.SendConfirmation(ctx, app); err != nil {
		metrics.SoftFailures.WithLabelValues("sms").Inc()
		o.logger.WithError(err).Warn("Confirmation SMS failed, continuing", map[string]interface{}{
			"reference_number": app.ReferenceNumber,
		})
	}
}

func (o *Orchestrator) complete(app *models.SubmittedApplication, duplicate bool, started time.Time) *Result {
	o.phase = PhaseComplete

	outcome := "fresh"
	if duplicate {
		outcome = "duplicate"
	}
	metrics.SubmissionsCompleted.WithLabelValues(outcome).Inc()
	metrics.SubmissionDuration.Observe(o.now().Sub(started).Seconds())

	o.logger.Info("Submission complete", map[string]interface{}{
		"reference_number":  app.ReferenceNumber,
		"payment_intent_id": app.PaymentIntentID,
		"duplicate":         duplicate,
	})

	return &Result{ReferenceNumber: app.ReferenceNumber, Duplicate: duplicate}
}
