// Package store persists submitted applications in PostgreSQL. The unique
// constraint on payment_intent_id is the authoritative idempotency guard:
// the pre-insert existence check is best effort, the constraint closes the
// race between two near-simultaneous submissions of the same charge.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"

	"eta-service/internal/common/logger"
	"eta-service/internal/models"
)

// ErrDuplicatePaymentIntent is returned by Insert when a row for the same
// payment intent already exists. Callers re-read the existing row and treat
// the submission as a duplicate, not a failure.
var ErrDuplicatePaymentIntent = stderrors.New("application already exists for payment intent")

const uniqueViolation = "23505"

type ApplicationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicationStore(db *sql.DB, log logger.Logger) *ApplicationStore {
	return &ApplicationStore{db: db, logger: log}
}

const applicationColumns = `
	reference_number, status,
	payment_intent_id, payment_amount, payment_currency,
	passport_country, passport_number, issue_date, expiry_date, issuing_authority,
	first_name, last_name, date_of_birth, gender, nationality, birth_country,
	email, phone,
	selfie_photo_url, passport_photo_url,
	criminal_convictions, immigration_breaches, previous_refusals, terrorism_involvement,
	address_line1, address_line2, city, state, postcode, country,
	emergency_name, emergency_relationship, emergency_phone,
	submitted_at, updated_at`

// Insert writes a fresh application row. A unique-constraint violation on
// the payment intent id maps to ErrDuplicatePaymentIntent.
func (s *ApplicationStore) Insert(ctx context.Context, app *models.SubmittedApplication) error {
	query := `INSERT INTO eta_applications (` + applicationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35)`

	_, err := s.db.ExecContext(ctx, query,
		app.ReferenceNumber, app.Status,
		app.PaymentIntentID, app.PaymentAmount, app.PaymentCurrency,
		nullable(app.PassportCountry), nullable(app.PassportNumber), nullable(app.IssueDate), nullable(app.ExpiryDate), nullable(app.IssuingAuthority),
		nullable(app.FirstName), nullable(app.LastName), nullable(app.DateOfBirth), nullable(app.Gender), nullable(app.Nationality), nullable(app.BirthCountry),
		app.Email, nullable(app.Phone),
		nullable(app.SelfiePhotoURL), nullable(app.PassportPhotoURL),
		nullable(app.CriminalConvictions), nullable(app.ImmigrationBreaches), nullable(app.PreviousRefusals), nullable(app.TerrorismInvolvement),
		nullable(app.AddressLine1), nullable(app.AddressLine2), nullable(app.City), nullable(app.State), nullable(app.Postcode), nullable(app.Country),
		nullable(app.EmergencyName), nullable(app.EmergencyRelationship), nullable(app.EmergencyPhone),
		app.SubmittedAt, app.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			s.logger.Warn("Duplicate payment intent on insert", map[string]interface{}{
				"payment_intent_id": app.PaymentIntentID,
			})
			return ErrDuplicatePaymentIntent
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// FindByPaymentIntent returns the application for a charge id, or (nil, nil)
// when none exists.
func (s *ApplicationStore) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.SubmittedApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM eta_applications WHERE payment_intent_id = $1`
	return s.queryOne(ctx, query, paymentIntentID)
}

// FindByReference returns the application matching both the reference number
// and the applicant email, or (nil, nil). The email comparison is
// case-insensitive; people rarely retype their address with the same casing.
func (s *ApplicationStore) FindByReference(ctx context.Context, referenceNumber, email string) (*models.SubmittedApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM eta_applications
	WHERE reference_number = $1 AND LOWER(email) = LOWER($2)`
	return s.queryOne(ctx, query, referenceNumber, email)
}

// UpdateStatus moves an application to a new lifecycle status and returns the
// applicant email so callers can drop the cached lookup result, which is keyed
// by reference and email. Returns sql.ErrNoRows for an unknown reference.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, referenceNumber string, status models.ApplicationStatus) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx,
		`UPDATE eta_applications SET status = $1, updated_at = NOW() WHERE reference_number = $2 RETURNING email`,
		status, referenceNumber,
	).Scan(&email)
	if err == sql.ErrNoRows {
		return "", sql.ErrNoRows
	}
	if err != nil {
		return "", fmt.Errorf("failed to update status: %w", err)
	}
	return email, nil
}

func (s *ApplicationStore) queryOne(ctx context.Context, query string, args ...interface{}) (*models.SubmittedApplication, error) {
	row := s.db.QueryRowContext(ctx, query, args...)

	var app models.SubmittedApplication
	var passportCountry, passportNumber, issueDate, expiryDate, issuingAuthority sql.NullString
	var firstName, lastName, dateOfBirth, gender, nationality, birthCountry sql.NullString
	var phone, selfieURL, passportURL sql.NullString
	var criminal, immigration, refusals, terrorism sql.NullString
	var line1, line2, city, state, postcode, country sql.NullString
	var emergencyName, emergencyRelationship, emergencyPhone sql.NullString

	err := row.Scan(
		&app.ReferenceNumber, &app.Status,
		&app.PaymentIntentID, &app.PaymentAmount, &app.PaymentCurrency,
		&passportCountry, &passportNumber, &issueDate, &expiryDate, &issuingAuthority,
		&firstName, &lastName, &dateOfBirth, &gender, &nationality, &birthCountry,
		&app.Email, &phone,
		&selfieURL, &passportURL,
		&criminal, &immigration, &refusals, &terrorism,
		&line1, &line2, &city, &state, &postcode, &country,
		&emergencyName, &emergencyRelationship, &emergencyPhone,
		&app.SubmittedAt, &app.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query application: %w", err)
	}

	app.PassportCountry = passportCountry.String
	app.PassportNumber = passportNumber.String
	app.IssueDate = issueDate.String
	app.ExpiryDate = expiryDate.String
	app.IssuingAuthority = issuingAuthority.String
	app.FirstName = firstName.String
	app.LastName = lastName.String
	app.DateOfBirth = dateOfBirth.String
	app.Gender = gender.String
	app.Nationality = nationality.String
	app.BirthCountry = birthCountry.String
	app.Phone = phone.String
	app.SelfiePhotoURL = selfieURL.String
	app.PassportPhotoURL = passportURL.String
	app.CriminalConvictions = criminal.String
	app.ImmigrationBreaches = immigration.String
	app.PreviousRefusals = refusals.String
	app.TerrorismInvolvement = terrorism.String
	app.AddressLine1 = line1.String
	app.AddressLine2 = line2.String
	app.City = city.String
	app.State = state.String
	app.Postcode = postcode.String
	app.Country = country.String
	app.EmergencyName = emergencyName.String
	app.EmergencyRelationship = emergencyRelationship.String
	app.EmergencyPhone = emergencyPhone.String

	return &app, nil
}

// nullable stores empty strings as NULL so partial drafts do not fill the
// table with empty text.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
