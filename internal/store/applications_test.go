package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"eta-service/internal/common/logger"
	"eta-service/internal/models"
)

var columns = []string{
	"reference_number", "status",
	"payment_intent_id", "payment_amount", "payment_currency",
	"passport_country", "passport_number", "issue_date", "expiry_date", "issuing_authority",
	"first_name", "last_name", "date_of_birth", "gender", "nationality", "birth_country",
	"email", "phone",
	"selfie_photo_url", "passport_photo_url",
	"criminal_convictions", "immigration_breaches", "previous_refusals", "terrorism_involvement",
	"address_line1", "address_line2", "city", "state", "postcode", "country",
	"emergency_name", "emergency_relationship", "emergency_phone",
	"submitted_at", "updated_at",
}

func sampleApplication() *models.SubmittedApplication {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return &models.SubmittedApplication{
		ReferenceNumber: "ETA-LX3K9M2F-A7QZ",
		Status:          models.StatusSubmitted,
		PaymentIntentID: "pi_123",
		PaymentAmount:   8150,
		PaymentCurrency: "gbp",
		PassportNumber:  "U12345678",
		FirstName:       "Ayşe",
		LastName:        "Yılmaz",
		Email:           "ayse@example.com",
		SubmittedAt:     now,
		UpdatedAt:       now,
	}
}

func rowFor(app *models.SubmittedApplication) *sqlmock.Rows {
	return sqlmock.NewRows(columns).AddRow(
		app.ReferenceNumber, string(app.Status),
		app.PaymentIntentID, app.PaymentAmount, app.PaymentCurrency,
		nil, app.PassportNumber, nil, nil, nil,
		app.FirstName, app.LastName, nil, nil, nil, nil,
		app.Email, nil,
		nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil, nil, nil,
		nil, nil, nil,
		app.SubmittedAt, app.UpdatedAt,
	)
}

func newStore(t *testing.T) (*ApplicationStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	return NewApplicationStore(db, logger.NewNoOpLogger()), mock, func() { db.Close() }
}

func TestInsert(t *testing.T) {
	store, mock, cleanup := newStore(t)
	defer cleanup()

	app := sampleApplication()
	mock.ExpectExec("INSERT INTO eta_applications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, store.Insert(context.Background(), app))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDuplicatePaymentIntent(t *testing.T) {
	store, mock, cleanup := newStore(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO eta_applications").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "eta_applications_payment_intent_id_key"})

	err := store.Insert(context.Background(), sampleApplication())
	assert.ErrorIs(t, err, ErrDuplicatePaymentIntent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByPaymentIntent(t *testing.T) {
	store, mock, cleanup := newStore(t)
	defer cleanup()

	app := sampleApplication()
	mock.ExpectQuery("SELECT (.+) FROM eta_applications WHERE payment_intent_id").
		WithArgs("pi_123").
		WillReturnRows(rowFor(app))

	found, err := store.FindByPaymentIntent(context.Background(), "pi_123")
	assert.NoError(t, err)
	assert.Equal(t, "ETA-LX3K9M2F-A7QZ", found.ReferenceNumber)
	assert.Equal(t, models.StatusSubmitted, found.Status)
	assert.Equal(t, "U12345678", found.PassportNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByPaymentIntentMissingIsNotAnError(t *testing.T) {
	store, mock, cleanup := newStore(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM eta_applications WHERE payment_intent_id").
		WithArgs("pi_missing").
		WillReturnRows(sqlmock.NewRows(columns))

	found, err := store.FindByPaymentIntent(context.Background(), "pi_missing")
	assert.NoError(t, err)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByReference(t *testing.T) {
	store, mock, cleanup := newStore(t)
	defer cleanup()

	app := sampleApplication()
	mock.ExpectQuery("SELECT (.+) FROM eta_applications\\s+WHERE reference_number = \\$1 AND LOWER\\(email\\) = LOWER\\(\\$2\\)").
		WithArgs("ETA-LX3K9M2F-A7QZ", "AYSE@example.com").
		WillReturnRows(rowFor(app))

	found, err := store.FindByReference(context.Background(), "ETA-LX3K9M2F-A7QZ", "AYSE@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "ayse@example.com", found.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	store, mock, cleanup := newStore(t)
	defer cleanup()

	mock.ExpectQuery("UPDATE eta_applications SET status (.+) RETURNING email").
		WithArgs(string(models.StatusApproved), "ETA-LX3K9M2F-A7QZ").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("ayse@example.com"))

	email, err := store.UpdateStatus(context.Background(), "ETA-LX3K9M2F-A7QZ", models.StatusApproved)
	assert.NoError(t, err)
	assert.Equal(t, "ayse@example.com", email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusUnknownReference(t *testing.T) {
	store, mock, cleanup := newStore(t)
	defer cleanup()

	mock.ExpectQuery("UPDATE eta_applications SET status (.+) RETURNING email").
		WillReturnRows(sqlmock.NewRows([]string{"email"}))

	_, err := store.UpdateStatus(context.Background(), "ETA-NOPE-XXXX", models.StatusApproved)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
