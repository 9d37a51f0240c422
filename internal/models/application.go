// internal/models/application.go
package models

import (
	"strings"
	"time"
)

// ApplicationStatus is the lifecycle state of a submitted application. Once a
// record exists, only back-office action moves it between these values.
type ApplicationStatus string

const (
	StatusDraft     ApplicationStatus = "draft"
	StatusPaid      ApplicationStatus = "paid"
	StatusSubmitted ApplicationStatus = "submitted"
	StatusApproved  ApplicationStatus = "approved"
	StatusRefused   ApplicationStatus = "refused"
)

// PassportDetails is the first wizard step's slice of the draft. Dates are
// ISO "2006-01-02" strings as entered; photos are data URLs until uploaded.
type PassportDetails struct {
	PassportCountry  string `json:"passportCountry,omitempty"`
	PassportNumber   string `json:"passportNumber,omitempty"`
	IssueDate        string `json:"issueDate,omitempty"`
	ExpiryDate       string `json:"expiryDate,omitempty"`
	IssuingAuthority string `json:"issuingAuthority,omitempty"`
	PassportPhoto    string `json:"passportPhoto,omitempty"`
}

type PersonalDetails struct {
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Nationality  string `json:"nationality,omitempty"`
	BirthCountry string `json:"birthCountry,omitempty"`
}

type ContactDetails struct {
	Email        string `json:"email,omitempty"`
	ConfirmEmail string `json:"confirmEmail,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type PhotoDetails struct {
	SelfiePhoto string `json:"selfiePhoto,omitempty"`
}

// BackgroundAnswers holds the four disclosure questions. Each answer must be
// exactly "yes" or "no"; there is no default.
type BackgroundAnswers struct {
	CriminalConvictions  string `json:"criminalConvictions,omitempty"`
	ImmigrationBreaches  string `json:"immigrationBreaches,omitempty"`
	PreviousRefusals     string `json:"previousRefusals,omitempty"`
	TerrorismInvolvement string `json:"terrorismInvolvement,omitempty"`
}

type AddressDetails struct {
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	Country      string `json:"country,omitempty"`
}

// EmergencyContact is entirely optional.
type EmergencyContact struct {
	EmergencyName         string `json:"emergencyName,omitempty"`
	EmergencyRelationship string `json:"emergencyRelationship,omitempty"`
	EmergencyPhone        string `json:"emergencyPhone,omitempty"`
}

type ConsentFlags struct {
	ConfirmAccuracy      bool `json:"confirmAccuracy,omitempty"`
	ConsentSubmit        bool `json:"consentSubmit,omitempty"`
	AcceptTerms          bool `json:"acceptTerms,omitempty"`
	AcceptDataProcessing bool `json:"acceptDataProcessing,omitempty"`
}

// AllGranted reports whether every consent flag is independently true.
func (c ConsentFlags) AllGranted() bool {
	return c.ConfirmAccuracy && c.ConsentSubmit && c.AcceptTerms && c.AcceptDataProcessing
}

// StepData is implemented by each step's slice; Apply replaces that slice of
// the draft. The slices are disjoint, so merging a later step never clears an
// earlier step's fields, while re-applying a step overwrites its own fields.
type StepData interface {
	Apply(d *ApplicationDraft)
}

func (p PassportDetails) Apply(d *ApplicationDraft)   { d.PassportDetails = p }
func (p PersonalDetails) Apply(d *ApplicationDraft)   { d.PersonalDetails = p }
func (c ContactDetails) Apply(d *ApplicationDraft)    { d.ContactDetails = c }
func (p PhotoDetails) Apply(d *ApplicationDraft)      { d.PhotoDetails = p }
func (b BackgroundAnswers) Apply(d *ApplicationDraft) { d.BackgroundAnswers = b }
func (a AddressDetails) Apply(d *ApplicationDraft)    { d.AddressDetails = a }
func (e EmergencyContact) Apply(d *ApplicationDraft)  { d.EmergencyContact = e }
func (c ConsentFlags) Apply(d *ApplicationDraft)      { d.ConsentFlags = c }

// ApplicationDraft is the in-progress record assembled across wizard steps.
// The embedded slices flatten to one JSON object, matching the wire and
// persisted shapes. It lives only in memory until payment succeeds.
type ApplicationDraft struct {
	PassportDetails
	PersonalDetails
	ContactDetails
	PhotoDetails
	BackgroundAnswers
	AddressDetails
	EmergencyContact
	ConsentFlags
}

// ApplicantName joins the name fields, tolerating either being empty.
func (d *ApplicationDraft) ApplicantName() string {
	return strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName))
}

// SubmittedApplication is the durable record, created exactly once per
// payment-charge identifier. Immutable after creation except for status and
// the updated timestamp.
type SubmittedApplication struct {
	ReferenceNumber string            `json:"referenceNumber"`
	Status          ApplicationStatus `json:"status"`

	PaymentIntentID string `json:"paymentIntentId"`
	PaymentAmount   int64  `json:"paymentAmount"` // minor currency units
	PaymentCurrency string `json:"paymentCurrency"`

	PassportCountry  string `json:"passportCountry,omitempty"`
	PassportNumber   string `json:"passportNumber,omitempty"`
	IssueDate        string `json:"issueDate,omitempty"`
	ExpiryDate       string `json:"expiryDate,omitempty"`
	IssuingAuthority string `json:"issuingAuthority,omitempty"`

	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Nationality  string `json:"nationality,omitempty"`
	BirthCountry string `json:"birthCountry,omitempty"`

	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`

	SelfiePhotoURL   string `json:"selfiePhotoUrl,omitempty"`
	PassportPhotoURL string `json:"passportPhotoUrl,omitempty"`

	CriminalConvictions  string `json:"criminalConvictions,omitempty"`
	ImmigrationBreaches  string `json:"immigrationBreaches,omitempty"`
	PreviousRefusals     string `json:"previousRefusals,omitempty"`
	TerrorismInvolvement string `json:"terrorismInvolvement,omitempty"`

	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	Country      string `json:"country,omitempty"`

	EmergencyName         string `json:"emergencyName,omitempty"`
	EmergencyRelationship string `json:"emergencyRelationship,omitempty"`
	EmergencyPhone        string `json:"emergencyPhone,omitempty"`

	SubmittedAt time.Time `json:"submittedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ApplicantName joins the stored name fields.
func (a *SubmittedApplication) ApplicantName() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// NewSubmittedApplication flattens a draft into the durable record. Photo
// URLs are filled in separately once uploads finish; data URLs never reach
// the document store.
func NewSubmittedApplication(referenceNumber string, draft *ApplicationDraft, paymentIntentID string, amount int64, currency string, now time.Time) *SubmittedApplication {
	return &SubmittedApplication{
		ReferenceNumber: referenceNumber,
		Status:          StatusSubmitted,

		PaymentIntentID: paymentIntentID,
		PaymentAmount:   amount,
		PaymentCurrency: currency,

		PassportCountry:  draft.PassportCountry,
		PassportNumber:   draft.PassportNumber,
		IssueDate:        draft.IssueDate,
		ExpiryDate:       draft.ExpiryDate,
		IssuingAuthority: draft.IssuingAuthority,

		FirstName:    draft.FirstName,
		LastName:     draft.LastName,
		DateOfBirth:  draft.DateOfBirth,
		Gender:       draft.Gender,
		Nationality:  draft.Nationality,
		BirthCountry: draft.BirthCountry,

		Email: draft.Email,
		Phone: draft.Phone,

		CriminalConvictions:  draft.CriminalConvictions,
		ImmigrationBreaches:  draft.ImmigrationBreaches,
		PreviousRefusals:     draft.PreviousRefusals,
		TerrorismInvolvement: draft.TerrorismInvolvement,

		AddressLine1: draft.AddressLine1,
		AddressLine2: draft.AddressLine2,
		City:         draft.City,
		State:        draft.State,
		Postcode:     draft.Postcode,
		Country:      draft.Country,

		EmergencyName:         draft.EmergencyName,
		EmergencyRelationship: draft.EmergencyRelationship,
		EmergencyPhone:        draft.EmergencyPhone,

		SubmittedAt: now,
		UpdatedAt:   now,
	}
}

// StatusResult is the small display payload returned by status lookup.
type StatusResult struct {
	ReferenceNumber string            `json:"referenceNumber"`
	Status          ApplicationStatus `json:"status"`
	ApplicantName   string            `json:"applicantName,omitempty"`
	SubmittedAt     time.Time         `json:"submittedAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}
