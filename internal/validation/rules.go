// Package validation holds the per-step field rules. Each validator returns
// a map from field name to a machine-readable error key; rendering those keys
// as display strings belongs to the client, not this service.
package validation

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"eta-service/internal/models"
	"eta-service/internal/wizard"
)

var (
	passportNumberRe = regexp.MustCompile(`(?i)^[A-Z0-9]{6,12}$`)
	phoneRe          = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
)

const dateLayout = "2006-01-02"

// FieldErrors maps field names to error keys. A nil map means valid.
type FieldErrors map[string]string

// Validator evaluates step slices against the form rules. Now is injectable
// so date rules can be pinned in tests; it defaults to time.Now.
type Validator struct {
	Now func() time.Time
}

func New() *Validator {
	return &Validator{Now: time.Now}
}

// today truncates the clock to the start of the day so that date comparisons
// are calendar comparisons, not instant comparisons.
func (v *Validator) today() time.Time {
	now := v.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// notAfter fails with key when the value parses to a date after limit.
// Empty and unparseable values are left to the Required and format rules.
func dateNotAfter(limit time.Time, key string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return validation.NewError("validation_date", key)
		}
		if d.After(limit) {
			return validation.NewError("validation_date", key)
		}
		return nil
	}
}

// after fails with key unless the value parses to a date strictly after limit.
func dateAfter(limit time.Time, key string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return validation.NewError("validation_date", key)
		}
		if !d.After(limit) {
			return validation.NewError("validation_date", key)
		}
		return nil
	}
}

// before fails with key unless the value parses to a date strictly before limit.
func dateBefore(limit time.Time, key string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return validation.NewError("validation_date", key)
		}
		if !d.Before(limit) {
			return validation.NewError("validation_date", key)
		}
		return nil
	}
}

// toFieldErrors flattens ozzo's error map into field → key.
func toFieldErrors(err error) FieldErrors {
	if err == nil {
		return nil
	}
	errs, ok := err.(validation.Errors)
	if !ok {
		return FieldErrors{"_": err.Error()}
	}
	out := make(FieldErrors, len(errs))
	for field, ferr := range errs {
		out[field] = ferr.Error()
	}
	return out
}

// ValidatePassport checks the passport step. The expiry must be strictly in
// the future and also more than six calendar months out; both rules apply
// independently, so a passport expiring in five months fails even though it
// has not expired yet.
func (v *Validator) ValidatePassport(p models.PassportDetails) FieldErrors {
	today := v.today()
	sixMonthsOut := today.AddDate(0, 6, 0)

	err := validation.ValidateStruct(&p,
		validation.Field(&p.PassportCountry,
			validation.Required.Error("passport.errors.countryRequired")),
		validation.Field(&p.PassportNumber,
			validation.Required.Error("passport.errors.numberRequired"),
			validation.Match(passportNumberRe).Error("passport.errors.numberInvalid")),
		validation.Field(&p.IssueDate,
			validation.Required.Error("passport.errors.issueDateRequired"),
			validation.By(dateNotAfter(today, "passport.errors.issueDateFuture"))),
		validation.Field(&p.ExpiryDate,
			validation.Required.Error("passport.errors.expiryRequired"),
			validation.By(dateAfter(today, "passport.errors.expiryPast")),
			validation.By(dateAfter(sixMonthsOut, "passport.errors.expiryTooSoon"))),
		validation.Field(&p.IssuingAuthority,
			validation.Required.Error("passport.errors.authorityRequired")),
	)
	return toFieldErrors(err)
}

func (v *Validator) ValidatePersonal(p models.PersonalDetails) FieldErrors {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.FirstName,
			validation.Required.Error("personal.errors.firstNameRequired")),
		validation.Field(&p.LastName,
			validation.Required.Error("personal.errors.lastNameRequired")),
		validation.Field(&p.DateOfBirth,
			validation.Required.Error("personal.errors.dobRequired"),
			validation.By(dateBefore(v.today(), "personal.errors.dobFuture"))),
		validation.Field(&p.Gender,
			validation.Required.Error("personal.errors.genderRequired"),
			validation.In("male", "female", "other").Error("personal.errors.genderRequired")),
		validation.Field(&p.Nationality,
			validation.Required.Error("personal.errors.nationalityRequired")),
		validation.Field(&p.BirthCountry,
			validation.Required.Error("personal.errors.birthCountryRequired")),
	)
	return toFieldErrors(err)
}

// ValidateContact checks the contact step, including the cross-field rule
// that confirmEmail is character-identical to email (case matters).
func (v *Validator) ValidateContact(c models.ContactDetails) FieldErrors {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Email,
			validation.Required.Error("contact.errors.emailRequired"),
			is.EmailFormat.Error("contact.errors.emailInvalid")),
		validation.Field(&c.ConfirmEmail,
			validation.Required.Error("contact.errors.emailRequired")),
		validation.Field(&c.Phone,
			validation.Required.Error("contact.errors.phoneRequired"),
			validation.Match(phoneRe).Error("contact.errors.phoneInvalid")),
	)

	out := toFieldErrors(err)
	if out["confirmEmail"] == "" && c.Email != "" && c.ConfirmEmail != "" && c.Email != c.ConfirmEmail {
		if out == nil {
			out = FieldErrors{}
		}
		out["confirmEmail"] = "contact.errors.emailMismatch"
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidatePhoto has no required fields; the selfie can be supplied or
// retaken at any point before submission.
func (v *Validator) ValidatePhoto(p models.PhotoDetails) FieldErrors {
	return nil
}

// ValidateBackground requires each disclosure answer to be exactly "yes" or
// "no"; there is no default answer.
func (v *Validator) ValidateBackground(b models.BackgroundAnswers) FieldErrors {
	err := validation.ValidateStruct(&b,
		validation.Field(&b.CriminalConvictions,
			validation.Required.Error("background.errors.criminalRequired"),
			validation.In("yes", "no").Error("background.errors.criminalRequired")),
		validation.Field(&b.ImmigrationBreaches,
			validation.Required.Error("background.errors.immigrationRequired"),
			validation.In("yes", "no").Error("background.errors.immigrationRequired")),
		validation.Field(&b.PreviousRefusals,
			validation.Required.Error("background.errors.refusalRequired"),
			validation.In("yes", "no").Error("background.errors.refusalRequired")),
		validation.Field(&b.TerrorismInvolvement,
			validation.Required.Error("background.errors.terrorismRequired"),
			validation.In("yes", "no").Error("background.errors.terrorismRequired")),
	)
	return toFieldErrors(err)
}

func (v *Validator) ValidateAddress(a models.AddressDetails) FieldErrors {
	err := validation.ValidateStruct(&a,
		validation.Field(&a.AddressLine1,
			validation.Required.Error("address.errors.line1Required")),
		validation.Field(&a.City,
			validation.Required.Error("address.errors.cityRequired")),
		validation.Field(&a.Postcode,
			validation.Required.Error("address.errors.postcodeRequired")),
		validation.Field(&a.Country,
			validation.Required.Error("address.errors.countryRequired")),
	)
	return toFieldErrors(err)
}

// ValidateEmergency accepts anything; the emergency contact is optional in
// its entirety.
func (v *Validator) ValidateEmergency(e models.EmergencyContact) FieldErrors {
	return nil
}

// ValidateConsent requires all four flags to be independently true. A false
// bool is the zero value, so Required doubles as the must-be-true rule.
func (v *Validator) ValidateConsent(c models.ConsentFlags) FieldErrors {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.ConfirmAccuracy,
			validation.Required.Error("review.errors.accuracyRequired")),
		validation.Field(&c.ConsentSubmit,
			validation.Required.Error("review.errors.submitRequired")),
		validation.Field(&c.AcceptTerms,
			validation.Required.Error("review.errors.termsRequired")),
		validation.Field(&c.AcceptDataProcessing,
			validation.Required.Error("review.errors.dataRequired")),
	)
	return toFieldErrors(err)
}

// ValidateStep dispatches to the validator for the given step. The switch is
// exhaustive over the declared steps.
func (v *Validator) ValidateStep(step wizard.Step, d *models.ApplicationDraft) FieldErrors {
	switch step {
	case wizard.StepPassport:
		return v.ValidatePassport(d.PassportDetails)
	case wizard.StepPersonal:
		return v.ValidatePersonal(d.PersonalDetails)
	case wizard.StepContact:
		return v.ValidateContact(d.ContactDetails)
	case wizard.StepPhoto:
		return v.ValidatePhoto(d.PhotoDetails)
	case wizard.StepBackground:
		return v.ValidateBackground(d.BackgroundAnswers)
	case wizard.StepAddress:
		return v.ValidateAddress(d.AddressDetails)
	case wizard.StepEmergency:
		return v.ValidateEmergency(d.EmergencyContact)
	case wizard.StepReview:
		return v.ValidateConsent(d.ConsentFlags)
	}
	return nil
}

// ValidateDraft runs every step's rules against the full draft, merging the
// results. Step slices are disjoint so keys never collide.
func (v *Validator) ValidateDraft(d *models.ApplicationDraft) FieldErrors {
	out := FieldErrors{}
	for i := 0; i < wizard.Count; i++ {
		for field, key := range v.ValidateStep(wizard.Step(i), d) {
			out[field] = key
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
