// Package notify sends transactional email and SMS after a successful
// submission. Every send here is a soft operation for the caller: failures
// are wrapped as notification errors that the submission flow logs and
// swallows, because submission success is defined by persistence alone.
package notify

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"eta-service/internal/common/config"
	"eta-service/internal/common/errors"
	"eta-service/internal/common/logger"
	"eta-service/internal/models"
)

// EmailSender is the slice of the SES client the mailer needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Mailer struct {
	sender     EmailSender
	fromEmail  string
	adminEmail string
	statusURL  string
	logger     logger.Logger
}

func NewMailer(sender EmailSender, fromEmail string, cfg config.NotificationConfig, log logger.Logger) *Mailer {
	return &Mailer{
		sender:     sender,
		fromEmail:  fromEmail,
		adminEmail: cfg.AdminEmail,
		statusURL:  cfg.StatusURL,
		logger:     log,
	}
}

func (m *Mailer) send(ctx context.Context, to, subject, htmlBody, notificationType string) error {
	input := &ses.SendEmailInput{
		Source: awssdk.String(m.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    awssdk.String(subject),
				Charset: awssdk.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    awssdk.String(htmlBody),
					Charset: awssdk.String("UTF-8"),
				},
			},
		},
	}

	if _, err := m.sender.SendEmail(ctx, input); err != nil {
		return errors.NewNotificationSendFailedError(notificationType, err)
	}

	m.logger.Info("Email sent", map[string]interface{}{
		"type": notificationType,
		"to":   to,
	})
	return nil
}

// SendConfirmation emails the applicant their reference number.
func (m *Mailer) SendConfirmation(ctx context.Context, app *models.SubmittedApplication) error {
	body, err := renderTemplate(confirmationTmpl, confirmationData{
		ApplicantName:   app.ApplicantName(),
		ReferenceNumber: app.ReferenceNumber,
		AmountDisplay:   formatAmount(app.PaymentAmount, app.PaymentCurrency),
		StatusURL:       m.statusURL,
	})
	if err != nil {
		return errors.NewNotificationSendFailedError("confirmation", err)
	}

	subject := "Your UK ETA application - " + app.ReferenceNumber
	return m.send(ctx, app.Email, subject, body, "confirmation")
}

// SendOperatorNotice emails the back-office address about a new submission.
func (m *Mailer) SendOperatorNotice(ctx context.Context, app *models.SubmittedApplication) error {
	body, err := renderTemplate(operatorTmpl, operatorData{
		ReferenceNumber: app.ReferenceNumber,
		ApplicantName:   app.ApplicantName(),
		Email:           app.Email,
		PassportNumber:  app.PassportNumber,
		Nationality:     app.Nationality,
		PaymentIntentID: app.PaymentIntentID,
		AmountDisplay:   formatAmount(app.PaymentAmount, app.PaymentCurrency),
	})
	if err != nil {
		return errors.NewNotificationSendFailedError("operator", err)
	}

	subject := "New ETA application: " + app.ReferenceNumber
	return m.send(ctx, m.adminEmail, subject, body, "operator")
}

// RelayContactMessage forwards a contact-form message to the operator inbox.
func (m *Mailer) RelayContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	body, err := renderTemplate(contactTmpl, msg)
	if err != nil {
		return errors.NewNotificationSendFailedError("contact", err)
	}

	subject := "Contact form message from " + msg.Name
	return m.send(ctx, m.adminEmail, subject, body, "contact")
}
