package notify

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"eta-service/internal/common/errors"
	"eta-service/internal/common/logger"
	"eta-service/internal/models"
)

// SMSPublisher is the slice of the SNS client the texter needs.
type SMSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Texter sends the short confirmation SMS. Like email, it is a soft
// operation; a nil *Texter (SMS disabled) is safe to call.
type Texter struct {
	publisher SMSPublisher
	senderID  string
	logger    logger.Logger
}

func NewTexter(publisher SMSPublisher, senderID string, log logger.Logger) *Texter {
	if publisher == nil {
		return nil
	}
	return &Texter{publisher: publisher, senderID: senderID, logger: log}
}

// SendConfirmation texts the applicant their reference number. Skipped when
// the texter is disabled or the draft has no phone number.
func (t *Texter) SendConfirmation(ctx context.Context, app *models.SubmittedApplication) error {
	if t == nil || app.Phone == "" {
		return nil
	}

	message := "Your UK ETA application has been received. Reference: " + app.ReferenceNumber

	input := &sns.PublishInput{
		PhoneNumber: awssdk.String(app.Phone),
		Message:     awssdk.String(message),
	}
	if t.senderID != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(t.senderID),
			},
		}
	}

	if _, err := t.publisher.Publish(ctx, input); err != nil {
		return errors.NewNotificationSendFailedError("sms", err)
	}

	t.logger.Info("SMS sent", map[string]interface{}{
		"reference_number": app.ReferenceNumber,
	})
	return nil
}
