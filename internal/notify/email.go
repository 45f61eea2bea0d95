// Package notify sends the admin a short email for each new application.
// Delivery is best effort, a failed send never fails the submission.
package notify

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"detox-form-api/internal/common/config"
	apperrors "detox-form-api/internal/common/errors"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/models"
)

const charset = "UTF-8"

// Mailer delivers submission notifications. It lets handler tests swap in
// a recording fake.
type Mailer interface {
	NotifySubmission(ctx context.Context, app *models.Application) error
}

// EmailNotifier sends via Amazon SES.
type EmailNotifier struct {
	client    *ses.Client
	fromEmail string
	toEmail   string
	logger    logger.Logger
}

// NewEmailNotifier builds the SES client from the ambient AWS credential
// chain.
func NewEmailNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*EmailNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, apperrors.NewNotificationSendFailedError("email", fmt.Errorf("load AWS configuration: %w", err))
	}

	return &EmailNotifier{
		client:    ses.NewFromConfig(awsCfg),
		fromEmail: cfg.Email.FromEmail,
		toEmail:   cfg.Email.ToEmail,
		logger:    log,
	}, nil
}

// NotifySubmission emails the admin a summary of a new application.
func (n *EmailNotifier) NotifySubmission(ctx context.Context, app *models.Application) error {
	subject := fmt.Sprintf("Yeni Detoks Başvurusu: %s", app.FullName)
	body := fmt.Sprintf(
		"Yeni bir başvuru alındı.\n\nAd Soyad: %s\nE-posta: %s\nTelefon: %s\nYaş: %d\nBaşvuru Zamanı: %s\nBaşvuru ID: %s\n",
		app.FullName, app.Email, app.Phone, app.Age.Int(), app.CreatedAt, app.ID,
	)

	input := &ses.SendEmailInput{
		Source: &n.fromEmail,
		Destination: &types.Destination{
			ToAddresses: []string{n.toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: &subject, Charset: strPtr(charset)},
			Body: &types.Body{
				Text: &types.Content{Data: &body, Charset: strPtr(charset)},
			},
		},
	}

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		n.logger.WithError(err).Error("notification email failed", map[string]interface{}{
			"applicationId": app.ID,
			"to":            n.toEmail,
		})
		return apperrors.NewNotificationSendFailedError("email", err)
	}

	n.logger.Debug("notification email sent", map[string]interface{}{
		"applicationId": app.ID,
		"to":            n.toEmail,
	})
	return nil
}

func strPtr(s string) *string { return &s }
