// Package aws sends registration notifications through SES and SNS.
package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace-gateway/internal/common/config"
	"marketplace-gateway/internal/common/logger"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// RegistrationEvent describes an application waiting for moderator review.
type RegistrationEvent struct {
	Kind        string    `json:"kind"` // "rider" or "seller"
	ApplicantID string    `json:"applicantId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Notifier tells moderators (SNS topic) and applicants (SES email) about registrations.
type Notifier struct {
	cfg    config.NotificationConfig
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

// NewNotifier loads AWS credentials from the default chain. Disabled channels
// get no client.
func NewNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	n := &Notifier{cfg: cfg, logger: log}
	if !cfg.SES.Enabled && !cfg.SNS.Enabled {
		return n, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.SES.Enabled {
		n.ses = ses.NewFromConfig(awsCfg)
	}
	if cfg.SNS.Enabled {
		n.sns = sns.NewFromConfig(awsCfg)
	}
	return n, nil
}

// NewNotifierWithClients is used by tests and by callers sharing AWS clients.
func NewNotifierWithClients(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{cfg: cfg, ses: sesClient, sns: snsClient, logger: log}
}

// RegistrationSubmitted notifies both audiences. Both channels are attempted
// even if the first fails.
func (n *Notifier) RegistrationSubmitted(ctx context.Context, ev RegistrationEvent) error {
	if ev.SubmittedAt.IsZero() {
		ev.SubmittedAt = time.Now().UTC()
	}

	var errs []error
	if n.sns != nil {
		if err := n.publishModerators(ctx, ev); err != nil {
			n.logger.Error("moderator notification failed", map[string]interface{}{
				"applicantId": ev.ApplicantID,
				"error":       err.Error(),
			})
			errs = append(errs, err)
		}
	}
	if n.ses != nil && ev.Email != "" {
		if err := n.emailApplicant(ctx, ev); err != nil {
			n.logger.Error("applicant email failed", map[string]interface{}{
				"applicantId": ev.ApplicantID,
				"error":       err.Error(),
			})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) publishModerators(ctx context.Context, ev RegistrationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(n.cfg.SNS.ModeratorTopicARN),
		Subject:  awssdk.String(fmt.Sprintf("New %s application", ev.Kind)),
		Message:  awssdk.String(string(body)),
	})
	return err
}

func (n *Notifier) emailApplicant(ctx context.Context, ev RegistrationEvent) error {
	subject := "We received your application"
	text := fmt.Sprintf(
		"Hi %s,\n\nThanks for registering as a %s. Our moderators are reviewing your application and we will let you know once it is approved.\n",
		displayName(ev.Name), ev.Kind,
	)
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{ev.Email}},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: awssdk.String(text)},
			},
		},
		Source: awssdk.String(n.cfg.SES.FromEmail),
	})
	return err
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
