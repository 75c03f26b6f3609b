package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"marketplace-gateway/internal/common/config"
	"marketplace-gateway/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func testNotificationConfig() config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.SNS.Enabled = true
	cfg.SNS.ModeratorTopicARN = "arn:aws:sns:ap-southeast-1:123:moderators"
	cfg.SES.Enabled = true
	cfg.SES.FromEmail = "no-reply@marketplace.test"
	return cfg
}

func TestNotifier_RegistrationSubmitted(t *testing.T) {
	var published *sns.PublishInput
	var emailed *ses.SendEmailInput

	n := NewNotifierWithClients(testNotificationConfig(),
		&MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			emailed = params
			return &ses.SendEmailOutput{}, nil
		}},
		&MockSNSService{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			published = params
			return &sns.PublishOutput{}, nil
		}},
		logger.NewTestLogger(t),
	)

	err := n.RegistrationSubmitted(context.Background(), RegistrationEvent{
		Kind:        "rider",
		ApplicantID: "r-1",
		Name:        "Juan",
		Email:       "juan@example.com",
	})
	require.NoError(t, err)

	require.NotNil(t, published)
	assert.Equal(t, "arn:aws:sns:ap-southeast-1:123:moderators", *published.TopicArn)
	var ev RegistrationEvent
	require.NoError(t, json.Unmarshal([]byte(*published.Message), &ev))
	assert.Equal(t, "r-1", ev.ApplicantID)
	assert.False(t, ev.SubmittedAt.IsZero())

	require.NotNil(t, emailed)
	assert.Equal(t, []string{"juan@example.com"}, emailed.Destination.ToAddresses)
	assert.Equal(t, "no-reply@marketplace.test", *emailed.Source)
	assert.Contains(t, *emailed.Message.Body.Text.Data, "Hi Juan")
}

func TestNotifier_AttemptsBothChannels(t *testing.T) {
	emailSent := false
	n := NewNotifierWithClients(testNotificationConfig(),
		&MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			emailSent = true
			return &ses.SendEmailOutput{}, nil
		}},
		&MockSNSService{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		}},
		logger.NewTestLogger(t),
	)

	err := n.RegistrationSubmitted(context.Background(), RegistrationEvent{Kind: "rider", Email: "a@b.co"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.True(t, emailSent)
}

func TestNotifier_DisabledIsNoop(t *testing.T) {
	n, err := NewNotifier(context.Background(), config.NotificationConfig{}, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.NoError(t, n.RegistrationSubmitted(context.Background(), RegistrationEvent{Kind: "seller"}))
}
