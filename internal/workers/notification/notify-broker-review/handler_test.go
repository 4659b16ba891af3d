package notifybrokerreview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariff-workers/internal/common/config"
	apperrors "tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc == nil {
		return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
	}
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc == nil {
		return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
	}
	return m.PublishFunc(ctx, params, optFns...)
}

func createTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.EmailEnabled = true
	cfg.FromEmail = "noreply@tariff.example.com"
	cfg.BrokerDesk = []string{"desk@broker.example.com"}
	cfg.SNSEnabled = true
	cfg.TopicARN = "arn:aws:sns:us-east-1:123456789012:broker-review"
	return cfg
}

func createTestInput() *Input {
	return &Input{
		Fingerprint:    "5f0c9a3e-0000-5000-8000-000000000000",
		Description:    "Bicycle saddle",
		ReviewRequired: true,
		ReviewReasons:  []string{"no confident classification; manual classification needed"},
		ContactEmail:   "importer@example.com",
	}
}

func newTestHandler(t *testing.T, cfg *Config, sesMock *MockSESService, snsMock *MockSNSService) *Handler {
	t.Helper()
	opts := HandlerOptions{CustomConfig: cfg, Logger: logger.NewTestLogger(t)}
	if sesMock != nil {
		opts.SES = sesMock
	}
	if snsMock != nil {
		opts.SNS = snsMock
	}
	h, err := NewHandler(opts)
	require.NoError(t, err)
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestHandler_Execute_Success(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	h := newTestHandler(t, createTestConfig(), sesMock, snsMock)

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, StatusSent, out.EmailStatus)
	assert.Equal(t, StatusSent, out.SNSStatus)
	assert.Equal(t, "2026-03-01T12:00:00Z", out.SentAt)
	assert.NotEmpty(t, out.NotificationID)
	assert.Equal(t, []string{"desk@broker.example.com", "importer@example.com"}, out.Recipients)

	require.Len(t, sesMock.calls, 1)
	email := sesMock.calls[0]
	assert.Equal(t, "noreply@tariff.example.com", aws.ToString(email.Source))
	assert.Equal(t, "Tariff classification needs broker review", aws.ToString(email.Message.Subject.Data))
	assert.Contains(t, aws.ToString(email.Message.Body.Text.Data), "manual classification needed")
	assert.Contains(t, aws.ToString(email.Message.Body.Text.Data), "Contact a licensed customs broker")

	require.Len(t, snsMock.calls, 1)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:broker-review", aws.ToString(snsMock.calls[0].TopicArn))
}

func TestHandler_Execute_NoReviewSkips(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	h := newTestHandler(t, createTestConfig(), sesMock, snsMock)

	input := createTestInput()
	input.ReviewRequired = false
	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, out.Status)
	assert.Empty(t, sesMock.calls)
	assert.Empty(t, snsMock.calls)
}

func TestHandler_Execute_PartialFailure(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected: Email address is not verified")
		},
	}
	h := newTestHandler(t, createTestConfig(), sesMock, &MockSNSService{})

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, out.Status)
	assert.Equal(t, StatusFailed, out.EmailStatus)
	assert.Equal(t, StatusSent, out.SNSStatus)
}

func TestHandler_Execute_AllChannelsFail(t *testing.T) {
	snsMock := &MockSNSService{
		PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	h := newTestHandler(t, cfg, nil, snsMock)

	_, err := h.Execute(context.Background(), createTestInput())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
	assert.Contains(t, err.Error(), "sns")
}

func TestHandler_Execute_ChannelsDisabled(t *testing.T) {
	h := newTestHandler(t, DefaultConfig(), nil, nil)

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Status)
	assert.Equal(t, StatusDisabled, out.EmailStatus)
	assert.Equal(t, StatusDisabled, out.SNSStatus)
}

func TestHandler_Recipients(t *testing.T) {
	h := newTestHandler(t, createTestConfig(), nil, nil)

	assert.Equal(t, []string{"desk@broker.example.com"}, h.recipients(""))
	assert.Equal(t, []string{"desk@broker.example.com"}, h.recipients("not-an-email"))
	assert.Equal(t, []string{"desk@broker.example.com"}, h.recipients("DESK@broker.example.com"))
	assert.Equal(t, []string{"desk@broker.example.com", "a@b.io"}, h.recipients(" a@b.io "))
}

func TestReviewBody_ListsEveryReason(t *testing.T) {
	body := reviewBody(&Input{
		Fingerprint:   "fp",
		TopCode:       "392690",
		ReviewReasons: []string{"first", "second"},
	})
	assert.Contains(t, body, "Proposed code: 392690")
	assert.Contains(t, body, "- first\n- second\n")
	assert.Equal(t, "Tariff classification 392690 needs broker review", reviewSubject(&Input{TopCode: "392690"}))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, createTestConfig().Validate())

	cfg := createTestConfig()
	cfg.FromEmail = "nope"
	assert.Error(t, cfg.Validate())

	cfg = createTestConfig()
	cfg.BrokerDesk = []string{"desk"}
	assert.Error(t, cfg.Validate())

	cfg = createTestConfig()
	cfg.TopicARN = ""
	assert.Error(t, cfg.Validate())
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	app := &config.Config{}
	app.Notifications.AWS.Region = "eu-west-1"
	app.Notifications.Email.Enabled = true
	app.Notifications.Email.FromEmail = "noreply@tariff.example.com"
	app.Notifications.Email.BrokerDesk = []string{"desk@broker.example.com"}

	cfg := createConfigFromAppConfig(app, nil)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.True(t, cfg.EmailEnabled)
	assert.False(t, cfg.SNSEnabled)
	assert.Equal(t, []string{"desk@broker.example.com"}, cfg.BrokerDesk)
	assert.NoError(t, cfg.Validate())
}
