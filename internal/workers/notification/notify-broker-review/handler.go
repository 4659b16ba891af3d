package notifybrokerreview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"tariff-workers/internal/common/camunda"
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/validation"
	"tariff-workers/internal/tariff/pipeline"
	"tariff-workers/internal/workers/jobs"
)

const TaskType = "notify-broker-review"

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	*jobs.Runtime
	config *Config
	ses    SESService
	sns    SNSService
	now    func() time.Time
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger
	Validator    *validation.Validator
	SES          SESService
	SNS          SNSService
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	return &Handler{
		Runtime: jobs.NewRuntime(TaskType, workerConfig.Settings, opts.Camunda, opts.Validator, opts.Logger),
		config:  workerConfig,
		ses:     opts.SES,
		sns:     opts.SNS,
		now:     time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.Serve(client, job, func(ctx context.Context) (interface{}, error) {
		var input Input
		if err := h.Decode(job, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

// Execute sends the review request on every enabled channel. It fails, and
// so asks Zeebe to retry, only when every attempted channel failed.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusSkipped,
		EmailStatus:    StatusDisabled,
		SNSStatus:      StatusDisabled,
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}
	if !input.ReviewRequired {
		return out, nil
	}

	subject := reviewSubject(input)
	body := reviewBody(input)

	var (
		attempted, sent int
		lastErr         error
		lastChannel     string
	)

	if recipients := h.recipients(input.ContactEmail); h.config.EmailEnabled && h.ses != nil && len(recipients) > 0 {
		attempted++
		out.Recipients = recipients
		if err := h.sendEmail(ctx, recipients, subject, body); err != nil {
			h.Logger().Error("review email failed", map[string]interface{}{
				"error":      err,
				"recipients": recipients,
			})
			out.EmailStatus = StatusFailed
			lastErr, lastChannel = err, "email"
		} else {
			out.EmailStatus = StatusSent
			sent++
		}
	}

	if h.config.SNSEnabled && h.sns != nil {
		attempted++
		if err := h.publish(ctx, subject, body); err != nil {
			h.Logger().Error("review publish failed", map[string]interface{}{
				"error": err,
				"topic": h.config.TopicARN,
			})
			out.SNSStatus = StatusFailed
			lastErr, lastChannel = err, "sns"
		} else {
			out.SNSStatus = StatusSent
			sent++
		}
	}

	switch {
	case attempted == 0:
		out.Status = StatusDisabled
	case sent == attempted:
		out.Status = StatusSent
	case sent > 0:
		out.Status = StatusPartial
	default:
		return nil, errors.NewNotificationSendFailedError(lastChannel, lastErr)
	}

	h.Logger().Info("broker review notification processed", map[string]interface{}{
		"notificationId": out.NotificationID,
		"fingerprint":    input.Fingerprint,
		"status":         out.Status,
	})
	return out, nil
}

// recipients is the broker desk plus the requester's address when it is valid.
func (h *Handler) recipients(contact string) []string {
	out := append([]string(nil), h.config.BrokerDesk...)
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return out
	}
	if !validation.ValidateEmail(contact) {
		h.Logger().Warn("ignoring invalid contact email", map[string]interface{}{"contactEmail": contact})
		return out
	}
	for _, addr := range out {
		if strings.EqualFold(addr, contact) {
			return out
		}
	}
	return append(out, contact)
}

func (h *Handler) sendEmail(ctx context.Context, to []string, subject, body string) error {
	_, err := h.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) publish(ctx context.Context, subject, body string) error {
	_, err := h.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.TopicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	return err
}

func reviewSubject(input *Input) string {
	if input.TopCode == "" {
		return "Tariff classification needs broker review"
	}
	return fmt.Sprintf("Tariff classification %s needs broker review", input.TopCode)
}

func reviewBody(input *Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n", input.Fingerprint)
	if input.Description != "" {
		fmt.Fprintf(&b, "Product: %s\n", input.Description)
	}
	if input.TopCode != "" {
		fmt.Fprintf(&b, "Proposed code: %s\n", input.TopCode)
	}
	b.WriteString("\nReasons:\n")
	for _, r := range input.ReviewReasons {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	fmt.Fprintf(&b, "\n%s.\n", pipeline.RecommendedAction)
	return b.String()
}

func (h *Handler) Register() error {
	return h.Runtime.Register(h.Handle)
}

func (h *Handler) GetConfig() *Config {
	return h.config
}
