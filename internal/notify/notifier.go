package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

var ErrTemplateNotFound = errors.New("notification template not found")

// SESService and SNSService match the SDK client methods so tests can mock them.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Sender is what the domain services depend on.
type Sender interface {
	Notify(ctx context.Context, msg Message) Result
}

type Notifier struct {
	config    *Config
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
	templates map[string]Template
}

func New(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    config,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		templates: defaultTemplates(),
	}
}

// Notify renders the message template and delivers it on every enabled
// channel the recipient has a contact for. Failures are logged and reported
// in the result, never returned.
func (n *Notifier) Notify(ctx context.Context, msg Message) Result {
	result := Result{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	tmpl, ok := n.templates[msg.Type]
	if !ok {
		n.logger.Error("notification template missing", map[string]interface{}{
			"type":  msg.Type,
			"error": ErrTemplateNotFound,
		})
		result.Status = StatusFailed
		return result
	}

	subject := renderTemplate(tmpl.Subject, msg.Data)
	body := renderTemplate(tmpl.Body, msg.Data)

	if n.config.EmailEnabled && tmpl.Email && msg.Email != "" {
		if err := n.sendEmail(ctx, msg.Email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"type":  msg.Type,
			})
			metrics.NotificationsSent.WithLabelValues(ChannelEmail, StatusFailed).Inc()
			result.Status = StatusFailed
			return result
		}
		metrics.NotificationsSent.WithLabelValues(ChannelEmail, StatusSent).Inc()
		result.Channels = append(result.Channels, ChannelEmail)
	}

	if n.config.SMSEnabled && tmpl.SMS && msg.Phone != "" {
		smsBody := body
		if tmpl.SMSBody != "" {
			smsBody = renderTemplate(tmpl.SMSBody, msg.Data)
		}
		if err := n.sendSMS(ctx, msg.Phone, smsBody); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"type":  msg.Type,
			})
			metrics.NotificationsSent.WithLabelValues(ChannelSMS, StatusFailed).Inc()
			result.Status = StatusFailed
			return result
		}
		metrics.NotificationsSent.WithLabelValues(ChannelSMS, StatusSent).Inc()
		result.Channels = append(result.Channels, ChannelSMS)
	}

	if len(result.Channels) > 0 {
		result.Status = StatusSent
	}

	n.logger.Info("notification processed", map[string]interface{}{
		"notificationId": result.NotificationID,
		"type":           msg.Type,
		"status":         result.Status,
		"channels":       result.Channels,
	})

	return result
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	if n.sesClient == nil {
		return fmt.Errorf("ses client not configured")
	}
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	if n.snsClient == nil {
		return fmt.Errorf("sns client not configured")
	}
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if n.config.SMSSenderID != "" {
		input.MessageAttributes = senderIDAttributes(n.config.SMSSenderID)
	}
	_, err := n.snsClient.Publish(ctx, input)
	return err
}

// renderTemplate replaces {{key}} placeholders and drops unknown ones.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
