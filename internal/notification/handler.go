package notification

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/email"
	"github.com/keygate/keygate/internal/httpclient"
	"github.com/keygate/keygate/internal/logger"
	"github.com/keygate/keygate/internal/pubsub"
	pubsubRouter "github.com/keygate/keygate/internal/pubsub/router"
	"github.com/keygate/keygate/internal/types"
)

// Handler consumes lifecycle events and delivers the admin summary
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub pubsub.PubSub
	config *config.NotificationConfig
	email  *email.Client
	client httpclient.Client
	logger *logger.Logger
}

// NewHandler creates a new lifecycle event handler
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	emailClient *email.Client,
	client httpclient.Client,
	logger *logger.Logger,
) (Handler, error) {
	return &handler{
		pubSub: pubSub,
		config: &cfg.Notification,
		email:  emailClient,
		client: client,
		logger: logger,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"lifecycle_notification_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// outboundNotification is the payload posted to the notification webhook.
type outboundNotification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// processMessage delivers the admin summary for a single lifecycle event.
// Delivery goes to the configured webhook endpoint when one is set,
// otherwise directly by email.
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event LifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal lifecycle event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	if h.config.AdminEmail == "" {
		h.logger.Infow("admin notification delivery not configured, logging only",
			"event_id", event.ID,
			"subscription_id", event.SubscriptionID,
			"outcome", event.Outcome,
		)
		return nil
	}

	subject := subjectFor(&event)
	htmlBody, textBody := renderSummary(&event)

	if h.config.WebhookURL != "" {
		payload, err := json.Marshal(outboundNotification{
			To:      h.config.AdminEmail,
			Subject: subject,
			HTML:    htmlBody,
		})
		if err != nil {
			return err
		}

		resp, err := h.client.Send(ctx, &httpclient.Request{
			Method: "POST",
			URL:    h.config.WebhookURL,
			Body:   payload,
		})
		if err != nil {
			h.logger.Errorw("failed to post admin notification",
				"error", err,
				"event_id", event.ID,
				"subscription_id", event.SubscriptionID,
			)
			return err
		}

		h.logger.Infow("posted admin notification",
			"event_id", event.ID,
			"subscription_id", event.SubscriptionID,
			"status_code", resp.StatusCode,
		)
		return nil
	}

	if !h.email.IsEnabled() {
		h.logger.Infow("no notification transport configured, logging only",
			"event_id", event.ID,
			"subscription_id", event.SubscriptionID,
			"outcome", event.Outcome,
		)
		return nil
	}

	messageID, err := h.email.Send(ctx, "", h.config.AdminEmail, subject, htmlBody, textBody)
	if err != nil {
		h.logger.Errorw("failed to deliver admin notification",
			"error", err,
			"event_id", event.ID,
			"subscription_id", event.SubscriptionID,
		)
		return err
	}

	h.logger.Infow("delivered admin notification",
		"event_id", event.ID,
		"subscription_id", event.SubscriptionID,
		"message_id", messageID,
	)

	return nil
}

func subjectFor(event *LifecycleEvent) string {
	switch event.Outcome {
	case types.OutcomeReactivated:
		return fmt.Sprintf("Subscription reactivated: %s", event.SubscriptionID)
	case types.OutcomeCanceledImmediatelyWithRefund:
		return fmt.Sprintf("Subscription canceled with refund: %s", event.SubscriptionID)
	case types.OutcomeCanceledImmediatelyNoCharge:
		return fmt.Sprintf("Trial subscription canceled: %s", event.SubscriptionID)
	default:
		return fmt.Sprintf("Subscription canceled at period end: %s", event.SubscriptionID)
	}
}

func renderSummary(event *LifecycleEvent) (html string, text string) {
	var lines []string
	lines = append(lines,
		fmt.Sprintf("Subscription: %s", event.SubscriptionID),
		fmt.Sprintf("Customer: %s", event.CustomerID),
		fmt.Sprintf("Action: %s", event.Action),
		fmt.Sprintf("Outcome: %s", event.Outcome),
	)
	if event.CustomerEmail != "" {
		lines = append(lines, fmt.Sprintf("Email: %s", event.CustomerEmail))
	}
	if event.RefundID != "" {
		lines = append(lines, fmt.Sprintf("Refund: %s %s %s",
			event.RefundID,
			event.RefundAmount.StringFixed(2),
			strings.ToUpper(event.RefundCurrency),
		))
	}
	if event.Reason != "" {
		lines = append(lines, fmt.Sprintf("Reason: %s", event.Reason))
	}
	lines = append(lines, fmt.Sprintf("At: %s", event.OccurredAt.Format("2006-01-02 15:04:05 UTC")))

	text = strings.Join(lines, "\n")
	html = "<p>" + strings.Join(lines, "<br>") + "</p>"
	return html, text
}
