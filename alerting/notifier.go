package alerting

import (
	"context"
	"os"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/sirupsen/logrus"
)

const moduleName = "alerting"

const (
	ReasonScoreBelowThreshold = "score_below_threshold"
	ReasonRunFailed           = "run_failed"
)

// AlertPayload is the message published when a sync outcome needs human
// attention.
type AlertPayload struct {
	EntityType   string   `json:"entity_type"`
	RunId        uint     `json:"run_id"`
	Reason       string   `json:"reason"`
	Score        string   `json:"score,omitempty"`
	FailingRules []string `json:"failing_rules,omitempty"`
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Message      string   `json:"message,omitempty"`
}

// Notifier delivers alerts. Delivery failures are the implementation's to
// log; they never propagate into the run outcome.
type Notifier interface {
	Notify(ctx context.Context, payload AlertPayload)
}

// NewNotifier returns the Pub/Sub notifier when alerting is enabled and a
// topic is configured, the noop notifier otherwise.
func NewNotifier() Notifier {
	topic := os.Getenv("PUBSUB_ALERT_TOPIC")
	if !config.AlertsEnabled() || topic == "" {
		return NoopNotifier{}
	}
	return &PubSubNotifier{Topic: topic}
}

// NoopNotifier drops alerts.
type NoopNotifier struct{}

func (NoopNotifier) Notify(ctx context.Context, payload AlertPayload) {}

// PubSubNotifier publishes alerts to a Pub/Sub topic for downstream
// channels (Slack bridge, pager) to fan out.
type PubSubNotifier struct {
	Topic string
}

func (n *PubSubNotifier) Notify(ctx context.Context, payload AlertPayload) {
	logger := config.GetLogger()
	messageId, err := config.PublishJSON(ctx, n.Topic, payload)
	if err != nil {
		config.LogError(logger, moduleName, "Notify", "Failed to publish alert", payload.EntityType, err)
		return
	}
	logger.WithFields(logrus.Fields{
		"module":      moduleName,
		"entity_type": payload.EntityType,
		"run_id":      payload.RunId,
		"reason":      payload.Reason,
		"message_id":  messageId,
	}).Info("alert published")
}
