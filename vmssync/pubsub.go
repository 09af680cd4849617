package vmssync

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/admiralorbiter/VMS-sub007/alerting"
	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/gin-gonic/gin"
)

// PublishDispatch hands one trigger to the worker through the sync topic.
// The runs are already created Pending, so the trigger response can return
// ids before the worker has picked anything up.
func PublishDispatch(ctx context.Context, payload SyncDispatchPayload) error {
	topicName := strings.TrimSpace(os.Getenv("VMS_SYNC_TOPIC"))
	if topicName == "" {
		topicName = "vms-sync"
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topic := client.Topic(topicName)
	if envBoolDefault("VMS_SYNC_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	data, _ := json.Marshal(payload)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}

// PubSubPushHandler consumes dispatch messages. It always acks (204):
// redelivering a malformed message forever helps nobody, and finished runs
// are deduplicated by their terminal status.
func PubSubPushHandler(settings config.SyncSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !envBoolDefault("ENABLE_VMS_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var payload SyncDispatchPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(204)
			return
		}
		if len(payload.RunIds) == 0 {
			c.Status(204)
			return
		}

		_ = executeDispatch(c.Request.Context(), settings, payload)
		c.Status(204)
	}
}

// executeDispatch loads the pre-created runs and executes the pipeline with
// the trigger's options layered over the configured defaults.
func executeDispatch(ctx context.Context, settings config.SyncSettings, payload SyncDispatchPayload) error {
	logger := config.GetLogger()

	runs := map[string]*models.SyncRun{}
	for entityType, runId := range payload.RunIds {
		run, err := models.GetSyncRun(ctx, int(runId))
		if err != nil {
			config.LogError(logger, moduleName, "executeDispatch", "Dispatched run not found", runId, err)
			continue
		}
		runs[entityType] = run
	}
	if len(runs) == 0 {
		return nil
	}

	if payload.ChunkSize > 0 {
		settings.ChunkSize = payload.ChunkSize
	}
	if payload.InterPageDelayMs > 0 {
		settings.InterPageDelay = time.Duration(payload.InterPageDelayMs) * time.Millisecond
	}

	connector, err := NewSalesforceConnector(settings)
	if err != nil {
		config.LogError(logger, moduleName, "executeDispatch", "Connector setup failed", nil, err)
		return err
	}

	orchestrator := NewOrchestrator(connector, settings, alerting.NewNotifier())
	_, err = orchestrator.Execute(ctx, PipelineOptions{
		Entities:     payload.Entities,
		Exclude:      payload.Exclude,
		DryRun:       payload.DryRun,
		ValidateOnly: payload.ValidateOnly,
		TriggeredBy:  payload.TriggeredBy,
		Runs:         runs,
	})
	return err
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
