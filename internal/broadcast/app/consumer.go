package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	campdomain "github.com/ringbridge/ringbridge/internal/campaign/domain"
	"github.com/ringbridge/ringbridge/internal/platform/messagebroker"
	"github.com/ringbridge/ringbridge/internal/telephony/dispatch"
)

// Broadcaster fans a message out to destination numbers; the composite
// dispatcher satisfies it.
type Broadcaster interface {
	Broadcast(ctx context.Context, from, message string, toNumbers []string) dispatch.BroadcastResult
}

// JobConsumer consumes queued broadcast jobs and executes them through the
// dispatcher, recording the aggregate outcome. Partial failures are recorded,
// never retried here; retry policy belongs to whoever reads the outcome.
type JobConsumer struct {
	natsClient *messagebroker.NATSClient
	dispatcher Broadcaster
	broadcasts campdomain.BroadcastRepository
	logger     *slog.Logger
}

func NewJobConsumer(
	natsClient *messagebroker.NATSClient,
	dispatcher Broadcaster,
	broadcasts campdomain.BroadcastRepository,
	logger *slog.Logger,
) *JobConsumer {
	return &JobConsumer{
		natsClient: natsClient,
		dispatcher: dispatcher,
		broadcasts: broadcasts,
		logger:     logger.With("component", "broadcast_consumer"),
	}
}

// StartConsuming subscribes to the broadcast job subject within queueGroup and
// blocks until ctx is cancelled.
func (c *JobConsumer) StartConsuming(ctx context.Context, subject, queueGroup string) error {
	handler := func(msg *nats.Msg) { c.handleMessage(ctx, msg) }

	c.logger.InfoContext(ctx, "Starting broadcast job subscription", "subject", subject, "queue_group", queueGroup)
	return c.natsClient.SubscribeToSubjectWithQueue(ctx, subject, queueGroup, handler)
}

func (c *JobConsumer) handleMessage(ctx context.Context, msg *nats.Msg) {
	broadcastJobsReceivedCounter.WithLabelValues(msg.Subject).Inc()

	var job campdomain.BroadcastJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		c.logger.ErrorContext(ctx, "Failed to deserialize broadcast job",
			"error", err, "subject", msg.Subject, "data", string(msg.Data))
		return
	}

	c.process(ctx, job)
}

func (c *JobConsumer) process(ctx context.Context, job campdomain.BroadcastJob) {
	logger := c.logger.With("broadcast_id", job.BroadcastID, "campaign_id", job.CampaignID)
	logger.InfoContext(ctx, "Executing broadcast", "recipients", len(job.Recipients))

	start := time.Now()
	result := c.dispatcher.Broadcast(ctx, job.From, job.Message, job.Recipients)
	broadcastDurationHist.Observe(time.Since(start).Seconds())

	failed := result.Failed()
	broadcastSendsCounter.WithLabelValues("success").Add(float64(result.Succeeded()))
	broadcastSendsCounter.WithLabelValues("failure").Add(float64(len(failed)))

	for _, outcome := range failed {
		logger.WarnContext(ctx, "Broadcast destination failed",
			"to", outcome.To, "provider", outcome.Provider, "error", outcome.Err)
	}

	if err := c.broadcasts.MarkCompleted(ctx, job.BroadcastID, result.Succeeded(), len(failed), time.Now().UTC()); err != nil {
		logger.ErrorContext(ctx, "Failed to record broadcast completion", "error", err)
		return
	}

	logger.InfoContext(ctx, "Broadcast completed",
		"sent", result.Succeeded(), "failed", len(failed))
}
