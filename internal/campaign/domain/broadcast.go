package domain

import (
	"time"

	"github.com/google/uuid"
)

// BroadcastJobSubject is the NATS subject broadcast jobs travel on between the
// webhook service and the broadcast worker.
const BroadcastJobSubject = "broadcast.job"

// RingRecordedSubjectPrefix prefixes the fire-and-forget supporter-count
// events published when a ring is recorded. Full subject:
// "ring.recorded.<campaign_id>".
const RingRecordedSubjectPrefix = "ring.recorded."

// Broadcast is one outbound message fan-out to a filtered audience.
type Broadcast struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	From       string
	Message    string
	Recipients []string
	CreatedAt  time.Time

	SentCount   int
	FailedCount int
	CompletedAt *time.Time
}

// BroadcastJob is the queue payload handed to the broadcast worker.
type BroadcastJob struct {
	BroadcastID uuid.UUID `json:"broadcast_id"`
	CampaignID  uuid.UUID `json:"campaign_id"`
	From        string    `json:"from"`
	Message     string    `json:"message"`
	Recipients  []string  `json:"recipients"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// RingRecordedEvent is the push-notification payload published when a ring is
// recorded. Publishing is fire-and-forget; failures never affect the webhook.
type RingRecordedEvent struct {
	CampaignID  uuid.UUID `json:"campaign_id"`
	RingerPhone string    `json:"ringer_phone"`
	Kind        RingKind  `json:"kind"`
	NewRinger   bool      `json:"new_ringer"`
	RingCount   int       `json:"ring_count"`
	RecordedAt  time.Time `json:"recorded_at"`
}
