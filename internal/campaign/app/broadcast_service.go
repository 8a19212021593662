package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
)

// BroadcastService builds the audience for a campaign broadcast and enqueues
// the fan-out as a job for the broadcast worker. The audience is the ringers
// of the campaign's rings that pass the given filter, de-duplicated by phone
// number in first-seen order.
type BroadcastService struct {
	campaigns  domain.CampaignRepository
	rings      domain.RingRepository
	ringers    domain.RingerRepository
	assigned   domain.AssignedNumberRepository
	broadcasts domain.BroadcastRepository
	publisher  NotificationPublisher
	logger     *slog.Logger
}

func NewBroadcastService(
	campaigns domain.CampaignRepository,
	rings domain.RingRepository,
	ringers domain.RingerRepository,
	assigned domain.AssignedNumberRepository,
	broadcasts domain.BroadcastRepository,
	publisher NotificationPublisher,
	logger *slog.Logger,
) *BroadcastService {
	return &BroadcastService{
		campaigns:  campaigns,
		rings:      rings,
		ringers:    ringers,
		assigned:   assigned,
		broadcasts: broadcasts,
		publisher:  publisher,
		logger:     logger.With("component", "broadcast_service"),
	}
}

// EnqueueBroadcast records a Broadcast for the filtered audience and publishes
// the job. When from is empty, the campaign's assigned SMS number is used.
func (s *BroadcastService) EnqueueBroadcast(ctx context.Context, campaignID uuid.UUID, from, message string, filter domain.Filter) (*domain.Broadcast, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading campaign %s: %w", campaignID, err)
	}

	if from == "" {
		from, err = s.campaignSMSNumber(ctx, campaignID)
		if err != nil {
			return nil, err
		}
	}

	recipients, err := s.audience(ctx, campaignID, filter)
	if err != nil {
		return nil, err
	}

	broadcast := &domain.Broadcast{
		ID:         uuid.New(),
		CampaignID: campaign.ID,
		From:       from,
		Message:    message,
		Recipients: recipients,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.broadcasts.Create(ctx, broadcast); err != nil {
		return nil, fmt.Errorf("recording broadcast: %w", err)
	}

	job := domain.BroadcastJob{
		BroadcastID: broadcast.ID,
		CampaignID:  campaign.ID,
		From:        from,
		Message:     message,
		Recipients:  recipients,
		EnqueuedAt:  broadcast.CreatedAt,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshaling broadcast job: %w", err)
	}
	if err := s.publisher.Publish(ctx, domain.BroadcastJobSubject, payload); err != nil {
		return nil, fmt.Errorf("enqueueing broadcast job: %w", err)
	}

	if err := s.campaigns.UpdateMostRecentBroadcast(ctx, campaign.ID, broadcast.CreatedAt); err != nil {
		s.logger.WarnContext(ctx, "Failed to stamp most recent broadcast", "campaign_id", campaign.ID, "error", err)
	}

	broadcastsEnqueuedCounter.Inc()
	s.logger.InfoContext(ctx, "Broadcast enqueued",
		"broadcast_id", broadcast.ID, "campaign_id", campaign.ID, "recipients", len(recipients))
	return broadcast, nil
}

// audience lists the filtered, de-duplicated recipient numbers for a campaign.
func (s *BroadcastService) audience(ctx context.Context, campaignID uuid.UUID, filter domain.Filter) ([]string, error) {
	rings, err := s.rings.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing rings for campaign %s: %w", campaignID, err)
	}

	// One lookup per distinct ringer; rings routinely repeat numbers.
	ringersByPhone := make(map[string]*domain.Ringer)
	var recipients []string
	seen := make(map[string]bool)

	for i := range rings {
		ring := &rings[i]
		ringer, ok := ringersByPhone[ring.RingerPhone]
		if !ok {
			ringer, err = s.ringers.GetByPhone(ctx, ring.RingerPhone)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					s.logger.WarnContext(ctx, "Ring references unknown ringer", "phone", ring.RingerPhone)
					continue
				}
				return nil, fmt.Errorf("loading ringer %s: %w", ring.RingerPhone, err)
			}
			ringersByPhone[ring.RingerPhone] = ringer
		}

		if seen[ringer.PhoneNumber] {
			continue
		}
		if filter.Matches(domain.RingSubject(ring, ringer)) {
			seen[ringer.PhoneNumber] = true
			recipients = append(recipients, ringer.PhoneNumber)
		}
	}
	return recipients, nil
}

// campaignSMSNumber returns the campaign's assigned SMS number.
func (s *BroadcastService) campaignSMSNumber(ctx context.Context, campaignID uuid.UUID) (string, error) {
	assigned, err := s.assigned.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing assigned numbers: %w", err)
	}
	for _, a := range assigned {
		if a.CampaignID == campaignID && a.Kind == domain.RingKindSMS {
			return a.PhoneNumber, nil
		}
	}
	return "", fmt.Errorf("campaign %s has no assigned SMS number: %w", campaignID, domain.ErrNotFound)
}
