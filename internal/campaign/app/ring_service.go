package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
	teldomain "github.com/ringbridge/ringbridge/internal/telephony/domain"
)

// NotificationPublisher is the real-time push channel collaborator; the NATS
// client satisfies it. Publishing is fire-and-forget from the caller's view.
type NotificationPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// RingService records inbound interactions: it resolves the dialed number to a
// campaign assignment, creates the Ringer on first contact (tagging it with
// derived geography), persists the Ring, and emits the RingRecorded event.
type RingService struct {
	ringers   domain.RingerRepository
	rings     domain.RingRepository
	assigned  domain.AssignedNumberRepository
	publisher NotificationPublisher
	logger    *slog.Logger
}

func NewRingService(
	ringers domain.RingerRepository,
	rings domain.RingRepository,
	assigned domain.AssignedNumberRepository,
	publisher NotificationPublisher,
	logger *slog.Logger,
) *RingService {
	return &RingService{
		ringers:   ringers,
		rings:     rings,
		assigned:  assigned,
		publisher: publisher,
		logger:    logger.With("component", "ring_service"),
	}
}

// RingOutcome reports what RecordRing did. Recorded is false when the dialed
// number is not assigned to any campaign; everything else is then zero.
type RingOutcome struct {
	Recorded  bool
	NewRinger bool
	Assigned  *domain.AssignedNumber
	Ringer    *domain.Ringer
}

// RecordRing records one inbound interaction from `from` against the
// platform-owned number `to`. Both numbers are E.164 (the adapter already
// normalized them).
func (s *RingService) RecordRing(ctx context.Context, from, to string, kind domain.RingKind) (*RingOutcome, error) {
	assigned, err := s.assigned.GetByNumber(ctx, to)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.DebugContext(ctx, "Dialed number not assigned to any campaign", "to", to)
			return &RingOutcome{Recorded: false}, nil
		}
		return nil, fmt.Errorf("looking up assigned number %s: %w", to, err)
	}

	ringer, newRinger, err := s.findOrCreateRinger(ctx, from)
	if err != nil {
		return nil, err
	}

	ring := domain.NewRing(ringer, assigned, kind)
	if err := s.rings.Create(ctx, ring); err != nil {
		return nil, fmt.Errorf("recording ring for %s: %w", from, err)
	}

	ringsRecordedCounter.WithLabelValues(string(kind)).Inc()
	s.publishRingRecorded(ctx, ring, newRinger)

	s.logger.InfoContext(ctx, "Ring recorded",
		"campaign_id", assigned.CampaignID, "ringer", ringer.PhoneNumber,
		"kind", kind, "new_ringer", newRinger)

	return &RingOutcome{
		Recorded:  true,
		NewRinger: newRinger,
		Assigned:  assigned,
		Ringer:    ringer,
	}, nil
}

// findOrCreateRinger resolves a ringer by phone number, creating one with
// derived geography tags on first contact. A concurrent first-contact race is
// settled by the store's uniqueness guarantee: on ErrDuplicateEntry the
// winning row is re-read.
func (s *RingService) findOrCreateRinger(ctx context.Context, phone string) (*domain.Ringer, bool, error) {
	ringer, err := s.ringers.GetByPhone(ctx, phone)
	if err == nil {
		return ringer, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("looking up ringer %s: %w", phone, err)
	}

	ringer = domain.NewRinger(phone)
	ringer.Tags = geographyTags(phone)

	if err := s.ringers.Create(ctx, ringer); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			existing, getErr := s.ringers.GetByPhone(ctx, phone)
			if getErr != nil {
				return nil, false, fmt.Errorf("re-reading ringer %s after create race: %w", phone, getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("creating ringer %s: %w", phone, err)
	}
	return ringer, true, nil
}

// geographyTags derives region tags from an E.164 number: country ISO code
// always, NANP area code when applicable.
func geographyTags(phone string) []domain.Tag {
	var tags []domain.Tag
	if region := teldomain.RegionCode(phone); region != "" {
		tags = append(tags, domain.Tag{Category: "country", Value: region})
	}
	if area := teldomain.AreaCode(phone); area != "" {
		tags = append(tags, domain.Tag{Category: "area-code", Value: area})
	}
	return tags
}

// publishRingRecorded emits the push-notification event carrying the
// campaign's running ring count. Failures are logged and swallowed; they are
// not part of the webhook's success path.
func (s *RingService) publishRingRecorded(ctx context.Context, ring *domain.Ring, newRinger bool) {
	count, err := s.rings.CountByCampaign(ctx, ring.CampaignID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to count campaign rings for event",
			"campaign_id", ring.CampaignID, "error", err)
	}
	event := domain.RingRecordedEvent{
		CampaignID:  ring.CampaignID,
		RingerPhone: ring.RingerPhone,
		Kind:        ring.Kind,
		NewRinger:   newRinger,
		RingCount:   count,
		RecordedAt:  ring.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal ring recorded event", "error", err)
		return
	}
	subject := domain.RingRecordedSubjectPrefix + ring.CampaignID.String()
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ring recorded event", "subject", subject, "error", err)
	}
}
