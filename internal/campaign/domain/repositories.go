package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// The persistence collaborators. The core never deletes durable records; it
// creates Rings/Ringers and reads everything else. Uniqueness of a Ringer per
// phone number under concurrent first-contact events is guaranteed by the
// store, not by a lock in this core.

type RingerRepository interface {
	// GetByPhone returns ErrNotFound for unseen numbers.
	GetByPhone(ctx context.Context, phoneNumber string) (*Ringer, error)
	Create(ctx context.Context, ringer *Ringer) error
	AddTags(ctx context.Context, ringerID uuid.UUID, tags []Tag) error
}

type RingRepository interface {
	Create(ctx context.Context, ring *Ring) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]Ring, error)
	CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
}

type TagRepository interface {
	// Create returns ErrDuplicateEntry when the (category, value) pair exists.
	Create(ctx context.Context, tag Tag) error
	List(ctx context.Context) ([]Tag, error)
}

type AssignedNumberRepository interface {
	// GetByNumber returns ErrNotFound when the number is not assigned to any
	// campaign.
	GetByNumber(ctx context.Context, phoneNumber string) (*AssignedNumber, error)
	List(ctx context.Context) ([]AssignedNumber, error)
}

type CampaignRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	UpdateMostRecentBroadcast(ctx context.Context, id uuid.UUID, at time.Time) error
	// GetIntroductoryResponse returns ErrNotFound when the campaign has no
	// introductory reply configured.
	GetIntroductoryResponse(ctx context.Context, campaignID uuid.UUID) (*IntroductoryResponseConfig, error)
}

type BroadcastRepository interface {
	Create(ctx context.Context, b *Broadcast) error
	MarkCompleted(ctx context.Context, id uuid.UUID, sent, failed int, completedAt time.Time) error
}
