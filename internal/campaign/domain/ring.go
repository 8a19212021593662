package domain

import (
	"time"

	"github.com/google/uuid"
)

// RingKind is the interaction kind of a recorded ring.
type RingKind string

const (
	RingKindVoice RingKind = "voice"
	RingKindSMS   RingKind = "sms"
)

// Ring is one recorded inbound interaction. Immutable once created.
type Ring struct {
	ID               uuid.UUID
	RingerID         uuid.UUID
	RingerPhone      string // E.164, denormalized for audience building
	AssignedNumberID uuid.UUID
	CampaignID       uuid.UUID
	Kind             RingKind
	CreatedAt        time.Time
}

// NewRing records an interaction between a ringer and an assigned number.
func NewRing(ringer *Ringer, assigned *AssignedNumber, kind RingKind) *Ring {
	return &Ring{
		ID:               uuid.New(),
		RingerID:         ringer.ID,
		RingerPhone:      ringer.PhoneNumber,
		AssignedNumberID: assigned.ID,
		CampaignID:       assigned.CampaignID,
		Kind:             kind,
		CreatedAt:        time.Now().UTC(),
	}
}
