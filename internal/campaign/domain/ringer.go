package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ringer is a supporter identified by their normalized phone number. The
// phone number is the natural key; the UUID exists for foreign keys only.
type Ringer struct {
	ID          uuid.UUID
	PhoneNumber string // E.164
	Tags        []Tag
	CreatedAt   time.Time
}

// NewRinger creates a Ringer for a first-contact phone number.
func NewRinger(phoneNumber string) *Ringer {
	return &Ringer{
		ID:          uuid.New(),
		PhoneNumber: phoneNumber,
		CreatedAt:   time.Now().UTC(),
	}
}

// HasTag reports whether the ringer holds the given tag.
func (r *Ringer) HasTag(t Tag) bool {
	for _, held := range r.Tags {
		if held == t {
			return true
		}
	}
	return false
}
