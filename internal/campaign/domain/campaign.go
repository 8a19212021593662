package domain

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is a crowd-ringing campaign. Its CRUD lifecycle is owned by the
// persistence layer; the core only reads it and stamps broadcast activity.
type Campaign struct {
	ID                  uuid.UUID
	Title               string
	CreatedAt           time.Time
	MostRecentBroadcast *time.Time
}

// FilteredMessage is one ordered introductory-reply rule: ringers matching
// Filter receive Text.
type FilteredMessage struct {
	Filter Filter
	Text   string
}

// IntroductoryResponseConfig is a campaign's stored introductory-reply
// configuration: ordered rules plus the mandatory fallback text. Rule order is
// preserved exactly as inserted.
type IntroductoryResponseConfig struct {
	DefaultText string
	Messages    []FilteredMessage
}
