package domain

import "github.com/google/uuid"

// ScriptKind selects a campaign's voice reply behavior. The zero value means
// the platform default (reject the call, completing the missed-call gesture).
type ScriptKind string

const (
	ScriptNone ScriptKind = ""
	ScriptSay  ScriptKind = "say"
	ScriptPlay ScriptKind = "play"
)

// AssignedNumber is a platform-owned phone number assigned to a campaign.
type AssignedNumber struct {
	ID          uuid.UUID
	CampaignID  uuid.UUID
	PhoneNumber string // E.164
	Kind        RingKind

	// Voice script override. ScriptValue is the text for ScriptSay and the
	// recording URL for ScriptPlay.
	ScriptKind  ScriptKind
	ScriptValue string
}
