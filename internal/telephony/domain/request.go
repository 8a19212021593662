package domain

// InteractionKind distinguishes a voice call from an SMS interaction.
type InteractionKind string

const (
	KindVoice InteractionKind = "voice"
	KindSMS   InteractionKind = "sms"
)

// Request is the carrier-neutral representation of one inbound webhook event.
// An adapter constructs it from the carrier's raw payload; From and To are
// always E.164 by the time any downstream component sees them. An adapter that
// cannot normalize a number rejects the payload instead of forwarding it.
type Request struct {
	// From is the supporter's phone number, E.164.
	From string
	// To is the platform-owned number that was dialed or texted, E.164.
	To string
	// Body is the message text; empty for voice calls.
	Body string
	// Kind is the interaction kind implied by the webhook route.
	Kind InteractionKind
	// IsCallback is true when the payload is a delivery/status report rather
	// than a live interaction. Callbacks never produce a reply body.
	IsCallback bool
	// Raw retains the original payload for diagnostics only. Nothing may be
	// parsed out of it downstream.
	Raw string
}
