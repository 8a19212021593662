package provider

import (
	"context"

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
)

// Capabilities reports what a carrier can do on behalf of the platform.
type Capabilities struct {
	Voice    bool
	SMS      bool
	Outgoing bool
}

// Identity describes a carrier adapter. The routing key lives in the
// dispatcher registry, not here; Name is the human label used in logs.
type Identity struct {
	Name         string
	Capabilities Capabilities
}

// Inventory is a carrier's owned phone numbers, split by capability. The two
// sequences are disjoint views, not a union.
type Inventory struct {
	Voice []string
	SMS   []string
}

// RawRequest carries one inbound webhook payload in wire-agnostic form:
// merged query/form parameters plus the raw body for JSON carriers.
type RawRequest struct {
	Params map[string]string
	Body   []byte
}

// Get returns the named parameter or "".
func (r RawRequest) Get(key string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[key]
}

// WireResponse is a rendered carrier reply body.
type WireResponse struct {
	ContentType string
	Body        []byte
}

// Adapter is the per-carrier protocol boundary. One implementation exists per
// commercial carrier plus a logging variant for local development.
//
// TransformRequest is CPU-only and never performs I/O. BuildResponse and
// SendSMS may call the carrier's API and must be treated as blocking; they
// impose no internal timeout, so callers supply cancellation through ctx.
type Adapter interface {
	Identity() Identity

	// TransformRequest parses the carrier payload into the canonical shape,
	// normalizing phone numbers to E.164. It returns *domain.MalformedPayloadError
	// when required fields are absent or a number cannot be parsed.
	TransformRequest(kind domain.InteractionKind, raw RawRequest) (*domain.Request, error)

	// BuildResponse renders the canonical directive sequence, in order, into
	// the carrier's documented reply format. Directives the carrier cannot
	// express are rendered as the closest supported equivalent or a no-op
	// placeholder, never silently dropped without a valid document.
	BuildResponse(ctx context.Context, req *domain.Request, resp domain.Response) (WireResponse, error)

	// SendSMS submits one outbound message through the carrier's API. It
	// returns *domain.DeliveryError on a non-success carrier response and
	// never retries; retry policy belongs to the caller.
	SendSMS(ctx context.Context, from, to, message string) error

	// ProcessCallback handles a delivery-status callback. No reply body is
	// produced for callbacks.
	ProcessCallback(ctx context.Context, req *domain.Request) error

	// Numbers reports the carrier's owned inventory, re-read on demand.
	Numbers(ctx context.Context) (Inventory, error)
}
