package domain

import "fmt"

// MalformedPayloadError indicates an inbound payload that is missing required
// fields or carries a phone number that cannot be normalized. It maps to an
// HTTP 4xx at the webhook boundary and never affects other in-flight events.
type MalformedPayloadError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s payload: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s payload: %s", e.Provider, e.Reason)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// DeliveryError indicates an outbound send rejected by a carrier. Single sends
// surface it directly; broadcast fan-out collects one per failed destination.
type DeliveryError struct {
	Provider string
	To       string
	Status   string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery to %s failed (%s): %v", e.Provider, e.To, e.Status, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// UnknownProviderError indicates a routing key with no registered adapter.
type UnknownProviderError struct {
	Key string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("no telephony provider registered under key %q", e.Key)
}

// DuplicateKeyError indicates a second registration under an existing routing
// key. It is a startup-time configuration error and aborts startup.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("telephony provider key %q already registered", e.Key)
}
