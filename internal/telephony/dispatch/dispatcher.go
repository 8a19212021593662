package dispatch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
	"github.com/ringbridge/ringbridge/internal/telephony/provider"
)

const defaultBroadcastWorkers = 8

// Dispatcher is the composite registry of carrier adapters. It is built once
// at startup and read-only afterwards; concurrent webhook handling only ever
// performs lookups, so no locking is needed post-initialization.
type Dispatcher struct {
	logger     *slog.Logger
	adapters   map[string]provider.Adapter
	order      []string
	defaultKey string
	workers    int
}

// New creates an empty Dispatcher.
func New(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		adapters: make(map[string]provider.Adapter),
		workers:  defaultBroadcastWorkers,
	}
}

// SetBroadcastWorkers bounds broadcast fan-out concurrency. Values below 1
// keep the current setting. Call before serving traffic; the dispatcher is
// read-only after startup.
func (d *Dispatcher) SetBroadcastWorkers(n int) {
	if n > 0 {
		d.workers = n
	}
}

// Register adds an adapter under a routing key. Registering an existing key
// returns *domain.DuplicateKeyError. At most one adapter is the default;
// registering a second default silently replaces the previous one — the most
// recently configured wins, matching startup ordering.
func (d *Dispatcher) Register(key string, a provider.Adapter, isDefault bool) error {
	if _, exists := d.adapters[key]; exists {
		return &domain.DuplicateKeyError{Key: key}
	}
	d.adapters[key] = a
	d.order = append(d.order, key)
	if isDefault {
		d.defaultKey = key
	}
	d.logger.Info("Registered telephony provider",
		"key", key, "name", a.Identity().Name, "default", isDefault)
	return nil
}

// Resolve returns the adapter registered under key, or the default adapter
// when key is empty. An unregistered key yields *domain.UnknownProviderError,
// never a nil adapter.
func (d *Dispatcher) Resolve(key string) (provider.Adapter, error) {
	if key == "" {
		return d.Default()
	}
	a, ok := d.adapters[key]
	if !ok {
		return nil, &domain.UnknownProviderError{Key: key}
	}
	return a, nil
}

// Default returns the default adapter.
func (d *Dispatcher) Default() (provider.Adapter, error) {
	if d.defaultKey == "" {
		return nil, &domain.UnknownProviderError{Key: "(default)"}
	}
	return d.adapters[d.defaultKey], nil
}

// VoiceNumbers returns the union of every registered adapter's voice
// inventory, in registration order. Duplicates across adapters are preserved;
// ownership conflicts are a configuration error, not resolved here.
func (d *Dispatcher) VoiceNumbers(ctx context.Context) ([]string, error) {
	return d.collectNumbers(ctx, func(inv provider.Inventory) []string { return inv.Voice })
}

// SMSNumbers returns the union of every registered adapter's SMS inventory,
// in registration order, duplicates preserved.
func (d *Dispatcher) SMSNumbers(ctx context.Context) ([]string, error) {
	return d.collectNumbers(ctx, func(inv provider.Inventory) []string { return inv.SMS })
}

func (d *Dispatcher) collectNumbers(ctx context.Context, pick func(provider.Inventory) []string) ([]string, error) {
	var numbers []string
	for _, key := range d.order {
		inv, err := d.adapters[key].Numbers(ctx)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, pick(inv)...)
	}
	return numbers, nil
}

// SendSMS sends one message through the adapter owning the from number, or
// through the first outgoing-capable adapter when no inventory claims it.
func (d *Dispatcher) SendSMS(ctx context.Context, from, to, message string) error {
	a, err := d.outgoingAdapterFor(ctx, from)
	if err != nil {
		return err
	}
	return a.SendSMS(ctx, from, to, message)
}

// outgoingAdapterFor prefers the adapter whose SMS inventory lists from,
// falling back to the first registered outgoing-capable adapter.
func (d *Dispatcher) outgoingAdapterFor(ctx context.Context, from string) (provider.Adapter, error) {
	var fallback provider.Adapter
	for _, key := range d.order {
		a := d.adapters[key]
		if !a.Identity().Capabilities.Outgoing {
			continue
		}
		if fallback == nil {
			fallback = a
		}
		inv, err := a.Numbers(ctx)
		if err != nil {
			continue
		}
		for _, n := range inv.SMS {
			if n == from {
				return a, nil
			}
		}
	}
	if fallback == nil {
		return nil, &domain.UnknownProviderError{Key: "(outgoing)"}
	}
	return fallback, nil
}

// SendOutcome is the per-destination result of a broadcast.
type SendOutcome struct {
	To       string
	Provider string
	Err      error
}

// BroadcastResult aggregates broadcast outcomes, one per destination, in
// input order.
type BroadcastResult struct {
	Outcomes []SendOutcome
}

// Failed returns the outcomes whose send was rejected.
func (r BroadcastResult) Failed() []SendOutcome {
	var failed []SendOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Succeeded returns the count of delivered sends.
func (r BroadcastResult) Succeeded() int {
	return len(r.Outcomes) - len(r.Failed())
}

// Broadcast fans a message out to every destination number. Each destination
// goes through the first registered outgoing-capable adapter; this does not
// look up actual carrier ownership, so callers needing strict per-carrier
// routing must pre-partition toNumbers themselves. Sends run concurrently with
// no ordering guarantee between destinations. Failures never abort remaining
// sends; every destination gets an outcome.
func (d *Dispatcher) Broadcast(ctx context.Context, from, message string, toNumbers []string) BroadcastResult {
	outcomes := make([]SendOutcome, len(toNumbers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, to := range toNumbers {
		i, to := i, to
		g.Go(func() error {
			a, err := d.outgoingAdapterFor(gctx, from)
			if err != nil {
				outcomes[i] = SendOutcome{To: to, Err: err}
				return nil
			}
			err = a.SendSMS(gctx, from, to, message)
			outcomes[i] = SendOutcome{To: to, Provider: a.Identity().Name, Err: err}
			if err != nil {
				d.logger.WarnContext(gctx, "Broadcast send failed",
					"provider", a.Identity().Name, "to", to, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return BroadcastResult{Outcomes: outcomes}
}
