package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
	"github.com/ringbridge/ringbridge/internal/telephony/provider"
)

// stubAdapter is a configurable in-memory carrier for dispatcher tests.
type stubAdapter struct {
	name      string
	outgoing  bool
	inventory provider.Inventory

	mu       sync.Mutex
	sent     []string
	sendErrs map[string]error
}

func (s *stubAdapter) Identity() provider.Identity {
	return provider.Identity{
		Name:         s.name,
		Capabilities: provider.Capabilities{Voice: true, SMS: true, Outgoing: s.outgoing},
	}
}

func (s *stubAdapter) TransformRequest(kind domain.InteractionKind, raw provider.RawRequest) (*domain.Request, error) {
	return &domain.Request{Kind: kind}, nil
}

func (s *stubAdapter) BuildResponse(ctx context.Context, req *domain.Request, resp domain.Response) (provider.WireResponse, error) {
	return provider.WireResponse{}, nil
}

func (s *stubAdapter) SendSMS(ctx context.Context, from, to, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.sendErrs[to]; ok {
		return err
	}
	s.sent = append(s.sent, to)
	return nil
}

func (s *stubAdapter) ProcessCallback(ctx context.Context, req *domain.Request) error {
	return nil
}

func (s *stubAdapter) Numbers(ctx context.Context) (provider.Inventory, error) {
	return s.inventory, nil
}

func (s *stubAdapter) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func newTestDispatcher() *Dispatcher {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister_DuplicateKey(t *testing.T) {
	d := newTestDispatcher()

	require.NoError(t, d.Register("twilio", &stubAdapter{name: "twilio"}, false))
	err := d.Register("twilio", &stubAdapter{name: "twilio-again"}, false)

	var dup *domain.DuplicateKeyError
	require.Error(t, err)
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "twilio", dup.Key)
}

func TestRegister_LastDefaultWins(t *testing.T) {
	d := newTestDispatcher()
	first := &stubAdapter{name: "first"}
	second := &stubAdapter{name: "second"}

	require.NoError(t, d.Register("first", first, true))
	require.NoError(t, d.Register("second", second, true))

	def, err := d.Default()
	require.NoError(t, err)
	assert.Equal(t, "second", def.Identity().Name)
}

func TestResolve(t *testing.T) {
	d := newTestDispatcher()
	twilio := &stubAdapter{name: "twilio"}
	require.NoError(t, d.Register("twilio", twilio, true))

	t.Run("by key", func(t *testing.T) {
		a, err := d.Resolve("twilio")
		require.NoError(t, err)
		assert.Equal(t, "twilio", a.Identity().Name)
	})

	t.Run("empty key falls back to default", func(t *testing.T) {
		a, err := d.Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "twilio", a.Identity().Name)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := d.Resolve("nexmo")
		var unknown *domain.UnknownProviderError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "nexmo", unknown.Key)
	})
}

func TestDefault_NoneConfigured(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.Register("twilio", &stubAdapter{name: "twilio"}, false))

	_, err := d.Default()
	var unknown *domain.UnknownProviderError
	require.ErrorAs(t, err, &unknown)
}

func TestNumbers_UnionInRegistrationOrderWithDuplicates(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.Register("a", &stubAdapter{
		name:      "a",
		inventory: provider.Inventory{Voice: []string{"+15005550001", "+15005550002"}, SMS: []string{"+15005550001"}},
	}, true))
	require.NoError(t, d.Register("b", &stubAdapter{
		name:      "b",
		inventory: provider.Inventory{Voice: []string{"+15005550002"}, SMS: []string{"+15005550009"}},
	}, false))

	voice, err := d.VoiceNumbers(context.Background())
	require.NoError(t, err)
	// Cross-carrier duplicates are preserved, not resolved.
	assert.Equal(t, []string{"+15005550001", "+15005550002", "+15005550002"}, voice)

	sms, err := d.SMSNumbers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"+15005550001", "+15005550009"}, sms)
}

func TestSendSMS_PrefersAdapterOwningFromNumber(t *testing.T) {
	d := newTestDispatcher()
	first := &stubAdapter{name: "first", outgoing: true, inventory: provider.Inventory{SMS: []string{"+15005550001"}}}
	owner := &stubAdapter{name: "owner", outgoing: true, inventory: provider.Inventory{SMS: []string{"+15005550002"}}}
	require.NoError(t, d.Register("first", first, true))
	require.NoError(t, d.Register("owner", owner, false))

	require.NoError(t, d.SendSMS(context.Background(), "+15005550002", "+14125550001", "hi"))

	assert.Empty(t, first.sentTo())
	assert.Equal(t, []string{"+14125550001"}, owner.sentTo())
}

func TestSendSMS_FallsBackToFirstOutgoingAdapter(t *testing.T) {
	d := newTestDispatcher()
	voiceOnly := &stubAdapter{name: "voice-only", outgoing: false}
	outgoing := &stubAdapter{name: "outgoing", outgoing: true}
	require.NoError(t, d.Register("voice-only", voiceOnly, true))
	require.NoError(t, d.Register("outgoing", outgoing, false))

	require.NoError(t, d.SendSMS(context.Background(), "+15005559999", "+14125550001", "hi"))
	assert.Equal(t, []string{"+14125550001"}, outgoing.sentTo())
}

func TestSendSMS_NoOutgoingAdapter(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.Register("voice-only", &stubAdapter{name: "voice-only"}, true))

	err := d.SendSMS(context.Background(), "+15005559999", "+14125550001", "hi")
	var unknown *domain.UnknownProviderError
	require.ErrorAs(t, err, &unknown)
}

func TestBroadcast_EveryDestinationGetsAnOutcome(t *testing.T) {
	d := newTestDispatcher()
	carrier := &stubAdapter{
		name:     "carrier",
		outgoing: true,
		sendErrs: map[string]error{
			"+14125550002": &domain.DeliveryError{Provider: "carrier", To: "+14125550002", Status: "rejected", Err: errors.New("blocked")},
		},
	}
	require.NoError(t, d.Register("carrier", carrier, true))

	destinations := []string{"+14125550001", "+14125550002", "+14125550003", "+14125550004"}
	result := d.Broadcast(context.Background(), "+15005550006", "rally tomorrow", destinations)

	// Outcomes are positional; one per destination regardless of failures.
	require.Len(t, result.Outcomes, len(destinations))
	for i, outcome := range result.Outcomes {
		assert.Equal(t, destinations[i], outcome.To)
	}

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "+14125550002", failed[0].To)
	assert.Equal(t, 3, result.Succeeded())

	// The failure did not abort the remaining sends.
	assert.ElementsMatch(t, []string{"+14125550001", "+14125550003", "+14125550004"}, carrier.sentTo())
}

func TestBroadcast_EmptyDestinations(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.Register("carrier", &stubAdapter{name: "carrier", outgoing: true}, true))

	result := d.Broadcast(context.Background(), "+15005550006", "hello", nil)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 0, result.Succeeded())
}
