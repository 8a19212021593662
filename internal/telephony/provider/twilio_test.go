package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
)

// roundTripperFunc lets tests intercept adapter HTTP calls without a server.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func providerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTwilioAdapter(rt roundTripperFunc) *TwilioAdapter {
	var client *http.Client
	if rt != nil {
		client = &http.Client{Transport: rt}
	}
	inv := Inventory{Voice: []string{"+12125550001"}, SMS: []string{"+12125550001"}}
	return NewTwilioAdapter(providerTestLogger(), "AC123", "secret", "US", inv, client)
}

func TestTwilioTransformRequest(t *testing.T) {
	a := newTestTwilioAdapter(nil)

	raw := RawRequest{Params: map[string]string{
		"From":      "4125550001",
		"To":        "+12125550001",
		"Body":      "JOIN",
		"SmsStatus": "received",
	}}

	req, err := a.TransformRequest(domain.KindSMS, raw)
	require.NoError(t, err)
	assert.Equal(t, "+14125550001", req.From)
	assert.Equal(t, "+12125550001", req.To)
	assert.Equal(t, "JOIN", req.Body)
	assert.Equal(t, domain.KindSMS, req.Kind)
	assert.False(t, req.IsCallback)
}

func TestTwilioTransformRequest_Malformed(t *testing.T) {
	a := newTestTwilioAdapter(nil)

	testCases := []struct {
		name   string
		params map[string]string
	}{
		{"missing From", map[string]string{"To": "+12125550001"}},
		{"missing To", map[string]string{"From": "+14125550001"}},
		{"unparseable From", map[string]string{"From": "not-a-number", "To": "+12125550001"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.TransformRequest(domain.KindSMS, RawRequest{Params: tc.params})
			var malformed *domain.MalformedPayloadError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, "twilio", malformed.Provider)
		})
	}
}

func TestTwilioCallbackDetection(t *testing.T) {
	a := newTestTwilioAdapter(nil)

	testCases := []struct {
		name     string
		params   map[string]string
		callback bool
	}{
		{"message status report", map[string]string{"MessageStatus": "delivered"}, true},
		{"terminal sms status", map[string]string{"SmsStatus": "Delivered"}, true},
		{"live inbound sms", map[string]string{"SmsStatus": "received"}, false},
		{"completed call", map[string]string{"CallStatus": "completed"}, true},
		{"live ringing call", map[string]string{"CallStatus": "ringing"}, false},
		{"no status fields", map[string]string{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := map[string]string{"From": "+14125550001", "To": "+12125550001"}
			for k, v := range tc.params {
				params[k] = v
			}
			req, err := a.TransformRequest(domain.KindVoice, RawRequest{Params: params})
			require.NoError(t, err)
			assert.Equal(t, tc.callback, req.IsCallback)
		})
	}
}

func TestTwilioBuildResponse(t *testing.T) {
	a := newTestTwilioAdapter(nil)
	req := &domain.Request{From: "+14125550001", To: "+12125550001", Kind: domain.KindVoice}

	t.Run("directives render in order", func(t *testing.T) {
		wire, err := a.BuildResponse(context.Background(), req, domain.Response{
			domain.Say("thanks & goodbye"),
			domain.Play("https://cdn.example.org/jingle.mp3"),
			domain.Reject(),
		})
		require.NoError(t, err)
		assert.Equal(t, "text/xml", wire.ContentType)

		body := string(wire.Body)
		assert.Contains(t, body, "<Say>thanks &amp; goodbye</Say>")
		assert.Contains(t, body, "<Play>https://cdn.example.org/jingle.mp3</Play>")
		assert.Less(t, strings.Index(body, "<Say>"), strings.Index(body, "<Play>"))
		assert.Less(t, strings.Index(body, "<Play>"), strings.Index(body, "<Reject/>"))
	})

	t.Run("empty response is a valid document", func(t *testing.T) {
		wire, err := a.BuildResponse(context.Background(), req, domain.Response{})
		require.NoError(t, err)
		assert.Contains(t, string(wire.Body), "<Response></Response>")
	})
}

func TestTwilioSendSMS(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var captured *http.Request
		var capturedBody string
		a := newTestTwilioAdapter(func(r *http.Request) (*http.Response, error) {
			captured = r
			body, _ := io.ReadAll(r.Body)
			capturedBody = string(body)
			return &http.Response{StatusCode: http.StatusCreated, Body: io.NopCloser(strings.NewReader(`{}`))}, nil
		})

		err := a.SendSMS(context.Background(), "+12125550001", "+14125550001", "rally tomorrow")
		require.NoError(t, err)

		require.NotNil(t, captured)
		assert.Contains(t, captured.URL.String(), "/Accounts/AC123/Messages.json")
		assert.Contains(t, capturedBody, "From=%2B12125550001")
		assert.Contains(t, capturedBody, "To=%2B14125550001")

		user, pass, ok := captured.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
	})

	t.Run("carrier rejection", func(t *testing.T) {
		a := newTestTwilioAdapter(func(r *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusBadRequest, Body: io.NopCloser(strings.NewReader(`{"message":"invalid to"}`))}, nil
		})

		err := a.SendSMS(context.Background(), "+12125550001", "+14125550001", "rally tomorrow")
		var delivery *domain.DeliveryError
		require.ErrorAs(t, err, &delivery)
		assert.Equal(t, "twilio", delivery.Provider)
		assert.Equal(t, "+14125550001", delivery.To)
		assert.Equal(t, "http_400", delivery.Status)
	})
}
