package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
)

func newTestNexmoAdapter(rt roundTripperFunc) *NexmoAdapter {
	var client *http.Client
	if rt != nil {
		client = &http.Client{Transport: rt}
	}
	inv := Inventory{Voice: []string{"+12125550002"}, SMS: []string{"+12125550002"}}
	return NewNexmoAdapter(providerTestLogger(), "key", "secret", "US", inv, client)
}

func TestNexmoTransformRequest(t *testing.T) {
	a := newTestNexmoAdapter(nil)

	req, err := a.TransformRequest(domain.KindSMS, RawRequest{Params: map[string]string{
		"msisdn": "14125550001",
		"to":     "12125550002",
		"text":   "JOIN",
	}})
	require.NoError(t, err)
	assert.Equal(t, "+14125550001", req.From)
	assert.Equal(t, "+12125550002", req.To)
	assert.Equal(t, "JOIN", req.Body)
	assert.False(t, req.IsCallback)
}

func TestNexmoTransformRequest_DeliveryReceipt(t *testing.T) {
	a := newTestNexmoAdapter(nil)

	req, err := a.TransformRequest(domain.KindSMS, RawRequest{Params: map[string]string{
		"msisdn":    "14125550001",
		"to":        "12125550002",
		"status":    "delivered",
		"messageId": "0A0000001234567B",
	}})
	require.NoError(t, err)
	assert.True(t, req.IsCallback)
}

func TestNexmoTransformRequest_Malformed(t *testing.T) {
	a := newTestNexmoAdapter(nil)

	_, err := a.TransformRequest(domain.KindSMS, RawRequest{Params: map[string]string{"to": "12125550002"}})
	var malformed *domain.MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "nexmo", malformed.Provider)
}

func TestNexmoBuildResponse(t *testing.T) {
	req := &domain.Request{From: "+14125550001", To: "+12125550002", Kind: domain.KindVoice}

	t.Run("say and play render as NCCO actions", func(t *testing.T) {
		a := newTestNexmoAdapter(nil)
		wire, err := a.BuildResponse(context.Background(), req, domain.Response{
			domain.Say("thank you"),
			domain.Play("https://cdn.example.org/jingle.mp3"),
		})
		require.NoError(t, err)
		assert.Equal(t, "application/json", wire.ContentType)

		var actions []map[string]any
		require.NoError(t, json.Unmarshal(wire.Body, &actions))
		require.Len(t, actions, 2)
		assert.Equal(t, "talk", actions[0]["action"])
		assert.Equal(t, "thank you", actions[0]["text"])
		assert.Equal(t, "stream", actions[1]["action"])
	})

	t.Run("reject renders as an empty document", func(t *testing.T) {
		a := newTestNexmoAdapter(nil)
		wire, err := a.BuildResponse(context.Background(), req, domain.Response{domain.Reject()})
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(wire.Body))
	})

	t.Run("send_sms goes out through the REST API toward the caller", func(t *testing.T) {
		var sendBody nexmoSendRequest
		a := newTestNexmoAdapter(func(r *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &sendBody))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"messages":[{"status":"0"}]}`)),
			}, nil
		})

		_, err := a.BuildResponse(context.Background(), req, domain.Response{domain.SendSMS("welcome aboard")})
		require.NoError(t, err)
		// Reply goes from the dialed platform number back to the supporter.
		assert.Equal(t, "+12125550002", sendBody.From)
		assert.Equal(t, "+14125550001", sendBody.To)
		assert.Equal(t, "welcome aboard", sendBody.Text)
	})
}

func TestNexmoSendSMS_PerMessageStatus(t *testing.T) {
	t.Run("status zero is success", func(t *testing.T) {
		a := newTestNexmoAdapter(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"messages":[{"status":"0"}]}`)),
			}, nil
		})
		require.NoError(t, a.SendSMS(context.Background(), "+12125550002", "+14125550001", "hi"))
	})

	t.Run("non-zero status inside a 200 is a delivery error", func(t *testing.T) {
		a := newTestNexmoAdapter(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"messages":[{"status":"4","error-text":"Bad Credentials"}]}`)),
			}, nil
		})

		err := a.SendSMS(context.Background(), "+12125550002", "+14125550001", "hi")
		var delivery *domain.DeliveryError
		require.ErrorAs(t, err, &delivery)
		assert.Equal(t, "status_4", delivery.Status)
	})
}
