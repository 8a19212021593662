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

func newTestTropoAdapter(rt roundTripperFunc) *TropoAdapter {
	var client *http.Client
	if rt != nil {
		client = &http.Client{Transport: rt}
	}
	inv := Inventory{Voice: []string{"+12125550004"}, SMS: []string{"+12125550004"}}
	return NewTropoAdapter(providerTestLogger(), "token", "US", inv, client)
}

func TestTropoTransformRequest(t *testing.T) {
	a := newTestTropoAdapter(nil)

	t.Run("live session", func(t *testing.T) {
		body := `{"session":{"from":{"id":"+14125550001"},"to":{"id":"+12125550004"},"initialText":"JOIN"}}`
		req, err := a.TransformRequest(domain.KindSMS, RawRequest{Body: []byte(body)})
		require.NoError(t, err)
		assert.Equal(t, "+14125550001", req.From)
		assert.Equal(t, "+12125550004", req.To)
		assert.Equal(t, "JOIN", req.Body)
		assert.False(t, req.IsCallback)
	})

	t.Run("result document is a callback", func(t *testing.T) {
		body := `{"result":{"sessionId":"abc123","state":"DISCONNECTED"}}`
		req, err := a.TransformRequest(domain.KindVoice, RawRequest{Body: []byte(body)})
		require.NoError(t, err)
		assert.True(t, req.IsCallback)
		assert.Empty(t, req.From)
	})

	t.Run("malformed payloads", func(t *testing.T) {
		testCases := []struct {
			name string
			body string
		}{
			{"invalid JSON", `{`},
			{"neither session nor result", `{}`},
			{"session without parties", `{"session":{"initialText":"JOIN"}}`},
			{"unparseable from party", `{"session":{"from":{"id":"garbage"},"to":{"id":"+12125550004"}}}`},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := a.TransformRequest(domain.KindSMS, RawRequest{Body: []byte(tc.body)})
				var malformed *domain.MalformedPayloadError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, "tropo", malformed.Provider)
			})
		}
	})
}

func TestTropoBuildResponse(t *testing.T) {
	a := newTestTropoAdapter(nil)
	req := &domain.Request{From: "+14125550001", To: "+12125550004", Kind: domain.KindVoice}

	wire, err := a.BuildResponse(context.Background(), req, domain.Response{
		domain.Say("thank you"),
		domain.SendSMS("welcome aboard"),
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", wire.ContentType)

	var doc struct {
		Tropo []map[string]any `json:"tropo"`
	}
	require.NoError(t, json.Unmarshal(wire.Body, &doc))
	require.Len(t, doc.Tropo, 2)

	say := doc.Tropo[0]["say"].(map[string]any)
	assert.Equal(t, "thank you", say["value"])

	// SMS replies address the original caller.
	message := doc.Tropo[1]["message"].(map[string]any)
	assert.Equal(t, "+14125550001", message["to"])
	assert.Equal(t, "SMS", message["network"])
}

func TestTropoSendSMS(t *testing.T) {
	t.Run("launches a messaging session", func(t *testing.T) {
		var sent tropoSessionRequest
		a := newTestTropoAdapter(func(r *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &sent))
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"success":true}`))}, nil
		})

		require.NoError(t, a.SendSMS(context.Background(), "+12125550004", "+14125550001", "rally tomorrow"))
		assert.Equal(t, "token", sent.Token)
		assert.Equal(t, "+14125550001", sent.To)
		assert.Equal(t, "rally tomorrow", sent.Message)
	})

	t.Run("rejected launch", func(t *testing.T) {
		a := newTestTropoAdapter(func(r *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusForbidden, Body: io.NopCloser(strings.NewReader(`{"success":false}`))}, nil
		})

		err := a.SendSMS(context.Background(), "+12125550004", "+14125550001", "rally tomorrow")
		var delivery *domain.DeliveryError
		require.ErrorAs(t, err, &delivery)
		assert.Equal(t, "http_403", delivery.Status)
	})
}
