package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
)

func newTestKooKooAdapter() *KooKooAdapter {
	inv := Inventory{Voice: []string{"+919820012345"}}
	return NewKooKooAdapter(providerTestLogger(), "key", "IN", inv, nil)
}

func TestKooKooIsVoiceOnly(t *testing.T) {
	a := newTestKooKooAdapter()
	caps := a.Identity().Capabilities
	assert.True(t, caps.Voice)
	assert.False(t, caps.SMS)
}

func TestKooKooTransformRequest(t *testing.T) {
	a := newTestKooKooAdapter()

	t.Run("new call", func(t *testing.T) {
		req, err := a.TransformRequest(domain.KindVoice, RawRequest{Params: map[string]string{
			"cid":           "9820098765",
			"called_number": "+919820012345",
			"event":         "NewCall",
		}})
		require.NoError(t, err)
		assert.Equal(t, "+919820098765", req.From)
		assert.False(t, req.IsCallback)
	})

	t.Run("hangup event is a callback", func(t *testing.T) {
		req, err := a.TransformRequest(domain.KindVoice, RawRequest{Params: map[string]string{
			"cid":           "9820098765",
			"called_number": "+919820012345",
			"event":         "Hangup",
		}})
		require.NoError(t, err)
		assert.True(t, req.IsCallback)
	})
}

func TestKooKooBuildResponse(t *testing.T) {
	a := newTestKooKooAdapter()
	req := &domain.Request{From: "+919820098765", To: "+919820012345", Kind: domain.KindVoice}

	wire, err := a.BuildResponse(context.Background(), req, domain.Response{
		domain.Say("thank you for your missed call"),
		domain.Reject(),
	})
	require.NoError(t, err)
	assert.Equal(t, "text/xml", wire.ContentType)
	assert.Equal(t,
		"<response><playtext>thank you for your missed call</playtext><hangup/></response>",
		string(wire.Body))
}
