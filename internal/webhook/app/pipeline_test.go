package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	campapp "github.com/ringbridge/ringbridge/internal/campaign/app"
	campdomain "github.com/ringbridge/ringbridge/internal/campaign/domain"
	"github.com/ringbridge/ringbridge/internal/telephony/dispatch"
	teldomain "github.com/ringbridge/ringbridge/internal/telephony/domain"
	"github.com/ringbridge/ringbridge/internal/telephony/provider"
)

// --- Mocks ---

type MockRingRecorder struct {
	mock.Mock
}

func (m *MockRingRecorder) RecordRing(ctx context.Context, from, to string, kind campdomain.RingKind) (*campapp.RingOutcome, error) {
	args := m.Called(ctx, from, to, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campapp.RingOutcome), args.Error(1)
}

type MockIntroResponder struct {
	mock.Mock
}

func (m *MockIntroResponder) SendIntroductoryReply(ctx context.Context, campaignID uuid.UUID, from string, ringer *campdomain.Ringer) error {
	args := m.Called(ctx, campaignID, from, ringer)
	return args.Error(0)
}

// --- Tests ---

func setupPipelineTest(t *testing.T) (*Pipeline, *MockRingRecorder, *MockIntroResponder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// The logging adapter gives the pipeline a real adapter with no network.
	dispatcher := dispatch.New(logger)
	adapter := provider.NewLoggingAdapter(logger, "US", []string{"+12125550003"})
	require.NoError(t, dispatcher.Register("logging", adapter, true))

	rings := new(MockRingRecorder)
	intros := new(MockIntroResponder)
	return NewPipeline(dispatcher, rings, intros, logger), rings, intros
}

func webhookParams(extra map[string]string) provider.RawRequest {
	params := map[string]string{"from": "+14125550001", "to": "+12125550003"}
	for k, v := range extra {
		params[k] = v
	}
	return provider.RawRequest{Params: params}
}

func recordedOutcome(newRinger bool, script campdomain.ScriptKind, scriptValue string) *campapp.RingOutcome {
	ringer := campdomain.NewRinger("+14125550001")
	return &campapp.RingOutcome{
		Recorded:  true,
		NewRinger: newRinger,
		Assigned: &campdomain.AssignedNumber{
			ID:          uuid.New(),
			CampaignID:  uuid.New(),
			PhoneNumber: "+12125550003",
			ScriptKind:  script,
			ScriptValue: scriptValue,
		},
		Ringer: ringer,
	}
}

func TestPipeline_UnknownProvider(t *testing.T) {
	pipeline, _, _ := setupPipelineTest(t)

	_, err := pipeline.Handle(context.Background(), "no-such-carrier", teldomain.KindVoice, webhookParams(nil))

	var unknown *teldomain.UnknownProviderError
	require.ErrorAs(t, err, &unknown)
}

func TestPipeline_MalformedPayload(t *testing.T) {
	pipeline, rings, _ := setupPipelineTest(t)

	_, err := pipeline.Handle(context.Background(), "logging", teldomain.KindVoice,
		provider.RawRequest{Params: map[string]string{"to": "+12125550003"}})

	var malformed *teldomain.MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
	rings.AssertNotCalled(t, "RecordRing", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_CallbackNeverCreatesARing(t *testing.T) {
	pipeline, rings, _ := setupPipelineTest(t)

	wire, err := pipeline.Handle(context.Background(), "logging", teldomain.KindSMS,
		webhookParams(map[string]string{"callback": "true"}))

	require.NoError(t, err)
	assert.Empty(t, wire.Body)
	rings.AssertNotCalled(t, "RecordRing", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_VoiceCallDefaultsToReject(t *testing.T) {
	pipeline, rings, _ := setupPipelineTest(t)
	rings.On("RecordRing", mock.Anything, "+14125550001", "+12125550003", campdomain.RingKindVoice).
		Return(recordedOutcome(false, campdomain.ScriptNone, ""), nil)

	wire, err := pipeline.Handle(context.Background(), "logging", teldomain.KindVoice, webhookParams(nil))

	require.NoError(t, err)
	assert.Equal(t, "reject", string(wire.Body))
	rings.AssertExpectations(t)
}

func TestPipeline_VoiceCallWithSayScript(t *testing.T) {
	pipeline, rings, _ := setupPipelineTest(t)
	rings.On("RecordRing", mock.Anything, mock.Anything, mock.Anything, campdomain.RingKindVoice).
		Return(recordedOutcome(false, campdomain.ScriptSay, "thanks for ringing"), nil)

	wire, err := pipeline.Handle(context.Background(), "logging", teldomain.KindVoice, webhookParams(nil))

	require.NoError(t, err)
	assert.Equal(t, "say:thanks for ringing", string(wire.Body))
}

func TestPipeline_VoiceCallWithPlayScript(t *testing.T) {
	pipeline, rings, _ := setupPipelineTest(t)
	rings.On("RecordRing", mock.Anything, mock.Anything, mock.Anything, campdomain.RingKindVoice).
		Return(recordedOutcome(false, campdomain.ScriptPlay, "https://cdn.example.org/thanks.mp3"), nil)

	wire, err := pipeline.Handle(context.Background(), "logging", teldomain.KindVoice, webhookParams(nil))

	require.NoError(t, err)
	assert.Equal(t, "play:https://cdn.example.org/thanks.mp3", string(wire.Body))
}

func TestPipeline_UnassignedNumberStillRejectsTheCall(t *testing.T) {
	pipeline, rings, _ := setupPipelineTest(t)
	rings.On("RecordRing", mock.Anything, mock.Anything, mock.Anything, campdomain.RingKindVoice).
		Return(&campapp.RingOutcome{Recorded: false}, nil)

	wire, err := pipeline.Handle(context.Background(), "logging", teldomain.KindVoice, webhookParams(nil))

	require.NoError(t, err)
	assert.Equal(t, "reject", string(wire.Body))
}

func TestPipeline_FirstSMSTriggersIntroductoryReply(t *testing.T) {
	pipeline, rings, intros := setupPipelineTest(t)
	outcome := recordedOutcome(true, campdomain.ScriptNone, "")
	rings.On("RecordRing", mock.Anything, mock.Anything, mock.Anything, campdomain.RingKindSMS).
		Return(outcome, nil)
	intros.On("SendIntroductoryReply", mock.Anything, outcome.Assigned.CampaignID, "+12125550003", outcome.Ringer).
		Return(nil)

	wire, err := pipeline.Handle(context.Background(), "logging", teldomain.KindSMS, webhookParams(nil))

	require.NoError(t, err)
	assert.Empty(t, wire.Body)
	intros.AssertExpectations(t)
}

func TestPipeline_RepeatSMSSendsNoIntroduction(t *testing.T) {
	pipeline, rings, intros := setupPipelineTest(t)
	rings.On("RecordRing", mock.Anything, mock.Anything, mock.Anything, campdomain.RingKindSMS).
		Return(recordedOutcome(false, campdomain.ScriptNone, ""), nil)

	_, err := pipeline.Handle(context.Background(), "logging", teldomain.KindSMS, webhookParams(nil))

	require.NoError(t, err)
	intros.AssertNotCalled(t, "SendIntroductoryReply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_IntroductoryReplyFailureDoesNotFailTheWebhook(t *testing.T) {
	pipeline, rings, intros := setupPipelineTest(t)
	rings.On("RecordRing", mock.Anything, mock.Anything, mock.Anything, campdomain.RingKindSMS).
		Return(recordedOutcome(true, campdomain.ScriptNone, ""), nil)
	intros.On("SendIntroductoryReply", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("carrier down"))

	wire, err := pipeline.Handle(context.Background(), "logging", teldomain.KindSMS, webhookParams(nil))

	require.NoError(t, err)
	assert.Empty(t, wire.Body)
}

func TestPipeline_RecordingFailureIsFatal(t *testing.T) {
	pipeline, rings, _ := setupPipelineTest(t)
	rings.On("RecordRing", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))

	_, err := pipeline.Handle(context.Background(), "logging", teldomain.KindVoice, webhookParams(nil))
	require.Error(t, err)
}
