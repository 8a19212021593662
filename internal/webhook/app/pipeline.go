package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	campapp "github.com/ringbridge/ringbridge/internal/campaign/app"
	campdomain "github.com/ringbridge/ringbridge/internal/campaign/domain"
	"github.com/ringbridge/ringbridge/internal/telephony/dispatch"
	teldomain "github.com/ringbridge/ringbridge/internal/telephony/domain"
	"github.com/ringbridge/ringbridge/internal/telephony/provider"
)

// RingRecorder records inbound interactions; *campapp.RingService satisfies it.
type RingRecorder interface {
	RecordRing(ctx context.Context, from, to string, kind campdomain.RingKind) (*campapp.RingOutcome, error)
}

// IntroResponder sends first-contact auto-replies; *campapp.IntroService
// satisfies it.
type IntroResponder interface {
	SendIntroductoryReply(ctx context.Context, campaignID uuid.UUID, from string, ringer *campdomain.Ringer) error
}

// Pipeline drives one inbound webhook from raw payload to wire reply. Each
// event is terminal in one of two states: callback acknowledged (empty body,
// no ring) or replied.
type Pipeline struct {
	dispatcher *dispatch.Dispatcher
	rings      RingRecorder
	intros     IntroResponder
	logger     *slog.Logger
}

func NewPipeline(dispatcher *dispatch.Dispatcher, rings RingRecorder, intros IntroResponder, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		dispatcher: dispatcher,
		rings:      rings,
		intros:     intros,
		logger:     logger.With("component", "pipeline"),
	}
}

// Handle processes one inbound webhook event.
func (p *Pipeline) Handle(ctx context.Context, providerKey string, kind teldomain.InteractionKind, raw provider.RawRequest) (provider.WireResponse, error) {
	start := time.Now()
	defer func() {
		webhookProcessingDurationHist.WithLabelValues(providerKey, string(kind)).Observe(time.Since(start).Seconds())
	}()

	adapter, err := p.dispatcher.Resolve(providerKey)
	if err != nil {
		return provider.WireResponse{}, err
	}

	req, err := adapter.TransformRequest(kind, raw)
	if err != nil {
		return provider.WireResponse{}, err
	}
	webhooksReceivedCounter.WithLabelValues(providerKey, string(kind)).Inc()

	if req.IsCallback {
		if err := adapter.ProcessCallback(ctx, req); err != nil {
			return provider.WireResponse{}, err
		}
		webhookCallbacksCounter.WithLabelValues(providerKey).Inc()
		// Callbacks never get a non-empty reply and never create a ring.
		return adapter.BuildResponse(ctx, req, teldomain.Response{})
	}

	outcome, err := p.rings.RecordRing(ctx, req.From, req.To, ringKind(kind))
	if err != nil {
		return provider.WireResponse{}, err
	}

	response := p.buildReply(ctx, req, outcome)
	return adapter.BuildResponse(ctx, req, response)
}

// buildReply chooses the canonical reply for a live interaction. Voice calls
// get the campaign's script, defaulting to Reject so the caller is not
// charged for the missed-call gesture. SMS replies are empty; the first
// inbound SMS from a new supporter additionally triggers the introductory
// message, sent out of band so its failure does not fail the webhook.
func (p *Pipeline) buildReply(ctx context.Context, req *teldomain.Request, outcome *campapp.RingOutcome) teldomain.Response {
	switch req.Kind {
	case teldomain.KindVoice:
		if outcome.Recorded && outcome.Assigned.ScriptKind != campdomain.ScriptNone {
			switch outcome.Assigned.ScriptKind {
			case campdomain.ScriptSay:
				return teldomain.Response{teldomain.Say(outcome.Assigned.ScriptValue)}
			case campdomain.ScriptPlay:
				return teldomain.Response{teldomain.Play(outcome.Assigned.ScriptValue)}
			}
		}
		return teldomain.Response{teldomain.Reject()}
	case teldomain.KindSMS:
		if outcome.Recorded && outcome.NewRinger {
			if err := p.intros.SendIntroductoryReply(ctx, outcome.Assigned.CampaignID, req.To, outcome.Ringer); err != nil {
				p.logger.WarnContext(ctx, "Introductory reply failed",
					"campaign_id", outcome.Assigned.CampaignID, "ringer", outcome.Ringer.PhoneNumber, "error", err)
			}
		}
		return teldomain.Response{}
	default:
		return teldomain.Response{}
	}
}

func ringKind(kind teldomain.InteractionKind) campdomain.RingKind {
	if kind == teldomain.KindVoice {
		return campdomain.RingKindVoice
	}
	return campdomain.RingKindSMS
}
