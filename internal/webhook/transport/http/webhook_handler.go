package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	teldomain "github.com/ringbridge/ringbridge/internal/telephony/domain"
	"github.com/ringbridge/ringbridge/internal/telephony/provider"
)

const maxWebhookBodySize = 1 << 20 // 1 MB

// InboundPipeline processes one inbound webhook; *app.Pipeline satisfies it.
type InboundPipeline interface {
	Handle(ctx context.Context, providerKey string, kind teldomain.InteractionKind, raw provider.RawRequest) (provider.WireResponse, error)
}

// WebhookHandler exposes the carrier-facing webhook routes:
// GET|POST /voiceresponse/{provider} and GET|POST /smsresponse/{provider}.
type WebhookHandler struct {
	pipeline InboundPipeline
	logger   *slog.Logger
}

func NewWebhookHandler(pipeline InboundPipeline, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		pipeline: pipeline,
		logger:   logger.With("handler", "webhook"),
	}
}

// RegisterRoutes mounts the webhook routes on the router. Carriers differ on
// whether they deliver webhooks as GET or POST, so both are accepted.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/voiceresponse/{provider}", h.handle(teldomain.KindVoice))
	r.Post("/voiceresponse/{provider}", h.handle(teldomain.KindVoice))
	r.Get("/smsresponse/{provider}", h.handle(teldomain.KindSMS))
	r.Post("/smsresponse/{provider}", h.handle(teldomain.KindSMS))
}

func (h *WebhookHandler) handle(kind teldomain.InteractionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx), "kind", string(kind))

		providerKey := chi.URLParam(r, "provider")
		if providerKey == "" {
			logger.WarnContext(ctx, "Provider key missing in webhook URL")
			http.Error(w, "Provider is required", http.StatusBadRequest)
			return
		}
		logger = logger.With("provider", providerKey)

		raw, err := decodeRawRequest(w, r)
		if err != nil {
			logger.WarnContext(ctx, "Failed to read webhook payload", "error", err)
			http.Error(w, "Unreadable payload", http.StatusBadRequest)
			return
		}

		wire, err := h.pipeline.Handle(ctx, providerKey, kind, raw)
		if err != nil {
			h.writeError(ctx, w, logger, err)
			return
		}

		w.Header().Set("Content-Type", wire.ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(wire.Body)
	}
}

// writeError maps pipeline errors onto HTTP statuses. Parsing and routing
// problems are the caller's fault and never crash the process.
func (h *WebhookHandler) writeError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	var unknownProvider *teldomain.UnknownProviderError
	var malformed *teldomain.MalformedPayloadError

	switch {
	case errors.As(err, &unknownProvider):
		logger.WarnContext(ctx, "Webhook for unknown provider", "error", err)
		http.Error(w, "Unknown provider", http.StatusNotFound)
	case errors.As(err, &malformed):
		logger.WarnContext(ctx, "Malformed webhook payload", "error", err)
		http.Error(w, "Malformed payload", http.StatusBadRequest)
	default:
		logger.ErrorContext(ctx, "Webhook processing failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeRawRequest flattens query and form parameters and retains the raw
// body for JSON carriers.
func decodeRawRequest(w http.ResponseWriter, r *http.Request) (provider.RawRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return provider.RawRequest{}, err
	}
	defer r.Body.Close()

	params := map[string]string{}
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			params[key] = vals[0]
		}
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return provider.RawRequest{}, err
		}
		for key, vals := range form {
			if len(vals) > 0 {
				params[key] = vals[0]
			}
		}
	}

	return provider.RawRequest{Params: params, Body: body}, nil
}
