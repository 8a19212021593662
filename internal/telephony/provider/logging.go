package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
)

// LoggingAdapter is a development-only carrier: it performs no network I/O,
// echoes what it is asked to do through the logger, and reports a fixed
// configured inventory. It exists to exercise the dispatcher and selector
// without live carrier credentials.
type LoggingAdapter struct {
	logger        *slog.Logger
	defaultRegion string
	numbers       []string
}

// NewLoggingAdapter creates a LoggingAdapter whose voice and SMS inventories
// are both the given numbers.
func NewLoggingAdapter(logger *slog.Logger, defaultRegion string, numbers []string) *LoggingAdapter {
	return &LoggingAdapter{
		logger:        logger.With("provider", "logging"),
		defaultRegion: defaultRegion,
		numbers:       numbers,
	}
}

func (a *LoggingAdapter) Identity() Identity {
	return Identity{
		Name:         "logging",
		Capabilities: Capabilities{Voice: true, SMS: true, Outgoing: true},
	}
}

func (a *LoggingAdapter) TransformRequest(kind domain.InteractionKind, raw RawRequest) (*domain.Request, error) {
	from := raw.Get("from")
	to := raw.Get("to")
	if from == "" || to == "" {
		return nil, &domain.MalformedPayloadError{Provider: "logging", Reason: "missing from or to field"}
	}

	normFrom, err := domain.NormalizePhone(from, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "logging", Reason: "unparseable from number", Err: err}
	}
	normTo, err := domain.NormalizePhone(to, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "logging", Reason: "unparseable to number", Err: err}
	}

	return &domain.Request{
		From:       normFrom,
		To:         normTo,
		Body:       raw.Get("body"),
		Kind:       kind,
		IsCallback: raw.Get("callback") == "true",
		Raw:        encodeParams(raw.Params),
	}, nil
}

func (a *LoggingAdapter) BuildResponse(ctx context.Context, req *domain.Request, resp domain.Response) (WireResponse, error) {
	parts := make([]string, 0, len(resp))
	for _, d := range resp {
		switch d.Kind {
		case domain.DirectiveReject:
			parts = append(parts, "reject")
		case domain.DirectiveSay:
			parts = append(parts, "say:"+d.Text)
		case domain.DirectivePlay:
			parts = append(parts, "play:"+d.URL)
		case domain.DirectiveRedirect:
			parts = append(parts, "redirect:"+d.URL)
		case domain.DirectiveSendSMS:
			parts = append(parts, "sendsms:"+d.Text)
		}
	}

	rendered := strings.Join(parts, "\n")
	a.logger.InfoContext(ctx, "Built response", "to", req.To, "directives", len(resp), "body", rendered)
	return WireResponse{ContentType: "text/plain", Body: []byte(rendered)}, nil
}

func (a *LoggingAdapter) SendSMS(ctx context.Context, from, to, message string) error {
	a.logger.InfoContext(ctx, "Would send SMS", "from", from, "to", to, "message", message)
	return nil
}

func (a *LoggingAdapter) ProcessCallback(ctx context.Context, req *domain.Request) error {
	a.logger.InfoContext(ctx, "Received callback", "raw", req.Raw)
	return nil
}

func (a *LoggingAdapter) Numbers(ctx context.Context) (Inventory, error) {
	return Inventory{Voice: a.numbers, SMS: a.numbers}, nil
}

var _ Adapter = (*LoggingAdapter)(nil)

// String implements fmt.Stringer for debug output.
func (a *LoggingAdapter) String() string {
	return fmt.Sprintf("LoggingAdapter(%d numbers)", len(a.numbers))
}
