package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ringbridge/ringbridge/internal/campaign/domain"
)

// SMSSender is the outbound-send collaborator; the composite dispatcher
// satisfies it.
type SMSSender interface {
	SendSMS(ctx context.Context, from, to, message string) error
}

// IntroductoryResponse picks the first-contact auto-reply for a ringer from an
// ordered rule list with a mandatory fallback. Rules are evaluated in
// insertion order, first match wins. Selection is pure; SendMessage is the
// only method with a side effect.
type IntroductoryResponse struct {
	defaultText string
	rules       []domain.FilteredMessage
	sender      SMSSender
	logger      *slog.Logger
}

// NewIntroductoryResponse creates a selector with zero rules and the given
// fallback text.
func NewIntroductoryResponse(defaultText string, sender SMSSender, logger *slog.Logger) *IntroductoryResponse {
	return &IntroductoryResponse{
		defaultText: defaultText,
		sender:      sender,
		logger:      logger.With("component", "introductory_response"),
	}
}

// IntroductoryResponseFromConfig builds a selector from a campaign's stored
// configuration, preserving rule order.
func IntroductoryResponseFromConfig(cfg *domain.IntroductoryResponseConfig, sender SMSSender, logger *slog.Logger) *IntroductoryResponse {
	ir := NewIntroductoryResponse(cfg.DefaultText, sender, logger)
	for _, m := range cfg.Messages {
		ir.AddMessage(m.Filter, m.Text)
	}
	return ir
}

// AddMessage appends a rule to the end of the ordered rule list. Rules are not
// de-duplicated; a later rule shadowed by an identical earlier filter is
// simply unreachable.
func (ir *IntroductoryResponse) AddMessage(filter domain.Filter, text string) {
	ir.rules = append(ir.rules, domain.FilteredMessage{Filter: filter, Text: text})
}

// SelectMessage returns the text of the first rule whose filter matches the
// ringer, or the default text when none match.
func (ir *IntroductoryResponse) SelectMessage(ringer *domain.Ringer) string {
	for _, rule := range ir.rules {
		if rule.Filter.MatchesRinger(ringer) {
			return rule.Text
		}
	}
	return ir.defaultText
}

// SendMessage selects the reply for the ringer and sends it as an SMS from
// the given number.
func (ir *IntroductoryResponse) SendMessage(ctx context.Context, from string, to *domain.Ringer) error {
	message := ir.SelectMessage(to)
	if err := ir.sender.SendSMS(ctx, from, to.PhoneNumber, message); err != nil {
		return fmt.Errorf("sending introductory message to %s: %w", to.PhoneNumber, err)
	}
	ir.logger.InfoContext(ctx, "Introductory message sent", "from", from, "to", to.PhoneNumber)
	return nil
}
