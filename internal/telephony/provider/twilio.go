package provider

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// terminal Twilio status values that mark a payload as a delivery/status
// report rather than a live interaction.
var twilioCallbackStatuses = map[string]bool{
	"queued":      true,
	"sent":        true,
	"delivered":   true,
	"undelivered": true,
	"failed":      true,
	"completed":   true,
	"busy":        true,
	"no-answer":   true,
	"canceled":    true,
}

// TwilioAdapter fronts Twilio's voice and SMS APIs. Inbound webhooks arrive
// form-encoded; replies are TwiML documents.
type TwilioAdapter struct {
	logger        *slog.Logger
	httpClient    *http.Client
	accountSID    string
	authToken     string
	defaultRegion string
	inventory     Inventory
}

// NewTwilioAdapter creates a TwilioAdapter. httpClient may be nil, in which
// case a client with no internal timeout is used; cancellation comes from ctx.
func NewTwilioAdapter(logger *slog.Logger, accountSID, authToken, defaultRegion string, inventory Inventory, httpClient *http.Client) *TwilioAdapter {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &TwilioAdapter{
		logger:        logger.With("provider", "twilio"),
		httpClient:    httpClient,
		accountSID:    accountSID,
		authToken:     authToken,
		defaultRegion: defaultRegion,
		inventory:     inventory,
	}
}

func (a *TwilioAdapter) Identity() Identity {
	return Identity{
		Name:         "twilio",
		Capabilities: Capabilities{Voice: true, SMS: true, Outgoing: true},
	}
}

func (a *TwilioAdapter) TransformRequest(kind domain.InteractionKind, raw RawRequest) (*domain.Request, error) {
	from := raw.Get("From")
	to := raw.Get("To")
	if from == "" || to == "" {
		return nil, &domain.MalformedPayloadError{Provider: "twilio", Reason: "missing From or To field"}
	}

	normFrom, err := domain.NormalizePhone(from, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "twilio", Reason: "unparseable From number", Err: err}
	}
	normTo, err := domain.NormalizePhone(to, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "twilio", Reason: "unparseable To number", Err: err}
	}

	return &domain.Request{
		From:       normFrom,
		To:         normTo,
		Body:       raw.Get("Body"),
		Kind:       kind,
		IsCallback: twilioIsCallback(raw),
		Raw:        encodeParams(raw.Params),
	}, nil
}

// twilioIsCallback reports whether the payload is a status report. Live
// inbound messages carry SmsStatus=received; live calls carry CallStatus
// values like "ringing"/"in-progress". Everything terminal is a callback, as
// is any payload with the MessageStatus field Twilio only sets on callbacks.
func twilioIsCallback(raw RawRequest) bool {
	if raw.Get("MessageStatus") != "" {
		return true
	}
	if s := raw.Get("SmsStatus"); s != "" && twilioCallbackStatuses[strings.ToLower(s)] {
		return true
	}
	if s := raw.Get("CallStatus"); s != "" && twilioCallbackStatuses[strings.ToLower(s)] {
		return true
	}
	return false
}

func (a *TwilioAdapter) BuildResponse(ctx context.Context, req *domain.Request, resp domain.Response) (WireResponse, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<Response>")
	for _, d := range resp {
		switch d.Kind {
		case domain.DirectiveReject:
			buf.WriteString("<Reject/>")
		case domain.DirectiveSay:
			buf.WriteString("<Say>")
			_ = xml.EscapeText(&buf, []byte(d.Text))
			buf.WriteString("</Say>")
		case domain.DirectivePlay:
			buf.WriteString("<Play>")
			_ = xml.EscapeText(&buf, []byte(d.URL))
			buf.WriteString("</Play>")
		case domain.DirectiveRedirect:
			buf.WriteString("<Redirect>")
			_ = xml.EscapeText(&buf, []byte(d.URL))
			buf.WriteString("</Redirect>")
		case domain.DirectiveSendSMS:
			buf.WriteString("<Sms>")
			_ = xml.EscapeText(&buf, []byte(d.Text))
			buf.WriteString("</Sms>")
		}
	}
	buf.WriteString("</Response>")

	return WireResponse{ContentType: "text/xml", Body: buf.Bytes()}, nil
}

func (a *TwilioAdapter) SendSMS(ctx context.Context, from, to, message string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioAPIBase, a.accountSID)

	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", message)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating Twilio send request: %w", err)
	}
	httpReq.SetBasicAuth(a.accountSID, a.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return &domain.DeliveryError{Provider: "twilio", To: to, Status: "transport_error", Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		a.logger.WarnContext(ctx, "Twilio send rejected", "status_code", httpResp.StatusCode, "to", to, "body", string(body))
		return &domain.DeliveryError{
			Provider: "twilio",
			To:       to,
			Status:   fmt.Sprintf("http_%d", httpResp.StatusCode),
			Err:      fmt.Errorf("twilio responded %d", httpResp.StatusCode),
		}
	}

	a.logger.InfoContext(ctx, "SMS submitted to Twilio", "from", from, "to", to)
	return nil
}

func (a *TwilioAdapter) ProcessCallback(ctx context.Context, req *domain.Request) error {
	a.logger.InfoContext(ctx, "Twilio delivery callback", "from", req.From, "to", req.To)
	return nil
}

func (a *TwilioAdapter) Numbers(ctx context.Context) (Inventory, error) {
	return a.inventory, nil
}

// encodeParams serializes webhook params for the Request.Raw diagnostics field.
func encodeParams(params map[string]string) string {
	vals := url.Values{}
	for k, v := range params {
		vals.Set(k, v)
	}
	return vals.Encode()
}
