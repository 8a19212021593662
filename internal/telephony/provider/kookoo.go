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

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
)

const kookooSMSEndpoint = "https://www.kookoo.in/outbound/outbound_sms.php"

// KooKooAdapter fronts the KooKoo telephony platform (India). Inbound events
// arrive as query parameters keyed by an event name; replies are KooKoo XML.
type KooKooAdapter struct {
	logger        *slog.Logger
	httpClient    *http.Client
	apiKey        string
	defaultRegion string
	inventory     Inventory
}

func NewKooKooAdapter(logger *slog.Logger, apiKey, defaultRegion string, inventory Inventory, httpClient *http.Client) *KooKooAdapter {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &KooKooAdapter{
		logger:        logger.With("provider", "kookoo"),
		httpClient:    httpClient,
		apiKey:        apiKey,
		defaultRegion: defaultRegion,
		inventory:     inventory,
	}
}

func (a *KooKooAdapter) Identity() Identity {
	return Identity{
		Name:         "kookoo",
		Capabilities: Capabilities{Voice: true, SMS: false, Outgoing: true},
	}
}

func (a *KooKooAdapter) TransformRequest(kind domain.InteractionKind, raw RawRequest) (*domain.Request, error) {
	from := raw.Get("cid")
	to := raw.Get("called_number")
	if from == "" || to == "" {
		return nil, &domain.MalformedPayloadError{Provider: "kookoo", Reason: "missing cid or called_number field"}
	}

	normFrom, err := domain.NormalizePhone(from, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "kookoo", Reason: "unparseable cid", Err: err}
	}
	normTo, err := domain.NormalizePhone(to, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "kookoo", Reason: "unparseable called_number", Err: err}
	}

	// KooKoo reports call teardown as Hangup/Disconnect events on the same
	// route; only NewCall is a live interaction.
	event := raw.Get("event")
	isCallback := event == "Hangup" || event == "Disconnect" || event == "Record"

	return &domain.Request{
		From:       normFrom,
		To:         normTo,
		Body:       raw.Get("data"),
		Kind:       kind,
		IsCallback: isCallback,
		Raw:        encodeParams(raw.Params),
	}, nil
}

// BuildResponse renders a KooKoo XML response document. KooKoo cannot reject a
// call outright; hangup is the closest supported equivalent. SendSMS has no
// inline form and is dropped to a placeholder comment so the document stays valid.
func (a *KooKooAdapter) BuildResponse(ctx context.Context, req *domain.Request, resp domain.Response) (WireResponse, error) {
	var buf bytes.Buffer
	buf.WriteString("<response>")
	for _, d := range resp {
		switch d.Kind {
		case domain.DirectiveReject:
			buf.WriteString("<hangup/>")
		case domain.DirectiveSay:
			buf.WriteString("<playtext>")
			_ = xml.EscapeText(&buf, []byte(d.Text))
			buf.WriteString("</playtext>")
		case domain.DirectivePlay:
			buf.WriteString("<playaudio>")
			_ = xml.EscapeText(&buf, []byte(d.URL))
			buf.WriteString("</playaudio>")
		case domain.DirectiveRedirect:
			buf.WriteString("<gotourl>")
			_ = xml.EscapeText(&buf, []byte(d.URL))
			buf.WriteString("</gotourl>")
		case domain.DirectiveSendSMS:
			buf.WriteString("<!-- sms not supported inline -->")
		}
	}
	buf.WriteString("</response>")

	return WireResponse{ContentType: "text/xml", Body: buf.Bytes()}, nil
}

func (a *KooKooAdapter) SendSMS(ctx context.Context, from, to, message string) error {
	query := url.Values{}
	query.Set("api_key", a.apiKey)
	query.Set("phone_no", to)
	query.Set("message", message)

	endpoint := kookooSMSEndpoint + "?" + query.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating KooKoo send request: %w", err)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return &domain.DeliveryError{Provider: "kookoo", To: to, Status: "transport_error", Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		a.logger.WarnContext(ctx, "KooKoo send rejected", "status_code", httpResp.StatusCode, "to", to, "body", string(body))
		return &domain.DeliveryError{
			Provider: "kookoo",
			To:       to,
			Status:   fmt.Sprintf("http_%d", httpResp.StatusCode),
			Err:      fmt.Errorf("kookoo responded %d", httpResp.StatusCode),
		}
	}

	a.logger.InfoContext(ctx, "SMS submitted to KooKoo", "from", from, "to", to)
	return nil
}

func (a *KooKooAdapter) ProcessCallback(ctx context.Context, req *domain.Request) error {
	a.logger.InfoContext(ctx, "KooKoo call event callback", "from", req.From, "to", req.To)
	return nil
}

func (a *KooKooAdapter) Numbers(ctx context.Context) (Inventory, error) {
	return a.inventory, nil
}
