package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ringbridge/ringbridge/internal/telephony/domain"
)

const nexmoSMSEndpoint = "https://rest.nexmo.com/sms/json"

// NexmoAdapter fronts Nexmo (Vonage). Inbound SMS arrives as query/form
// parameters (msisdn/to/text); delivery receipts reuse the same route with a
// status field. Voice answers are NCCO JSON documents.
type NexmoAdapter struct {
	logger        *slog.Logger
	httpClient    *http.Client
	apiKey        string
	apiSecret     string
	defaultRegion string
	inventory     Inventory
}

func NewNexmoAdapter(logger *slog.Logger, apiKey, apiSecret, defaultRegion string, inventory Inventory, httpClient *http.Client) *NexmoAdapter {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &NexmoAdapter{
		logger:        logger.With("provider", "nexmo"),
		httpClient:    httpClient,
		apiKey:        apiKey,
		apiSecret:     apiSecret,
		defaultRegion: defaultRegion,
		inventory:     inventory,
	}
}

func (a *NexmoAdapter) Identity() Identity {
	return Identity{
		Name:         "nexmo",
		Capabilities: Capabilities{Voice: true, SMS: true, Outgoing: true},
	}
}

func (a *NexmoAdapter) TransformRequest(kind domain.InteractionKind, raw RawRequest) (*domain.Request, error) {
	// Delivery receipts carry a status plus messageId and no text body.
	isCallback := raw.Get("status") != "" && raw.Get("messageId") != ""

	from := raw.Get("msisdn")
	if from == "" {
		from = raw.Get("from")
	}
	to := raw.Get("to")
	if from == "" || to == "" {
		return nil, &domain.MalformedPayloadError{Provider: "nexmo", Reason: "missing msisdn or to field"}
	}

	normFrom, err := domain.NormalizePhone(from, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "nexmo", Reason: "unparseable msisdn", Err: err}
	}
	normTo, err := domain.NormalizePhone(to, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "nexmo", Reason: "unparseable to number", Err: err}
	}

	return &domain.Request{
		From:       normFrom,
		To:         normTo,
		Body:       raw.Get("text"),
		Kind:       kind,
		IsCallback: isCallback,
		Raw:        encodeParams(raw.Params),
	}, nil
}

// nexmoAction is one NCCO entry.
type nexmoAction struct {
	Action    string   `json:"action"`
	Text      string   `json:"text,omitempty"`
	StreamURL []string `json:"streamUrl,omitempty"`
}

// BuildResponse renders an NCCO document for voice interactions. NCCO has no
// reject action; an empty document terminates the call, which is the closest
// supported equivalent. Inline SMS replies do not exist on Nexmo, so SendSMS
// directives go out through the REST API against the original sender.
func (a *NexmoAdapter) BuildResponse(ctx context.Context, req *domain.Request, resp domain.Response) (WireResponse, error) {
	actions := []nexmoAction{}
	for _, d := range resp {
		switch d.Kind {
		case domain.DirectiveSay:
			actions = append(actions, nexmoAction{Action: "talk", Text: d.Text})
		case domain.DirectivePlay, domain.DirectiveRedirect:
			actions = append(actions, nexmoAction{Action: "stream", StreamURL: []string{d.URL}})
		case domain.DirectiveReject:
			// no-op: an empty/terminated NCCO hangs up the call
		case domain.DirectiveSendSMS:
			if err := a.SendSMS(ctx, req.To, req.From, d.Text); err != nil {
				return WireResponse{}, err
			}
		}
	}

	body, err := json.Marshal(actions)
	if err != nil {
		return WireResponse{}, fmt.Errorf("marshaling NCCO document: %w", err)
	}
	return WireResponse{ContentType: "application/json", Body: body}, nil
}

type nexmoSendRequest struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
}

type nexmoSendResponse struct {
	Messages []struct {
		Status    string `json:"status"`
		ErrorText string `json:"error-text"`
	} `json:"messages"`
}

func (a *NexmoAdapter) SendSMS(ctx context.Context, from, to, message string) error {
	reqBody, err := json.Marshal(nexmoSendRequest{
		APIKey:    a.apiKey,
		APISecret: a.apiSecret,
		From:      from,
		To:        to,
		Text:      message,
	})
	if err != nil {
		return fmt.Errorf("marshaling Nexmo send request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, nexmoSMSEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("creating Nexmo send request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return &domain.DeliveryError{Provider: "nexmo", To: to, Status: "transport_error", Err: err}
	}
	defer httpResp.Body.Close()

	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &domain.DeliveryError{Provider: "nexmo", To: to, Status: "read_error", Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return &domain.DeliveryError{
			Provider: "nexmo",
			To:       to,
			Status:   fmt.Sprintf("http_%d", httpResp.StatusCode),
			Err:      fmt.Errorf("nexmo responded %d", httpResp.StatusCode),
		}
	}

	// Nexmo reports per-message status inside a 200 response; status "0" is success.
	var sendResp nexmoSendResponse
	if err := json.Unmarshal(respBytes, &sendResp); err == nil {
		for _, m := range sendResp.Messages {
			if m.Status != "0" {
				return &domain.DeliveryError{
					Provider: "nexmo",
					To:       to,
					Status:   "status_" + m.Status,
					Err:      fmt.Errorf("nexmo rejected message: %s", m.ErrorText),
				}
			}
		}
	}

	a.logger.InfoContext(ctx, "SMS submitted to Nexmo", "from", from, "to", to)
	return nil
}

func (a *NexmoAdapter) ProcessCallback(ctx context.Context, req *domain.Request) error {
	a.logger.InfoContext(ctx, "Nexmo delivery receipt", "from", req.From, "to", req.To)
	return nil
}

func (a *NexmoAdapter) Numbers(ctx context.Context) (Inventory, error) {
	return a.inventory, nil
}
