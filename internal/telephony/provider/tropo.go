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

const tropoSessionEndpoint = "https://api.tropo.com/1.0/sessions"

// TropoAdapter fronts Tropo. Inbound webhooks are JSON session documents;
// replies are Tropo command arrays. Outbound SMS launches a scripted session
// through the session API with a messaging token.
type TropoAdapter struct {
	logger         *slog.Logger
	httpClient     *http.Client
	messagingToken string
	defaultRegion  string
	inventory      Inventory
}

func NewTropoAdapter(logger *slog.Logger, messagingToken, defaultRegion string, inventory Inventory, httpClient *http.Client) *TropoAdapter {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &TropoAdapter{
		logger:         logger.With("provider", "tropo"),
		httpClient:     httpClient,
		messagingToken: messagingToken,
		defaultRegion:  defaultRegion,
		inventory:      inventory,
	}
}

func (a *TropoAdapter) Identity() Identity {
	return Identity{
		Name:         "tropo",
		Capabilities: Capabilities{Voice: true, SMS: true, Outgoing: true},
	}
}

type tropoSessionPayload struct {
	Session *struct {
		From *struct {
			ID string `json:"id"`
		} `json:"from"`
		To *struct {
			ID string `json:"id"`
		} `json:"to"`
		InitialText string `json:"initialText"`
	} `json:"session"`
	Result json.RawMessage `json:"result"`
}

func (a *TropoAdapter) TransformRequest(kind domain.InteractionKind, raw RawRequest) (*domain.Request, error) {
	var payload tropoSessionPayload
	if err := json.Unmarshal(raw.Body, &payload); err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "tropo", Reason: "invalid JSON body", Err: err}
	}

	// Result documents report the outcome of a previously launched session;
	// they carry no live interaction.
	if payload.Session == nil {
		if payload.Result == nil {
			return nil, &domain.MalformedPayloadError{Provider: "tropo", Reason: "neither session nor result present"}
		}
		return &domain.Request{Kind: kind, IsCallback: true, Raw: string(raw.Body)}, nil
	}

	if payload.Session.From == nil || payload.Session.To == nil {
		return nil, &domain.MalformedPayloadError{Provider: "tropo", Reason: "session missing from or to party"}
	}

	normFrom, err := domain.NormalizePhone(payload.Session.From.ID, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "tropo", Reason: "unparseable from party", Err: err}
	}
	normTo, err := domain.NormalizePhone(payload.Session.To.ID, a.defaultRegion)
	if err != nil {
		return nil, &domain.MalformedPayloadError{Provider: "tropo", Reason: "unparseable to party", Err: err}
	}

	return &domain.Request{
		From:       normFrom,
		To:         normTo,
		Body:       payload.Session.InitialText,
		Kind:       kind,
		IsCallback: false,
		Raw:        string(raw.Body),
	}, nil
}

// BuildResponse renders a Tropo command array. Directive order is preserved
// as command order.
func (a *TropoAdapter) BuildResponse(ctx context.Context, req *domain.Request, resp domain.Response) (WireResponse, error) {
	commands := []map[string]any{}
	for _, d := range resp {
		switch d.Kind {
		case domain.DirectiveReject:
			commands = append(commands, map[string]any{"reject": nil})
		case domain.DirectiveSay:
			commands = append(commands, map[string]any{"say": map[string]any{"value": d.Text}})
		case domain.DirectivePlay:
			commands = append(commands, map[string]any{"say": map[string]any{"value": d.URL}})
		case domain.DirectiveRedirect:
			commands = append(commands, map[string]any{"redirect": map[string]any{"to": d.URL}})
		case domain.DirectiveSendSMS:
			commands = append(commands, map[string]any{
				"message": map[string]any{"say": map[string]any{"value": d.Text}, "to": req.From, "network": "SMS"},
			})
		}
	}

	body, err := json.Marshal(map[string]any{"tropo": commands})
	if err != nil {
		return WireResponse{}, fmt.Errorf("marshaling Tropo command document: %w", err)
	}
	return WireResponse{ContentType: "application/json", Body: body}, nil
}

type tropoSessionRequest struct {
	Token   string `json:"token"`
	From    string `json:"from"`
	To      string `json:"numberToDial"`
	Message string `json:"msg"`
	Network string `json:"network"`
}

func (a *TropoAdapter) SendSMS(ctx context.Context, from, to, message string) error {
	reqBody, err := json.Marshal(tropoSessionRequest{
		Token:   a.messagingToken,
		From:    from,
		To:      to,
		Message: message,
		Network: "SMS",
	})
	if err != nil {
		return fmt.Errorf("marshaling Tropo session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tropoSessionEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("creating Tropo session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return &domain.DeliveryError{Provider: "tropo", To: to, Status: "transport_error", Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		a.logger.WarnContext(ctx, "Tropo session launch rejected", "status_code", httpResp.StatusCode, "to", to, "body", string(body))
		return &domain.DeliveryError{
			Provider: "tropo",
			To:       to,
			Status:   fmt.Sprintf("http_%d", httpResp.StatusCode),
			Err:      fmt.Errorf("tropo responded %d", httpResp.StatusCode),
		}
	}

	a.logger.InfoContext(ctx, "SMS session launched on Tropo", "from", from, "to", to)
	return nil
}

func (a *TropoAdapter) ProcessCallback(ctx context.Context, req *domain.Request) error {
	a.logger.InfoContext(ctx, "Tropo session result callback")
	return nil
}

func (a *TropoAdapter) Numbers(ctx context.Context) (Inventory, error) {
	return a.inventory, nil
}
