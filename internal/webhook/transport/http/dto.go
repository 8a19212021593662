package http

import "encoding/json"

// BroadcastRequest enqueues a broadcast to a campaign's filtered audience.
// Filter uses the filter expression JSON form; absent means everyone.
type BroadcastRequest struct {
	From    string          `json:"from" validate:"omitempty,e164"`
	Message string          `json:"message" validate:"required,max=1600"`
	Filter  json.RawMessage `json:"filter"`
}

// BroadcastResponse acknowledges an enqueued broadcast.
type BroadcastResponse struct {
	BroadcastID string `json:"broadcast_id"`
	Recipients  int    `json:"recipients"`
}

// TagCreateRequest creates a tag from its canonical "category:value" form.
type TagCreateRequest struct {
	Tag string `json:"tag" validate:"required"`
}

// TagAssignRequest attaches tags, each in "category:value" form, to a ringer.
type TagAssignRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

// TagResponse is one tag in API form.
type TagResponse struct {
	Category string `json:"category"`
	Value    string `json:"value"`
	Label    string `json:"label"`
}

// NumbersResponse lists numbers still available for campaign assignment.
type NumbersResponse struct {
	Voice []string `json:"voice"`
	SMS   []string `json:"sms"`
}
