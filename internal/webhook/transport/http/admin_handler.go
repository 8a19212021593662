package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	campdomain "github.com/ringbridge/ringbridge/internal/campaign/domain"
)

// BroadcastEnqueuer builds the audience and queues a broadcast;
// *campapp.BroadcastService satisfies it.
type BroadcastEnqueuer interface {
	EnqueueBroadcast(ctx context.Context, campaignID uuid.UUID, from, message string, filter campdomain.Filter) (*campdomain.Broadcast, error)
}

// NumberInventory reports the carriers' owned numbers; the composite
// dispatcher satisfies it.
type NumberInventory interface {
	VoiceNumbers(ctx context.Context) ([]string, error)
	SMSNumbers(ctx context.Context) ([]string, error)
}

// AdminHandler exposes the campaign-owner API: available numbers, tags,
// ringer tagging, and broadcast enqueueing. Authentication sits in front of
// these routes and is out of scope here.
type AdminHandler struct {
	inventory  NumberInventory
	assigned   campdomain.AssignedNumberRepository
	ringers    campdomain.RingerRepository
	tags       campdomain.TagRepository
	broadcasts BroadcastEnqueuer
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewAdminHandler(
	inventory NumberInventory,
	assigned campdomain.AssignedNumberRepository,
	ringers campdomain.RingerRepository,
	tags campdomain.TagRepository,
	broadcasts BroadcastEnqueuer,
	validate *validator.Validate,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		inventory:  inventory,
		assigned:   assigned,
		ringers:    ringers,
		tags:       tags,
		broadcasts: broadcasts,
		validate:   validate,
		logger:     logger.With("handler", "admin"),
	}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/numbers", h.HandleAvailableNumbers)
	r.Get("/tags", h.HandleListTags)
	r.Post("/tags", h.HandleCreateTag)
	r.Post("/ringers/{phone}/tags", h.HandleAssignTags)
	r.Post("/campaigns/{campaign_id}/broadcast", h.HandleBroadcast)
}

// HandleAvailableNumbers lists carrier-owned numbers not yet assigned to a
// campaign, split by capability.
func (h *AdminHandler) HandleAvailableNumbers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	voice, err := h.inventory.VoiceNumbers(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to collect voice inventory", "error", err)
		http.Error(w, "Failed to collect inventory", http.StatusInternalServerError)
		return
	}
	sms, err := h.inventory.SMSNumbers(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to collect SMS inventory", "error", err)
		http.Error(w, "Failed to collect inventory", http.StatusInternalServerError)
		return
	}

	assigned, err := h.assigned.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list assigned numbers", "error", err)
		http.Error(w, "Failed to list assigned numbers", http.StatusInternalServerError)
		return
	}
	used := make(map[string]bool, len(assigned))
	for _, a := range assigned {
		used[a.PhoneNumber] = true
	}

	resp := NumbersResponse{Voice: subtract(voice, used), SMS: subtract(sms, used)}
	respondJSON(w, http.StatusOK, resp)
}

func subtract(numbers []string, used map[string]bool) []string {
	available := []string{}
	for _, n := range numbers {
		if !used[n] {
			available = append(available, n)
		}
	}
	return available
}

func (h *AdminHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	tags, err := h.tags.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list tags", "error", err)
		http.Error(w, "Failed to list tags", http.StatusInternalServerError)
		return
	}

	resp := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, TagResponse{Category: t.Category, Value: t.Value, Label: t.String()})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) HandleCreateTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req TagCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	tag, err := campdomain.ParseTag(req.Tag)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.tags.Create(ctx, tag); err != nil {
		if errors.Is(err, campdomain.ErrDuplicateEntry) {
			http.Error(w, "Tag already exists", http.StatusConflict)
			return
		}
		logger.ErrorContext(ctx, "Failed to create tag", "tag", tag.String(), "error", err)
		http.Error(w, "Failed to create tag", http.StatusInternalServerError)
		return
	}

	logger.InfoContext(ctx, "Tag created", "tag", tag.String())
	respondJSON(w, http.StatusCreated, TagResponse{Category: tag.Category, Value: tag.Value, Label: tag.String()})
}

// HandleAssignTags attaches tags to an existing ringer by phone number, the
// manual counterpart of the derived geography tags.
func (h *AdminHandler) HandleAssignTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	phone := chi.URLParam(r, "phone")

	var req TagAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	tags := make([]campdomain.Tag, 0, len(req.Tags))
	for _, raw := range req.Tags {
		tag, err := campdomain.ParseTag(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		tags = append(tags, tag)
	}

	ringer, err := h.ringers.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, campdomain.ErrNotFound) {
			http.Error(w, "Ringer not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "Failed to look up ringer", "phone", phone, "error", err)
		http.Error(w, "Failed to look up ringer", http.StatusInternalServerError)
		return
	}

	if err := h.ringers.AddTags(ctx, ringer.ID, tags); err != nil {
		logger.ErrorContext(ctx, "Failed to assign tags", "phone", phone, "error", err)
		http.Error(w, "Failed to assign tags", http.StatusInternalServerError)
		return
	}

	logger.InfoContext(ctx, "Tags assigned", "phone", phone, "count", len(tags))
	resp := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, TagResponse{Category: t.Category, Value: t.Value, Label: t.String()})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	campaignID, err := uuid.Parse(chi.URLParam(r, "campaign_id"))
	if err != nil {
		http.Error(w, "Invalid campaign id", http.StatusBadRequest)
		return
	}
	logger = logger.With("campaign_id", campaignID)

	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	filter, err := campdomain.ParseFilter(req.Filter)
	if err != nil {
		http.Error(w, "Invalid filter: "+err.Error(), http.StatusBadRequest)
		return
	}

	broadcast, err := h.broadcasts.EnqueueBroadcast(ctx, campaignID, req.From, req.Message, filter)
	if err != nil {
		if errors.Is(err, campdomain.ErrNotFound) {
			http.Error(w, "Campaign not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "Failed to enqueue broadcast", "error", err)
		http.Error(w, "Failed to enqueue broadcast", http.StatusInternalServerError)
		return
	}

	logger.InfoContext(ctx, "Broadcast accepted", "broadcast_id", broadcast.ID, "recipients", len(broadcast.Recipients))
	respondJSON(w, http.StatusAccepted, BroadcastResponse{
		BroadcastID: broadcast.ID.String(),
		Recipients:  len(broadcast.Recipients),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
