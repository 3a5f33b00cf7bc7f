package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/friendmap/plans-api/internal/authz"
	"github.com/friendmap/plans-api/internal/membership"
	"github.com/friendmap/plans-api/internal/models"
	"github.com/friendmap/plans-api/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type PlanHandler struct {
	planRepo   repository.PlanRepository
	membership membership.Service
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewPlanHandler(planRepo repository.PlanRepository, svc membership.Service, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{
		planRepo:   planRepo,
		membership: svc,
		validate:   validator.New(),
		logger:     logger.With().Str("handler", "plan").Logger(),
	}
}

type planRequest struct {
	Title        string    `json:"title" validate:"required,min=1,max=140"`
	Description  string    `json:"description" validate:"max=2000"`
	Emoji        string    `json:"emoji" validate:"max=16"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
	Latitude     float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Address      string    `json:"address" validate:"max=500"`
	IsPrivate    bool      `json:"is_private"`
	MaxAttendees *int      `json:"max_attendees" validate:"omitempty,gt=0"`
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid plan payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := h.planRepo.Create(r.Context(), models.Plan{
		HostUserID:   actorID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Emoji:        req.Emoji,
		StartsAt:     req.StartsAt,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Address:      req.Address,
		IsPrivate:    req.IsPrivate,
		MaxAttendees: req.MaxAttendees,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create plan")
		http.Error(w, "Failed to create plan", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// Get applies the visibility gate: actors without detail visibility receive
// the redacted summary, actors without summary visibility receive 404 so a
// ban or block does not reveal the plan exists.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, planID, ok := h.ids(w, r)
	if !ok {
		return
	}

	vis, plan, err := h.membership.Visibility(r.Context(), planID, actorID)
	if err != nil {
		writeRejection(w, err)
		return
	}
	if !vis.CanSeeSummary {
		writeRejection(w, membership.ErrNotFound)
		return
	}
	if !vis.CanSeeDetails {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"plan":       plan.Summary(),
			"visibility": vis,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plan":       plan,
		"visibility": vis,
	})
}

// List returns the upcoming-plans feed. Banned and blocked plans are
// filtered by the query; private plans the viewer does not host come back
// redacted, with details available through Get once accepted.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	plans, err := h.planRepo.ListVisible(r.Context(), actorID, time.Now(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list plans")
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}

	feed := make([]interface{}, 0, len(plans))
	for _, plan := range plans {
		if plan.IsPrivate && !plan.IsHost(actorID) {
			feed = append(feed, plan.Summary())
		} else {
			feed = append(feed, plan)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": feed})
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, planID, ok := h.ids(w, r)
	if !ok {
		return
	}

	existing, err := h.planRepo.GetByID(r.Context(), planID)
	if err != nil {
		writeRejection(w, err)
		return
	}
	if !existing.IsHost(actorID) {
		writeRejection(w, membership.ErrNotAuthorized)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid plan payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	existing.Title = strings.TrimSpace(req.Title)
	existing.Description = req.Description
	existing.Emoji = req.Emoji
	existing.StartsAt = req.StartsAt
	existing.Latitude = req.Latitude
	existing.Longitude = req.Longitude
	existing.Address = req.Address
	existing.IsPrivate = req.IsPrivate
	existing.MaxAttendees = req.MaxAttendees

	updated, err := h.planRepo.Update(r.Context(), existing)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, planID, ok := h.ids(w, r)
	if !ok {
		return
	}

	existing, err := h.planRepo.GetByID(r.Context(), planID)
	if err != nil {
		writeRejection(w, err)
		return
	}
	if !existing.IsHost(actorID) {
		writeRejection(w, membership.ErrNotAuthorized)
		return
	}

	// Deletion cascades membership rows and bans for the plan.
	if err := h.planRepo.Delete(r.Context(), planID); err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlanHandler) Members(w http.ResponseWriter, r *http.Request) {
	actorID, planID, ok := h.ids(w, r)
	if !ok {
		return
	}

	records, err := h.membership.Members(r.Context(), planID, actorID)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": records})
}

func (h *PlanHandler) ids(w http.ResponseWriter, r *http.Request) (actorID, planID uuid.UUID, ok bool) {
	actorID, found := authz.UserIDFromRequest(r)
	if !found {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	planID, err := uuid.Parse(mux.Vars(r)["planID"])
	if err != nil {
		http.Error(w, "Invalid plan id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, planID, true
}
