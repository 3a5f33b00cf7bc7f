package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/friendmap/plans-api/internal/authz"
	"github.com/friendmap/plans-api/internal/membership"
	"github.com/friendmap/plans-api/internal/models"
	"github.com/friendmap/plans-api/internal/repository"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ModerationHandler exposes the host-only operations. The host check itself
// lives inside the membership service's atomic unit, so there is no
// per-route authorization policy to keep in sync.
type ModerationHandler struct {
	membership membership.Service
	banRepo    repository.BanRepository
	logger     zerolog.Logger
}

func NewModerationHandler(svc membership.Service, banRepo repository.BanRepository, logger zerolog.Logger) *ModerationHandler {
	return &ModerationHandler{
		membership: svc,
		banRepo:    banRepo,
		logger:     logger.With().Str("handler", "moderation").Logger(),
	}
}

func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.hostTransition(w, r, h.membership.Approve)
}

func (h *ModerationHandler) Deny(w http.ResponseWriter, r *http.Request) {
	h.hostTransition(w, r, h.membership.Deny)
}

func (h *ModerationHandler) Invite(w http.ResponseWriter, r *http.Request) {
	h.hostTransition(w, r, h.membership.Invite)
}

func (h *ModerationHandler) Kick(w http.ResponseWriter, r *http.Request) {
	actorID, planID, targetID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	// The body is optional; a bare kick carries no reason.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	var reason *string
	if trimmed := strings.TrimSpace(payload.Reason); trimmed != "" {
		reason = &trimmed
	}

	if err := h.membership.KickAndBan(r.Context(), planID, actorID, targetID, reason); err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ModerationHandler) Unban(w http.ResponseWriter, r *http.Request) {
	actorID, planID, targetID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.membership.Unban(r.Context(), planID, actorID, targetID); err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBans lets the host review the plan's ban list.
func (h *ModerationHandler) ListBans(w http.ResponseWriter, r *http.Request) {
	actorID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}
	planID, err := uuid.Parse(mux.Vars(r)["planID"])
	if err != nil {
		http.Error(w, "Invalid plan id", http.StatusBadRequest)
		return
	}

	_, plan, err := h.membership.Visibility(r.Context(), planID, actorID)
	if err != nil {
		writeRejection(w, err)
		return
	}
	if !plan.IsHost(actorID) {
		writeRejection(w, membership.ErrNotAuthorized)
		return
	}

	bans, err := h.banRepo.ListByPlan(r.Context(), planID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list bans")
		http.Error(w, "Failed to list bans", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bans": bans})
}

func (h *ModerationHandler) hostTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, planID, actorID, targetID uuid.UUID) (models.MembershipRecord, error)) {
	actorID, planID, targetID, ok := h.ids(w, r)
	if !ok {
		return
	}

	record, err := op(r.Context(), planID, actorID, targetID)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *ModerationHandler) ids(w http.ResponseWriter, r *http.Request) (actorID, planID, targetID uuid.UUID, ok bool) {
	actorID, found := authz.UserIDFromRequest(r)
	if !found {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	vars := mux.Vars(r)
	planID, err := uuid.Parse(vars["planID"])
	if err != nil {
		http.Error(w, "Invalid plan id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	targetID, err = uuid.Parse(vars["userID"])
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return actorID, planID, targetID, true
}
