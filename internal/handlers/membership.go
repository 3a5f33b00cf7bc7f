package handlers

import (
	"context"
	"net/http"

	"github.com/friendmap/plans-api/internal/authz"
	"github.com/friendmap/plans-api/internal/membership"
	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// MembershipHandler exposes the actor-initiated transitions. All state
// logic lives in the membership service; handlers only translate HTTP.
type MembershipHandler struct {
	membership membership.Service
	logger     zerolog.Logger
}

func NewMembershipHandler(svc membership.Service, logger zerolog.Logger) *MembershipHandler {
	return &MembershipHandler{
		membership: svc,
		logger:     logger.With().Str("handler", "membership").Logger(),
	}
}

func (h *MembershipHandler) Join(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.membership.RequestJoin)
}

func (h *MembershipHandler) Maybe(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.membership.RespondMaybe)
}

func (h *MembershipHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.membership.Withdraw)
}

func (h *MembershipHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.membership.AcceptInvite)
}

func (h *MembershipHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, planID, actorID uuid.UUID) (models.MembershipRecord, error)) {
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

	record, err := op(r.Context(), planID, actorID)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
