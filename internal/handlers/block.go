package handlers

import (
	"net/http"

	"github.com/friendmap/plans-api/internal/authz"
	"github.com/friendmap/plans-api/internal/repository"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type BlockHandler struct {
	blockRepo repository.BlockRepository
	logger    zerolog.Logger
}

func NewBlockHandler(blockRepo repository.BlockRepository, logger zerolog.Logger) *BlockHandler {
	return &BlockHandler{
		blockRepo: blockRepo,
		logger:    logger.With().Str("handler", "block").Logger(),
	}
}

func (h *BlockHandler) Block(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if actorID == targetID {
		http.Error(w, "Cannot block yourself", http.StatusBadRequest)
		return
	}
	if err := h.blockRepo.Block(r.Context(), actorID, targetID); err != nil {
		h.logger.Error().Err(err).Msg("failed to create block")
		http.Error(w, "Failed to create block", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BlockHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.blockRepo.Unblock(r.Context(), actorID, targetID); err != nil {
		h.logger.Error().Err(err).Msg("failed to remove block")
		http.Error(w, "Failed to remove block", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BlockHandler) ids(w http.ResponseWriter, r *http.Request) (actorID, targetID uuid.UUID, ok bool) {
	actorID, found := authz.UserIDFromRequest(r)
	if !found {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	targetID, err := uuid.Parse(mux.Vars(r)["userID"])
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, targetID, true
}
