// Package reconcile is the client-side companion to the membership service:
// it applies the predicted result of a transition immediately, then
// reconciles with the backend's authoritative answer, rolling back to the
// last authoritative status on rejection. It is the only cache of RSVP
// state a client session holds; view code reads from here and never writes.
package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/friendmap/plans-api/internal/membership"
	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Backend performs the authoritative transition. In production this is an
// HTTP client for the plans API; in tests, the membership service itself.
type Backend interface {
	Transition(ctx context.Context, planID, actorID uuid.UUID, action models.MembershipAction) (models.MembershipRecord, error)
}

// Class tells the UI how to present a failed reconciliation.
type Class int

const (
	// ClassOK: the backend confirmed the predicted transition.
	ClassOK Class = iota
	// ClassTerminal: banned or not authorized; offer no retry.
	ClassTerminal
	// ClassRetryable: capacity full; the record is preserved server-side,
	// retry later.
	ClassRetryable
	// ClassInformational: already a member, invalid action; state refreshed.
	ClassInformational
	// ClassUnknown: transport failure, authoritative state unknown; offer
	// a manual retry.
	ClassUnknown
)

// Resolution is the authoritative result of one Apply.
type Resolution struct {
	PlanID uuid.UUID
	UserID uuid.UUID
	Status models.MembershipStatus
	Class  Class
	Err    error
	// Stale marks a response that was superseded by a newer request for
	// the same (plan, user) pair and therefore not applied.
	Stale bool
}

type key struct {
	planID uuid.UUID
	userID uuid.UUID
}

type entry struct {
	authoritative models.MembershipStatus
	predicted     models.MembershipStatus
	inFlight      bool
	seq           uint64
}

// Store is the per-session membership cache. All mutation goes through
// Apply or Seed; concurrent Apply calls for the same (plan, user) pair are
// serialized by cancel-and-replace, so a stale response can never clobber a
// newer prediction.
type Store struct {
	mu      sync.Mutex
	backend Backend
	logger  zerolog.Logger
	entries map[key]*entry
}

func NewStore(backend Backend, logger zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger.With().Str("component", "reconcile_store").Logger(),
		entries: make(map[key]*entry),
	}
}

// Seed records an authoritative status observed from a server read.
func (s *Store) Seed(planID, userID uuid.UUID, status models.MembershipStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(planID, userID)
	e.authoritative = status
	if !e.inFlight {
		e.predicted = status
	}
}

// Status returns the status the UI should render: the optimistic prediction
// while a request is in flight, the authoritative value otherwise.
func (s *Store) Status(planID, userID uuid.UUID) models.MembershipStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key{planID, userID}]
	if !ok {
		return models.StatusNone
	}
	if e.inFlight {
		return e.predicted
	}
	return e.authoritative
}

// Apply optimistically applies action for (plan, actor) and dispatches the
// backend call. The prediction comes from the same Decide function the
// server runs, evaluated against what the client knows (no ban, capacity
// assumed available); the backend remains authoritative for both. The
// returned channel delivers exactly one Resolution.
//
// A second Apply for the same pair before the first resolves replaces it:
// the earlier response is discarded on arrival.
func (s *Store) Apply(ctx context.Context, plan models.Plan, actorID uuid.UUID, action models.MembershipAction) (<-chan Resolution, error) {
	s.mu.Lock()
	e := s.entry(plan.ID, actorID)

	view := membership.View{
		Plan: plan,
		Record: models.MembershipRecord{
			PlanID: plan.ID,
			UserID: actorID,
			Status: s.renderedLocked(e),
		},
	}
	outcome, err := membership.Decide(view, action)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	e.predicted = outcome.Status
	e.inFlight = true
	e.seq++
	seq := e.seq
	s.mu.Unlock()

	ch := make(chan Resolution, 1)
	go func() {
		record, err := s.backend.Transition(ctx, plan.ID, actorID, action)
		ch <- s.resolve(plan.ID, actorID, seq, record, err)
	}()
	return ch, nil
}

func (s *Store) resolve(planID, actorID uuid.UUID, seq uint64, record models.MembershipRecord, err error) Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(planID, actorID)
	res := Resolution{PlanID: planID, UserID: actorID}

	if seq != e.seq {
		// Superseded by a newer request; do not touch the cache.
		res.Stale = true
		res.Status = s.renderedLocked(e)
		return res
	}
	e.inFlight = false

	if err == nil {
		e.authoritative = record.Status
		e.predicted = record.Status
		res.Status = record.Status
		res.Class = ClassOK
		return res
	}

	// Roll back to the last authoritative status, never blindly to none.
	e.predicted = e.authoritative
	res.Status = e.authoritative
	res.Err = err
	res.Class = classify(err)
	s.logger.Debug().
		Err(err).
		Str("plan_id", planID.String()).
		Str("user_id", actorID.String()).
		Msg("transition rejected, rolled back to authoritative status")
	return res
}

func (s *Store) entry(planID, userID uuid.UUID) *entry {
	k := key{planID, userID}
	e, ok := s.entries[k]
	if !ok {
		e = &entry{authoritative: models.StatusNone, predicted: models.StatusNone}
		s.entries[k] = e
	}
	return e
}

func (s *Store) renderedLocked(e *entry) models.MembershipStatus {
	if e.inFlight {
		return e.predicted
	}
	return e.authoritative
}

func classify(err error) Class {
	switch {
	case err == nil:
		return ClassOK
	case membership.IsTerminal(err):
		return ClassTerminal
	case membership.IsRetryable(err):
		return ClassRetryable
	case errors.Is(err, membership.ErrAlreadyMember),
		errors.Is(err, membership.ErrInvalidAction),
		errors.Is(err, membership.ErrNotFound):
		return ClassInformational
	default:
		return ClassUnknown
	}
}
