package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/friendmap/plans-api/internal/membership"
	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend answers each transition from a queue of canned responses,
// optionally holding a response until released so tests can control the
// ordering of in-flight requests.
type scriptedBackend struct {
	mu        sync.Mutex
	responses []backendResponse
}

type backendResponse struct {
	status models.MembershipStatus
	err    error
	gate   chan struct{}
}

func (b *scriptedBackend) push(status models.MembershipStatus, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses = append(b.responses, backendResponse{status: status, err: err})
}

func (b *scriptedBackend) pushGated(status models.MembershipStatus, err error) chan struct{} {
	gate := make(chan struct{})
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses = append(b.responses, backendResponse{status: status, err: err, gate: gate})
	return gate
}

func (b *scriptedBackend) Transition(_ context.Context, planID, actorID uuid.UUID, _ models.MembershipAction) (models.MembershipRecord, error) {
	b.mu.Lock()
	if len(b.responses) == 0 {
		b.mu.Unlock()
		return models.MembershipRecord{}, errors.New("scripted backend: no response queued")
	}
	resp := b.responses[0]
	b.responses = b.responses[1:]
	b.mu.Unlock()

	if resp.gate != nil {
		<-resp.gate
	}
	if resp.err != nil {
		return models.MembershipRecord{}, resp.err
	}
	return models.MembershipRecord{
		PlanID:      planID,
		UserID:      actorID,
		Status:      resp.status,
		RespondedAt: time.Now(),
	}, nil
}

func publicPlan() models.Plan {
	return models.Plan{
		ID:         uuid.New(),
		HostUserID: uuid.New(),
		Title:      "Rooftop drinks",
	}
}

func privatePlan() models.Plan {
	p := publicPlan()
	p.IsPrivate = true
	return p
}

func await(t *testing.T, ch <-chan Resolution) Resolution {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resolution")
		return Resolution{}
	}
}

func TestStoreOptimisticApplyConfirmed(t *testing.T) {
	backend := &scriptedBackend{}
	store := NewStore(backend, zerolog.Nop())
	plan := publicPlan()
	user := uuid.New()

	gate := backend.pushGated(models.StatusAccepted, nil)
	ch, err := store.Apply(context.Background(), plan, user, models.ActionRequestJoin)
	require.NoError(t, err)

	// The prediction renders before the backend answers.
	assert.Equal(t, models.StatusAccepted, store.Status(plan.ID, user))

	close(gate)
	res := await(t, ch)
	assert.Equal(t, ClassOK, res.Class)
	assert.Equal(t, models.StatusAccepted, res.Status)
	assert.Equal(t, models.StatusAccepted, store.Status(plan.ID, user))
}

func TestStoreRollbackToAuthoritative(t *testing.T) {
	backend := &scriptedBackend{}
	store := NewStore(backend, zerolog.Nop())
	plan := publicPlan()
	user := uuid.New()

	// The session already knows the user is maybe; the withdraw is
	// rejected, so the rendered status must return to maybe, not none.
	store.Seed(plan.ID, user, models.StatusMaybe)
	backend.push(models.StatusNone, membership.ErrNotAuthorized)

	ch, err := store.Apply(context.Background(), plan, user, models.ActionWithdraw)
	require.NoError(t, err)

	res := await(t, ch)
	assert.Equal(t, ClassTerminal, res.Class)
	assert.ErrorIs(t, res.Err, membership.ErrNotAuthorized)
	assert.Equal(t, models.StatusMaybe, res.Status)
	assert.Equal(t, models.StatusMaybe, store.Status(plan.ID, user))
}

func TestStoreStaleResponseDiscarded(t *testing.T) {
	backend := &scriptedBackend{}
	store := NewStore(backend, zerolog.Nop())
	plan := publicPlan()
	user := uuid.New()

	// First request stalls; a second replaces it before it resolves.
	firstGate := backend.pushGated(models.StatusAccepted, nil)
	secondGate := backend.pushGated(models.StatusNone, nil)

	first, err := store.Apply(context.Background(), plan, user, models.ActionRequestJoin)
	require.NoError(t, err)
	// Wait until the first request has dequeued its response, so the second
	// request cannot grab it and the out-of-order scenario below is real.
	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.responses) == 1
	}, time.Second, time.Millisecond)
	second, err := store.Apply(context.Background(), plan, user, models.ActionWithdraw)
	require.NoError(t, err)

	// Resolve out of order: the newer request lands first.
	close(secondGate)
	res := await(t, second)
	assert.Equal(t, ClassOK, res.Class)
	assert.Equal(t, models.StatusNone, res.Status)

	close(firstGate)
	res = await(t, first)
	assert.True(t, res.Stale, "superseded response must be marked stale")
	assert.Equal(t, models.StatusNone, store.Status(plan.ID, user),
		"stale response must not clobber the newer authoritative status")
}

func TestStoreSeedWhileInFlight(t *testing.T) {
	backend := &scriptedBackend{}
	store := NewStore(backend, zerolog.Nop())
	plan := publicPlan()
	user := uuid.New()

	gate := backend.pushGated(models.StatusAccepted, nil)
	ch, err := store.Apply(context.Background(), plan, user, models.ActionRequestJoin)
	require.NoError(t, err)

	// A server read arriving mid-flight updates the rollback target but
	// does not disturb the rendered prediction.
	store.Seed(plan.ID, user, models.StatusMaybe)
	assert.Equal(t, models.StatusAccepted, store.Status(plan.ID, user))

	close(gate)
	await(t, ch)
	assert.Equal(t, models.StatusAccepted, store.Status(plan.ID, user))
}

func TestStoreRejectsLocallyInvalidAction(t *testing.T) {
	backend := &scriptedBackend{}
	store := NewStore(backend, zerolog.Nop())
	plan := publicPlan()
	user := uuid.New()

	// Accepting an invite that the session has no record of is rejected
	// without a backend round trip.
	_, err := store.Apply(context.Background(), plan, user, models.ActionAcceptInvite)
	assert.ErrorIs(t, err, membership.ErrInvalidAction)
	assert.Equal(t, models.StatusNone, store.Status(plan.ID, user))
}

func TestStorePrivateJoinPredictsPending(t *testing.T) {
	backend := &scriptedBackend{}
	store := NewStore(backend, zerolog.Nop())
	plan := privatePlan()
	user := uuid.New()

	gate := backend.pushGated(models.StatusPending, nil)
	ch, err := store.Apply(context.Background(), plan, user, models.ActionRequestJoin)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, store.Status(plan.ID, user))
	close(gate)
	res := await(t, ch)
	assert.Equal(t, models.StatusPending, res.Status)
}

func TestStoreClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"confirmed", nil, ClassOK},
		{"banned", membership.ErrBanned, ClassTerminal},
		{"not authorized", membership.ErrNotAuthorized, ClassTerminal},
		{"capacity full", membership.ErrCapacityFull, ClassRetryable},
		{"already member", membership.ErrAlreadyMember, ClassInformational},
		{"invalid action", membership.ErrInvalidAction, ClassInformational},
		{"plan gone", membership.ErrNotFound, ClassInformational},
		{"transport failure", errors.New("connection reset"), ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestStoreCapacityRejectionKeepsServerState(t *testing.T) {
	backend := &scriptedBackend{}
	store := NewStore(backend, zerolog.Nop())
	plan := privatePlan()
	plan.MaxAttendees = new(int)
	*plan.MaxAttendees = 1
	user := uuid.New()

	// The server kept the pending row when the accept path was full, so
	// the session rolls back to pending and may retry later.
	store.Seed(plan.ID, user, models.StatusInvited)
	backend.push(models.StatusInvited, membership.ErrCapacityFull)

	ch, err := store.Apply(context.Background(), plan, user, models.ActionAcceptInvite)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, store.Status(plan.ID, user))

	res := await(t, ch)
	assert.Equal(t, ClassRetryable, res.Class)
	assert.Equal(t, models.StatusInvited, store.Status(plan.ID, user))
}
