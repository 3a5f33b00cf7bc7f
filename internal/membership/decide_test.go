package membership

import (
	"testing"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan(private bool, maxAttendees *int) models.Plan {
	return models.Plan{
		ID:           uuid.New(),
		HostUserID:   uuid.New(),
		Title:        "Friday picnic",
		IsPrivate:    private,
		MaxAttendees: maxAttendees,
	}
}

func viewFor(plan models.Plan, userID uuid.UUID, status models.MembershipStatus, banned bool, accepted int) View {
	record := models.EmptyRecord(plan.ID, userID)
	record.Status = status
	return View{Plan: plan, Record: record, Banned: banned, AcceptedCount: accepted}
}

func intPtr(n int) *int { return &n }

func TestDecideBanPrecedence(t *testing.T) {
	plan := testPlan(false, nil)
	user := uuid.New()

	// A ban rejects every action regardless of other eligibility,
	// including accepting a pre-existing invite.
	actions := []struct {
		action models.MembershipAction
		status models.MembershipStatus
	}{
		{models.ActionRequestJoin, models.StatusNone},
		{models.ActionRespondMaybe, models.StatusNone},
		{models.ActionAcceptInvite, models.StatusInvited},
		{models.ActionWithdraw, models.StatusAccepted},
		{models.ActionApprove, models.StatusPending},
		{models.ActionDeny, models.StatusPending},
		{models.ActionInvite, models.StatusNone},
	}
	for _, tc := range actions {
		t.Run(string(tc.action), func(t *testing.T) {
			_, err := Decide(viewFor(plan, user, tc.status, true, 0), tc.action)
			assert.ErrorIs(t, err, ErrBanned)
		})
	}
}

func TestDecideKickAndBanBypassesBanCheck(t *testing.T) {
	plan := testPlan(false, nil)
	user := uuid.New()

	// Kicking an already-banned user succeeds idempotently.
	out, err := Decide(viewFor(plan, user, models.StatusNone, true, 0), models.ActionKickAndBan)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, out.Status)
	require.NotNil(t, out.Ban)
	assert.Equal(t, user, out.Ban.UserID)
	assert.Equal(t, plan.HostUserID, out.Ban.BannedBy)
}

func TestDecideKickAndBanTargetHost(t *testing.T) {
	plan := testPlan(false, nil)
	_, err := Decide(viewFor(plan, plan.HostUserID, models.StatusNone, false, 0), models.ActionKickAndBan)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestDecideRequestJoinPublic(t *testing.T) {
	plan := testPlan(false, nil)
	user := uuid.New()

	out, err := Decide(viewFor(plan, user, models.StatusNone, false, 0), models.ActionRequestJoin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, out.Status)
}

func TestDecideRequestJoinPublicCapacityFull(t *testing.T) {
	plan := testPlan(false, intPtr(2))
	user := uuid.New()

	_, err := Decide(viewFor(plan, user, models.StatusNone, false, 2), models.ActionRequestJoin)
	assert.ErrorIs(t, err, ErrCapacityFull)
}

func TestDecideRequestJoinPrivateIgnoresCapacity(t *testing.T) {
	// Requesting to join a full private plan still yields pending;
	// capacity is checked at acceptance, not at request.
	plan := testPlan(true, intPtr(1))
	user := uuid.New()

	out, err := Decide(viewFor(plan, user, models.StatusNone, false, 1), models.ActionRequestJoin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, out.Status)
}

func TestDecideRequestJoinWhilePendingIsNoop(t *testing.T) {
	plan := testPlan(true, nil)
	user := uuid.New()

	out, err := Decide(viewFor(plan, user, models.StatusPending, false, 0), models.ActionRequestJoin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, out.Status)
	assert.False(t, out.Changed(models.StatusPending))
}

func TestDecideRequestJoinAlreadyAccepted(t *testing.T) {
	plan := testPlan(false, nil)
	user := uuid.New()

	_, err := Decide(viewFor(plan, user, models.StatusAccepted, false, 1), models.ActionRequestJoin)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestDecideApprove(t *testing.T) {
	plan := testPlan(true, intPtr(2))
	user := uuid.New()

	t.Run("pending under capacity", func(t *testing.T) {
		out, err := Decide(viewFor(plan, user, models.StatusPending, false, 1), models.ActionApprove)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, out.Status)
	})

	t.Run("pending at capacity", func(t *testing.T) {
		_, err := Decide(viewFor(plan, user, models.StatusPending, false, 2), models.ActionApprove)
		assert.ErrorIs(t, err, ErrCapacityFull)
	})

	t.Run("no record", func(t *testing.T) {
		_, err := Decide(viewFor(plan, user, models.StatusNone, false, 0), models.ActionApprove)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("already accepted", func(t *testing.T) {
		_, err := Decide(viewFor(plan, user, models.StatusAccepted, false, 1), models.ActionApprove)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("invited record is not approvable", func(t *testing.T) {
		_, err := Decide(viewFor(plan, user, models.StatusInvited, false, 0), models.ActionApprove)
		assert.ErrorIs(t, err, ErrInvalidAction)
	})
}

func TestDecideDenyIdempotent(t *testing.T) {
	plan := testPlan(true, nil)
	user := uuid.New()

	out, err := Decide(viewFor(plan, user, models.StatusPending, false, 0), models.ActionDeny)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, out.Status)

	// Denying again is a no-op success, not an error.
	out, err = Decide(viewFor(plan, user, models.StatusNone, false, 0), models.ActionDeny)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, out.Status)
}

func TestDecideWithdrawIdempotent(t *testing.T) {
	plan := testPlan(false, nil)
	user := uuid.New()

	for _, status := range []models.MembershipStatus{
		models.StatusAccepted, models.StatusPending, models.StatusInvited,
		models.StatusMaybe, models.StatusNone,
	} {
		out, err := Decide(viewFor(plan, user, status, false, 0), models.ActionWithdraw)
		require.NoError(t, err, "withdraw from %s", status)
		assert.Equal(t, models.StatusNone, out.Status)
	}
}

func TestDecideInvite(t *testing.T) {
	plan := testPlan(true, nil)
	user := uuid.New()

	t.Run("fresh invite", func(t *testing.T) {
		out, err := Decide(viewFor(plan, user, models.StatusNone, false, 0), models.ActionInvite)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInvited, out.Status)
		require.NotNil(t, out.InvitedBy)
		assert.Equal(t, plan.HostUserID, *out.InvitedBy)
	})

	t.Run("duplicate invite errors", func(t *testing.T) {
		_, err := Decide(viewFor(plan, user, models.StatusInvited, false, 0), models.ActionInvite)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("inviting an accepted member errors", func(t *testing.T) {
		_, err := Decide(viewFor(plan, user, models.StatusAccepted, false, 1), models.ActionInvite)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("inviting a pending requester upgrades the record", func(t *testing.T) {
		out, err := Decide(viewFor(plan, user, models.StatusPending, false, 0), models.ActionInvite)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInvited, out.Status)
	})
}

func TestDecideAcceptInvite(t *testing.T) {
	plan := testPlan(true, intPtr(1))
	user := uuid.New()

	t.Run("under capacity", func(t *testing.T) {
		out, err := Decide(viewFor(plan, user, models.StatusInvited, false, 0), models.ActionAcceptInvite)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, out.Status)
	})

	t.Run("at capacity keeps invite", func(t *testing.T) {
		_, err := Decide(viewFor(plan, user, models.StatusInvited, false, 1), models.ActionAcceptInvite)
		assert.ErrorIs(t, err, ErrCapacityFull)
	})

	t.Run("without an invite", func(t *testing.T) {
		_, err := Decide(viewFor(plan, user, models.StatusNone, false, 0), models.ActionAcceptInvite)
		assert.ErrorIs(t, err, ErrInvalidAction)
	})
}

func TestDecideMaybe(t *testing.T) {
	plan := testPlan(false, intPtr(1))
	user := uuid.New()

	// Maybe never counts against capacity, even on a full plan.
	out, err := Decide(viewFor(plan, user, models.StatusNone, false, 1), models.ActionRespondMaybe)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMaybe, out.Status)

	// Toggling accepted to maybe and back is allowed.
	out, err = Decide(viewFor(plan, user, models.StatusAccepted, false, 1), models.ActionRespondMaybe)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMaybe, out.Status)

	// Pending and invited records cannot jump to maybe.
	_, err = Decide(viewFor(plan, user, models.StatusPending, false, 0), models.ActionRespondMaybe)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestDecideHostNeverHoldsARow(t *testing.T) {
	plan := testPlan(false, intPtr(1))

	_, err := Decide(viewFor(plan, plan.HostUserID, models.StatusNone, false, 1), models.ActionRequestJoin)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	// Host withdraw is a harmless no-op; no row exists to remove.
	out, err := Decide(viewFor(plan, plan.HostUserID, models.StatusNone, false, 0), models.ActionWithdraw)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, out.Status)
}

func TestDecideUnlimitedCapacity(t *testing.T) {
	plan := testPlan(false, nil)

	for i := 0; i < 50; i++ {
		out, err := Decide(viewFor(plan, uuid.New(), models.StatusNone, false, i), models.ActionRequestJoin)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, out.Status)
	}
}

func TestRejectionClassification(t *testing.T) {
	assert.True(t, IsRetryable(ErrCapacityFull))
	assert.False(t, IsRetryable(ErrBanned))
	assert.True(t, IsTerminal(ErrBanned))
	assert.True(t, IsTerminal(ErrNotAuthorized))
	assert.False(t, IsTerminal(ErrAlreadyMember))
}
