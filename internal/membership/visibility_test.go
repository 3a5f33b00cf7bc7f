package membership

import (
	"testing"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateHost(t *testing.T) {
	plan := testPlan(true, nil)
	vis := Evaluate(plan, models.EmptyRecord(plan.ID, plan.HostUserID), false, false)
	assert.True(t, vis.CanSeeSummary)
	assert.True(t, vis.CanSeeDetails)
	assert.False(t, vis.CanRespond)
	assert.Empty(t, vis.Actions)
}

func TestEvaluatePrivatePlanGating(t *testing.T) {
	plan := testPlan(true, nil)
	user := uuid.New()

	record := models.EmptyRecord(plan.ID, user)
	record.Status = models.StatusPending
	vis := Evaluate(plan, record, false, false)
	assert.True(t, vis.CanSeeSummary, "pending actor sees the summary")
	assert.False(t, vis.CanSeeDetails, "pending actor must not see coordinates")
	assert.Equal(t, []models.MembershipAction{models.ActionWithdraw}, vis.Actions)

	// After approval the same evaluation immediately grants details;
	// nothing is cached between calls.
	record.Status = models.StatusAccepted
	vis = Evaluate(plan, record, false, false)
	assert.True(t, vis.CanSeeDetails)
}

func TestEvaluatePublicPlan(t *testing.T) {
	plan := testPlan(false, nil)
	vis := Evaluate(plan, models.EmptyRecord(plan.ID, uuid.New()), false, false)
	assert.True(t, vis.CanSeeSummary)
	assert.True(t, vis.CanSeeDetails)
	assert.Contains(t, vis.Actions, models.ActionRequestJoin)
}

func TestEvaluateBanned(t *testing.T) {
	plan := testPlan(false, nil)
	vis := Evaluate(plan, models.EmptyRecord(plan.ID, uuid.New()), true, false)
	assert.False(t, vis.CanSeeSummary)
	assert.False(t, vis.CanSeeDetails)
	assert.False(t, vis.CanRespond)
	assert.Empty(t, vis.Actions)
}

func TestEvaluateBlocked(t *testing.T) {
	plan := testPlan(false, nil)
	vis := Evaluate(plan, models.EmptyRecord(plan.ID, uuid.New()), false, true)
	assert.False(t, vis.CanSeeSummary)
	assert.False(t, vis.CanSeeDetails)
	assert.True(t, vis.CanRespond, "a block hides the plan but does not revoke responding")
	assert.Empty(t, vis.Actions)
}

func TestEvaluateOfferedActions(t *testing.T) {
	plan := testPlan(true, nil)
	user := uuid.New()

	cases := []struct {
		status  models.MembershipStatus
		actions []models.MembershipAction
	}{
		{models.StatusNone, []models.MembershipAction{models.ActionRequestJoin, models.ActionRespondMaybe}},
		{models.StatusPending, []models.MembershipAction{models.ActionWithdraw}},
		{models.StatusInvited, []models.MembershipAction{models.ActionAcceptInvite, models.ActionWithdraw}},
		{models.StatusAccepted, []models.MembershipAction{models.ActionWithdraw, models.ActionRespondMaybe}},
		{models.StatusMaybe, []models.MembershipAction{models.ActionWithdraw, models.ActionRequestJoin}},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			record := models.EmptyRecord(plan.ID, user)
			record.Status = tc.status
			vis := Evaluate(plan, record, false, false)
			assert.Equal(t, tc.actions, vis.Actions)
		})
	}
}
