package membership

import "github.com/friendmap/plans-api/internal/models"

// Visibility is what a single actor may see of a plan and which actions the
// UI should offer. It is computed from current state only; nothing here is
// cached, so a fresh approval is reflected on the very next evaluation.
type Visibility struct {
	CanSeeSummary bool                      `json:"can_see_summary"`
	CanSeeDetails bool                      `json:"can_see_details"`
	CanRespond    bool                      `json:"can_respond"`
	Actions       []models.MembershipAction `json:"actions"`
}

// Evaluate is the visibility gate: a pure predicate over the actor's record,
// ban state, and the bidirectional block relationship between actor and
// host. Summary means title, emoji, and coarse time; details add exact
// coordinates, address, and the full description.
func Evaluate(plan models.Plan, record models.MembershipRecord, banned, blocked bool) Visibility {
	if plan.IsHost(record.UserID) {
		return Visibility{CanSeeSummary: true, CanSeeDetails: true}
	}

	if banned {
		return Visibility{}
	}
	if blocked {
		// A block in either direction hides the pair from each other, but
		// only a ban revokes the right to respond.
		return Visibility{CanRespond: true}
	}

	v := Visibility{
		CanSeeSummary: true,
		CanSeeDetails: !plan.IsPrivate || record.Status == models.StatusAccepted,
		CanRespond:    true,
	}

	switch record.Status {
	case models.StatusNone:
		v.Actions = []models.MembershipAction{models.ActionRequestJoin, models.ActionRespondMaybe}
	case models.StatusPending:
		v.Actions = []models.MembershipAction{models.ActionWithdraw}
	case models.StatusInvited:
		v.Actions = []models.MembershipAction{models.ActionAcceptInvite, models.ActionWithdraw}
	case models.StatusAccepted:
		v.Actions = []models.MembershipAction{models.ActionWithdraw, models.ActionRespondMaybe}
	case models.StatusMaybe:
		v.Actions = []models.MembershipAction{models.ActionWithdraw, models.ActionRequestJoin}
	}
	return v
}
