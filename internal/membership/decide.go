package membership

import (
	"time"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
)

// View is the snapshot of everything the transition function is allowed to
// look at. The ledger assembles it inside the same atomic unit that commits
// the outcome, so a concurrent approval or ban can never slip between the
// read and the write.
type View struct {
	Plan          models.Plan
	Record        models.MembershipRecord
	Banned        bool
	AcceptedCount int
}

// Outcome is the committed result of a successful transition. StatusNone
// means the ledger row is removed. Ban is set only by kick-and-ban, which
// writes the ban and clears the row in one unit.
type Outcome struct {
	Status    models.MembershipStatus
	InvitedBy *uuid.UUID
	Ban       *models.BanRecord
}

// Changed reports whether the outcome moves the record away from its
// current status. No-op successes (idempotent deny/withdraw retries) emit
// no events.
func (o Outcome) Changed(current models.MembershipStatus) bool {
	return o.Status != current
}

// Decide is the membership transition function. It is pure: given the
// snapshot and a requested action it either returns the new record state or
// a rejection, and never mutates anything itself.
//
// Rule precedence: kick-and-ban bypasses every other rule (host authority is
// verified by the caller); host-as-subject short-circuits next, since the
// host holds no ledger row; an active ban rejects everything else; then the
// per-action rules, with the capacity re-check guarding every path into
// accepted.
func Decide(v View, action models.MembershipAction) (Outcome, error) {
	subject := v.Record.UserID

	if action == models.ActionKickAndBan {
		if v.Plan.IsHost(subject) {
			return Outcome{}, ErrNotAuthorized
		}
		return Outcome{
			Status: models.StatusNone,
			Ban: &models.BanRecord{
				PlanID:   v.Plan.ID,
				UserID:   subject,
				BannedBy: v.Plan.HostUserID,
			},
		}, nil
	}

	if v.Plan.IsHost(subject) {
		// The host is implicitly accepted and never appears in the ledger.
		switch action {
		case models.ActionWithdraw, models.ActionDeny:
			return Outcome{Status: models.StatusNone}, nil
		default:
			return Outcome{}, ErrAlreadyMember
		}
	}

	if v.Banned {
		return Outcome{}, ErrBanned
	}

	current := v.Record.Status

	switch action {
	case models.ActionRequestJoin:
		switch current {
		case models.StatusAccepted:
			return Outcome{}, ErrAlreadyMember
		case models.StatusPending:
			// Re-requesting while pending is a no-op success.
			return Outcome{Status: models.StatusPending}, nil
		}
		if v.Plan.IsPrivate {
			// Capacity is checked at acceptance, not at request.
			return Outcome{Status: models.StatusPending}, nil
		}
		if err := checkCapacity(v); err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: models.StatusAccepted}, nil

	case models.ActionRespondMaybe:
		switch current {
		case models.StatusNone, models.StatusAccepted, models.StatusMaybe:
			return Outcome{Status: models.StatusMaybe}, nil
		}
		return Outcome{}, ErrInvalidAction

	case models.ActionWithdraw:
		// Withdrawal from any state, idempotent. Leaving accepted frees a
		// capacity slot by virtue of the row going away.
		return Outcome{Status: models.StatusNone}, nil

	case models.ActionAcceptInvite:
		switch current {
		case models.StatusAccepted:
			return Outcome{}, ErrAlreadyMember
		case models.StatusInvited:
			if err := checkCapacity(v); err != nil {
				// The invited record is left intact for a later retry.
				return Outcome{}, err
			}
			return Outcome{Status: models.StatusAccepted, InvitedBy: v.Record.InvitedBy}, nil
		}
		return Outcome{}, ErrInvalidAction

	case models.ActionApprove:
		switch current {
		case models.StatusAccepted:
			return Outcome{}, ErrAlreadyMember
		case models.StatusNone:
			return Outcome{}, ErrNotFound
		case models.StatusPending:
			if err := checkCapacity(v); err != nil {
				// A failed approval leaves the request pending, never
				// silently dropped.
				return Outcome{}, err
			}
			return Outcome{Status: models.StatusAccepted}, nil
		}
		return Outcome{}, ErrInvalidAction

	case models.ActionDeny:
		switch current {
		case models.StatusPending, models.StatusNone:
			return Outcome{Status: models.StatusNone}, nil
		}
		return Outcome{}, ErrInvalidAction

	case models.ActionInvite:
		switch current {
		case models.StatusAccepted, models.StatusInvited:
			return Outcome{}, ErrAlreadyMember
		}
		host := v.Plan.HostUserID
		return Outcome{Status: models.StatusInvited, InvitedBy: &host}, nil
	}

	return Outcome{}, ErrInvalidAction
}

func checkCapacity(v View) error {
	if !v.Plan.HasCapacityLimit() {
		return nil
	}
	if v.AcceptedCount >= *v.Plan.MaxAttendees {
		return ErrCapacityFull
	}
	return nil
}

// Record materializes the outcome into a ledger row for the subject.
func (o Outcome) Record(planID, userID uuid.UUID, now time.Time) models.MembershipRecord {
	return models.MembershipRecord{
		PlanID:      planID,
		UserID:      userID,
		Status:      o.Status,
		RespondedAt: now,
		InvitedBy:   o.InvitedBy,
	}
}
