package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipStatus is the closed set of RSVP states a user can hold on a
// plan. Absence of a MembershipRecord is equivalent to StatusNone.
type MembershipStatus string

const (
	StatusNone     MembershipStatus = "none"
	StatusPending  MembershipStatus = "pending"
	StatusInvited  MembershipStatus = "invited"
	StatusMaybe    MembershipStatus = "maybe"
	StatusAccepted MembershipStatus = "accepted"
)

// IsValidStatus reports whether s is a known membership status.
func IsValidStatus(s MembershipStatus) bool {
	switch s {
	case StatusNone, StatusPending, StatusInvited, StatusMaybe, StatusAccepted:
		return true
	}
	return false
}

// CountsTowardCapacity reports whether the status occupies an attendee slot.
// Only accepted members count; pending, invited, and maybe do not.
func (s MembershipStatus) CountsTowardCapacity() bool {
	return s == StatusAccepted
}

// MembershipAction is a requested transition on a membership record.
type MembershipAction string

const (
	// Actor-initiated actions.
	ActionRequestJoin  MembershipAction = "request_join"
	ActionRespondMaybe MembershipAction = "respond_maybe"
	ActionWithdraw     MembershipAction = "withdraw"
	ActionAcceptInvite MembershipAction = "accept_invite"

	// Host-initiated actions (moderation).
	ActionApprove    MembershipAction = "approve"
	ActionDeny       MembershipAction = "deny"
	ActionInvite     MembershipAction = "invite"
	ActionKickAndBan MembershipAction = "kick_and_ban"
)

// MembershipRecord is one ledger row: the relationship of a single user to a
// single plan. At most one record exists per (plan, user) pair.
type MembershipRecord struct {
	PlanID      uuid.UUID        `json:"plan_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Status      MembershipStatus `json:"status"`
	RespondedAt time.Time        `json:"responded_at"`
	InvitedBy   *uuid.UUID       `json:"invited_by,omitempty"`
}

// EmptyRecord returns the implicit record for a (plan, user) pair with no
// ledger row.
func EmptyRecord(planID, userID uuid.UUID) MembershipRecord {
	return MembershipRecord{PlanID: planID, UserID: userID, Status: StatusNone}
}
