package membership

import "errors"

// Rejection reasons returned by the state machine and the moderation
// operations. Invalid input is always a normal rejection, never a panic.
var (
	// ErrBanned: the actor holds an active ban for the plan. Permanent;
	// checked before every other rule and never overridden.
	ErrBanned = errors.New("banned from plan")

	// ErrNotAuthorized: the actor lacks host privilege for a host-only
	// operation, or may not view a private plan's membership.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrCapacityFull: the plan's accepted count has reached max_attendees.
	// Transient; the actor's record is preserved so a retry is possible.
	ErrCapacityFull = errors.New("plan is at capacity")

	// ErrAlreadyMember: duplicate invite or join against an existing
	// accepted or invited record. Informational.
	ErrAlreadyMember = errors.New("already a member")

	// ErrNotFound: the plan or membership record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAction: the requested action is not defined for the
	// record's current status.
	ErrInvalidAction = errors.New("invalid action for current status")
)

// IsRetryable reports whether the rejection is worth retrying later.
// Only capacity exhaustion is transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCapacityFull)
}

// IsTerminal reports whether the rejection can never succeed on retry.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrBanned) || errors.Is(err, ErrNotAuthorized)
}
