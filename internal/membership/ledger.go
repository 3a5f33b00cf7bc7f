package membership

import (
	"context"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
)

// DecideFunc runs inside the ledger's atomic unit. It receives the snapshot
// assembled under the plan lock and returns the outcome to commit, or a
// rejection that rolls the unit back.
type DecideFunc func(View) (Outcome, error)

// Result reports a committed transition: the snapshot the decision saw and
// the ledger row as written (status none when the row was removed).
type Result struct {
	Before View
	Record models.MembershipRecord
}

// Ledger is the durable membership store. Implementations must make
// Transition a single serializable unit keyed by planID: the plan row is
// locked, the ban record and accepted count are read, the decision runs,
// and the row (plus any ban) is written, all before the unit commits.
// Two acceptances racing for the last slot must serialize here.
type Ledger interface {
	// Snapshot reads the transition inputs without taking the plan lock.
	// Used for visibility evaluation and other read paths.
	Snapshot(ctx context.Context, planID, userID uuid.UUID) (View, error)

	// Transition atomically applies fn to the current state of
	// (planID, userID). Returns ErrNotFound when the plan does not exist.
	Transition(ctx context.Context, planID, userID uuid.UUID, fn DecideFunc) (Result, error)

	// RemoveBan deletes the ban record for (planID, userID). Removing an
	// absent ban is a no-op. Membership is never restored.
	RemoveBan(ctx context.Context, planID, userID uuid.UUID) error

	// Members lists the ledger rows for a plan.
	Members(ctx context.Context, planID uuid.UUID) ([]models.MembershipRecord, error)
}

// BlockChecker is the external block service consulted by the visibility
// gate. The check is bidirectional.
type BlockChecker interface {
	IsBlocked(ctx context.Context, userA, userB uuid.UUID) (bool, error)
}

// Events receives notification-worthy membership transitions. Delivery is
// fire-and-forget: implementations log failures and never propagate them
// back into the transition.
type Events interface {
	JoinRequested(ctx context.Context, plan models.Plan, actorID uuid.UUID)
	Invited(ctx context.Context, plan models.Plan, actorID uuid.UUID)
	Approved(ctx context.Context, plan models.Plan, actorID uuid.UUID)
	Kicked(ctx context.Context, plan models.Plan, actorID uuid.UUID)
}
