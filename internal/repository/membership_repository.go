package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/friendmap/plans-api/internal/membership"
	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// membershipRepository implements membership.Ledger on Postgres. Transition
// locks the plan row FOR UPDATE so the ban read, the accepted count, and the
// status write happen in one serializable unit per plan; two approvals
// racing for the last slot serialize on that lock.
type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) membership.Ledger {
	return &membershipRepository{db: db}
}

const planColumns = `
	id, host_user_id, title, description, emoji, starts_at,
	lat, lng, address, is_private, max_attendees, created_at, updated_at`

func (r *membershipRepository) Snapshot(ctx context.Context, planID, userID uuid.UUID) (membership.View, error) {
	return r.loadView(ctx, r.db, planID, userID, false)
}

func (r *membershipRepository) Transition(ctx context.Context, planID, userID uuid.UUID, fn membership.DecideFunc) (membership.Result, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return membership.Result{}, errors.Wrap(err, "begin membership transition")
	}
	defer tx.Rollback()

	view, err := r.loadView(ctx, tx, planID, userID, true)
	if err != nil {
		return membership.Result{}, err
	}

	outcome, err := fn(view)
	if err != nil {
		return membership.Result{}, err
	}

	now := time.Now().UTC()
	if outcome.Ban != nil {
		const banQuery = `
			INSERT INTO app.bans (plan_id, user_id, banned_by, reason)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (plan_id, user_id) DO NOTHING;
		`
		if _, err := tx.ExecContext(ctx, banQuery, outcome.Ban.PlanID, outcome.Ban.UserID, outcome.Ban.BannedBy, outcome.Ban.Reason); err != nil {
			return membership.Result{}, errors.Wrap(err, "write ban record")
		}
	}

	record := outcome.Record(planID, userID, now)
	if outcome.Status == models.StatusNone {
		const deleteQuery = `DELETE FROM app.memberships WHERE plan_id = $1 AND user_id = $2;`
		if _, err := tx.ExecContext(ctx, deleteQuery, planID, userID); err != nil {
			return membership.Result{}, errors.Wrap(err, "clear membership record")
		}
	} else {
		const upsertQuery = `
			INSERT INTO app.memberships (plan_id, user_id, status, responded_at, invited_by)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (plan_id, user_id)
			DO UPDATE SET status = EXCLUDED.status,
			              responded_at = EXCLUDED.responded_at,
			              invited_by = EXCLUDED.invited_by;
		`
		if _, err := tx.ExecContext(ctx, upsertQuery, planID, userID, record.Status, record.RespondedAt, record.InvitedBy); err != nil {
			return membership.Result{}, errors.Wrap(err, "write membership record")
		}
	}

	if err := tx.Commit(); err != nil {
		return membership.Result{}, errors.Wrap(err, "commit membership transition")
	}

	return membership.Result{Before: view, Record: record}, nil
}

func (r *membershipRepository) RemoveBan(ctx context.Context, planID, userID uuid.UUID) error {
	const query = `DELETE FROM app.bans WHERE plan_id = $1 AND user_id = $2;`
	_, err := r.db.ExecContext(ctx, query, planID, userID)
	return errors.Wrap(err, "remove ban")
}

func (r *membershipRepository) Members(ctx context.Context, planID uuid.UUID) ([]models.MembershipRecord, error) {
	const query = `
		SELECT plan_id, user_id, status, responded_at, invited_by
		FROM app.memberships
		WHERE plan_id = $1
		ORDER BY responded_at ASC;
	`
	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, errors.Wrap(err, "list members")
	}
	defer rows.Close()

	var records []models.MembershipRecord
	for rows.Next() {
		record, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// loadView assembles the transition snapshot. With forUpdate the plan row is
// locked until the surrounding transaction commits, which is what makes the
// capacity re-check safe against concurrent acceptances.
func (r *membershipRepository) loadView(ctx context.Context, q querier, planID, userID uuid.UUID, forUpdate bool) (membership.View, error) {
	planQuery := `SELECT ` + planColumns + ` FROM app.plans WHERE id = $1`
	if forUpdate {
		planQuery += ` FOR UPDATE`
	}

	plan, err := scanPlan(q.QueryRowContext(ctx, planQuery+";", planID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return membership.View{}, membership.ErrNotFound
		}
		return membership.View{}, errors.Wrap(err, "load plan")
	}

	view := membership.View{Plan: plan, Record: models.EmptyRecord(planID, userID)}

	const recordQuery = `
		SELECT plan_id, user_id, status, responded_at, invited_by
		FROM app.memberships
		WHERE plan_id = $1 AND user_id = $2;
	`
	record, err := scanMembership(q.QueryRowContext(ctx, recordQuery, planID, userID))
	switch {
	case err == nil:
		view.Record = record
	case errors.Is(err, sql.ErrNoRows):
		// Absence of a row is status none.
	default:
		return membership.View{}, errors.Wrap(err, "load membership record")
	}

	const banQuery = `SELECT EXISTS (SELECT 1 FROM app.bans WHERE plan_id = $1 AND user_id = $2);`
	if err := q.QueryRowContext(ctx, banQuery, planID, userID).Scan(&view.Banned); err != nil {
		return membership.View{}, errors.Wrap(err, "load ban record")
	}

	const countQuery = `SELECT COUNT(*) FROM app.memberships WHERE plan_id = $1 AND status = 'accepted';`
	if err := q.QueryRowContext(ctx, countQuery, planID).Scan(&view.AcceptedCount); err != nil {
		return membership.View{}, errors.Wrap(err, "count accepted members")
	}

	return view, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMembership(s rowScanner) (models.MembershipRecord, error) {
	var (
		record    models.MembershipRecord
		status    string
		invitedBy sql.NullString
	)
	if err := s.Scan(&record.PlanID, &record.UserID, &status, &record.RespondedAt, &invitedBy); err != nil {
		return models.MembershipRecord{}, err
	}
	record.Status = models.MembershipStatus(status)
	if !models.IsValidStatus(record.Status) {
		return models.MembershipRecord{}, errors.Errorf("membership row has unknown status %q", status)
	}
	if invitedBy.Valid {
		id, err := uuid.Parse(invitedBy.String)
		if err != nil {
			return models.MembershipRecord{}, errors.Wrap(err, "parse invited_by")
		}
		record.InvitedBy = &id
	}
	return record, nil
}

func scanPlan(s rowScanner) (models.Plan, error) {
	var (
		plan         models.Plan
		maxAttendees sql.NullInt64
	)
	if err := s.Scan(
		&plan.ID,
		&plan.HostUserID,
		&plan.Title,
		&plan.Description,
		&plan.Emoji,
		&plan.StartsAt,
		&plan.Latitude,
		&plan.Longitude,
		&plan.Address,
		&plan.IsPrivate,
		&maxAttendees,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return models.Plan{}, err
	}
	if maxAttendees.Valid {
		n := int(maxAttendees.Int64)
		plan.MaxAttendees = &n
	}
	return plan, nil
}
