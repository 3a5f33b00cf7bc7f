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

type PlanRepository interface {
	Create(ctx context.Context, plan models.Plan) (models.Plan, error)
	GetByID(ctx context.Context, planID uuid.UUID) (models.Plan, error)
	// ListVisible returns upcoming plans excluding those the viewer is
	// banned from or whose host the viewer is blocked with (either
	// direction). Detail redaction is the visibility gate's job, not the
	// feed query's.
	ListVisible(ctx context.Context, viewerID uuid.UUID, after time.Time, limit int) ([]models.Plan, error)
	Update(ctx context.Context, plan models.Plan) (models.Plan, error)
	// Delete removes the plan; membership rows and bans cascade.
	Delete(ctx context.Context, planID uuid.UUID) error
}

type planRepository struct {
	db *sql.DB
}

func NewPlanRepository(db *sql.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, plan models.Plan) (models.Plan, error) {
	const query = `
		INSERT INTO app.plans (host_user_id, title, description, emoji, starts_at, lat, lng, address, is_private, max_attendees)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + planColumns + `;
	`
	var maxAttendees interface{}
	if plan.MaxAttendees != nil {
		maxAttendees = *plan.MaxAttendees
	}
	created, err := scanPlan(r.db.QueryRowContext(ctx, query,
		plan.HostUserID,
		plan.Title,
		plan.Description,
		plan.Emoji,
		plan.StartsAt,
		plan.Latitude,
		plan.Longitude,
		plan.Address,
		plan.IsPrivate,
		maxAttendees,
	))
	if err != nil {
		return models.Plan{}, errors.Wrap(err, "create plan")
	}
	return created, nil
}

func (r *planRepository) GetByID(ctx context.Context, planID uuid.UUID) (models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM app.plans WHERE id = $1;`
	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, planID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Plan{}, membership.ErrNotFound
		}
		return models.Plan{}, errors.Wrap(err, "get plan")
	}
	return plan, nil
}

func (r *planRepository) ListVisible(ctx context.Context, viewerID uuid.UUID, after time.Time, limit int) ([]models.Plan, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `
		SELECT ` + planColumns + `
		FROM app.plans p
		WHERE p.starts_at >= $2
		  AND NOT EXISTS (
			SELECT 1 FROM app.bans b
			WHERE b.plan_id = p.id AND b.user_id = $1
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM app.blocks bl
			WHERE (bl.blocker_id = p.host_user_id AND bl.blocked_id = $1)
			   OR (bl.blocker_id = $1 AND bl.blocked_id = p.host_user_id)
		  )
		ORDER BY p.starts_at ASC
		LIMIT $3;
	`
	rows, err := r.db.QueryContext(ctx, query, viewerID, after, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list plans")
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (r *planRepository) Update(ctx context.Context, plan models.Plan) (models.Plan, error) {
	// Last-writer-wins; plan fields are plain CRUD, not part of the state
	// machine.
	const query = `
		UPDATE app.plans
		SET title = $2, description = $3, emoji = $4, starts_at = $5,
		    lat = $6, lng = $7, address = $8, is_private = $9,
		    max_attendees = $10, updated_at = now()
		WHERE id = $1
		RETURNING ` + planColumns + `;
	`
	var maxAttendees interface{}
	if plan.MaxAttendees != nil {
		maxAttendees = *plan.MaxAttendees
	}
	updated, err := scanPlan(r.db.QueryRowContext(ctx, query,
		plan.ID,
		plan.Title,
		plan.Description,
		plan.Emoji,
		plan.StartsAt,
		plan.Latitude,
		plan.Longitude,
		plan.Address,
		plan.IsPrivate,
		maxAttendees,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Plan{}, membership.ErrNotFound
		}
		return models.Plan{}, errors.Wrap(err, "update plan")
	}
	return updated, nil
}

func (r *planRepository) Delete(ctx context.Context, planID uuid.UUID) error {
	const query = `DELETE FROM app.plans WHERE id = $1;`
	result, err := r.db.ExecContext(ctx, query, planID)
	if err != nil {
		return errors.Wrap(err, "delete plan")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return membership.ErrNotFound
	}
	return nil
}
