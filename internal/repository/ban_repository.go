package repository

import (
	"context"
	"database/sql"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// BanRepository reads the ban list. Bans are written through the membership
// ledger (kick-and-ban is atomic with the row removal); this repository only
// serves the host's moderation views.
type BanRepository interface {
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]models.BanRecord, error)
}

type banRepository struct {
	db *sql.DB
}

func NewBanRepository(db *sql.DB) BanRepository {
	return &banRepository{db: db}
}

func (r *banRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]models.BanRecord, error) {
	const query = `
		SELECT plan_id, user_id, banned_by, reason, created_at
		FROM app.bans
		WHERE plan_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, errors.Wrap(err, "list bans")
	}
	defer rows.Close()

	var bans []models.BanRecord
	for rows.Next() {
		var (
			ban    models.BanRecord
			reason sql.NullString
		)
		if err := rows.Scan(&ban.PlanID, &ban.UserID, &ban.BannedBy, &reason, &ban.CreatedAt); err != nil {
			return nil, err
		}
		if reason.Valid {
			val := reason.String
			ban.Reason = &val
		}
		bans = append(bans, ban)
	}
	return bans, rows.Err()
}
