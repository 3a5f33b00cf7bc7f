package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// BlockRepository is the block service consumed by the visibility gate.
// IsBlocked is bidirectional; Block/Unblock edges are directed.
type BlockRepository interface {
	Block(ctx context.Context, blockerID, blockedID uuid.UUID) error
	Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error
	IsBlocked(ctx context.Context, userA, userB uuid.UUID) (bool, error)
}

type blockRepository struct {
	db *sql.DB
}

func NewBlockRepository(db *sql.DB) BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	const query = `
		INSERT INTO app.blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING;
	`
	_, err := r.db.ExecContext(ctx, query, blockerID, blockedID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return errors.New("user not found")
	}
	return errors.Wrap(err, "create block")
}

func (r *blockRepository) Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	const query = `DELETE FROM app.blocks WHERE blocker_id = $1 AND blocked_id = $2;`
	_, err := r.db.ExecContext(ctx, query, blockerID, blockedID)
	return errors.Wrap(err, "remove block")
}

func (r *blockRepository) IsBlocked(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM app.blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		);
	`
	var blocked bool
	if err := r.db.QueryRowContext(ctx, query, userA, userB).Scan(&blocked); err != nil {
		return false, errors.Wrap(err, "check block")
	}
	return blocked, nil
}
