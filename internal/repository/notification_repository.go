package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type NotificationRepository interface {
	Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error)
	ListRecent(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) (models.Notification, error)
}

type CreateNotificationParams struct {
	RecipientID uuid.UUID
	PlanID      uuid.UUID
	ActorID     uuid.UUID
	Event       models.NotificationEvent
	Title       string
	Message     string
	Metadata    map[string]interface{}
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, recipient_id, plan_id, actor_id, event_type, title, message, metadata, created_at, read_at`

func (r *notificationRepository) Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error) {
	const query = `
		INSERT INTO app.notifications (recipient_id, plan_id, actor_id, event_type, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + notificationColumns + `;
	`

	var metadata interface{}
	if len(params.Metadata) > 0 {
		raw, err := json.Marshal(params.Metadata)
		if err != nil {
			return models.Notification{}, errors.Wrap(err, "marshal metadata")
		}
		metadata = raw
	}

	row := r.db.QueryRowContext(ctx, query,
		params.RecipientID, params.PlanID, params.ActorID,
		params.Event, params.Title, params.Message, metadata)
	return scanNotification(row)
}

func (r *notificationRepository) ListRecent(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	const query = `
		SELECT ` + notificationColumns + `
		FROM app.notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`
	rows, err := r.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) (models.Notification, error) {
	const query = `
		UPDATE app.notifications
		SET read_at = now()
		WHERE id = $1 AND recipient_id = $2
		RETURNING ` + notificationColumns + `;
	`
	row := r.db.QueryRowContext(ctx, query, notificationID, recipientID)
	return scanNotification(row)
}

func scanNotification(s rowScanner) (models.Notification, error) {
	var (
		notif       models.Notification
		metadataRaw []byte
		readAt      sql.NullTime
	)
	if err := s.Scan(
		&notif.ID,
		&notif.RecipientID,
		&notif.PlanID,
		&notif.ActorID,
		&notif.EventType,
		&notif.Title,
		&notif.Message,
		&metadataRaw,
		&notif.CreatedAt,
		&readAt,
	); err != nil {
		return models.Notification{}, err
	}
	if len(metadataRaw) > 0 {
		notif.Metadata = metadataRaw
	}
	if readAt.Valid {
		t := readAt.Time
		notif.ReadAt = &t
	}
	return notif, nil
}
