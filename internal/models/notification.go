package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationEvent string

const (
	NotificationEventJoinRequested NotificationEvent = "join_requested"
	NotificationEventInvited       NotificationEvent = "invited"
	NotificationEventApproved      NotificationEvent = "approved"
	NotificationEventKicked        NotificationEvent = "kicked"
)

type Notification struct {
	ID          uuid.UUID         `json:"id"`
	RecipientID uuid.UUID         `json:"recipient_id"`
	PlanID      uuid.UUID         `json:"plan_id"`
	ActorID     uuid.UUID         `json:"actor_id"`
	EventType   NotificationEvent `json:"event_type"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Metadata    json.RawMessage   `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ReadAt      *time.Time        `json:"read_at,omitempty"`
}
