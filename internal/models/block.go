package models

import (
	"time"

	"github.com/google/uuid"
)

// Block is a directed block edge between two users. Visibility checks treat
// blocks as bidirectional: either direction hides the pair from each other.
type Block struct {
	BlockerID uuid.UUID `json:"blocker_id"`
	BlockedID uuid.UUID `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}
