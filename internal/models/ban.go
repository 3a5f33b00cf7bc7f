package models

import (
	"time"

	"github.com/google/uuid"
)

// BanRecord permanently excludes a user from a plan. It is keyed
// independently of the membership ledger so the exclusion survives deletion
// of the membership row. Only the host creates or deletes bans.
type BanRecord struct {
	PlanID    uuid.UUID `json:"plan_id"`
	UserID    uuid.UUID `json:"user_id"`
	BannedBy  uuid.UUID `json:"banned_by"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
