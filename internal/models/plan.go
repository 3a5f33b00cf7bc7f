package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a hosted time-and-place event that other users can join. Privacy
// and capacity are read fresh on every membership transition; the state
// machine never caches them.
type Plan struct {
	ID           uuid.UUID `json:"id"`
	HostUserID   uuid.UUID `json:"host_user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Emoji        string    `json:"emoji"`
	StartsAt     time.Time `json:"starts_at"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Address      string    `json:"address"`
	IsPrivate    bool      `json:"is_private"`
	MaxAttendees *int      `json:"max_attendees,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsHost reports whether userID hosts the plan. The host is implicitly an
// accepted member, holds no ledger row, and is exempt from capacity and ban
// checks.
func (p Plan) IsHost(userID uuid.UUID) bool {
	return p.HostUserID == userID
}

// HasCapacityLimit reports whether the plan caps accepted members.
// A nil MaxAttendees means unlimited.
func (p Plan) HasCapacityLimit() bool {
	return p.MaxAttendees != nil
}

// PlanSummary is the redacted view of a plan offered to actors who may not
// see its details: title, emoji, and coarse time only. Precise coordinates,
// address, and the full description are withheld.
type PlanSummary struct {
	ID           uuid.UUID `json:"id"`
	HostUserID   uuid.UUID `json:"host_user_id"`
	Title        string    `json:"title"`
	Emoji        string    `json:"emoji"`
	StartsOn     time.Time `json:"starts_on"`
	IsPrivate    bool      `json:"is_private"`
	MaxAttendees *int      `json:"max_attendees,omitempty"`
}

// Summary returns the redacted view. The start time is truncated to the day
// so a private plan leaks no precise schedule.
func (p Plan) Summary() PlanSummary {
	return PlanSummary{
		ID:           p.ID,
		HostUserID:   p.HostUserID,
		Title:        p.Title,
		Emoji:        p.Emoji,
		StartsOn:     p.StartsAt.Truncate(24 * time.Hour),
		IsPrivate:    p.IsPrivate,
		MaxAttendees: p.MaxAttendees,
	}
}
