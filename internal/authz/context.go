package authz

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "user_id"

// WithIdentity stores the authenticated user id on the context. This layer
// never authenticates; it only carries the identity the session middleware
// verified.
func WithIdentity(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromRequest(r *http.Request) (uuid.UUID, bool) {
	uid, ok := r.Context().Value(userIDKey).(uuid.UUID)
	if !ok || uid == uuid.Nil {
		return uuid.Nil, false
	}
	return uid, true
}
