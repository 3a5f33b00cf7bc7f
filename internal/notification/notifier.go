package notification

import (
	"context"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/rs/zerolog"
)

// Notifier delivers a persisted notification over one channel (push, email,
// websocket fanout). Delivery is best-effort; the membership transition that
// produced the event has already committed.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

func logNotifyError(logger zerolog.Logger, err error, channel string, notif models.Notification) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("notification_id", notif.ID.String()).
		Str("event_type", string(notif.EventType)).
		Str("channel", channel).
		Msg("failed to deliver notification")
}

// LogNotifier writes deliveries to the log. Used as the default channel in
// deployments without a push provider configured.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, notif models.Notification) error {
	n.Logger.Info().
		Str("recipient_id", notif.RecipientID.String()).
		Str("event_type", string(notif.EventType)).
		Str("plan_id", notif.PlanID.String()).
		Msg(notif.Title)
	return nil
}

func (n LogNotifier) String() string { return "log" }
