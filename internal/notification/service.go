package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/friendmap/plans-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is one notification-worthy membership transition.
type Event struct {
	RecipientID uuid.UUID
	PlanID      uuid.UUID
	ActorID     uuid.UUID
	Event       models.NotificationEvent
	Title       string
	Message     string
	Metadata    map[string]interface{}
}

// Service persists membership events and fans them out to the configured
// notifiers. It implements membership.Events: every method is
// fire-and-forget, so a failed persist or delivery is logged and never
// surfaces to the transition that emitted the event.
type Service interface {
	Publish(ctx context.Context, evt Event)

	JoinRequested(ctx context.Context, plan models.Plan, actorID uuid.UUID)
	Invited(ctx context.Context, plan models.Plan, actorID uuid.UUID)
	Approved(ctx context.Context, plan models.Plan, actorID uuid.UUID)
	Kicked(ctx context.Context, plan models.Plan, actorID uuid.UUID)

	ListRecent(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) (models.Notification, error)
}

type service struct {
	repo      repository.NotificationRepository
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewService(repo repository.NotificationRepository, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		repo:      repo,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
	}
}

func (s *service) Publish(ctx context.Context, evt Event) {
	title := strings.TrimSpace(evt.Title)
	if title == "" {
		title = string(evt.Event)
	}

	notif, err := s.repo.Create(ctx, repository.CreateNotificationParams{
		RecipientID: evt.RecipientID,
		PlanID:      evt.PlanID,
		ActorID:     evt.ActorID,
		Event:       evt.Event,
		Title:       title,
		Message:     strings.TrimSpace(evt.Message),
		Metadata:    evt.Metadata,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(evt.Event)).Msg("failed to persist notification")
		return
	}
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, notif); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), notif)
		}
	}
}

func (s *service) JoinRequested(ctx context.Context, plan models.Plan, actorID uuid.UUID) {
	s.Publish(ctx, Event{
		RecipientID: plan.HostUserID,
		PlanID:      plan.ID,
		ActorID:     actorID,
		Event:       models.NotificationEventJoinRequested,
		Title:       fmt.Sprintf("New request to join %s", plan.Title),
		Message:     "Someone asked to join your plan. Approve or deny the request.",
		Metadata:    planMetadata(plan),
	})
}

func (s *service) Invited(ctx context.Context, plan models.Plan, actorID uuid.UUID) {
	s.Publish(ctx, Event{
		RecipientID: actorID,
		PlanID:      plan.ID,
		ActorID:     plan.HostUserID,
		Event:       models.NotificationEventInvited,
		Title:       fmt.Sprintf("You're invited to %s", plan.Title),
		Message:     "The host invited you. Accept to join.",
		Metadata:    planMetadata(plan),
	})
}

func (s *service) Approved(ctx context.Context, plan models.Plan, actorID uuid.UUID) {
	s.Publish(ctx, Event{
		RecipientID: actorID,
		PlanID:      plan.ID,
		ActorID:     plan.HostUserID,
		Event:       models.NotificationEventApproved,
		Title:       fmt.Sprintf("You're in: %s", plan.Title),
		Message:     "You are now an attendee.",
		Metadata:    planMetadata(plan),
	})
}

func (s *service) Kicked(ctx context.Context, plan models.Plan, actorID uuid.UUID) {
	s.Publish(ctx, Event{
		RecipientID: actorID,
		PlanID:      plan.ID,
		ActorID:     plan.HostUserID,
		Event:       models.NotificationEventKicked,
		Title:       fmt.Sprintf("Removed from %s", plan.Title),
		Message:     "The host removed you from this plan.",
		Metadata:    planMetadata(plan),
	})
}

func (s *service) ListRecent(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	return s.repo.ListRecent(ctx, recipientID, limit)
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) (models.Notification, error) {
	return s.repo.MarkRead(ctx, recipientID, notificationID)
}

func planMetadata(plan models.Plan) map[string]interface{} {
	return map[string]interface{}{
		"plan_id":    plan.ID.String(),
		"plan_title": plan.Title,
	}
}

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
