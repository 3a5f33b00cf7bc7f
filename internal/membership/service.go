package membership

import (
	"context"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the single entry point for every membership mutation and
// visibility read. UI and handler code never touch the ledger directly;
// authorization for host-only operations lives here, not per query path.
type Service interface {
	// Actor-initiated transitions.
	RequestJoin(ctx context.Context, planID, actorID uuid.UUID) (models.MembershipRecord, error)
	RespondMaybe(ctx context.Context, planID, actorID uuid.UUID) (models.MembershipRecord, error)
	Withdraw(ctx context.Context, planID, actorID uuid.UUID) (models.MembershipRecord, error)
	AcceptInvite(ctx context.Context, planID, actorID uuid.UUID) (models.MembershipRecord, error)

	// Host-only moderation.
	Approve(ctx context.Context, planID, actorID, targetID uuid.UUID) (models.MembershipRecord, error)
	Deny(ctx context.Context, planID, actorID, targetID uuid.UUID) (models.MembershipRecord, error)
	Invite(ctx context.Context, planID, actorID, targetID uuid.UUID) (models.MembershipRecord, error)
	KickAndBan(ctx context.Context, planID, actorID, targetID uuid.UUID, reason *string) error
	Unban(ctx context.Context, planID, actorID, targetID uuid.UUID) error

	// Reads.
	Visibility(ctx context.Context, planID, actorID uuid.UUID) (Visibility, models.Plan, error)
	Members(ctx context.Context, planID, actorID uuid.UUID) ([]models.MembershipRecord, error)
}

type service struct {
	ledger Ledger
	blocks BlockChecker
	events Events
	logger zerolog.Logger
}

func NewService(ledger Ledger, blocks BlockChecker, events Events, logger zerolog.Logger) Service {
	return &service{
		ledger: ledger,
		blocks: blocks,
		events: events,
		logger: logger.With().Str("component", "membership_service").Logger(),
	}
}

func (s *service) RequestJoin(ctx context.Context, planID, actorID uuid.UUID) (models.MembershipRecord, error) {
	res, err := s.actorTransition(ctx, planID, actorID, models.ActionRequestJoin)
	if err != nil {
		return models.MembershipRecord{}, err
	}
	if res.Record.Status == models.StatusPending && res.Before.Record.Status != models.StatusPending {
		s.events.JoinRequested(ctx, res.Before.Plan, actorID)
	}
	if res.Record.Status == models.StatusAccepted && res.Before.Record.Status != models.StatusAccepted {
		s.events.Approved(ctx, res.Before.Plan, actorID)
	}
	return res.Record, nil
}

func (s *service) RespondMaybe(ctx context.Context, planID, actorID uuid.UUID) (models.MembershipRecord, error) {
	res, err := s.actorTransition(ctx, planID, actorID, models.ActionRespondMaybe)
	if err != nil {
		return models.MembershipRecord{}, err
	}
	return res.Record, nil
}

func (s *service) Withdraw(ctx context.Context, planID, actorID uuid.UUID) (models.MembershipRecord, error) {
	res, err := s.actorTransition(ctx, planID, actorID, models.ActionWithdraw)
	if err != nil {
		return models.MembershipRecord{}, err
	}
	return res.Record, nil
}

func (s *service) AcceptInvite(ctx context.Context, planID, actorID uuid.UUID) (models.MembershipRecord, error) {
	res, err := s.actorTransition(ctx, planID, actorID, models.ActionAcceptInvite)
	if err != nil {
		return models.MembershipRecord{}, err
	}
	if res.Record.Status == models.StatusAccepted && res.Before.Record.Status != models.StatusAccepted {
		s.events.Approved(ctx, res.Before.Plan, actorID)
	}
	return res.Record, nil
}

func (s *service) Approve(ctx context.Context, planID, actorID, targetID uuid.UUID) (models.MembershipRecord, error) {
	res, err := s.hostTransition(ctx, planID, actorID, targetID, models.ActionApprove)
	if err != nil {
		return models.MembershipRecord{}, err
	}
	if res.Record.Status == models.StatusAccepted && res.Before.Record.Status != models.StatusAccepted {
		s.events.Approved(ctx, res.Before.Plan, targetID)
	}
	return res.Record, nil
}

func (s *service) Deny(ctx context.Context, planID, actorID, targetID uuid.UUID) (models.MembershipRecord, error) {
	res, err := s.hostTransition(ctx, planID, actorID, targetID, models.ActionDeny)
	if err != nil {
		return models.MembershipRecord{}, err
	}
	return res.Record, nil
}

func (s *service) Invite(ctx context.Context, planID, actorID, targetID uuid.UUID) (models.MembershipRecord, error) {
	res, err := s.hostTransition(ctx, planID, actorID, targetID, models.ActionInvite)
	if err != nil {
		return models.MembershipRecord{}, err
	}
	if res.Record.Status == models.StatusInvited && res.Before.Record.Status != models.StatusInvited {
		s.events.Invited(ctx, res.Before.Plan, targetID)
	}
	return res.Record, nil
}

func (s *service) KickAndBan(ctx context.Context, planID, actorID, targetID uuid.UUID, reason *string) error {
	res, err := s.ledger.Transition(ctx, planID, targetID, func(v View) (Outcome, error) {
		if !v.Plan.IsHost(actorID) {
			return Outcome{}, ErrNotAuthorized
		}
		out, err := Decide(v, models.ActionKickAndBan)
		if err != nil {
			return Outcome{}, err
		}
		if out.Ban != nil {
			out.Ban.Reason = reason
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	s.events.Kicked(ctx, res.Before.Plan, targetID)
	return nil
}

func (s *service) Unban(ctx context.Context, planID, actorID, targetID uuid.UUID) error {
	v, err := s.ledger.Snapshot(ctx, planID, targetID)
	if err != nil {
		return err
	}
	if !v.Plan.IsHost(actorID) {
		return ErrNotAuthorized
	}
	// Lifting a ban never restores membership; the user must re-request.
	return s.ledger.RemoveBan(ctx, planID, targetID)
}

func (s *service) Visibility(ctx context.Context, planID, actorID uuid.UUID) (Visibility, models.Plan, error) {
	v, err := s.ledger.Snapshot(ctx, planID, actorID)
	if err != nil {
		return Visibility{}, models.Plan{}, err
	}
	blocked, err := s.blocks.IsBlocked(ctx, actorID, v.Plan.HostUserID)
	if err != nil {
		// Block lookup failure must not leak details; fail closed on the
		// summary but keep the error visible to the caller.
		return Visibility{}, models.Plan{}, err
	}
	return Evaluate(v.Plan, v.Record, v.Banned, blocked), v.Plan, nil
}

func (s *service) Members(ctx context.Context, planID, actorID uuid.UUID) ([]models.MembershipRecord, error) {
	v, err := s.ledger.Snapshot(ctx, planID, actorID)
	if err != nil {
		return nil, err
	}
	records, err := s.ledger.Members(ctx, planID)
	if err != nil {
		return nil, err
	}
	if v.Plan.IsHost(actorID) {
		return records, nil
	}
	member := v.Record.Status == models.StatusAccepted || v.Record.Status == models.StatusMaybe
	if v.Plan.IsPrivate && !member {
		return nil, ErrNotAuthorized
	}
	visible := make([]models.MembershipRecord, 0, len(records))
	for _, r := range records {
		if r.Status == models.StatusAccepted || r.Status == models.StatusMaybe {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

func (s *service) actorTransition(ctx context.Context, planID, actorID uuid.UUID, action models.MembershipAction) (Result, error) {
	return s.ledger.Transition(ctx, planID, actorID, func(v View) (Outcome, error) {
		return Decide(v, action)
	})
}

func (s *service) hostTransition(ctx context.Context, planID, actorID, targetID uuid.UUID, action models.MembershipAction) (Result, error) {
	return s.ledger.Transition(ctx, planID, targetID, func(v View) (Outcome, error) {
		if !v.Plan.IsHost(actorID) {
			return Outcome{}, ErrNotAuthorized
		}
		return Decide(v, action)
	})
}
