package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"groupevents/internal/domain"
)

type queryService struct {
	store          domain.Store
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewQueryService returns the read side. Edge identifiers that no longer
// resolve are skipped rather than reported.
func NewQueryService(store domain.Store, logger *slog.Logger, timeout time.Duration) domain.QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &queryService{store: store, logger: logger, contextTimeout: timeout}
}

func (s *queryService) readErr(ctx context.Context, step string, err, notFound error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound
	}
	s.logger.ErrorContext(ctx, "store failure", "op", "query", "step", step, "error", err)
	return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, step)
}

func (s *queryService) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	g, err := s.store.Groups.GetByID(ctx, id)
	if err != nil {
		return nil, s.readErr(ctx, "get group", err, domain.ErrGroupNotFound)
	}
	return g, nil
}

func (s *queryService) ListGroups(ctx context.Context, params domain.PaginationParams) ([]*domain.Group, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	groups, total, err := s.store.Groups.List(ctx, params)
	if err != nil {
		return nil, 0, s.readErr(ctx, "list groups", err, domain.ErrGroupNotFound)
	}
	return groups, total, nil
}

func (s *queryService) GetParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.store.Participants.GetByID(ctx, id)
	if err != nil {
		return nil, s.readErr(ctx, "get participant", err, domain.ErrParticipantNotFound)
	}
	return p, nil
}

func (s *queryService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := s.store.Events.GetByID(ctx, id)
	if err != nil {
		return nil, s.readErr(ctx, "get event", err, domain.ErrEventNotFound)
	}
	return e, nil
}

func (s *queryService) GetInvitationByEmail(ctx context.Context, email string) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrInvalidInput.WithMessage("email is required")
	}
	inv, err := s.store.Invitations.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.readErr(ctx, "get invitation", err, domain.ErrInvitationNotFound)
	}
	return inv, nil
}

func (s *queryService) GroupEvents(ctx context.Context, groupID string) ([]*domain.Event, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.store.Events.ListByIDs(ctx, g.EventIDs)
	if err != nil {
		return nil, s.readErr(ctx, "resolve group events", err, domain.ErrEventNotFound)
	}
	return events, nil
}

func (s *queryService) GroupParticipants(ctx context.Context, groupID string) ([]*domain.Participant, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	participants, err := s.store.Participants.ListByIDs(ctx, g.ParticipantIDs)
	if err != nil {
		return nil, s.readErr(ctx, "resolve group participants", err, domain.ErrParticipantNotFound)
	}
	return participants, nil
}

func (s *queryService) GroupInvitations(ctx context.Context, groupID string) ([]*domain.Invitation, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invitations, err := s.store.Invitations.ListByIDs(ctx, g.InvitationIDs)
	if err != nil {
		return nil, s.readErr(ctx, "resolve group invitations", err, domain.ErrInvitationNotFound)
	}
	return invitations, nil
}

// EventGroup returns the owning group, or nil when the reference dangles.
func (s *queryService) EventGroup(ctx context.Context, eventID string) (*domain.Group, error) {
	e, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	g, err := s.GetGroup(ctx, e.GroupID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return g, err
}

func (s *queryService) EventParticipants(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	e, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	participants, err := s.store.Participants.ListByIDs(ctx, e.ParticipantIDs)
	if err != nil {
		return nil, s.readErr(ctx, "resolve event participants", err, domain.ErrParticipantNotFound)
	}
	return participants, nil
}

func (s *queryService) ParticipantGroups(ctx context.Context, participantID string) ([]*domain.Group, error) {
	p, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	groups, err := s.store.Groups.ListByIDs(ctx, p.GroupIDs)
	if err != nil {
		return nil, s.readErr(ctx, "resolve participant groups", err, domain.ErrGroupNotFound)
	}
	return groups, nil
}

func (s *queryService) ParticipantEvents(ctx context.Context, participantID string) ([]*domain.Event, error) {
	p, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.store.Events.ListByIDs(ctx, p.EventIDs)
	if err != nil {
		return nil, s.readErr(ctx, "resolve participant events", err, domain.ErrEventNotFound)
	}
	return events, nil
}

func (s *queryService) InvitationGroups(ctx context.Context, invitationID string) ([]*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.store.Invitations.GetByID(ctx, invitationID)
	if err != nil {
		return nil, s.readErr(ctx, "get invitation", err, domain.ErrInvitationNotFound)
	}
	groups, err := s.store.Groups.ListByIDs(ctx, inv.GroupIDs)
	if err != nil {
		return nil, s.readErr(ctx, "resolve invitation groups", err, domain.ErrGroupNotFound)
	}
	return groups, nil
}
