package controllers

import (
	"context"
	"io"
	"log/slog"

	"groupevents/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeMembership implements domain.MembershipService for handler tests.
type fakeMembership struct {
	err error

	group       *domain.Group
	event       *domain.Event
	participant *domain.Participant
	invitation  *domain.Invitation

	lastTitle         string
	lastEventInput    domain.CreateEventInput
	lastParticipant   domain.CreateParticipantInput
	lastGroupID       string
	lastEventID       string
	lastParticipantID string
	lastEmail         string
}

func (f *fakeMembership) CreateGroup(_ context.Context, title string) (*domain.Group, error) {
	f.lastTitle = title
	return f.group, f.err
}

func (f *fakeMembership) CreateEvent(_ context.Context, in domain.CreateEventInput) (*domain.Event, error) {
	f.lastEventInput = in
	return f.event, f.err
}

func (f *fakeMembership) CreateParticipant(_ context.Context, in domain.CreateParticipantInput) (*domain.Participant, error) {
	f.lastParticipant = in
	return f.participant, f.err
}

func (f *fakeMembership) InviteToGroup(_ context.Context, groupID, email string) (*domain.Invitation, error) {
	f.lastGroupID, f.lastEmail = groupID, email
	return f.invitation, f.err
}

func (f *fakeMembership) JoinGroup(_ context.Context, groupID, participantID string) (*domain.Participant, error) {
	f.lastGroupID, f.lastParticipantID = groupID, participantID
	return f.participant, f.err
}

func (f *fakeMembership) RegisterForEvent(_ context.Context, eventID, participantID string) (*domain.Participant, error) {
	f.lastEventID, f.lastParticipantID = eventID, participantID
	return f.participant, f.err
}

// fakeQuery implements domain.QueryService for handler tests.
type fakeQuery struct {
	err error

	group        *domain.Group
	groups       []*domain.Group
	total        int
	participant  *domain.Participant
	participants []*domain.Participant
	event        *domain.Event
	events       []*domain.Event
	invitation   *domain.Invitation
	invitations  []*domain.Invitation

	lastID     string
	lastEmail  string
	lastParams domain.PaginationParams
}

func (f *fakeQuery) GetGroup(_ context.Context, id string) (*domain.Group, error) {
	f.lastID = id
	return f.group, f.err
}

func (f *fakeQuery) ListGroups(_ context.Context, params domain.PaginationParams) ([]*domain.Group, int, error) {
	f.lastParams = params
	return f.groups, f.total, f.err
}

func (f *fakeQuery) GetParticipant(_ context.Context, id string) (*domain.Participant, error) {
	f.lastID = id
	return f.participant, f.err
}

func (f *fakeQuery) GetEvent(_ context.Context, id string) (*domain.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeQuery) GetInvitationByEmail(_ context.Context, email string) (*domain.Invitation, error) {
	f.lastEmail = email
	return f.invitation, f.err
}

func (f *fakeQuery) GroupEvents(_ context.Context, id string) ([]*domain.Event, error) {
	f.lastID = id
	return f.events, f.err
}

func (f *fakeQuery) GroupParticipants(_ context.Context, id string) ([]*domain.Participant, error) {
	f.lastID = id
	return f.participants, f.err
}

func (f *fakeQuery) GroupInvitations(_ context.Context, id string) ([]*domain.Invitation, error) {
	f.lastID = id
	return f.invitations, f.err
}

func (f *fakeQuery) EventGroup(_ context.Context, id string) (*domain.Group, error) {
	f.lastID = id
	return f.group, f.err
}

func (f *fakeQuery) EventParticipants(_ context.Context, id string) ([]*domain.Participant, error) {
	f.lastID = id
	return f.participants, f.err
}

func (f *fakeQuery) ParticipantGroups(_ context.Context, id string) ([]*domain.Group, error) {
	f.lastID = id
	return f.groups, f.err
}

func (f *fakeQuery) ParticipantEvents(_ context.Context, id string) ([]*domain.Event, error) {
	f.lastID = id
	return f.events, f.err
}

func (f *fakeQuery) InvitationGroups(_ context.Context, id string) ([]*domain.Group, error) {
	f.lastID = id
	return f.groups, f.err
}
