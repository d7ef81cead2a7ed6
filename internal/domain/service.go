package domain

import (
	"context"
	"time"
)

// CreateEventInput carries the fields for a new event. Date and Location are optional.
type CreateEventInput struct {
	Title    string
	GroupID  string
	Date     *time.Time
	Location string
}

// CreateParticipantInput carries the fields for a new participant. Password is the raw secret.
type CreateParticipantInput struct {
	Username string
	Email    string
	Password string
	Avatar   string
}

// MembershipService performs every state-changing operation on the graph.
// Each operation validates against fresh snapshots and writes both sides of
// any edge it creates.
type MembershipService interface {
	CreateGroup(ctx context.Context, title string) (*Group, error)
	CreateEvent(ctx context.Context, in CreateEventInput) (*Event, error)
	CreateParticipant(ctx context.Context, in CreateParticipantInput) (*Participant, error)
	InviteToGroup(ctx context.Context, groupID, email string) (*Invitation, error)
	JoinGroup(ctx context.Context, groupID, participantID string) (*Participant, error)
	RegisterForEvent(ctx context.Context, eventID, participantID string) (*Participant, error)
}

// QueryService resolves reads, including traversal of stored edges.
// Edge identifiers that no longer resolve are skipped.
type QueryService interface {
	GetGroup(ctx context.Context, id string) (*Group, error)
	ListGroups(ctx context.Context, params PaginationParams) ([]*Group, int, error)
	GetParticipant(ctx context.Context, id string) (*Participant, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	GetInvitationByEmail(ctx context.Context, email string) (*Invitation, error)

	GroupEvents(ctx context.Context, groupID string) ([]*Event, error)
	GroupParticipants(ctx context.Context, groupID string) ([]*Participant, error)
	GroupInvitations(ctx context.Context, groupID string) ([]*Invitation, error)
	EventGroup(ctx context.Context, eventID string) (*Group, error)
	EventParticipants(ctx context.Context, eventID string) ([]*Participant, error)
	ParticipantGroups(ctx context.Context, participantID string) ([]*Group, error)
	ParticipantEvents(ctx context.Context, participantID string) ([]*Event, error)
	InvitationGroups(ctx context.Context, invitationID string) ([]*Group, error)
}
