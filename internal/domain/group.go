package domain

import (
	"context"
	"slices"
	"time"
)

// Group is a community that organizes events and admits invited participants.
// swagger:model Group
type Group struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	EventIDs       []string  `json:"event_ids"`
	ParticipantIDs []string  `json:"participant_ids"`
	InvitationIDs  []string  `json:"invitation_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewGroup returns a new Group with empty edge lists. ID is typically set by the repository on create.
func NewGroup(title string, createdAt, updatedAt time.Time) *Group {
	return &Group{
		Title:          title,
		EventIDs:       []string{},
		ParticipantIDs: []string{},
		InvitationIDs:  []string{},
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// HasParticipant reports whether participantID is listed as a member.
func (g *Group) HasParticipant(participantID string) bool {
	return slices.Contains(g.ParticipantIDs, participantID)
}

// HasInvitation reports whether invitationID is listed as an invitee.
func (g *Group) HasInvitation(invitationID string) bool {
	return slices.Contains(g.InvitationIDs, invitationID)
}

// GroupRepository defines the interface for group storage.
// Add* methods append one identifier to an edge list atomically and return the updated record.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	GetByTitle(ctx context.Context, title string) (*Group, error)
	List(ctx context.Context, params PaginationParams) ([]*Group, int, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Group, error)
	AddEvent(ctx context.Context, groupID, eventID string) (*Group, error)
	AddParticipant(ctx context.Context, groupID, participantID string) (*Group, error)
	AddInvitation(ctx context.Context, groupID, invitationID string) (*Group, error)
}
