package domain

import (
	"context"
	"slices"
	"time"
)

// Invitation records the groups an email address has been invited to.
// There is exactly one Invitation per email, shared by every inviting group.
// swagger:model Invitation
type Invitation struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	GroupIDs  []string  `json:"group_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewInvitation returns an Invitation for email already listing groupIDs.
func NewInvitation(email string, groupIDs []string, createdAt, updatedAt time.Time) *Invitation {
	ids := make([]string, len(groupIDs))
	copy(ids, groupIDs)
	return &Invitation{
		Email:     email,
		GroupIDs:  ids,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// InvitedTo reports whether groupID is among the inviting groups.
func (i *Invitation) InvitedTo(groupID string) bool {
	return slices.Contains(i.GroupIDs, groupID)
}

// InvitationRepository defines storage operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetByEmail(ctx context.Context, email string) (*Invitation, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Invitation, error)
	AddGroup(ctx context.Context, invitationID, groupID string) (*Invitation, error)
}
