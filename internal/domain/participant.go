package domain

import (
	"context"
	"slices"
	"time"
)

// Participant represents a registered user of the graph.
// The password hash and salt never leave the service in JSON.
// swagger:model Participant
type Participant struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	GroupIDs     []string  `json:"group_ids"`
	EventIDs     []string  `json:"event_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewParticipant returns a new Participant with empty edge lists. ID is typically set by the repository on create.
func NewParticipant(username, email, passwordHash, salt, avatar string, createdAt, updatedAt time.Time) *Participant {
	return &Participant{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		Avatar:       avatar,
		GroupIDs:     []string{},
		EventIDs:     []string{},
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// InGroup reports whether the participant lists groupID among its groups.
func (p *Participant) InGroup(groupID string) bool {
	return slices.Contains(p.GroupIDs, groupID)
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// ParticipantRepository defines the interface for participant storage.
type ParticipantRepository interface {
	Create(ctx context.Context, participant *Participant) error
	GetByID(ctx context.Context, id string) (*Participant, error)
	GetByEmail(ctx context.Context, email string) (*Participant, error)
	GetByUsername(ctx context.Context, username string) (*Participant, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Participant, error)
	AddGroup(ctx context.Context, participantID, groupID string) (*Participant, error)
	AddEvent(ctx context.Context, participantID, eventID string) (*Participant, error)
}
