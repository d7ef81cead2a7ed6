package domain

import (
	"context"
	"slices"
	"time"
)

// Event is organized by exactly one group. GroupID is fixed at creation.
// swagger:model Event
type Event struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Date           *time.Time `json:"date,omitempty"`
	Location       string     `json:"location,omitempty"`
	GroupID        string     `json:"group_id"`
	ParticipantIDs []string   `json:"participant_ids"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title, groupID string, date *time.Time, location string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:          title,
		Date:           date,
		Location:       location,
		GroupID:        groupID,
		ParticipantIDs: []string{},
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// HasParticipant reports whether participantID is registered for the event.
func (e *Event) HasParticipant(participantID string) bool {
	return slices.Contains(e.ParticipantIDs, participantID)
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByTitleAndGroup(ctx context.Context, title, groupID string) (*Event, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Event, error)
	AddParticipant(ctx context.Context, eventID, participantID string) (*Event, error)
}
