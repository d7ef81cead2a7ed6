package domain

import "context"

// Store is the handle to the four record collections. Every single-record
// write is atomic; there are no transactions spanning records.
type Store struct {
	Groups       GroupRepository
	Participants ParticipantRepository
	Invitations  InvitationRepository
	Events       EventRepository
}

// Locker serializes mutations that touch the same entities.
// Lock acquires every key (in a deterministic order) or none of them.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

// Lock key constructors shared by lockers and the coordinator.
func GroupLockKey(id string) string               { return "group:" + id }
func GroupTitleLockKey(title string) string       { return "group-title:" + title }
func ParticipantLockKey(id string) string         { return "participant:" + id }
func ParticipantEmailLockKey(email string) string { return "participant-email:" + email }
func ParticipantNameLockKey(name string) string   { return "participant-username:" + name }
func InvitationEmailLockKey(email string) string  { return "invitation-email:" + email }
func EventLockKey(id string) string               { return "event:" + id }
