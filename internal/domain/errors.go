package domain

import (
	"errors"
	"fmt"
)

// Repository-level sentinels. Stores return these; services translate them.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// ErrStoreUnavailable is returned when the entity store failed or timed out.
// Nothing was written when it is returned from a fetch step, so the whole
// operation is safe to retry.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrPartialWrite matches every *PartialWriteError.
var ErrPartialWrite = errors.New("partial write")

// ViolationTag names a business-rule violation.
type ViolationTag string

const (
	TagInvalidInput          ViolationTag = "invalid_input"
	TagDuplicateGroup        ViolationTag = "duplicate_group"
	TagDuplicateEvent        ViolationTag = "duplicate_event"
	TagDuplicateParticipant  ViolationTag = "duplicate_participant"
	TagAlreadyInvited        ViolationTag = "already_invited"
	TagNeverInvited          ViolationTag = "never_invited"
	TagAlreadyMember         ViolationTag = "already_member"
	TagNotInvitedToThisGroup ViolationTag = "not_invited_to_this_group"
	TagAlreadyRegistered     ViolationTag = "already_registered"
	TagNotGroupMember        ViolationTag = "not_group_member"
)

// Violation is a terminal business-rule failure. It is never retried and is
// always detected before any write.
type Violation struct {
	Tag     ViolationTag `json:"tag"`
	Message string       `json:"message"`
}

func (v *Violation) Error() string { return v.Message }

// Is matches any *Violation carrying the same tag.
func (v *Violation) Is(target error) bool {
	var t *Violation
	if errors.As(target, &t) {
		return v.Tag == t.Tag
	}
	return false
}

// WithMessage returns a copy of the violation with a more specific message.
func (v *Violation) WithMessage(msg string) *Violation {
	return &Violation{Tag: v.Tag, Message: msg}
}

var (
	ErrInvalidInput          = &Violation{Tag: TagInvalidInput, Message: "invalid input"}
	ErrDuplicateGroup        = &Violation{Tag: TagDuplicateGroup, Message: "group already exists"}
	ErrDuplicateEvent        = &Violation{Tag: TagDuplicateEvent, Message: "event already exists for this group"}
	ErrDuplicateParticipant  = &Violation{Tag: TagDuplicateParticipant, Message: "participant already exists"}
	ErrAlreadyInvited        = &Violation{Tag: TagAlreadyInvited, Message: "email has already been invited to this group"}
	ErrNeverInvited          = &Violation{Tag: TagNeverInvited, Message: "participant has not been invited to join any group"}
	ErrAlreadyMember         = &Violation{Tag: TagAlreadyMember, Message: "participant is already a member of this group"}
	ErrNotInvitedToThisGroup = &Violation{Tag: TagNotInvitedToThisGroup, Message: "participant has not been invited to join this group"}
	ErrAlreadyRegistered     = &Violation{Tag: TagAlreadyRegistered, Message: "participant is already registered for this event"}
	ErrNotGroupMember        = &Violation{Tag: TagNotGroupMember, Message: "participant is not a member of the group organizing this event"}
)

// IsViolation reports whether err carries a business-rule violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// EntityKind names one of the four record collections.
type EntityKind string

const (
	KindGroup       EntityKind = "group"
	KindParticipant EntityKind = "participant"
	KindInvitation  EntityKind = "invitation"
	KindEvent       EntityKind = "event"
)

// NotFoundError reports that a referenced identifier does not resolve.
// It matches ErrNotFound as well as any NotFoundError of the same kind.
type NotFoundError struct {
	Kind EntityKind
}

func (e *NotFoundError) Error() string { return string(e.Kind) + " not found" }

func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	var t *NotFoundError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrGroupNotFound       = &NotFoundError{Kind: KindGroup}
	ErrParticipantNotFound = &NotFoundError{Kind: KindParticipant}
	ErrInvitationNotFound  = &NotFoundError{Kind: KindInvitation}
	ErrEventNotFound       = &NotFoundError{Kind: KindEvent}
)

// EdgeRef identifies one side of a bidirectional edge.
type EdgeRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

func (r EdgeRef) String() string { return string(r.Kind) + " " + r.ID }

// PartialWriteError is returned when the primary side of an edge was written
// but the mirror side was not. The graph is left violating the mirror
// invariant until an operator repairs it.
type PartialWriteError struct {
	Op      string  `json:"op"`
	Primary EdgeRef `json:"primary"`
	Mirror  EdgeRef `json:"mirror"`
	// Edge is the identifier that should have been appended to Mirror.
	Edge string `json:"edge"`
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: %s was written but mirror %s is missing edge %s", e.Op, e.Primary, e.Mirror, e.Edge)
}

func (e *PartialWriteError) Is(target error) bool { return target == ErrPartialWrite }
