package domain

// Relationship rules. Each function decides from snapshots that the caller
// already fetched and performs no I/O. A nil error means approved.
// String comparisons are exact and case-sensitive; edge membership is by
// identifier equality.

// ValidateGroupCreation rejects a title that an existing group already uses.
// existing is the group found under that title, or nil.
func ValidateGroupCreation(title string, existing *Group) error {
	if title == "" {
		return ErrInvalidInput.WithMessage("group title is required")
	}
	if existing != nil && existing.Title == title {
		return ErrDuplicateGroup
	}
	return nil
}

// ValidateEventCreation requires the owning group to exist and rejects a
// second event with the same title under that group.
func ValidateEventCreation(title, groupID string, group *Group, existing *Event) error {
	if title == "" {
		return ErrInvalidInput.WithMessage("event title is required")
	}
	if group == nil || group.ID != groupID {
		return ErrGroupNotFound
	}
	if existing != nil && existing.Title == title && existing.GroupID == groupID {
		return ErrDuplicateEvent
	}
	return nil
}

// ValidateParticipantCreation rejects an email or username that is already
// registered. byEmail and byUsername are the current holders, or nil.
func ValidateParticipantCreation(email, username string, byEmail, byUsername *Participant) error {
	if email == "" || username == "" {
		return ErrInvalidInput.WithMessage("username and email are required")
	}
	if byEmail != nil && byEmail.Email == email {
		return ErrDuplicateParticipant
	}
	if byUsername != nil && byUsername.Username == username {
		return ErrDuplicateParticipant.WithMessage("username already in use")
	}
	return nil
}

// InvitationPlan is the approval payload of ValidateInvitation.
type InvitationPlan struct {
	// CreateRecord is true when no invitation exists for the email yet and
	// the primary write must insert one instead of appending to it.
	CreateRecord bool
}

// ValidateInvitation approves inviting email to groupID. inv is the
// invitation currently held by the email, or nil.
func ValidateInvitation(group *Group, inv *Invitation, groupID, email string) (InvitationPlan, error) {
	if email == "" {
		return InvitationPlan{}, ErrInvalidInput.WithMessage("email is required")
	}
	if group == nil || group.ID != groupID {
		return InvitationPlan{}, ErrGroupNotFound
	}
	if inv == nil {
		return InvitationPlan{CreateRecord: true}, nil
	}
	if inv.InvitedTo(groupID) {
		return InvitationPlan{}, ErrAlreadyInvited
	}
	return InvitationPlan{}, nil
}

// ValidateGroupMembership approves participant joining group. inv is the
// invitation held by the participant's email, or nil.
func ValidateGroupMembership(participant *Participant, group *Group, inv *Invitation) error {
	if participant == nil {
		return ErrParticipantNotFound
	}
	if group == nil {
		return ErrGroupNotFound
	}
	if inv == nil {
		return ErrNeverInvited
	}
	if group.HasParticipant(participant.ID) {
		return ErrAlreadyMember
	}
	if !inv.InvitedTo(group.ID) {
		return ErrNotInvitedToThisGroup
	}
	return nil
}

// ValidateEventRegistration approves participant registering for event.
// The participant must already belong to the event's owning group.
func ValidateEventRegistration(participant *Participant, event *Event) error {
	if participant == nil {
		return ErrParticipantNotFound
	}
	if event == nil {
		return ErrEventNotFound
	}
	if event.HasParticipant(participant.ID) {
		return ErrAlreadyRegistered
	}
	if !participant.InGroup(event.GroupID) {
		return ErrNotGroupMember
	}
	return nil
}
