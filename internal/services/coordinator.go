package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"groupevents/internal/domain"
	"groupevents/internal/metrics"
)

const (
	opCreateGroup       = "create_group"
	opCreateEvent       = "create_event"
	opCreateParticipant = "create_participant"
	opInviteToGroup     = "invite_to_group"
	opJoinGroup         = "join_group"
	opRegisterForEvent  = "register_for_event"
)

const defaultStoreTimeout = 5 * time.Second

// CoordinatorOptions carries the optional collaborators of the coordinator.
// Zero values disable the corresponding feature.
type CoordinatorOptions struct {
	// Locker serializes mutations touching the same entities. Nil keeps the
	// store's per-record atomicity as the only synchronization.
	Locker domain.Locker
	// Email sends invitation emails after a successful InviteToGroup.
	Email   domain.EmailService
	Metrics *metrics.Metrics
	// AppBaseURL is used to build the join link in invitation emails.
	AppBaseURL string
	Timeout    time.Duration
}

type coordinator struct {
	store      domain.Store
	hasher     domain.PasswordHasher
	locker     domain.Locker
	email      domain.EmailService
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	appBaseURL string
	timeout    time.Duration
	now        func() time.Time
}

// NewCoordinator returns the MembershipService that validates and writes every graph mutation.
func NewCoordinator(store domain.Store, hasher domain.PasswordHasher, logger *slog.Logger, opts CoordinatorOptions) domain.MembershipService {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &coordinator{
		store:      store,
		hasher:     hasher,
		locker:     opts.Locker,
		email:      opts.Email,
		metrics:    opts.Metrics,
		logger:     logger,
		tracer:     otel.Tracer("groupevents/internal/services"),
		appBaseURL: strings.TrimRight(opts.AppBaseURL, "/"),
		timeout:    timeout,
		now:        time.Now,
	}
}

// run executes fn under the store timeout, a span, the operation metrics and,
// when configured, the locks named by keys.
func (c *coordinator) run(ctx context.Context, op string, keys []string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "membership."+op, trace.WithAttributes(attrs...))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, metrics.Outcome(err))
		}
		span.End()
		c.metrics.Observe(op, start, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.locker != nil && len(keys) > 0 {
		unlock, lerr := c.locker.Lock(ctx, keys...)
		if lerr != nil {
			c.logger.ErrorContext(ctx, "failed to acquire entity locks", "op", op, "error", lerr)
			return fmt.Errorf("%w: acquire locks", domain.ErrStoreUnavailable)
		}
		defer unlock()
	}
	return fn(ctx)
}

// unavailable logs a store failure and hides its details from the caller.
func (c *coordinator) unavailable(ctx context.Context, op, step string, err error) error {
	c.logger.ErrorContext(ctx, "store failure", "op", op, "step", step, "error", err)
	return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, step)
}

// fetchErr maps a failed required lookup to notFound or StoreUnavailable.
func (c *coordinator) fetchErr(ctx context.Context, op, step string, err, notFound error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound
	}
	return c.unavailable(ctx, op, step, err)
}

// writeErr maps a failed primary write. A uniqueness conflict means another
// caller won the race past validation.
func (c *coordinator) writeErr(ctx context.Context, op, step string, err, duplicate, notFound error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicate) && duplicate != nil:
		return duplicate
	case errors.Is(err, domain.ErrNotFound) && notFound != nil:
		return notFound
	default:
		return c.unavailable(ctx, op, step, err)
	}
}

func (c *coordinator) partialWrite(ctx context.Context, op string, primary, mirror domain.EdgeRef, edge string, err error) error {
	c.logger.ErrorContext(ctx, "mirror edge write failed after primary write",
		"op", op,
		"primary", primary.String(),
		"mirror", mirror.String(),
		"edge", edge,
		"error", err,
	)
	return &domain.PartialWriteError{Op: op, Primary: primary, Mirror: mirror, Edge: edge}
}

// optional turns ErrNotFound into an absent snapshot.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

func (c *coordinator) CreateGroup(ctx context.Context, title string) (*domain.Group, error) {
	title = strings.TrimSpace(title)
	var created *domain.Group
	err := c.run(ctx, opCreateGroup,
		[]string{domain.GroupTitleLockKey(title)},
		[]attribute.KeyValue{attribute.String("group.title", title)},
		func(ctx context.Context) error {
			if title == "" {
				return domain.ValidateGroupCreation(title, nil)
			}
			existing, err := optional(c.store.Groups.GetByTitle(ctx, title))
			if err != nil {
				return c.unavailable(ctx, opCreateGroup, "lookup group by title", err)
			}
			if err := domain.ValidateGroupCreation(title, existing); err != nil {
				return err
			}

			now := c.now()
			g := domain.NewGroup(title, now, now)
			if err := c.store.Groups.Create(ctx, g); err != nil {
				return c.writeErr(ctx, opCreateGroup, "insert group", err, domain.ErrDuplicateGroup, nil)
			}
			created = g
			return nil
		})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *coordinator) CreateEvent(ctx context.Context, in domain.CreateEventInput) (*domain.Event, error) {
	title := strings.TrimSpace(in.Title)
	groupID := strings.TrimSpace(in.GroupID)
	var created *domain.Event
	err := c.run(ctx, opCreateEvent,
		[]string{domain.GroupLockKey(groupID)},
		[]attribute.KeyValue{attribute.String("group.id", groupID), attribute.String("event.title", title)},
		func(ctx context.Context) error {
			if title == "" {
				return domain.ValidateEventCreation(title, groupID, nil, nil)
			}
			group, err := optional(c.store.Groups.GetByID(ctx, groupID))
			if err != nil {
				return c.unavailable(ctx, opCreateEvent, "fetch group", err)
			}
			var existing *domain.Event
			if group != nil {
				existing, err = optional(c.store.Events.GetByTitleAndGroup(ctx, title, groupID))
				if err != nil {
					return c.unavailable(ctx, opCreateEvent, "lookup event by title", err)
				}
			}
			if err := domain.ValidateEventCreation(title, groupID, group, existing); err != nil {
				return err
			}

			now := c.now()
			e := domain.NewEvent(title, groupID, in.Date, strings.TrimSpace(in.Location), now, now)
			if err := c.store.Events.Create(ctx, e); err != nil {
				return c.writeErr(ctx, opCreateEvent, "insert event", err, domain.ErrDuplicateEvent, domain.ErrGroupNotFound)
			}
			if _, err := c.store.Groups.AddEvent(ctx, groupID, e.ID); err != nil {
				return c.partialWrite(ctx, opCreateEvent,
					domain.EdgeRef{Kind: domain.KindEvent, ID: e.ID},
					domain.EdgeRef{Kind: domain.KindGroup, ID: groupID},
					e.ID, err)
			}
			created = e
			return nil
		})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *coordinator) CreateParticipant(ctx context.Context, in domain.CreateParticipantInput) (*domain.Participant, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	var created *domain.Participant
	err := c.run(ctx, opCreateParticipant,
		[]string{domain.ParticipantEmailLockKey(email), domain.ParticipantNameLockKey(username)},
		nil,
		func(ctx context.Context) error {
			if email == "" || username == "" {
				return domain.ValidateParticipantCreation(email, username, nil, nil)
			}
			if in.Password == "" {
				return domain.ErrInvalidInput.WithMessage("password is required")
			}
			byEmail, err := optional(c.store.Participants.GetByEmail(ctx, email))
			if err != nil {
				return c.unavailable(ctx, opCreateParticipant, "lookup participant by email", err)
			}
			byUsername, err := optional(c.store.Participants.GetByUsername(ctx, username))
			if err != nil {
				return c.unavailable(ctx, opCreateParticipant, "lookup participant by username", err)
			}
			if err := domain.ValidateParticipantCreation(email, username, byEmail, byUsername); err != nil {
				return err
			}

			salt, err := c.hasher.GenerateSalt()
			if err != nil {
				return fmt.Errorf("create participant: %w", err)
			}
			hash, err := c.hasher.Hash(salt, in.Password)
			if err != nil {
				return fmt.Errorf("create participant: %w", err)
			}

			now := c.now()
			p := domain.NewParticipant(username, email, hash, salt, strings.TrimSpace(in.Avatar), now, now)
			if err := c.store.Participants.Create(ctx, p); err != nil {
				return c.writeErr(ctx, opCreateParticipant, "insert participant", err, domain.ErrDuplicateParticipant, nil)
			}
			created = p
			return nil
		})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *coordinator) InviteToGroup(ctx context.Context, groupID, email string) (*domain.Invitation, error) {
	groupID = strings.TrimSpace(groupID)
	email = strings.TrimSpace(email)
	var (
		invitation *domain.Invitation
		group      *domain.Group
	)
	err := c.run(ctx, opInviteToGroup,
		[]string{domain.InvitationEmailLockKey(email), domain.GroupLockKey(groupID)},
		[]attribute.KeyValue{attribute.String("group.id", groupID)},
		func(ctx context.Context) error {
			if email == "" {
				_, err := domain.ValidateInvitation(nil, nil, groupID, email)
				return err
			}
			var err error
			group, err = optional(c.store.Groups.GetByID(ctx, groupID))
			if err != nil {
				return c.unavailable(ctx, opInviteToGroup, "fetch group", err)
			}
			existing, err := optional(c.store.Invitations.GetByEmail(ctx, email))
			if err != nil {
				return c.unavailable(ctx, opInviteToGroup, "lookup invitation by email", err)
			}
			plan, err := domain.ValidateInvitation(group, existing, groupID, email)
			if err != nil {
				return err
			}

			inv, err := c.upsertInvitation(ctx, plan, existing, groupID, email)
			if err != nil {
				return err
			}
			if _, err := c.store.Groups.AddInvitation(ctx, groupID, inv.ID); err != nil {
				return c.partialWrite(ctx, opInviteToGroup,
					domain.EdgeRef{Kind: domain.KindInvitation, ID: inv.ID},
					domain.EdgeRef{Kind: domain.KindGroup, ID: groupID},
					inv.ID, err)
			}
			invitation = inv
			return nil
		})
	if err != nil {
		return nil, err
	}

	c.sendInvitation(ctx, group, email)
	return invitation, nil
}

// upsertInvitation writes the primary side of an invitation: a new record
// holding groupID, or groupID appended to the existing record. Losing an
// insert race to another inviter falls back to appending to the winner's record.
func (c *coordinator) upsertInvitation(ctx context.Context, plan domain.InvitationPlan, existing *domain.Invitation, groupID, email string) (*domain.Invitation, error) {
	if plan.CreateRecord {
		now := c.now()
		inv := domain.NewInvitation(email, []string{groupID}, now, now)
		err := c.store.Invitations.Create(ctx, inv)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, c.unavailable(ctx, opInviteToGroup, "insert invitation", err)
		}
		existing, err = c.store.Invitations.GetByEmail(ctx, email)
		if err != nil {
			return nil, c.fetchErr(ctx, opInviteToGroup, "refetch invitation by email", err, domain.ErrInvitationNotFound)
		}
		if existing.InvitedTo(groupID) {
			return nil, domain.ErrAlreadyInvited
		}
	}
	inv, err := c.store.Invitations.AddGroup(ctx, existing.ID, groupID)
	if err != nil {
		return nil, c.writeErr(ctx, opInviteToGroup, "append invitation group", err, nil, domain.ErrInvitationNotFound)
	}
	return inv, nil
}

// sendInvitation mails the invitee. Delivery failures are logged and never
// undo the invitation.
func (c *coordinator) sendInvitation(ctx context.Context, group *domain.Group, email string) {
	if c.email == nil || group == nil {
		return
	}
	data := &domain.GroupInvitationEmailData{
		Email:      email,
		GroupTitle: group.Title,
		GroupID:    group.ID,
	}
	if c.appBaseURL != "" {
		data.JoinURL = c.appBaseURL + "/groups/" + group.ID
	}
	if err := c.email.SendGroupInvitation(ctx, data); err != nil {
		c.logger.WarnContext(ctx, "failed to send group invitation email", "group_id", group.ID, "error", err)
	}
}

func (c *coordinator) JoinGroup(ctx context.Context, groupID, participantID string) (*domain.Participant, error) {
	var joined *domain.Participant
	err := c.run(ctx, opJoinGroup,
		[]string{domain.ParticipantLockKey(participantID), domain.GroupLockKey(groupID)},
		[]attribute.KeyValue{attribute.String("group.id", groupID), attribute.String("participant.id", participantID)},
		func(ctx context.Context) error {
			participant, err := c.store.Participants.GetByID(ctx, participantID)
			if err != nil {
				return c.fetchErr(ctx, opJoinGroup, "fetch participant", err, domain.ErrParticipantNotFound)
			}
			group, err := c.store.Groups.GetByID(ctx, groupID)
			if err != nil {
				return c.fetchErr(ctx, opJoinGroup, "fetch group", err, domain.ErrGroupNotFound)
			}
			inv, err := optional(c.store.Invitations.GetByEmail(ctx, participant.Email))
			if err != nil {
				return c.unavailable(ctx, opJoinGroup, "lookup invitation by email", err)
			}
			if err := domain.ValidateGroupMembership(participant, group, inv); err != nil {
				return err
			}

			updated, err := c.store.Participants.AddGroup(ctx, participantID, groupID)
			if err != nil {
				return c.writeErr(ctx, opJoinGroup, "append participant group", err, nil, domain.ErrParticipantNotFound)
			}
			if _, err := c.store.Groups.AddParticipant(ctx, groupID, participantID); err != nil {
				return c.partialWrite(ctx, opJoinGroup,
					domain.EdgeRef{Kind: domain.KindParticipant, ID: participantID},
					domain.EdgeRef{Kind: domain.KindGroup, ID: groupID},
					participantID, err)
			}
			joined = updated
			return nil
		})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

func (c *coordinator) RegisterForEvent(ctx context.Context, eventID, participantID string) (*domain.Participant, error) {
	var registered *domain.Participant
	err := c.run(ctx, opRegisterForEvent,
		[]string{domain.ParticipantLockKey(participantID), domain.EventLockKey(eventID)},
		[]attribute.KeyValue{attribute.String("event.id", eventID), attribute.String("participant.id", participantID)},
		func(ctx context.Context) error {
			participant, err := c.store.Participants.GetByID(ctx, participantID)
			if err != nil {
				return c.fetchErr(ctx, opRegisterForEvent, "fetch participant", err, domain.ErrParticipantNotFound)
			}
			event, err := c.store.Events.GetByID(ctx, eventID)
			if err != nil {
				return c.fetchErr(ctx, opRegisterForEvent, "fetch event", err, domain.ErrEventNotFound)
			}
			if err := domain.ValidateEventRegistration(participant, event); err != nil {
				return err
			}

			updated, err := c.store.Participants.AddEvent(ctx, participantID, eventID)
			if err != nil {
				return c.writeErr(ctx, opRegisterForEvent, "append participant event", err, nil, domain.ErrParticipantNotFound)
			}
			if _, err := c.store.Events.AddParticipant(ctx, eventID, participantID); err != nil {
				return c.partialWrite(ctx, opRegisterForEvent,
					domain.EdgeRef{Kind: domain.KindParticipant, ID: participantID},
					domain.EdgeRef{Kind: domain.KindEvent, ID: eventID},
					participantID, err)
			}
			registered = updated
			return nil
		})
	if err != nil {
		return nil, err
	}
	return registered, nil
}
