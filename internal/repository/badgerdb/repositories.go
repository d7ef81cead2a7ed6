package badgerdb

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"groupevents/internal/domain"
)

type groupRepository struct {
	groups *collection[domain.Group]
}

func (r *groupRepository) Create(ctx context.Context, g *domain.Group) error {
	id := uuid.NewString()
	rec := *g
	rec.ID = id
	rec.EventIDs = nonNil(rec.EventIDs)
	rec.ParticipantIDs = nonNil(rec.ParticipantIDs)
	rec.InvitationIDs = nonNil(rec.InvitationIDs)
	if err := r.groups.create(ctx, id, &rec, nil); err != nil {
		return err
	}
	*g = rec
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	return r.groups.get(ctx, id)
}

func (r *groupRepository) GetByTitle(ctx context.Context, title string) (*domain.Group, error) {
	return r.groups.getByIndex(ctx, "title", title)
}

func (r *groupRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Group, int, error) {
	all, err := r.groups.list(ctx)
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	start, end := params.Window(len(all))
	return all[start:end], len(all), nil
}

func (r *groupRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Group, error) {
	return r.groups.getMany(ctx, ids)
}

func (r *groupRepository) AddEvent(ctx context.Context, groupID, eventID string) (*domain.Group, error) {
	return r.groups.update(ctx, groupID, func(g *domain.Group) {
		g.EventIDs = append(g.EventIDs, eventID)
		g.UpdatedAt = now()
	})
}

func (r *groupRepository) AddParticipant(ctx context.Context, groupID, participantID string) (*domain.Group, error) {
	return r.groups.update(ctx, groupID, func(g *domain.Group) {
		g.ParticipantIDs = append(g.ParticipantIDs, participantID)
		g.UpdatedAt = now()
	})
}

func (r *groupRepository) AddInvitation(ctx context.Context, groupID, invitationID string) (*domain.Group, error) {
	return r.groups.update(ctx, groupID, func(g *domain.Group) {
		g.InvitationIDs = append(g.InvitationIDs, invitationID)
		g.UpdatedAt = now()
	})
}

// participantRecord persists the credential fields that domain.Participant
// keeps out of its JSON form.
type participantRecord struct {
	domain.Participant
	PasswordHash string `json:"password_hash"`
	Salt         string `json:"salt"`
}

func toParticipantRecord(p *domain.Participant) *participantRecord {
	return &participantRecord{Participant: *p, PasswordHash: p.PasswordHash, Salt: p.Salt}
}

func (rec *participantRecord) participant() *domain.Participant {
	p := rec.Participant
	p.PasswordHash = rec.PasswordHash
	p.Salt = rec.Salt
	return &p
}

type participantRepository struct {
	participants *collection[participantRecord]
}

func (r *participantRepository) one(rec *participantRecord, err error) (*domain.Participant, error) {
	if err != nil {
		return nil, err
	}
	return rec.participant(), nil
}

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	rec := toParticipantRecord(p)
	rec.ID = uuid.NewString()
	rec.GroupIDs = nonNil(rec.GroupIDs)
	rec.EventIDs = nonNil(rec.EventIDs)
	if err := r.participants.create(ctx, rec.ID, rec, nil); err != nil {
		return err
	}
	*p = *rec.participant()
	return nil
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	return r.one(r.participants.get(ctx, id))
}

func (r *participantRepository) GetByEmail(ctx context.Context, email string) (*domain.Participant, error) {
	return r.one(r.participants.getByIndex(ctx, "email", email))
}

func (r *participantRepository) GetByUsername(ctx context.Context, username string) (*domain.Participant, error) {
	return r.one(r.participants.getByIndex(ctx, "username", username))
}

func (r *participantRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Participant, error) {
	recs, err := r.participants.getMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Participant, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.participant())
	}
	return out, nil
}

func (r *participantRepository) AddGroup(ctx context.Context, participantID, groupID string) (*domain.Participant, error) {
	return r.one(r.participants.update(ctx, participantID, func(rec *participantRecord) {
		rec.GroupIDs = append(rec.GroupIDs, groupID)
		rec.UpdatedAt = now()
	}))
}

func (r *participantRepository) AddEvent(ctx context.Context, participantID, eventID string) (*domain.Participant, error) {
	return r.one(r.participants.update(ctx, participantID, func(rec *participantRecord) {
		rec.EventIDs = append(rec.EventIDs, eventID)
		rec.UpdatedAt = now()
	}))
}

type invitationRepository struct {
	invitations *collection[domain.Invitation]
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	rec := *inv
	rec.ID = uuid.NewString()
	rec.GroupIDs = nonNil(rec.GroupIDs)
	if err := r.invitations.create(ctx, rec.ID, &rec, nil); err != nil {
		return err
	}
	*inv = rec
	return nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	return r.invitations.get(ctx, id)
}

func (r *invitationRepository) GetByEmail(ctx context.Context, email string) (*domain.Invitation, error) {
	return r.invitations.getByIndex(ctx, "email", email)
}

func (r *invitationRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Invitation, error) {
	return r.invitations.getMany(ctx, ids)
}

func (r *invitationRepository) AddGroup(ctx context.Context, invitationID, groupID string) (*domain.Invitation, error) {
	return r.invitations.update(ctx, invitationID, func(inv *domain.Invitation) {
		inv.GroupIDs = append(inv.GroupIDs, groupID)
		inv.UpdatedAt = now()
	})
}

type eventRepository struct {
	events *collection[domain.Event]
	groups *collection[domain.Group]
}

// Create requires the owning group to exist at commit time.
func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	rec := *e
	rec.ID = uuid.NewString()
	rec.ParticipantIDs = nonNil(rec.ParticipantIDs)
	err := r.events.create(ctx, rec.ID, &rec, func(txn *badger.Txn) error {
		_, err := r.groups.read(txn, rec.GroupID)
		return err
	})
	if err != nil {
		return err
	}
	*e = rec
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.events.get(ctx, id)
}

func (r *eventRepository) GetByTitleAndGroup(ctx context.Context, title, groupID string) (*domain.Event, error) {
	return r.events.getByIndex(ctx, "group_title", eventTitleKey(groupID, title))
}

func (r *eventRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	return r.events.getMany(ctx, ids)
}

func (r *eventRepository) AddParticipant(ctx context.Context, eventID, participantID string) (*domain.Event, error) {
	return r.events.update(ctx, eventID, func(e *domain.Event) {
		e.ParticipantIDs = append(e.ParticipantIDs, participantID)
		e.UpdatedAt = now()
	})
}
