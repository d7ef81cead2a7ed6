// Package memory is a process-local implementation of the entity store.
// It enforces the same uniqueness constraints as the persistent stores and
// hands out copies, so callers always work on snapshots.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"groupevents/internal/domain"
)

type db struct {
	mu           sync.RWMutex
	groups       map[string]*domain.Group
	participants map[string]*domain.Participant
	invitations  map[string]*domain.Invitation
	events       map[string]*domain.Event
	now          func() time.Time
}

// NewStore returns a domain.Store backed by maps guarded by one lock.
func NewStore() domain.Store {
	d := &db{
		groups:       make(map[string]*domain.Group),
		participants: make(map[string]*domain.Participant),
		invitations:  make(map[string]*domain.Invitation),
		events:       make(map[string]*domain.Event),
		now:          time.Now,
	}
	return domain.Store{
		Groups:       &groupRepository{db: d},
		Participants: &participantRepository{db: d},
		Invitations:  &invitationRepository{db: d},
		Events:       &eventRepository{db: d},
	}
}

func copyGroup(g *domain.Group) *domain.Group {
	c := *g
	c.EventIDs = slices.Clone(g.EventIDs)
	c.ParticipantIDs = slices.Clone(g.ParticipantIDs)
	c.InvitationIDs = slices.Clone(g.InvitationIDs)
	return &c
}

func copyParticipant(p *domain.Participant) *domain.Participant {
	c := *p
	c.GroupIDs = slices.Clone(p.GroupIDs)
	c.EventIDs = slices.Clone(p.EventIDs)
	return &c
}

func copyInvitation(i *domain.Invitation) *domain.Invitation {
	c := *i
	c.GroupIDs = slices.Clone(i.GroupIDs)
	return &c
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	c.ParticipantIDs = slices.Clone(e.ParticipantIDs)
	if e.Date != nil {
		d := *e.Date
		c.Date = &d
	}
	return &c
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// pick returns the records for ids in the order given, skipping unknown ids.
func pick[T any](m map[string]*T, ids []string, clone func(*T) *T) []*T {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		if rec, ok := m[id]; ok {
			out = append(out, clone(rec))
		}
	}
	return out
}

type groupRepository struct{ db *db }

func (r *groupRepository) Create(ctx context.Context, g *domain.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.groups {
		if existing.Title == g.Title {
			return domain.ErrDuplicate
		}
	}
	g.ID = uuid.NewString()
	g.EventIDs = nonNil(g.EventIDs)
	g.ParticipantIDs = nonNil(g.ParticipantIDs)
	g.InvitationIDs = nonNil(g.InvitationIDs)
	r.db.groups[g.ID] = copyGroup(g)
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	g, ok := r.db.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyGroup(g), nil
}

func (r *groupRepository) GetByTitle(ctx context.Context, title string) (*domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, g := range r.db.groups {
		if g.Title == title {
			return copyGroup(g), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *groupRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Group, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.db.mu.RLock()
	all := make([]*domain.Group, 0, len(r.db.groups))
	for _, g := range r.db.groups {
		all = append(all, copyGroup(g))
	}
	r.db.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	start, end := params.Window(len(all))
	return all[start:end], len(all), nil
}

func (r *groupRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return pick(r.db.groups, ids, copyGroup), nil
}

func (r *groupRepository) appendEdge(ctx context.Context, groupID string, edit func(g *domain.Group)) (*domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.groups[groupID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	edit(g)
	g.UpdatedAt = r.db.now()
	return copyGroup(g), nil
}

func (r *groupRepository) AddEvent(ctx context.Context, groupID, eventID string) (*domain.Group, error) {
	return r.appendEdge(ctx, groupID, func(g *domain.Group) { g.EventIDs = append(g.EventIDs, eventID) })
}

func (r *groupRepository) AddParticipant(ctx context.Context, groupID, participantID string) (*domain.Group, error) {
	return r.appendEdge(ctx, groupID, func(g *domain.Group) { g.ParticipantIDs = append(g.ParticipantIDs, participantID) })
}

func (r *groupRepository) AddInvitation(ctx context.Context, groupID, invitationID string) (*domain.Group, error) {
	return r.appendEdge(ctx, groupID, func(g *domain.Group) { g.InvitationIDs = append(g.InvitationIDs, invitationID) })
}

type participantRepository struct{ db *db }

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.participants {
		if existing.Email == p.Email || existing.Username == p.Username {
			return domain.ErrDuplicate
		}
	}
	p.ID = uuid.NewString()
	p.GroupIDs = nonNil(p.GroupIDs)
	p.EventIDs = nonNil(p.EventIDs)
	r.db.participants[p.ID] = copyParticipant(p)
	return nil
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.participants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyParticipant(p), nil
}

func (r *participantRepository) find(ctx context.Context, match func(*domain.Participant) bool) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.participants {
		if match(p) {
			return copyParticipant(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *participantRepository) GetByEmail(ctx context.Context, email string) (*domain.Participant, error) {
	return r.find(ctx, func(p *domain.Participant) bool { return p.Email == email })
}

func (r *participantRepository) GetByUsername(ctx context.Context, username string) (*domain.Participant, error) {
	return r.find(ctx, func(p *domain.Participant) bool { return p.Username == username })
}

func (r *participantRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return pick(r.db.participants, ids, copyParticipant), nil
}

func (r *participantRepository) appendEdge(ctx context.Context, id string, edit func(p *domain.Participant)) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.participants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	edit(p)
	p.UpdatedAt = r.db.now()
	return copyParticipant(p), nil
}

func (r *participantRepository) AddGroup(ctx context.Context, participantID, groupID string) (*domain.Participant, error) {
	return r.appendEdge(ctx, participantID, func(p *domain.Participant) { p.GroupIDs = append(p.GroupIDs, groupID) })
}

func (r *participantRepository) AddEvent(ctx context.Context, participantID, eventID string) (*domain.Participant, error) {
	return r.appendEdge(ctx, participantID, func(p *domain.Participant) { p.EventIDs = append(p.EventIDs, eventID) })
}

type invitationRepository struct{ db *db }

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.invitations {
		if existing.Email == inv.Email {
			return domain.ErrDuplicate
		}
	}
	inv.ID = uuid.NewString()
	inv.GroupIDs = nonNil(inv.GroupIDs)
	r.db.invitations[inv.ID] = copyInvitation(inv)
	return nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	inv, ok := r.db.invitations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyInvitation(inv), nil
}

func (r *invitationRepository) GetByEmail(ctx context.Context, email string) (*domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, inv := range r.db.invitations {
		if inv.Email == email {
			return copyInvitation(inv), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *invitationRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return pick(r.db.invitations, ids, copyInvitation), nil
}

func (r *invitationRepository) AddGroup(ctx context.Context, invitationID, groupID string) (*domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	inv, ok := r.db.invitations[invitationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	inv.GroupIDs = append(inv.GroupIDs, groupID)
	inv.UpdatedAt = r.db.now()
	return copyInvitation(inv), nil
}

type eventRepository struct{ db *db }

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.groups[e.GroupID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.db.events {
		if existing.GroupID == e.GroupID && existing.Title == e.Title {
			return domain.ErrDuplicate
		}
	}
	e.ID = uuid.NewString()
	e.ParticipantIDs = nonNil(e.ParticipantIDs)
	r.db.events[e.ID] = copyEvent(e)
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	e, ok := r.db.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyEvent(e), nil
}

func (r *eventRepository) GetByTitleAndGroup(ctx context.Context, title, groupID string) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, e := range r.db.events {
		if e.Title == title && e.GroupID == groupID {
			return copyEvent(e), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *eventRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return pick(r.db.events, ids, copyEvent), nil
}

func (r *eventRepository) AddParticipant(ctx context.Context, eventID, participantID string) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e, ok := r.db.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.ParticipantIDs = append(e.ParticipantIDs, participantID)
	e.UpdatedAt = r.db.now()
	return copyEvent(e), nil
}
