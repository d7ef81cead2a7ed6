// Package badgerdb implements the entity store on an embedded Badger database.
// Records are JSON documents keyed by kind prefix and id; unique fields are
// kept as index keys written in the same transaction as the record.
package badgerdb

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"groupevents/internal/domain"
)

const (
	groupPrefix       = "group:"
	participantPrefix = "participant:"
	invitationPrefix  = "invitation:"
	eventPrefix       = "event:"
)

// DB owns the Badger handle behind a domain.Store.
type DB struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path. An empty path opens an
// in-memory database, which is what tests use.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	logger.Info("badger database opened", "path", path, "in_memory", path == "")
	return &DB{db: db, logger: logger}, nil
}

func (d *DB) Close() error {
	d.logger.Info("closing badger database")
	return d.db.Close()
}

// Store returns the repositories backed by this database.
func (d *DB) Store() domain.Store {
	groups := newCollection[domain.Group](d.db, groupPrefix).
		withIndex("title", func(g *domain.Group) string { return g.Title })
	participants := newCollection[participantRecord](d.db, participantPrefix).
		withIndex("email", func(p *participantRecord) string { return p.Email }).
		withIndex("username", func(p *participantRecord) string { return p.Username })
	invitations := newCollection[domain.Invitation](d.db, invitationPrefix).
		withIndex("email", func(i *domain.Invitation) string { return i.Email })
	events := newCollection[domain.Event](d.db, eventPrefix).
		withIndex("group_title", func(e *domain.Event) string { return eventTitleKey(e.GroupID, e.Title) })

	return domain.Store{
		Groups:       &groupRepository{groups: groups},
		Participants: &participantRepository{participants: participants},
		Invitations:  &invitationRepository{invitations: invitations},
		Events:       &eventRepository{events: events, groups: groups},
	}
}

func eventTitleKey(groupID, title string) string {
	return groupID + ":" + title
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func now() time.Time { return time.Now().UTC() }
