// Package postgres implements the entity store on PostgreSQL. Each record is
// one row; edge lists are TEXT[] columns appended in a single UPDATE so every
// edge write stays atomic per record.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"groupevents/internal/domain"
)

//go:embed schema.sql
var schema string

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// NewStore returns a domain.Store whose repositories share db.
func NewStore(db *sql.DB) domain.Store {
	return domain.Store{
		Groups:       NewGroupRepository(db),
		Participants: NewParticipantRepository(db),
		Invitations:  NewInvitationRepository(db),
		Events:       NewEventRepository(db),
	}
}

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// mapWriteErr translates constraint violations into domain sentinels.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var perr *pq.Error
	if errors.As(err, &perr) {
		switch perr.Code {
		case codeUniqueViolation:
			return domain.ErrDuplicate
		case codeForeignKeyViolation:
			return domain.ErrNotFound
		}
	}
	return err
}

func mapReadErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

type scanner interface {
	Scan(dest ...any) error
}

// appendEdge runs an array_append UPDATE on one record and scans the updated row.
func appendEdge(ctx context.Context, db *sql.DB, query, id, edge string, scan func(scanner) error) error {
	row := db.QueryRowContext(ctx, query, id, edge, time.Now().UTC())
	return mapReadErr(scan(row))
}
