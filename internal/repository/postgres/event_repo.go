package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"groupevents/internal/domain"
)

const eventColumns = `id, title, group_id, date, location, participant_ids, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row scanner) (*domain.Event, error) {
	e := &domain.Event{}
	var dateNull sql.NullTime
	var locationNull sql.NullString
	err := row.Scan(&e.ID, &e.Title, &e.GroupID, &dateNull, &locationNull,
		pq.Array(&e.ParticipantIDs), &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dateNull.Valid {
		e.Date = &dateNull.Time
	}
	if locationNull.Valid {
		e.Location = locationNull.String
	}
	e.ParticipantIDs = nonNil(e.ParticipantIDs)
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, group_id, date, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var date sql.NullTime
	if e.Date != nil {
		date = sql.NullTime{Time: *e.Date, Valid: true}
	}
	location := sql.NullString{String: e.Location, Valid: e.Location != ""}
	err := r.DB.QueryRowContext(ctx, query, e.Title, e.GroupID, date, location, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
	return mapWriteErr(err)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return e, nil
}

func (r *eventRepository) GetByTitleAndGroup(ctx context.Context, title, groupID string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE title = $1 AND group_id = $2`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, title, groupID))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return e, nil
}

func (r *eventRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	if len(ids) == 0 {
		return []*domain.Event{}, nil
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1) ORDER BY array_position($1, id)`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0, len(ids))
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) AddParticipant(ctx context.Context, eventID, participantID string) (*domain.Event, error) {
	query := `UPDATE events SET participant_ids = array_append(participant_ids, $2), updated_at = $3
		WHERE id = $1
		RETURNING ` + eventColumns
	var e *domain.Event
	err := appendEdge(ctx, r.DB, query, eventID, participantID, func(row scanner) (err error) {
		e, err = scanEvent(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
