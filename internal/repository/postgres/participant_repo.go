package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"groupevents/internal/domain"
)

const participantColumns = `id, username, email, password_hash, salt, avatar, group_ids, event_ids, created_at, updated_at`

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{DB: db}
}

func scanParticipant(row scanner) (*domain.Participant, error) {
	p := &domain.Participant{}
	var avatar sql.NullString
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.Salt, &avatar,
		pq.Array(&p.GroupIDs), pq.Array(&p.EventIDs), &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if avatar.Valid {
		p.Avatar = avatar.String
	}
	p.GroupIDs = nonNil(p.GroupIDs)
	p.EventIDs = nonNil(p.EventIDs)
	return p, nil
}

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (username, email, password_hash, salt, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	avatar := sql.NullString{String: p.Avatar, Valid: p.Avatar != ""}
	err := r.DB.QueryRowContext(ctx, query, p.Username, p.Email, p.PasswordHash, p.Salt, avatar, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	return mapWriteErr(err)
}

func (r *participantRepository) getBy(ctx context.Context, column, value string) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE ` + column + ` = $1`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return p, nil
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	return r.getBy(ctx, "id", id)
}

func (r *participantRepository) GetByEmail(ctx context.Context, email string) (*domain.Participant, error) {
	return r.getBy(ctx, "email", email)
}

func (r *participantRepository) GetByUsername(ctx context.Context, username string) (*domain.Participant, error) {
	return r.getBy(ctx, "username", username)
}

func (r *participantRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Participant, error) {
	if len(ids) == 0 {
		return []*domain.Participant{}, nil
	}
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = ANY($1) ORDER BY array_position($1, id)`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*domain.Participant, 0, len(ids))
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) appendTo(ctx context.Context, column, participantID, id string) (*domain.Participant, error) {
	query := `UPDATE participants SET ` + column + ` = array_append(` + column + `, $2), updated_at = $3
		WHERE id = $1
		RETURNING ` + participantColumns
	var p *domain.Participant
	err := appendEdge(ctx, r.DB, query, participantID, id, func(row scanner) (err error) {
		p, err = scanParticipant(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) AddGroup(ctx context.Context, participantID, groupID string) (*domain.Participant, error) {
	return r.appendTo(ctx, "group_ids", participantID, groupID)
}

func (r *participantRepository) AddEvent(ctx context.Context, participantID, eventID string) (*domain.Participant, error) {
	return r.appendTo(ctx, "event_ids", participantID, eventID)
}
