package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"groupevents/internal/domain"
)

const groupColumns = `id, title, event_ids, participant_ids, invitation_ids, created_at, updated_at`

type groupRepository struct {
	DB *sql.DB
}

func NewGroupRepository(db *sql.DB) domain.GroupRepository {
	return &groupRepository{DB: db}
}

func scanGroup(row scanner) (*domain.Group, error) {
	g := &domain.Group{}
	err := row.Scan(&g.ID, &g.Title,
		pq.Array(&g.EventIDs), pq.Array(&g.ParticipantIDs), pq.Array(&g.InvitationIDs),
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.EventIDs = nonNil(g.EventIDs)
	g.ParticipantIDs = nonNil(g.ParticipantIDs)
	g.InvitationIDs = nonNil(g.InvitationIDs)
	return g, nil
}

func (r *groupRepository) Create(ctx context.Context, g *domain.Group) error {
	query := `
		INSERT INTO groups (title, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, g.Title, g.CreatedAt, g.UpdatedAt).Scan(&g.ID)
	return mapWriteErr(err)
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`
	g, err := scanGroup(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return g, nil
}

func (r *groupRepository) GetByTitle(ctx context.Context, title string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE title = $1`
	g, err := scanGroup(r.DB.QueryRowContext(ctx, query, title))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return g, nil
}

func (r *groupRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Group, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + groupColumns + ` FROM groups ORDER BY title`
	args := []any{}
	if params.PageSize > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, params.PageSize, params.Offset())
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	groups := make([]*domain.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (r *groupRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Group, error) {
	if len(ids) == 0 {
		return []*domain.Group{}, nil
	}
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = ANY($1) ORDER BY array_position($1, id)`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*domain.Group, 0, len(ids))
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *groupRepository) appendTo(ctx context.Context, column, groupID, id string) (*domain.Group, error) {
	query := `UPDATE groups SET ` + column + ` = array_append(` + column + `, $2), updated_at = $3
		WHERE id = $1
		RETURNING ` + groupColumns
	var g *domain.Group
	err := appendEdge(ctx, r.DB, query, groupID, id, func(row scanner) (err error) {
		g, err = scanGroup(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *groupRepository) AddEvent(ctx context.Context, groupID, eventID string) (*domain.Group, error) {
	return r.appendTo(ctx, "event_ids", groupID, eventID)
}

func (r *groupRepository) AddParticipant(ctx context.Context, groupID, participantID string) (*domain.Group, error) {
	return r.appendTo(ctx, "participant_ids", groupID, participantID)
}

func (r *groupRepository) AddInvitation(ctx context.Context, groupID, invitationID string) (*domain.Group, error) {
	return r.appendTo(ctx, "invitation_ids", groupID, invitationID)
}
