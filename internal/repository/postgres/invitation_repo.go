package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"groupevents/internal/domain"
)

const invitationColumns = `id, email, group_ids, created_at, updated_at`

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

func scanInvitation(row scanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	if err := row.Scan(&inv.ID, &inv.Email, pq.Array(&inv.GroupIDs), &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.GroupIDs = nonNil(inv.GroupIDs)
	return inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (email, group_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, inv.Email, pq.Array(nonNil(inv.GroupIDs)), inv.CreatedAt, inv.UpdatedAt).Scan(&inv.ID)
	return mapWriteErr(err)
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return inv, nil
}

func (r *invitationRepository) GetByEmail(ctx context.Context, email string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE email = $1`
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return inv, nil
}

func (r *invitationRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Invitation, error) {
	if len(ids) == 0 {
		return []*domain.Invitation{}, nil
	}
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = ANY($1) ORDER BY array_position($1, id)`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]*domain.Invitation, 0, len(ids))
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *invitationRepository) AddGroup(ctx context.Context, invitationID, groupID string) (*domain.Invitation, error) {
	query := `UPDATE invitations SET group_ids = array_append(group_ids, $2), updated_at = $3
		WHERE id = $1
		RETURNING ` + invitationColumns
	var inv *domain.Invitation
	err := appendEdge(ctx, r.DB, query, invitationID, groupID, func(row scanner) (err error) {
		inv, err = scanInvitation(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}
