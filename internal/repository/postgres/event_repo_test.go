package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupevents/internal/domain"
)

var eventRowColumns = []string{"id", "title", "group_id", "date", "location", "participant_ids", "created_at", "updated_at"}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name:  "success with date and location",
			event: domain.NewEvent("Trail Day", "g-1", &date, "Ridge", now, now),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events \(title, group_id, date, location, created_at, updated_at\)`).
					WithArgs("Trail Day", "g-1", date, "Ridge", now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e-1"))
			},
			wantID: "e-1",
		},
		{
			name:  "optional fields stored as null",
			event: domain.NewEvent("Trail Day", "g-1", nil, "", now, now),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WithArgs("Trail Day", "g-1", nil, nil, now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e-2"))
			},
			wantID: "e-2",
		},
		{
			name:  "same title in group",
			event: domain.NewEvent("Trail Day", "g-1", nil, "", now, now),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrDuplicate,
		},
		{
			name:  "owning group missing",
			event: domain.NewEvent("Trail Day", "g-9", nil, "", now, now),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(&pq.Error{Code: "23503"})
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewEventRepository(db).Create(ctx, tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, tt.event.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByTitleAndGroup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewEventRepository(db)

	mock.ExpectQuery(`FROM events WHERE title = \$1 AND group_id = \$2`).
		WithArgs("Trail Day", "g-1").
		WillReturnRows(sqlmock.NewRows(eventRowColumns).AddRow("e-1", "Trail Day", "g-1", date, "Ridge", "{}", now, now))
	e, err := repo.GetByTitleAndGroup(ctx, "Trail Day", "g-1")
	require.NoError(t, err)
	require.NotNil(t, e.Date)
	assert.True(t, date.Equal(*e.Date))
	assert.Equal(t, "Ridge", e.Location)

	mock.ExpectQuery(`FROM events WHERE title = \$1 AND group_id = \$2`).
		WithArgs("Trail Day", "g-2").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByTitleAndGroup(ctx, "Trail Day", "g-2")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_AddParticipant(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`UPDATE events SET participant_ids = array_append\(participant_ids, \$2\)`).
		WithArgs("e-1", "p-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(eventRowColumns).AddRow("e-1", "Trail Day", "g-1", nil, nil, "{p-1}", now, now))

	e, err := NewEventRepository(db).AddParticipant(ctx, "e-1", "p-1")
	require.NoError(t, err)
	assert.Nil(t, e.Date)
	assert.Equal(t, []string{"p-1"}, e.ParticipantIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}
