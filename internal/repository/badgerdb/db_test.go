package badgerdb

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupevents/internal/domain"
)

func openTestStore(t *testing.T) domain.Store {
	t.Helper()
	db, err := Open("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.Store()
}

func TestStore_GroupUniqueTitleAndLookup(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Now()

	g := domain.NewGroup("Hikers", now, now)
	require.NoError(t, s.Groups.Create(ctx, g))
	require.NotEmpty(t, g.ID)

	err := s.Groups.Create(ctx, domain.NewGroup("Hikers", now, now))
	require.ErrorIs(t, err, domain.ErrDuplicate)

	byTitle, err := s.Groups.GetByTitle(ctx, "Hikers")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byTitle.ID)

	_, err = s.Groups.GetByTitle(ctx, "hikers")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Groups.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ParticipantKeepsCredentials(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Now()

	p := domain.NewParticipant("ana", "ana@x.com", "bcrypt-hash", "salt", "", now, now)
	require.NoError(t, s.Participants.Create(ctx, p))

	got, err := s.Participants.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "bcrypt-hash", got.PasswordHash)
	assert.Equal(t, "salt", got.Salt)

	err = s.Participants.Create(ctx, domain.NewParticipant("ana", "other@x.com", "h", "s", "", now, now))
	require.ErrorIs(t, err, domain.ErrDuplicate)

	updated, err := s.Participants.AddGroup(ctx, p.ID, "g-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"g-1"}, updated.GroupIDs)
	assert.Equal(t, "bcrypt-hash", updated.PasswordHash)

	byName, err := s.Participants.GetByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"g-1"}, byName.GroupIDs)
}

func TestStore_EventsRequireGroupAndAreUniquePerGroup(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Now()

	g1 := domain.NewGroup("G1", now, now)
	g2 := domain.NewGroup("G2", now, now)
	require.NoError(t, s.Groups.Create(ctx, g1))
	require.NoError(t, s.Groups.Create(ctx, g2))

	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	e := domain.NewEvent("Trail Day", g1.ID, &date, "Ridge", now, now)
	require.NoError(t, s.Events.Create(ctx, e))
	require.NoError(t, s.Events.Create(ctx, domain.NewEvent("Trail Day", g2.ID, nil, "", now, now)))

	err := s.Events.Create(ctx, domain.NewEvent("Trail Day", g1.ID, nil, "", now, now))
	require.ErrorIs(t, err, domain.ErrDuplicate)
	err = s.Events.Create(ctx, domain.NewEvent("Orphan", "missing", nil, "", now, now))
	require.ErrorIs(t, err, domain.ErrNotFound)

	found, err := s.Events.GetByTitleAndGroup(ctx, "Trail Day", g1.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, found.ID)
	require.NotNil(t, found.Date)
	assert.True(t, date.Equal(*found.Date))
}

func TestStore_ListAndListByIDs(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Now()

	var ids []string
	for _, title := range []string{"c", "a", "b"} {
		g := domain.NewGroup(title, now, now)
		require.NoError(t, s.Groups.Create(ctx, g))
		ids = append(ids, g.ID)
	}

	all, total, err := s.Groups.List(ctx, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3, "index keys are not listed as records")
	assert.Equal(t, "a", all[0].Title)

	page, _, err := s.Groups.List(ctx, domain.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].Title)

	picked, err := s.Groups.ListByIDs(ctx, []string{ids[2], "dangling", ids[0]})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "b", picked[0].Title)
	assert.Equal(t, "c", picked[1].Title)
}

func TestStore_InvitationAppend(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Now()

	inv := domain.NewInvitation("ana@x.com", []string{"g-1"}, now, now)
	require.NoError(t, s.Invitations.Create(ctx, inv))
	require.ErrorIs(t, s.Invitations.Create(ctx, domain.NewInvitation("ana@x.com", nil, now, now)), domain.ErrDuplicate)

	updated, err := s.Invitations.AddGroup(ctx, inv.ID, "g-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"g-1", "g-2"}, updated.GroupIDs)

	_, err = s.Invitations.AddGroup(ctx, "missing", "g-2")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
