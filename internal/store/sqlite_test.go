package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s *SQLiteStore, u User) User {
	t.Helper()
	require.NoError(t, s.CreateUser(context.Background(), &u))
	return u
}

func TestSQLiteStore_UserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, User{Name: "alice", PartnerID: NoPartner, Status: 105, Sex: 0})
	assert.NotZero(t, u.ID)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.False(t, got.Matched())
	assert.Equal(t, 105, got.Status)

	require.NoError(t, s.UpdateMood(ctx, u.ID, 2, 60))
	require.NoError(t, s.IncrementUnread(ctx, u.ID))
	require.NoError(t, s.IncrementUnread(ctx, u.ID))

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalNotes)
	assert.Equal(t, 60, got.MoodAverage)
	assert.Equal(t, 2, got.Unread)

	require.NoError(t, s.SetTotalNotes(ctx, u.ID, 1))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalNotes)
	assert.Equal(t, 60, got.MoodAverage)
}

func TestSQLiteStore_MissingRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetNote(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteNote(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, s.MarkNoteLiked(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, s.UpdateNote(ctx, "missing", NoteUpdate{Title: "t"}), ErrNotFound)
	assert.ErrorIs(t, s.IncrementUnread(ctx, 42), ErrNotFound)
}

func TestSQLiteStore_NoteLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, User{Name: "bob", PartnerID: NoPartner, Status: 112, Sex: 1})

	created := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	note := Note{
		UserID:         u.ID,
		Title:          "first",
		Content:        "sunny day",
		Images:         []string{"a.png", "b.png"},
		Location:       "Guangzhou",
		Longitude:      113.26,
		Latitude:       23.13,
		Mood:           80,
		CreatedAt:      created,
		StatusSnapshot: 112,
	}
	id, err := s.CreateNote(ctx, &note)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, got.Images)
	assert.Equal(t, 80, got.Mood)
	assert.False(t, got.IsLiked)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, 112, got.StatusSnapshot)

	require.NoError(t, s.UpdateNote(ctx, id, NoteUpdate{Title: "edited", Content: "rain", Mood: 50}))
	require.NoError(t, s.MarkNoteLiked(ctx, id))

	got, err = s.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
	assert.Equal(t, "rain", got.Content)
	assert.Equal(t, []string{}, got.Images)
	assert.Equal(t, 50, got.Mood)
	assert.True(t, got.IsLiked)

	notes, err := s.FindNotesByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	require.NoError(t, s.DeleteNote(ctx, id))
	notes, err = s.FindNotesByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestSQLiteStore_FindNotesByStatusRangeAndDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, User{Name: "carol", PartnerID: NoPartner})

	dayStart := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	mk := func(title string, status int, at time.Time) {
		_, err := s.CreateNote(ctx, &Note{UserID: u.ID, Title: title, Content: "x", StatusSnapshot: status, CreatedAt: at})
		require.NoError(t, err)
	}
	mk("in-low-edge", 110, dayStart)
	mk("in-high-edge", 119, dayEnd.Add(-time.Millisecond))
	mk("status-too-high", 120, dayStart.Add(time.Hour))
	mk("status-too-low", 109, dayStart.Add(time.Hour))
	mk("yesterday", 115, dayStart.Add(-time.Millisecond))
	mk("tomorrow", 115, dayEnd)

	notes, err := s.FindNotesByStatusRangeAndDate(ctx, 110, 120, dayStart, dayEnd)
	require.NoError(t, err)

	titles := make([]string, 0, len(notes))
	for _, n := range notes {
		titles = append(titles, n.Title)
	}
	assert.ElementsMatch(t, []string{"in-low-edge", "in-high-edge"}, titles)
}

func TestSQLiteStore_FindNotesByUserSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, User{Name: "dave", PartnerID: NoPartner})
	other := createUser(t, s, User{Name: "erin", PartnerID: NoPartner})

	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for _, n := range []Note{
		{UserID: u.ID, Title: "old", CreatedAt: from.Add(-time.Second)},
		{UserID: u.ID, Title: "edge", CreatedAt: from},
		{UserID: u.ID, Title: "new", CreatedAt: from.Add(time.Hour)},
		{UserID: other.ID, Title: "someone else", CreatedAt: from.Add(time.Hour)},
	} {
		_, err := s.CreateNote(ctx, &n)
		require.NoError(t, err)
	}

	notes, err := s.FindNotesByUserSince(ctx, u.ID, from)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "edge", notes[0].Title)
	assert.Equal(t, "new", notes[1].Title)
}

func TestSQLiteStore_Messages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, User{Name: "frank", PartnerID: NoPartner})

	msg := Message{UserID: u.ID, Title: "liked", Type: MessageTypeNoteLiked}
	require.NoError(t, s.CreateMessage(ctx, &msg))
	assert.NotEmpty(t, msg.ID)

	msgs, err := s.GetMessagesByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageTypeNoteLiked, msgs[0].Type)
	assert.Equal(t, "liked", msgs[0].Title)
}
