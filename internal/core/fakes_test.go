package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"gwi.com/diary-notes/internal/store"
)

// memStore is an in-memory UserStore, NoteStore and MessageStore.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]store.User
	notes    map[string]store.Note
	messages []store.Message
	nextID   int

	findErr error
}

func newMemStore() *memStore {
	return &memStore{
		users: map[int64]store.User{},
		notes: map[string]store.Note{},
	}
}

func (m *memStore) putUser(u store.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *memStore) user(id int64) store.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memStore) note(id string) store.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notes[id]
}

func (m *memStore) putNote(n store.Note) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		m.nextID++
		n.ID = fmt.Sprintf("note-%d", m.nextID)
	}
	m.notes[n.ID] = n
	return n.ID
}

func (m *memStore) GetUser(_ context.Context, id int64) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return &u, nil
}

func (m *memStore) UpdateMood(_ context.Context, id int64, totalNotes, moodAverage int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.TotalNotes = totalNotes
	u.MoodAverage = moodAverage
	m.users[id] = u
	return nil
}

func (m *memStore) SetTotalNotes(_ context.Context, id int64, totalNotes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.TotalNotes = totalNotes
	m.users[id] = u
	return nil
}

func (m *memStore) IncrementUnread(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Unread++
	m.users[id] = u
	return nil
}

func (m *memStore) CreateNote(_ context.Context, note *store.Note) (string, error) {
	note.ID = m.putNote(*note)
	return note.ID, nil
}

func (m *memStore) GetNote(_ context.Context, id string) (*store.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, store.ErrNotFound)
	}
	return &n, nil
}

func (m *memStore) UpdateNote(_ context.Context, id string, upd store.NoteUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return store.ErrNotFound
	}
	n.Title, n.Content, n.Images, n.Mood = upd.Title, upd.Content, upd.Images, upd.Mood
	m.notes[id] = n
	return nil
}

func (m *memStore) DeleteNote(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memStore) MarkNoteLiked(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return store.ErrNotFound
	}
	n.IsLiked = true
	m.notes[id] = n
	return nil
}

func (m *memStore) filter(keep func(store.Note) bool) []store.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.Note{}
	for _, n := range m.notes {
		if keep(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) FindNotesByUser(_ context.Context, userID int64) ([]store.Note, error) {
	return m.filter(func(n store.Note) bool { return n.UserID == userID }), nil
}

func (m *memStore) FindNotesByUserSince(_ context.Context, userID int64, from time.Time) ([]store.Note, error) {
	return m.filter(func(n store.Note) bool { return n.UserID == userID && !n.CreatedAt.Before(from) }), nil
}

func (m *memStore) FindNotesByStatusRangeAndDate(_ context.Context, minStatus, maxStatus int, start, end time.Time) ([]store.Note, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.filter(func(n store.Note) bool {
		return n.StatusSnapshot >= minStatus && n.StatusSnapshot < maxStatus &&
			!n.CreatedAt.Before(start) && n.CreatedAt.Before(end)
	}), nil
}

func (m *memStore) CreateMessage(_ context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = fmt.Sprintf("msg-%d", len(m.messages)+1)
	m.messages = append(m.messages, *msg)
	return nil
}

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) Score(ctx context.Context, text string) (float64, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(float64), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Push(ctx context.Context, userID int64, text string) error {
	args := m.Called(ctx, userID, text)
	return args.Error(0)
}

// recordingFinder captures the arguments of the last pool query.
type recordingFinder struct {
	pool       []store.Note
	err        error
	calls      int
	minStatus  int
	maxStatus  int
	start, end time.Time
}

func (f *recordingFinder) FindNotesByStatusRangeAndDate(_ context.Context, minStatus, maxStatus int, start, end time.Time) ([]store.Note, error) {
	f.calls++
	f.minStatus, f.maxStatus, f.start, f.end = minStatus, maxStatus, start, end
	return f.pool, f.err
}
