package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned when a referenced user or note does not exist.
var ErrNotFound = errors.New("not found")

const (
	userColumns    = "id, name, partner_id, status, sex, total_notes, mood, unread"
	noteColumns    = "id, user_id, title, content, images, location, longitude, latitude, is_liked, mood, created_at, status"
	messageColumns = "id, user_id, title, type, content, image, url, created_at"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL DEFAULT '',
        partner_id INTEGER NOT NULL DEFAULT -1,
        status INTEGER NOT NULL DEFAULT 0,
        sex INTEGER NOT NULL DEFAULT 0,
        total_notes INTEGER NOT NULL DEFAULT 0,
        mood INTEGER NOT NULL DEFAULT 0,
        unread INTEGER NOT NULL DEFAULT 0
    );

    CREATE TABLE IF NOT EXISTS notes (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        title TEXT NOT NULL,
        content TEXT NOT NULL,
        images TEXT NOT NULL DEFAULT '[]', -- JSON array of image references
        location TEXT NOT NULL DEFAULT '',
        longitude REAL NOT NULL DEFAULT 0,
        latitude REAL NOT NULL DEFAULT 0,
        is_liked BOOLEAN NOT NULL DEFAULT FALSE,
        mood INTEGER NOT NULL DEFAULT 0,
        created_at INTEGER NOT NULL, -- unix milliseconds
        status INTEGER NOT NULL, -- owner's status at creation
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    CREATE INDEX IF NOT EXISTS idx_notes_user ON notes (user_id);
    CREATE INDEX IF NOT EXISTS idx_notes_status_created ON notes (status, created_at);

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        title TEXT NOT NULL,
        type INTEGER NOT NULL,
        content TEXT NOT NULL DEFAULT '',
        image TEXT NOT NULL DEFAULT '',
        url TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

// User methods
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query, args, err := sq.Insert("users").
		Columns("name", "partner_id", "status", "sex", "total_notes", "mood", "unread").
		Values(user.Name, user.PartnerID, user.Status, user.Sex, user.TotalNotes, user.MoodAverage, user.Unread).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	query, args, err := sq.Select(userColumns).From("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	var user User
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Name, &user.PartnerID, &user.Status, &user.Sex,
		&user.TotalNotes, &user.MoodAverage, &user.Unread,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// UpdateMood overwrites the user's note counter and running mood average.
func (s *SQLiteStore) UpdateMood(ctx context.Context, id int64, totalNotes, moodAverage int) error {
	return s.updateUser(ctx, id, sq.Eq{"total_notes": totalNotes, "mood": moodAverage})
}

func (s *SQLiteStore) SetTotalNotes(ctx context.Context, id int64, totalNotes int) error {
	return s.updateUser(ctx, id, sq.Eq{"total_notes": totalNotes})
}

func (s *SQLiteStore) IncrementUnread(ctx context.Context, id int64) error {
	return s.updateUser(ctx, id, sq.Eq{"unread": sq.Expr("unread + 1")})
}

func (s *SQLiteStore) updateUser(ctx context.Context, id int64, fields sq.Eq) error {
	query, args, err := sq.Update("users").SetMap(fields).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user update: %w", err)
	}
	return s.execOne(ctx, fmt.Sprintf("user %d", id), query, args...)
}

// Note methods
func (s *SQLiteStore) CreateNote(ctx context.Context, note *Note) (string, error) {
	note.ID = uuid.NewString()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	if note.Images == nil {
		note.Images = []string{}
	}

	images, err := json.Marshal(note.Images)
	if err != nil {
		return "", fmt.Errorf("failed to marshal images: %w", err)
	}

	query, args, err := sq.Insert("notes").
		Columns("id", "user_id", "title", "content", "images", "location", "longitude", "latitude", "is_liked", "mood", "created_at", "status").
		Values(note.ID, note.UserID, note.Title, note.Content, string(images), note.Location,
			note.Longitude, note.Latitude, note.IsLiked, note.Mood, note.CreatedAt.UnixMilli(), note.StatusSnapshot).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build note insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to execute note insert: %w", err)
	}
	return note.ID, nil
}

func (s *SQLiteStore) GetNote(ctx context.Context, id string) (*Note, error) {
	query, args, err := sq.Select(noteColumns).From("notes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build note query: %w", err)
	}
	note, err := scanNote(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("note %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return note, nil
}

func (s *SQLiteStore) UpdateNote(ctx context.Context, id string, upd NoteUpdate) error {
	images := upd.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}

	query, args, err := sq.Update("notes").
		SetMap(sq.Eq{"title": upd.Title, "content": upd.Content, "images": string(imagesJSON), "mood": upd.Mood}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build note update: %w", err)
	}
	return s.execOne(ctx, "note "+id, query, args...)
}

func (s *SQLiteStore) MarkNoteLiked(ctx context.Context, id string) error {
	query, args, err := sq.Update("notes").Set("is_liked", true).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build note like update: %w", err)
	}
	return s.execOne(ctx, "note "+id, query, args...)
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, id string) error {
	query, args, err := sq.Delete("notes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build note delete: %w", err)
	}
	return s.execOne(ctx, "note "+id, query, args...)
}

func (s *SQLiteStore) FindNotesByUser(ctx context.Context, userID int64) ([]Note, error) {
	return s.queryNotes(ctx, sq.Eq{"user_id": userID})
}

// FindNotesByUserSince returns the user's notes created at or after from.
func (s *SQLiteStore) FindNotesByUserSince(ctx context.Context, userID int64, from time.Time) ([]Note, error) {
	return s.queryNotes(ctx, sq.And{
		sq.Eq{"user_id": userID},
		sq.GtOrEq{"created_at": from.UnixMilli()},
	})
}

// FindNotesByStatusRangeAndDate returns notes whose status snapshot is in
// [minStatus, maxStatus) and whose creation time is in [start, end).
func (s *SQLiteStore) FindNotesByStatusRangeAndDate(ctx context.Context, minStatus, maxStatus int, start, end time.Time) ([]Note, error) {
	return s.queryNotes(ctx, sq.And{
		sq.GtOrEq{"status": minStatus},
		sq.Lt{"status": maxStatus},
		sq.GtOrEq{"created_at": start.UnixMilli()},
		sq.Lt{"created_at": end.UnixMilli()},
	})
}

func (s *SQLiteStore) queryNotes(ctx context.Context, where sq.Sqlizer) ([]Note, error) {
	query, args, err := sq.Select(noteColumns).From("notes").Where(where).OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build notes query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

func scanNote(row scanner) (*Note, error) {
	var (
		note       Note
		imagesJSON string
		createdAt  int64
	)
	err := row.Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &imagesJSON, &note.Location,
		&note.Longitude, &note.Latitude, &note.IsLiked, &note.Mood, &createdAt, &note.StatusSnapshot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan note row: %w", err)
	}
	if err := json.Unmarshal([]byte(imagesJSON), &note.Images); err != nil {
		return nil, fmt.Errorf("failed to unmarshal images of note %s: %w", note.ID, err)
	}
	if note.Images == nil {
		note.Images = []string{}
	}
	note.CreatedAt = time.UnixMilli(createdAt)
	return &note, nil
}

// Message methods
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query, args, err := sq.Insert("messages").
		Columns("id", "user_id", "title", "type", "content", "image", "url", "created_at").
		Values(msg.ID, msg.UserID, msg.Title, msg.Type, msg.Content, msg.Image, msg.URL, msg.CreatedAt.UnixMilli()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build message insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMessagesByUser(ctx context.Context, userID int64) ([]Message, error) {
	query, args, err := sq.Select(messageColumns).From("messages").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build messages query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var (
			msg       Message
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Title, &msg.Type, &msg.Content, &msg.Image, &msg.URL, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.CreatedAt = time.UnixMilli(createdAt)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// execOne runs a statement that must touch exactly one row.
func (s *SQLiteStore) execOne(ctx context.Context, what, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", what, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
