package core

import (
	"context"
	"time"

	"gwi.com/diary-notes/internal/store"
)

// SentimentOracle scores text positivity in [0,1].
type SentimentOracle interface {
	Score(ctx context.Context, text string) (float64, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (*store.User, error)
	UpdateMood(ctx context.Context, id int64, totalNotes, moodAverage int) error
	SetTotalNotes(ctx context.Context, id int64, totalNotes int) error
	IncrementUnread(ctx context.Context, id int64) error
}

// NoteFinder is the query capability the recommendation selector needs.
type NoteFinder interface {
	FindNotesByStatusRangeAndDate(ctx context.Context, minStatus, maxStatus int, start, end time.Time) ([]store.Note, error)
}

type NoteStore interface {
	NoteFinder
	CreateNote(ctx context.Context, note *store.Note) (string, error)
	GetNote(ctx context.Context, id string) (*store.Note, error)
	UpdateNote(ctx context.Context, id string, upd store.NoteUpdate) error
	DeleteNote(ctx context.Context, id string) error
	MarkNoteLiked(ctx context.Context, id string) error
	FindNotesByUser(ctx context.Context, userID int64) ([]store.Note, error)
	FindNotesByUserSince(ctx context.Context, userID int64, from time.Time) ([]store.Note, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, msg *store.Message) error
}

// NotificationSender delivers a push message to a user's devices.
type NotificationSender interface {
	Push(ctx context.Context, userID int64, text string) error
}

var (
	_ UserStore    = (*store.SQLiteStore)(nil)
	_ NoteStore    = (*store.SQLiteStore)(nil)
	_ MessageStore = (*store.SQLiteStore)(nil)
)
