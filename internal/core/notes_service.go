package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"gwi.com/diary-notes/internal/metrics"
	"gwi.com/diary-notes/internal/store"
	"gwi.com/diary-notes/internal/utils"
)

// NotesServiceDeps wires the collaborators of NotesService.
type NotesServiceDeps struct {
	Users    UserStore
	Notes    NoteStore
	Messages MessageStore
	Oracle   SentimentOracle
	Notifier NotificationSender
	Selector *RecommendationSelector
	Clock    clockwork.Clock
	Logger   *zap.Logger
}

type NotesService struct {
	users    UserStore
	notes    NoteStore
	messages MessageStore
	oracle   SentimentOracle
	notifier NotificationSender
	selector *RecommendationSelector
	mood     MoodAggregator
	clock    clockwork.Clock
	locks    *userLocks
	logger   *zap.Logger
}

func NewNotesService(deps NotesServiceDeps) *NotesService {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Selector == nil {
		deps.Selector = NewRecommendationSelector(deps.Notes, deps.Clock, nil, deps.Logger)
	}
	return &NotesService{
		users:    deps.Users,
		notes:    deps.Notes,
		messages: deps.Messages,
		oracle:   deps.Oracle,
		notifier: deps.Notifier,
		selector: deps.Selector,
		clock:    deps.Clock,
		locks:    newUserLocks(),
		logger:   deps.Logger,
	}
}

type PublishInput struct {
	UserID    int64
	Title     string
	Content   string
	Location  string
	Longitude float64
	Latitude  float64
	Images    []string
}

// Publish scores the content, stores the note with the owner's current status
// and folds the new mood into the owner's running average.
func (s *NotesService) Publish(ctx context.Context, in PublishInput) (string, error) {
	const op = "publish note"
	defer s.locks.lock(in.UserID)()

	user, err := s.users.GetUser(ctx, in.UserID)
	if err != nil {
		return "", storeError(op, err)
	}

	score, err := s.oracle.Score(ctx, in.Content)
	if err != nil {
		return "", serviceError(op, err)
	}
	if score < 0 || score > 1 {
		return "", serviceError(op, fmt.Errorf("sentiment score %v outside [0,1]", score))
	}
	mood := utils.MoodFromPolarity(score)

	note := store.Note{
		UserID:         user.ID,
		Title:          in.Title,
		Content:        in.Content,
		Images:         in.Images,
		Location:       in.Location,
		Longitude:      in.Longitude,
		Latitude:       in.Latitude,
		Mood:           mood,
		CreatedAt:      s.clock.Now(),
		StatusSnapshot: user.Status,
	}
	noteID, err := s.notes.CreateNote(ctx, &note)
	if err != nil {
		return "", storeError(op, err)
	}

	total, average := s.mood.OnNoteCreated(*user, mood)
	if err := s.users.UpdateMood(ctx, user.ID, total, average); err != nil {
		return "", storeError(op, err)
	}

	metrics.NotesPublished.Inc()
	s.logger.Info("note published",
		zap.Int64("userID", user.ID),
		zap.String("noteID", noteID),
		zap.Int("mood", mood),
		zap.Int("moodAverage", average),
	)
	return noteID, nil
}

// DeleteNote removes one of the user's notes and decrements the note counter.
// The mood average is not recomputed.
func (s *NotesService) DeleteNote(ctx context.Context, userID int64, noteID string) error {
	const op = "delete note"
	defer s.locks.lock(userID)()

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return storeError(op, err)
	}
	if _, err := s.ownedNote(ctx, op, userID, noteID); err != nil {
		return err
	}

	if err := s.notes.DeleteNote(ctx, noteID); err != nil {
		return storeError(op, err)
	}
	if err := s.users.SetTotalNotes(ctx, user.ID, s.mood.OnNoteDeleted(*user)); err != nil {
		return storeError(op, err)
	}

	metrics.NotesDeleted.Inc()
	s.logger.Info("note deleted", zap.Int64("userID", userID), zap.String("noteID", noteID))
	return nil
}

// Like marks a note liked on behalf of a matched user and notifies the partner.
// A failed push is logged and does not fail the like.
func (s *NotesService) Like(ctx context.Context, userID int64, noteID string) error {
	const op = "like note"

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return storeError(op, err)
	}
	if !user.Matched() {
		return invalidState(op, fmt.Sprintf("user %d has no partner", userID))
	}
	partner, err := s.users.GetUser(ctx, user.PartnerID)
	if err != nil {
		return storeError(op, err)
	}

	if err := s.notes.MarkNoteLiked(ctx, noteID); err != nil {
		return storeError(op, err)
	}

	text := fmt.Sprintf("%s liked your diary, what a happy day", user.Name)
	if err := s.notifier.Push(ctx, partner.ID, text); err != nil {
		s.logger.Warn("push notification failed",
			zap.Int64("userID", partner.ID),
			zap.Error(err),
		)
	}

	msg := store.Message{
		UserID:    partner.ID,
		Title:     text,
		Type:      store.MessageTypeNoteLiked,
		CreatedAt: s.clock.Now(),
	}
	if err := s.messages.CreateMessage(ctx, &msg); err != nil {
		return storeError(op, err)
	}
	if err := s.users.IncrementUnread(ctx, partner.ID); err != nil {
		return storeError(op, err)
	}

	metrics.NoteLikes.Inc()
	s.logger.Info("note liked",
		zap.Int64("userID", userID),
		zap.Int64("partnerID", partner.ID),
		zap.String("noteID", noteID),
	)
	return nil
}

// Listing is what a user sees on the diary page.
type Listing struct {
	Own            []store.Note `json:"user"`
	Partner        []store.Note `json:"partner"`
	Recommendation *store.Note  `json:"recommend"`
}

// List returns the user's notes plus either the partner's notes (when matched)
// or at most one recommended note.
func (s *NotesService) List(ctx context.Context, userID int64) (*Listing, error) {
	const op = "list notes"

	own, err := s.notes.FindNotesByUser(ctx, userID)
	if err != nil {
		return nil, storeError(op, err)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(op, err)
	}

	listing := &Listing{Own: own, Partner: []store.Note{}}
	if user.Matched() {
		listing.Partner, err = s.notes.FindNotesByUser(ctx, user.PartnerID)
		if err != nil {
			return nil, storeError(op, err)
		}
		return listing, nil
	}

	listing.Recommendation, err = s.selector.Select(ctx, *user)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// ListSince returns the user's notes created at or after from.
func (s *NotesService) ListSince(ctx context.Context, userID int64, from time.Time) ([]store.Note, error) {
	const op = "list notes since"

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, storeError(op, err)
	}
	notes, err := s.notes.FindNotesByUserSince(ctx, userID, from)
	if err != nil {
		return nil, storeError(op, err)
	}
	return notes, nil
}

type UpdateInput struct {
	UserID  int64
	NoteID  string
	Title   string
	Content string
	Images  []string
	Mood    float64
}

// Update overwrites a note's text, images and mood. The mood is taken from the
// caller, not the oracle, and blended into the average without backing out the
// note's previous score.
func (s *NotesService) Update(ctx context.Context, in UpdateInput) error {
	const op = "update note"
	defer s.locks.lock(in.UserID)()

	user, err := s.users.GetUser(ctx, in.UserID)
	if err != nil {
		return storeError(op, err)
	}
	note, err := s.ownedNote(ctx, op, in.UserID, in.NoteID)
	if err != nil {
		return err
	}

	upd := store.NoteUpdate{
		Title:   in.Title,
		Content: in.Content,
		Images:  in.Images,
		Mood:    int(math.Floor(in.Mood)),
	}
	if err := s.notes.UpdateNote(ctx, in.NoteID, upd); err != nil {
		return storeError(op, err)
	}

	average := s.mood.OnNoteUpdated(*user, note.Mood, in.Mood)
	if err := s.users.UpdateMood(ctx, user.ID, user.TotalNotes, average); err != nil {
		return storeError(op, err)
	}

	metrics.NotesUpdated.Inc()
	s.logger.Info("note updated",
		zap.Int64("userID", in.UserID),
		zap.String("noteID", in.NoteID),
		zap.Int("mood", upd.Mood),
		zap.Int("moodAverage", average),
	)
	return nil
}

// ownedNote loads a note and reports NotFound when it belongs to someone else.
func (s *NotesService) ownedNote(ctx context.Context, op string, userID int64, noteID string) (*store.Note, error) {
	note, err := s.notes.GetNote(ctx, noteID)
	if err != nil {
		return nil, storeError(op, err)
	}
	if note.UserID != userID {
		return nil, notFound(op, fmt.Errorf("note %s of user %d", noteID, userID))
	}
	return note, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(op, err)
	}
	return serviceError(op, err)
}

// userLocks serializes read-modify-write of one user's aggregate.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

// lock blocks until the user's lock is held and returns its release func.
func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
