package core

import (
	"context"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"gwi.com/diary-notes/internal/metrics"
	"gwi.com/diary-notes/internal/store"
	"gwi.com/diary-notes/internal/utils"
)

// StatusRange is a half-open [Min, Max) interval of category statuses.
type StatusRange struct {
	Min int
	Max int
}

// TargetRange returns the status bucket whose notes are recommended to a user
// with the given sex and status. Statuses below 200 seek the opposite sex,
// statuses strictly between 200 and 300 seek the same sex; anything else has
// no bucket.
func TargetRange(sex, status int) (StatusRange, bool) {
	switch {
	case status < 200:
		if sex == 0 {
			return StatusRange{Min: 110, Max: 120}, true
		}
		return StatusRange{Min: 100, Max: 110}, true
	case status > 200 && status < 300:
		if sex == 0 {
			return StatusRange{Min: 200, Max: 210}, true
		}
		return StatusRange{Min: 210, Max: 220}, true
	default:
		return StatusRange{}, false
	}
}

type RecommendationSelector struct {
	notes  NoteFinder
	clock  clockwork.Clock
	loc    *time.Location
	intn   func(n int) int
	logger *zap.Logger
}

type SelectorOption func(*RecommendationSelector)

// WithRandom replaces the source used to pick an index in [0, n).
func WithRandom(intn func(n int) int) SelectorOption {
	return func(s *RecommendationSelector) {
		s.intn = intn
	}
}

func NewRecommendationSelector(notes NoteFinder, clock clockwork.Clock, loc *time.Location, logger *zap.Logger, opts ...SelectorOption) *RecommendationSelector {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RecommendationSelector{
		notes:  notes,
		clock:  clock,
		loc:    loc,
		intn:   rand.Intn,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select picks one of today's notes from the user's target bucket uniformly at
// random. It returns nil when the user is matched, has no bucket, or the pool
// is empty. Nothing is remembered between calls.
func (s *RecommendationSelector) Select(ctx context.Context, user store.User) (*store.Note, error) {
	if user.Matched() {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeIneligible).Inc()
		return nil, nil
	}
	target, ok := TargetRange(user.Sex, user.Status)
	if !ok {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeIneligible).Inc()
		return nil, nil
	}

	start, end := utils.DayWindow(s.clock.Now(), s.loc)
	pool, err := s.notes.FindNotesByStatusRangeAndDate(ctx, target.Min, target.Max, start, end)
	if err != nil {
		return nil, serviceError("select recommendation", err)
	}
	if len(pool) == 0 {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return nil, nil
	}

	pick := pool[s.intn(len(pool))]
	metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeHit).Inc()
	s.logger.Debug("recommendation selected",
		zap.Int64("userID", user.ID),
		zap.String("noteID", pick.ID),
		zap.Int("poolSize", len(pool)),
	)
	return &pick, nil
}
