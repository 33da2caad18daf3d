package core

import (
	"math"

	"gwi.com/diary-notes/internal/store"
)

// MoodAggregator keeps a user's running mood average without rescanning notes.
//
// The average is blended incrementally from the previous (already floored)
// average, so after several notes it can sit below the floor of the exact mean.
// Updates and deletions never back a replaced score out.
type MoodAggregator struct{}

// OnNoteCreated returns the user's note count and average after adding a note
// scored newScore.
func (MoodAggregator) OnNoteCreated(user store.User, newScore int) (totalNotes, average int) {
	total := user.MoodAverage*user.TotalNotes + newScore
	return user.TotalNotes + 1, total / (user.TotalNotes + 1)
}

// OnNoteUpdated blends newScore into the average as if it were an additional
// note. oldScore is accepted but not subtracted; the note count is unchanged.
func (MoodAggregator) OnNoteUpdated(user store.User, oldScore int, newScore float64) int {
	total := float64(user.MoodAverage*user.TotalNotes) + newScore
	return int(math.Floor(total / float64(user.TotalNotes+1)))
}

// OnNoteDeleted returns the decremented note count, never below zero.
// The average is left as it was.
func (MoodAggregator) OnNoteDeleted(user store.User) int {
	if user.TotalNotes <= 0 {
		return 0
	}
	return user.TotalNotes - 1
}
