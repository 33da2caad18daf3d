package store

import "time"

// NoPartner is the PartnerID of a user who is not currently matched.
const NoPartner int64 = -1

// MessageTypeNoteLiked marks the notification sent when a partner likes a note.
const MessageTypeNoteLiked = 203

type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PartnerID   int64  `json:"partner_id"` // NoPartner when unmatched
	Status      int    `json:"status"`     // category bucket, e.g. 100-119 opposite sex, 200-219 same sex
	Sex         int    `json:"sex"`
	TotalNotes  int    `json:"total_notes"`
	MoodAverage int    `json:"mood_average"`
	Unread      int    `json:"unread"`
}

// Matched reports whether the user currently has a partner.
func (u User) Matched() bool {
	return u.PartnerID != NoPartner
}

type Note struct {
	ID             string    `json:"id"` // UUID
	UserID         int64     `json:"user_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Images         []string  `json:"images"`
	Location       string    `json:"location"`
	Longitude      float64   `json:"longitude"`
	Latitude       float64   `json:"latitude"`
	IsLiked        bool      `json:"is_liked"`
	Mood           int       `json:"mood"`
	CreatedAt      time.Time `json:"created_at"`
	StatusSnapshot int       `json:"status"` // owner's Status when the note was written
}

// NoteUpdate holds the fields an owner may overwrite on an existing note.
type NoteUpdate struct {
	Title   string
	Content string
	Images  []string
	Mood    int
}

type Message struct {
	ID        string    `json:"id"` // UUID
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Type      int       `json:"type"`
	Content   string    `json:"content"`
	Image     string    `json:"image"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
