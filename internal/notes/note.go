package notes

import (
	"sort"
	"time"
)

// DefaultTitle is shown for notes whose title is empty and used for new notes.
const DefaultTitle = "Untitled"

// Note is a single row of the notes table
type Note struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayTitle returns the title, or DefaultTitle when it is empty
func (n Note) DisplayTitle() string {
	if n.Title == "" {
		return DefaultTitle
	}
	return n.Title
}

// Fields is the payload for creating a note. Nil fields default to "".
type Fields struct {
	Title   *string
	Content *string
}

// Patch is a partial edit of an existing note
type Patch struct {
	ID      string
	Title   *string
	Content *string
}

// Apply merges the patch into n and returns the result. The ID is never changed.
func (p Patch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	return n
}

// String returns a pointer to s, for building Fields and Patch values.
func String(s string) *string {
	return &s
}

// SortByUpdated sorts notes in place, most recently updated first.
// Ties are broken by ID so the order is stable across reloads.
func SortByUpdated(list []Note) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
}

// Sorted returns a sorted copy of list
func Sorted(list []Note) []Note {
	out := make([]Note, len(list))
	copy(out, list)
	SortByUpdated(out)
	return out
}

// IndexOf returns the position of the note with the given id, or -1
func IndexOf(list []Note, id string) int {
	for i, n := range list {
		if n.ID == id {
			return i
		}
	}
	return -1
}
