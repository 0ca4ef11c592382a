package model

import "time"

// BookStatus is the reading state of a shelved book.
type BookStatus string

const (
	StatusUnread     BookStatus = "unread"
	StatusInProgress BookStatus = "in_progress"
	StatusCompleted  BookStatus = "completed"
)

// Valid reports whether s is one of the known reading states.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusUnread, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Book is a shelved book together with the tags attached to it.
type Book struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	OpenLibraryKey  *string    `json:"open_library_key"`
	Title           string     `json:"title"`
	Authors         []string   `json:"authors"`
	PublicationYear *int       `json:"publication_year"`
	ISBN13          *string    `json:"isbn_13"`
	Genres          []string   `json:"genres"`
	CoverURL        *string    `json:"cover_url"`
	Status          BookStatus `json:"status"`
	Rating          *int       `json:"rating"`
	Notes           *string    `json:"notes"`
	AddedAt         time.Time  `json:"added_at"`
	Tags            []TagRef   `json:"tags"`
}

// BookFilter narrows a shelf listing. Zero values mean "no filter".
type BookFilter struct {
	Status string
	TagID  *int64
	Query  string
}

// CreateBookRequest is the body of POST /api/books.
type CreateBookRequest struct {
	OpenLibraryKey  *string  `json:"open_library_key" validate:"omitnil,max=100"`
	Title           string   `json:"title" validate:"required,max=500"`
	Authors         []string `json:"authors" validate:"max=50,dive,max=200"`
	PublicationYear *int     `json:"publication_year" validate:"omitnil,min=0,max=9999"`
	ISBN13          *string  `json:"isbn_13" validate:"omitnil,max=20"`
	Genres          []string `json:"genres" validate:"max=50,dive,max=200"`
	CoverURL        *string  `json:"cover_url" validate:"omitnil,max=2048"`
	Status          *string  `json:"status" validate:"omitnil,oneof=unread in_progress completed"`
	Rating          *int     `json:"rating" validate:"omitnil,min=1,max=5"`
	Notes           *string  `json:"notes" validate:"omitnil,max=10000"`
	Tags            []int64  `json:"tags" validate:"max=100"`
}

// UpdateBookRequest is the body of PUT /api/books/{id}.
// A nil field was absent from the payload and keeps its stored value.
type UpdateBookRequest struct {
	OpenLibraryKey  *string   `json:"open_library_key" validate:"omitnil,max=100"`
	Title           *string   `json:"title" validate:"omitnil,min=1,max=500"`
	Authors         *[]string `json:"authors"`
	PublicationYear *int      `json:"publication_year" validate:"omitnil,min=0,max=9999"`
	ISBN13          *string   `json:"isbn_13" validate:"omitnil,max=20"`
	Genres          *[]string `json:"genres"`
	CoverURL        *string   `json:"cover_url" validate:"omitnil,max=2048"`
	Status          *string   `json:"status" validate:"omitnil,oneof=unread in_progress completed"`
	Rating          *int      `json:"rating" validate:"omitnil,min=1,max=5"`
	Notes           *string   `json:"notes" validate:"omitnil,max=10000"`
	Tags            *[]int64  `json:"tags"`
}

// Empty reports whether the request carries no changes at all.
func (r UpdateBookRequest) Empty() bool {
	return r.OpenLibraryKey == nil && r.Title == nil && r.Authors == nil &&
		r.PublicationYear == nil && r.ISBN13 == nil && r.Genres == nil &&
		r.CoverURL == nil && r.Status == nil && r.Rating == nil &&
		r.Notes == nil && r.Tags == nil
}
