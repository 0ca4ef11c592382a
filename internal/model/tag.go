package model

// DefaultTagColor is applied when a tag is created without a color.
const DefaultTagColor = "#6366f1"

// Tag is a user-owned label that can be attached to books.
type Tag struct {
	ID     int64  `json:"id" db:"id"`
	UserID int64  `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Color  string `json:"color" db:"color"`
}

// TagRef is the compact tag shape embedded in book responses.
type TagRef struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}

// CreateTagRequest is the body of POST /api/tags.
type CreateTagRequest struct {
	Name  string  `json:"name" validate:"required,max=50"`
	Color *string `json:"color" validate:"omitnil,rgbhex"`
}

// UpdateTagRequest is the body of PUT /api/tags/{id}.
type UpdateTagRequest struct {
	Name  *string `json:"name" validate:"omitnil,min=1,max=50"`
	Color *string `json:"color" validate:"omitnil,rgbhex"`
}
