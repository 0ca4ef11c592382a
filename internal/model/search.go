package model

// SearchResult is a catalog hit mapped into the shape the client adds to a shelf.
type SearchResult struct {
	Key             string   `json:"key"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	PublicationYear *int     `json:"publicationYear"`
	ISBN            *string  `json:"isbn"`
	Genres          []string `json:"genres"`
	CoverURL        *string  `json:"coverUrl"`
}
