package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bookshelf/bookshelf-go/internal/model"
	"github.com/bookshelf/bookshelf-go/internal/openlibrary"
	"github.com/bookshelf/bookshelf-go/internal/validation"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	maxQueryLength     = 200
)

var isbnPattern = regexp.MustCompile(`^(?:[0-9Xx]{10}|[0-9Xx]{13})$`)

// Catalog is an external book catalog.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
	SearchByISBN(ctx context.Context, isbn string) (*model.SearchResult, error)
}

// SearchService validates catalog queries and hides upstream failures.
type SearchService struct {
	catalog Catalog
}

// NewSearchService creates a new SearchService.
func NewSearchService(catalog Catalog) *SearchService {
	return &SearchService{catalog: catalog}
}

// Search queries the catalog by free text.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validation.NewError("q", "Search query required")
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		return nil, validation.NewError("q", "q must be at most 200 characters")
	}
	if limit < 1 || limit > MaxSearchLimit {
		return nil, validation.NewError("limit", "limit must be between 1 and 100")
	}

	results, err := s.catalog.Search(ctx, query, limit)
	if err != nil {
		slog.Error("catalog search failed", "error", err)
		return nil, ErrSearchFailed
	}
	return results, nil
}

// SearchByISBN looks up a single edition by ISBN-10 or ISBN-13.
func (s *SearchService) SearchByISBN(ctx context.Context, isbn string) (*model.SearchResult, error) {
	clean := openlibrary.CleanISBN(isbn)
	if clean == "" {
		return nil, validation.NewError("isbn", "ISBN required")
	}
	if !isbnPattern.MatchString(clean) {
		return nil, validation.NewError("isbn", "ISBN must be 10 or 13 digits")
	}

	result, err := s.catalog.SearchByISBN(ctx, clean)
	if err != nil {
		if errors.Is(err, openlibrary.ErrNotFound) {
			return nil, ErrCatalogNotFound
		}
		slog.Error("catalog isbn lookup failed", "isbn", clean, "error", err)
		return nil, ErrSearchFailed
	}
	return result, nil
}
