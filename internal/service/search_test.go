package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf-go/internal/model"
	"github.com/bookshelf/bookshelf-go/internal/openlibrary"
)

type fakeCatalog struct {
	query string
	limit int
	isbn  string
	err   error
}

func (f *fakeCatalog) Search(_ context.Context, query string, limit int) ([]model.SearchResult, error) {
	f.query, f.limit = query, limit
	if f.err != nil {
		return nil, f.err
	}
	return []model.SearchResult{{Key: "/works/OL1W", Title: "Dune"}}, nil
}

func (f *fakeCatalog) SearchByISBN(_ context.Context, isbn string) (*model.SearchResult, error) {
	f.isbn = isbn
	if f.err != nil {
		return nil, f.err
	}
	return &model.SearchResult{Key: "/works/OL1W", Title: "Dune"}, nil
}

func TestSearch(t *testing.T) {
	catalog := &fakeCatalog{}
	svc := NewSearchService(catalog)

	results, err := svc.Search(context.Background(), "  dune ", DefaultSearchLimit)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "dune", catalog.query)
	assert.Equal(t, 20, catalog.limit)
}

func TestSearch_Validation(t *testing.T) {
	svc := NewSearchService(&fakeCatalog{})
	ctx := context.Background()

	_, err := svc.Search(ctx, "   ", 20)
	assert.Equal(t, "q", fieldOf(err))

	long := make([]rune, 201)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Search(ctx, string(long), 20)
	assert.Equal(t, "q", fieldOf(err))

	_, err = svc.Search(ctx, "dune", 0)
	assert.Equal(t, "limit", fieldOf(err))

	_, err = svc.Search(ctx, "dune", 101)
	assert.Equal(t, "limit", fieldOf(err))
}

func TestSearch_UpstreamFailure(t *testing.T) {
	svc := NewSearchService(&fakeCatalog{err: openlibrary.ErrUpstream})

	_, err := svc.Search(context.Background(), "dune", 20)
	assert.ErrorIs(t, err, ErrSearchFailed)
}

func TestSearchByISBN(t *testing.T) {
	catalog := &fakeCatalog{}
	svc := NewSearchService(catalog)

	result, err := svc.SearchByISBN(context.Background(), "978-0-441-01359-3")
	require.NoError(t, err)
	assert.Equal(t, "Dune", result.Title)
	assert.Equal(t, "9780441013593", catalog.isbn)

	_, err = svc.SearchByISBN(context.Background(), "080442957X")
	assert.NoError(t, err)
}

func TestSearchByISBN_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewSearchService(&fakeCatalog{}).SearchByISBN(ctx, "12345")
	assert.Equal(t, "isbn", fieldOf(err))

	_, err = NewSearchService(&fakeCatalog{}).SearchByISBN(ctx, "abcdefghij")
	assert.Equal(t, "isbn", fieldOf(err))

	_, err = NewSearchService(&fakeCatalog{err: openlibrary.ErrNotFound}).SearchByISBN(ctx, "0000000000")
	assert.ErrorIs(t, err, ErrCatalogNotFound)

	_, err = NewSearchService(&fakeCatalog{err: errors.New("dial tcp: refused")}).SearchByISBN(ctx, "0000000000")
	assert.ErrorIs(t, err, ErrSearchFailed)
}
