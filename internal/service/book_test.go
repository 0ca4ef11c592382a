package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf-go/internal/model"
	"github.com/bookshelf/bookshelf-go/internal/repository"
	"github.com/bookshelf/bookshelf-go/internal/repository/repotest"
)

type shelf struct {
	books *BookService
	tags  *TagService
	alice int64
	bob   int64
}

func newShelf(t *testing.T) shelf {
	t.Helper()
	db := repotest.New(t)
	users := repository.NewUserRepository(db)

	alice := &model.User{Email: "alice@example.com", PasswordHash: "x"}
	bob := &model.User{Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), alice))
	require.NoError(t, users.Create(context.Background(), bob))

	return shelf{
		books: NewBookService(repository.NewBookRepository(db)),
		tags:  NewTagService(repository.NewTagRepository(db)),
		alice: alice.ID,
		bob:   bob.ID,
	}
}

func (s shelf) tag(t *testing.T, userID int64, name string) int64 {
	t.Helper()
	tag, err := s.tags.Create(context.Background(), userID, model.CreateTagRequest{Name: name})
	require.NoError(t, err)
	return tag.ID
}

func ptr[T any](v T) *T { return &v }

func TestBookCreate_Defaults(t *testing.T) {
	s := newShelf(t)

	book, err := s.books.Create(context.Background(), s.alice, model.CreateBookRequest{Title: "  Dune  "})
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, model.StatusUnread, book.Status)
	assert.Equal(t, []string{}, book.Authors)
	assert.Equal(t, []string{}, book.Genres)
	assert.Equal(t, []model.TagRef{}, book.Tags)
	assert.Equal(t, s.alice, book.UserID)
}

func TestBookCreate_Validation(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   model.CreateBookRequest
		field string
	}{
		{"blank title", model.CreateBookRequest{Title: "   "}, "title"},
		{"rating too high", model.CreateBookRequest{Title: "Dune", Rating: ptr(6)}, "rating"},
		{"rating too low", model.CreateBookRequest{Title: "Dune", Rating: ptr(0)}, "rating"},
		{"unknown status", model.CreateBookRequest{Title: "Dune", Status: ptr("abandoned")}, "status"},
		{"negative year", model.CreateBookRequest{Title: "Dune", PublicationYear: ptr(-1)}, "publication_year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.books.Create(ctx, s.alice, tt.req)
			assert.Equal(t, tt.field, fieldOf(err), "error: %v", err)
		})
	}

	books, err := s.books.List(ctx, s.alice, model.BookFilter{})
	require.NoError(t, err)
	assert.Empty(t, books, "rejected books must not be stored")
}

func TestBookCreate_DropsForeignTags(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	own := s.tag(t, s.alice, "mine")
	foreign := s.tag(t, s.bob, "theirs")

	book, err := s.books.Create(ctx, s.alice, model.CreateBookRequest{
		Title: "Dune",
		Tags:  []int64{foreign, own, own},
	})
	require.NoError(t, err)
	require.Len(t, book.Tags, 1)
	assert.Equal(t, own, book.Tags[0].ID)
}

func TestBookArraysRoundTrip(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	created, err := s.books.Create(ctx, s.alice, model.CreateBookRequest{
		Title:   "Good Omens",
		Authors: []string{"Terry Pratchett", "Neil Gaiman"},
		Genres:  []string{"Fantasy", "Comedy"},
	})
	require.NoError(t, err)

	got, err := s.books.Get(ctx, s.alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Terry Pratchett", "Neil Gaiman"}, got.Authors)
	assert.Equal(t, []string{"Fantasy", "Comedy"}, got.Genres)
}

func TestBookCrossUserIsolation(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	book, err := s.books.Create(ctx, s.alice, model.CreateBookRequest{Title: "Private"})
	require.NoError(t, err)

	_, err = s.books.Get(ctx, s.bob, book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = s.books.Update(ctx, s.bob, book.ID, model.UpdateBookRequest{Title: ptr("Stolen")})
	assert.ErrorIs(t, err, ErrBookNotFound)

	assert.ErrorIs(t, s.books.Delete(ctx, s.bob, book.ID), ErrBookNotFound)

	got, err := s.books.Get(ctx, s.alice, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)
}

func TestBookUpdate_Partial(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	fav := s.tag(t, s.alice, "favorites")
	book, err := s.books.Create(ctx, s.alice, model.CreateBookRequest{
		Title:   "Dune",
		Authors: []string{"Frank Herbert"},
		Rating:  ptr(4),
		Notes:   ptr("spice"),
		Tags:    []int64{fav},
	})
	require.NoError(t, err)

	updated, err := s.books.Update(ctx, s.alice, book.ID, model.UpdateBookRequest{Status: ptr("completed")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.Equal(t, "Dune", updated.Title)
	assert.Equal(t, []string{"Frank Herbert"}, updated.Authors)
	assert.Equal(t, 4, *updated.Rating)
	assert.Equal(t, "spice", *updated.Notes)
	require.Len(t, updated.Tags, 1, "tags untouched when absent")

	updated, err = s.books.Update(ctx, s.alice, book.ID, model.UpdateBookRequest{Tags: &[]int64{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
}

func TestBookUpdate_EmptyRequest(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	book, err := s.books.Create(ctx, s.alice, model.CreateBookRequest{Title: "Dune", Rating: ptr(5)})
	require.NoError(t, err)

	got, err := s.books.Update(ctx, s.alice, book.ID, model.UpdateBookRequest{})
	require.NoError(t, err)
	assert.Equal(t, book.Title, got.Title)
	assert.Equal(t, 5, *got.Rating)
	assert.Equal(t, model.StatusUnread, got.Status)

	_, err = s.books.Update(ctx, s.bob, book.ID, model.UpdateBookRequest{})
	assert.ErrorIs(t, err, ErrBookNotFound, "an empty update still checks ownership")

	_, err = s.books.Update(ctx, s.alice, book.ID+100, model.UpdateBookRequest{})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestBookUpdate_Validation(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	book, err := s.books.Create(ctx, s.alice, model.CreateBookRequest{Title: "Dune", Rating: ptr(3)})
	require.NoError(t, err)

	_, err = s.books.Update(ctx, s.alice, book.ID, model.UpdateBookRequest{Rating: ptr(9)})
	assert.Equal(t, "rating", fieldOf(err))

	_, err = s.books.Update(ctx, s.alice, book.ID, model.UpdateBookRequest{Status: ptr("done")})
	assert.Equal(t, "status", fieldOf(err))

	_, err = s.books.Update(ctx, s.alice, book.ID, model.UpdateBookRequest{Title: ptr("  ")})
	assert.Equal(t, "title", fieldOf(err))

	long := make([]string, 51)
	_, err = s.books.Update(ctx, s.alice, book.ID, model.UpdateBookRequest{Authors: &long})
	assert.Equal(t, "authors", fieldOf(err))

	got, err := s.books.Get(ctx, s.alice, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *got.Rating)
}

func TestBookUpdate_ReplacesTagsWithOwnedSubset(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	a := s.tag(t, s.alice, "a")
	b := s.tag(t, s.alice, "b")
	foreign := s.tag(t, s.bob, "x")

	book, err := s.books.Create(ctx, s.alice, model.CreateBookRequest{Title: "Dune", Tags: []int64{a}})
	require.NoError(t, err)

	updated, err := s.books.Update(ctx, s.alice, book.ID, model.UpdateBookRequest{Tags: &[]int64{b, foreign}})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, b, updated.Tags[0].ID)
}

func TestFavoritesScenario(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	fav := s.tag(t, s.alice, "favorites")
	_, err := s.books.Create(ctx, s.alice, model.CreateBookRequest{
		Title:   "Dune",
		Authors: []string{"Frank Herbert"},
		Status:  ptr("completed"),
		Rating:  ptr(5),
		Tags:    []int64{fav},
	})
	require.NoError(t, err)
	_, err = s.books.Create(ctx, s.alice, model.CreateBookRequest{Title: "Hyperion", Authors: []string{"Dan Simmons"}})
	require.NoError(t, err)

	books, err := s.books.List(ctx, s.alice, model.BookFilter{TagID: &fav, Status: "completed"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "favorites", books[0].Tags[0].Name)

	books, err = s.books.List(ctx, s.alice, model.BookFilter{Query: "dune"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	books, err = s.books.List(ctx, s.alice, model.BookFilter{Query: "SIMMONS"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Hyperion", books[0].Title)

	books, err = s.books.List(ctx, s.bob, model.BookFilter{Query: "dune"})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestBookList_InvalidStatus(t *testing.T) {
	s := newShelf(t)

	_, err := s.books.List(context.Background(), s.alice, model.BookFilter{Status: "reading"})
	assert.Equal(t, "status", fieldOf(err))
}

func TestBookDelete(t *testing.T) {
	s := newShelf(t)
	ctx := context.Background()

	book, err := s.books.Create(ctx, s.alice, model.CreateBookRequest{Title: "Dune"})
	require.NoError(t, err)

	require.NoError(t, s.books.Delete(ctx, s.alice, book.ID))
	_, err = s.books.Get(ctx, s.alice, book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.ErrorIs(t, s.books.Delete(ctx, s.alice, book.ID), ErrBookNotFound)
}
