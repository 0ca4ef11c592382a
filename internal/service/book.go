package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bookshelf/bookshelf-go/internal/model"
	"github.com/bookshelf/bookshelf-go/internal/repository"
	"github.com/bookshelf/bookshelf-go/internal/validation"
)

const listRule = "max=50,dive,max=200"

// BookService manages a user's shelf. Every operation is scoped to userID.
type BookService struct {
	books *repository.BookRepository
}

// NewBookService creates a new BookService.
func NewBookService(books *repository.BookRepository) *BookService {
	return &BookService{books: books}
}

// List returns the user's books matching filter, newest first.
func (s *BookService) List(ctx context.Context, userID int64, filter model.BookFilter) ([]model.Book, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	filter.Query = strings.TrimSpace(filter.Query)

	if filter.Status != "" && !model.BookStatus(filter.Status).Valid() {
		return nil, validation.NewError("status", "status must be one of: unread in_progress completed")
	}
	if len(filter.Query) > 200 {
		return nil, validation.NewError("q", "q must be at most 200 characters")
	}

	return s.books.List(ctx, userID, filter)
}

// Get returns one of the user's books.
func (s *BookService) Get(ctx context.Context, userID, bookID int64) (*model.Book, error) {
	book, err := s.books.Get(ctx, userID, bookID)
	if err != nil {
		return nil, mapBookErr(err)
	}
	return book, nil
}

// Create adds a book to the user's shelf. Tag ids the user does not own are dropped.
func (s *BookService) Create(ctx context.Context, userID int64, req model.CreateBookRequest) (*model.Book, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	book := model.Book{
		UserID:          userID,
		OpenLibraryKey:  req.OpenLibraryKey,
		Title:           req.Title,
		Authors:         orEmpty(req.Authors),
		PublicationYear: req.PublicationYear,
		ISBN13:          req.ISBN13,
		Genres:          orEmpty(req.Genres),
		CoverURL:        req.CoverURL,
		Status:          model.StatusUnread,
		Rating:          req.Rating,
		Notes:           req.Notes,
	}
	if req.Status != nil {
		book.Status = model.BookStatus(*req.Status)
	}

	var created *model.Book
	err := s.books.WithTx(ctx, func(tx *repository.BookRepository) error {
		if err := tx.Create(ctx, &book); err != nil {
			return err
		}

		tagIDs, err := tx.OwnedTagIDs(ctx, userID, req.Tags)
		if err != nil {
			return err
		}
		if err := tx.AddTags(ctx, book.ID, tagIDs); err != nil {
			return err
		}

		created, err = tx.Get(ctx, userID, book.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Update changes only the fields present in req. When tags are present the
// book's links are replaced by the owned subset of them.
func (s *BookService) Update(ctx context.Context, userID, bookID int64, req model.UpdateBookRequest) (*model.Book, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := validateUpdate(req); err != nil {
		return nil, err
	}
	if req.Empty() {
		return s.Get(ctx, userID, bookID)
	}

	var updated *model.Book
	err := s.books.WithTx(ctx, func(tx *repository.BookRepository) error {
		ok, err := tx.Exists(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrBookNotFound
		}

		if err := tx.Update(ctx, userID, bookID, req); err != nil {
			return err
		}

		if req.Tags != nil {
			tagIDs, err := tx.OwnedTagIDs(ctx, userID, *req.Tags)
			if err != nil {
				return err
			}
			if err := tx.ReplaceTags(ctx, bookID, tagIDs); err != nil {
				return err
			}
		}

		updated, err = tx.Get(ctx, userID, bookID)
		return err
	})
	if err != nil {
		return nil, mapBookErr(err)
	}

	return updated, nil
}

// Delete removes one of the user's books and its tag links.
func (s *BookService) Delete(ctx context.Context, userID, bookID int64) error {
	return mapBookErr(s.books.Delete(ctx, userID, bookID))
}

func validateUpdate(req model.UpdateBookRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if req.Authors != nil {
		if err := validation.Var("authors", *req.Authors, listRule); err != nil {
			return err
		}
	}
	if req.Genres != nil {
		if err := validation.Var("genres", *req.Genres, listRule); err != nil {
			return err
		}
	}
	if req.Tags != nil {
		if err := validation.Var("tags", *req.Tags, "max=100"); err != nil {
			return err
		}
	}
	return nil
}

func mapBookErr(err error) error {
	if errors.Is(err, repository.ErrBookNotFound) {
		return ErrBookNotFound
	}
	return err
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
