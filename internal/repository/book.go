package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/bookshelf/bookshelf-go/internal/model"
)

// tagBatchSize caps the number of ids bound into a single IN clause.
const tagBatchSize = 500

type bookRow struct {
	ID              int64      `db:"id"`
	UserID          int64      `db:"user_id"`
	OpenLibraryKey  *string    `db:"open_library_key"`
	Title           string     `db:"title"`
	Authors         stringList `db:"authors"`
	PublicationYear *int64     `db:"publication_year"`
	ISBN13          *string    `db:"isbn_13"`
	Genres          stringList `db:"genres"`
	CoverURL        *string    `db:"cover_url"`
	Status          string     `db:"status"`
	Rating          *int64     `db:"rating"`
	Notes           *string    `db:"notes"`
	AddedAt         timestamp  `db:"added_at"`
}

func (r bookRow) toModel() model.Book {
	return model.Book{
		ID:              r.ID,
		UserID:          r.UserID,
		OpenLibraryKey:  r.OpenLibraryKey,
		Title:           r.Title,
		Authors:         []string(r.Authors),
		PublicationYear: intPtr(r.PublicationYear),
		ISBN13:          r.ISBN13,
		Genres:          []string(r.Genres),
		CoverURL:        r.CoverURL,
		Status:          model.BookStatus(r.Status),
		Rating:          intPtr(r.Rating),
		Notes:           r.Notes,
		AddedAt:         r.AddedAt.Time(),
		Tags:            []model.TagRef{},
	}
}

type bookTagRow struct {
	BookID int64 `db:"book_id"`
	model.TagRef
}

var bookColumns = []string{
	"b.id", "b.user_id", "b.open_library_key", "b.title", "b.authors",
	"b.publication_year", "b.isbn_13", "b.genres", "b.cover_url",
	"b.status", "b.rating", "b.notes", "b.added_at",
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// BookRepository handles book and book-tag persistence. Every query is
// scoped to the owning user.
type BookRepository struct {
	db   *DB
	q    Queryer
	inTx bool
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(db *DB) *BookRepository {
	return &BookRepository{db: db, q: db.conn}
}

// WithTx runs fn with a repository bound to a single transaction. Nested
// calls reuse the outer transaction.
func (r *BookRepository) WithTx(ctx context.Context, fn func(tx *BookRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&BookRepository{db: r.db, q: tx, inTx: true})
	})
}

// List returns the user's books, newest first, with their tags attached.
func (r *BookRepository) List(ctx context.Context, userID int64, filter model.BookFilter) ([]model.Book, error) {
	stmt := r.db.Builder().
		Select(bookColumns...).
		From("books b").
		Where(sq.Eq{"b.user_id": userID})

	if filter.TagID != nil {
		stmt = stmt.Join("book_tags bt ON bt.book_id = b.id AND bt.tag_id = ?", *filter.TagID)
	}
	if filter.Status != "" {
		stmt = stmt.Where(sq.Eq{"b.status": filter.Status})
	}
	if filter.Query != "" {
		pattern := "%" + likeEscaper.Replace(filter.Query) + "%"
		stmt = stmt.Where(sq.Or{
			sq.Expr("LOWER(b.title) LIKE LOWER(?) ESCAPE '!'", pattern),
			sq.Expr("LOWER(b.authors) LIKE LOWER(?) ESCAPE '!'", pattern),
		})
	}

	stmt = stmt.OrderBy("b.added_at DESC", "b.id DESC")

	var rows []bookRow
	if err := r.db.QueryAll(ctx, r.q, &rows, stmt); err != nil {
		return nil, err
	}

	books := make([]model.Book, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.toModel())
		ids = append(ids, row.ID)
	}

	tags, err := r.TagsForBooks(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	for i := range books {
		if t, ok := tags[books[i].ID]; ok {
			books[i].Tags = t
		}
	}

	return books, nil
}

// TagsForBooks loads the tags of many books at once, grouped by book id.
func (r *BookRepository) TagsForBooks(ctx context.Context, userID int64, bookIDs []int64) (map[int64][]model.TagRef, error) {
	out := make(map[int64][]model.TagRef, len(bookIDs))

	for start := 0; start < len(bookIDs); start += tagBatchSize {
		end := min(start+tagBatchSize, len(bookIDs))

		stmt := r.db.Builder().
			Select("bt.book_id", "t.id", "t.name", "t.color").
			From("book_tags bt").
			Join("tags t ON t.id = bt.tag_id").
			Where(sq.Eq{"bt.book_id": bookIDs[start:end]}).
			Where(sq.Eq{"t.user_id": userID}).
			OrderBy("t.name", "t.id")

		var rows []bookTagRow
		if err := r.db.QueryAll(ctx, r.q, &rows, stmt); err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.BookID] = append(out[row.BookID], row.TagRef)
		}
	}

	return out, nil
}

// Get returns one of the user's books with its tags.
func (r *BookRepository) Get(ctx context.Context, userID, bookID int64) (*model.Book, error) {
	stmt := r.db.Builder().
		Select(bookColumns...).
		From("books b").
		Where(sq.Eq{"b.id": bookID, "b.user_id": userID})

	var row bookRow
	if err := r.db.QueryOne(ctx, r.q, &row, stmt); err != nil {
		if isNoRows(err) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	book := row.toModel()
	tags, err := r.TagsForBooks(ctx, userID, []int64{book.ID})
	if err != nil {
		return nil, err
	}
	if t, ok := tags[book.ID]; ok {
		book.Tags = t
	}

	return &book, nil
}

// Exists reports whether the user owns a book with the given id.
func (r *BookRepository) Exists(ctx context.Context, userID, bookID int64) (bool, error) {
	stmt := r.db.Builder().
		Select("id").
		From("books").
		Where(sq.Eq{"id": bookID, "user_id": userID})

	var id int64
	if err := r.db.QueryOne(ctx, r.q, &id, stmt); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create inserts a book and sets its generated id and added_at.
func (r *BookRepository) Create(ctx context.Context, book *model.Book) error {
	if book.Status == "" {
		book.Status = model.StatusUnread
	}
	book.AddedAt = now()

	stmt := r.db.Builder().
		Insert("books").
		Columns(
			"user_id", "open_library_key", "title", "authors", "publication_year",
			"isbn_13", "genres", "cover_url", "status", "rating", "notes", "added_at",
		).
		Values(
			book.UserID, book.OpenLibraryKey, book.Title, stringList(book.Authors), book.PublicationYear,
			book.ISBN13, stringList(book.Genres), book.CoverURL, string(book.Status), book.Rating, book.Notes, book.AddedAt,
		)

	id, err := r.db.Insert(ctx, r.q, stmt)
	if err != nil {
		return err
	}

	book.ID = id
	return nil
}

// Update writes the fields present in req. Callers check ownership first.
func (r *BookRepository) Update(ctx context.Context, userID, bookID int64, req model.UpdateBookRequest) error {
	set := map[string]any{}
	if req.OpenLibraryKey != nil {
		set["open_library_key"] = *req.OpenLibraryKey
	}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Authors != nil {
		set["authors"] = stringList(*req.Authors)
	}
	if req.PublicationYear != nil {
		set["publication_year"] = *req.PublicationYear
	}
	if req.ISBN13 != nil {
		set["isbn_13"] = *req.ISBN13
	}
	if req.Genres != nil {
		set["genres"] = stringList(*req.Genres)
	}
	if req.CoverURL != nil {
		set["cover_url"] = *req.CoverURL
	}
	if req.Status != nil {
		set["status"] = *req.Status
	}
	if req.Rating != nil {
		set["rating"] = *req.Rating
	}
	if req.Notes != nil {
		set["notes"] = *req.Notes
	}
	if len(set) == 0 {
		return nil
	}

	stmt := r.db.Builder().
		Update("books").
		SetMap(set).
		Where(sq.Eq{"id": bookID, "user_id": userID})

	_, err := r.db.Execute(ctx, r.q, stmt)
	return err
}

// Delete removes one of the user's books and its tag links.
func (r *BookRepository) Delete(ctx context.Context, userID, bookID int64) error {
	return r.WithTx(ctx, func(tx *BookRepository) error {
		ok, err := tx.Exists(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBookNotFound
		}

		if _, err := tx.db.Execute(ctx, tx.q, tx.db.Builder().
			Delete("book_tags").
			Where(sq.Eq{"book_id": bookID})); err != nil {
			return err
		}

		_, err = tx.db.Execute(ctx, tx.q, tx.db.Builder().
			Delete("books").
			Where(sq.Eq{"id": bookID, "user_id": userID}))
		return err
	})
}

// OwnedTagIDs keeps the ids from tagIDs that belong to the user, deduplicated
// and in their original order.
func (r *BookRepository) OwnedTagIDs(ctx context.Context, userID int64, tagIDs []int64) ([]int64, error) {
	unique := dedupe(tagIDs)
	if len(unique) == 0 {
		return []int64{}, nil
	}

	owned := make(map[int64]struct{}, len(unique))
	for start := 0; start < len(unique); start += tagBatchSize {
		end := min(start+tagBatchSize, len(unique))

		stmt := r.db.Builder().
			Select("id").
			From("tags").
			Where(sq.Eq{"id": unique[start:end], "user_id": userID})

		var ids []int64
		if err := r.db.QueryAll(ctx, r.q, &ids, stmt); err != nil {
			return nil, err
		}
		for _, id := range ids {
			owned[id] = struct{}{}
		}
	}

	out := make([]int64, 0, len(owned))
	for _, id := range unique {
		if _, ok := owned[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// ReplaceTags makes tagIDs the complete set of links for the book.
func (r *BookRepository) ReplaceTags(ctx context.Context, bookID int64, tagIDs []int64) error {
	if _, err := r.db.Execute(ctx, r.q, r.db.Builder().
		Delete("book_tags").
		Where(sq.Eq{"book_id": bookID})); err != nil {
		return err
	}
	return r.AddTags(ctx, bookID, tagIDs)
}

// AddTags links the book to tagIDs. The ids must not already be linked.
func (r *BookRepository) AddTags(ctx context.Context, bookID int64, tagIDs []int64) error {
	tagIDs = dedupe(tagIDs)
	if len(tagIDs) == 0 {
		return nil
	}

	stmt := r.db.Builder().
		Insert("book_tags").
		Columns("book_id", "tag_id")
	for _, id := range tagIDs {
		stmt = stmt.Values(bookID, id)
	}

	_, err := r.db.Execute(ctx, r.q, stmt)
	return err
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func intPtr(v *int64) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}
