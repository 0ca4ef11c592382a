package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/bookshelf/bookshelf-go/internal/model"
)

var tagColumns = []string{"id", "user_id", "name", "color"}

// TagRepository handles tag persistence. Every query is scoped to the owning user.
type TagRepository struct {
	db *DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *DB) *TagRepository {
	return &TagRepository{db: db}
}

// List returns the user's tags ordered by name.
func (r *TagRepository) List(ctx context.Context, userID int64) ([]model.Tag, error) {
	stmt := r.db.Builder().
		Select(tagColumns...).
		From("tags").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("name", "id")

	tags := []model.Tag{}
	if err := r.db.QueryAll(ctx, r.db.conn, &tags, stmt); err != nil {
		return nil, err
	}
	return tags, nil
}

// Get returns one of the user's tags.
func (r *TagRepository) Get(ctx context.Context, userID, tagID int64) (*model.Tag, error) {
	return r.get(ctx, r.db.conn, userID, tagID)
}

func (r *TagRepository) get(ctx context.Context, q Queryer, userID, tagID int64) (*model.Tag, error) {
	stmt := r.db.Builder().
		Select(tagColumns...).
		From("tags").
		Where(sq.Eq{"id": tagID, "user_id": userID})

	var tag model.Tag
	if err := r.db.QueryOne(ctx, q, &tag, stmt); err != nil {
		if isNoRows(err) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// NameTaken reports whether another of the user's tags already uses name.
// excludeID skips the tag being renamed; pass 0 when creating.
func (r *TagRepository) NameTaken(ctx context.Context, userID int64, name string, excludeID int64) (bool, error) {
	stmt := r.db.Builder().
		Select("id").
		From("tags").
		Where(sq.Eq{"user_id": userID, "name": name})
	if excludeID > 0 {
		stmt = stmt.Where(sq.NotEq{"id": excludeID})
	}
	stmt = stmt.Limit(1)

	var id int64
	if err := r.db.QueryOne(ctx, r.db.conn, &id, stmt); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create inserts a tag and sets its generated id.
func (r *TagRepository) Create(ctx context.Context, tag *model.Tag) error {
	stmt := r.db.Builder().
		Insert("tags").
		Columns("user_id", "name", "color").
		Values(tag.UserID, tag.Name, tag.Color)

	id, err := r.db.Insert(ctx, r.db.conn, stmt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTag
		}
		return err
	}

	tag.ID = id
	return nil
}

// Update stores the tag's name and color.
func (r *TagRepository) Update(ctx context.Context, tag *model.Tag) error {
	stmt := r.db.Builder().
		Update("tags").
		Set("name", tag.Name).
		Set("color", tag.Color).
		Where(sq.Eq{"id": tag.ID, "user_id": tag.UserID})

	if _, err := r.db.Execute(ctx, r.db.conn, stmt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTag
		}
		return err
	}
	return nil
}

// Delete removes one of the user's tags and every link to it.
func (r *TagRepository) Delete(ctx context.Context, userID, tagID int64) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := r.get(ctx, tx, userID, tagID); err != nil {
			return err
		}

		if _, err := r.db.Execute(ctx, tx, r.db.Builder().
			Delete("book_tags").
			Where(sq.Eq{"tag_id": tagID})); err != nil {
			return err
		}

		_, err := r.db.Execute(ctx, tx, r.db.Builder().
			Delete("tags").
			Where(sq.Eq{"id": tagID, "user_id": userID}))
		return err
	})
}
