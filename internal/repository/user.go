package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/bookshelf/bookshelf-go/internal/model"
)

type userRow struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    timestamp `db:"created_at"`
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.Time(),
	}
}

var userColumns = []string{"id", "email", "password_hash", "created_at"}

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets the generated ID on the user struct.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = now()

	stmt := r.db.Builder().
		Insert("users").
		Columns("email", "password_hash", "created_at").
		Values(user.Email, user.PasswordHash, user.CreatedAt)

	id, err := r.db.Insert(ctx, r.db.conn, stmt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	user.ID = id
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, sq.Eq{"email": email})
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *UserRepository) get(ctx context.Context, where sq.Eq) (*model.User, error) {
	stmt := r.db.Builder().
		Select(userColumns...).
		From("users").
		Where(where)

	var row userRow
	if err := r.db.QueryOne(ctx, r.db.conn, &row, stmt); err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}
