package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf-go/internal/model"
)

func newMock(t *testing.T, dialect Dialect) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return New(sqlx.NewDb(conn, "sqlmock"), dialect), mock
}

func TestPostgresInsertReturningID(t *testing.T) {
	db, mock := newMock(t, DialectPostgres)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO users (email,password_hash,created_at) VALUES ($1,$2,$3) RETURNING id",
	)).
		WithArgs("reader@example.com", "hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	user := &model.User{Email: "reader@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(7), user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDuplicateEmail(t *testing.T) {
	db, mock := newMock(t, DialectPostgres)
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &model.User{Email: "a@b.co", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLInsertUsesLastInsertID(t *testing.T) {
	db, mock := newMock(t, DialectMySQL)
	repo := NewTagRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tags (user_id,name,color) VALUES (?,?,?)")).
		WithArgs(int64(1), "favorites", "#6366f1").
		WillReturnResult(sqlmock.NewResult(12, 1))

	tag := &model.Tag{UserID: 1, Name: "favorites", Color: "#6366f1"}
	require.NoError(t, repo.Create(context.Background(), tag))
	assert.Equal(t, int64(12), tag.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLDuplicateTag(t *testing.T) {
	db, mock := newMock(t, DialectMySQL)
	repo := NewTagRepository(db)

	mock.ExpectExec("INSERT INTO tags").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.Tag{UserID: 1, Name: "x", Color: "#000000"})
	assert.ErrorIs(t, err, ErrDuplicateTag)
}

func TestListQueryIsScopedAndParameterized(t *testing.T) {
	db, mock := newMock(t, DialectPostgres)
	repo := NewBookRepository(db)

	tagID := int64(3)
	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM books b JOIN book_tags bt ON bt.book_id = b.id AND bt.tag_id = $1 " +
			"WHERE b.user_id = $2 AND b.status = $3 AND " +
			"(LOWER(b.title) LIKE LOWER($4) ESCAPE '!' OR LOWER(b.authors) LIKE LOWER($5) ESCAPE '!') " +
			"ORDER BY b.added_at DESC, b.id DESC",
	)).
		WithArgs(tagID, int64(9), "completed", "%50!%!_off%", "%50!%!_off%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	books, err := repo.List(context.Background(), 9, model.BookFilter{
		Status: "completed",
		TagID:  &tagID,
		Query:  "50%_off",
	})
	require.NoError(t, err)
	assert.Empty(t, books)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t, DialectSQLite)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := db.WithTx(context.Background(), func(*sqlx.Tx) error {
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommits(t *testing.T) {
	db, mock := newMock(t, DialectSQLite)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM book_tags").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := db.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		res, err := db.Execute(context.Background(), tx, db.Builder().Delete("book_tags"))
		if err != nil {
			return err
		}
		assert.Equal(t, int64(2), res.RowsAffected)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("Duplicate entry")))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isUniqueViolation(&mysql.MySQLError{Number: 1452}))
}

func TestStringList(t *testing.T) {
	v, err := stringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = stringList{"Ursula K. Le Guin", "<Anon> & Co"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["Ursula K. Le Guin","<Anon> & Co"]`, v)

	var l stringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, stringList{"a", "b"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Equal(t, stringList{}, l)

	require.NoError(t, l.Scan("null"))
	assert.Equal(t, stringList{}, l)

	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan("not json"))
}

func TestTimestampScan(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	inputs := []any{
		want,
		"2024-03-01 12:30:00",
		"2024-03-01T12:30:00Z",
		"2024-03-01 12:30:00+00:00",
		[]byte("2024-03-01 12:30:00"),
	}
	for _, in := range inputs {
		var ts timestamp
		require.NoError(t, ts.Scan(in), "%v", in)
		assert.True(t, want.Equal(ts.Time()), "%v scanned as %v", in, ts.Time())
	}

	var ts timestamp
	assert.Error(t, ts.Scan("yesterday"))
	assert.Error(t, ts.Scan(3.5))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, dedupe([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, dedupe(nil))
}

func TestDialectPlaceholders(t *testing.T) {
	for _, tt := range []struct {
		dialect Dialect
		want    string
	}{
		{DialectPostgres, "SELECT id FROM books WHERE user_id = $1"},
		{DialectMySQL, "SELECT id FROM books WHERE user_id = ?"},
		{DialectSQLite, "SELECT id FROM books WHERE user_id = ?"},
	} {
		db := New(nil, tt.dialect)
		assert.Equal(t, tt.dialect, db.Dialect())

		query, _, err := db.Builder().Select("id").From("books").Where(sq.Eq{"user_id": 1}).ToSql()
		require.NoError(t, err)
		assert.Equal(t, tt.want, query)
	}
}

func TestMySQLSchemaComparesNamesByteWise(t *testing.T) {
	schema, err := migrations.ReadFile("migrations/mysql/00001_init.sql")
	require.NoError(t, err)

	for _, col := range []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*email\s+VARCHAR\(254\) COLLATE utf8mb4_bin NOT NULL`),
		regexp.MustCompile(`(?m)^\s*name\s+VARCHAR\(50\) COLLATE utf8mb4_bin NOT NULL`),
	} {
		assert.Regexp(t, col, string(schema))
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
}
