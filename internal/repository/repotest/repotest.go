// Package repotest opens migrated in-memory databases for tests.
package repotest

import (
	"context"
	"testing"

	"github.com/bookshelf/bookshelf-go/internal/repository"
)

// DSN is a private in-memory SQLite database with foreign keys enforced.
const DSN = "file::memory:?_pragma=foreign_keys(1)"

// New returns a migrated in-memory database closed at the end of the test.
func New(tb testing.TB) *repository.DB {
	tb.Helper()

	ctx := context.Background()
	db, err := repository.Open(ctx, string(repository.DialectSQLite), DSN)
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })

	if err := repository.Migrate(ctx, db); err != nil {
		tb.Fatalf("migrate test database: %v", err)
	}
	return db
}
