package repository

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	slog.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (gooseLogger) Fatalf(format string, v ...any) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (d Dialect) gooseDialect() string {
	if d == DialectSQLite {
		return "sqlite3"
	}
	return string(d)
}

func (db *DB) withGoose(fn func(dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(db.dialect.gooseDialect()); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	return fn("migrations/" + string(db.dialect))
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *DB) error {
	return db.withGoose(func(dir string) error {
		if err := goose.UpContext(ctx, db.conn.DB, dir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *DB) error {
	return db.withGoose(func(dir string) error {
		if err := goose.DownContext(ctx, db.conn.DB, dir); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return nil
	})
}

// MigrationStatus logs the applied state of every migration.
func MigrationStatus(ctx context.Context, db *DB) error {
	return db.withGoose(func(dir string) error {
		if err := goose.StatusContext(ctx, db.conn.DB, dir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Version returns the current schema version.
func Version(ctx context.Context, db *DB) (int64, error) {
	var v int64
	err := db.withGoose(func(string) error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, db.conn.DB)
		return err
	})
	return v, err
}
