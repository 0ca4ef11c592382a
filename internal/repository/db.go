package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Dialect names a supported relational engine.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

var ErrUnsupportedDialect = errors.New("unsupported database driver")

// driverName maps a dialect to the database/sql driver registered for it.
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "pgx", nil
	case DialectMySQL:
		return "mysql", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, string(d))
}

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type Queryer interface {
	sqlx.ExtContext
}

// Result reports the effect of a write statement.
// InsertedID is zero when the driver does not report generated keys.
type Result struct {
	RowsAffected int64
	InsertedID   int64
}

// DB is a connection pool bound to one dialect.
type DB struct {
	conn    *sqlx.DB
	dialect Dialect
	builder sq.StatementBuilderType
}

// Open connects to the database for the given driver name and DSN.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect := Dialect(driver)
	name, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// One writer at a time; a single long-lived connection also keeps
		// per-connection pragmas and in-memory databases alive.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	slog.Debug("database connected", "driver", dialect)
	return New(conn, dialect), nil
}

// New wraps an existing connection pool.
func New(conn *sqlx.DB, dialect Dialect) *DB {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if dialect == DialectPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &DB{conn: conn, dialect: dialect, builder: builder}
}

// Conn returns the underlying pool.
func (db *DB) Conn() *sqlx.DB {
	return db.conn
}

// Dialect returns the engine this pool talks to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Builder returns a statement builder using the dialect's placeholders.
func (db *DB) Builder() sq.StatementBuilderType {
	return db.builder
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Execute runs a write statement.
func (db *DB) Execute(ctx context.Context, q Queryer, stmt sq.Sqlizer) (Result, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return Result{}, fmt.Errorf("build statement: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}

	var out Result
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if db.dialect != DialectPostgres {
		if id, err := res.LastInsertId(); err == nil {
			out.InsertedID = id
		}
	}
	return out, nil
}

// Insert runs an insert into a table with an "id" key and returns the new id.
func (db *DB) Insert(ctx context.Context, q Queryer, stmt sq.InsertBuilder) (int64, error) {
	if db.dialect == DialectPostgres {
		var id int64
		if err := db.QueryOne(ctx, q, &id, stmt.Suffix("RETURNING id")); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := db.Execute(ctx, q, stmt)
	if err != nil {
		return 0, err
	}
	if res.InsertedID == 0 {
		return 0, errors.New("insert did not report a generated id")
	}
	return res.InsertedID, nil
}

// QueryOne scans a single row into dest. It returns sql.ErrNoRows when nothing matches.
func (db *DB) QueryOne(ctx context.Context, q Queryer, dest any, stmt sq.Sqlizer) error {
	query, args, err := stmt.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

// QueryAll scans every row into dest, which must be a pointer to a slice.
func (db *DB) QueryAll(ctx context.Context, q Queryer, dest any, stmt sq.Sqlizer) error {
	query, args, err := stmt.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}

// isNoRows reports whether err means the query matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
