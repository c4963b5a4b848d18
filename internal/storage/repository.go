package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"taskfin/internal/core"
	"taskfin/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists every collaborator table in one SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	version uint
}

var _ store.Repositories = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY
	// between our own transactions.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("Opened SQLite database", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, version: version}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) SchemaVersion() uint { return r.version }

// classify maps driver errors onto the store's error taxonomy. Constraint
// violations can never succeed on retry.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if strings.Contains(err.Error(), "constraint failed") {
		return store.Permanent(err)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

// table maps one record type onto one SQL table. columns[0] is the primary
// key and columns[1] the owning user.
type table[T any] struct {
	db       *sql.DB
	name     string
	columns  []string
	values   func(T) ([]any, error)
	scan     func(scanner) (T, error)
	key      func(T) (id, userID string)
	validate func(T) error
	// afterWrite runs inside the write transaction.
	afterWrite func(ctx context.Context, tx *sql.Tx, item T) error
	// load completes rows read by List.
	load func(ctx context.Context, db *sql.DB, userID string, items []T) error
}

func (t table[T]) List(ctx context.Context, userID string) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = ? ORDER BY rowid",
		strings.Join(t.columns, ", "), t.name)
	rows, err := t.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	if t.load != nil && len(out) > 0 {
		if err := t.load(ctx, t.db, userID, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t table[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	if err := t.validate(item); err != nil {
		return zero, err
	}
	args, err := t.values(item)
	if err != nil {
		return zero, err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(t.columns, ", "), placeholders)

	err = t.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return classify(err)
		}
		if t.afterWrite != nil {
			return t.afterWrite(ctx, tx, item)
		}
		return nil
	})
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", t.name, err)
	}

	id, userID := t.key(item)
	slog.DebugContext(ctx, "Row created", "table", t.name, "id", id, "user_id", userID)
	return item, nil
}

func (t table[T]) Update(ctx context.Context, item T) (T, error) {
	var zero T
	if err := t.validate(item); err != nil {
		return zero, err
	}
	args, err := t.values(item)
	if err != nil {
		return zero, err
	}
	sets := make([]string, 0, len(t.columns)-2)
	for _, c := range t.columns[2:] {
		sets = append(sets, c+" = ?")
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND user_id = ?", t.name, strings.Join(sets, ", "))
	params := append(args[2:len(args):len(args)], args[0], args[1])

	err = t.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, params...)
		if err != nil {
			return classify(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return core.ErrNotFound
		}
		if t.afterWrite != nil {
			return t.afterWrite(ctx, tx, item)
		}
		return nil
	})
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", t.name, err)
	}
	return item, nil
}

func (t table[T]) Delete(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", t.name)
	res, err := t.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s %s: %w", t.name, id, core.ErrNotFound)
	}
	slog.DebugContext(ctx, "Row deleted", "table", t.name, "id", id, "user_id", userID)
	return nil
}

func (t table[T]) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}
	return nil
}
