package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dhima/change-monitor/internal/events"
)

// DefaultTable holds one change log line per row, ordered by id.
const DefaultTable = "change_log_lines"

// SQLStore keeps the change log in a relational table. Each append is a single
// INSERT; rewrites and retains run inside one transaction.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

var _ events.LineStore = (*SQLStore)(nil)

// NewSQLStore wraps an open database. Call EnsureSchema before first use.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, table: DefaultTable}
}

// OpenSQLStore opens the database, creates the table if needed and returns the store.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := OpenDB(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	store := NewSQLStore(db, dialect)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s: %w", s.dialect, err)
	}
	return nil
}

// EnsureSchema creates the change log table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case DialectMySQL:
		ddl = `CREATE TABLE IF NOT EXISTS %s (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			line LONGTEXT NOT NULL
		) DEFAULT CHARSET=utf8mb4`
	case DialectPostgres:
		ddl = `CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			line TEXT NOT NULL
		)`
	case DialectSQLite:
		ddl = `CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			line TEXT NOT NULL
		)`
	default:
		return fmt.Errorf("unsupported SQL dialect %q", s.dialect)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(ddl, s.table)); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.table, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Append inserts one line after all existing rows.
func (s *SQLStore) Append(ctx context.Context, line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return ErrLineBreak
	}

	query := fmt.Sprintf(`INSERT INTO %s (line) VALUES (%s)`, s.table, s.dialect.placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, line); err != nil {
		return fmt.Errorf("failed to append change log line: %w", err)
	}
	return nil
}

// ReadAll returns every non-empty line ordered by insertion.
func (s *SQLStore) ReadAll(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT line FROM %s ORDER BY id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}
	defer rows.Close()

	lines := []string{}
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan change log line: %w", err)
		}
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating change log: %w", err)
	}
	return lines, nil
}

// Rewrite replaces every row with lines in one transaction.
func (s *SQLStore) Rewrite(ctx context.Context, lines []string) error {
	if err := checkRewriteLines(lines); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
			return fmt.Errorf("failed to clear change log: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (line) VALUES (%s)`, s.table, s.dialect.placeholder(1)))
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, line := range lines {
			if _, err := stmt.ExecContext(ctx, line); err != nil {
				return fmt.Errorf("failed to insert change log line: %w", err)
			}
		}
		return nil
	})
}

// Retain deletes, in one transaction, the rows whose line keep rejects. Rows
// appended concurrently by other writers are never touched.
func (s *SQLStore) Retain(ctx context.Context, keep func(line string) bool) (events.RetainResult, error) {
	var result events.RetainResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT id, line FROM %s ORDER BY id`, s.table))
		if err != nil {
			return fmt.Errorf("failed to read change log: %w", err)
		}

		var drop []int64
		for rows.Next() {
			var (
				id   int64
				line string
			)
			if err := rows.Scan(&id, &line); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan change log line: %w", err)
			}
			if line == "" {
				continue
			}
			if keep(line) {
				result.Kept++
			} else {
				drop = append(drop, id)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("error iterating change log: %w", err)
		}
		rows.Close()

		if len(drop) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, s.table, s.dialect.placeholder(1)))
		if err != nil {
			return fmt.Errorf("failed to prepare delete: %w", err)
		}
		defer stmt.Close()

		for _, id := range drop {
			if _, err := stmt.ExecContext(ctx, id); err != nil {
				return fmt.Errorf("failed to delete change log line %d: %w", id, err)
			}
		}
		result.Removed = len(drop)
		return nil
	})
	if err != nil {
		return events.RetainResult{}, err
	}
	return result, nil
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
