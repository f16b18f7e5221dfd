package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and placeholder style used by SQLStore.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect maps a backend name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(name))); d {
	case DialectMySQL, DialectPostgres, DialectSQLite:
		return d, nil
	case "postgresql", "pq":
		return DialectPostgres, nil
	case "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported SQL dialect %q", name)
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

const dialTimeout = 10 * time.Second

// normalizeDSN adapts user-facing connection strings to what each driver expects.
func normalizeDSN(d Dialect, dsn string) (string, error) {
	switch d {
	case DialectMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid mysql DSN: %w", err)
		}
		if cfg.Timeout == 0 {
			cfg.Timeout = dialTimeout
		}
		return cfg.FormatDSN(), nil
	case DialectPostgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			converted, err := pq.ParseURL(dsn)
			if err != nil {
				return "", fmt.Errorf("invalid postgres URL: %w", err)
			}
			return converted, nil
		}
		return dsn, nil
	default:
		return dsn, nil
	}
}

// OpenDB opens and pings a connection pool for the dialect.
func OpenDB(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the %s backend", d)
	}
	normalized, err := normalizeDSN(d, dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.DriverName(), normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if d == DialectSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(5)
		db.SetMaxOpenConns(20)
		db.SetConnMaxLifetime(60 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
