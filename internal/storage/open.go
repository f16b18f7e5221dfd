package storage

import (
	"context"
	"strings"

	"github.com/dhima/change-monitor/internal/events"
)

// BackendFile selects FileStore; every other backend name is a SQL dialect.
const BackendFile = "file"

// Handle is an opened change log store plus its release hook.
type Handle struct {
	Store   events.LineStore
	Backend string
	close   func() error
}

// pinger is implemented by stores that can report reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

// Ping reports whether the store can currently be reached.
func (h *Handle) Ping(ctx context.Context) error {
	if p, ok := h.Store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases whatever the store holds open.
func (h *Handle) Close() error {
	if h == nil || h.close == nil {
		return nil
	}
	return h.close()
}

// Open builds the store named by backend. path is used by the file backend,
// dsn by the SQL backends.
func Open(ctx context.Context, backend, path, dsn string) (*Handle, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" || backend == BackendFile {
		return &Handle{Store: NewFileStore(path), Backend: BackendFile}, nil
	}

	dialect, err := ParseDialect(backend)
	if err != nil {
		return nil, err
	}
	store, err := OpenSQLStore(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	return &Handle{Store: store, Backend: string(dialect), close: store.Close}, nil
}
