package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_BackendFileOrEmptyReturnsFileStore(t *testing.T) {
	for _, backend := range []string{"", "file", " FILE "} {
		t.Run("backend="+backend, func(t *testing.T) {
			// Arrange
			path := filepath.Join(t.TempDir(), "changes.log")

			// Act
			handle, err := Open(context.Background(), backend, path, "")

			// Assert
			require.NoError(t, err)
			defer handle.Close()
			assert.Equal(t, BackendFile, handle.Backend)
			fileStore, ok := handle.Store.(*FileStore)
			require.True(t, ok)
			assert.Equal(t, path, fileStore.Path())
		})
	}
}

func TestOpen_BackendSQLiteReturnsReadySQLStore(t *testing.T) {
	// Arrange
	dsn := filepath.Join(t.TempDir(), "changes.db")
	ctx := context.Background()

	// Act
	handle, err := Open(ctx, "sqlite3", "", dsn)

	// Assert
	require.NoError(t, err)
	defer handle.Close()
	assert.Equal(t, "sqlite", handle.Backend)
	require.NoError(t, handle.Store.Append(ctx, "line"))
	lines, err := handle.Store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"line"}, lines)
}

func TestOpen_BackendUnknownReturnsError(t *testing.T) {
	// Act
	handle, err := Open(context.Background(), "cassandra", "", "")

	// Assert
	assert.Error(t, err)
	assert.Nil(t, handle)
}

func TestOpen_SQLBackendWithoutDSNReturnsError(t *testing.T) {
	// Act
	_, err := Open(context.Background(), "postgres", "", "")

	// Assert
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestHandle_Close_NilNoError(t *testing.T) {
	var handle *Handle
	assert.NoError(t, handle.Close())
}

func TestHandle_Ping_FileStoreLocationVariesReportsUsability(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.log")
	require.NoError(t, os.WriteFile(existing, []byte("line\n"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "file exists", path: existing},
		{name: "file not created yet", path: filepath.Join(dir, "new.log")},
		{name: "path is a directory", path: dir, wantErr: true},
		{name: "parent missing", path: filepath.Join(dir, "missing", "changes.log"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handle, err := Open(context.Background(), BackendFile, tt.path, "")
			require.NoError(t, err)

			// Act
			err = handle.Ping(context.Background())

			// Assert
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHandle_Ping_SQLiteOpenThenClosedReportsConnection(t *testing.T) {
	// Arrange
	ctx := context.Background()
	handle, err := Open(ctx, "sqlite", "", filepath.Join(t.TempDir(), "changes.db"))
	require.NoError(t, err)

	// Act
	open := handle.Ping(ctx)
	require.NoError(t, handle.Close())
	closed := handle.Ping(ctx)

	// Assert
	assert.NoError(t, open)
	assert.Error(t, closed)
}
