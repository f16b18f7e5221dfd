package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dhima/change-monitor/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runLineStoreContract exercises the behaviour every events.LineStore must share.
func runLineStoreContract(t *testing.T, newStore func(t *testing.T) events.LineStore) {
	t.Run("never written reads as empty", func(t *testing.T) {
		// Arrange
		store := newStore(t)

		// Act
		lines, err := store.ReadAll(context.Background())

		// Assert
		require.NoError(t, err)
		assert.NotNil(t, lines)
		assert.Empty(t, lines)
	})

	t.Run("append keeps storage order", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()

		// Act
		for _, line := range []string{`{"n":1}`, "not json", `{"n":3}`} {
			require.NoError(t, store.Append(ctx, line))
		}
		lines, err := store.ReadAll(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{`{"n":1}`, "not json", `{"n":3}`}, lines)
	})

	t.Run("append rejects line breaks without writing", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Append(ctx, "first"))

		// Act
		err := store.Append(ctx, "two\nlines")

		// Assert
		assert.ErrorIs(t, err, ErrLineBreak)
		lines, readErr := store.ReadAll(ctx)
		require.NoError(t, readErr)
		assert.Equal(t, []string{"first"}, lines)
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()
		const writers = 25

		// Act
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, store.Append(ctx, fmt.Sprintf(`{"writer":%d,"pad":"%s"}`, i, strings.Repeat("x", 512))))
			}(i)
		}
		wg.Wait()
		lines, err := store.ReadAll(ctx)

		// Assert
		require.NoError(t, err)
		require.Len(t, lines, writers)
		seen := make(map[string]bool, writers)
		for _, line := range lines {
			assert.True(t, strings.HasPrefix(line, `{"writer":`), "merged or torn line %q", line)
			assert.False(t, seen[line])
			seen[line] = true
		}
	})

	t.Run("rewrite replaces content", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Append(ctx, "old-1"))
		require.NoError(t, store.Append(ctx, "old-2"))

		// Act
		err := store.Rewrite(ctx, []string{"new-1", "garbage", "new-2"})

		// Assert
		require.NoError(t, err)
		lines, readErr := store.ReadAll(ctx)
		require.NoError(t, readErr)
		assert.Equal(t, []string{"new-1", "garbage", "new-2"}, lines)
	})

	t.Run("rewrite to empty leaves an empty store", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Append(ctx, "only"))

		// Act
		err := store.Rewrite(ctx, nil)

		// Assert
		require.NoError(t, err)
		lines, readErr := store.ReadAll(ctx)
		require.NoError(t, readErr)
		assert.Empty(t, lines)
		require.NoError(t, store.Append(ctx, "after"))
		lines, readErr = store.ReadAll(ctx)
		require.NoError(t, readErr)
		assert.Equal(t, []string{"after"}, lines)
	})

	t.Run("rewrite rejecting a line leaves content unchanged", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Append(ctx, "kept"))

		// Act
		err := store.Rewrite(ctx, []string{"fine", "bro\nken"})

		// Assert
		assert.ErrorIs(t, err, ErrLineBreak)
		lines, readErr := store.ReadAll(ctx)
		require.NoError(t, readErr)
		assert.Equal(t, []string{"kept"}, lines)
	})

	t.Run("retain filters in order", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()
		for _, line := range []string{"keep-a", "drop-b", "keep-c", "drop-d"} {
			require.NoError(t, store.Append(ctx, line))
		}

		// Act
		result, err := store.Retain(ctx, func(line string) bool { return strings.HasPrefix(line, "keep") })

		// Assert
		require.NoError(t, err)
		assert.Equal(t, events.RetainResult{Kept: 2, Removed: 2}, result)
		lines, readErr := store.ReadAll(ctx)
		require.NoError(t, readErr)
		assert.Equal(t, []string{"keep-a", "keep-c"}, lines)
	})

	t.Run("retain keeps whitespace and carriage return lines verbatim", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Rewrite(ctx, []string{"junk\rjunk", "   ", "drop", "\tkeep"}))

		// Act
		result, err := store.Retain(ctx, func(line string) bool { return line != "drop" })

		// Assert
		require.NoError(t, err)
		assert.Equal(t, events.RetainResult{Kept: 3, Removed: 1}, result)
		lines, readErr := store.ReadAll(ctx)
		require.NoError(t, readErr)
		assert.Equal(t, []string{"junk\rjunk", "   ", "\tkeep"}, lines)
	})

	t.Run("rewrite rejects a trailing carriage return", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Append(ctx, "kept"))

		// Act
		err := store.Rewrite(ctx, []string{"dangling\r"})

		// Assert
		assert.ErrorIs(t, err, ErrLineBreak)
		lines, readErr := store.ReadAll(ctx)
		require.NoError(t, readErr)
		assert.Equal(t, []string{"kept"}, lines)
	})

	t.Run("retain on empty store succeeds", func(t *testing.T) {
		// Arrange
		store := newStore(t)

		// Act
		result, err := store.Retain(context.Background(), func(string) bool { return false })

		// Assert
		require.NoError(t, err)
		assert.Equal(t, events.RetainResult{}, result)
	})

	t.Run("retain removing everything then append", func(t *testing.T) {
		// Arrange
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Append(ctx, "a"))
		require.NoError(t, store.Append(ctx, "b"))

		// Act
		result, err := store.Retain(ctx, func(string) bool { return false })
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, "c"))

		// Assert
		assert.Equal(t, events.RetainResult{Kept: 0, Removed: 2}, result)
		lines, readErr := store.ReadAll(ctx)
		require.NoError(t, readErr)
		assert.Equal(t, []string{"c"}, lines)
	})
}
