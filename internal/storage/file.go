package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhima/change-monitor/internal/events"
)

// ErrLineBreak is returned when a line handed to a store spans more than one line.
var ErrLineBreak = errors.New("change log line contains a line break")

// checkRewriteLines rejects caller-supplied lines that would not read back
// unchanged: an LF splits the line and a trailing CR reads as a terminator.
// Interior CRs are content.
func checkRewriteLines(lines []string) error {
	for _, line := range lines {
		if strings.Contains(line, "\n") || strings.HasSuffix(line, "\r") {
			return ErrLineBreak
		}
	}
	return nil
}

// FileStore keeps the change log as a newline-delimited UTF-8 text file.
//
// Appends use a single O_APPEND write followed by fsync, so concurrent writers
// (including other processes) never merge or lose lines. Rewrites go through a
// temporary file in the same directory and a rename, so readers observe either
// the old or the new content in full. The mutex only orders operations inside
// this process: an append from this process cannot be lost to a concurrent
// Retain.
type FileStore struct {
	path  string
	mutex sync.Mutex
}

var _ events.LineStore = (*FileStore)(nil)

// NewFileStore returns a store backed by the file at path. The file is created
// on the first append; until then the store reads as empty.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Ping checks that the log file, or the directory it will be created in, is
// usable.
func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.path)
	if err == nil {
		if !info.Mode().IsRegular() {
			return fmt.Errorf("change log %s is not a regular file", s.path)
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat change log: %w", err)
	}
	dir, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("failed to stat change log directory: %w", err)
	}
	if !dir.IsDir() {
		return fmt.Errorf("change log parent %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

// Append adds one line at the end of the file.
func (s *FileStore) Append(_ context.Context, line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return ErrLineBreak
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644) // #nosec G304 -- path from configuration
	if err != nil {
		return fmt.Errorf("failed to open change log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat change log: %w", err)
	}
	before := info.Size()

	data := []byte(line + "\n")
	terminated, err := endsWithNewline(file, before)
	if err != nil {
		return err
	}
	if !terminated {
		// Close off an interrupted tail line so the new record stays separate.
		data = append([]byte("\n"), data...)
	}
	n, err := file.Write(data)
	if err != nil || n != len(data) {
		s.discardPartial(file, before, int64(n))
		if err == nil {
			err = fmt.Errorf("short write: %d of %d bytes", n, len(data))
		}
		return fmt.Errorf("failed to append to change log: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync change log: %w", err)
	}
	return nil
}

func endsWithNewline(file *os.File, size int64) (bool, error) {
	if size == 0 {
		return true, nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, size-1); err != nil {
		return false, fmt.Errorf("failed to read change log tail: %w", err)
	}
	return last[0] == '\n', nil
}

// discardPartial truncates a partially written line, provided nothing was
// appended after it.
func (s *FileStore) discardPartial(file *os.File, before, written int64) {
	if written == 0 {
		return
	}
	info, err := file.Stat()
	if err != nil || info.Size() != before+written {
		return
	}
	_ = file.Truncate(before)
}

// ReadAll returns every non-empty line in file order. A CR directly before the
// LF is part of the terminator; any other CR is line content. A missing file
// reads as an empty log.
func (s *FileStore) ReadAll(_ context.Context) ([]string, error) {
	return s.readLines()
}

func (s *FileStore) readLines() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}

	lines := make([]string, 0, strings.Count(string(data), "\n")+1)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Rewrite atomically replaces the file with lines. An empty slice leaves an
// empty file behind.
func (s *FileStore) Rewrite(_ context.Context, lines []string) error {
	if err := checkRewriteLines(lines); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.rewriteFile(lines)
}

// Retain rewrites the file keeping only the lines accepted by keep. Nothing is
// written when every line is kept.
func (s *FileStore) Retain(_ context.Context, keep func(line string) bool) (events.RetainResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	lines, err := s.readLines()
	if err != nil {
		return events.RetainResult{}, err
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if keep(line) {
			kept = append(kept, line)
		}
	}

	result := events.RetainResult{Kept: len(kept), Removed: len(lines) - len(kept)}
	if result.Removed == 0 {
		return result, nil
	}
	if err := s.rewriteFile(kept); err != nil {
		return events.RetainResult{}, err
	}
	return result, nil
}

// rewriteFile must be called with the mutex held. Lines are written as given.
func (s *FileStore) rewriteFile(lines []string) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary change log: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	writer := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := writer.WriteString(line); err != nil {
			return fmt.Errorf("failed to write temporary change log: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write temporary change log: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush temporary change log: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to chmod temporary change log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temporary change log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary change log: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace change log: %w", err)
	}
	committed = true
	return nil
}
