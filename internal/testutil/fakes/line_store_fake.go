package fakes

import (
	"context"
	"errors"
	"sync"

	"github.com/dhima/change-monitor/internal/events"
)

// ErrStoreUnavailable is returned by FakeLineStore when a failure is injected
// without a specific error.
var ErrStoreUnavailable = errors.New("store unavailable")

// FakeLineStore is an in-memory events.LineStore.
type FakeLineStore struct {
	mu    sync.Mutex
	lines []string

	AppendErr  error
	ReadErr    error
	RewriteErr error
	RetainErr  error

	Appends  int
	Rewrites int
}

// NewFakeLineStore returns a store seeded with lines.
func NewFakeLineStore(lines ...string) *FakeLineStore {
	return &FakeLineStore{lines: append([]string(nil), lines...)}
}

func (f *FakeLineStore) Append(_ context.Context, line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AppendErr != nil {
		return f.AppendErr
	}
	f.lines = append(f.lines, line)
	f.Appends++
	return nil
}

func (f *FakeLineStore) ReadAll(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	return append([]string{}, f.lines...), nil
}

func (f *FakeLineStore) Rewrite(_ context.Context, lines []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RewriteErr != nil {
		return f.RewriteErr
	}
	f.lines = append([]string{}, lines...)
	f.Rewrites++
	return nil
}

func (f *FakeLineStore) Retain(_ context.Context, keep func(string) bool) (events.RetainResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RetainErr != nil {
		return events.RetainResult{}, f.RetainErr
	}
	kept := make([]string, 0, len(f.lines))
	for _, line := range f.lines {
		if keep(line) {
			kept = append(kept, line)
		}
	}
	result := events.RetainResult{Kept: len(kept), Removed: len(f.lines) - len(kept)}
	f.lines = kept
	f.Rewrites++
	return result, nil
}

// Lines returns a snapshot of the stored lines.
func (f *FakeLineStore) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.lines...)
}
