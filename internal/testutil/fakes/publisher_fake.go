package fakes

import (
	"context"
	"errors"
	"sync"

	"github.com/dhima/change-monitor/internal/models"
)

// ErrBrokerDown is what FakePublisher returns when told to fail.
var ErrBrokerDown = errors.New("fake broker unavailable")

// FakePublisher records every change it is asked to publish. While Down is
// true, Publish fails with ErrBrokerDown and records nothing.
type FakePublisher struct {
	mu       sync.Mutex
	events   []models.ChangeEvent
	attempts int
	Down     bool
}

func (p *FakePublisher) Publish(_ context.Context, e models.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.Down {
		return ErrBrokerDown
	}
	p.events = append(p.events, e)
	return nil
}

// Published returns a snapshot of the delivered changes.
func (p *FakePublisher) Published() []models.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ChangeEvent(nil), p.events...)
}

// PublishedFor returns the delivered changes for one resource URL.
func (p *FakePublisher) PublishedFor(resourceURL string) []models.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.ChangeEvent
	for _, e := range p.events {
		if e.ResourceURL == resourceURL {
			out = append(out, e)
		}
	}
	return out
}

// Attempts counts Publish calls, failed ones included.
func (p *FakePublisher) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}
