package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/vinyltrader/internal/dependencies/clock"
)

// MockClock is a Clock that only moves when told to. Safe for concurrent use
// so it can back controllers exercised from several goroutines.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock frozen at t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the frozen time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
