package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/vinyltrader/internal/dependencies/idgen"
)

// MockIDs hands out queued values first, then predictable sequential ones
type MockIDs struct {
	mu      sync.Mutex
	ids     []string
	codes   []string
	counter int
}

var _ idgen.Generator = (*MockIDs)(nil)

// NewMockIDs creates an empty MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// QueueID adds values returned by NewID before the sequence starts
func (m *MockIDs) QueueID(values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, values...)
}

// QueueCode adds values returned by Code
func (m *MockIDs) QueueCode(values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, values...)
}

// NewID returns the next queued ID or "id-N"
func (m *MockIDs) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ids) > 0 {
		v := m.ids[0]
		m.ids = m.ids[1:]
		return v
	}
	m.counter++
	return fmt.Sprintf("id-%d", m.counter)
}

// Code returns the next queued code or "CODE-N"
func (m *MockIDs) Code(length int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) > 0 {
		v := m.codes[0]
		m.codes = m.codes[1:]
		return v
	}
	m.counter++
	return fmt.Sprintf("CODE-%d", m.counter)
}
