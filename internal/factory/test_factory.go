package factory

import (
	"context"
	"time"

	"github.com/mcoot/vinyltrader/internal/catalog"
	"github.com/mcoot/vinyltrader/internal/dependencies/mocks"
	"github.com/mcoot/vinyltrader/internal/rules"
	"github.com/mcoot/vinyltrader/internal/storage/cache"
	"github.com/mcoot/vinyltrader/internal/storage/memory"
	"github.com/mcoot/vinyltrader/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
}

// TestRules are the default rules with the game clock starting at noon,
// when every store in the built-in catalog is open
func TestRules() rules.Rules {
	r := rules.Default()
	r.StartClockHour = 12
	return r
}

// NewTestApp creates an App over in-memory storage and the built-in catalog,
// with mocked clock and ID generator
func NewTestApp() *TestApp {
	return NewTestAppWithRules(TestRules())
}

// NewTestAppWithRules is NewTestApp with custom rules
func NewTestAppWithRules(r rules.Rules) *TestApp {
	seed, err := catalog.Default()
	if err != nil {
		panic(err)
	}
	store := memory.New()
	if err := seed.Apply(context.Background(), store); err != nil {
		panic(err)
	}

	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs()

	app := newWithDependencies(store, seed, mockClock, mockIDs, r, cache.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
	}
}
