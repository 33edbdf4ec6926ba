package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcoot/vinyltrader/internal/catalog"
	"github.com/mcoot/vinyltrader/internal/storage/memory"
)

// SeededStorage returns in-memory storage holding the built-in catalog
func SeededStorage(t testing.TB) (*memory.Storage, *catalog.Seed) {
	t.Helper()
	seed, err := catalog.Default()
	require.NoError(t, err)
	s := memory.New()
	require.NoError(t, seed.Apply(context.Background(), s))
	return s, seed
}
