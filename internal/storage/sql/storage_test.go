package sql

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/vinyltrader/internal/storage"
	"github.com/mcoot/vinyltrader/internal/storage/storagetest"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Dialect:    DialectSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.sqlite"),
	})
	require.NoError(t, err)
	return s
}

func TestConformance(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage { return openTemp(t) },
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.sqlite")
	ctx := context.Background()

	first, err := Open(ctx, Config{Dialect: DialectSQLite, SQLitePath: path})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, Config{Dialect: DialectSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer second.Close()

	var applied []string
	require.NoError(t, second.db.SelectContext(ctx, &applied, "SELECT version FROM schema_migrations"))
	require.Equal(t, []string{"0001_init.sql"}, applied)
}

func TestUnsupportedDialect(t *testing.T) {
	_, err := Open(context.Background(), Config{Dialect: "oracle"})
	require.Error(t, err)
}

func TestPostgresNeedsDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Dialect: DialectPostgres})
	require.ErrorContains(t, err, "DSN")
}
