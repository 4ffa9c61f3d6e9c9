package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/postgres"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/repotest"
)

func setupTestPool(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres tests")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.NewWithPool(pool).Migrate(context.Background()))
	return pool
}

func TestPostgresRepository(t *testing.T) {
	pool := setupTestPool(t)

	repotest.Run(t, func(t *testing.T) repotest.Store {
		_, err := pool.Exec(context.Background(), `TRUNCATE comments, posts, users`)
		require.NoError(t, err)
		return postgres.NewWithPool(pool)
	})
}
