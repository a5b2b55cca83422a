package customer

// These tests run against a real PostgreSQL database with the migrations
// applied; set TEST_DATABASE_URL to enable them, otherwise they skip.

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		pool, err := pgxpool.New(context.Background(), dsn)
		if err == nil {
			testPool = pool
		}
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func setupTest(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}

	_, err := testPool.Exec(context.Background(),
		"TRUNCATE clientes RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

func TestRepository_Create_DuplicateEmail(t *testing.T) {
	setupTest(t)
	repo := NewRepository(testPool)
	ctx := context.Background()

	_, err := repo.Create(ctx, &Customer{Name: "Ana", Email: "ana@example.com", Phone: "600111222"})
	require.NoError(t, err)

	// The unique constraint on email surfaces as the sentinel, not as a raw
	// driver error.
	_, err = repo.Create(ctx, &Customer{Name: "Otra Ana", Email: "ana@example.com", Phone: "600333444"})
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestRepository_Update_DuplicateEmail(t *testing.T) {
	setupTest(t)
	repo := NewRepository(testPool)
	ctx := context.Background()

	_, err := repo.Create(ctx, &Customer{Name: "Ana", Email: "ana@example.com", Phone: "600111222"})
	require.NoError(t, err)
	id, err := repo.Create(ctx, &Customer{Name: "Bruno", Email: "bruno@example.com", Phone: "600333444"})
	require.NoError(t, err)

	email := "ana@example.com"
	require.ErrorIs(t, repo.Update(ctx, id, Update{Email: &email}), ErrEmailExists)
}

func TestRepository_Update_PartialFields(t *testing.T) {
	setupTest(t)
	repo := NewRepository(testPool)
	ctx := context.Background()

	id, err := repo.Create(ctx, &Customer{Name: "Ana", Email: "ana@example.com", Phone: "600111222"})
	require.NoError(t, err)

	phone := "699999999"
	require.NoError(t, repo.Update(ctx, id, Update{Phone: &phone}))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "699999999", got.Phone)
	require.Equal(t, "Ana", got.Name)
	require.Equal(t, "ana@example.com", got.Email)
}

func TestRepository_Update_NotFound(t *testing.T) {
	setupTest(t)
	repo := NewRepository(testPool)

	name := "Nadie"
	require.ErrorIs(t, repo.Update(context.Background(), 9999, Update{Name: &name}), ErrNotFound)
}
