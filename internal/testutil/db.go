package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"pricetracker/internal/db"
)

// SetupPool creates a pgxpool.Pool for integration tests and makes
// sure the prices schema exists. Connection details come from env vars
// or sensible defaults.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		host := EnvOr("DB_HOST", "localhost")
		port := EnvOr("DB_PORT", "5432")
		name := EnvOr("DB_NAME", "deribit_prices")
		user := EnvOr("DB_USER", "postgres")
		pass := EnvOr("DB_PASSWORD", "")
		dsn = "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return pool
}

// ClearInstrument deletes rows for one instrument so tests that assert
// on exact row sets start from a known state. Test-only escape hatch:
// the application itself never deletes.
func ClearInstrument(t *testing.T, pool *pgxpool.Pool, instrument string) {
	t.Helper()
	if _, err := pool.Exec(context.Background(),
		`DELETE FROM prices WHERE instrument = $1`, instrument); err != nil {
		t.Fatalf("clear instrument %s: %v", instrument, err)
	}
}

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
