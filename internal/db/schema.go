package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The prices table is append-only: no UPDATE or DELETE is ever issued
// against it. The composite index serves both "latest for instrument"
// and "instrument within a sample_time range".
const schema = `
CREATE TABLE IF NOT EXISTS prices (
	id          BIGSERIAL PRIMARY KEY,
	instrument  VARCHAR(20)    NOT NULL,
	price       NUMERIC(20, 8) NOT NULL,
	sample_time BIGINT         NOT NULL,
	recorded_at TIMESTAMPTZ    NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prices_instrument_sample_time
	ON prices (instrument, sample_time DESC);
`

// EnsureSchema creates the prices table and its index if missing.
// Called once at startup.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := p.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
