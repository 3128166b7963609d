package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pricetracker/internal/models"
)

// PriceTx is the deferred-commit write path used by the fetch cycle:
// inserts accumulate in one transaction and become visible only when
// Commit succeeds. Either every insert of a cycle lands, or none do.
type PriceTx struct {
	tx pgx.Tx
}

// Begin opens a cycle transaction.
func (r *PriceRepo) Begin(ctx context.Context) (*PriceTx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &PriceTx{tx: tx}, nil
}

// Insert stages one sample inside the transaction. The returned row
// carries the store-assigned id and recorded_at, though neither is
// durable until Commit.
//
// Each insert runs under its own savepoint: a failed statement would
// otherwise put the whole transaction into Postgres's aborted state
// (25P02) and every later insert of the cycle would fail with it.
// Rolling back just the savepoint keeps the outer transaction healthy.
func (t *PriceTx) Insert(ctx context.Context, instrument string, price decimal.Decimal, sampleTime int64) (*models.PriceSample, error) {
	sp, err := t.tx.Begin(ctx) // nested Begin on pgx.Tx is a savepoint
	if err != nil {
		return nil, err
	}

	row := sp.QueryRow(ctx,
		`INSERT INTO prices (instrument, price, sample_time)
		 VALUES ($1, $2, $3) RETURNING `+sampleColumns,
		strings.ToUpper(instrument), price, sampleTime,
	)
	s, err := scanSample(row)
	if err != nil {
		_ = sp.Rollback(ctx)
		return nil, err
	}
	if err := sp.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (t *PriceTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *PriceTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
