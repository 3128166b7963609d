package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pricetracker/internal/models"
)

const sampleColumns = "id, instrument, price, sample_time, recorded_at"

type PriceRepo struct {
	pool *pgxpool.Pool
}

func NewPriceRepo(pool *pgxpool.Pool) *PriceRepo {
	return &PriceRepo{pool: pool}
}

// Create inserts one sample and commits immediately (single-statement
// insert on the pool). The instrument is assumed pre-validated; only
// case normalization happens here.
func (r *PriceRepo) Create(ctx context.Context, instrument string, price decimal.Decimal, sampleTime int64) (*models.PriceSample, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO prices (instrument, price, sample_time)
		 VALUES ($1, $2, $3) RETURNING `+sampleColumns,
		strings.ToUpper(instrument), price, sampleTime,
	)
	return scanSample(row)
}

// ListByInstrument returns samples ordered by sample_time descending.
// When limit <= 0 no pagination is applied at all and offset is
// ignored; a positive limit applies OFFSET before LIMIT.
func (r *PriceRepo) ListByInstrument(ctx context.Context, instrument string, limit, offset int) ([]models.PriceSample, error) {
	query := `SELECT ` + sampleColumns + ` FROM prices
		WHERE instrument = $1 ORDER BY sample_time DESC`
	args := []any{strings.ToUpper(instrument)}

	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSamples(rows)
}

// LatestByInstrument returns the sample with the greatest sample_time
// for the instrument, or nil when none exist.
func (r *PriceRepo) LatestByInstrument(ctx context.Context, instrument string) (*models.PriceSample, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sampleColumns+` FROM prices
		 WHERE instrument = $1 ORDER BY sample_time DESC LIMIT 1`,
		strings.ToUpper(instrument),
	)
	s, err := scanSample(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListByInstrumentAndRange returns samples with sample_time inside the
// inclusive [start, end] interval, descending. Either bound may be nil
// for an open end.
func (r *PriceRepo) ListByInstrumentAndRange(ctx context.Context, instrument string, start, end *int64) ([]models.PriceSample, error) {
	query := `SELECT ` + sampleColumns + ` FROM prices WHERE instrument = $1`
	args := []any{strings.ToUpper(instrument)}

	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND sample_time >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND sample_time <= $%d", len(args))
	}
	query += " ORDER BY sample_time DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSamples(rows)
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanSample(row scannable) (*models.PriceSample, error) {
	var s models.PriceSample
	err := row.Scan(&s.ID, &s.Instrument, &s.Price, &s.SampleTime, &s.RecordedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSamples(rows pgx.Rows) ([]models.PriceSample, error) {
	var out []models.PriceSample
	for rows.Next() {
		var s models.PriceSample
		if err := rows.Scan(&s.ID, &s.Instrument, &s.Price, &s.SampleTime, &s.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
