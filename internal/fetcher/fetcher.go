package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pricetracker/internal/models"
	"pricetracker/internal/repository"
)

// PriceSource yields the current index price for an instrument, or
// ok=false when the upstream could not provide one.
type PriceSource interface {
	GetIndexPrice(ctx context.Context, instrument string) (decimal.Decimal, bool)
}

// Store opens a deferred-commit write transaction for one cycle.
type Store interface {
	Begin(ctx context.Context) (StoreTx, error)
}

type StoreTx interface {
	Insert(ctx context.Context, instrument string, price decimal.Decimal, sampleTime int64) (*models.PriceSample, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type InstrumentPrice struct {
	Instrument string          `json:"instrument"`
	Price      decimal.Decimal `json:"price"`
}

type InstrumentFailure struct {
	Instrument string `json:"instrument"`
	Reason     string `json:"reason"`
}

// CycleResult is the structured outcome of one polling cycle.
type CycleResult struct {
	Success []InstrumentPrice   `json:"success"`
	Failed  []InstrumentFailure `json:"failed"`
}

// Task runs one polling cycle over a fixed instrument list. It is
// stateless between runs; everything it learns is persisted.
type Task struct {
	source      PriceSource
	store       Store
	instruments []string
}

func NewTask(source PriceSource, store Store, instruments []string) *Task {
	return &Task{
		source:      source,
		store:       store,
		instruments: instruments,
	}
}

// Run executes one cycle: fetch each instrument sequentially, stage
// successes in a single transaction, and commit once at the end. Every
// sample of a cycle carries the same observation timestamp.
//
// A single instrument failing — no price, or an insert error — never
// aborts the cycle; it is recorded in the failure list and the loop
// moves on. The only fatal outcome is a commit failure, which rolls
// back the whole cycle and is returned to the caller.
func (t *Task) Run(ctx context.Context) (*CycleResult, error) {
	now := time.Now().Unix()
	result := &CycleResult{
		Success: []InstrumentPrice{},
		Failed:  []InstrumentFailure{},
	}

	tx, err := t.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cycle transaction: %w", err)
	}

	for _, instrument := range t.instruments {
		price, ok := t.source.GetIndexPrice(ctx, instrument)
		if !ok {
			result.Failed = append(result.Failed, InstrumentFailure{
				Instrument: instrument,
				Reason:     "price unavailable",
			})
			fmt.Printf("[FETCH] %s: price unavailable, skipping until next cycle\n", instrument)
			continue
		}

		if _, err := tx.Insert(ctx, instrument, price, now); err != nil {
			result.Failed = append(result.Failed, InstrumentFailure{
				Instrument: instrument,
				Reason:     err.Error(),
			})
			fmt.Printf("[FETCH] %s: insert failed: %v\n", instrument, err)
			continue
		}

		result.Success = append(result.Success, InstrumentPrice{
			Instrument: instrument,
			Price:      price,
		})
		fmt.Printf("[FETCH] %s: saved price %s at %d\n", instrument, price, now)
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("commit price cycle: %w", err)
	}

	return result, nil
}

// repoStore adapts *repository.PriceRepo to the Store interface.
type repoStore struct {
	repo *repository.PriceRepo
}

func NewRepoStore(repo *repository.PriceRepo) Store {
	return repoStore{repo: repo}
}

func (s repoStore) Begin(ctx context.Context) (StoreTx, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
