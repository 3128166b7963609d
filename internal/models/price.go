package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is one persisted index price observation. Rows are
// append-only: once written they are never updated or deleted.
type PriceSample struct {
	ID         int64           `json:"id"`
	Instrument string          `json:"instrument"`
	Price      decimal.Decimal `json:"price"`
	SampleTime int64           `json:"sample_time"`
	RecordedAt time.Time       `json:"recorded_at"`
}
