package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is one sample of a product's price. Observations are
// append-only: a failed fetch is still recorded, with an invalid Price,
// so "last checked" stays knowable.
type PriceObservation struct {
	ID         int64
	ProductID  string
	Price      decimal.NullDecimal // invalid means the fetch failed
	CapturedAt time.Time
}

// OK reports whether the observation carries a usable price.
func (o PriceObservation) OK() bool {
	return o.Price.Valid
}

// Summary aggregates the successful observations of one product.
type Summary struct {
	Min    decimal.Decimal
	Max    decimal.Decimal
	Avg    decimal.Decimal
	Latest decimal.Decimal
	Count  int64
}
