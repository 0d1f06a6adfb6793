package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a tracked listing. The ID is opaque and immutable;
// the same item sold under two URLs is two separate products.
type Product struct {
	ID          string
	Name        string
	URL         string
	TargetPrice decimal.NullDecimal // invalid means no target set
	Active      bool
	CreatedAt   time.Time
}

// HasTarget reports whether a target price is configured.
func (p Product) HasTarget() bool {
	return p.TargetPrice.Valid
}
