package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertPosition is where a product's last evaluated price sits relative to
// its target.
type AlertPosition string

const (
	PositionUnknown  AlertPosition = "unknown"   // no successful observation yet
	PositionNoTarget AlertPosition = "no_target" // target unset, never fires
	PositionAbove    AlertPosition = "above"
	PositionBelow    AlertPosition = "below"
)

// AlertState is the per-product record the hysteresis machine persists
// between evaluations. LastObservationID keys idempotence: evaluating the
// same observation twice is a no-op.
type AlertState struct {
	ProductID         string
	Position          AlertPosition
	LastAlertPrice    decimal.NullDecimal
	LastObservationID int64
	UpdatedAt         time.Time
}
