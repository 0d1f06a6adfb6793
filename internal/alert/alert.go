// Package alert decides when a price observation should notify the user.
// The hysteresis machine fires once per downward crossing of the target:
// repeated observations below target stay quiet until the price recovers
// above target and dips again.
package alert

import (
	"github.com/shopspring/decimal"

	"pricewatch/internal/models"
)

// Transition applies one successful observation to the machine. It is pure:
// given the current position, the observed price and the product's target,
// it returns the next position and whether an alert fires.
func Transition(pos models.AlertPosition, price decimal.Decimal, target decimal.NullDecimal) (models.AlertPosition, bool) {
	if !target.Valid {
		return models.PositionNoTarget, false
	}

	below := price.LessThanOrEqual(target.Decimal)
	if pos == models.PositionBelow {
		if below {
			// Still in the same dip, already notified.
			return models.PositionBelow, false
		}
		// Recovery arms the machine for the next dip.
		return models.PositionAbove, false
	}

	// Unknown, Above, or a target newly set on a NoTarget product.
	if below {
		return models.PositionBelow, true
	}
	return models.PositionAbove, false
}
