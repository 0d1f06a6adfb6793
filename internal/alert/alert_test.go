package alert

import (
	"testing"

	"github.com/shopspring/decimal"

	"pricewatch/internal/models"
)

func target(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}

func TestTransition_NoTargetNeverFires(t *testing.T) {
	pos := models.PositionUnknown
	for _, price := range []int64{10, 500, 1} {
		next, fire := Transition(pos, decimal.NewFromInt(price), decimal.NullDecimal{})
		if fire {
			t.Fatalf("fired with no target at price %d", price)
		}
		if next != models.PositionNoTarget {
			t.Fatalf("position=%s want=%s", next, models.PositionNoTarget)
		}
		pos = next
	}
}

func TestTransition_FirstDipFires(t *testing.T) {
	next, fire := Transition(models.PositionUnknown, decimal.NewFromInt(95), target(100))
	if !fire {
		t.Fatal("expected fire on first observation at or below target")
	}
	if next != models.PositionBelow {
		t.Fatalf("position=%s want=%s", next, models.PositionBelow)
	}
}

func TestTransition_ExactTargetCountsAsBelow(t *testing.T) {
	_, fire := Transition(models.PositionAbove, decimal.NewFromInt(100), target(100))
	if !fire {
		t.Fatal("price equal to target must fire")
	}
}

func TestTransition_HysteresisSuppressesRepeatedDip(t *testing.T) {
	pos := models.PositionBelow
	next, fire := Transition(pos, decimal.NewFromInt(60), target(100))
	if fire {
		t.Fatal("second observation in the same dip must not fire")
	}
	if next != models.PositionBelow {
		t.Fatalf("position=%s want=%s", next, models.PositionBelow)
	}
}

func TestTransition_RecoveryRearmsWithoutFiring(t *testing.T) {
	next, fire := Transition(models.PositionBelow, decimal.NewFromInt(110), target(100))
	if fire {
		t.Fatal("recovery above target must not fire")
	}
	if next != models.PositionAbove {
		t.Fatalf("position=%s want=%s", next, models.PositionAbove)
	}
}

// The reference sequence: fires on the 120→95 crossing and again on the
// 110→80 crossing, nowhere else.
func TestTransition_CrossingSequence(t *testing.T) {
	prices := []int64{120, 95, 60, 110, 80}
	wantFire := []bool{false, true, false, false, true}

	pos := models.PositionUnknown
	for i, price := range prices {
		var fire bool
		pos, fire = Transition(pos, decimal.NewFromInt(price), target(100))
		if fire != wantFire[i] {
			t.Fatalf("index %d (price %d): fire=%v want=%v", i, price, fire, wantFire[i])
		}
	}
}

func TestTransition_StayingBelowFiresOnce(t *testing.T) {
	pos := models.PositionUnknown
	fires := 0
	for i := 0; i < 10; i++ {
		var fire bool
		pos, fire = Transition(pos, decimal.NewFromInt(50), target(100))
		if fire {
			fires++
		}
	}
	if fires != 1 {
		t.Fatalf("fires=%d want=1 across 10 below-target observations", fires)
	}
}

func TestTransition_TwoDipsFireTwice(t *testing.T) {
	prices := []int64{90, 120, 85}
	pos := models.PositionUnknown
	fires := 0
	for _, price := range prices {
		var fire bool
		pos, fire = Transition(pos, decimal.NewFromInt(price), target(100))
		if fire {
			fires++
		}
	}
	if fires != 2 {
		t.Fatalf("fires=%d want=2 for dip, recovery, dip", fires)
	}
}
