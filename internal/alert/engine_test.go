package alert

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricewatch/internal/fetch"
	"pricewatch/internal/models"
	"pricewatch/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func addProduct(t *testing.T, st *store.Store, targetPrice int64) models.Product {
	t.Helper()
	p := models.Product{
		ID:          "prod-1",
		Name:        "Widget",
		URL:         "https://shop.example/widget",
		TargetPrice: target(targetPrice),
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := st.AddProduct(context.Background(), p); err != nil {
		t.Fatalf("adding product: %v", err)
	}
	return p
}

func record(t *testing.T, st *store.Store, productID string, res fetch.Result) models.PriceObservation {
	t.Helper()
	obs, err := st.Record(context.Background(), productID, res, time.Now().UTC())
	if err != nil {
		t.Fatalf("recording observation: %v", err)
	}
	return obs
}

func priceResult(v int64) fetch.Result {
	return fetch.Result{Kind: fetch.KindPrice, Price: decimal.NewFromInt(v)}
}

func TestEngine_FiresOncePerCrossing(t *testing.T) {
	st := testStore(t)
	p := addProduct(t, st, 100)
	eng := NewEngine(st, zap.NewNop())
	ctx := context.Background()

	prices := []int64{120, 95, 60, 110, 80}
	wantFire := []bool{false, true, false, false, true}
	for i, price := range prices {
		obs := record(t, st, p.ID, priceResult(price))
		fired, err := eng.Evaluate(ctx, p, obs)
		if err != nil {
			t.Fatalf("evaluate %d: %v", i, err)
		}
		if fired != wantFire[i] {
			t.Fatalf("index %d (price %d): fired=%v want=%v", i, price, fired, wantFire[i])
		}
	}

	state, err := st.GetAlertState(ctx, p.ID)
	if err != nil {
		t.Fatalf("reading alert state: %v", err)
	}
	if state.Position != models.PositionBelow {
		t.Fatalf("position=%s want=%s", state.Position, models.PositionBelow)
	}
	if !state.LastAlertPrice.Valid || state.LastAlertPrice.Decimal.Cmp(decimal.NewFromInt(80)) != 0 {
		t.Fatalf("last alert price=%v want=80", state.LastAlertPrice)
	}
}

func TestEngine_IdempotentPerObservation(t *testing.T) {
	st := testStore(t)
	p := addProduct(t, st, 100)
	eng := NewEngine(st, zap.NewNop())
	ctx := context.Background()

	obs := record(t, st, p.ID, priceResult(90))
	fired, err := eng.Evaluate(ctx, p, obs)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if !fired {
		t.Fatal("expected fire on first evaluation")
	}

	// A retried orchestration step re-evaluates the same observation.
	fired, err = eng.Evaluate(ctx, p, obs)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if fired {
		t.Fatal("re-evaluating the same observation must not fire again")
	}
}

func TestEngine_FailedObservationKeepsState(t *testing.T) {
	st := testStore(t)
	p := addProduct(t, st, 100)
	eng := NewEngine(st, zap.NewNop())
	ctx := context.Background()

	obs := record(t, st, p.ID, priceResult(90))
	if fired, _ := eng.Evaluate(ctx, p, obs); !fired {
		t.Fatal("expected initial fire")
	}

	failed := record(t, st, p.ID, fetch.Result{Kind: fetch.KindNotFound})
	fired, err := eng.Evaluate(ctx, p, failed)
	if err != nil {
		t.Fatalf("evaluating failed observation: %v", err)
	}
	if fired {
		t.Fatal("failed observation must not fire")
	}

	state, err := st.GetAlertState(ctx, p.ID)
	if err != nil {
		t.Fatalf("reading alert state: %v", err)
	}
	if state.Position != models.PositionBelow {
		t.Fatalf("failed observation moved position to %s", state.Position)
	}

	// Still inside the same dip afterwards: no new fire.
	obs = record(t, st, p.ID, priceResult(85))
	if fired, _ := eng.Evaluate(ctx, p, obs); fired {
		t.Fatal("dip continuing across a failed observation must not re-fire")
	}
}

func TestEngine_NoTargetNeverFires(t *testing.T) {
	st := testStore(t)
	p := models.Product{
		ID:        "prod-nt",
		Name:      "Untargeted",
		URL:       "https://shop.example/x",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.AddProduct(context.Background(), p); err != nil {
		t.Fatalf("adding product: %v", err)
	}
	eng := NewEngine(st, zap.NewNop())

	for _, price := range []int64{10, 1, 1000} {
		obs := record(t, st, p.ID, priceResult(price))
		fired, err := eng.Evaluate(context.Background(), p, obs)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if fired {
			t.Fatalf("fired at price %d with no target", price)
		}
	}
}
