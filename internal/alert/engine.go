package alert

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pricewatch/internal/models"
	"pricewatch/internal/store"
)

// Engine runs the transition machine against persisted per-product state.
type Engine struct {
	store  *store.Store
	logger *zap.Logger
}

func NewEngine(st *store.Store, logger *zap.Logger) *Engine {
	return &Engine{store: st, logger: logger}
}

// Evaluate folds one recorded observation into the product's alert state
// and reports whether an alert fired. Evaluation is idempotent: an
// observation at or before the last evaluated one is a no-op, so a retried
// orchestration step cannot double-fire. Failed observations advance the
// idempotence cursor but never move the position or fire.
func (e *Engine) Evaluate(ctx context.Context, product models.Product, obs models.PriceObservation) (bool, error) {
	st, err := e.store.GetAlertState(ctx, product.ID)
	if errors.Is(err, store.ErrNotFound) {
		st = models.AlertState{
			ProductID: product.ID,
			Position:  models.PositionUnknown,
		}
	} else if err != nil {
		return false, err
	}

	if st.LastObservationID != 0 && obs.ID <= st.LastObservationID {
		e.logger.Debug("observation already evaluated",
			zap.String("product_id", product.ID),
			zap.Int64("observation_id", obs.ID))
		return false, nil
	}

	fired := false
	if obs.OK() {
		next, fire := Transition(st.Position, obs.Price.Decimal, product.TargetPrice)
		st.Position = next
		if fire {
			st.LastAlertPrice = obs.Price
			fired = true
		}
	}
	st.LastObservationID = obs.ID
	st.UpdatedAt = time.Now().UTC()

	if err := e.store.PutAlertState(ctx, st); err != nil {
		return false, err
	}
	return fired, nil
}
