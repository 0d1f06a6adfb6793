package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pricewatch/internal/models"
)

// CheckAll runs one cycle over the active products with bounded
// parallelism. A product's fetch failure is recorded and counted, never
// fatal; a storage failure aborts the cycle. Cancelling ctx lets in-flight
// products finish their pipeline and skips the rest.
func (m *Monitor) CheckAll(ctx context.Context) (models.CycleReport, error) {
	rep := models.CycleReport{Started: time.Now().UTC()}

	products, err := m.store.ActiveProducts(ctx)
	if err != nil {
		return rep, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Parallelism)
	var mu sync.Mutex

	for _, p := range products {
		if gctx.Err() != nil {
			break
		}
		p := p
		g.Go(func() error {
			return m.checkProduct(gctx, p, &mu, &rep)
		})
	}

	err = g.Wait()
	rep.Finished = time.Now().UTC()
	m.logger.Info("check cycle finished",
		zap.Int("checked", rep.Checked),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed),
		zap.Int("alerts_fired", rep.AlertsFired),
		zap.Duration("took", rep.Finished.Sub(rep.Started)))
	return rep, err
}

// checkProduct runs fetch → record → evaluate → notify for one product.
// The returned error is only ever a storage failure; everything else is
// absorbed into the report.
func (m *Monitor) checkProduct(ctx context.Context, p models.Product, mu *sync.Mutex, rep *models.CycleReport) error {
	res := m.fetcher.Fetch(ctx, p.URL)

	obs, err := m.store.Record(ctx, p.ID, res, time.Now().UTC())
	if err != nil {
		return err
	}

	mu.Lock()
	rep.Checked++
	if res.OK() {
		rep.Succeeded++
	} else {
		rep.Failed++
	}
	mu.Unlock()

	if !res.OK() {
		m.logger.Warn("check failed",
			zap.String("product_id", p.ID),
			zap.String("name", p.Name),
			zap.String("outcome", res.Kind.String()),
			zap.Error(res.Err))
	}

	fired, err := m.engine.Evaluate(ctx, p, obs)
	if err != nil {
		return err
	}
	if !fired {
		return nil
	}

	mu.Lock()
	rep.AlertsFired++
	mu.Unlock()
	m.logger.Info("price alert fired",
		zap.String("product_id", p.ID),
		zap.String("name", p.Name),
		zap.String("price", obs.Price.Decimal.String()))

	if m.notifier == nil || len(m.opts.Recipients) == 0 {
		return nil
	}
	subject, message := m.alertMessage(p, obs)
	if err := m.notifier.Send(ctx, subject, message, m.opts.Recipients); err != nil {
		mu.Lock()
		rep.DeliveryErrors++
		mu.Unlock()
		m.logger.Error("alert delivery failed",
			zap.String("product_id", p.ID),
			zap.Error(err))
	}
	return nil
}

func (m *Monitor) alertMessage(p models.Product, obs models.PriceObservation) (string, string) {
	subject := fmt.Sprintf("Price alert: %s", p.Name)
	message := fmt.Sprintf(
		"%s dropped to %s %s (target %s %s).\n\n%s",
		p.Name,
		m.opts.Currency, obs.Price.Decimal.StringFixed(m.opts.Precision),
		m.opts.Currency, p.TargetPrice.Decimal.StringFixed(m.opts.Precision),
		p.URL,
	)
	return subject, message
}
