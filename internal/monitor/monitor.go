// Package monitor coordinates the product pipeline: fetch, record,
// evaluate, notify, plus the reporting queries callers read.
package monitor

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricewatch/internal/alert"
	"pricewatch/internal/fetch"
	"pricewatch/internal/models"
	"pricewatch/internal/notify"
	"pricewatch/internal/report"
	"pricewatch/internal/store"
)

// ValidationError rejects bad registration input before anything is
// persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Options are the monitor's construction-time settings.
type Options struct {
	Parallelism int      // concurrent product pipelines per cycle
	Recipients  []string // alert recipients handed to the notifier
	Currency    string   // display currency for alert messages
	Precision   int32    // decimal places in alert messages
}

// Monitor is the public face of the engine.
type Monitor struct {
	store    *store.Store
	fetcher  *fetch.Fetcher
	engine   *alert.Engine
	notifier notify.Notifier
	opts     Options
	logger   *zap.Logger
}

// New wires the pipeline. notifier may be nil when no transport is
// configured; fired alerts are then only counted and logged.
func New(st *store.Store, fetcher *fetch.Fetcher, engine *alert.Engine, notifier notify.Notifier, opts Options, logger *zap.Logger) *Monitor {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Precision <= 0 {
		opts.Precision = 2
	}
	return &Monitor{
		store:    st,
		fetcher:  fetcher,
		engine:   engine,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// AddProduct registers a new product. The URL must be an absolute
// http/https URL and the target, when given, must not be negative. Nothing
// is persisted when validation fails.
func (m *Monitor) AddProduct(ctx context.Context, name, rawURL string, target *decimal.Decimal) (models.Product, error) {
	if strings.TrimSpace(name) == "" {
		return models.Product{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Product{}, &ValidationError{Field: "url", Reason: fmt.Sprintf("%q is not an absolute http(s) url", rawURL)}
	}
	var targetPrice decimal.NullDecimal
	if target != nil {
		if target.IsNegative() {
			return models.Product{}, &ValidationError{Field: "target_price", Reason: "must not be negative"}
		}
		targetPrice = decimal.NullDecimal{Decimal: *target, Valid: true}
	}

	p := models.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		URL:         rawURL,
		TargetPrice: targetPrice,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := m.store.AddProduct(ctx, p); err != nil {
		return models.Product{}, err
	}

	m.logger.Info("product registered",
		zap.String("product_id", p.ID),
		zap.String("name", p.Name),
		zap.Bool("has_target", p.HasTarget()))
	return p, nil
}

// SetTargetPrice updates a product's target; nil clears it.
func (m *Monitor) SetTargetPrice(ctx context.Context, productID string, target *decimal.Decimal) error {
	var t decimal.NullDecimal
	if target != nil {
		if target.IsNegative() {
			return &ValidationError{Field: "target_price", Reason: "must not be negative"}
		}
		t = decimal.NullDecimal{Decimal: *target, Valid: true}
	}
	return m.store.SetTargetPrice(ctx, productID, t)
}

// Deactivate excludes a product from future cycles without touching its
// history.
func (m *Monitor) Deactivate(ctx context.Context, productID string) error {
	return m.store.SetActive(ctx, productID, false)
}

// Activate puts a product back into the cycle.
func (m *Monitor) Activate(ctx context.Context, productID string) error {
	return m.store.SetActive(ctx, productID, true)
}

// RemoveProduct purges a product from the registry. Its observations stay.
func (m *Monitor) RemoveProduct(ctx context.Context, productID string) error {
	return m.store.PurgeProduct(ctx, productID)
}

// History returns a product's observations in capture order.
func (m *Monitor) History(ctx context.Context, productID string, from, to time.Time) ([]models.PriceObservation, error) {
	return m.store.History(ctx, productID, from, to)
}

// Summary aggregates a product's successful observations.
func (m *Monitor) Summary(ctx context.Context, productID string) (models.Summary, error) {
	return m.store.Summary(ctx, productID)
}

// Overview builds the cross-product report.
func (m *Monitor) Overview(ctx context.Context) (models.Overview, error) {
	return report.Overview(ctx, m.store)
}

// ExportRows flattens product and summary fields for external writers.
func (m *Monitor) ExportRows(ctx context.Context) ([]models.ExportRow, error) {
	return report.ExportRows(ctx, m.store)
}
