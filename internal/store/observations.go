package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"pricewatch/internal/fetch"
	"pricewatch/internal/models"
)

// Record appends one observation for the product. A result without a price
// is stored with a NULL price so the series still shows when the product
// was last checked. Appends for one product are serialized; different
// products proceed in parallel.
func (s *Store) Record(ctx context.Context, productID string, res fetch.Result, capturedAt time.Time) (models.PriceObservation, error) {
	lock := s.appendLock(productID)
	lock.Lock()
	defer lock.Unlock()

	price := decimal.NullDecimal{}
	if res.OK() {
		price = decimal.NullDecimal{Decimal: res.Price, Valid: true}
	}

	r, err := s.db.ExecContext(ctx,
		"INSERT INTO observations (product_id, price, captured_at) VALUES (?, ?, ?)",
		productID, encodePrice(price), capturedAt,
	)
	if err != nil {
		return models.PriceObservation{}, storageErr("record observation", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return models.PriceObservation{}, storageErr("record observation", err)
	}

	return models.PriceObservation{
		ID:         id,
		ProductID:  productID,
		Price:      price,
		CapturedAt: capturedAt,
	}, nil
}

// History returns the product's observations ordered by capture time
// ascending, failed entries included, optionally bounded by [from, to).
// Zero time bounds are open.
func (s *Store) History(ctx context.Context, productID string, from, to time.Time) ([]models.PriceObservation, error) {
	var out []models.PriceObservation
	err := s.ForEachObservation(ctx, productID, from, to, func(o models.PriceObservation) error {
		out = append(out, o)
		return nil
	})
	return out, err
}

// ForEachObservation streams the product's history in capture order
// without materializing it. Re-invoking restarts the scan from the
// beginning. fn returning an error stops the walk and propagates.
func (s *Store) ForEachObservation(ctx context.Context, productID string, from, to time.Time, fn func(models.PriceObservation) error) error {
	query := "SELECT id, product_id, price, captured_at FROM observations WHERE product_id = ?"
	args := []any{productID}
	if !from.IsZero() {
		query += " AND captured_at >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		query += " AND captured_at < ?"
		args = append(args, to)
	}
	query += " ORDER BY captured_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return storageErr("query history", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return storageErr("scan observation", err)
		}
		if err := fn(o); err != nil {
			return err
		}
	}
	return storageErr("query history", rows.Err())
}

// Latest returns the most recent observation for the product, failed or
// not, or ErrNoData when none exists.
func (s *Store) Latest(ctx context.Context, productID string) (models.PriceObservation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, product_id, price, captured_at FROM observations WHERE product_id = ? ORDER BY captured_at DESC, id DESC LIMIT 1",
		productID)
	o, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PriceObservation{}, ErrNoData
	}
	if err != nil {
		return models.PriceObservation{}, storageErr("latest observation", err)
	}
	return o, nil
}

// Summary aggregates the product's successful observations. ErrNoData when
// there are none; failed observations never contribute.
func (s *Store) Summary(ctx context.Context, productID string) (models.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT price FROM observations WHERE product_id = ? AND price IS NOT NULL ORDER BY captured_at, id",
		productID)
	if err != nil {
		return models.Summary{}, storageErr("summary", err)
	}
	defer rows.Close()

	var sum models.Summary
	total := decimal.Zero
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return models.Summary{}, storageErr("summary", err)
		}
		p, err := decodePrice(raw)
		if err != nil {
			return models.Summary{}, storageErr("summary", err)
		}

		price := p.Decimal
		if sum.Count == 0 || price.LessThan(sum.Min) {
			sum.Min = price
		}
		if sum.Count == 0 || price.GreaterThan(sum.Max) {
			sum.Max = price
		}
		total = total.Add(price)
		sum.Latest = price
		sum.Count++
	}
	if err := rows.Err(); err != nil {
		return models.Summary{}, storageErr("summary", err)
	}
	if sum.Count == 0 {
		return models.Summary{}, ErrNoData
	}
	sum.Avg = total.Div(decimal.NewFromInt(sum.Count))
	return sum, nil
}

func scanObservation(row rowScanner) (models.PriceObservation, error) {
	var o models.PriceObservation
	var price sql.NullString
	if err := row.Scan(&o.ID, &o.ProductID, &price, &o.CapturedAt); err != nil {
		return models.PriceObservation{}, err
	}
	p, err := decodePrice(price)
	if err != nil {
		return models.PriceObservation{}, err
	}
	o.Price = p
	return o, nil
}
