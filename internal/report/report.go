// Package report builds read-only projections over the history store.
// Nothing here mutates state; an empty registry yields empty results.
package report

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"pricewatch/internal/models"
	"pricewatch/internal/store"
)

// Overview aggregates every product's summary into one report, ordered by
// registration time.
func Overview(ctx context.Context, st *store.Store) (models.Overview, error) {
	products, err := st.ListProducts(ctx)
	if err != nil {
		return models.Overview{}, err
	}

	out := models.Overview{TotalProducts: len(products)}
	totalCurrent := decimal.Zero
	withData := int64(0)

	for _, p := range products {
		if p.Active {
			out.ActiveProducts++
		}

		entry := models.ProductOverview{Product: p}
		sum, err := st.Summary(ctx, p.ID)
		switch {
		case errors.Is(err, store.ErrNoData):
			// keep nil summary
		case err != nil:
			return models.Overview{}, err
		default:
			s := sum
			entry.Summary = &s
			totalCurrent = totalCurrent.Add(sum.Latest)
			withData++
			if p.HasTarget() && sum.Latest.LessThanOrEqual(p.TargetPrice.Decimal) {
				out.ProductsBelowTarget++
			}
		}
		out.Products = append(out.Products, entry)
	}

	if withData > 0 {
		out.AvgCurrentPrice = decimal.NullDecimal{
			Decimal: totalCurrent.Div(decimal.NewFromInt(withData)),
			Valid:   true,
		}
	}
	return out, nil
}

// ExportRows flattens every product and its summary into ordered rows for
// an external serializer. Products without data still get a row so the
// export mirrors the registry.
func ExportRows(ctx context.Context, st *store.Store) ([]models.ExportRow, error) {
	products, err := st.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ExportRow, 0, len(products))
	for _, p := range products {
		row := models.ExportRow{
			Name:   p.Name,
			URL:    p.URL,
			Target: p.TargetPrice,
		}
		sum, err := st.Summary(ctx, p.ID)
		switch {
		case errors.Is(err, store.ErrNoData):
			// all price fields stay unset
		case err != nil:
			return nil, err
		default:
			row.Current = decimal.NullDecimal{Decimal: sum.Latest, Valid: true}
			row.Min = decimal.NullDecimal{Decimal: sum.Min, Valid: true}
			row.Max = decimal.NullDecimal{Decimal: sum.Max, Valid: true}
			row.Observations = sum.Count
		}
		rows = append(rows, row)
	}
	return rows, nil
}
