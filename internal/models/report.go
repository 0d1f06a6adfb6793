package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleReport sums up one pass over all active products.
type CycleReport struct {
	Checked        int
	Succeeded      int
	Failed         int
	AlertsFired    int
	DeliveryErrors int
	Started        time.Time
	Finished       time.Time
}

// ExportRow is one line of the flat product+summary projection handed to
// external writers (CSV, spreadsheets). All price fields may be unset when
// the product has no successful observation or no target.
type ExportRow struct {
	Name         string
	URL          string
	Current      decimal.NullDecimal
	Target       decimal.NullDecimal
	Min          decimal.NullDecimal
	Max          decimal.NullDecimal
	Observations int64
}

// ProductOverview pairs a product with its price summary for reporting.
// Summary is nil when the product has no successful observation.
type ProductOverview struct {
	Product Product
	Summary *Summary
}

// Overview is the cross-product report: headline totals plus one entry per
// product, ordered by registration time.
type Overview struct {
	TotalProducts       int
	ActiveProducts      int
	ProductsBelowTarget int
	AvgCurrentPrice     decimal.NullDecimal
	Products            []ProductOverview
}
