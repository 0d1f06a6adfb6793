package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"pricewatch/internal/models"
)

// AddProduct persists a new product. The caller supplies the generated id.
func (s *Store) AddProduct(ctx context.Context, p models.Product) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO products (id, name, url, target_price, active, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.Name, p.URL, encodePrice(p.TargetPrice), p.Active, p.CreatedAt,
	)
	return storageErr("add product", err)
}

// GetProduct returns one product by id, or ErrNotFound.
func (s *Store) GetProduct(ctx context.Context, id string) (models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, url, target_price, active, created_at FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, storageErr("get product", err)
	}
	return p, nil
}

// ListProducts returns every product, active or not, oldest first.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.queryProducts(ctx,
		"SELECT id, name, url, target_price, active, created_at FROM products ORDER BY created_at, id")
}

// ActiveProducts returns the products a check cycle should visit.
func (s *Store) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	return s.queryProducts(ctx,
		"SELECT id, name, url, target_price, active, created_at FROM products WHERE active = 1 ORDER BY created_at, id")
}

func (s *Store) queryProducts(ctx context.Context, query string) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("query products", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, storageErr("scan product", err)
		}
		products = append(products, p)
	}
	return products, storageErr("query products", rows.Err())
}

// SetTargetPrice updates a product's target; an invalid decimal clears it.
func (s *Store) SetTargetPrice(ctx context.Context, id string, target decimal.NullDecimal) error {
	return s.updateProduct(ctx, "UPDATE products SET target_price = ? WHERE id = ?", encodePrice(target), id)
}

// SetActive toggles the soft-delete flag.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	return s.updateProduct(ctx, "UPDATE products SET active = ? WHERE id = ?", active, id)
}

func (s *Store) updateProduct(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storageErr("update product", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update product", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeProduct removes a product and its alert state. Observations are
// kept: history outlives the registry entry.
func (s *Store) PurgeProduct(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("purge product", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM alert_state WHERE product_id = ?", id); err != nil {
		return storageErr("purge product", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return storageErr("purge product", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("purge product", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return storageErr("purge product", tx.Commit())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	var target sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.URL, &target, &p.Active, &p.CreatedAt); err != nil {
		return models.Product{}, err
	}
	t, err := decodePrice(target)
	if err != nil {
		return models.Product{}, err
	}
	p.TargetPrice = t
	return p, nil
}

func encodePrice(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func decodePrice(v sql.NullString) (decimal.NullDecimal, error) {
	if !v.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
