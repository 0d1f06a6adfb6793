package store

import (
	"context"
	"database/sql"
	"errors"

	"pricewatch/internal/models"
)

// GetAlertState returns the product's alert state, or ErrNotFound before
// the first evaluation creates one.
func (s *Store) GetAlertState(ctx context.Context, productID string) (models.AlertState, error) {
	var st models.AlertState
	var price sql.NullString
	var position string
	err := s.db.QueryRowContext(ctx,
		"SELECT product_id, position, last_alert_price, last_observation_id, updated_at FROM alert_state WHERE product_id = ?",
		productID,
	).Scan(&st.ProductID, &position, &price, &st.LastObservationID, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AlertState{}, ErrNotFound
	}
	if err != nil {
		return models.AlertState{}, storageErr("get alert state", err)
	}

	st.Position = models.AlertPosition(position)
	p, err := decodePrice(price)
	if err != nil {
		return models.AlertState{}, storageErr("get alert state", err)
	}
	st.LastAlertPrice = p
	return st, nil
}

// PutAlertState creates or replaces the product's alert state.
func (s *Store) PutAlertState(ctx context.Context, st models.AlertState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_state (product_id, position, last_alert_price, last_observation_id, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(product_id) DO UPDATE SET
			position = excluded.position,
			last_alert_price = excluded.last_alert_price,
			last_observation_id = excluded.last_observation_id,
			updated_at = excluded.updated_at`,
		st.ProductID, string(st.Position), encodePrice(st.LastAlertPrice), st.LastObservationID, st.UpdatedAt,
	)
	return storageErr("put alert state", err)
}
