package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/robinhoot/robinhoot_api/internal/models"
)

// PriceHistoryRepository stores the append-only price history of products.
type PriceHistoryRepository struct {
	db *sqlx.DB
}

// NewPriceHistoryRepository creates a new PriceHistoryRepository.
func NewPriceHistoryRepository(db *sqlx.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

// Append records price for productID at the current database time.
func (r *PriceHistoryRepository) Append(ctx context.Context, productID int, price decimal.Decimal) error {
	const q = `INSERT INTO price_history (product_id, price) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, q, productID, price)
	return err
}

// ListByProduct returns up to limit most recent entries, oldest first.
func (r *PriceHistoryRepository) ListByProduct(ctx context.Context, productID, limit int) ([]models.PriceHistoryEntry, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}
	const q = `
		SELECT id, product_id, price, recorded_at FROM (
			SELECT id, product_id, price, recorded_at
			FROM price_history
			WHERE product_id = $1
			ORDER BY recorded_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY recorded_at ASC, id ASC`

	entries := []models.PriceHistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, q, productID, limit); err != nil {
		return nil, err
	}
	return entries, nil
}
