package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/robinhoot/robinhoot_api/internal/models"
)

const productColumns = `id, sku_code, name, description, category, image_url,
	base_price, current_price, initial_stock, current_stock, max_discount_percentage,
	quantity_thresholds, monthly_deal, is_active, created_at, updated_at`

// ProductRepository handles data access for products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ProductFilter holds filters for product listing.
type ProductFilter struct {
	Category string
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

// Normalize applies pagination defaults and caps.
func (f *ProductFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// List returns a page of products matching filter together with the total count.
// A nil IsActive returns active and inactive products.
func (r *ProductRepository) List(ctx context.Context, filter *ProductFilter) ([]models.Product, int, error) {
	filter.Normalize()
	offset := (filter.Page - 1) * filter.Limit

	where := `WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, filter.Category)
		argIdx++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR sku_code ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM products `+where, args...); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY category, name LIMIT $%d OFFSET $%d`,
		productColumns, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, q, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListActive returns every active product. Used by the reprice worker.
func (r *ProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE is_active = true ORDER BY id`
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product by id. Returns sql.ErrNoRows when missing.
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	var p models.Product
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1 LIMIT 1`
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBySKUCode returns a single product by sku_code. Returns sql.ErrNoRows when missing.
func (r *ProductRepository) GetBySKUCode(ctx context.Context, skuCode string) (*models.Product, error) {
	var p models.Product
	q := `SELECT ` + productColumns + ` FROM products WHERE sku_code = $1 LIMIT 1`
	if err := r.db.GetContext(ctx, &p, q, skuCode); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product and fills its generated fields.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	const q = `
		INSERT INTO products (sku_code, name, description, category, image_url,
			base_price, current_price, initial_stock, current_stock, max_discount_percentage,
			quantity_thresholds, monthly_deal, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, q,
		p.SkuCode, p.Name, p.Description, p.Category, p.ImageURL,
		p.BasePrice, p.CurrentPrice, p.InitialStock, p.CurrentStock, p.MaxDiscountPercentage,
		p.QuantityThresholds, p.MonthlyDeal, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Update writes the catalog and pricing-rule columns of an existing product
// and refreshes p from the stored row. Stock levels and current_price are
// left alone: they move concurrently through AdjustStock, SetStockLevels and
// UpdateCurrentPrice, and a stale copy must not overwrite them.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	q := `UPDATE products
		SET sku_code = $1, name = $2, description = $3, category = $4, image_url = $5,
			base_price = $6, max_discount_percentage = $7, quantity_thresholds = $8,
			monthly_deal = $9, is_active = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING ` + productColumns

	return r.db.QueryRowxContext(ctx, q,
		p.SkuCode, p.Name, p.Description, p.Category, p.ImageURL,
		p.BasePrice, p.MaxDiscountPercentage, p.QuantityThresholds, p.MonthlyDeal,
		p.IsActive, p.ID,
	).StructScan(p)
}

// SetStockLevels overwrites initial and/or current stock. A nil level keeps
// the stored value. Returns sql.ErrNoRows when the product is missing.
func (r *ProductRepository) SetStockLevels(ctx context.Context, id int, initial, current *int) (*models.Product, error) {
	q := `UPDATE products
		SET initial_stock = COALESCE($2, initial_stock),
			current_stock = COALESCE($3, current_stock),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id, initial, current); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete deletes a product by ID.
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

// UpdateCurrentPrice stores a newly computed current price.
func (r *ProductRepository) UpdateCurrentPrice(ctx context.Context, id int, price decimal.Decimal) error {
	const q = `UPDATE products SET current_price = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, price)
	return err
}

// AdjustStock adds delta to current_stock, never going below zero, and
// returns the updated product. Returns sql.ErrNoRows when the product is missing.
func (r *ProductRepository) AdjustStock(ctx context.Context, id int, delta int) (*models.Product, error) {
	q := `UPDATE products
		SET current_stock = GREATEST(current_stock + $2, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id, delta); err != nil {
		return nil, err
	}
	return &p, nil
}

// Restock starts a new selling round: both initial and current stock are set to stock.
func (r *ProductRepository) Restock(ctx context.Context, id int, stock int) (*models.Product, error) {
	q := `UPDATE products
		SET initial_stock = $2, current_stock = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id, stock); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeactivateExpiredDeals switches off monthly deals whose end date is before now.
func (r *ProductRepository) DeactivateExpiredDeals(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE products
		SET monthly_deal = jsonb_set(monthly_deal, '{isActive}', 'false'::jsonb), updated_at = NOW()
		WHERE monthly_deal IS NOT NULL
		  AND (monthly_deal->>'isActive')::boolean = true
		  AND (monthly_deal->>'endDate')::timestamptz < $1`

	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetDistinctCategories returns all distinct categories of active products.
func (r *ProductRepository) GetDistinctCategories(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT category FROM products WHERE category != '' AND is_active = true ORDER BY category`
	categories := []string{}
	if err := r.db.SelectContext(ctx, &categories, q); err != nil {
		return nil, err
	}
	return categories, nil
}
