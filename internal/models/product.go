package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinhoot/robinhoot_api/internal/pricing"
)

// Product represents a catalog product together with its pricing state.
// Fields are tagged for both DB scanning and JSON serialization.
type Product struct {
	ID                    int                `db:"id" json:"id"`
	SkuCode               string             `db:"sku_code" json:"skuCode"`
	Name                  string             `db:"name" json:"name"`
	Description           string             `db:"description" json:"description"`
	Category              string             `db:"category" json:"category"`
	ImageURL              string             `db:"image_url" json:"imageUrl"`
	BasePrice             decimal.Decimal    `db:"base_price" json:"basePrice"`
	CurrentPrice          decimal.Decimal    `db:"current_price" json:"currentPrice"`
	InitialStock          int                `db:"initial_stock" json:"initialStock"`
	CurrentStock          int                `db:"current_stock" json:"currentStock"`
	MaxDiscountPercentage decimal.Decimal    `db:"max_discount_percentage" json:"maxDiscountPercentage"`
	QuantityThresholds    QuantityThresholds `db:"quantity_thresholds" json:"quantityThresholds"`
	MonthlyDeal           *MonthlyDeal       `db:"monthly_deal" json:"monthlyDeal,omitempty"`
	IsActive              bool               `db:"is_active" json:"isActive"`
	CreatedAt             time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time          `db:"updated_at" json:"updatedAt"`
}

// PricingInput extracts the state the pricing calculator works on.
func (p *Product) PricingInput() pricing.Input {
	return pricing.Input{
		BasePrice:             p.BasePrice,
		InitialStock:          p.InitialStock,
		CurrentStock:          p.CurrentStock,
		MaxDiscountPercentage: p.MaxDiscountPercentage,
		Thresholds:            []pricing.Tier(p.QuantityThresholds),
		MonthlyDeal:           (*pricing.MonthlyDeal)(p.MonthlyDeal),
	}
}

// QuantityThresholds is the bulk tier list, stored as a JSONB array.
type QuantityThresholds []pricing.Tier

// Value implements driver.Valuer. JSON is sent as text so lib/pq does not
// encode it as bytea.
func (q QuantityThresholds) Value() (driver.Value, error) {
	if q == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]pricing.Tier(q))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (q *QuantityThresholds) Scan(src any) error {
	if src == nil {
		*q = QuantityThresholds{}
		return nil
	}
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	var tiers []pricing.Tier
	if err := json.Unmarshal(b, &tiers); err != nil {
		return fmt.Errorf("failed to unmarshal quantity thresholds: %w", err)
	}
	*q = tiers
	return nil
}

// MonthlyDeal is the product's promotional override, stored as nullable JSONB.
type MonthlyDeal pricing.MonthlyDeal

// Value implements driver.Valuer.
func (d MonthlyDeal) Value() (driver.Value, error) {
	b, err := json.Marshal(pricing.MonthlyDeal(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *MonthlyDeal) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	var deal pricing.MonthlyDeal
	if err := json.Unmarshal(b, &deal); err != nil {
		return fmt.Errorf("failed to unmarshal monthly deal: %w", err)
	}
	*d = MonthlyDeal(deal)
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSONB source type %T", src)
	}
}

// PriceHistoryEntry is one recorded price point for a product.
type PriceHistoryEntry struct {
	ID         int             `db:"id" json:"-"`
	ProductID  int             `db:"product_id" json:"-"`
	Price      decimal.Decimal `db:"price" json:"price"`
	RecordedAt time.Time       `db:"recorded_at" json:"date"`
}
