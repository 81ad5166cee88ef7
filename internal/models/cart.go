package models

import (
	"github.com/shopspring/decimal"

	"github.com/robinhoot/robinhoot_api/internal/pricing"
)

// CartLine is one priced product in a user's cart.
type CartLine struct {
	ProductID int            `json:"productId"`
	SkuCode   string         `json:"skuCode"`
	Name      string         `json:"name"`
	ImageURL  string         `json:"imageUrl"`
	Quantity  int            `json:"quantity"`
	Quote     *pricing.Quote `json:"quote"`
}

// Cart is the priced view of a user's cart.
type Cart struct {
	UserID    int             `json:"userId"`
	Lines     []CartLine      `json:"lines"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}
