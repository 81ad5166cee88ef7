package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// CartItemStore keeps per-user cart quantities.
type CartItemStore interface {
	Items(ctx context.Context, userID int) (map[int]int, error)
	Quantity(ctx context.Context, userID, productID int) (int, error)
	SetQuantity(ctx context.Context, userID, productID, qty int) error
	Remove(ctx context.Context, userID, productID int) error
	Clear(ctx context.Context, userID int) error
}

// CartService manages carts and prices them with live quotes.
type CartService struct {
	store   CartItemStore
	catalog *ProductService
	pricing *PricingService
}

// NewCartService constructs a CartService.
func NewCartService(store CartItemStore, catalog *ProductService, pricingService *PricingService) *CartService {
	return &CartService{store: store, catalog: catalog, pricing: pricingService}
}

// AddItem adds qty units of a product to the cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", utils.ErrValidation)
	}
	current, err := s.store.Quantity(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if err := s.checkStock(ctx, productID, current+qty); err != nil {
		return nil, err
	}
	if err := s.store.SetQuantity(ctx, userID, productID, current+qty); err != nil {
		return nil, fmt.Errorf("failed to write cart: %w", err)
	}
	return s.GetCart(ctx, userID)
}

// UpdateItem replaces the quantity of a product already in the cart.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", utils.ErrValidation)
	}
	current, err := s.store.Quantity(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if current == 0 {
		return nil, utils.ErrCartItemNotFound
	}
	if err := s.checkStock(ctx, productID, qty); err != nil {
		return nil, err
	}
	if err := s.store.SetQuantity(ctx, userID, productID, qty); err != nil {
		return nil, fmt.Errorf("failed to write cart: %w", err)
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem drops a product from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int) (*models.Cart, error) {
	current, err := s.store.Quantity(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if current == 0 {
		return nil, utils.ErrCartItemNotFound
	}
	if err := s.store.Remove(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("failed to write cart: %w", err)
	}
	return s.GetCart(ctx, userID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID int) error {
	return s.store.Clear(ctx, userID)
}

// GetCart prices every line at the current quote. Lines whose product is gone
// or inactive are removed from the cart.
func (s *CartService) GetCart(ctx context.Context, userID int) (*models.Cart, error) {
	items, err := s.store.Items(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	ids := make([]int, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	cart := &models.Cart{UserID: userID, Lines: []models.CartLine{}, Total: decimal.Zero}
	for _, id := range ids {
		qty := items[id]
		product, err := s.catalog.GetProduct(ctx, id)
		if errors.Is(err, utils.ErrProductNotFound) {
			log.Info().Int("user_id", userID).Int("product_id", id).Msg("Dropping unavailable product from cart")
			if err := s.store.Remove(ctx, userID, id); err != nil {
				log.Warn().Err(err).Int("user_id", userID).Msg("Failed to drop cart line")
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		quote, err := s.pricing.QuoteProduct(ctx, id, qty)
		if err != nil && !errors.Is(err, utils.ErrPricingUnavailable) {
			return nil, err
		}

		cart.Lines = append(cart.Lines, models.CartLine{
			ProductID: product.ID,
			SkuCode:   product.SkuCode,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
			Quantity:  qty,
			Quote:     quote,
		})
		cart.ItemCount += qty
		cart.Total = cart.Total.Add(quote.LineTotal)
	}
	return cart, nil
}

func (s *CartService) checkStock(ctx context.Context, productID, want int) error {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.CurrentStock < want {
		return utils.ErrInsufficientStock
	}
	return nil
}
