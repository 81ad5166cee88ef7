package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/robinhoot/robinhoot_api/internal/cache"
	"github.com/robinhoot/robinhoot_api/internal/metrics"
	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/pricing"
	"github.com/robinhoot/robinhoot_api/internal/sse"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// PricedProductStore is the product persistence the pricing service needs.
type PricedProductStore interface {
	GetByID(ctx context.Context, id int) (*models.Product, error)
	ListActive(ctx context.Context) ([]models.Product, error)
	UpdateCurrentPrice(ctx context.Context, id int, price decimal.Decimal) error
	AdjustStock(ctx context.Context, id int, delta int) (*models.Product, error)
}

// PriceHistoryStore appends and reads price history.
type PriceHistoryStore interface {
	Append(ctx context.Context, productID int, price decimal.Decimal) error
	ListByProduct(ctx context.Context, productID, limit int) ([]models.PriceHistoryEntry, error)
}

// QuoteCache caches computed quotes per product generation. InvalidateProduct
// starts a new generation; quotes stored under an older one are never served.
type QuoteCache interface {
	Generation(ctx context.Context, productID int) (int64, error)
	Get(ctx context.Context, productID int, generation int64, quantity int) (*pricing.Quote, error)
	Set(ctx context.Context, productID int, generation int64, q *pricing.Quote) error
	InvalidateProduct(ctx context.Context, productID int) error
}

// RepriceResult describes one reprice of a product.
type RepriceResult struct {
	ProductID    int             `json:"productId"`
	OldPrice     decimal.Decimal `json:"oldPrice"`
	NewPrice     decimal.Decimal `json:"newPrice"`
	Changed      bool            `json:"changed"`
	CurrentStock int             `json:"currentStock"`
}

// PricingService computes quotes and keeps stored current prices in line
// with product state.
type PricingService struct {
	calc     *pricing.Calculator
	products PricedProductStore
	history  PriceHistoryStore
	cache    QuoteCache
	notifier sse.PriceNotifier
	now      func() time.Time
}

// NewPricingService constructs a PricingService. A nil notifier disables events.
func NewPricingService(calc *pricing.Calculator, products PricedProductStore, history PriceHistoryStore, quoteCache QuoteCache, notifier sse.PriceNotifier) *PricingService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &PricingService{
		calc:     calc,
		products: products,
		history:  history,
		cache:    quoteCache,
		notifier: notifier,
		now:      time.Now,
	}
}

// QuoteProduct prices quantity units of a product. When the product's pricing
// data is unusable the returned error wraps utils.ErrPricingUnavailable and
// the quote is a base-price fallback.
func (s *PricingService) QuoteProduct(ctx context.Context, productID, quantity int) (*pricing.Quote, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", utils.ErrValidation)
	}

	// The generation is read before the product, so a quote built from a row
	// that is invalidated meanwhile lands under a dead generation.
	useCache := s.cache != nil
	var gen int64
	if useCache {
		var err error
		if gen, err = s.cache.Generation(ctx, productID); err != nil {
			log.Warn().Err(err).Int("product_id", productID).Msg("Quote cache generation read failed")
			useCache = false
		}
	}
	if useCache {
		q, err := s.cache.Get(ctx, productID, gen, quantity)
		switch {
		case err == nil:
			metrics.RecordQuoteCache(true)
			return q, nil
		case errors.Is(err, cache.ErrCacheMiss):
			metrics.RecordQuoteCache(false)
		default:
			log.Warn().Err(err).Int("product_id", productID).Msg("Quote cache read failed")
		}
	}

	product, err := s.loadActive(ctx, productID)
	if err != nil {
		return nil, err
	}

	q, err := s.calc.Quote(product.PricingInput(), quantity, s.now())
	if err != nil {
		log.Error().Err(err).Int("product_id", productID).Int("quantity", quantity).Msg("Pricing failed, falling back to base price")
		return fallbackQuote(product.BasePrice, quantity, s.now()), fmt.Errorf("%w: %w", utils.ErrPricingUnavailable, err)
	}
	metrics.RecordQuote(string(q.Source))

	if useCache {
		if err := s.cache.Set(ctx, productID, gen, q); err != nil {
			log.Warn().Err(err).Int("product_id", productID).Msg("Quote cache write failed")
		}
	}
	return q, nil
}

// PreviewBulk returns the unit price at each bulk tier of a product.
func (s *PricingService) PreviewBulk(ctx context.Context, productID int) ([]pricing.TierPrice, error) {
	product, err := s.loadActive(ctx, productID)
	if err != nil {
		return nil, err
	}
	tiers, err := s.calc.TierPrices(product.PricingInput(), s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrPricingUnavailable, err)
	}
	return tiers, nil
}

// Reprice recomputes and stores the current price of one product.
func (s *PricingService) Reprice(ctx context.Context, productID int) (*RepriceResult, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return s.repriceLoaded(ctx, product)
}

// ApplyStockDelta adds delta to the product's current stock (never below
// zero) and reprices it.
func (s *PricingService) ApplyStockDelta(ctx context.Context, productID, delta int) (*RepriceResult, error) {
	product, err := s.products.AdjustStock(ctx, productID, delta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	log.Debug().Int("product_id", productID).Int("delta", delta).Int("current_stock", product.CurrentStock).Msg("Stock adjusted")
	return s.repriceLoaded(ctx, product)
}

// RepriceAll reprices every active product and returns how many prices
// changed. A product that fails is logged and skipped.
func (s *PricingService) RepriceAll(ctx context.Context) (int, error) {
	defer metrics.TrackRepriceAll()()

	products, err := s.products.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}

	changed, failed := 0, 0
	for i := range products {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		res, err := s.repriceLoaded(ctx, &products[i])
		if err != nil {
			failed++
			continue
		}
		if res.Changed {
			changed++
		}
	}

	log.Info().Int("products", len(products)).Int("changed", changed).Int("failed", failed).Msg("Reprice run completed")
	return changed, nil
}

// InvalidateQuotes drops cached quotes of a product.
func (s *PricingService) InvalidateQuotes(ctx context.Context, productID int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		log.Warn().Err(err).Int("product_id", productID).Msg("Failed to invalidate cached quotes")
	}
}

// Calculator returns the calculator in use.
func (s *PricingService) Calculator() *pricing.Calculator {
	return s.calc
}

func (s *PricingService) repriceLoaded(ctx context.Context, product *models.Product) (*RepriceResult, error) {
	newPrice, err := s.calc.CurrentPrice(product.PricingInput())
	if err != nil {
		metrics.RecordReprice("error")
		log.Error().Err(err).Int("product_id", product.ID).Msg("Cannot reprice product")
		return nil, fmt.Errorf("%w: %w", utils.ErrPricingUnavailable, err)
	}

	res := &RepriceResult{
		ProductID:    product.ID,
		OldPrice:     product.CurrentPrice,
		NewPrice:     newPrice,
		Changed:      !newPrice.Equal(product.CurrentPrice),
		CurrentStock: product.CurrentStock,
	}

	// Stock may have moved even when the rounded price did not, so cached
	// quotes are dropped either way, after the new state is stored.
	if !res.Changed {
		s.InvalidateQuotes(ctx, product.ID)
		metrics.RecordReprice("unchanged")
		return res, nil
	}

	if err := s.products.UpdateCurrentPrice(ctx, product.ID, newPrice); err != nil {
		s.InvalidateQuotes(ctx, product.ID)
		metrics.RecordReprice("error")
		return nil, fmt.Errorf("failed to store current price: %w", err)
	}
	s.InvalidateQuotes(ctx, product.ID)
	if err := s.history.Append(ctx, product.ID, newPrice); err != nil {
		log.Error().Err(err).Int("product_id", product.ID).Msg("Failed to append price history")
	}
	product.CurrentPrice = newPrice

	metrics.RecordReprice("changed")
	s.notifier.NotifyPriceChanged(product.ID, product.SkuCode, res.OldPrice, newPrice)

	log.Info().
		Int("product_id", product.ID).
		Str("old_price", res.OldPrice.String()).
		Str("new_price", newPrice.String()).
		Msg("Product repriced")
	return res, nil
}

func (s *PricingService) loadActive(ctx context.Context, productID int) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive {
		return nil, utils.ErrProductInactive
	}
	return product, nil
}

func fallbackQuote(basePrice decimal.Decimal, quantity int, now time.Time) *pricing.Quote {
	return &pricing.Quote{
		BasePrice:     basePrice,
		StockPrice:    basePrice,
		BulkRate:      decimal.Zero,
		MonthlyRate:   decimal.Zero,
		EffectiveRate: decimal.Zero,
		UnitPrice:     basePrice,
		Quantity:      quantity,
		LineTotal:     basePrice.Mul(decimal.NewFromInt(int64(quantity))),
		Source:        pricing.SourceNone,
		QuotedAt:      now,
	}
}
