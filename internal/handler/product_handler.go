package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/pricing"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// ProductCatalog is the public catalog read model.
type ProductCatalog interface {
	ListProducts(ctx context.Context, category, search string, page, limit int) ([]models.Product, int, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	GetPriceHistory(ctx context.Context, id, limit int) ([]models.PriceHistoryEntry, error)
	GetCategories(ctx context.Context) ([]string, error)
}

// PriceQuoter prices products on demand.
type PriceQuoter interface {
	QuoteProduct(ctx context.Context, productID, quantity int) (*pricing.Quote, error)
	PreviewBulk(ctx context.Context, productID int) ([]pricing.TierPrice, error)
}

// ProductHandler handles public product and price endpoints.
type ProductHandler struct {
	catalog ProductCatalog
	quoter  PriceQuoter
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(catalog ProductCatalog, quoter PriceQuoter) *ProductHandler {
	return &ProductHandler{catalog: catalog, quoter: quoter}
}

// GetProducts handles GET /v1/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	category := c.Query("category")
	search := c.Query("search")

	// pagination
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	products, total, err := h.catalog.ListProducts(c.Request.Context(), category, search, page, limit)
	if err != nil {
		respondError(c, err, "Failed to get products")
		return
	}

	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", gin.H{
		"products": products,
	}, page, limit, total)
}

// GetCategories handles GET /v1/products/categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalog.GetCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get categories")
		return
	}
	utils.Success(c, 200, "Categories retrieved successfully", gin.H{"categories": categories})
}

// GetProduct handles GET /v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get product")
		return
	}
	utils.Success(c, 200, "Product retrieved successfully", product)
}

// GetPrice handles GET /v1/products/:id/price?quantity=N
// Unusable pricing data yields the base price with a PRICING_UNAVAILABLE code.
func (h *ProductHandler) GetPrice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	quantity := 1
	if v := c.Query("quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			utils.Error(c, 400, "INVALID_QUANTITY", "quantity must be a positive integer")
			return
		}
		quantity = n
	}

	quote, err := h.quoter.QuoteProduct(c.Request.Context(), id, quantity)
	if err != nil {
		if errors.Is(err, utils.ErrPricingUnavailable) && quote != nil {
			utils.Degraded(c, 200, utils.ErrPricingUnavailable.Error(), "Pricing unavailable, showing base price", quote)
			return
		}
		respondError(c, err, "Failed to price product")
		return
	}
	utils.Success(c, 200, "Price calculated successfully", quote)
}

// GetTierPrices handles GET /v1/products/:id/price/tiers
func (h *ProductHandler) GetTierPrices(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tiers, err := h.quoter.PreviewBulk(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to price tiers")
		return
	}
	utils.Success(c, 200, "Tier prices calculated successfully", gin.H{"tiers": tiers})
}

// GetPriceHistory handles GET /v1/products/:id/price-history?limit=N
func (h *ProductHandler) GetPriceHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	history, err := h.catalog.GetPriceHistory(c.Request.Context(), id, queryInt(c, "limit", 30))
	if err != nil {
		respondError(c, err, "Failed to get price history")
		return
	}
	utils.Success(c, 200, "Price history retrieved successfully", gin.H{"history": history})
}
