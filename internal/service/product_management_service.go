package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/pricing"
	"github.com/robinhoot/robinhoot_api/internal/repository"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// ManagedProductStore is the product persistence used by the admin panel.
type ManagedProductStore interface {
	List(ctx context.Context, filter *repository.ProductFilter) ([]models.Product, int, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	GetBySKUCode(ctx context.Context, skuCode string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	SetStockLevels(ctx context.Context, id int, initial, current *int) (*models.Product, error)
	Delete(ctx context.Context, id int) error
	Restock(ctx context.Context, id int, stock int) (*models.Product, error)
}

// ProductManagementService handles product CRUD operations.
type ProductManagementService struct {
	productRepo ManagedProductStore
	historyRepo PriceHistoryStore
	pricing     *PricingService
}

// NewProductManagementService constructs a ProductManagementService.
func NewProductManagementService(productRepo ManagedProductStore, historyRepo PriceHistoryStore, pricingService *PricingService) *ProductManagementService {
	return &ProductManagementService{
		productRepo: productRepo,
		historyRepo: historyRepo,
		pricing:     pricingService,
	}
}

// CreateProductRequest represents the request to create a new product.
type CreateProductRequest struct {
	SKUCode               string               `json:"skuCode" binding:"required"`
	Name                  string               `json:"name" binding:"required"`
	Description           string               `json:"description"`
	Category              string               `json:"category"`
	ImageURL              string               `json:"imageUrl"`
	BasePrice             decimal.Decimal      `json:"basePrice"`
	InitialStock          *int                 `json:"initialStock"` // defaults to currentStock
	CurrentStock          int                  `json:"currentStock"`
	MaxDiscountPercentage decimal.Decimal      `json:"maxDiscountPercentage"`
	QuantityThresholds    []pricing.Tier       `json:"quantityThresholds"`
	MonthlyDeal           *pricing.MonthlyDeal `json:"monthlyDeal"`
	IsActive              *bool                `json:"isActive"`
}

// UpdateProductRequest represents a partial product update. Nil fields are left unchanged.
type UpdateProductRequest struct {
	SKUCode               *string              `json:"skuCode"`
	Name                  *string              `json:"name"`
	Description           *string              `json:"description"`
	Category              *string              `json:"category"`
	ImageURL              *string              `json:"imageUrl"`
	BasePrice             *decimal.Decimal     `json:"basePrice"`
	InitialStock          *int                 `json:"initialStock"`
	CurrentStock          *int                 `json:"currentStock"`
	MaxDiscountPercentage *decimal.Decimal     `json:"maxDiscountPercentage"`
	QuantityThresholds    *[]pricing.Tier      `json:"quantityThresholds"`
	MonthlyDeal           *pricing.MonthlyDeal `json:"monthlyDeal"`
	ClearMonthlyDeal      bool                 `json:"clearMonthlyDeal"`
	IsActive              *bool                `json:"isActive"`
}

// touchesPricing reports whether the update changes any pricing input.
func (r *UpdateProductRequest) touchesPricing() bool {
	return r.BasePrice != nil || r.InitialStock != nil || r.CurrentStock != nil ||
		r.MaxDiscountPercentage != nil || r.QuantityThresholds != nil ||
		r.MonthlyDeal != nil || r.ClearMonthlyDeal
}

// ListProductsFilter filters the admin product list.
type ListProductsFilter struct {
	Category string
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

// ListProducts returns active and inactive products for the admin panel.
func (s *ProductManagementService) ListProducts(ctx context.Context, filter *ListProductsFilter) ([]models.Product, int, error) {
	return s.productRepo.List(ctx, &repository.ProductFilter{
		Category: filter.Category,
		Search:   filter.Search,
		IsActive: filter.IsActive,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
}

// CreateProduct creates a new product priced at its base price and then reprices it.
func (s *ProductManagementService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	req.SKUCode = strings.TrimSpace(req.SKUCode)
	if req.SKUCode == "" || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: skuCode and name are required", utils.ErrValidation)
	}
	if err := s.ensureSKUFree(ctx, req.SKUCode); err != nil {
		return nil, err
	}

	initial := req.CurrentStock
	if req.InitialStock != nil {
		initial = *req.InitialStock
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	product := &models.Product{
		SkuCode:               req.SKUCode,
		Name:                  strings.TrimSpace(req.Name),
		Description:           req.Description,
		Category:              strings.TrimSpace(req.Category),
		ImageURL:              req.ImageURL,
		BasePrice:             req.BasePrice,
		CurrentPrice:          req.BasePrice,
		InitialStock:          initial,
		CurrentStock:          req.CurrentStock,
		MaxDiscountPercentage: req.MaxDiscountPercentage,
		QuantityThresholds:    models.QuantityThresholds(req.QuantityThresholds),
		MonthlyDeal:           (*models.MonthlyDeal)(req.MonthlyDeal),
		IsActive:              active,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if err := s.historyRepo.Append(ctx, product.ID, product.CurrentPrice); err != nil {
		log.Error().Err(err).Int("product_id", product.ID).Msg("Failed to record initial price")
	}
	log.Info().Int("product_id", product.ID).Str("sku_code", product.SkuCode).Msg("Product created")

	return s.repriceAndReload(ctx, product)
}

// GetProduct retrieves a product by ID regardless of its active flag.
func (s *ProductManagementService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies a partial update. Changes to pricing inputs trigger a
// reprice. Stock levels are written only when the request sets them, so
// orders consumed while the update runs are not lost.
func (s *ProductManagementService) UpdateProduct(ctx context.Context, id int, req *UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SKUCode != nil {
		sku := strings.TrimSpace(*req.SKUCode)
		if sku == "" {
			return nil, fmt.Errorf("%w: skuCode must not be empty", utils.ErrValidation)
		}
		if sku != product.SkuCode {
			if err := s.ensureSKUFree(ctx, sku); err != nil {
				return nil, err
			}
		}
		product.SkuCode = sku
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be empty", utils.ErrValidation)
		}
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.BasePrice != nil {
		product.BasePrice = *req.BasePrice
	}
	if req.InitialStock != nil {
		product.InitialStock = *req.InitialStock
	}
	if req.CurrentStock != nil {
		product.CurrentStock = *req.CurrentStock
	}
	if req.MaxDiscountPercentage != nil {
		product.MaxDiscountPercentage = *req.MaxDiscountPercentage
	}
	if req.QuantityThresholds != nil {
		product.QuantityThresholds = models.QuantityThresholds(*req.QuantityThresholds)
	}
	switch {
	case req.ClearMonthlyDeal:
		product.MonthlyDeal = nil
	case req.MonthlyDeal != nil:
		product.MonthlyDeal = (*models.MonthlyDeal)(req.MonthlyDeal)
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if req.InitialStock != nil || req.CurrentStock != nil {
		product, err = s.productRepo.SetStockLevels(ctx, id, req.InitialStock, req.CurrentStock)
		if err != nil {
			return nil, fmt.Errorf("failed to update stock levels: %w", err)
		}
	}

	if !req.touchesPricing() {
		s.pricing.InvalidateQuotes(ctx, product.ID)
		return product, nil
	}
	return s.repriceAndReload(ctx, product)
}

// DeleteProduct deletes a product and its price history.
func (s *ProductManagementService) DeleteProduct(ctx context.Context, id int) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		return err
	}
	s.pricing.InvalidateQuotes(ctx, product.ID)
	log.Info().Int("product_id", product.ID).Msg("Product deleted")
	return nil
}

// Restock starts a new selling round with stock units and reprices the product.
func (s *ProductManagementService) Restock(ctx context.Context, id, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", utils.ErrValidation)
	}
	product, err := s.productRepo.Restock(ctx, id, stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to restock product: %w", err)
	}
	log.Info().Int("product_id", id).Int("stock", stock).Msg("Product restocked")
	return s.repriceAndReload(ctx, product)
}

// Reprice forces a reprice of one product.
func (s *ProductManagementService) Reprice(ctx context.Context, id int) (*RepriceResult, error) {
	return s.pricing.Reprice(ctx, id)
}

func (s *ProductManagementService) repriceAndReload(ctx context.Context, product *models.Product) (*models.Product, error) {
	res, err := s.pricing.Reprice(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	product.CurrentPrice = res.NewPrice
	return product, nil
}

func (s *ProductManagementService) ensureSKUFree(ctx context.Context, sku string) error {
	existing, err := s.productRepo.GetBySKUCode(ctx, sku)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check sku code: %w", err)
	}
	if existing != nil {
		return utils.ErrSKUExists
	}
	return nil
}

func validateProduct(p *models.Product) error {
	if p.CurrentStock < 0 {
		return fmt.Errorf("%w: current stock must not be negative", utils.ErrValidation)
	}
	if err := p.PricingInput().Validate(); err != nil {
		return fmt.Errorf("%w: %w", utils.ErrValidation, err)
	}
	return nil
}
