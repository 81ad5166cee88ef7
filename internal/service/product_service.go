package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/repository"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

// CatalogStore is the read side of product persistence.
type CatalogStore interface {
	List(ctx context.Context, filter *repository.ProductFilter) ([]models.Product, int, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	GetDistinctCategories(ctx context.Context) ([]string, error)
}

// ProductService provides the public catalog.
type ProductService struct {
	productRepo CatalogStore
	historyRepo PriceHistoryStore
}

// NewProductService constructs a ProductService.
func NewProductService(productRepo CatalogStore, historyRepo PriceHistoryStore) *ProductService {
	return &ProductService{productRepo: productRepo, historyRepo: historyRepo}
}

// ListProducts returns a page of active products and the total count.
func (s *ProductService) ListProducts(ctx context.Context, category, search string, page, limit int) ([]models.Product, int, error) {
	active := true
	filter := &repository.ProductFilter{
		Category: category,
		Search:   search,
		IsActive: &active,
		Page:     page,
		Limit:    limit,
	}
	return s.productRepo.List(ctx, filter)
}

// GetProduct returns an active product.
func (s *ProductService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive {
		return nil, utils.ErrProductNotFound
	}
	return product, nil
}

// GetPriceHistory returns up to limit recent prices of an active product, oldest first.
func (s *ProductService) GetPriceHistory(ctx context.Context, id, limit int) ([]models.PriceHistoryEntry, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByProduct(ctx, id, limit)
}

// GetCategories returns the categories of active products.
func (s *ProductService) GetCategories(ctx context.Context) ([]string, error) {
	return s.productRepo.GetDistinctCategories(ctx)
}
