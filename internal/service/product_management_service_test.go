package service

import (
	"context"
	"errors"
	"testing"

	"github.com/robinhoot/robinhoot_api/internal/pricing"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

func managementService(f *pricingFixture) *ProductManagementService {
	return NewProductManagementService(f.products, f.history, f.svc)
}

func TestCreateProductDefaultsInitialStock(t *testing.T) {
	f := newPricingFixture()
	svc := managementService(f)

	p, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		SKUCode:               " TSHIRT-01 ",
		Name:                  "T-shirt",
		BasePrice:             dec("250"),
		CurrentStock:          40,
		MaxDiscountPercentage: dec("20"),
		QuantityThresholds:    []pricing.Tier{{Quantity: 3, DiscountPercentage: dec("5")}},
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.SkuCode != "TSHIRT-01" || p.InitialStock != 40 || !p.IsActive {
		t.Errorf("unexpected product: %+v", p)
	}
	if !p.CurrentPrice.Equal(dec("250")) {
		t.Errorf("current price: got %s, want base price", p.CurrentPrice)
	}
	if f.history.count(p.ID) != 1 {
		t.Errorf("expected the initial price in history, got %d rows", f.history.count(p.ID))
	}
}

func TestCreateProductRepricesPartiallySoldStock(t *testing.T) {
	f := newPricingFixture()
	svc := managementService(f)
	initial := 100

	p, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		SKUCode:               "MUG-01",
		Name:                  "Mug",
		BasePrice:             dec("1000"),
		InitialStock:          &initial,
		CurrentStock:          20,
		MaxDiscountPercentage: dec("40"),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if !p.CurrentPrice.Equal(dec("680")) {
		t.Errorf("current price: got %s, want 680", p.CurrentPrice)
	}
}

func TestCreateProductRejects(t *testing.T) {
	f := newPricingFixture(pricedProduct(1))
	svc := managementService(f)

	tests := []struct {
		name string
		req  CreateProductRequest
		want error
	}{
		{name: "duplicate sku", req: CreateProductRequest{SKUCode: "SKU-1", Name: "x", BasePrice: dec("1")}, want: utils.ErrSKUExists},
		{name: "negative base price", req: CreateProductRequest{SKUCode: "N-1", Name: "x", BasePrice: dec("-5")}, want: utils.ErrValidation},
		{name: "max discount over 100", req: CreateProductRequest{SKUCode: "N-2", Name: "x", BasePrice: dec("5"), MaxDiscountPercentage: dec("120")}, want: utils.ErrValidation},
		{name: "tier quantity zero", req: CreateProductRequest{SKUCode: "N-3", Name: "x", BasePrice: dec("5"), QuantityThresholds: []pricing.Tier{{Quantity: 0, DiscountPercentage: dec("5")}}}, want: utils.ErrValidation},
		{name: "negative stock", req: CreateProductRequest{SKUCode: "N-4", Name: "x", BasePrice: dec("5"), CurrentStock: -1}, want: utils.ErrValidation},
		{name: "missing name", req: CreateProductRequest{SKUCode: "N-5", BasePrice: dec("5")}, want: utils.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := svc.CreateProduct(context.Background(), &req); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdateProductRepricesOnPricingChange(t *testing.T) {
	p := pricedProduct(1)
	p.CurrentStock = 50
	p.CurrentPrice = dec("800")
	f := newPricingFixture(p)
	svc := managementService(f)

	base := dec("2000")
	updated, err := svc.UpdateProduct(context.Background(), 1, &UpdateProductRequest{BasePrice: &base})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if !updated.CurrentPrice.Equal(dec("1600")) {
		t.Errorf("current price: got %s, want 1600", updated.CurrentPrice)
	}
	if len(f.notifier.events) != 1 {
		t.Errorf("expected a price event, got %d", len(f.notifier.events))
	}
}

func TestUpdateProductNameOnlyDoesNotReprice(t *testing.T) {
	f := newPricingFixture(pricedProduct(1))
	svc := managementService(f)

	name := "Renamed"
	updated, err := svc.UpdateProduct(context.Background(), 1, &UpdateProductRequest{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name: got %s", updated.Name)
	}
	if f.history.count(1) != 0 {
		t.Error("a rename must not record price history")
	}
}

func TestUpdateProductKeepsConcurrentStockChange(t *testing.T) {
	base := dec("2000")
	name := "Renamed"
	current := 10

	tests := []struct {
		name      string
		req       UpdateProductRequest
		wantStock int
		wantPrice string
	}{
		{name: "rename", req: UpdateProductRequest{Name: &name}, wantStock: 70, wantPrice: "1000"},
		{name: "base price change reprices from live stock", req: UpdateProductRequest{BasePrice: &base}, wantStock: 70, wantPrice: "1760"},
		{name: "explicit stock wins", req: UpdateProductRequest{CurrentStock: &current}, wantStock: 10, wantPrice: "640"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPricingFixture(pricedProduct(1))
			store := &afterReadStore{
				fakeProductStore: f.products,
				afterRead: func(ctx context.Context, id int) {
					if _, err := f.products.AdjustStock(ctx, id, -30); err != nil {
						t.Errorf("AdjustStock: %v", err)
					}
				},
			}
			svc := NewProductManagementService(store, f.history, f.svc)

			req := tt.req
			updated, err := svc.UpdateProduct(context.Background(), 1, &req)
			if err != nil {
				t.Fatalf("UpdateProduct: %v", err)
			}
			if updated.CurrentStock != tt.wantStock {
				t.Errorf("returned stock: got %d, want %d", updated.CurrentStock, tt.wantStock)
			}
			stored := f.products.get(1)
			if stored.CurrentStock != tt.wantStock {
				t.Errorf("stored stock: got %d, want %d", stored.CurrentStock, tt.wantStock)
			}
			if !stored.CurrentPrice.Equal(dec(tt.wantPrice)) {
				t.Errorf("stored price: got %s, want %s", stored.CurrentPrice, tt.wantPrice)
			}
		})
	}
}

func TestUpdateProductSKUConflict(t *testing.T) {
	f := newPricingFixture(pricedProduct(1), pricedProduct(2))
	svc := managementService(f)

	sku := "SKU-2"
	if _, err := svc.UpdateProduct(context.Background(), 1, &UpdateProductRequest{SKUCode: &sku}); !errors.Is(err, utils.ErrSKUExists) {
		t.Errorf("expected ErrSKUExists, got %v", err)
	}
}

func TestRestockStartsNewRound(t *testing.T) {
	p := pricedProduct(1)
	p.CurrentStock = 0
	p.CurrentPrice = dec("600")
	f := newPricingFixture(p)
	svc := managementService(f)

	restocked, err := svc.Restock(context.Background(), 1, 30)
	if err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if restocked.InitialStock != 30 || restocked.CurrentStock != 30 {
		t.Errorf("stock: got %d/%d", restocked.InitialStock, restocked.CurrentStock)
	}
	if !restocked.CurrentPrice.Equal(dec("1000")) {
		t.Errorf("price after restock: got %s, want 1000", restocked.CurrentPrice)
	}

	if _, err := svc.Restock(context.Background(), 1, -1); !errors.Is(err, utils.ErrValidation) {
		t.Errorf("negative restock: got %v", err)
	}
	if _, err := svc.Restock(context.Background(), 42, 1); !errors.Is(err, utils.ErrProductNotFound) {
		t.Errorf("unknown product: got %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	f := newPricingFixture(pricedProduct(1))
	svc := managementService(f)

	if err := svc.DeleteProduct(context.Background(), 1); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := svc.GetProduct(context.Background(), 1); !errors.Is(err, utils.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound after delete, got %v", err)
	}
}
