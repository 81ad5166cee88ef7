package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return c
}

func TestQuoteBulkTier(t *testing.T) {
	c := newTestCalculator(t)
	in := Input{
		BasePrice:             dec("1000"),
		InitialStock:          100,
		CurrentStock:          20,
		MaxDiscountPercentage: dec("40"),
		Thresholds:            []Tier{{2, dec("5")}, {5, dec("10")}, {10, dec("15")}},
	}

	q, err := c.Quote(in, 12, time.Now())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !q.StockPrice.Equal(dec("680")) {
		t.Errorf("stock price: got %s, want 680", q.StockPrice)
	}
	if !q.BulkRate.Equal(dec("15")) {
		t.Errorf("bulk rate: got %s, want 15", q.BulkRate)
	}
	if !q.UnitPrice.Equal(dec("578")) {
		t.Errorf("unit price: got %s, want 578", q.UnitPrice)
	}
	if !q.LineTotal.Equal(dec("6936")) {
		t.Errorf("line total: got %s, want 6936", q.LineTotal)
	}
	if q.Source != SourceBulk {
		t.Errorf("source: got %s, want %s", q.Source, SourceBulk)
	}
}

func TestQuoteMonthlyDealBeatsBulk(t *testing.T) {
	c := newTestCalculator(t)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	in := Input{
		BasePrice:             dec("200"),
		InitialStock:          10,
		CurrentStock:          10,
		MaxDiscountPercentage: dec("20"),
		Thresholds:            []Tier{{3, dec("10")}},
		MonthlyDeal: &MonthlyDeal{
			IsActive:                  true,
			StartDate:                 now.AddDate(0, 0, -1),
			EndDate:                   now.AddDate(0, 0, 1),
			SpecialDiscountPercentage: dec("25"),
		},
	}

	q, err := c.Quote(in, 3, now)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !q.UnitPrice.Equal(dec("150")) {
		t.Errorf("unit price: got %s, want 150", q.UnitPrice)
	}
	if q.Source != SourceMonthlyDeal {
		t.Errorf("source: got %s, want %s", q.Source, SourceMonthlyDeal)
	}
}

func TestQuoteSourceStockAndNone(t *testing.T) {
	c := newTestCalculator(t)
	in := Input{BasePrice: dec("50"), InitialStock: 10, CurrentStock: 10, MaxDiscountPercentage: dec("40")}

	q, err := c.Quote(in, 1, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if q.Source != SourceNone {
		t.Errorf("full stock: got %s, want %s", q.Source, SourceNone)
	}

	in.CurrentStock = 5
	q, err = c.Quote(in, 1, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if q.Source != SourceStock || !q.UnitPrice.Equal(dec("40")) {
		t.Errorf("half stock: got %s at %s, want stock at 40", q.Source, q.UnitPrice)
	}
}

func TestQuoteRoundsToCents(t *testing.T) {
	c := newTestCalculator(t)
	in := Input{BasePrice: dec("10"), InitialStock: 3, CurrentStock: 2, MaxDiscountPercentage: dec("10")}

	q, err := c.Quote(in, 1, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	// 10 * (1 - (1/3 * 10)/100) = 9.6666...
	if !q.UnitPrice.Equal(dec("9.67")) {
		t.Errorf("got %s, want 9.67", q.UnitPrice)
	}
}

func TestQuoteRejectsBadQuantity(t *testing.T) {
	c := newTestCalculator(t)
	_, err := c.Quote(Input{BasePrice: dec("10")}, 0, time.Now())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTierPricesSorted(t *testing.T) {
	c := newTestCalculator(t)
	in := Input{
		BasePrice:  dec("100"),
		Thresholds: []Tier{{10, dec("15")}, {2, dec("5")}},
	}

	tiers, err := c.TierPrices(in, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(tiers) != 2 {
		t.Fatalf("got %d tiers, want 2", len(tiers))
	}
	if tiers[0].Quantity != 2 || !tiers[0].UnitPrice.Equal(dec("95")) {
		t.Errorf("first tier: got %+v", tiers[0])
	}
	if tiers[1].Quantity != 10 || !tiers[1].UnitPrice.Equal(dec("85")) {
		t.Errorf("second tier: got %+v", tiers[1])
	}
}

func TestTierPricesKeepTierRateDuringDeal(t *testing.T) {
	c := newTestCalculator(t)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	in := Input{
		BasePrice:  dec("100"),
		Thresholds: []Tier{{2, dec("5")}, {10, dec("30")}},
		MonthlyDeal: &MonthlyDeal{
			IsActive:                  true,
			StartDate:                 now.AddDate(0, 0, -1),
			EndDate:                   now.AddDate(0, 0, 1),
			SpecialDiscountPercentage: dec("20"),
		},
	}

	tiers, err := c.TierPrices(in, now)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		quantity  int
		tierRate  string
		effective string
		unitPrice string
	}{
		{quantity: 2, tierRate: "5", effective: "20", unitPrice: "80"},
		{quantity: 10, tierRate: "30", effective: "30", unitPrice: "70"},
	}
	for i, tt := range tests {
		got := tiers[i]
		if got.Quantity != tt.quantity {
			t.Fatalf("tier %d: quantity %d, want %d", i, got.Quantity, tt.quantity)
		}
		if !got.DiscountPercentage.Equal(dec(tt.tierRate)) {
			t.Errorf("tier %d: discount %s, want %s", i, got.DiscountPercentage, tt.tierRate)
		}
		if !got.EffectiveRate.Equal(dec(tt.effective)) {
			t.Errorf("tier %d: effective rate %s, want %s", i, got.EffectiveRate, tt.effective)
		}
		if !got.UnitPrice.Equal(dec(tt.unitPrice)) {
			t.Errorf("tier %d: unit price %s, want %s", i, got.UnitPrice, tt.unitPrice)
		}
	}
}

func TestNewCalculatorRejectsBadFloor(t *testing.T) {
	_, err := NewCalculator(Config{StockFloor: decimal.NewFromInt(2), FinalFloor: decimal.Zero})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestInputValidate(t *testing.T) {
	valid := Input{
		BasePrice:             dec("100"),
		InitialStock:          10,
		CurrentStock:          -3,
		MaxDiscountPercentage: dec("30"),
		Thresholds:            []Tier{{5, dec("10")}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{name: "negative base", mutate: func(in *Input) { in.BasePrice = dec("-1") }},
		{name: "negative initial stock", mutate: func(in *Input) { in.InitialStock = -1 }},
		{name: "max discount above 100", mutate: func(in *Input) { in.MaxDiscountPercentage = dec("101") }},
		{name: "zero tier quantity", mutate: func(in *Input) { in.Thresholds = []Tier{{0, dec("5")}} }},
		{name: "deal ends before start", mutate: func(in *Input) {
			in.MonthlyDeal = &MonthlyDeal{IsActive: true, StartDate: start, EndDate: start.Add(-time.Hour), SpecialDiscountPercentage: dec("10")}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if err := in.Validate(); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}
