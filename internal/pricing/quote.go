package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Source names the discount that determined a quoted unit price.
type Source string

const (
	SourceNone        Source = "none"
	SourceStock       Source = "stock"
	SourceBulk        Source = "bulk"
	SourceMonthlyDeal Source = "monthly_deal"
)

// Config holds the two configurable floors.
type Config struct {
	// StockFloor is the minimum fraction of base price the stock discount may reach.
	StockFloor decimal.Decimal
	// FinalFloor is the minimum fraction of the stock price the bulk or deal discount may reach.
	FinalFloor decimal.Decimal
}

// DefaultConfig returns floors of 50% for both stages.
func DefaultConfig() Config {
	half := decimal.NewFromFloat(0.5)
	return Config{StockFloor: half, FinalFloor: half}
}

// Input is the pricing-relevant product state.
type Input struct {
	BasePrice             decimal.Decimal
	InitialStock          int
	CurrentStock          int
	MaxDiscountPercentage decimal.Decimal
	Thresholds            []Tier
	MonthlyDeal           *MonthlyDeal
}

// Quote is a priced line: the unit price for a quantity and how it was reached.
type Quote struct {
	BasePrice     decimal.Decimal `json:"basePrice"`
	StockPrice    decimal.Decimal `json:"stockPrice"`
	BulkRate      decimal.Decimal `json:"bulkRate"`
	MonthlyRate   decimal.Decimal `json:"monthlyRate"`
	EffectiveRate decimal.Decimal `json:"effectiveRate"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
	Source        Source          `json:"source"`
	QuotedAt      time.Time       `json:"quotedAt"`
}

// TierPrice is the unit price a buyer gets at a tier's minimum quantity.
// DiscountPercentage is the tier's own rate; EffectiveRate is the rate
// actually applied, which is the monthly deal's while a larger deal runs.
type TierPrice struct {
	Quantity           int             `json:"quantity"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	EffectiveRate      decimal.Decimal `json:"effectiveRate"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
}

// Calculator applies the pricing rules with a fixed pair of floors.
type Calculator struct {
	cfg Config
}

// NewCalculator validates cfg and returns a Calculator.
func NewCalculator(cfg Config) (*Calculator, error) {
	if err := checkFraction("stock floor", cfg.StockFloor); err != nil {
		return nil, err
	}
	if err := checkFraction("final floor", cfg.FinalFloor); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg}, nil
}

// Config returns the floors in use.
func (c *Calculator) Config() Config {
	return c.cfg
}

// CurrentPrice returns the stock-discounted price rounded to cents. This is
// the value persisted as a product's current price.
func (c *Calculator) CurrentPrice(in Input) (decimal.Decimal, error) {
	price, err := c.stockPrice(in)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Round(2), nil
}

// Quote prices quantity units at time now.
func (c *Calculator) Quote(in Input, quantity int, now time.Time) (*Quote, error) {
	stockPrice, err := c.stockPrice(in)
	if err != nil {
		return nil, err
	}
	bulkRate, err := BulkDiscountRate(in.Thresholds, quantity)
	if err != nil {
		return nil, err
	}
	monthlyRate := MonthlyDealRate(in.MonthlyDeal, now)

	unit, err := FinalUnitPrice(in.BasePrice, stockPrice, bulkRate, monthlyRate, c.cfg.FinalFloor)
	if err != nil {
		return nil, err
	}
	unit = unit.Round(2)

	effective := decimal.Max(bulkRate, monthlyRate)
	return &Quote{
		BasePrice:     in.BasePrice,
		StockPrice:    stockPrice.Round(2),
		BulkRate:      bulkRate,
		MonthlyRate:   monthlyRate,
		EffectiveRate: effective,
		UnitPrice:     unit,
		Quantity:      quantity,
		LineTotal:     unit.Mul(decimal.NewFromInt(int64(quantity))),
		Source:        sourceOf(in.BasePrice, stockPrice, bulkRate, monthlyRate),
		QuotedAt:      now,
	}, nil
}

// TierPrices lists the unit price at each tier's minimum quantity, ordered by
// quantity.
func (c *Calculator) TierPrices(in Input, now time.Time) ([]TierPrice, error) {
	tiers := make([]Tier, len(in.Thresholds))
	copy(tiers, in.Thresholds)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Quantity < tiers[j].Quantity })

	out := make([]TierPrice, 0, len(tiers))
	for _, t := range tiers {
		q, err := c.Quote(in, t.Quantity, now)
		if err != nil {
			return nil, err
		}
		out = append(out, TierPrice{
			Quantity:           t.Quantity,
			DiscountPercentage: t.DiscountPercentage,
			EffectiveRate:      q.EffectiveRate,
			UnitPrice:          q.UnitPrice,
		})
	}
	return out, nil
}

func (c *Calculator) stockPrice(in Input) (decimal.Decimal, error) {
	return StockDiscountedPrice(in.BasePrice, in.InitialStock, in.CurrentStock, in.MaxDiscountPercentage, c.cfg.StockFloor)
}

func sourceOf(base, stockPrice, bulkRate, monthlyRate decimal.Decimal) Source {
	switch {
	case monthlyRate.IsPositive() && monthlyRate.GreaterThanOrEqual(bulkRate):
		return SourceMonthlyDeal
	case bulkRate.IsPositive():
		return SourceBulk
	case stockPrice.LessThan(base):
		return SourceStock
	default:
		return SourceNone
	}
}

// Validate reports the first invalid attribute of in. Negative current stock
// is allowed and priced as sold out.
func (in Input) Validate() error {
	if in.BasePrice.IsNegative() {
		return invalidf("base price %s is negative", in.BasePrice)
	}
	if in.InitialStock < 0 {
		return invalidf("initial stock %d is negative", in.InitialStock)
	}
	if err := checkPercentage("max discount", in.MaxDiscountPercentage); err != nil {
		return err
	}
	for _, t := range in.Thresholds {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return in.MonthlyDeal.Validate()
}
