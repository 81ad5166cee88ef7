// Package pricing derives display prices from product state: stock depletion
// discounts, bulk quantity tiers and time-boxed monthly deals.
//
// Every function here is pure. Money and percentages are decimal.Decimal so
// that repeated repricing never accumulates float drift.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidArgument is returned for inputs that would otherwise produce a
// meaningless price (negative amounts, percentages outside 0..100, ...).
var ErrInvalidArgument = errors.New("INVALID_ARGUMENT")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Tier is a bulk discount tier: buying at least Quantity units earns
// DiscountPercentage off the unit price.
type Tier struct {
	Quantity           int             `json:"quantity"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
}

// MonthlyDeal is an admin-configured promotional discount for one product.
type MonthlyDeal struct {
	IsActive                  bool            `json:"isActive"`
	StartDate                 time.Time       `json:"startDate"`
	EndDate                   time.Time       `json:"endDate"`
	SpecialDiscountPercentage decimal.Decimal `json:"specialDiscountPercentage"`
}

// Validate checks the deal window and discount range.
func (d *MonthlyDeal) Validate() error {
	if d == nil {
		return nil
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return invalidf("monthly deal requires startDate and endDate")
	}
	if d.EndDate.Before(d.StartDate) {
		return invalidf("monthly deal endDate is before startDate")
	}
	return checkPercentage("monthly deal discount", d.SpecialDiscountPercentage)
}

// Validate checks a single tier.
func (t Tier) Validate() error {
	if t.Quantity < 1 {
		return invalidf("tier quantity %d must be at least 1", t.Quantity)
	}
	return checkPercentage("tier discount", t.DiscountPercentage)
}

// StockDiscountedPrice scales a discount of up to maxDiscountPct with the share
// of initial stock already sold, never going below basePrice*floorFraction.
//
// initialStock == 0 means there is no stock data and basePrice is returned.
// currentStock <= 0 is fully depleted. currentStock above initialStock is
// treated as zero depletion, so the result never exceeds basePrice.
func StockDiscountedPrice(basePrice decimal.Decimal, initialStock, currentStock int, maxDiscountPct, floorFraction decimal.Decimal) (decimal.Decimal, error) {
	if basePrice.IsNegative() {
		return decimal.Zero, invalidf("base price %s is negative", basePrice)
	}
	if initialStock < 0 {
		return decimal.Zero, invalidf("initial stock %d is negative", initialStock)
	}
	if err := checkPercentage("max discount", maxDiscountPct); err != nil {
		return decimal.Zero, err
	}
	if err := checkFraction("stock floor", floorFraction); err != nil {
		return decimal.Zero, err
	}
	if initialStock == 0 {
		return basePrice, nil
	}

	stock := currentStock
	if stock < 0 {
		stock = 0
	}
	stockRatio := decimal.NewFromInt(int64(stock)).Div(decimal.NewFromInt(int64(initialStock)))
	depletion := clampUnit(one.Sub(stockRatio))

	discount := depletion.Mul(maxDiscountPct)
	price := basePrice.Mul(one.Sub(discount.Div(hundred)))

	return decimal.Max(price, basePrice.Mul(floorFraction)), nil
}

// BulkDiscountRate returns the highest discount among tiers whose quantity is
// reached by quantity. Tiers may be in any order.
func BulkDiscountRate(tiers []Tier, quantity int) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, invalidf("quantity %d must be at least 1", quantity)
	}
	best := decimal.Zero
	for _, t := range tiers {
		if err := t.Validate(); err != nil {
			return decimal.Zero, err
		}
		if t.Quantity <= quantity && t.DiscountPercentage.GreaterThan(best) {
			best = t.DiscountPercentage
		}
	}
	return best, nil
}

// MonthlyDealRate returns the deal's discount when it is active and now falls
// inside [StartDate, EndDate], otherwise zero.
func MonthlyDealRate(deal *MonthlyDeal, now time.Time) decimal.Decimal {
	if deal == nil || !deal.IsActive {
		return decimal.Zero
	}
	if now.Before(deal.StartDate) || now.After(deal.EndDate) {
		return decimal.Zero
	}
	return deal.SpecialDiscountPercentage
}

// FinalUnitPrice applies the larger of bulkRate and monthlyRate to the
// stock-discounted price. The two rates do not stack. The result is bounded
// below by stockPrice*finalFloor and capped at basePrice, so a stockPrice
// above basePrice (never produced by StockDiscountedPrice) still cannot
// quote a premium.
func FinalUnitPrice(basePrice, stockPrice, bulkRate, monthlyRate, finalFloor decimal.Decimal) (decimal.Decimal, error) {
	if basePrice.IsNegative() || stockPrice.IsNegative() {
		return decimal.Zero, invalidf("prices must not be negative")
	}
	if err := checkPercentage("bulk rate", bulkRate); err != nil {
		return decimal.Zero, err
	}
	if err := checkPercentage("monthly rate", monthlyRate); err != nil {
		return decimal.Zero, err
	}
	if err := checkFraction("final floor", finalFloor); err != nil {
		return decimal.Zero, err
	}

	rate := decimal.Max(bulkRate, monthlyRate)
	price := stockPrice.Mul(one.Sub(rate.Div(hundred)))
	price = decimal.Max(price, stockPrice.Mul(finalFloor))
	return decimal.Min(price, basePrice), nil
}

func clampUnit(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(one) {
		return one
	}
	return d
}

func checkPercentage(name string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return invalidf("%s %s must be between 0 and 100", name, v)
	}
	return nil
}

func checkFraction(name string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(one) {
		return invalidf("%s %s must be between 0 and 1", name, v)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
