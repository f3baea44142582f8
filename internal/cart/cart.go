package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-billing/internal/catalog"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

// Cart is an ordered, append-only list of lines. It is not safe for
// concurrent use; one session owns one cart.
type Cart struct {
	tiers pricing.Tiers
	lines []Line
}

// New returns an empty cart accepting the given tax tiers.
func New(tiers pricing.Tiers) *Cart {
	return &Cart{tiers: tiers}
}

// AddLine snapshots product and appends a line. The cart is unchanged on error.
func (c *Cart) AddLine(product catalog.Product, quantity int, taxRate decimal.Decimal) (Line, error) {
	if err := shared.ValidateStruct(addLineRequest{Name: product.Name, Quantity: quantity}); err != nil {
		return Line{}, err
	}
	if !c.tiers.Contains(taxRate) {
		return Line{}, shared.NewValidationError("tax_rate",
			fmt.Sprintf("%s%% is not one of %s", pricing.FormatPercent(taxRate), c.tiers.Labels()))
	}
	if product.UnitPrice.IsNegative() {
		return Line{}, shared.NewValidationError("unit_price", "must not be negative")
	}

	subtotal, tax, total := pricing.LineAmounts(product.UnitPrice, quantity, taxRate)
	line := Line{
		ProductID:    product.ID,
		Name:         product.Name,
		MaterialCode: product.MaterialCode,
		UnitPrice:    product.UnitPrice,
		Quantity:     quantity,
		TaxRate:      taxRate,
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        total,
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is the running sum of tax-inclusive line totals shown while building
// the cart. Invoice-level freight and tax are computed separately.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Total)
	}
	return total
}

// RemoveLine drops the line at 1-based position.
func (c *Cart) RemoveLine(position int) (Line, error) {
	if position < 1 || position > len(c.lines) {
		return Line{}, shared.NewValidationError("line", fmt.Sprintf("position %d out of range 1..%d", position, len(c.lines)))
	}
	removed := c.lines[position-1]
	c.lines = append(c.lines[:position-1], c.lines[position:]...)
	return removed, nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Tiers returns the tax tiers this cart accepts.
func (c *Cart) Tiers() pricing.Tiers { return c.tiers }

// PricingLines adapts the lines for pricing.Compute.
func (c *Cart) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, pricing.Line{Subtotal: line.Subtotal, TaxRate: line.TaxRate})
	}
	return out
}
