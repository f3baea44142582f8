package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

// normalize trims and NFC-normalises free text so visually identical names compare equal.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ParsePrice parses a unit price. It must be a non-negative number and is
// rounded to monetary precision.
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, shared.NewValidationError("unit_price", "is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, shared.NewValidationError("unit_price", fmt.Sprintf("%q is not a number", raw))
	}
	if price.IsNegative() {
		return decimal.Zero, shared.NewValidationError("unit_price", "must not be negative")
	}
	return pricing.Round(price), nil
}

// toProduct validates in and converts it into a Product without an ID.
func toProduct(in ProductInput) (Product, error) {
	in.Name = normalize(in.Name)
	in.MaterialCode = normalize(in.MaterialCode)
	in.UnitPrice = strings.TrimSpace(in.UnitPrice)

	if err := shared.ValidateStruct(in); err != nil {
		return Product{}, err
	}
	price, err := ParsePrice(in.UnitPrice)
	if err != nil {
		return Product{}, err
	}
	return Product{
		Name:         in.Name,
		UnitPrice:    price,
		MaterialCode: in.MaterialCode,
	}, nil
}
