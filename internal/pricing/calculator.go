package pricing

import "github.com/shopspring/decimal"

// MoneyPlaces is the monetary precision used for every derived amount.
const MoneyPlaces = 2

// Settings holds the jurisdiction-level charges applied at invoice time.
type Settings struct {
	FreightRate    decimal.Decimal
	DefaultTaxRate decimal.Decimal
}

// DefaultSettings returns 2.5% freight and an 18% fallback tax rate.
func DefaultSettings() Settings {
	return Settings{
		FreightRate:    decimal.RequireFromString("0.025"),
		DefaultTaxRate: decimal.RequireFromString("0.18"),
	}
}

// Line is the pricing view of a cart line.
type Line struct {
	Subtotal decimal.Decimal
	TaxRate  decimal.Decimal
}

// Totals are the invoice-level amounts printed in the summary block.
type Totals struct {
	NetTotal    decimal.Decimal `json:"net_total"`
	FreightRate decimal.Decimal `json:"freight_rate"`
	Freight     decimal.Decimal `json:"freight"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Tax         decimal.Decimal `json:"tax"`
	GrossTotal  decimal.Decimal `json:"gross_total"`
}

// Round rounds half away from zero to monetary precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// LineAmounts computes the per-line subtotal, tax and total.
func LineAmounts(unitPrice decimal.Decimal, quantity int, taxRate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
	tax = Round(subtotal.Mul(taxRate))
	total = subtotal.Add(tax)
	return subtotal, tax, total
}

// Compute derives the invoice totals. The net total is the pre-tax sum of
// line subtotals; tax is charged once on net+freight at the rate of the
// first line, or the default rate when there are no lines.
func Compute(lines []Line, settings Settings) Totals {
	net := decimal.Zero
	for _, line := range lines {
		net = net.Add(line.Subtotal)
	}
	net = Round(net)

	freight := Round(net.Mul(settings.FreightRate))

	rate := settings.DefaultTaxRate
	if len(lines) > 0 {
		rate = lines[0].TaxRate
	}
	tax := Round(net.Add(freight).Mul(rate))

	return Totals{
		NetTotal:    net,
		FreightRate: settings.FreightRate,
		Freight:     freight,
		TaxRate:     rate,
		Tax:         tax,
		GrossTotal:  Round(net.Add(freight).Add(tax)),
	}
}
