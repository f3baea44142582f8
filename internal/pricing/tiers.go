package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Tiers is the configured set of tax rates a cart line may use.
type Tiers []decimal.Decimal

// DefaultTiers returns the flat GST tiers: 0%, 18% and 28%.
func DefaultTiers() Tiers {
	return Tiers{
		decimal.Zero,
		decimal.RequireFromString("0.18"),
		decimal.RequireFromString("0.28"),
	}
}

// ParseTiers parses rates such as "0.18" or "18%". The result is sorted and de-duplicated.
func ParseTiers(raw []string) (Tiers, error) {
	var tiers Tiers
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		rate, err := ParseRate(item)
		if err != nil {
			return nil, err
		}
		if !tiers.Contains(rate) {
			tiers = append(tiers, rate)
		}
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("pricing: at least one tax tier is required")
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].LessThan(tiers[j]) })
	return tiers, nil
}

// ParseRate accepts a fraction ("0.025") or a percentage ("2.5%").
func ParseRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pricing: invalid rate %q", s)
	}
	if percent {
		rate = rate.Div(hundred)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("pricing: rate %s out of range [0, 1]", rate)
	}
	return rate, nil
}

// Contains reports whether rate is one of the tiers.
func (t Tiers) Contains(rate decimal.Decimal) bool {
	for _, tier := range t {
		if tier.Equal(rate) {
			return true
		}
	}
	return false
}

// LowestNonZero returns the smallest positive tier.
func (t Tiers) LowestNonZero() (decimal.Decimal, bool) {
	var (
		lowest decimal.Decimal
		found  bool
	)
	for _, tier := range t {
		if !tier.IsPositive() {
			continue
		}
		if !found || tier.LessThan(lowest) {
			lowest = tier
			found = true
		}
	}
	return lowest, found
}

// Labels renders the tiers as percentages, e.g. "0%, 18%, 28%".
func (t Tiers) Labels() string {
	parts := make([]string, 0, len(t))
	for _, tier := range t {
		parts = append(parts, FormatPercent(tier)+"%")
	}
	return strings.Join(parts, ", ")
}

// FormatPercent renders a fractional rate as a percentage without trailing zeros: 0.025 -> "2.5".
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(hundred).String()
}
