package cart

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-billing/internal/catalog"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

func widget() catalog.Product {
	return catalog.Product{
		ID:           uuid.New(),
		Name:         "Widget",
		UnitPrice:    decimal.RequireFromString("100.00"),
		MaterialCode: "W-1",
	}
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestAddLineComputesAmounts(t *testing.T) {
	c := New(pricing.DefaultTiers())

	line, err := c.AddLine(widget(), 3, mustDec(t, "0.18"))
	require.NoError(t, err)

	assert.Equal(t, "300.00", line.Subtotal.StringFixed(2))
	assert.Equal(t, "54.00", line.Tax.StringFixed(2))
	assert.Equal(t, "354.00", line.Total.StringFixed(2))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "354.00", c.Total().StringFixed(2))
}

func TestAddLineRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		qty   int
		rate  string
		field string
	}{
		{name: "zero quantity", qty: 0, rate: "0.18", field: "quantity"},
		{name: "negative quantity", qty: -2, rate: "0.18", field: "quantity"},
		{name: "rate outside tiers", qty: 1, rate: "0.05", field: "tax_rate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(pricing.DefaultTiers())
			_, err := c.AddLine(widget(), tc.qty, mustDec(t, tc.rate))
			require.Error(t, err)

			var verr *shared.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
			assert.True(t, c.IsEmpty())
		})
	}
}

func TestLinesAreSnapshots(t *testing.T) {
	c := New(pricing.DefaultTiers())
	product := widget()

	_, err := c.AddLine(product, 2, decimal.Zero)
	require.NoError(t, err)

	product.Name = "Renamed"
	product.UnitPrice = decimal.RequireFromString("999")

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Widget", lines[0].Name)
	assert.Equal(t, "100.00", lines[0].UnitPrice.StringFixed(2))

	lines[0].Name = "mutated copy"
	assert.Equal(t, "Widget", c.Lines()[0].Name)
}

func TestSnapshotSurvivesCatalogDelete(t *testing.T) {
	ctx := t.Context()
	repo := catalog.NewFileRepository(filepath.Join(t.TempDir(), "inventory.json"), nil)
	svc := catalog.NewService(repo, nil, nil)

	products, err := svc.Add(ctx, catalog.ProductInput{Name: "Widget", UnitPrice: "100"})
	require.NoError(t, err)

	c := New(pricing.DefaultTiers())
	_, err = c.AddLine(products[0], 1, mustDec(t, "0.18"))
	require.NoError(t, err)

	_, err = svc.Delete(ctx, products[0].ID)
	require.NoError(t, err)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, "Widget", c.Lines()[0].Name)
}

func TestRemoveLine(t *testing.T) {
	c := New(pricing.DefaultTiers())
	first := widget()
	second := widget()
	second.Name = "Gadget"

	_, err := c.AddLine(first, 1, decimal.Zero)
	require.NoError(t, err)
	_, err = c.AddLine(second, 1, decimal.Zero)
	require.NoError(t, err)

	removed, err := c.RemoveLine(1)
	require.NoError(t, err)
	assert.Equal(t, "Widget", removed.Name)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "Gadget", c.Lines()[0].Name)

	_, err = c.RemoveLine(5)
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = c.RemoveLine(0)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestClear(t *testing.T) {
	c := New(pricing.DefaultTiers())
	_, err := c.AddLine(widget(), 1, decimal.Zero)
	require.NoError(t, err)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
	assert.Empty(t, c.PricingLines())
}

func TestPricingLinesFeedCalculator(t *testing.T) {
	c := New(pricing.DefaultTiers())
	_, err := c.AddLine(widget(), 3, mustDec(t, "0.18"))
	require.NoError(t, err)

	totals := pricing.Compute(c.PricingLines(), pricing.DefaultSettings())
	assert.Equal(t, "300.00", totals.NetTotal.StringFixed(2))
	assert.Equal(t, "7.50", totals.Freight.StringFixed(2))
	assert.Equal(t, "55.35", totals.Tax.StringFixed(2))
	assert.Equal(t, "362.85", totals.GrossTotal.StringFixed(2))
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	store := NewFileStore(path)

	empty, err := store.Load(pricing.DefaultTiers())
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	c := New(pricing.DefaultTiers())
	_, err = c.AddLine(widget(), 3, mustDec(t, "0.28"))
	require.NoError(t, err)
	require.NoError(t, store.Save(c))

	loaded, err := store.Load(pricing.DefaultTiers())
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	line := loaded.Lines()[0]
	assert.Equal(t, "Widget", line.Name)
	assert.Equal(t, 3, line.Quantity)
	assert.True(t, line.TaxRate.Equal(mustDec(t, "0.28")))
	assert.Equal(t, "384.00", line.Total.StringFixed(2))
}

func TestFileStoreRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(pricing.DefaultTiers())
	require.ErrorIs(t, err, shared.ErrStorageRead)
}

func TestFileStoreRejectsRateOutsideCurrentTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	store := NewFileStore(path)

	c := New(pricing.DefaultTiers())
	_, err := c.AddLine(widget(), 1, mustDec(t, "0.28"))
	require.NoError(t, err)
	require.NoError(t, store.Save(c))

	narrowed, err := pricing.ParseTiers([]string{"0", "0.18"})
	require.NoError(t, err)
	_, err = store.Load(narrowed)
	require.ErrorIs(t, err, shared.ErrStorageRead)
	assert.Contains(t, err.Error(), "28%")

	loaded, err := store.Load(pricing.DefaultTiers())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}
