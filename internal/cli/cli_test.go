package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-billing/internal/audit"
	"github.com/odyssey-erp/odyssey-billing/internal/billing"
	"github.com/odyssey-erp/odyssey-billing/internal/cart"
	"github.com/odyssey-erp/odyssey-billing/internal/catalog"
	"github.com/odyssey-erp/odyssey-billing/internal/invoice"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

type harness struct {
	runner *Runner
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	outDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	journal := audit.NewJournal(filepath.Join(outDir, audit.FileName))
	gen, err := invoice.NewGenerator(invoice.Options{
		Renderer:  mustHTML(t),
		OutputDir: outDir,
		Settings:  pricing.DefaultSettings(),
		Journal:   journal,
		Clock:     func() time.Time { return time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	svc := billing.NewService(
		catalog.NewService(catalog.NewFileRepository(filepath.Join(dir, "inventory.json"), nil), nil, nil),
		cart.NewFileStore(filepath.Join(dir, "cart.json")),
		pricing.DefaultTiers(), gen, journal, nil,
	)
	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, outDir: outDir}
	h.runner = New(svc, h.stdout, h.stderr)
	return h
}

func mustHTML(t *testing.T) *invoice.HTMLRenderer {
	t.Helper()
	r, err := invoice.NewHTMLRenderer()
	require.NoError(t, err)
	return r
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	return h.runner.Run(t.Context(), args)
}

func TestCLIEndToEnd(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "catalog", "add", "--name", "Widget", "--price", "100", "--code", "W-1"))
	assert.Contains(t, h.stdout.String(), "Added Widget.")

	require.NoError(t, h.run(t, "cart", "add", "W-1", "--qty", "3", "--tax", "18%"))
	assert.Contains(t, h.stdout.String(), "Added 3 x Widget at 18% tax: 354.00")

	require.NoError(t, h.run(t, "cart", "show"))
	out := h.stdout.String()
	assert.Contains(t, out, "Freight (2.5%): 7.50")
	assert.Contains(t, out, "Gross Total: 362.85")

	require.NoError(t, h.run(t, "invoice", "generate", "--to", "Acme Traders"))
	assert.Contains(t, h.stdout.String(), "Invoice ORD1709634600 for Acme Traders: gross total 362.85")
	assert.FileExists(t, filepath.Join(h.outDir, "ORD1709634600.html"))

	require.NoError(t, h.run(t, "cart", "show"))
	assert.Contains(t, h.stdout.String(), "Cart is empty.")

	require.NoError(t, h.run(t, "invoice", "history"))
	assert.Contains(t, h.stdout.String(), "ORD1709634600")
}

func TestCLICatalogUpdateOnlyChangesGivenFlags(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "catalog", "add", "--name", "Widget", "--price", "100", "--code", "W-1"))

	require.NoError(t, h.run(t, "catalog", "update", "#1", "--price", "120.5"))
	out := h.stdout.String()
	assert.Contains(t, out, "Widget")
	assert.Contains(t, out, "120.50")
	assert.Contains(t, out, "W-1")

	require.NoError(t, h.run(t, "catalog", "delete", "W-1"))
	assert.Contains(t, h.stdout.String(), "Catalog is empty.")
}

func TestCLIErrors(t *testing.T) {
	h := newHarness(t)

	require.ErrorIs(t, h.run(t, "catalog"), ErrUsage)
	require.ErrorIs(t, h.run(t, "orders", "list"), ErrUsage)
	require.ErrorIs(t, h.run(t, "cart", "remove", "one"), ErrUsage)
	require.ErrorIs(t, h.run(t, "cart", "add", "--qty", "2"), ErrUsage)

	err := h.run(t, "catalog", "add", "--name", "Widget", "--price", "cheap")
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, `invalid unit_price: "cheap" is not a number`, shared.UserSafeMessage(err))

	err = h.run(t, "invoice", "generate", "--to", "Acme")
	require.ErrorIs(t, err, shared.ErrPrecondition)
}

func TestCLICatalogSchemaIsJSON(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "catalog", "schema"))

	var schema map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &schema))
	assert.Equal(t, "array", schema["type"])
}
