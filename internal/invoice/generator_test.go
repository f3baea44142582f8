package invoice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-billing/internal/audit"
	"github.com/odyssey-erp/odyssey-billing/internal/cart"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
	"github.com/odyssey-erp/odyssey-billing/report"
)

type countingClaimer struct {
	calls int
}

func (c *countingClaimer) Claim(context.Context, string) (bool, error) {
	c.calls++
	return true, nil
}

type memJournal struct {
	entries []audit.Entry
	err     error
}

func (j *memJournal) Append(_ context.Context, entry audit.Entry) error {
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, entry)
	return nil
}

type memRecorder struct {
	generated int
	failures  map[string]int
}

func (r *memRecorder) InvoiceGenerated(decimal.Decimal) { r.generated++ }

func (r *memRecorder) InvoiceFailed(reason string) {
	if r.failures == nil {
		r.failures = map[string]int{}
	}
	r.failures[reason]++
}

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, Layout) ([]byte, error) {
	return nil, errors.New("renderer exploded")
}

func (failingRenderer) Extension() string { return "pdf" }

func newTestGenerator(t *testing.T, dir string, opts Options) *Generator {
	t.Helper()
	if opts.Renderer == nil {
		opts.Renderer = NewPDFRenderer()
	}
	opts.OutputDir = dir
	opts.Settings = pricing.DefaultSettings()
	opts.Clock = func() time.Time { return fixedTime }
	gen, err := NewGenerator(opts)
	require.NoError(t, err)
	return gen
}

func TestGenerateWidgetInvoice(t *testing.T) {
	dir := t.TempDir()
	journal := &memJournal{}
	recorder := &memRecorder{}
	gen := newTestGenerator(t, dir, Options{Journal: journal, Recorder: recorder})
	c := widgetCart(t)

	inv, doc, err := gen.Generate(t.Context(), c, "  Acme Traders ")
	require.NoError(t, err)

	assert.Equal(t, "ORD1709634600", inv.OrderID)
	assert.Equal(t, "Acme Traders", inv.BilledTo)
	assert.Equal(t, "300.00", inv.Totals.NetTotal.StringFixed(2))
	assert.Equal(t, "7.50", inv.Totals.Freight.StringFixed(2))
	assert.Equal(t, "55.35", inv.Totals.Tax.StringFixed(2))
	assert.Equal(t, "362.85", inv.Totals.GrossTotal.StringFixed(2))
	assert.Equal(t, filepath.Join(dir, "ORD1709634600.pdf"), inv.Path)
	assert.Equal(t, dir, gen.OutputDir())

	onDisk, err := os.ReadFile(inv.Path)
	require.NoError(t, err)
	assert.Equal(t, doc, onDisk)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))

	assert.True(t, c.IsEmpty(), "cart is cleared after a successful invoice")
	require.Len(t, journal.entries, 1)
	assert.Equal(t, "ORD1709634600", journal.entries[0].OrderID)
	assert.Equal(t, 1, recorder.generated)
}

func TestGenerateIsByteStable(t *testing.T) {
	render := func() []byte {
		gen := newTestGenerator(t, t.TempDir(), Options{})
		_, doc, err := gen.Generate(t.Context(), widgetCart(t), "Acme Traders")
		require.NoError(t, err)
		return doc
	}
	first := render()
	second := render()
	assert.Equal(t, first, second)
}

func TestGenerateSecondInvoiceInSameSecondGetsSuffix(t *testing.T) {
	dir := t.TempDir()
	gen := newTestGenerator(t, dir, Options{})

	first, _, err := gen.Generate(t.Context(), widgetCart(t), "Acme")
	require.NoError(t, err)
	second, _, err := gen.Generate(t.Context(), widgetCart(t), "Acme")
	require.NoError(t, err)

	assert.Equal(t, "ORD1709634600", first.OrderID)
	assert.Equal(t, "ORD1709634600-2", second.OrderID)
	assert.FileExists(t, first.Path)
	assert.FileExists(t, second.Path)
}

func TestGeneratePreconditions(t *testing.T) {
	cases := []struct {
		name     string
		cart     func(t *testing.T) *cart.Cart
		billedTo string
		field    string
	}{
		{name: "empty cart", cart: func(*testing.T) *cart.Cart { return cart.New(pricing.DefaultTiers()) }, billedTo: "Acme", field: "cart"},
		{name: "nil cart", cart: func(*testing.T) *cart.Cart { return nil }, billedTo: "Acme", field: "cart"},
		{name: "blank customer", cart: widgetCart, billedTo: "   ", field: "billed_to"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			claimer := &countingClaimer{}
			recorder := &memRecorder{}
			gen := newTestGenerator(t, dir, Options{Claimer: claimer, Recorder: recorder})
			c := tc.cart(t)
			before := 0
			if c != nil {
				before = c.Len()
			}

			_, _, err := gen.Generate(t.Context(), c, tc.billedTo)
			require.ErrorIs(t, err, shared.ErrPrecondition)

			var perr *shared.PreconditionError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.field, perr.Field)

			assert.Zero(t, claimer.calls, "no order id consumed")
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "no document written")
			if c != nil {
				assert.Equal(t, before, c.Len())
			}
			assert.Equal(t, 1, recorder.failures[FailurePrecondition])
		})
	}
}

func TestGenerateWriteFailureLeavesCartIntact(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	recorder := &memRecorder{}
	gen := newTestGenerator(t, filepath.Join(blocker, "out"), Options{Claimer: &countingClaimer{}, Recorder: recorder})
	c := widgetCart(t)

	_, _, err := gen.Generate(t.Context(), c, "Acme")
	require.ErrorIs(t, err, shared.ErrDocumentWrite)

	var derr *shared.DocumentWriteError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, filepath.Join(blocker, "out", "ORD1709634600.pdf"), derr.Path)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, recorder.failures[FailureWrite])
}

func TestGenerateRenderFailureLeavesCartIntact(t *testing.T) {
	dir := t.TempDir()
	gen := newTestGenerator(t, dir, Options{Renderer: failingRenderer{}})
	c := widgetCart(t)

	_, _, err := gen.Generate(t.Context(), c, "Acme")
	require.ErrorIs(t, err, shared.ErrDocumentWrite)
	assert.Equal(t, 1, c.Len())
	assert.NoFileExists(t, filepath.Join(dir, "ORD1709634600.pdf"))
}

func TestGenerateJournalFailureKeepsInvoice(t *testing.T) {
	gen := newTestGenerator(t, t.TempDir(), Options{Journal: &memJournal{err: errors.New("disk full")}})
	c := widgetCart(t)

	inv, _, err := gen.Generate(t.Context(), c, "Acme")
	require.NoError(t, err)
	assert.FileExists(t, inv.Path)
	assert.True(t, c.IsEmpty())
}

func TestHTMLRendererOutput(t *testing.T) {
	gen := newTestGenerator(t, t.TempDir(), Options{Renderer: mustHTMLRenderer(t)})

	inv, doc, err := gen.Generate(t.Context(), widgetCart(t), "Acme & Sons")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(inv.Path, "ORD1709634600.html"))

	html := string(doc)
	assert.Contains(t, html, "Globizz Solutions")
	assert.Contains(t, html, "Order No.: ORD1709634600")
	assert.Contains(t, html, "Billed To: Acme &amp; Sons")
	assert.Contains(t, html, "Date: 05 March 2024")
	assert.Contains(t, html, "<th style=\"width: 240pt\">Product</th>")
	assert.Contains(t, html, "Freight (2.5%)")
	assert.Contains(t, html, "Rs 362.85")
	assert.Contains(t, html, "Thank you for your business!")
}

func TestHTMLRendererCentresOnlyTitle(t *testing.T) {
	doc, err := mustHTMLRenderer(t).Render(t.Context(), BuildLayout(Invoice{
		OrderID:  "ORD1709634600",
		BilledTo: "Acme",
		IssuedAt: fixedTime,
	}, DefaultIssuer()))
	require.NoError(t, err)

	html := string(doc)
	assert.Contains(t, html, "header h1 { font-size: 18pt; margin: 0 0 4pt; text-align: center; }")
	assert.NotContains(t, html, "header { text-align: center")
}

func TestGotenbergRendererPostsHTML(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		file, _, err := r.FormFile("files")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(file)
		received = string(data)
		_, _ = w.Write([]byte("%PDF-1.7 gotenberg"))
	}))
	defer srv.Close()

	renderer, err := NewGotenbergRenderer("", report.NewClient(srv.URL, srv.Client()))
	require.NoError(t, err)
	gen := newTestGenerator(t, t.TempDir(), Options{Renderer: renderer})

	inv, doc, err := gen.Generate(t.Context(), widgetCart(t), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 gotenberg", string(doc))
	assert.True(t, strings.HasSuffix(inv.Path, ".pdf"))
	assert.Contains(t, received, "Order No.: ORD1709634600")
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.Extension())

	r, err = NewRenderer("HTML", "")
	require.NoError(t, err)
	assert.Equal(t, "html", r.Extension())

	_, err = NewRenderer("gotenberg", "")
	require.Error(t, err)

	_, err = NewRenderer("docx", "")
	require.Error(t, err)
}

func mustHTMLRenderer(t *testing.T) *HTMLRenderer {
	t.Helper()
	r, err := NewHTMLRenderer()
	require.NoError(t, err)
	return r
}
