package invoice

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/odyssey-erp/odyssey-billing/internal/audit"
	"github.com/odyssey-erp/odyssey-billing/internal/cart"
	"github.com/odyssey-erp/odyssey-billing/internal/platform/fsx"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

// Failure reasons reported to the Recorder.
const (
	FailurePrecondition = "precondition"
	FailureOrderID      = "order_id"
	FailureRender       = "render"
	FailureWrite        = "write"
)

// Journal records issued invoices.
type Journal interface {
	Append(ctx context.Context, entry audit.Entry) error
}

// Recorder observes generation outcomes.
type Recorder interface {
	InvoiceGenerated(gross decimal.Decimal)
	InvoiceFailed(reason string)
}

// Options configures a Generator. Renderer and OutputDir are required.
type Options struct {
	Renderer  Renderer
	OutputDir string
	Issuer    Issuer
	Settings  pricing.Settings
	// Claimer defaults to a DirClaimer over OutputDir.
	Claimer  Claimer
	Journal  Journal
	Recorder Recorder
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Generator turns a cart into a saved invoice document.
type Generator struct {
	renderer  Renderer
	outputDir string
	issuer    Issuer
	settings  pricing.Settings
	sequencer *Sequencer
	journal   Journal
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

func NewGenerator(opts Options) (*Generator, error) {
	if opts.Renderer == nil {
		return nil, errors.New("invoice: renderer required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, errors.New("invoice: output directory required")
	}
	claimer := opts.Claimer
	if claimer == nil {
		claimer = NewDirClaimer(opts.OutputDir, opts.Renderer.Extension())
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Generator{
		renderer:  opts.Renderer,
		outputDir: opts.OutputDir,
		issuer:    opts.Issuer.WithDefaults(),
		settings:  opts.Settings,
		sequencer: NewSequencer(claimer),
		journal:   opts.Journal,
		recorder:  opts.Recorder,
		logger:    logger,
		now:       now,
	}, nil
}

func (g *Generator) OutputDir() string { return g.outputDir }

// Settings returns the freight and fallback tax rates applied at issue time.
func (g *Generator) Settings() pricing.Settings { return g.settings }

// Generate renders the cart for billedTo and writes it to
// <output dir>/<order id>.<ext>. On success the cart is cleared. When the
// document cannot be produced the cart is left untouched and no file is
// written.
func (g *Generator) Generate(ctx context.Context, c *cart.Cart, billedTo string) (Invoice, []byte, error) {
	billedTo = norm.NFC.String(strings.TrimSpace(billedTo))
	if c == nil || c.IsEmpty() {
		g.fail(FailurePrecondition)
		return Invoice{}, nil, shared.NewPreconditionError("cart", "add at least one item")
	}
	if billedTo == "" {
		g.fail(FailurePrecondition)
		return Invoice{}, nil, shared.NewPreconditionError("billed_to", "customer name is required")
	}

	issuedAt := g.now()
	orderID, err := g.sequencer.Next(ctx, issuedAt)
	if err != nil {
		g.fail(FailureOrderID)
		g.logger.Error("order id allocation failed", slog.Any("error", err))
		return Invoice{}, nil, err
	}

	inv := Invoice{
		OrderID:  orderID,
		BilledTo: billedTo,
		IssuedAt: issuedAt,
		Lines:    c.Lines(),
		Totals:   pricing.Compute(c.PricingLines(), g.settings),
	}
	path := filepath.Join(g.outputDir, orderID+"."+g.renderer.Extension())

	doc, err := g.renderer.Render(ctx, BuildLayout(inv, g.issuer))
	if err != nil {
		g.fail(FailureRender)
		g.logger.Error("invoice render failed", slog.String("order_id", orderID), slog.Any("error", err))
		return Invoice{}, nil, &shared.DocumentWriteError{Path: path, Err: err}
	}
	if err := fsx.WriteFileExclusive(path, doc, 0o644); err != nil {
		g.fail(FailureWrite)
		g.logger.Error("invoice write failed", slog.String("path", path), slog.Any("error", err))
		return Invoice{}, nil, &shared.DocumentWriteError{Path: path, Err: err}
	}
	inv.Path = path
	c.Clear()

	if g.journal != nil {
		entry := audit.Entry{
			At:         inv.IssuedAt,
			OrderID:    inv.OrderID,
			BilledTo:   inv.BilledTo,
			Lines:      len(inv.Lines),
			NetTotal:   inv.Totals.NetTotal,
			Tax:        inv.Totals.Tax,
			GrossTotal: inv.Totals.GrossTotal,
			Path:       inv.Path,
		}
		// the document is already saved; a journal failure must not undo it
		if err := g.journal.Append(ctx, entry); err != nil {
			g.logger.Warn("invoice journal append failed", slog.String("order_id", orderID), slog.Any("error", err))
		}
	}
	if g.recorder != nil {
		g.recorder.InvoiceGenerated(inv.Totals.GrossTotal)
	}
	g.logger.Info("invoice generated",
		slog.String("order_id", orderID),
		slog.String("billed_to", billedTo),
		slog.String("gross_total", inv.Totals.GrossTotal.StringFixed(pricing.MoneyPlaces)),
		slog.String("path", path),
	)
	return inv, doc, nil
}

func (g *Generator) fail(reason string) {
	if g.recorder != nil {
		g.recorder.InvoiceFailed(reason)
	}
}
