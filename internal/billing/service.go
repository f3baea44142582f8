package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-billing/internal/audit"
	"github.com/odyssey-erp/odyssey-billing/internal/cart"
	"github.com/odyssey-erp/odyssey-billing/internal/catalog"
	"github.com/odyssey-erp/odyssey-billing/internal/invoice"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

// CartStore persists the working cart between calls.
type CartStore interface {
	Load(tiers pricing.Tiers) (*cart.Cart, error)
	Save(c *cart.Cart) error
}

// History reads issued invoices.
type History interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
}

// ProductPatch carries the fields to change on a product. Nil fields keep
// their current value.
type ProductPatch struct {
	Name         *string
	UnitPrice    *string
	MaterialCode *string
}

// CartView is the cart as shown before invoicing.
type CartView struct {
	Lines        []cart.Line
	RunningTotal decimal.Decimal
	Totals       pricing.Totals
	Tiers        pricing.Tiers
}

// Service is the single entry point used by adapters.
type Service struct {
	catalog   *catalog.Service
	carts     CartStore
	tiers     pricing.Tiers
	generator *invoice.Generator
	history   History
	logger    *slog.Logger
}

func NewService(catalogSvc *catalog.Service, carts CartStore, tiers pricing.Tiers, generator *invoice.Generator, history History, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		catalog:   catalogSvc,
		carts:     carts,
		tiers:     tiers,
		generator: generator,
		history:   history,
		logger:    logger,
	}
}

func (s *Service) Tiers() pricing.Tiers { return s.tiers }

func (s *Service) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return s.catalog.List(ctx)
}

func (s *Service) AddProduct(ctx context.Context, in catalog.ProductInput) ([]catalog.Product, error) {
	return s.catalog.Add(ctx, in)
}

// UpdateProduct applies patch to the product identified by ref (id,
// position or material code).
func (s *Service) UpdateProduct(ctx context.Context, ref string, patch ProductPatch) ([]catalog.Product, error) {
	current, err := s.catalog.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	in := catalog.ProductInput{
		Name:         current.Name,
		UnitPrice:    current.UnitPrice.StringFixed(pricing.MoneyPlaces),
		MaterialCode: current.MaterialCode,
	}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.UnitPrice != nil {
		in.UnitPrice = *patch.UnitPrice
	}
	if patch.MaterialCode != nil {
		in.MaterialCode = *patch.MaterialCode
	}
	return s.catalog.Update(ctx, current.ID, in)
}

func (s *Service) DeleteProduct(ctx context.Context, ref string) ([]catalog.Product, error) {
	current, err := s.catalog.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.catalog.Delete(ctx, current.ID)
}

func (s *Service) CatalogSchema() ([]byte, error) {
	return catalog.Schema()
}

// AddToCart snapshots the product identified by ref into the cart. rate
// defaults to the lowest non-zero tier when nil.
func (s *Service) AddToCart(ctx context.Context, ref string, quantity int, rate *decimal.Decimal) (cart.Line, error) {
	product, err := s.catalog.Resolve(ctx, ref)
	if err != nil {
		return cart.Line{}, err
	}
	c, err := s.carts.Load(s.tiers)
	if err != nil {
		return cart.Line{}, err
	}
	taxRate, ok := s.tiers.LowestNonZero()
	if rate != nil {
		taxRate = *rate
	} else if !ok {
		taxRate = decimal.Zero
	}
	line, err := c.AddLine(product, quantity, taxRate)
	if err != nil {
		return cart.Line{}, err
	}
	if err := s.carts.Save(c); err != nil {
		return cart.Line{}, err
	}
	return line, nil
}

// RemoveFromCart drops the line at 1-based position.
func (s *Service) RemoveFromCart(ctx context.Context, position int) (cart.Line, error) {
	if err := ctx.Err(); err != nil {
		return cart.Line{}, err
	}
	c, err := s.carts.Load(s.tiers)
	if err != nil {
		return cart.Line{}, err
	}
	removed, err := c.RemoveLine(position)
	if err != nil {
		return cart.Line{}, err
	}
	if err := s.carts.Save(c); err != nil {
		return cart.Line{}, err
	}
	return removed, nil
}

func (s *Service) ViewCart(ctx context.Context) (CartView, error) {
	if err := ctx.Err(); err != nil {
		return CartView{}, err
	}
	c, err := s.carts.Load(s.tiers)
	if err != nil {
		return CartView{}, err
	}
	return CartView{
		Lines:        c.Lines(),
		RunningTotal: c.Total(),
		Totals:       pricing.Compute(c.PricingLines(), s.generator.Settings()),
		Tiers:        s.tiers,
	}, nil
}

func (s *Service) ClearCart(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.carts.Save(cart.New(s.tiers))
}

// GenerateInvoice issues an invoice for the saved cart. When the document
// was written but the emptied cart could not be saved, the invoice is
// returned together with the storage error.
func (s *Service) GenerateInvoice(ctx context.Context, billedTo string) (invoice.Invoice, error) {
	c, err := s.carts.Load(s.tiers)
	if err != nil {
		return invoice.Invoice{}, err
	}
	inv, _, err := s.generator.Generate(ctx, c, billedTo)
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("billing: generate invoice: %w", err)
	}
	if err := s.carts.Save(c); err != nil {
		s.logger.Error("clear cart after invoice", slog.String("order_id", inv.OrderID), slog.Any("error", err))
		return inv, err
	}
	return inv, nil
}

func (s *Service) History(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	if s.history == nil {
		return audit.Result{}, errors.New("billing: history not configured")
	}
	return s.history.Timeline(ctx, filters)
}

// IsUserError reports whether err stems from user input rather than the
// environment.
func IsUserError(err error) bool {
	return errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrPrecondition) || errors.Is(err, shared.ErrNotFound)
}
