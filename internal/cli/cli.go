package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-billing/internal/audit"
	"github.com/odyssey-erp/odyssey-billing/internal/billing"
	"github.com/odyssey-erp/odyssey-billing/internal/catalog"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")

const usage = `Usage:
  billing catalog list
  billing catalog add --name NAME --price PRICE [--code MATERIAL_CODE]
  billing catalog update REF [--name NAME] [--price PRICE] [--code MATERIAL_CODE]
  billing catalog delete REF
  billing catalog schema
  billing cart add REF [--qty N] [--tax RATE]
  billing cart remove LINE
  billing cart show
  billing cart clear
  billing invoice generate --to CUSTOMER
  billing invoice history [--customer NAME] [--page N]

REF is a product id, a list position (3 or #3) or a material code.
RATE is a configured tax tier such as 18% or 0.18.`

// Runner executes one command against the billing service.
type Runner struct {
	svc    *billing.Service
	stdout io.Writer
	stderr io.Writer
}

func New(svc *billing.Service, stdout, stderr io.Writer) *Runner {
	return &Runner{svc: svc, stdout: stdout, stderr: stderr}
}

// Usage prints the command summary.
func (r *Runner) Usage() {
	fmt.Fprintln(r.stderr, usage)
}

// Run executes args, which excludes the program name.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("expected a command group and a command")
	}
	group, cmd, rest := args[0], args[1], args[2:]
	switch group {
	case "catalog", "cat":
		return r.catalog(ctx, cmd, rest)
	case "cart":
		return r.cart(ctx, cmd, rest)
	case "invoice", "inv":
		return r.invoice(ctx, cmd, rest)
	default:
		return usageError("unknown command group %q", group)
	}
}

func (r *Runner) catalog(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "list", "ls":
		products, err := r.svc.ListProducts(ctx)
		if err != nil {
			return err
		}
		r.printProducts(products)
		return nil

	case "add":
		fs := r.flagSet("catalog add")
		name := fs.String("name", "", "product name")
		price := fs.String("price", "", "unit price")
		code := fs.String("code", "", "material code")
		if err := fs.Parse(args); err != nil {
			return usageError("%v", err)
		}
		products, err := r.svc.AddProduct(ctx, catalog.ProductInput{Name: *name, UnitPrice: *price, MaterialCode: *code})
		if err != nil {
			return err
		}
		fmt.Fprintf(r.stdout, "Added %s.\n", products[len(products)-1].Name)
		r.printProducts(products)
		return nil

	case "update", "edit":
		ref, rest := splitRef(args)
		fs := r.flagSet("catalog update")
		name := fs.String("name", "", "new product name")
		price := fs.String("price", "", "new unit price")
		code := fs.String("code", "", "new material code")
		if err := fs.Parse(rest); err != nil {
			return usageError("%v", err)
		}
		if ref == "" {
			return usageError("catalog update needs a product reference")
		}
		var patch billing.ProductPatch
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				patch.Name = name
			case "price":
				patch.UnitPrice = price
			case "code":
				patch.MaterialCode = code
			}
		})
		products, err := r.svc.UpdateProduct(ctx, ref, patch)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.stdout, "Product updated.")
		r.printProducts(products)
		return nil

	case "delete", "rm":
		if len(args) != 1 {
			return usageError("catalog delete needs exactly one product reference")
		}
		products, err := r.svc.DeleteProduct(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(r.stdout, "Product deleted.")
		r.printProducts(products)
		return nil

	case "schema":
		schema, err := r.svc.CatalogSchema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.stdout, string(schema))
		return err

	default:
		return usageError("unknown catalog command %q", cmd)
	}
}

func (r *Runner) cart(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "add":
		ref, rest := splitRef(args)
		fs := r.flagSet("cart add")
		qty := fs.Int("qty", 1, "quantity")
		tax := fs.String("tax", "", "tax rate, one of the configured tiers")
		if err := fs.Parse(rest); err != nil {
			return usageError("%v", err)
		}
		if ref == "" {
			return usageError("cart add needs a product reference")
		}
		var rate *decimal.Decimal
		if *tax != "" {
			parsed, err := pricing.ParseRate(*tax)
			if err != nil {
				return usageError("--tax: %v (choose from %s)", err, r.svc.Tiers().Labels())
			}
			rate = &parsed
		}
		line, err := r.svc.AddToCart(ctx, ref, *qty, rate)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.stdout, "Added %d x %s at %s%% tax: %s\n",
			line.Quantity, line.Name, pricing.FormatPercent(line.TaxRate), line.Total.StringFixed(pricing.MoneyPlaces))
		return nil

	case "remove", "rm":
		if len(args) != 1 {
			return usageError("cart remove needs a line number")
		}
		pos, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
		if err != nil {
			return usageError("line number %q is not a number", args[0])
		}
		line, err := r.svc.RemoveFromCart(ctx, pos)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.stdout, "Removed %s.\n", line.Name)
		return nil

	case "show", "view":
		view, err := r.svc.ViewCart(ctx)
		if err != nil {
			return err
		}
		r.printCart(view)
		return nil

	case "clear":
		if err := r.svc.ClearCart(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.stdout, "Cart cleared.")
		return nil

	default:
		return usageError("unknown cart command %q", cmd)
	}
}

func (r *Runner) invoice(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "generate", "gen":
		fs := r.flagSet("invoice generate")
		to := fs.String("to", "", "customer name")
		if err := fs.Parse(args); err != nil {
			return usageError("%v", err)
		}
		billedTo := *to
		if billedTo == "" {
			billedTo = strings.Join(fs.Args(), " ")
		}
		inv, err := r.svc.GenerateInvoice(ctx, billedTo)
		if inv.Path != "" {
			fmt.Fprintf(r.stdout, "Invoice %s for %s: gross total %s\nSaved to %s\n",
				inv.OrderID, inv.BilledTo, inv.Totals.GrossTotal.StringFixed(pricing.MoneyPlaces), inv.Path)
		}
		return err

	case "history", "log":
		fs := r.flagSet("invoice history")
		customer := fs.String("customer", "", "filter by customer name")
		page := fs.Int("page", 1, "page number")
		if err := fs.Parse(args); err != nil {
			return usageError("%v", err)
		}
		result, err := r.svc.History(ctx, audit.TimelineFilters{BilledTo: *customer, Page: *page})
		if err != nil {
			return err
		}
		r.printHistory(result)
		return nil

	default:
		return usageError("unknown invoice command %q", cmd)
	}
}

func (r *Runner) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	return fs
}

// splitRef separates a leading positional reference from flags.
func splitRef(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", args
	}
	return args[0], args[1:]
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

func (r *Runner) printProducts(products []catalog.Product) {
	if len(products) == 0 {
		fmt.Fprintln(r.stdout, "Catalog is empty.")
		return
	}
	tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tPRICE\tCODE\tID")
	for i, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, p.Name, p.UnitPrice.StringFixed(pricing.MoneyPlaces), p.MaterialCode, p.ID)
	}
	_ = tw.Flush()
}

func (r *Runner) printCart(view billing.CartView) {
	if len(view.Lines) == 0 {
		fmt.Fprintln(r.stdout, "Cart is empty.")
		return
	}
	tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tPRODUCT\tQTY\tPRICE\tTAX\tTOTAL\t")
	for i, line := range view.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s%%\t%s\t\n", i+1, line.Name, line.Quantity,
			line.UnitPrice.StringFixed(pricing.MoneyPlaces), pricing.FormatPercent(line.TaxRate), line.Total.StringFixed(pricing.MoneyPlaces))
	}
	_ = tw.Flush()

	t := view.Totals
	fmt.Fprintf(r.stdout, "\nRunning total: %s\n", view.RunningTotal.StringFixed(pricing.MoneyPlaces))
	fmt.Fprintf(r.stdout, "Net Total: %s\n", t.NetTotal.StringFixed(pricing.MoneyPlaces))
	fmt.Fprintf(r.stdout, "Freight (%s%%): %s\n", pricing.FormatPercent(t.FreightRate), t.Freight.StringFixed(pricing.MoneyPlaces))
	fmt.Fprintf(r.stdout, "Tax (%s%%): %s\n", pricing.FormatPercent(t.TaxRate), t.Tax.StringFixed(pricing.MoneyPlaces))
	fmt.Fprintf(r.stdout, "Gross Total: %s\n", t.GrossTotal.StringFixed(pricing.MoneyPlaces))
}

func (r *Runner) printHistory(result audit.Result) {
	if len(result.Rows) == 0 {
		fmt.Fprintln(r.stdout, "No invoices issued yet.")
		return
	}
	tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tDATE\tBILLED TO\tLINES\tGROSS\tFILE")
	for _, e := range result.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", e.OrderID, e.At.Format("2006-01-02 15:04"), e.BilledTo, e.Lines,
			e.GrossTotal.StringFixed(pricing.MoneyPlaces), e.Path)
	}
	_ = tw.Flush()
	if result.Paging.HasNext {
		fmt.Fprintf(r.stdout, "More: --page %d\n", result.Paging.NextPage)
	}
}
