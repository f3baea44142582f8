package invoice

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
)

// DateLayout prints issue dates as "05 March 2024".
const DateLayout = "02 January 2006"

// Column is a table column with its width in points.
type Column struct {
	Title string
	Width float64
}

// SummaryRow is one label/amount pair of the totals block.
type SummaryRow struct {
	Label    string
	Amount   string
	Emphasis bool
}

// Layout is the renderer-neutral content of an invoice document. Every
// string is final; renderers only place it.
type Layout struct {
	OrderID     string
	IssuedAt    time.Time
	Title       string
	HeaderLines []string
	Meta        []string
	Columns     []Column
	Rows        [][]string
	Summary     []SummaryRow
	SummaryCols [2]float64
	Closing     string
	Signature   []string
}

var tableColumns = []Column{
	{Title: "Sr.No", Width: 40},
	{Title: "Product", Width: 240},
	{Title: "Qty", Width: 50},
	{Title: "Price", Width: 80},
	{Title: "Total", Width: 80},
}

// TableWidth is the summed width of the line-item table.
func (l Layout) TableWidth() float64 {
	var w float64
	for _, col := range l.Columns {
		w += col.Width
	}
	return w
}

// BuildLayout lays out inv for issuer. It performs no I/O.
func BuildLayout(inv Invoice, issuer Issuer) Layout {
	money := func(d decimal.Decimal) string {
		return issuer.CurrencyLabel + " " + d.StringFixed(pricing.MoneyPlaces)
	}

	rows := make([][]string, 0, len(inv.Lines))
	for i, line := range inv.Lines {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			line.Name,
			strconv.Itoa(line.Quantity),
			money(line.UnitPrice),
			money(line.Total),
		})
	}

	columns := make([]Column, len(tableColumns))
	copy(columns, tableColumns)

	t := inv.Totals
	return Layout{
		OrderID:  inv.OrderID,
		IssuedAt: inv.IssuedAt,
		Title:    issuer.Name,
		HeaderLines: []string{
			"Address: " + issuer.Address,
			"Mail: " + issuer.Mail,
			"Phone: " + issuer.Phone,
		},
		Meta: []string{
			"Order No.: " + inv.OrderID,
			"Billed To: " + inv.BilledTo,
			"Date: " + inv.IssuedAt.Format(DateLayout),
		},
		Columns: columns,
		Rows:    rows,
		Summary: []SummaryRow{
			{Label: "Net Total", Amount: money(t.NetTotal)},
			{Label: "Freight (" + pricing.FormatPercent(t.FreightRate) + "%)", Amount: money(t.Freight)},
			{Label: issuer.TaxLabel + " (" + pricing.FormatPercent(t.TaxRate) + "%)", Amount: money(t.Tax)},
			{Label: "Gross Total", Amount: money(t.GrossTotal), Emphasis: true},
		},
		SummaryCols: [2]float64{150, 100},
		Closing:     issuer.ClosingRemark,
		Signature:   []string{"For " + issuer.Name, issuer.Signatory},
	}
}
