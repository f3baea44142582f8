package invoice

import (
	"time"

	"github.com/odyssey-erp/odyssey-billing/internal/cart"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
)

// Issuer is the seller printed in the document header and footer.
type Issuer struct {
	Name          string `yaml:"name" json:"name"`
	Address       string `yaml:"address" json:"address"`
	Mail          string `yaml:"mail" json:"mail"`
	Phone         string `yaml:"phone" json:"phone"`
	CurrencyLabel string `yaml:"currency_label" json:"currency_label"`
	TaxLabel      string `yaml:"tax_label" json:"tax_label"`
	ClosingRemark string `yaml:"closing_remark" json:"closing_remark"`
	Signatory     string `yaml:"signatory" json:"signatory"`
}

// DefaultIssuer returns the stock Globizz Solutions profile.
func DefaultIssuer() Issuer {
	return Issuer{
		Name:          "Globizz Solutions",
		Address:       "G.T.B. Nagar,Ludhiana - 141015 (Punjab)",
		Mail:          "sanjiv@globizzsolutions.com, globizzsolutions@gmail.com",
		Phone:         "98728-71664, 9915700364, 0161-4100361",
		CurrencyLabel: "Rs",
		TaxLabel:      "GST",
		ClosingRemark: "Thank you for your business!",
		Signatory:     "Authorised Signatory",
	}
}

// WithDefaults fills blank fields from DefaultIssuer.
func (i Issuer) WithDefaults() Issuer {
	def := DefaultIssuer()
	fill := func(v *string, fallback string) {
		if *v == "" {
			*v = fallback
		}
	}
	fill(&i.Name, def.Name)
	fill(&i.Address, def.Address)
	fill(&i.Mail, def.Mail)
	fill(&i.Phone, def.Phone)
	fill(&i.CurrencyLabel, def.CurrencyLabel)
	fill(&i.TaxLabel, def.TaxLabel)
	fill(&i.ClosingRemark, def.ClosingRemark)
	fill(&i.Signatory, def.Signatory)
	return i
}

// Invoice is an issued order. Lines and Totals are frozen at issue time.
type Invoice struct {
	OrderID  string         `json:"order_id"`
	BilledTo string         `json:"billed_to"`
	IssuedAt time.Time      `json:"issued_at"`
	Lines    []cart.Line    `json:"lines"`
	Totals   pricing.Totals `json:"totals"`
	Path     string         `json:"path"`
}
