package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product/quantity/tax selection. Product fields are copied at
// add time; catalog edits made afterwards do not reach an existing line.
type Line struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	MaterialCode string          `json:"material_code"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Subtotal     decimal.Decimal `json:"line_subtotal"`
	Tax          decimal.Decimal `json:"line_tax"`
	Total        decimal.Decimal `json:"line_total"`
}

type addLineRequest struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}
