package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog record. ID is assigned once at creation and never
// changes, so deleting one record does not shift the identity of others.
type Product struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	MaterialCode string          `json:"material_code"`
}

// ProductInput is the raw user input for Add and Update.
type ProductInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	UnitPrice    string `json:"unit_price" validate:"required"`
	MaterialCode string `json:"material_code" validate:"max=64"`
}
