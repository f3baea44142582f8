package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the ordered product list. Every mutation returns the
// full catalog as it stands after the write.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Add(ctx context.Context, product Product) ([]Product, error)
	Update(ctx context.Context, id uuid.UUID, product Product) ([]Product, error)
	Delete(ctx context.Context, id uuid.UUID) ([]Product, error)
}

func indexOf(products []Product, id uuid.UUID) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
