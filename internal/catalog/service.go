package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

// MutationRecorder observes successful catalog mutations.
type MutationRecorder interface {
	CatalogMutation(op string)
}

// Service validates input before handing it to the repository. Invalid
// input never reaches storage.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	recorder MutationRecorder
	newID    func() uuid.UUID
}

// NewService builds a Service. logger and recorder may be nil.
func NewService(repo Repository, logger *slog.Logger, recorder MutationRecorder) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, recorder: recorder, newID: uuid.New}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return Product{}, err
	}
	idx := indexOf(products, id)
	if idx < 0 {
		return Product{}, fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
	}
	return products[idx], nil
}

func (s *Service) Add(ctx context.Context, in ProductInput) ([]Product, error) {
	product, err := toProduct(in)
	if err != nil {
		return nil, err
	}
	product.ID = s.newID()

	products, err := s.repo.Add(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("catalog: add: %w", err)
	}
	s.logger.Info("product added", slog.String("id", product.ID.String()), slog.String("name", product.Name))
	s.record("add")
	return products, nil
}

// Update fully replaces the product identified by id.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in ProductInput) ([]Product, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError("id", "is required")
	}
	product, err := toProduct(in)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.Update(ctx, id, product)
	if err != nil {
		return nil, fmt.Errorf("catalog: update: %w", err)
	}
	s.logger.Info("product updated", slog.String("id", id.String()), slog.String("name", product.Name))
	s.record("update")
	return products, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) ([]Product, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError("id", "is required")
	}
	products, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("catalog: delete: %w", err)
	}
	s.logger.Info("product deleted", slog.String("id", id.String()))
	s.record("delete")
	return products, nil
}

// Resolve finds a product by uuid, by 1-based position ("3" or "#3"), or by
// exact material code, in that order.
func (s *Service) Resolve(ctx context.Context, ref string) (Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Product{}, shared.NewValidationError("product", "is required")
	}
	products, err := s.repo.List(ctx)
	if err != nil {
		return Product{}, err
	}

	if id, err := uuid.Parse(ref); err == nil {
		if idx := indexOf(products, id); idx >= 0 {
			return products[idx], nil
		}
		return Product{}, fmt.Errorf("catalog: product %s: %w", ref, shared.ErrNotFound)
	}
	if pos, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		if pos < 1 || pos > len(products) {
			return Product{}, fmt.Errorf("catalog: position %d of %d: %w", pos, len(products), shared.ErrNotFound)
		}
		return products[pos-1], nil
	}
	for _, p := range products {
		if p.MaterialCode != "" && p.MaterialCode == ref {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("catalog: product %q: %w", ref, shared.ErrNotFound)
}

func (s *Service) record(op string) {
	if s.recorder != nil {
		s.recorder.CatalogMutation(op)
	}
}
