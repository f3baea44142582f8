package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-billing/internal/platform/db"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS catalog_products (
	seq           BIGSERIAL,
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL CHECK (name <> ''),
	unit_price    NUMERIC(14,2) NOT NULL CHECK (unit_price >= 0),
	material_code TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores the catalog in the catalog_products table,
// ordered by insertion sequence.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository wraps pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the catalog table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("catalog: ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	products, err := listProducts(ctx, r.pool)
	if err != nil {
		return nil, &shared.StorageReadError{Path: "catalog_products", Err: err}
	}
	return products, nil
}

func (r *PostgresRepository) Add(ctx context.Context, product Product) ([]Product, error) {
	var products []Product
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO catalog_products (id, name, unit_price, material_code)
			VALUES ($1, $2, $3, $4)
		`, product.ID, product.Name, product.UnitPrice, product.MaterialCode)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		products, err = listProducts(ctx, tx)
		return err
	})
	if err != nil {
		return nil, &shared.StorageWriteError{Path: "catalog_products", Err: err}
	}
	return products, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, product Product) ([]Product, error) {
	var products []Product
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE catalog_products
			SET name = $2, unit_price = $3, material_code = $4, updated_at = NOW()
			WHERE id = $1
		`, id, product.Name, product.UnitPrice, product.MaterialCode)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
		}
		products, err = listProducts(ctx, tx)
		return err
	})
	if err != nil {
		return nil, wrapWriteErr(err)
	}
	return products, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) ([]Product, error) {
	var products []Product
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM catalog_products WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
		}
		products, err = listProducts(ctx, tx)
		return err
	})
	if err != nil {
		return nil, wrapWriteErr(err)
	}
	return products, nil
}

func wrapWriteErr(err error) error {
	if shared.IsNotFound(err) {
		return err
	}
	return &shared.StorageWriteError{Path: "catalog_products", Err: err}
}

func listProducts(ctx context.Context, q querier) ([]Product, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, unit_price, material_code
		FROM catalog_products
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitPrice, &p.MaterialCode); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
