package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/catalog"
)

// CatalogRepo serves catalog reads from Postgres.
type CatalogRepo struct {
	Pool *pgxpool.Pool
}

// GetItem returns one catalog item by id.
func (r CatalogRepo) GetItem(ctx context.Context, id string) (catalog.Item, error) {
	const q = `
SELECT id, sku, name, unit_price, discount_bps, stock_qty, available
FROM catalog_items
WHERE id = $1`
	var item catalog.Item
	err := r.Pool.QueryRow(ctx, q, id).Scan(
		&item.ID, &item.SKU, &item.Name, &item.UnitPrice, &item.DiscountBps, &item.StockQty, &item.Available,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Item{}, catalog.ErrNotFound
		}
		return catalog.Item{}, err
	}
	return item, nil
}

// ListItems returns a stable page of catalog items.
func (r CatalogRepo) ListItems(ctx context.Context, limit, offset int) ([]catalog.Item, error) {
	const q = `
SELECT id, sku, name, unit_price, discount_bps, stock_qty, available
FROM catalog_items
ORDER BY name, id
LIMIT $1 OFFSET $2`
	rows, err := r.Pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		var item catalog.Item
		if err := rows.Scan(&item.ID, &item.SKU, &item.Name, &item.UnitPrice, &item.DiscountBps, &item.StockQty, &item.Available); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
