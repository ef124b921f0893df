package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/catalog"
)

// InventoryRepo exposes stock reads from Postgres.
type InventoryRepo struct {
	Pool *pgxpool.Pool
}

// Available returns the current stock quantity for an item.
func (r InventoryRepo) Available(ctx context.Context, itemID string) (int, error) {
	const q = `SELECT stock_qty FROM catalog_items WHERE id = $1`
	var qty int
	if err := r.Pool.QueryRow(ctx, q, itemID).Scan(&qty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, catalog.ErrNotFound
		}
		return 0, err
	}
	return qty, nil
}
