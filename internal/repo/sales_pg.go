package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/sale"
	"github.com/noah-isme/backend-pos/internal/session"
)

// SalesRepo persists sales and their stock side effects.
type SalesRepo struct {
	Pool *pgxpool.Pool
}

// CreateWithDecrement inserts the sale, its lines, and the stock decrements in
// one transaction. A failed conditional decrement aborts the transaction so
// the sale is recorded at most once, with stock to cover it.
func (r SalesRepo) CreateWithDecrement(ctx context.Context, s sale.Sale) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const decrement = `
UPDATE catalog_items
SET stock_qty = stock_qty - $2
WHERE id = $1 AND stock_qty >= $2`
	for _, line := range s.Lines {
		tag, err := tx.Exec(ctx, decrement, line.ItemID, line.Qty)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			available := 0
			_ = tx.QueryRow(ctx, `SELECT stock_qty FROM catalog_items WHERE id = $1`, line.ItemID).Scan(&available)
			return &inventory.StockError{ItemID: line.ItemID, Requested: line.Qty, Available: available}
		}
	}

	const insertSale = `
INSERT INTO sales (id, session_id, terminal_id, cashier_id, customer_ref, base_after_line_discounts, global_discount, total, method, cash_tendered, change, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := tx.Exec(ctx, insertSale,
		s.ID, s.SessionID, s.TerminalID, s.CashierID, s.CustomerRef,
		s.BaseAfterLineDiscounts, s.GlobalDiscount, s.Total,
		string(s.Method), s.CashTendered, s.Change, s.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	const insertLine = `
INSERT INTO sale_lines (sale_id, position, item_id, sku, name, unit_price, qty, effective_bps, gross_subtotal, discount, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for i, line := range s.Lines {
		if _, err := tx.Exec(ctx, insertLine,
			s.ID, i, line.ItemID, line.SKU, line.Name,
			line.UnitPrice, line.Qty, line.EffectiveBps,
			line.GrossSubtotal, line.Discount, line.Subtotal,
		); err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID loads one sale with its lines.
func (r SalesRepo) GetByID(ctx context.Context, id uuid.UUID) (sale.Sale, error) {
	const q = `
SELECT id, session_id, terminal_id, cashier_id, customer_ref, base_after_line_discounts, global_discount, total, method, cash_tendered, change, created_at
FROM sales
WHERE id = $1`
	var s sale.Sale
	var method string
	err := r.Pool.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.SessionID, &s.TerminalID, &s.CashierID, &s.CustomerRef,
		&s.BaseAfterLineDiscounts, &s.GlobalDiscount, &s.Total,
		&method, &s.CashTendered, &s.Change, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sale.Sale{}, sale.ErrNotFound
		}
		return sale.Sale{}, err
	}
	s.Method = sale.PaymentMethod(method)

	s.Lines, err = r.linesFor(ctx, id)
	if err != nil {
		return sale.Sale{}, err
	}
	return s, nil
}

// ListBySession returns the session's sales in chronological order, without lines.
func (r SalesRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]sale.Sale, error) {
	const q = `
SELECT id, session_id, terminal_id, cashier_id, customer_ref, base_after_line_discounts, global_discount, total, method, cash_tendered, change, created_at
FROM sales
WHERE session_id = $1
ORDER BY created_at, id`
	rows, err := r.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []sale.Sale
	for rows.Next() {
		var s sale.Sale
		var method string
		if err := rows.Scan(
			&s.ID, &s.SessionID, &s.TerminalID, &s.CashierID, &s.CustomerRef,
			&s.BaseAfterLineDiscounts, &s.GlobalDiscount, &s.Total,
			&method, &s.CashTendered, &s.Change, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		s.Method = sale.PaymentMethod(method)
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// TotalsBySession aggregates sale totals per payment method, plus the overall
// sale count.
func (r SalesRepo) TotalsBySession(ctx context.Context, sessionID uuid.UUID) (session.Totals, int, error) {
	const q = `
SELECT method, COUNT(*), COALESCE(SUM(total), 0)
FROM sales
WHERE session_id = $1
GROUP BY method`
	rows, err := r.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	totals := make(session.Totals)
	count := 0
	for rows.Next() {
		var method string
		var n int
		var amount pricing.Money
		if err := rows.Scan(&method, &n, &amount); err != nil {
			return nil, 0, err
		}
		totals[sale.PaymentMethod(method)] = amount
		count += n
	}
	return totals, count, rows.Err()
}

func (r SalesRepo) linesFor(ctx context.Context, saleID uuid.UUID) ([]sale.LineSnapshot, error) {
	const q = `
SELECT item_id, sku, name, unit_price, qty, effective_bps, gross_subtotal, discount, subtotal
FROM sale_lines
WHERE sale_id = $1
ORDER BY position`
	rows, err := r.Pool.Query(ctx, q, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []sale.LineSnapshot
	for rows.Next() {
		var line sale.LineSnapshot
		if err := rows.Scan(
			&line.ItemID, &line.SKU, &line.Name, &line.UnitPrice,
			&line.Qty, &line.EffectiveBps, &line.GrossSubtotal,
			&line.Discount, &line.Subtotal,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
