package inventory

import (
	"context"
	"errors"
	"fmt"
)

// ErrStockConflict indicates a decrement would take stock below zero.
var ErrStockConflict = errors.New("inventory: insufficient stock")

// StockError carries the item and quantities involved in a failed stock check.
type StockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("inventory: item %s has %d available, %d requested", e.ItemID, e.Available, e.Requested)
}

// Unwrap lets callers match the sentinel with errors.Is.
func (e *StockError) Unwrap() error { return ErrStockConflict }

// Inventory exposes stock reads. Decrements happen inside the sale
// transaction and live on the sales repository instead.
type Inventory interface {
	Available(ctx context.Context, itemID string) (int, error)
}
