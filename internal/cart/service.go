package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

// ErrItemUnavailable indicates the catalog item exists but cannot be sold.
var ErrItemUnavailable = errors.New("cart: item not available for sale")

// Catalog is the subset of catalog reads the cart needs.
type Catalog interface {
	Get(ctx context.Context, id string) (catalog.Item, error)
}

// Service encapsulates cart domain operations for all terminals.
type Service struct {
	Catalog Catalog
	Store   *Store
}

// AddItem resolves the item against the catalog and adds it to the terminal's
// cart. The catalog discount is captured at add time, and the requested qty
// must not exceed the stock on hand as of the catalog read.
func (s *Service) AddItem(ctx context.Context, terminalID, itemID string, qty int) (Totals, error) {
	if s == nil || s.Catalog == nil || s.Store == nil {
		return Totals{}, errors.New("cart service not configured")
	}
	item, err := s.Catalog.Get(ctx, itemID)
	if err != nil {
		return Totals{}, fmt.Errorf("resolve item: %w", err)
	}
	if !item.Available {
		return Totals{}, ErrItemUnavailable
	}
	if int64(qty) > item.StockQty {
		return Totals{}, &inventory.StockError{ItemID: item.ID, Requested: qty, Available: int(item.StockQty)}
	}
	return s.mutate(terminalID, func(c *Cart) error {
		return c.AddItem(Line{
			ItemID:     item.ID,
			SKU:        item.SKU,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			CatalogBps: item.DiscountBps,
			Qty:        qty,
		})
	})
}

// SetQty replaces a line's quantity. Zero keeps the line as pending.
func (s *Service) SetQty(_ context.Context, terminalID, itemID string, qty int) (Totals, error) {
	return s.mutate(terminalID, func(c *Cart) error {
		return c.SetQty(itemID, qty)
	})
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(_ context.Context, terminalID, itemID string) (Totals, error) {
	return s.mutate(terminalID, func(c *Cart) error {
		return c.RemoveItem(itemID)
	})
}

// SetLineDiscount applies a cashier-entered percentage to one line.
func (s *Service) SetLineDiscount(_ context.Context, terminalID, itemID string, percent float64) (Totals, error) {
	bps, err := pricing.PercentToBps(percent)
	if err != nil {
		return Totals{}, err
	}
	return s.mutate(terminalID, func(c *Cart) error {
		return c.SetLineDiscount(itemID, bps)
	})
}

// SetGlobalPercent applies a cart-wide percentage discount.
func (s *Service) SetGlobalPercent(_ context.Context, terminalID string, percent float64) (Totals, error) {
	bps, err := pricing.PercentToBps(percent)
	if err != nil {
		return Totals{}, err
	}
	return s.mutate(terminalID, func(c *Cart) error {
		return c.SetGlobalPercent(bps)
	})
}

// SetGlobalTarget applies a cart-wide discount expressed as the grand total
// the cashier wants to charge.
func (s *Service) SetGlobalTarget(_ context.Context, terminalID string, target pricing.Money) (Totals, error) {
	return s.mutate(terminalID, func(c *Cart) error {
		return c.SetGlobalTarget(target)
	})
}

// ClearGlobalDiscount removes the cart-wide discount.
func (s *Service) ClearGlobalDiscount(_ context.Context, terminalID string) (Totals, error) {
	return s.mutate(terminalID, func(c *Cart) error {
		c.ClearGlobalDiscount()
		return nil
	})
}

// SetCustomer attaches or detaches the cart's customer reference.
func (s *Service) SetCustomer(_ context.Context, terminalID, ref string) (Totals, error) {
	return s.mutate(terminalID, func(c *Cart) error {
		c.SetCustomer(ref)
		return nil
	})
}

// SetCashTendered records the cash received from the customer.
func (s *Service) SetCashTendered(_ context.Context, terminalID string, amount pricing.Money) (Totals, error) {
	return s.mutate(terminalID, func(c *Cart) error {
		return c.SetCashTendered(amount)
	})
}

// Totals returns the current cart with fully recomputed pricing.
func (s *Service) Totals(_ context.Context, terminalID string) (Totals, error) {
	if s == nil || s.Store == nil {
		return Totals{}, errors.New("cart service not configured")
	}
	snapshot, err := s.Store.Snapshot(terminalID)
	if err != nil {
		return Totals{}, err
	}
	return snapshot.Totals(), nil
}

// Clear empties the terminal's cart. Called after a sale is finalized.
func (s *Service) Clear(_ context.Context, terminalID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	return s.Store.Do(terminalID, func(c *Cart) error {
		*c = Cart{TerminalID: terminalID}
		return nil
	})
}

func (s *Service) mutate(terminalID string, fn func(c *Cart) error) (Totals, error) {
	if s == nil || s.Store == nil {
		return Totals{}, errors.New("cart service not configured")
	}
	var totals Totals
	err := s.Store.Do(terminalID, func(c *Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		totals = c.Totals()
		return nil
	})
	if err != nil {
		return Totals{}, err
	}
	return totals, nil
}
