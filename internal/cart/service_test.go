package cart_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/cart"
	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

type stubCatalog struct {
	items map[string]catalog.Item
}

func (s stubCatalog) Get(_ context.Context, id string) (catalog.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return item, nil
}

func newService() *cart.Service {
	return &cart.Service{
		Catalog: stubCatalog{items: map[string]catalog.Item{
			"item-1": {ID: "item-1", SKU: "SKU-1", Name: "Espresso", UnitPrice: 10_000, DiscountBps: 1000, StockQty: 50, Available: true},
			"item-2": {ID: "item-2", SKU: "SKU-2", Name: "Latte", UnitPrice: 5_000, StockQty: 3, Available: true},
			"item-3": {ID: "item-3", SKU: "SKU-3", Name: "Discontinued", UnitPrice: 1_000, StockQty: 10, Available: false},
		}},
		Store: cart.NewStore(),
	}
}

func TestAddItemCapturesCatalogDiscount(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	totals, err := svc.AddItem(ctx, "t-1", "item-1", 2)
	require.NoError(t, err)
	require.Len(t, totals.Lines, 1)
	require.Equal(t, int32(1000), totals.Lines[0].CatalogBps)
	require.Equal(t, pricing.Money(18_000), totals.Total)
}

func TestAddUnavailableItem(t *testing.T) {
	svc := newService()
	_, err := svc.AddItem(context.Background(), "t-1", "item-3", 1)
	require.ErrorIs(t, err, cart.ErrItemUnavailable)

	_, err = svc.AddItem(context.Background(), "t-1", "missing", 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestTerminalsAreIsolated(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "t-1", "item-1", 1)
	require.NoError(t, err)

	totals, err := svc.Totals(ctx, "t-2")
	require.NoError(t, err)
	require.Empty(t, totals.Lines)
}

func TestFailedMutationLeavesCartUntouched(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "t-1", "item-1", 2)
	require.NoError(t, err)

	_, err = svc.SetLineDiscount(ctx, "t-1", "item-1", 95)
	require.ErrorIs(t, err, cart.ErrDiscountTooLarge)

	totals, err := svc.Totals(ctx, "t-1")
	require.NoError(t, err)
	require.Equal(t, int32(0), totals.Lines[0].LineBps)
}

func TestClearEmptiesCart(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "t-1", "item-1", 2)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "t-1"))

	totals, err := svc.Totals(ctx, "t-1")
	require.NoError(t, err)
	require.Empty(t, totals.Lines)
	require.Equal(t, pricing.Money(0), totals.Total)
}

func TestAddItemBoundedByStock(t *testing.T) {
	svc := newService()
	_, err := svc.AddItem(context.Background(), "t-1", "item-2", 4)
	var stockErr *inventory.StockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "item-2", stockErr.ItemID)
	require.Equal(t, 4, stockErr.Requested)
	require.Equal(t, 3, stockErr.Available)

	_, err = svc.AddItem(context.Background(), "t-1", "item-2", 3)
	require.NoError(t, err)
}

func TestConcurrentAddsOnOneTerminal(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	var wg sync.WaitGroup
	var added, rejected int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, "t-1", "item-2", 1)
			switch {
			case err == nil:
				atomic.AddInt32(&added, 1)
			case errors.Is(err, cart.ErrDuplicateLine):
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	// One add wins, the rest see the duplicate line.
	require.Equal(t, int32(1), added)
	require.Equal(t, int32(19), rejected)
	totals, err := svc.Totals(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, totals.Lines, 1)
	require.Equal(t, 1, totals.Lines[0].Qty)
}
