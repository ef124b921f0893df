package sale_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/cart"
	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/sale"
)

type stubSales struct {
	created []sale.Sale
	err     error
}

func (s *stubSales) CreateWithDecrement(_ context.Context, v sale.Sale) error {
	if s.err != nil {
		return s.err
	}
	v.Lines = append([]sale.LineSnapshot(nil), v.Lines...)
	s.created = append(s.created, v)
	return nil
}

func (s *stubSales) GetByID(context.Context, uuid.UUID) (sale.Sale, error) {
	return sale.Sale{}, sale.ErrNotFound
}

func (s *stubSales) ListBySession(context.Context, uuid.UUID) ([]sale.Sale, error) {
	return nil, nil
}

type stubStock struct {
	qty   map[string]int
	calls int
}

func (s *stubStock) Available(_ context.Context, itemID string) (int, error) {
	s.calls++
	if q, ok := s.qty[itemID]; ok {
		return q, nil
	}
	return 100, nil
}

type stubSessions struct {
	id    uuid.UUID
	calls int
}

func (s *stubSessions) EnsureOpen(context.Context, string, string) (uuid.UUID, error) {
	s.calls++
	if s.id == uuid.Nil {
		s.id = uuid.New()
	}
	return s.id, nil
}

func fixtureFinalizer(t *testing.T) (*sale.Finalizer, *cart.Store, *stubSales, *stubSessions) {
	t.Helper()
	carts := cart.NewStore()
	sales := &stubSales{}
	sessions := &stubSessions{}
	f := &sale.Finalizer{
		Carts:    carts,
		Sales:    sales,
		Stock:    &stubStock{},
		Sessions: sessions,
		Now:      func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) },
	}
	return f, carts, sales, sessions
}

func fillCart(t *testing.T, carts *cart.Store, terminalID string) {
	t.Helper()
	err := carts.Do(terminalID, func(c *cart.Cart) error {
		if err := c.AddItem(cart.Line{ItemID: "item-1", SKU: "SKU-1", Name: "Espresso", UnitPrice: 8_500, Qty: 2}); err != nil {
			return err
		}
		if err := c.SetGlobalPercent(1000); err != nil {
			return err
		}
		c.SetCustomer("cust-9")
		return c.SetCashTendered(20_000)
	})
	require.NoError(t, err)
}

func TestFinalizeCashSale(t *testing.T) {
	f, carts, sales, sessions := fixtureFinalizer(t)
	fillCart(t, carts, "t-1")

	recorded, err := f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCash)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(15_300), recorded.Total)
	require.Equal(t, pricing.Money(20_000), recorded.CashTendered)
	require.Equal(t, pricing.Money(4_700), recorded.Change)
	require.Equal(t, sessions.id, recorded.SessionID)
	require.Equal(t, "cashier-1", recorded.CashierID)
	require.Equal(t, "cust-9", recorded.CustomerRef)
	require.Len(t, sales.created, 1)

	// Cart is cleared once the sale is recorded.
	snapshot, err := carts.Snapshot("t-1")
	require.NoError(t, err)
	require.Empty(t, snapshot.Lines)
	require.Empty(t, snapshot.CustomerRef)
	require.Equal(t, pricing.Money(0), snapshot.CashTendered)
}

func TestFinalizeEmptyCart(t *testing.T) {
	f, _, sales, _ := fixtureFinalizer(t)
	_, err := f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCash)
	require.ErrorIs(t, err, sale.ErrEmptyCart)
	require.Empty(t, sales.created)
}

func TestFinalizeRejectsPendingLine(t *testing.T) {
	f, carts, sales, _ := fixtureFinalizer(t)
	err := carts.Do("t-1", func(c *cart.Cart) error {
		if err := c.AddItem(cart.Line{ItemID: "item-1", UnitPrice: 8_500, Qty: 2}); err != nil {
			return err
		}
		if err := c.AddItem(cart.Line{ItemID: "item-2", UnitPrice: 4_000, Qty: 0}); err != nil {
			return err
		}
		return c.SetCashTendered(20_000)
	})
	require.NoError(t, err)

	_, err = f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCash)
	require.ErrorIs(t, err, sale.ErrPendingLine)
	require.Empty(t, sales.created)

	// The cart keeps both lines so the cashier can resolve the quantity.
	snapshot, err := carts.Snapshot("t-1")
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 2)
}

func TestFinalizeInsufficientCash(t *testing.T) {
	f, carts, sales, _ := fixtureFinalizer(t)
	err := carts.Do("t-1", func(c *cart.Cart) error {
		if err := c.AddItem(cart.Line{ItemID: "item-1", UnitPrice: 8_500, Qty: 2}); err != nil {
			return err
		}
		return c.SetCashTendered(15_000)
	})
	require.NoError(t, err)

	_, err = f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCash)
	require.ErrorIs(t, err, sale.ErrInsufficientPayment)
	require.Empty(t, sales.created)

	// The cart is untouched so the cashier can collect more cash and retry.
	snapshot, err := carts.Snapshot("t-1")
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 1)
}

func TestFinalizeCardIgnoresTender(t *testing.T) {
	f, carts, _, _ := fixtureFinalizer(t)
	err := carts.Do("t-1", func(c *cart.Cart) error {
		return c.AddItem(cart.Line{ItemID: "item-1", UnitPrice: 8_500, Qty: 2})
	})
	require.NoError(t, err)

	recorded, err := f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCard)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(0), recorded.CashTendered)
	require.Equal(t, pricing.Money(0), recorded.Change)
}

func TestFinalizeStockConflictKeepsCart(t *testing.T) {
	f, carts, sales, _ := fixtureFinalizer(t)
	fillCart(t, carts, "t-1")
	sales.err = &inventory.StockError{ItemID: "item-1", Requested: 2, Available: 1}

	_, err := f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCash)
	require.ErrorIs(t, err, inventory.ErrStockConflict)

	snapshot, err := carts.Snapshot("t-1")
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 1, "cart must survive a rejected finalize")
}

func TestSnapshotIsImmutable(t *testing.T) {
	f, carts, sales, _ := fixtureFinalizer(t)
	fillCart(t, carts, "t-1")

	recorded, err := f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCash)
	require.NoError(t, err)

	// Mutating the recorded copy must not affect what the store received.
	recorded.Lines[0].UnitPrice = 1
	require.Equal(t, pricing.Money(8_500), sales.created[0].Lines[0].UnitPrice)
}

func TestFinalizeChecksStockBeforePayment(t *testing.T) {
	f, carts, sales, sessions := fixtureFinalizer(t)
	// Under-tendered AND short on stock: the stock shortage wins.
	err := carts.Do("t-1", func(c *cart.Cart) error {
		if err := c.AddItem(cart.Line{ItemID: "item-1", UnitPrice: 8_500, Qty: 2}); err != nil {
			return err
		}
		return c.SetCashTendered(1_000)
	})
	require.NoError(t, err)
	f.Stock = &stubStock{qty: map[string]int{"item-1": 1}}

	_, err = f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCash)
	require.ErrorIs(t, err, inventory.ErrStockConflict)
	var stockErr *inventory.StockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 1, stockErr.Available)
	require.Empty(t, sales.created)
	require.Zero(t, sessions.calls)
}

func TestFinalizePaymentCheckedAfterStock(t *testing.T) {
	f, carts, _, _ := fixtureFinalizer(t)
	stock := &stubStock{}
	f.Stock = stock
	err := carts.Do("t-1", func(c *cart.Cart) error {
		if err := c.AddItem(cart.Line{ItemID: "item-1", UnitPrice: 8_500, Qty: 2}); err != nil {
			return err
		}
		return c.SetCashTendered(1_000)
	})
	require.NoError(t, err)

	_, err = f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCash)
	require.ErrorIs(t, err, sale.ErrInsufficientPayment)
	require.Equal(t, 1, stock.calls, "stock must be re-read before the payment check")
}

func TestFinalizeRejectionDoesNotOpenSession(t *testing.T) {
	f, carts, _, sessions := fixtureFinalizer(t)
	err := carts.Do("t-1", func(c *cart.Cart) error {
		return c.AddItem(cart.Line{ItemID: "item-1", UnitPrice: 8_500, Qty: 2})
	})
	require.NoError(t, err)

	_, err = f.Finalize(context.Background(), "t-1", "cashier-1", sale.PaymentCash)
	require.ErrorIs(t, err, sale.ErrInsufficientPayment)
	require.Zero(t, sessions.calls, "no session may open for a rejected finalize")
}
