package cart_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/cart"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

func espresso(qty int) cart.Line {
	return cart.Line{
		ItemID:     "item-espresso",
		SKU:        "ESP-01",
		Name:       "Espresso",
		UnitPrice:  10_000,
		CatalogBps: 1000,
		Qty:        qty,
	}
}

func TestAddItemRejectsDuplicateLine(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(espresso(1)))
	require.ErrorIs(t, c.AddItem(espresso(2)), cart.ErrDuplicateLine)
	require.Len(t, c.Lines, 1)
	require.Equal(t, 1, c.Lines[0].Qty)

	// Quantity changes go through SetQty.
	require.NoError(t, c.SetQty("item-espresso", 3))
	require.Equal(t, 3, c.Lines[0].Qty)
}

func TestCustomerRefTravelsThroughTotals(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(espresso(1)))
	c.SetCustomer("cust-77")
	require.Equal(t, "cust-77", c.Totals().CustomerRef)

	c.SetCustomer("")
	require.Empty(t, c.Totals().CustomerRef)
}

func TestTotalsAggregateGrossAndLineDiscounts(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(espresso(2)))
	require.NoError(t, c.AddItem(cart.Line{ItemID: "b", UnitPrice: 5_000, Qty: 1}))

	totals := c.Totals()
	require.Equal(t, pricing.Money(25_000), totals.Subtotal)
	require.Equal(t, pricing.Money(2_000), totals.LineDiscountTotal)
	require.Equal(t, totals.Subtotal-totals.LineDiscountTotal, totals.BaseAfterLineDiscounts)
}

func TestPendingLineContributesNothing(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(espresso(0)))
	totals := c.Totals()
	require.Equal(t, pricing.Money(0), totals.Total)
	require.True(t, c.Empty())

	require.NoError(t, c.SetQty("item-espresso", 2))
	require.False(t, c.Empty())
	require.Equal(t, pricing.Money(18_000), c.Totals().Total)
}

func TestSetLineDiscountRejectsCombinedOver100(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(cart.Line{ItemID: "i", UnitPrice: 5_000, CatalogBps: 9_500, Qty: 1}))
	err := c.SetLineDiscount("i", 600)
	require.ErrorIs(t, err, cart.ErrDiscountTooLarge)
	require.NoError(t, c.SetLineDiscount("i", 500))
}

func TestGlobalDiscountModeSwitchDoesNotCompound(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(cart.Line{ItemID: "a", UnitPrice: 8_500, Qty: 2}))
	base := c.Totals().BaseAfterLineDiscounts
	require.Equal(t, pricing.Money(17_000), base)

	// 10% off the base.
	require.NoError(t, c.SetGlobalPercent(1000))
	totals := c.Totals()
	require.Equal(t, pricing.Money(1_700), totals.GlobalDiscount)
	require.Equal(t, pricing.Money(15_300), totals.Total)

	// Switching to a target total recomputes from the same base.
	require.NoError(t, c.SetGlobalTarget(14_000))
	totals = c.Totals()
	require.Equal(t, pricing.Money(3_000), totals.GlobalDiscount)
	require.Equal(t, pricing.Money(14_000), totals.Total)
	require.Equal(t, int32(1765), totals.EffectiveGlobalBps)

	// And back to percent, again from the unchanged base.
	require.NoError(t, c.SetGlobalPercent(1000))
	totals = c.Totals()
	require.Equal(t, pricing.Money(15_300), totals.Total)
}

func TestGlobalTargetAboveBaseMeansNoDiscount(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(cart.Line{ItemID: "a", UnitPrice: 1_000, Qty: 1}))
	require.NoError(t, c.SetGlobalTarget(5_000))
	totals := c.Totals()
	require.Equal(t, pricing.Money(0), totals.GlobalDiscount)
	require.Equal(t, pricing.Money(1_000), totals.Total)
}

func TestGlobalTargetResolvesAgainstCurrentBase(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(cart.Line{ItemID: "a", UnitPrice: 10_000, Qty: 2}))
	require.NoError(t, c.SetGlobalTarget(15_000))
	require.Equal(t, pricing.Money(15_000), c.Totals().Total)

	// Adding items after the target was set re-resolves the discount.
	require.NoError(t, c.AddItem(cart.Line{ItemID: "b", UnitPrice: 5_000, Qty: 1}))
	totals := c.Totals()
	require.Equal(t, pricing.Money(25_000), totals.BaseAfterLineDiscounts)
	require.Equal(t, pricing.Money(10_000), totals.GlobalDiscount)
	require.Equal(t, pricing.Money(15_000), totals.Total)
}

func TestCashTenderedChange(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(cart.Line{ItemID: "a", UnitPrice: 8_500, Qty: 2}))
	require.NoError(t, c.SetGlobalPercent(1000))
	require.NoError(t, c.SetCashTendered(20_000))

	totals := c.Totals()
	require.Equal(t, pricing.Money(15_300), totals.Total)
	require.Equal(t, pricing.Money(4_700), totals.Change)
	require.False(t, totals.InsufficientPayment)

	require.NoError(t, c.SetCashTendered(15_000))
	totals = c.Totals()
	require.True(t, totals.InsufficientPayment)
	require.Equal(t, pricing.Money(0), totals.Change)
}

func TestRemoveItemKeepsOrder(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(cart.Line{ItemID: "a", Qty: 1, UnitPrice: 100}))
	require.NoError(t, c.AddItem(cart.Line{ItemID: "b", Qty: 1, UnitPrice: 100}))
	require.NoError(t, c.AddItem(cart.Line{ItemID: "c", Qty: 1, UnitPrice: 100}))
	require.NoError(t, c.RemoveItem("b"))
	require.Len(t, c.Lines, 2)
	require.Equal(t, "a", c.Lines[0].ItemID)
	require.Equal(t, "c", c.Lines[1].ItemID)

	require.ErrorIs(t, c.RemoveItem("b"), cart.ErrUnknownLine)
}

func TestNegativeQtyRejected(t *testing.T) {
	var c cart.Cart
	require.NoError(t, c.AddItem(cart.Line{ItemID: "a", Qty: 1, UnitPrice: 100}))
	require.ErrorIs(t, c.SetQty("a", -1), cart.ErrInvalidQty)
	require.ErrorIs(t, c.AddItem(cart.Line{ItemID: "b", Qty: -2}), cart.ErrInvalidQty)
}
