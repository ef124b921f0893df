package cart

import (
	"errors"

	"github.com/noah-isme/backend-pos/internal/pricing"
)

// ErrUnknownLine indicates the referenced item is not in the cart.
var ErrUnknownLine = errors.New("cart: line not found")

// ErrDuplicateLine is returned when adding an item that already has a line.
// Lines are unique per item; quantity changes go through SetQty.
var ErrDuplicateLine = errors.New("cart: item already in cart")

// ErrInvalidQty is returned for negative quantities. Zero is allowed and marks
// the line as pending.
var ErrInvalidQty = errors.New("cart: quantity must not be negative")

// ErrDiscountTooLarge is returned when catalog and line discounts combined
// would exceed one hundred percent.
var ErrDiscountTooLarge = errors.New("cart: combined discount exceeds 100%")

// ErrInvalidTarget is returned for a negative target total.
var ErrInvalidTarget = errors.New("cart: target total must not be negative")

// Line is one cart entry. Lines are unique per item and keep insertion order.
type Line struct {
	ItemID     string
	SKU        string
	Name       string
	UnitPrice  pricing.Money
	CatalogBps int32
	LineBps    int32
	Qty        int
}

// GlobalDiscountKind selects how the cart-wide discount is expressed.
type GlobalDiscountKind string

const (
	GlobalNone    GlobalDiscountKind = ""
	GlobalPercent GlobalDiscountKind = "percent"
	GlobalTarget  GlobalDiscountKind = "target"
)

// GlobalDiscount is the cart-wide discount in one of two modes: a percentage
// in basis points, or a target grand total the cashier wants to land on. Only
// the active mode's field is meaningful.
type GlobalDiscount struct {
	Kind   GlobalDiscountKind
	Bps    int32
	Target pricing.Money
}

// Cart holds the in-progress transaction for one terminal. It is a plain
// value; concurrency control lives in the Store.
type Cart struct {
	TerminalID   string
	Lines        []Line
	CustomerRef  string
	Global       GlobalDiscount
	CashTendered pricing.Money
}

// LineTotals pairs a line with its computed pricing.
type LineTotals struct {
	Line
	pricing.LinePrice
}

// Totals is the fully recomputed pricing for a cart. Amounts are minor units.
type Totals struct {
	Lines       []LineTotals
	CustomerRef string
	// Subtotal is the gross sum over undiscounted catalog prices.
	Subtotal pricing.Money
	// LineDiscountTotal is the catalog plus cashier discount summed over lines.
	LineDiscountTotal pricing.Money
	// BaseAfterLineDiscounts is the sum of line subtotals before the global discount.
	BaseAfterLineDiscounts pricing.Money
	GlobalDiscount         pricing.Money
	// EffectiveGlobalBps expresses the global discount as basis points of the
	// base, regardless of which mode produced it.
	EffectiveGlobalBps int32
	Total              pricing.Money
	CashTendered       pricing.Money
	Change             pricing.Money
	// InsufficientPayment reports tendered cash below the total. It is only
	// meaningful when CashTendered is positive.
	InsufficientPayment bool
}

// AddItem appends a new line. Lines are unique per item; a second add of the
// same item is rejected rather than merged. A zero qty is allowed and records
// a pending line that contributes nothing to totals.
func (c *Cart) AddItem(line Line) error {
	if line.Qty < 0 {
		return ErrInvalidQty
	}
	if c.find(line.ItemID) != nil {
		return ErrDuplicateLine
	}
	c.Lines = append(c.Lines, line)
	return nil
}

// SetQty replaces the quantity of an existing line. Zero marks it pending.
func (c *Cart) SetQty(itemID string, qty int) error {
	if qty < 0 {
		return ErrInvalidQty
	}
	line := c.find(itemID)
	if line == nil {
		return ErrUnknownLine
	}
	line.Qty = qty
	return nil
}

// RemoveItem deletes a line, preserving the order of the rest.
func (c *Cart) RemoveItem(itemID string) error {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return ErrUnknownLine
}

// SetLineDiscount sets the cashier-entered discount for a line. The combined
// catalog plus line rate must not exceed one hundred percent.
func (c *Cart) SetLineDiscount(itemID string, bps int32) error {
	if bps < 0 || bps > pricing.BpsDenominator {
		return pricing.ErrPercentOutOfRange
	}
	line := c.find(itemID)
	if line == nil {
		return ErrUnknownLine
	}
	if line.CatalogBps+bps > pricing.BpsDenominator {
		return ErrDiscountTooLarge
	}
	line.LineBps = bps
	return nil
}

// SetGlobalPercent switches the cart-wide discount to percent mode. Switching
// modes never compounds: totals are always recomputed from the current base.
func (c *Cart) SetGlobalPercent(bps int32) error {
	if bps < 0 || bps > pricing.BpsDenominator {
		return pricing.ErrPercentOutOfRange
	}
	c.Global = GlobalDiscount{Kind: GlobalPercent, Bps: bps}
	return nil
}

// SetGlobalTarget switches the cart-wide discount to target-total mode. The
// discount needed to reach the target is resolved lazily against the base at
// computation time.
func (c *Cart) SetGlobalTarget(target pricing.Money) error {
	if target < 0 {
		return ErrInvalidTarget
	}
	c.Global = GlobalDiscount{Kind: GlobalTarget, Target: target}
	return nil
}

// ClearGlobalDiscount removes the cart-wide discount.
func (c *Cart) ClearGlobalDiscount() {
	c.Global = GlobalDiscount{}
}

// SetCustomer attaches an optional customer reference to the cart. An empty
// ref detaches it.
func (c *Cart) SetCustomer(ref string) {
	c.CustomerRef = ref
}

// SetCashTendered records the cash handed over by the customer.
func (c *Cart) SetCashTendered(amount pricing.Money) error {
	if amount < 0 {
		return errors.New("cart: tendered amount must not be negative")
	}
	c.CashTendered = amount
	return nil
}

// Empty reports whether no line would contribute to a sale.
func (c *Cart) Empty() bool {
	for i := range c.Lines {
		if c.Lines[i].Qty > 0 {
			return false
		}
	}
	return true
}

// Totals recomputes all pricing from scratch. The computation is pure: it
// never mutates the cart, so repeated calls and mode switches cannot compound
// discounts.
func (c *Cart) Totals() Totals {
	t := Totals{
		Lines:        make([]LineTotals, 0, len(c.Lines)),
		CustomerRef:  c.CustomerRef,
		CashTendered: c.CashTendered,
	}
	for _, line := range c.Lines {
		lp := pricing.ComputeLine(pricing.LineInput{
			UnitPrice:  line.UnitPrice,
			CatalogBps: line.CatalogBps,
			LineBps:    line.LineBps,
			Qty:        line.Qty,
		})
		t.Lines = append(t.Lines, LineTotals{Line: line, LinePrice: lp})
		t.Subtotal += lp.GrossSubtotal
		t.LineDiscountTotal += lp.Discount
		t.BaseAfterLineDiscounts += lp.Subtotal
	}

	base := t.BaseAfterLineDiscounts
	switch c.Global.Kind {
	case GlobalPercent:
		t.GlobalDiscount = pricing.ApplyBps(base, c.Global.Bps)
	case GlobalTarget:
		discount := base - c.Global.Target
		if discount < 0 {
			discount = 0
		}
		if discount > base {
			discount = base
		}
		t.GlobalDiscount = discount
	}
	t.EffectiveGlobalBps = pricing.BpsOfBase(t.GlobalDiscount, base)
	t.Total = base - t.GlobalDiscount

	if c.CashTendered > 0 {
		if c.CashTendered >= t.Total {
			t.Change = c.CashTendered - t.Total
		} else {
			t.InsufficientPayment = true
		}
	}
	return t
}

func (c *Cart) find(itemID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			return &c.Lines[i]
		}
	}
	return nil
}
