package pricing

// LineInput carries everything needed to price a single cart line.
type LineInput struct {
	UnitPrice  Money
	CatalogBps int32
	LineBps    int32
	Qty        int
}

// LinePrice aggregates the computed components of one line.
type LinePrice struct {
	// EffectiveBps is the additive sum of the catalog and line discounts.
	// It is not capped at 10000; callers enforce any cap at entry time.
	EffectiveBps int32
	// GrossSubtotal is unit price times quantity before any discount.
	GrossSubtotal Money
	// Discount is the monetary amount removed from the gross subtotal.
	Discount Money
	// Subtotal is the discounted line total. It is derived from the gross
	// subtotal so that rounding happens once per line, not once per unit.
	Subtotal Money
	// UnitPriceAfterDiscount is informational, for receipts and displays.
	UnitPriceAfterDiscount Money
}

// ComputeLine prices a single line. Catalog and line discounts stack
// additively, never multiplicatively. Lines with a non-positive quantity
// contribute nothing; a pending quantity during interactive edits is treated
// as zero until the operator resolves it.
func ComputeLine(in LineInput) LinePrice {
	out := LinePrice{EffectiveBps: in.CatalogBps + in.LineBps}
	if in.Qty <= 0 || in.UnitPrice <= 0 {
		return out
	}
	out.GrossSubtotal = Money(in.Qty) * in.UnitPrice
	out.Discount = ApplyBps(out.GrossSubtotal, out.EffectiveBps)
	if out.Discount > out.GrossSubtotal {
		out.Discount = out.GrossSubtotal
	}
	if out.Discount < 0 {
		out.Discount = 0
	}
	out.Subtotal = out.GrossSubtotal - out.Discount
	out.UnitPriceAfterDiscount = in.UnitPrice - ApplyBps(in.UnitPrice, out.EffectiveBps)
	if out.UnitPriceAfterDiscount < 0 {
		out.UnitPriceAfterDiscount = 0
	}
	return out
}
