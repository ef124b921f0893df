package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/cart"
	"github.com/noah-isme/backend-pos/internal/events"
	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// SessionOpener resolves the open cash session for a cashier, creating one if
// none exists.
type SessionOpener interface {
	EnsureOpen(ctx context.Context, cashierID, terminalID string) (uuid.UUID, error)
}

// Finalizer turns a cart into an immutable sale. The terminal's cart lock is
// held for the whole operation so no mutation can interleave with a finalize.
type Finalizer struct {
	Carts    *cart.Store
	Sales    Store
	Stock    inventory.Inventory
	Sessions SessionOpener
	Bus      *events.Bus
	Logger   zerolog.Logger
	Now      func() time.Time
}

func (f *Finalizer) now() time.Time {
	if f != nil && f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Finalize validates the cart, records the sale with its stock decrements, and
// clears the cart. The cart survives untouched on any rejection so the cashier
// can correct and retry.
func (f *Finalizer) Finalize(ctx context.Context, terminalID, cashierID string, method PaymentMethod) (Sale, error) {
	if f == nil || f.Carts == nil || f.Sales == nil || f.Sessions == nil {
		return Sale{}, errors.New("sale: finalizer not configured")
	}
	start := f.now()
	var recorded Sale
	err := f.Carts.Do(terminalID, func(c *cart.Cart) error {
		totals := c.Totals()

		// Preconditions are checked in a fixed order: sellable lines first,
		// then the stock re-check, then payment sufficiency.
		lines, err := snapshotLines(totals)
		if err != nil {
			f.countRejection(err)
			return err
		}
		if err := f.checkStock(ctx, lines); err != nil {
			f.countRejection(err)
			return err
		}
		s, err := f.buildSale(terminalID, cashierID, method, totals, lines)
		if err != nil {
			f.countRejection(err)
			return err
		}
		// The session row is needed before the insert can reference it, so a
		// finalize that loses the decrement race leaves an open session with
		// no sales behind. EnsureOpen reuses it on the retry.
		sessionID, err := f.Sessions.EnsureOpen(ctx, cashierID, terminalID)
		if err != nil {
			return fmt.Errorf("ensure session: %w", err)
		}
		s.SessionID = sessionID

		if err := f.Sales.CreateWithDecrement(ctx, s); err != nil {
			f.countRejection(err)
			return err
		}
		recorded = s
		// Committing the callback clears the cart for the next customer.
		*c = cart.Cart{TerminalID: terminalID}
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	f.emit(ctx, recorded)
	if obs.SalesFinalizedTotal != nil {
		obs.SalesFinalizedTotal.WithLabelValues(string(recorded.Method)).Inc()
	}
	if obs.SaleFinalizeLatency != nil {
		obs.SaleFinalizeLatency.Observe(obs.DurationMillis(f.now().Sub(start)))
	}
	return recorded, nil
}

// snapshotLines freezes the cart lines into sale snapshots. Every line must
// have a resolved quantity; pending lines reject the finalize.
func snapshotLines(totals cart.Totals) ([]LineSnapshot, error) {
	if len(totals.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	lines := make([]LineSnapshot, 0, len(totals.Lines))
	for _, lt := range totals.Lines {
		if lt.Qty <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrPendingLine, lt.ItemID)
		}
		lines = append(lines, LineSnapshot{
			ItemID:        lt.ItemID,
			SKU:           lt.SKU,
			Name:          lt.Name,
			UnitPrice:     lt.UnitPrice,
			Qty:           lt.Qty,
			EffectiveBps:  lt.EffectiveBps,
			GrossSubtotal: lt.GrossSubtotal,
			Discount:      lt.Discount,
			Subtotal:      lt.Subtotal,
		})
	}
	return lines, nil
}

// checkStock re-reads availability for every line right before committing.
// Stock can still move between this read and the decrement, so the decrement
// inside the sale transaction stays conditional.
func (f *Finalizer) checkStock(ctx context.Context, lines []LineSnapshot) error {
	if f.Stock == nil {
		return nil
	}
	for _, line := range lines {
		available, err := f.Stock.Available(ctx, line.ItemID)
		if err != nil {
			return fmt.Errorf("check stock: %w", err)
		}
		if line.Qty > available {
			return &inventory.StockError{ItemID: line.ItemID, Requested: line.Qty, Available: available}
		}
	}
	return nil
}

// buildSale assembles the sale value and applies the payment precondition.
func (f *Finalizer) buildSale(terminalID, cashierID string, method PaymentMethod, totals cart.Totals, lines []LineSnapshot) (Sale, error) {
	s := Sale{
		ID:                     uuid.New(),
		TerminalID:             terminalID,
		CashierID:              cashierID,
		CustomerRef:            totals.CustomerRef,
		Lines:                  lines,
		BaseAfterLineDiscounts: totals.BaseAfterLineDiscounts,
		GlobalDiscount:         totals.GlobalDiscount,
		Total:                  totals.Total,
		Method:                 method,
		CreatedAt:              f.now(),
	}
	if method == PaymentCash {
		if totals.CashTendered < totals.Total {
			return Sale{}, ErrInsufficientPayment
		}
		s.CashTendered = totals.CashTendered
		s.Change = totals.CashTendered - totals.Total
	}
	return s, nil
}

func (f *Finalizer) emit(ctx context.Context, s Sale) {
	if f.Bus == nil {
		return
	}
	payload := map[string]any{
		"saleId":     s.ID.String(),
		"sessionId":  s.SessionID.String(),
		"terminalId": s.TerminalID,
		"cashierId":  s.CashierID,
		"method":     string(s.Method),
		"total":      s.Total,
	}
	if _, err := f.Bus.Emit(ctx, events.TopicSaleFinalized, s.ID, payload); err != nil {
		f.Logger.Warn().Err(err).Str("sale_id", s.ID.String()).Msg("emit sale.finalized")
	}
}

func (f *Finalizer) countRejection(err error) {
	if obs.SalesRejectedTotal == nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, ErrEmptyCart):
		reason = "empty_cart"
	case errors.Is(err, ErrPendingLine):
		reason = "pending_line"
	case errors.Is(err, ErrInsufficientPayment):
		reason = "insufficient_payment"
	case errors.Is(err, inventory.ErrStockConflict):
		reason = "stock_conflict"
	}
	obs.SalesRejectedTotal.WithLabelValues(reason).Inc()
}
