package sale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/pricing"
)

// ErrEmptyCart indicates a finalize attempt with no lines.
var ErrEmptyCart = errors.New("sale: cart is empty")

// ErrPendingLine indicates a line whose quantity was never resolved. Pending
// lines must reach at least one before a sale can be finalized.
var ErrPendingLine = errors.New("sale: cart has a pending line")

// ErrInsufficientPayment indicates tendered cash below the total.
var ErrInsufficientPayment = errors.New("sale: tendered cash below total")

// ErrNotFound indicates the requested sale does not exist.
var ErrNotFound = errors.New("sale: not found")

// PaymentMethod identifies how a sale was paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Methods lists the fixed enumeration of payment methods.
func Methods() []PaymentMethod {
	return []PaymentMethod{PaymentCash, PaymentCard, PaymentTransfer}
}

// ParsePaymentMethod validates and normalises a payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentCash:
		return PaymentCash, nil
	case PaymentCard:
		return PaymentCard, nil
	case PaymentTransfer:
		return PaymentTransfer, nil
	default:
		return "", fmt.Errorf("sale: unknown payment method %q", s)
	}
}

// LineSnapshot is the frozen copy of one cart line at finalize time. Later
// catalog changes never alter a recorded sale.
type LineSnapshot struct {
	ItemID        string        `json:"itemId"`
	SKU           string        `json:"sku"`
	Name          string        `json:"name"`
	UnitPrice     pricing.Money `json:"unitPrice"`
	Qty           int           `json:"qty"`
	EffectiveBps  int32         `json:"effectiveBps"`
	GrossSubtotal pricing.Money `json:"grossSubtotal"`
	Discount      pricing.Money `json:"discount"`
	Subtotal      pricing.Money `json:"subtotal"`
}

// Sale is an immutable record of a finalized transaction.
type Sale struct {
	ID                     uuid.UUID      `json:"id"`
	SessionID              uuid.UUID      `json:"sessionId"`
	TerminalID             string         `json:"terminalId"`
	CashierID              string         `json:"cashierId"`
	CustomerRef            string         `json:"customerRef,omitempty"`
	Lines                  []LineSnapshot `json:"lines"`
	BaseAfterLineDiscounts pricing.Money  `json:"baseAfterLineDiscounts"`
	GlobalDiscount         pricing.Money  `json:"globalDiscount"`
	Total                  pricing.Money  `json:"total"`
	Method                 PaymentMethod  `json:"method"`
	CashTendered           pricing.Money  `json:"cashTendered"`
	Change                 pricing.Money  `json:"change"`
	CreatedAt              time.Time      `json:"createdAt"`
}

// Store persists sales. CreateWithDecrement must insert the sale and decrement
// stock for every line in one transaction; on a stock conflict nothing is
// written and the error wraps inventory.ErrStockConflict.
type Store interface {
	CreateWithDecrement(ctx context.Context, s Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (Sale, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Sale, error)
}
