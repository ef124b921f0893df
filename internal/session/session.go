package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/sale"
)

// ErrNoOpenSession indicates the cashier has no session to operate on.
var ErrNoOpenSession = errors.New("session: no open session")

// ErrAlreadyClosed indicates a concurrent close won the race.
var ErrAlreadyClosed = errors.New("session: already closed")

// ErrNegativeCount is returned for a negative counted amount.
var ErrNegativeCount = errors.New("session: counted amount must not be negative")

// Status is the lifecycle state of a cash session.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosing Status = "closing"
	StatusClosed  Status = "closed"
)

// Session is one cashier's working period at a terminal.
type Session struct {
	ID         uuid.UUID  `json:"id"`
	CashierID  string     `json:"cashierId"`
	TerminalID string     `json:"terminalId"`
	Status     Status     `json:"status"`
	OpenedAt   time.Time  `json:"openedAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
}

// Totals maps payment methods to amounts in minor units.
type Totals map[sale.PaymentMethod]pricing.Money

// Sum returns the aggregate amount across all methods.
func (t Totals) Sum() pricing.Money {
	var total pricing.Money
	for _, amount := range t {
		total += amount
	}
	return total
}

// CloseResult is the reconciliation outcome of closing a session.
type CloseResult struct {
	Session   Session `json:"session"`
	SaleCount int     `json:"saleCount"`
	System    Totals  `json:"system"`
	Counted   Totals  `json:"counted"`
	// Differences is counted minus system per method. Positive means surplus,
	// negative means shortage. A difference is recorded, never an error.
	Differences     Totals        `json:"differences"`
	DifferenceTotal pricing.Money `json:"differenceTotal"`
	Notes           string        `json:"notes,omitempty"`
}

// IncompleteCountError lists payment methods the cashier's count left out.
// Every method of the fixed enumeration needs a counted amount, zero included.
type IncompleteCountError struct {
	Missing []sale.PaymentMethod
}

func (e *IncompleteCountError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return fmt.Sprintf("session: count missing methods: %s", strings.Join(names, ", "))
}

// CloseRecord is the immutable reconciliation data persisted when a session
// closes.
type CloseRecord struct {
	Counted     Totals
	System      Totals
	Differences Totals
	SaleCount   int
	Notes       string
}

// Store persists cash sessions. EnsureOpen returns the cashier's open session,
// creating one when none exists. Close must be conditional on the session
// still being open and return ErrAlreadyClosed otherwise.
type Store interface {
	EnsureOpen(ctx context.Context, cashierID, terminalID string, openedAt time.Time) (Session, error)
	GetOpenByCashier(ctx context.Context, cashierID string) (Session, error)
	Close(ctx context.Context, id uuid.UUID, closedAt time.Time, rec CloseRecord) (Session, error)
}

// SalesSource reports the per-method sale totals and the number of sales
// recorded against a session.
type SalesSource interface {
	TotalsBySession(ctx context.Context, sessionID uuid.UUID) (Totals, int, error)
}

// Ender signs the cashier out after their session closes.
type Ender interface {
	EndSession(ctx context.Context, cashierID string) error
}
