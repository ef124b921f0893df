package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/events"
	"github.com/noah-isme/backend-pos/internal/lock"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/sale"
)

// Service manages the cash session lifecycle and end-of-shift reconciliation.
type Service struct {
	Store   Store
	Sales   SalesSource
	Locker  lock.Locker
	LockTTL time.Duration
	Ender   Ender
	Bus     *events.Bus
	Logger  zerolog.Logger
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureOpen returns the cashier's open session id, opening one if needed.
// Sale finalization calls this so every sale lands in a session.
func (s *Service) EnsureOpen(ctx context.Context, cashierID, terminalID string) (uuid.UUID, error) {
	if s == nil || s.Store == nil {
		return uuid.Nil, errors.New("session service not configured")
	}
	sess, err := s.Store.EnsureOpen(ctx, cashierID, terminalID, s.now())
	if err != nil {
		return uuid.Nil, err
	}
	return sess.ID, nil
}

// Current returns the cashier's open session together with the per-method
// system totals and sale count accumulated so far.
func (s *Service) Current(ctx context.Context, cashierID string) (Session, Totals, int, error) {
	if s == nil || s.Store == nil || s.Sales == nil {
		return Session{}, nil, 0, errors.New("session service not configured")
	}
	sess, err := s.Store.GetOpenByCashier(ctx, cashierID)
	if err != nil {
		return Session{}, nil, 0, err
	}
	system, count, err := s.Sales.TotalsBySession(ctx, sess.ID)
	if err != nil {
		return Session{}, nil, 0, err
	}
	return sess, system, count, nil
}

// Close reconciles the cashier's count against the system totals and closes
// the session. The whole operation runs under a distributed lock so two close
// attempts cannot both succeed; the loser gets ErrAlreadyClosed.
func (s *Service) Close(ctx context.Context, cashierID string, counted Totals, notes string) (CloseResult, error) {
	if s == nil || s.Store == nil || s.Sales == nil {
		return CloseResult{}, errors.New("session service not configured")
	}
	for method, amount := range counted {
		if amount < 0 {
			return CloseResult{}, fmt.Errorf("%w: %s", ErrNegativeCount, method)
		}
	}
	if missing := missingMethods(counted); len(missing) > 0 {
		return CloseResult{}, &IncompleteCountError{Missing: missing}
	}

	sess, err := s.Store.GetOpenByCashier(ctx, cashierID)
	if err != nil {
		return CloseResult{}, err
	}

	var result CloseResult
	lockKey := "session:close:" + sess.ID.String()
	err = s.Locker.WithLock(ctx, lockKey, s.LockTTL, func(ctx context.Context) error {
		system, count, err := s.Sales.TotalsBySession(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("load system totals: %w", err)
		}
		diffs := differences(system, counted)

		rec := CloseRecord{
			Counted:     counted,
			System:      system,
			Differences: diffs,
			SaleCount:   count,
			Notes:       notes,
		}
		closed, err := s.Store.Close(ctx, sess.ID, s.now(), rec)
		if err != nil {
			return err
		}
		result = CloseResult{
			Session:         closed,
			SaleCount:       count,
			System:          system,
			Counted:         counted,
			Differences:     diffs,
			DifferenceTotal: diffs.Sum(),
			Notes:           notes,
		}
		return nil
	})
	if err != nil {
		if obs.SessionsClosedTotal != nil && errors.Is(err, ErrAlreadyClosed) {
			obs.SessionsClosedTotal.WithLabelValues("already_closed").Inc()
		}
		return CloseResult{}, err
	}

	s.emit(ctx, result)
	s.observe(result)

	// The cashier is signed out after close. A sign-out failure is logged
	// rather than rolled back: the session is already closed.
	if s.Ender != nil {
		if err := s.Ender.EndSession(ctx, cashierID); err != nil {
			s.Logger.Warn().Err(err).Str("cashier_id", cashierID).Msg("end cashier session")
		}
	}
	return result, nil
}

// missingMethods returns enumerated methods the count leaves out. A method
// without sales still needs an explicit zero.
func missingMethods(counted Totals) []sale.PaymentMethod {
	var missing []sale.PaymentMethod
	for _, method := range sale.Methods() {
		if _, ok := counted[method]; !ok {
			missing = append(missing, method)
		}
	}
	return missing
}

// differences computes counted minus system over the union of methods.
func differences(system, counted Totals) Totals {
	diffs := make(Totals)
	for method, amount := range system {
		diffs[method] = counted[method] - amount
	}
	for method, amount := range counted {
		if _, ok := system[method]; !ok {
			diffs[method] = amount
		}
	}
	return diffs
}

func (s *Service) emit(ctx context.Context, result CloseResult) {
	if s.Bus == nil {
		return
	}
	payload := map[string]any{
		"sessionId":       result.Session.ID.String(),
		"cashierId":       result.Session.CashierID,
		"terminalId":      result.Session.TerminalID,
		"saleCount":       result.SaleCount,
		"system":          result.System,
		"counted":         result.Counted,
		"differences":     result.Differences,
		"differenceTotal": result.DifferenceTotal,
	}
	if _, err := s.Bus.Emit(ctx, events.TopicSessionClosed, result.Session.ID, payload); err != nil {
		s.Logger.Warn().Err(err).Str("session_id", result.Session.ID.String()).Msg("emit session.closed")
	}
}

func (s *Service) observe(result CloseResult) {
	if obs.SessionsClosedTotal != nil {
		obs.SessionsClosedTotal.WithLabelValues("closed").Inc()
	}
	if obs.SessionCashDifference == nil {
		return
	}
	for method, diff := range result.Differences {
		obs.SessionCashDifference.WithLabelValues(string(method)).Observe(math.Abs(float64(diff)))
	}
}
