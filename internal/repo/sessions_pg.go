package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/session"
)

// SessionsRepo persists cash sessions. A partial unique index on the open
// cashier guarantees at most one open session per cashier even under
// concurrent EnsureOpen calls.
type SessionsRepo struct {
	Pool *pgxpool.Pool
}

// EnsureOpen returns the cashier's open session, creating one if none exists.
func (r SessionsRepo) EnsureOpen(ctx context.Context, cashierID, terminalID string, openedAt time.Time) (session.Session, error) {
	if sess, err := r.GetOpenByCashier(ctx, cashierID); err == nil {
		return sess, nil
	} else if !errors.Is(err, session.ErrNoOpenSession) {
		return session.Session{}, err
	}

	const insert = `
INSERT INTO cash_sessions (id, cashier_id, terminal_id, status, opened_at)
VALUES ($1, $2, $3, 'open', $4)
ON CONFLICT (cashier_id) WHERE status = 'open' DO NOTHING
RETURNING id, cashier_id, terminal_id, status, opened_at, closed_at`
	sess, err := r.scanSession(r.Pool.QueryRow(ctx, insert, uuid.New(), cashierID, terminalID, openedAt))
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return session.Session{}, err
	}
	// Lost the race: another request opened the session first.
	return r.GetOpenByCashier(ctx, cashierID)
}

// GetOpenByCashier loads the cashier's open session.
func (r SessionsRepo) GetOpenByCashier(ctx context.Context, cashierID string) (session.Session, error) {
	const q = `
SELECT id, cashier_id, terminal_id, status, opened_at, closed_at
FROM cash_sessions
WHERE cashier_id = $1 AND status = 'open'`
	sess, err := r.scanSession(r.Pool.QueryRow(ctx, q, cashierID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrNoOpenSession
		}
		return session.Session{}, err
	}
	return sess, nil
}

// Close transitions the session to closed and stores the reconciliation
// snapshot. The update is conditional on the session still being open.
func (r SessionsRepo) Close(ctx context.Context, id uuid.UUID, closedAt time.Time, rec session.CloseRecord) (session.Session, error) {
	countedJSON, err := json.Marshal(rec.Counted)
	if err != nil {
		return session.Session{}, fmt.Errorf("encode counted: %w", err)
	}
	systemJSON, err := json.Marshal(rec.System)
	if err != nil {
		return session.Session{}, fmt.Errorf("encode system: %w", err)
	}
	diffJSON, err := json.Marshal(rec.Differences)
	if err != nil {
		return session.Session{}, fmt.Errorf("encode differences: %w", err)
	}

	const q = `
UPDATE cash_sessions
SET status = 'closed', closed_at = $2, counted = $3, system = $4, differences = $5, sale_count = $6, notes = $7
WHERE id = $1 AND status = 'open'
RETURNING id, cashier_id, terminal_id, status, opened_at, closed_at`
	sess, err := r.scanSession(r.Pool.QueryRow(ctx, q, id, closedAt, countedJSON, systemJSON, diffJSON, rec.SaleCount, rec.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrAlreadyClosed
		}
		return session.Session{}, err
	}
	return sess, nil
}

func (r SessionsRepo) scanSession(row pgx.Row) (session.Session, error) {
	var sess session.Session
	var status string
	var closedAt *time.Time
	if err := row.Scan(&sess.ID, &sess.CashierID, &sess.TerminalID, &status, &sess.OpenedAt, &closedAt); err != nil {
		return session.Session{}, err
	}
	sess.Status = session.Status(status)
	sess.ClosedAt = closedAt
	return sess, nil
}
