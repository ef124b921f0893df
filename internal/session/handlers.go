package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/sale"
)

// SaleLister reads the sales recorded against a session.
type SaleLister interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]sale.Sale, error)
}

// Handler wires session operations to HTTP.
type Handler struct {
	Svc        *Service
	SaleLister SaleLister
}

// Current returns the cashier's open session with running system totals.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "cashier identity required", nil)
		return
	}
	sess, system, count, err := h.Svc.Current(r.Context(), cashierID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{
		"session":   sess,
		"saleCount": count,
		"system":    system,
	})
}

// Sales lists the sales recorded against the cashier's open session.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "cashier identity required", nil)
		return
	}
	if h.SaleLister == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "sale listing not configured", nil)
		return
	}
	sess, err := h.Svc.Store.GetOpenByCashier(r.Context(), cashierID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sales, err := h.SaleLister.ListBySession(r.Context(), sess.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if sales == nil {
		sales = []sale.Sale{}
	}
	common.Data(w, http.StatusOK, map[string]any{
		"sessionId": sess.ID,
		"sales":     sales,
	})
}

// Close reconciles the counted amounts and closes the session.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "cashier identity required", nil)
		return
	}
	var payload struct {
		Counted map[string]int64 `json:"counted" validate:"required"`
		Notes   string           `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := common.ValidateStruct(payload); err != nil {
		h.writeError(w, err)
		return
	}
	counted := make(Totals, len(payload.Counted))
	for name, amount := range payload.Counted {
		method, err := sale.ParsePaymentMethod(name)
		if err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		counted[method] = pricing.Money(amount)
	}
	result, err := h.Svc.Close(r.Context(), cashierID, counted, strings.TrimSpace(payload.Notes))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	var incomplete *IncompleteCountError
	switch {
	case errors.As(err, &appErr):
		common.WriteAppError(w, appErr)
	case errors.As(err, &incomplete):
		methods := make([]string, 0, len(incomplete.Missing))
		for _, m := range incomplete.Missing {
			methods = append(methods, string(m))
		}
		common.JSONError(w, http.StatusUnprocessableEntity, "INCOMPLETE_COUNT", "count must cover every payment method", map[string]any{
			"missing": methods,
		})
	case errors.Is(err, ErrNoOpenSession):
		common.JSONError(w, http.StatusNotFound, "NO_OPEN_SESSION", "no open session for cashier", nil)
	case errors.Is(err, ErrAlreadyClosed):
		common.JSONError(w, http.StatusConflict, "ALREADY_CLOSED", "session is already closed", nil)
	case errors.Is(err, ErrNegativeCount):
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process session request", nil)
	}
}
