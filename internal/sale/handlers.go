package sale

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/inventory"
)

// Handler wires sale finalization and lookups to HTTP.
type Handler struct {
	Finalizer *Finalizer
	Sales     Store
}

// Finalize turns the terminal's cart into a recorded sale.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "cashier identity required", nil)
		return
	}
	var payload struct {
		Method string `json:"method" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := common.ValidateStruct(payload); err != nil {
		h.writeError(w, err)
		return
	}
	method, err := ParsePaymentMethod(payload.Method)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	recorded, err := h.Finalizer.Finalize(r.Context(), terminalID, cashierID, method)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, recorded)
}

// Get returns one recorded sale.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "saleID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid sale id", nil)
		return
	}
	s, err := h.Sales.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, s)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	var stockErr *inventory.StockError
	switch {
	case errors.As(err, &appErr):
		common.WriteAppError(w, appErr)
	case errors.As(err, &stockErr):
		common.JSONError(w, http.StatusConflict, "STOCK_CONFLICT", "insufficient stock", map[string]any{
			"itemId":    stockErr.ItemID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, inventory.ErrStockConflict):
		common.JSONError(w, http.StatusConflict, "STOCK_CONFLICT", "insufficient stock", nil)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no sellable lines", nil)
	case errors.Is(err, ErrPendingLine):
		common.JSONError(w, http.StatusUnprocessableEntity, "PENDING_LINE", err.Error(), nil)
	case errors.Is(err, ErrInsufficientPayment):
		common.JSONError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_PAYMENT", "tendered cash is below the total", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "sale not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process sale request", nil)
	}
}
