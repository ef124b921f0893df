package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc      *Service
	Currency string
}

// Get returns the terminal's cart with recomputed totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	totals, err := h.Svc.Totals(r.Context(), terminalID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

// AddItem adds a catalog item to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	var payload struct {
		ItemID string `json:"itemId" validate:"required"`
		Qty    int    `json:"qty" validate:"gte=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := common.ValidateStruct(payload); err != nil {
		h.writeError(w, err)
		return
	}
	totals, err := h.Svc.AddItem(r.Context(), terminalID, payload.ItemID, payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

// SetQty replaces the quantity on one line.
func (h *Handler) SetQty(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	var payload struct {
		Qty int `json:"qty" validate:"gte=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := common.ValidateStruct(payload); err != nil {
		h.writeError(w, err)
		return
	}
	totals, err := h.Svc.SetQty(r.Context(), terminalID, itemID, payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

// RemoveItem deletes one line from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	totals, err := h.Svc.RemoveItem(r.Context(), terminalID, itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

// SetLineDiscount applies a cashier discount percentage to one line.
func (h *Handler) SetLineDiscount(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	var payload struct {
		Percent float64 `json:"percent" validate:"gte=0,lte=100"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := common.ValidateStruct(payload); err != nil {
		h.writeError(w, err)
		return
	}
	totals, err := h.Svc.SetLineDiscount(r.Context(), terminalID, itemID, payload.Percent)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

// SetGlobalDiscount applies the cart-wide discount in percent or target mode.
func (h *Handler) SetGlobalDiscount(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	var payload struct {
		Mode        string   `json:"mode" validate:"required,oneof=percent target"`
		Percent     *float64 `json:"percent" validate:"omitempty,gte=0,lte=100"`
		TargetTotal *int64   `json:"targetTotal" validate:"omitempty,gte=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := common.ValidateStruct(payload); err != nil {
		h.writeError(w, err)
		return
	}
	var (
		totals Totals
		err    error
	)
	switch payload.Mode {
	case "percent":
		if payload.Percent == nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "percent is required for percent mode", nil)
			return
		}
		totals, err = h.Svc.SetGlobalPercent(r.Context(), terminalID, *payload.Percent)
	case "target":
		if payload.TargetTotal == nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "targetTotal is required for target mode", nil)
			return
		}
		totals, err = h.Svc.SetGlobalTarget(r.Context(), terminalID, pricing.Money(*payload.TargetTotal))
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

// ClearGlobalDiscount removes the cart-wide discount.
func (h *Handler) ClearGlobalDiscount(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	totals, err := h.Svc.ClearGlobalDiscount(r.Context(), terminalID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

// SetCustomer attaches a customer reference to the cart.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	var payload struct {
		CustomerRef string `json:"customerRef" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := common.ValidateStruct(payload); err != nil {
		h.writeError(w, err)
		return
	}
	totals, err := h.Svc.SetCustomer(r.Context(), terminalID, strings.TrimSpace(payload.CustomerRef))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

// ClearCustomer detaches the cart's customer reference.
func (h *Handler) ClearCustomer(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	totals, err := h.Svc.SetCustomer(r.Context(), terminalID, "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

// SetTender records the cash received from the customer.
func (h *Handler) SetTender(w http.ResponseWriter, r *http.Request) {
	terminalID := strings.TrimSpace(chi.URLParam(r, "terminalID"))
	var payload struct {
		Amount int64 `json:"amount" validate:"gte=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := common.ValidateStruct(payload); err != nil {
		h.writeError(w, err)
		return
	}
	totals, err := h.Svc.SetCashTendered(r.Context(), terminalID, pricing.Money(payload.Amount))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.totalsPayload(terminalID, totals))
}

func (h *Handler) totalsPayload(terminalID string, t Totals) map[string]any {
	lines := make([]map[string]any, 0, len(t.Lines))
	for _, line := range t.Lines {
		lines = append(lines, map[string]any{
			"itemId":                 line.ItemID,
			"sku":                    line.SKU,
			"name":                   line.Name,
			"qty":                    line.Qty,
			"unitPrice":              line.UnitPrice,
			"catalogPercent":         pricing.BpsToPercent(line.CatalogBps),
			"linePercent":            pricing.BpsToPercent(line.LineBps),
			"effectivePercent":       pricing.BpsToPercent(line.EffectiveBps),
			"grossSubtotal":          line.GrossSubtotal,
			"discount":               line.Discount,
			"subtotal":               line.Subtotal,
			"unitPriceAfterDiscount": line.UnitPriceAfterDiscount,
		})
	}
	return map[string]any{
		"terminalId":             terminalID,
		"customerRef":            t.CustomerRef,
		"items":                  lines,
		"subtotal":               t.Subtotal,
		"lineDiscountTotal":      t.LineDiscountTotal,
		"baseAfterLineDiscounts": t.BaseAfterLineDiscounts,
		"globalDiscount":         t.GlobalDiscount,
		"globalPercent":          pricing.BpsToPercent(t.EffectiveGlobalBps),
		"total":                  t.Total,
		"cashTendered":           t.CashTendered,
		"change":                 t.Change,
		"insufficientPayment":    t.InsufficientPayment,
		"currency":               h.Currency,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	var stockErr *inventory.StockError
	switch {
	case errors.As(err, &appErr):
		common.WriteAppError(w, appErr)
	case errors.As(err, &stockErr):
		common.JSONError(w, http.StatusConflict, "STOCK_CONFLICT", "requested quantity exceeds available stock", map[string]any{
			"itemId":    stockErr.ItemID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "catalog item not found", nil)
	case errors.Is(err, ErrUnknownLine):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart line not found", nil)
	case errors.Is(err, ErrDuplicateLine):
		common.JSONError(w, http.StatusConflict, "DUPLICATE_LINE", "item is already in the cart", nil)
	case errors.Is(err, ErrItemUnavailable):
		common.JSONError(w, http.StatusUnprocessableEntity, "ITEM_UNAVAILABLE", "item is not available for sale", nil)
	case errors.Is(err, ErrDiscountTooLarge):
		common.JSONError(w, http.StatusUnprocessableEntity, "DISCOUNT_TOO_LARGE", "combined discount exceeds 100%", nil)
	case errors.Is(err, ErrInvalidQty), errors.Is(err, ErrInvalidTarget), errors.Is(err, pricing.ErrPercentOutOfRange):
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process cart request", nil)
	}
}
