package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler wires catalog reads to HTTP.
type Handler struct {
	Svc *Service
}

// List returns a page of catalog items.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	items, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load catalog", nil)
		return
	}
	if items == nil {
		items = []Item{}
	}
	common.Data(w, http.StatusOK, items)
}

// Get returns one catalog item.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Svc.Get(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "catalog item not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load catalog item", nil)
		return
	}
	common.Data(w, http.StatusOK, item)
}
