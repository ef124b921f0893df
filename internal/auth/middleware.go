package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-pos/internal/common"
)

// CashierHeader carries the authenticated cashier identity set by the
// storefront gateway.
const CashierHeader = "X-Cashier-ID"

// RequireCashier rejects requests without a cashier identity and stores it on
// the request context for downstream handlers.
func RequireCashier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cashierID := strings.TrimSpace(r.Header.Get(CashierHeader))
		if cashierID == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "cashier identity required", nil)
			return
		}
		ctx := common.WithCashierID(r.Context(), cashierID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
