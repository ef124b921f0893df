package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/auth"
	"github.com/noah-isme/backend-pos/internal/sale"
	"github.com/noah-isme/backend-pos/internal/session"
)

func newRouter(svc *session.Service, lister session.SaleLister) http.Handler {
	h := &session.Handler{Svc: svc, SaleLister: lister}
	r := chi.NewRouter()
	r.Route("/sessions", func(s chi.Router) {
		s.Use(auth.RequireCashier)
		s.Get("/current", h.Current)
		s.Get("/current/sales", h.Sales)
		s.Post("/current/close", h.Close)
	})
	return r
}

type stubLister struct {
	sales []sale.Sale
}

func (s stubLister) ListBySession(context.Context, uuid.UUID) ([]sale.Sale, error) {
	return s.sales, nil
}

func doAs(t *testing.T, router http.Handler, cashierID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cashierID != "" {
		req.Header.Set(auth.CashierHeader, cashierID)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCloseOverHTTP(t *testing.T) {
	svc, _, _ := fixtureService(t, session.Totals{
		sale.PaymentCash: 100_005,
		sale.PaymentCard: 50_000,
	})
	router := newRouter(svc, stubLister{})
	_, err := svc.EnsureOpen(context.Background(), "cashier-1", "t-1")
	require.NoError(t, err)

	rr := doAs(t, router, "cashier-1", http.MethodGet, "/sessions/current", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"cash":100005`)

	rr = doAs(t, router, "cashier-1", http.MethodPost, "/sessions/current/close", `{"counted":{"cash":100000,"card":50000,"transfer":0},"notes":"drawer short"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"cash":-5`)
	require.Contains(t, rr.Body.String(), `"differenceTotal":-5`)
	require.Contains(t, rr.Body.String(), `"notes":"drawer short"`)
	require.Contains(t, rr.Body.String(), `"closed"`)
}

func TestCloseIncompleteCountOverHTTP(t *testing.T) {
	svc, _, _ := fixtureService(t, session.Totals{
		sale.PaymentCash: 10_000,
		sale.PaymentCard: 5_000,
	})
	router := newRouter(svc, stubLister{})
	_, err := svc.EnsureOpen(context.Background(), "cashier-1", "t-1")
	require.NoError(t, err)

	rr := doAs(t, router, "cashier-1", http.MethodPost, "/sessions/current/close", `{"counted":{"cash":10000}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "INCOMPLETE_COUNT")
	require.Contains(t, rr.Body.String(), `"card"`)
	require.Contains(t, rr.Body.String(), `"transfer"`)
}

func TestCurrentWithoutSession(t *testing.T) {
	svc, _, _ := fixtureService(t, session.Totals{})
	router := newRouter(svc, stubLister{})
	rr := doAs(t, router, "cashier-1", http.MethodGet, "/sessions/current", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "NO_OPEN_SESSION")
}

func TestCloseWithoutIdentity(t *testing.T) {
	svc, _, _ := fixtureService(t, session.Totals{})
	router := newRouter(svc, stubLister{})
	rr := doAs(t, router, "", http.MethodPost, "/sessions/current/close", `{"counted":{"cash":0}}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCloseUnknownMethodOverHTTP(t *testing.T) {
	svc, _, _ := fixtureService(t, session.Totals{sale.PaymentCash: 1_000})
	router := newRouter(svc, stubLister{})
	_, err := svc.EnsureOpen(context.Background(), "cashier-1", "t-1")
	require.NoError(t, err)

	rr := doAs(t, router, "cashier-1", http.MethodPost, "/sessions/current/close", `{"counted":{"bitcoin":1}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestSessionSalesOverHTTP(t *testing.T) {
	svc, _, _ := fixtureService(t, session.Totals{sale.PaymentCash: 3_000})
	lister := stubLister{sales: []sale.Sale{
		{ID: uuid.New(), Total: 1_000, Method: sale.PaymentCash},
		{ID: uuid.New(), Total: 2_000, Method: sale.PaymentCash},
	}}
	router := newRouter(svc, lister)
	_, err := svc.EnsureOpen(context.Background(), "cashier-1", "t-1")
	require.NoError(t, err)

	rr := doAs(t, router, "cashier-1", http.MethodGet, "/sessions/current/sales", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"total":1000`)
	require.Contains(t, rr.Body.String(), `"total":2000`)
}
