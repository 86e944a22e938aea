// Package httppresentation is the JSON/HTTP surface of the fulfillment engine.
package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	appcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/order"
	domaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/audit"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerCustomerID     = "X-Customer-ID"
	headerCustomerAdmin  = "X-Customer-Admin"
	maxBodyBytes         = 1 << 20
)

type OrderEngine interface {
	Checkout(ctx context.Context, in apporder.CheckoutInput) (*apporder.CheckoutResult, error)
	Cancel(ctx context.Context, orderID string) (*apporder.TransitionResult, error)
	Ship(ctx context.Context, orderID string) (*apporder.TransitionResult, error)
	Get(ctx context.Context, orderID string) (*domorder.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domorder.Order, error)
}

type PaymentSettler interface {
	Execute(ctx context.Context, orderID string) (*apporder.SettleResult, error)
	Simulated(ctx context.Context, orderID string, outcome dompay.Outcome) (*apporder.SettleResult, error)
}

type CartService interface {
	AddItem(ctx context.Context, cmd appcart.AddItemInput) (*appcart.View, error)
	DecreaseItem(ctx context.Context, cmd appcart.ItemInput) (*appcart.View, error)
	RemoveItem(ctx context.Context, cmd appcart.ItemInput) (*appcart.View, error)
	Items(ctx context.Context, customerID string) ([]appcart.Line, error)
	Count(ctx context.Context, customerID string) (int, error)
}

type Catalog interface {
	ListProducts(ctx context.Context) ([]*dominv.Product, error)
	CreateProduct(ctx context.Context, actor appcatalog.Actor, in appcatalog.CreateProductInput) (*dominv.Product, error)
	UpdateProduct(ctx context.Context, actor appcatalog.Actor, in appcatalog.UpdateProductInput) (*dominv.Product, error)
}

type AuditLog interface {
	ListRecent(ctx context.Context, limit int) ([]*domaudit.Entry, error)
}

type Deps struct {
	Orders   OrderEngine
	Payments PaymentSettler
	Carts    CartService
	Catalog  Catalog
	Audit    AuditLog
	// Ping reports storage health; nil means always healthy.
	Ping func(ctx context.Context) error
	Tel  observability.Observability
}

type Handler struct {
	d   Deps
	log observability.Logger
}

func NewHandler(d Deps) *Handler {
	d.Tel = observability.OrNop(d.Tel)
	return &Handler{
		d:   d,
		log: d.Tel.Logger().With(observability.F("component", componentHTTPHandler)),
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.handle(mux, http.MethodGet, "/api/health", h.handleHealth)

	h.handle(mux, http.MethodGet, "/api/products", h.handleListProducts)
	h.handle(mux, http.MethodPost, "/api/products", h.handleCreateProduct)
	h.handle(mux, http.MethodPut, "/api/products/{productID}", h.handleUpdateProduct)

	h.handle(mux, http.MethodGet, "/api/cart/{customerID}", h.handleCartItems)
	h.handle(mux, http.MethodGet, "/api/cart/count/{customerID}", h.handleCartCount)
	h.handle(mux, http.MethodPost, "/api/cart/add", h.handleCartAdd)
	h.handle(mux, http.MethodPost, "/api/cart/decrease", h.handleCartDecrease)
	h.handle(mux, http.MethodDelete, "/api/cart/{customerID}/items/{productID}", h.handleCartRemove)

	h.handle(mux, http.MethodPost, "/api/orders/checkout", h.handleCheckout)
	h.handle(mux, http.MethodGet, "/api/orders/customer/{customerID}", h.handleListOrders)
	h.handle(mux, http.MethodGet, "/api/orders/{orderID}", h.handleGetOrder)
	h.handle(mux, http.MethodPost, "/api/orders/{orderID}/cancel", h.handleCancel)
	h.handle(mux, http.MethodPost, "/api/orders/{orderID}/ship", h.handleShip)

	h.handle(mux, http.MethodPost, "/api/payments/{orderID}/settle", h.handleSettle)
	h.handle(mux, http.MethodPost, "/api/payments/{orderID}/succeeded", h.handleForcedOutcome(dompay.OutcomeSuccess))
	h.handle(mux, http.MethodPost, "/api/payments/{orderID}/failed", h.handleForcedOutcome(dompay.OutcomeFailure))

	h.handle(mux, http.MethodGet, "/api/audit", h.handleAudit)

	return mux
}

// handle wires a route as Trace → request logger → metrics → access log → handler.
func (h *Handler) handle(mux *http.ServeMux, method, path string, fn http.HandlerFunc) {
	route := method + " " + path
	chain := withTrace(
		withRequestLogger(h.log, func(r *http.Request) string { return r.Header.Get(headerRequestID) })(
			withHTTPMetrics(h.d.Tel)(
				withAccessLog(h.log)(fn),
			),
		),
	)
	mux.Handle(route, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chain.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), route)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.d.Ping != nil {
		if err := h.d.Ping(r.Context()); err != nil {
			logctx.FromOr(r.Context(), h.log).Error("health_check_failed", observability.Err(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", errs.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps the error taxonomy onto status codes. Business
// rejections are 4xx; only unclassified and storage failures are 5xx.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var cc *errs.CannotCancelError
	switch {
	case errors.As(err, &cc):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "reason": cc.Reason})
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, errs.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, errs.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, errs.ErrOutOfStock), errors.Is(err, errs.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err)
	default:
		logctx.FromOr(r.Context(), h.log).Error("request_failed", observability.Err(err))
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func actorFrom(r *http.Request) appcatalog.Actor {
	return appcatalog.Actor{
		CustomerID: r.Header.Get(headerCustomerID),
		IsAdmin:    strings.EqualFold(strings.TrimSpace(r.Header.Get(headerCustomerAdmin)), "true"),
	}
}
