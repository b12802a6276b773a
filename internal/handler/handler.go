// Package handler is the HTTP boundary: it decodes requests, resolves the
// requester identity, delegates to the domain services with explicit
// requester parameters, and maps domain error kinds to HTTP statuses.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/dram-store/internal/domain/auth"
	"github.com/xenking/dram-store/internal/domain/order"
	"github.com/xenking/dram-store/internal/domain/payment"
	"github.com/xenking/dram-store/internal/domain/product"
	"github.com/xenking/dram-store/internal/domain/review"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Currency is the ISO 4217 code used for payment intents.
	Currency string
	// Tracer traces payment and order operations. Optional.
	Tracer trace.Tracer
	// OrdersPlaced counts successfully created orders. Optional.
	OrdersPlaced metric.Int64Counter
}

// Handler serves the storefront API.
type Handler struct {
	products product.Repository
	orders   *order.Service
	reviews  *review.Service
	payments payment.Gateway
	pricing  order.PricingConfig
	security *Security

	currency     string
	tracer       trace.Tracer
	ordersPlaced metric.Int64Counter
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	orders *order.Service,
	reviews *review.Service,
	payments payment.Gateway,
	pricing order.PricingConfig,
	security *Security,
) *Handler {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Handler{
		products:     products,
		orders:       orders,
		reviews:      reviews,
		payments:     payments,
		pricing:      pricing,
		security:     security,
		currency:     cfg.Currency,
		tracer:       cfg.Tracer,
		ordersPlaced: cfg.OrdersPlaced,
	}
}

// Routes returns the API route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/products", h.listProducts)
	mux.HandleFunc("GET /api/v1/product/{id}", h.getProduct)

	mux.Handle("POST /api/v1/payment/process", h.security.Require(h.processPayment))
	mux.Handle("POST /api/v1/order/new", h.security.Require(h.createOrder))
	mux.Handle("GET /api/v1/order/{id}", h.security.Require(h.getOrder))
	mux.Handle("GET /api/v1/orders/profile", h.security.Require(h.myOrders))

	mux.Handle("GET /api/v1/admin/orders", h.security.RequireAdmin(h.listAllOrders))
	mux.Handle("PUT /api/v1/admin/order/{id}", h.security.RequireAdmin(h.updateOrderStatus))
	mux.Handle("DELETE /api/v1/admin/order/{id}", h.security.RequireAdmin(h.deleteOrder))
	mux.Handle("PATCH /api/v1/admin/product/{id}/stock", h.security.RequireAdmin(h.adjustStock))

	mux.Handle("PUT /api/v1/review", h.security.Require(h.upsertReview))
	mux.HandleFunc("GET /api/v1/reviews", h.listReviews)
	mux.Handle("DELETE /api/v1/reviews", h.security.Require(h.deleteReview))

	return mux
}

// errorBody mirrors the API error envelope.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Code: status, Message: message})
}

// writeError maps domain error kinds to HTTP statuses. Every failure site
// produces a tagged error once; this is the single place that matches them.
func writeError(w http.ResponseWriter, err error) {
	var (
		invalidQty    *order.InvalidQuantityError
		invalidTrans  *order.InvalidTransitionError
		invalidRating *review.InvalidRatingError
		reviewMissing *review.NotFoundError
		noStock       *product.InsufficientStockError
		gatewayErr    *payment.GatewayError
	)

	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.As(err, &reviewMissing):
		writeErrorStatus(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalidTrans):
		writeErrorStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &invalidQty),
		errors.As(err, &invalidRating):
		writeErrorStatus(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &noStock):
		writeErrorStatus(w, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrNotConfirmed):
		writeErrorStatus(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &gatewayErr):
		writeErrorStatus(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeErrorStatus(w, http.StatusUnauthorized, "unauthorized")
	default:
		writeErrorStatus(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) countOrderPlaced(r *http.Request, status order.Status) {
	if h.ordersPlaced == nil {
		return
	}
	h.ordersPlaced.Add(r.Context(), 1,
		metric.WithAttributes(attribute.String("order.status", string(status))))
}
