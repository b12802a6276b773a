package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/dram-store/internal/domain/auth"
	"github.com/xenking/dram-store/internal/domain/order"
	"github.com/xenking/dram-store/internal/domain/payment"
	"github.com/xenking/dram-store/internal/domain/product"
)

type processPaymentRequest struct {
	Items []orderItemRequest `json:"items"`
}

type processPaymentResponse struct {
	ClientSecret string  `json:"clientSecret"`
	Amount       float64 `json:"amount"`
}

// processPayment prices the cart server-side and creates a payment intent for
// the resulting total. The client confirms the intent against the gateway and
// then calls order creation with the transaction id. The amount is never
// taken from the request.
func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req processPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, order.ErrEmptyItems)
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "payment.process")
	defer span.End()

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			writeError(w, &order.InvalidQuantityError{ProductID: item.ProductID})
			return
		}
		ids[i] = item.ProductID
	}

	fetched, err := h.products.GetByIDs(ctx, ids)
	if err != nil {
		writeError(w, err)
		return
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]order.Item, len(req.Items))
	for i, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			writeError(w, product.ErrNotFound)
			return
		}
		items[i] = order.Item{ProductID: p.ID, Price: p.Price, Quantity: item.Quantity}
	}

	totals := order.ComputeTotals(items, h.pricing)
	amount := totals.TotalPrice.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	intent, err := h.payments.CreateIntent(ctx, amount, h.currency)
	if err != nil {
		span.RecordError(err)
		writeError(w, &payment.GatewayError{Op: "create intent", Err: err})
		return
	}

	writeJSON(w, http.StatusOK, processPaymentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       totals.TotalPrice.InexactFloat64(),
	})
}
