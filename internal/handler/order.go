package handler

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/dram-store/internal/domain/auth"
	"github.com/xenking/dram-store/internal/domain/order"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type shippingInfoBody struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	PhoneNo    string `json:"phoneNo"`
}

type paymentInfoBody struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

type createOrderRequest struct {
	Items        []orderItemRequest `json:"items"`
	ShippingInfo shippingInfoBody   `json:"shippingInfo"`
	PaymentInfo  paymentInfoBody    `json:"paymentInfo"`
}

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	Items         []orderItemResponse `json:"items"`
	ShippingInfo  shippingInfoBody    `json:"shippingInfo"`
	PaymentInfo   paymentInfoBody     `json:"paymentInfo"`
	ItemsPrice    float64             `json:"itemsPrice"`
	ShippingPrice float64             `json:"shippingPrice"`
	TaxPrice      float64             `json:"taxPrice"`
	TotalPrice    float64             `json:"totalPrice"`
	Status        string              `json:"orderStatus"`
	PaidAt        time.Time           `json:"paidAt"`
	DeliveredAt   *time.Time          `json:"deliveredAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.InexactFloat64(),
			Image:     item.Image,
			Quantity:  item.Quantity,
		}
	}
	return orderResponse{
		ID:     o.ID,
		UserID: o.UserID,
		Items:  items,
		ShippingInfo: shippingInfoBody{
			Address:    o.Shipping.Address,
			City:       o.Shipping.City,
			PostalCode: o.Shipping.PostalCode,
			Country:    o.Shipping.Country,
			PhoneNo:    o.Shipping.PhoneNo,
		},
		PaymentInfo: paymentInfoBody{
			TransactionID: o.Payment.TransactionID,
			Status:        o.Payment.Status,
		},
		ItemsPrice:    o.Totals.ItemsPrice.InexactFloat64(),
		ShippingPrice: o.Totals.ShippingPrice.InexactFloat64(),
		TaxPrice:      o.Totals.TaxPrice.InexactFloat64(),
		TotalPrice:    o.Totals.TotalPrice.InexactFloat64(),
		Status:        string(o.Status),
		PaidAt:        o.PaidAt,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request, ident auth.Identity) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "order.create",
		trace.WithAttributes(attribute.Int("order.items", len(req.Items))))
	defer span.End()

	items := make([]order.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.Item{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	o, err := h.orders.Create(ctx, order.CreateRequest{
		UserID: ident.UserID,
		Items:  items,
		Shipping: order.ShippingInfo{
			Address:    req.ShippingInfo.Address,
			City:       req.ShippingInfo.City,
			PostalCode: req.ShippingInfo.PostalCode,
			Country:    req.ShippingInfo.Country,
			PhoneNo:    req.ShippingInfo.PhoneNo,
		},
		Payment: order.PaymentInfo{
			TransactionID: req.PaymentInfo.TransactionID,
			Status:        req.PaymentInfo.Status,
		},
	})
	if err != nil {
		span.RecordError(err)
		writeError(w, err)
		return
	}

	h.countOrderPlaced(r, o.Status)
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, ident auth.Identity) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	// Owner-or-admin is enforced here at the boundary; the service itself
	// does not filter.
	if o.UserID != ident.UserID && !ident.IsAdmin() {
		writeErrorStatus(w, http.StatusForbidden, "not your order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request, ident auth.Identity) {
	orders, err := h.orders.ListForUser(r.Context(), ident.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

type allOrdersResponse struct {
	TotalAmount float64         `json:"totalAmount"`
	Orders      []orderResponse `json:"orders"`
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	orders, totalAmount, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := allOrdersResponse{
		TotalAmount: totalAmount.InexactFloat64(),
		Orders:      make([]orderResponse, len(orders)),
	}
	for i := range orders {
		resp.Orders[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req updateOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.AdvanceStatus(r.Context(), r.PathValue("id"), order.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	if err := h.orders.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
