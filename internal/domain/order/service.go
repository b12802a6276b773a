package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/dram-store/internal/domain/payment"
	"github.com/xenking/dram-store/internal/domain/product"
)

// retrieveAttempts bounds the idempotent payment verification retries.
// Intent creation is never retried (double-charge risk); retrieval is safe.
const retrieveAttempts = 3

// CreateRequest holds the input for creating an order from a priced, paid cart.
type CreateRequest struct {
	UserID   string
	Items    []Item
	Shipping ShippingInfo
	Payment  PaymentInfo
}

// Service orchestrates the order lifecycle: creation from a paid cart with
// stock decrement, status advancement, and deletion with stock restitution.
//
// Authorization is the caller's concern: requester identity and role are
// threaded in explicitly by the HTTP layer, and the service trusts them.
type Service struct {
	products product.Repository
	orders   Repository
	payments payment.Gateway
	pricing  PricingConfig
}

// NewService creates an order Service with the required dependencies.
func NewService(
	products product.Repository,
	orders Repository,
	payments payment.Gateway,
	pricing PricingConfig,
) *Service {
	return &Service{
		products: products,
		orders:   orders,
		payments: payments,
		pricing:  pricing,
	}
}

// Create validates the cart, snapshots product data, prices the order,
// verifies the payment with the gateway, and persists the order together with
// the per-item stock decrements. Persistence is atomic: a failed decrement
// leaves no order behind.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Snapshot name, price, and image per line item. The stored copies are
	// immune to later catalog edits.
	items := make([]Item, len(req.Items))
	for i, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, errors.Wrapf(product.ErrNotFound, "product %s", item.ProductID)
		}
		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0].URL
		}
		items[i] = Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     image,
			Quantity:  item.Quantity,
		}
	}

	totals := ComputeTotals(items, s.pricing)

	if err := s.verifyPayment(ctx, req.Payment, totals.TotalPrice); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		ID:       uuid.New().String(),
		UserID:   req.UserID,
		Items:    items,
		Shipping: req.Shipping,
		Payment:  req.Payment,
		Totals:   totals,
		Status:   StatusProcessing,
		PaidAt:   now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// verifyPayment re-checks the transaction with the gateway instead of
// trusting the client-supplied status. Retrieval is retried on transport
// errors because it is idempotent.
func (s *Service) verifyPayment(ctx context.Context, info PaymentInfo, total decimal.Decimal) error {
	if info.TransactionID == "" {
		return &payment.GatewayError{Op: "verify", Err: errors.New("missing transaction id")}
	}

	var (
		intent *payment.Intent
		err    error
	)
	for attempt := 0; attempt < retrieveAttempts; attempt++ {
		intent, err = s.payments.RetrieveIntent(ctx, info.TransactionID)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return &payment.GatewayError{Op: "retrieve intent", Err: ctx.Err()}
		}
	}
	if err != nil {
		return &payment.GatewayError{Op: "retrieve intent", Err: err}
	}

	if intent.Status != payment.StatusSucceeded {
		return errors.Wrapf(payment.ErrNotConfirmed, "intent %s has status %s", intent.ID, intent.Status)
	}

	want := total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if intent.AmountMinorUnits != want {
		return errors.Wrapf(payment.ErrNotConfirmed,
			"intent %s amount %d does not cover total %d", intent.ID, intent.AmountMinorUnits, want)
	}

	return nil
}

// Get returns the order by id. The caller enforces that the requester is the
// owner or an admin.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListForUser returns all orders owned by userID in storage order.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListAll returns every order plus the grand total across them. Admin only,
// enforced by the caller.
func (s *Service) ListAll(ctx context.Context) ([]Order, decimal.Decimal, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}

	totalAmount := decimal.Zero
	for _, o := range orders {
		totalAmount = totalAmount.Add(o.Totals.TotalPrice)
	}
	return orders, totalAmount, nil
}

// AdvanceStatus moves an order forward along Processing -> Shipped ->
// Delivered. A Delivered order can never change again, and regressions are
// rejected. Stock is untouched: it was already decremented at creation.
func (s *Service) AdvanceStatus(ctx context.Context, id string, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, &InvalidTransitionError{To: next}
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.Status == StatusDelivered || next.rank() <= o.Status.rank() {
		return nil, &InvalidTransitionError{From: o.Status, To: next}
	}

	var deliveredAt *time.Time
	if next == StatusDelivered {
		now := time.Now().UTC()
		deliveredAt = &now
	}

	// The write is conditional on the status just read, so a racing admin
	// call cannot regress an order delivered in between.
	if err := s.orders.UpdateStatus(ctx, id, o.Status, next, deliveredAt); err != nil {
		return nil, errors.Wrap(err, "update status")
	}

	o.Status = next
	o.DeliveredAt = deliveredAt
	return o, nil
}

// Delete removes an order. When the order has not been delivered, every line
// item's quantity is returned to its product's stock in the same atomic unit
// as the deletion; a delivered order is removed without restitution because
// the goods are gone. The repository decides from the stored status inside
// that unit, so an order delivered moments before deletion keeps its stock
// decrement.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return errors.Wrap(err, "delete order")
	}
	return nil
}
