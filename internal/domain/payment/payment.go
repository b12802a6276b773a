// Package payment defines the port to the external card-processing service.
// The storefront never sees card data: it creates a payment intent for an
// amount, the client confirms it against the gateway directly, and order
// creation verifies the resulting transaction server-side.
package payment

import (
	"context"

	"github.com/go-faster/errors"
)

// StatusSucceeded is the gateway status of a fully captured intent. Any other
// status must not produce an order.
const StatusSucceeded = "succeeded"

// ErrNotConfirmed is returned when an intent exists but has not succeeded.
var ErrNotConfirmed = errors.New("payment not confirmed")

// GatewayError wraps a failure talking to the payment gateway. Orders backed
// by an unverifiable payment are rejected, never silently accepted.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return "payment gateway " + e.Op + ": " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Intent is the gateway-side record of a payment attempt.
type Intent struct {
	ID           string
	ClientSecret string
	// AmountMinorUnits is the charge amount in the currency's minor units
	// (cents for USD).
	AmountMinorUnits int64
	Currency         string
	Status           string
}

// Gateway is the card-processing collaborator.
//
// CreateIntent must never be retried by callers: a duplicate create risks a
// double charge. RetrieveIntent is idempotent and safe to retry.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}
