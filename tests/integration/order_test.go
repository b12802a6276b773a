//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestProcessPayment(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/v1/payment/process", userAPIKey, paymentRequest{
		Items: []orderItemRequest{{ProductID: "glen-moray-12", Quantity: 2}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[paymentResponse](t, resp)
	if body.ClientSecret == "" {
		t.Error("clientSecret is empty")
	}
	// 2 * 54.99 = 109.98, shipping 25, tax 5.50.
	if body.Amount != 140.48 {
		t.Errorf("amount: got %v, want 140.48", body.Amount)
	}
}

func TestProcessPayment_RequiresAuth(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/v1/payment/process", "", paymentRequest{
		Items: []orderItemRequest{{ProductID: "glen-moray-12", Quantity: 1}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProcessPayment_EmptyItems(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/v1/payment/process", userAPIKey, paymentRequest{})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestProcessPayment_UnknownProduct(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/v1/payment/process", userAPIKey, paymentRequest{
		Items: []orderItemRequest{{ProductID: "no-such-dram", Quantity: 1}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// The stripe-mock gateway never reports intents as succeeded, so order
// creation must refuse to produce an order and leave stock untouched.
func TestCreateOrder_UnconfirmedPaymentRejected(t *testing.T) {
	before := getStock(t, "glen-moray-12")

	resp := doRequest(t, http.MethodPost, "/api/v1/order/new", userAPIKey, map[string]any{
		"items": []orderItemRequest{{ProductID: "glen-moray-12", Quantity: 1}},
		"shippingInfo": map[string]string{
			"address": "12 Cask Lane", "city": "Speyside",
			"postalCode": "AB38", "country": "UK", "phoneNo": "555-0100",
		},
		"paymentInfo": map[string]string{
			"transactionId": "pi_1DsyUJ2eZvKYlo2C8SQageIr", "status": "succeeded",
		},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.StatusCode)
	}

	if after := getStock(t, "glen-moray-12"); after != before {
		t.Errorf("stock changed on rejected order: %d -> %d", before, after)
	}
}

func TestMyOrders_EmptyForFreshUser(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/v1/orders/profile", userAPIKey, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAdminOrders_RequiresAdmin(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/v1/admin/orders", userAPIKey, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func getStock(t *testing.T, productID string) int {
	t.Helper()
	resp := doGet(t, "/api/v1/product/"+productID)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get product %s: status %d", productID, resp.StatusCode)
	}
	return decodeJSON[productResponse](t, resp).Stock
}
