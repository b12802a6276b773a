//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/v1/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 9 {
		t.Fatalf("expected 9 products, got %d", len(products))
	}
}

func TestGetProduct_Fields(t *testing.T) {
	resp := doGet(t, "/api/v1/product/glen-moray-12")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	p := decodeJSON[productResponse](t, resp)
	if p.Name != "Glen Moray 12 Year" {
		t.Errorf("name: got %q, want %q", p.Name, "Glen Moray 12 Year")
	}
	if p.Price != 54.99 {
		t.Errorf("price: got %v, want 54.99", p.Price)
	}
	if p.Category != "Single Malt" {
		t.Errorf("category: got %q, want %q", p.Category, "Single Malt")
	}
	if p.Stock != 24 {
		t.Errorf("stock: got %d, want 24", p.Stock)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/v1/product/no-such-dram")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusNotFound {
		t.Errorf("error code: got %d, want 404", body.Code)
	}
}

func TestAdjustStock_AdminOnly(t *testing.T) {
	t.Run("user key is forbidden", func(t *testing.T) {
		resp := doRequest(t, http.MethodPatch, "/api/v1/admin/product/blackwood-blend/stock",
			userAPIKey, map[string]int{"delta": 1})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("admin adjusts and reverts", func(t *testing.T) {
		resp := doRequest(t, http.MethodPatch, "/api/v1/admin/product/blackwood-blend/stock",
			adminAPIKey, map[string]int{"delta": -5})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		p := decodeJSON[productResponse](t, resp)
		if p.Stock != 55 {
			t.Errorf("stock after -5: got %d, want 55", p.Stock)
		}

		revert := doRequest(t, http.MethodPatch, "/api/v1/admin/product/blackwood-blend/stock",
			adminAPIKey, map[string]int{"delta": 5})
		defer revert.Body.Close()
		if revert.StatusCode != http.StatusOK {
			t.Fatalf("revert: expected 200, got %d", revert.StatusCode)
		}
	})

	t.Run("driving stock negative conflicts", func(t *testing.T) {
		resp := doRequest(t, http.MethodPatch, "/api/v1/admin/product/blackwood-blend/stock",
			adminAPIKey, map[string]int{"delta": -10000})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
	})
}
