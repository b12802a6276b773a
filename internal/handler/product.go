package handler

import (
	"net/http"

	"github.com/xenking/dram-store/internal/domain/auth"
	"github.com/xenking/dram-store/internal/domain/product"
)

type productImage struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

type productResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Price        float64        `json:"price"`
	Description  string         `json:"description"`
	Strength     int            `json:"strength"`
	Volume       int            `json:"volume"`
	Category     string         `json:"category"`
	Stock        int            `json:"stock"`
	Ratings      float64        `json:"ratings"`
	NumOfReviews int            `json:"numOfReviews"`
	Images       []productImage `json:"images"`
}

func toProductResponse(p product.Product) productResponse {
	images := make([]productImage, len(p.Images))
	for i, img := range p.Images {
		images[i] = productImage{PublicID: img.PublicID, URL: img.URL}
	}
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.InexactFloat64(),
		Description:  p.Description,
		Strength:     p.Strength,
		Volume:       p.Volume,
		Category:     string(p.Category),
		Stock:        p.Stock,
		Ratings:      p.Ratings,
		NumOfReviews: p.NumOfReviews,
		Images:       images,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

// adjustStock is the direct inventory-adjuster surface for back-office
// corrections (recounts, breakage, returns outside an order).
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req adjustStockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		writeErrorStatus(w, http.StatusUnprocessableEntity, "delta must be non-zero")
		return
	}

	id := r.PathValue("id")
	if err := h.products.AdjustStock(r.Context(), id, req.Delta); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}
