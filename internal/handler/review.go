package handler

import (
	"net/http"
	"time"

	"github.com/xenking/dram-store/internal/domain/auth"
	"github.com/xenking/dram-store/internal/domain/review"
)

type upsertReviewRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type reviewResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toReviewResponse(r review.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (h *Handler) upsertReview(w http.ResponseWriter, r *http.Request, ident auth.Identity) {
	var req upsertReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rev, err := h.reviews.Upsert(r.Context(), review.UpsertRequest{
		ProductID: req.ProductID,
		UserID:    ident.UserID,
		UserName:  ident.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(*rev))
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("id")
	if productID == "" {
		writeErrorStatus(w, http.StatusBadRequest, "id query parameter required")
		return
	}

	reviews, err := h.reviews.ListForProduct(r.Context(), productID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]reviewResponse, len(reviews))
	for i, rev := range reviews {
		resp[i] = toReviewResponse(rev)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	reviewID := r.URL.Query().Get("id")
	productID := r.URL.Query().Get("productId")
	if reviewID == "" || productID == "" {
		writeErrorStatus(w, http.StatusBadRequest, "id and productId query parameters required")
		return
	}

	if err := h.reviews.Remove(r.Context(), productID, reviewID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
