package httppresentation

import (
	"net/http"

	appcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/cart"
)

type cartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type cartResponse struct {
	CartID     string             `json:"cart_id,omitempty"`
	CustomerID string             `json:"customer_id"`
	Items      []cartLineResponse `json:"items"`
	Total      string             `json:"total"`
	Count      int                `json:"count"`
}

func toLines(lines []appcart.Line) []cartLineResponse {
	out := make([]cartLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price.StringFixed(2),
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal.StringFixed(2),
		})
	}
	return out
}

func toCartResponse(v *appcart.View) cartResponse {
	return cartResponse{
		CartID:     v.CartID,
		CustomerID: v.CustomerID,
		Items:      toLines(v.Lines),
		Total:      v.Total.StringFixed(2),
		Count:      v.Count,
	}
}

type cartAddRequest struct {
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id"`
	// Quantity is optional; missing or non-positive means one.
	Quantity int `json:"quantity"`
}

type cartItemRequest struct {
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id"`
}

func (h *Handler) handleCartItems(w http.ResponseWriter, r *http.Request) {
	lines, err := h.d.Carts.Items(r.Context(), r.PathValue("customerID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLines(lines))
}

func (h *Handler) handleCartCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.d.Carts.Count(r.Context(), r.PathValue("customerID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var req cartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	view, err := h.d.Carts.AddItem(r.Context(), appcart.AddItemInput{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *Handler) handleCartDecrease(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	view, err := h.d.Carts.DecreaseItem(r.Context(), appcart.ItemInput{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *Handler) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	view, err := h.d.Carts.RemoveItem(r.Context(), appcart.ItemInput{
		CustomerID: r.PathValue("customerID"),
		ProductID:  r.PathValue("productID"),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}
