package httppresentation

import (
	"net/http"
	"strconv"
	"time"

	appcatalog "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"

	"github.com/shopspring/decimal"
)

type productResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Stock     int    `json:"stock"`
}

type createProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type updateProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type auditEntryResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func toProductResponse(p *dominv.Product) productResponse {
	return productResponse{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.UnitPrice.StringFixed(2),
		Stock:     p.Stock,
	}
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.d.Catalog.ListProducts(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.d.Catalog.CreateProduct(r.Context(), actorFrom(r), appcatalog.CreateProductInput{
		Name:      req.Name,
		UnitPrice: req.Price,
		Stock:     req.Stock,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.d.Catalog.UpdateProduct(r.Context(), actorFrom(r), appcatalog.UpdateProductInput{
		ProductID: r.PathValue("productID"),
		Name:      req.Name,
		UnitPrice: req.Price,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeDomainError(w, r, errs.Invalid("limit must be an integer"))
			return
		}
		limit = n
	}
	entries, err := h.d.Audit.ListRecent(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:         e.ID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Timestamp:  e.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
