package httppresentation

import (
	"net/http"
	"time"

	apporder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/order"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/payment"
)

type checkoutRequest struct {
	CustomerID      string `json:"customer_id"`
	ShippingAddress string `json:"shipping_address"`
}

type checkoutResponse struct {
	OrderID     string          `json:"order_id"`
	Status      domorder.Status `json:"status"`
	TotalAmount string          `json:"total_amount"`
}

type orderItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type orderResponse struct {
	OrderID         string              `json:"order_id"`
	CustomerID      string              `json:"customer_id"`
	Status          domorder.Status     `json:"status"`
	TotalAmount     string              `json:"total_amount"`
	ShippingAddress string              `json:"shipping_address"`
	FailureReason   string              `json:"failure_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []orderItemResponse `json:"items"`
}

type transitionResponse struct {
	OrderID string          `json:"order_id"`
	Status  domorder.Status `json:"status"`
	Message string          `json:"message"`
}

type settleResponse struct {
	OrderID string          `json:"order_id"`
	Status  domorder.Status `json:"status"`
	Outcome dompay.Outcome  `json:"outcome"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			LineTotal:   it.LineTotal().StringFixed(2),
		})
	}
	return orderResponse{
		OrderID:         o.ID,
		CustomerID:      o.CustomerID,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount.StringFixed(2),
		ShippingAddress: o.ShippingAddress,
		FailureReason:   o.FailureReason,
		CreatedAt:       o.CreatedAt,
		Items:           items,
	}
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	res, err := h.d.Orders.Checkout(r.Context(), apporder.CheckoutInput{
		CustomerID:      req.CustomerID,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:     res.OrderID,
		Status:      res.Status,
		TotalAmount: res.TotalAmount.StringFixed(2),
	})
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.d.Orders.ListByCustomer(r.Context(), r.PathValue("customerID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.d.Orders.Get(r.Context(), r.PathValue("orderID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	res, err := h.d.Orders.Cancel(r.Context(), r.PathValue("orderID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{OrderID: res.OrderID, Status: res.Status, Message: res.Message})
}

func (h *Handler) handleShip(w http.ResponseWriter, r *http.Request) {
	res, err := h.d.Orders.Ship(r.Context(), r.PathValue("orderID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{OrderID: res.OrderID, Status: res.Status, Message: res.Message})
}

func (h *Handler) handleSettle(w http.ResponseWriter, r *http.Request) {
	res, err := h.d.Payments.Execute(r.Context(), r.PathValue("orderID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settleResponse{OrderID: res.OrderID, Status: res.Status, Outcome: res.Outcome})
}

func (h *Handler) handleForcedOutcome(outcome dompay.Outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.d.Payments.Simulated(r.Context(), r.PathValue("orderID"), outcome)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, settleResponse{OrderID: res.OrderID, Status: res.Status, Outcome: res.Outcome})
	}
}
