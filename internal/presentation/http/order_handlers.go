package httppresentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

type createOrderRequest struct {
	ShippingAddress *addressDTO `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
}

type updateStatusRequest struct {
	OrderStatus    *string `json:"orderStatus"`
	PaymentStatus  *string `json:"paymentStatus"`
	TrackingNumber *string `json:"trackingNumber"`
	Notes          *string `json:"notes"`
}

type orderResponse struct {
	Message string   `json:"message"`
	Order   orderDTO `json:"order"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	in := apporder.CreateOrderInput{
		UserID:         userIDFrom(r.Context()),
		PaymentMethod:  payment.Method(req.PaymentMethod),
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
	}
	if req.ShippingAddress != nil {
		in.ShippingAddress = req.ShippingAddress.toDomain()
	}
	res, err := h.svc.CreateOrder.Execute(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.Replayed {
		writeJSON(w, http.StatusOK, orderResponse{Message: "order already created", Order: h.orderDTO(r, res.Order)})
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse{Message: "order created", Order: h.orderDTO(r, res.Order)})
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.orderDTOs(r, orders))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.Get(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.orderDTO(r, o))
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.CancelOrder.Execute(r.Context(), apporder.CancelOrderInput{
		UserID:  userIDFrom(r.Context()),
		OrderID: chi.URLParam(r, "id"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Message: "order cancelled", Order: h.orderDTO(r, o)})
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	in := apporder.UpdateStatusInput{
		OrderID:        chi.URLParam(r, "id"),
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	}
	if req.OrderStatus != nil {
		s := order.Status(*req.OrderStatus)
		in.Status = &s
	}
	if req.PaymentStatus != nil {
		s := payment.Status(*req.PaymentStatus)
		in.PaymentStatus = &s
	}
	o, err := h.svc.OrderStatus.Execute(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Message: "order updated", Order: h.orderDTO(r, o)})
}
