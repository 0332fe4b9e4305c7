package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

type cartLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type cartResponse struct {
	Message string  `json:"message"`
	Cart    cartDTO `json:"cart"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Cart.Get(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartDTO(r, c))
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(w, r, errs.Validation("quantity is required"))
		return
	}
	c, err := h.svc.Cart.Add(r.Context(), userIDFrom(r.Context()), req.ProductID, *req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Message: "product added to cart", Cart: h.cartDTO(r, c)})
}

func (h *Handler) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(w, r, errs.Validation("quantity is required"))
		return
	}
	c, err := h.svc.Cart.Update(r.Context(), userIDFrom(r.Context()), req.ProductID, *req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Message: "cart updated", Cart: h.cartDTO(r, c)})
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Cart.Remove(r.Context(), userIDFrom(r.Context()), req.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Message: "product removed from cart", Cart: h.cartDTO(r, c)})
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Cart.Clear(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Message: "cart cleared", Cart: h.cartDTO(r, c)})
}
