package httppresentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

type productRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Category      *string          `json:"category"`
	Image         *string          `json:"image"`
	Images        []string         `json:"images"`
	Stock         *int             `json:"stock"`
	Rating        *float64         `json:"rating"`
	Reviews       *int             `json:"reviews"`
	IsActive      *bool            `json:"isActive"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (req productRequest) draft() (catalog.Draft, error) {
	if req.Price == nil {
		return catalog.Draft{}, errs.Validation("price is required")
	}
	return catalog.Draft{
		Name:          deref(req.Name),
		Description:   deref(req.Description),
		Price:         *req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      catalog.Category(deref(req.Category)),
		Image:         deref(req.Image),
		Images:        req.Images,
		Stock:         deref(req.Stock),
		Rating:        deref(req.Rating),
		Reviews:       deref(req.Reviews),
		IsActive:      req.IsActive,
	}, nil
}

func (req productRequest) patch() catalog.Patch {
	p := catalog.Patch{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Image:         req.Image,
		Images:        req.Images,
		Stock:         req.Stock,
		Rating:        req.Rating,
		Reviews:       req.Reviews,
		IsActive:      req.IsActive,
	}
	if req.Category != nil {
		c := catalog.Category(*req.Category)
		p.Category = &c
	}
	return p
}

type productResponse struct {
	Message string     `json:"message"`
	Product productDTO `json:"product"`
}

func parsePrice(q, name string) (*decimal.Decimal, error) {
	if q == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(q)
	if err != nil {
		return nil, errs.Validationf("%s must be a number", name)
	}
	return &d, nil
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minPrice, err := parsePrice(q.Get("minPrice"), "minPrice")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	maxPrice, err := parsePrice(q.Get("maxPrice"), "maxPrice")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	products, err := h.svc.Catalog.List(r.Context(), catalog.Filter{
		Category: catalog.Category(q.Get("category")),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Search:   q.Get("search"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := req.draft()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Catalog.Create(r.Context(), userIDFrom(r.Context()), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse{Message: "product created", Product: toProductDTO(p)})
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Catalog.Update(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Message: "product updated", Product: toProductDTO(p)})
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "product deleted"})
}
