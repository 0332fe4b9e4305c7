package httppresentation

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/storefront/internal/domain/address"
	"github.com/Zhima-Mochi/storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/user"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

// money renders as a JSON number with two decimal places.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

type addressDTO struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

func toAddressDTO(a address.Address) addressDTO { return addressDTO(a) }

func (d addressDTO) toDomain() address.Address { return address.Address(d) }

type userDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
	Address   addressDTO `json:"address"`
	IsAdmin   bool       `json:"isAdmin"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func toUserDTO(u *user.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		Address:   toAddressDTO(u.Address),
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type productDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         money     `json:"price"`
	OriginalPrice *money    `json:"originalPrice,omitempty"`
	Category      string    `json:"category"`
	Image         string    `json:"image,omitempty"`
	Images        []string  `json:"images"`
	Stock         int       `json:"stock"`
	Rating        float64   `json:"rating"`
	Reviews       int       `json:"reviews"`
	IsActive      bool      `json:"isActive"`
	CreatedBy     string    `json:"createdBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toProductDTO(p *catalog.Product) productDTO {
	d := productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Category:    string(p.Category),
		Image:       p.Image,
		Images:      p.Images,
		Stock:       p.Stock,
		Rating:      p.Rating,
		Reviews:     p.Reviews,
		IsActive:    p.IsActive,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if d.Images == nil {
		d.Images = []string{}
	}
	if p.OriginalPrice != nil {
		op := money(*p.OriginalPrice)
		d.OriginalPrice = &op
	}
	return d
}

// productSummaryDTO is the current catalog view of a line's product. It is
// for display only; the line's own price and quantity are what was captured.
type productSummaryDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Price    money  `json:"price"`
	Stock    int    `json:"stock"`
	IsActive bool   `json:"isActive"`
}

type lineDTO struct {
	ProductID string `json:"productId"`
	// Product is null once the product has been deleted.
	Product  *productSummaryDTO `json:"product"`
	Quantity int                `json:"quantity"`
	Price    money              `json:"price"`
}

// productIndex holds the products a response refers to, keyed by id.
type productIndex map[string]*catalog.Product

func (ix productIndex) line(productID string, quantity int, price decimal.Decimal) lineDTO {
	l := lineDTO{ProductID: productID, Quantity: quantity, Price: money(price)}
	if p, ok := ix[productID]; ok && p != nil {
		l.Product = &productSummaryDTO{
			ID:       p.ID,
			Name:     p.Name,
			Image:    p.Image,
			Price:    money(p.Price),
			Stock:    p.Stock,
			IsActive: p.IsActive,
		}
	}
	return l
}

type cartDTO struct {
	UserID     string    `json:"user"`
	Items      []lineDTO `json:"items"`
	TotalItems int       `json:"totalItems"`
	TotalPrice money     `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toCartDTO(c *cart.Cart, ix productIndex) cartDTO {
	items := make([]lineDTO, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, ix.line(it.ProductID, it.Quantity, it.Price))
	}
	return cartDTO{
		UserID:     c.UserID,
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: money(c.TotalPrice()),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

type orderDTO struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user"`
	Items           []lineDTO  `json:"items"`
	TotalAmount     money      `json:"totalAmount"`
	ShippingAddress addressDTO `json:"shippingAddress"`
	PaymentMethod   string     `json:"paymentMethod"`
	PaymentStatus   string     `json:"paymentStatus"`
	OrderStatus     string     `json:"orderStatus"`
	TrackingNumber  string     `json:"trackingNumber,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toOrderDTO(o *order.Order, ix productIndex) orderDTO {
	items := make([]lineDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ix.line(it.ProductID, it.Quantity, it.Price))
	}
	return orderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     money(o.TotalAmount),
		ShippingAddress: toAddressDTO(o.ShippingAddress),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		OrderStatus:     string(o.Status),
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// productIndex loads the products named by ids. A failed lookup leaves those
// products null instead of failing a request whose write already committed.
func (h *Handler) productIndex(r *http.Request, ids []string) productIndex {
	if len(ids) == 0 {
		return nil
	}
	found, err := h.svc.Catalog.Lookup(r.Context(), ids...)
	if err != nil {
		h.logger(r).Warn("product_lookup_failed",
			observability.F("product_ids", ids),
			observability.Err(err),
		)
	}
	return found
}

func (h *Handler) cartDTO(r *http.Request, c *cart.Cart) cartDTO {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return toCartDTO(c, h.productIndex(r, ids))
}

func (h *Handler) orderDTO(r *http.Request, o *order.Order) orderDTO {
	return h.orderDTOs(r, []*order.Order{o})[0]
}

// orderDTOs resolves the products of every order in one lookup.
func (h *Handler) orderDTOs(r *http.Request, orders []*order.Order) []orderDTO {
	var ids []string
	for _, o := range orders {
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
	}
	ix := h.productIndex(r, ids)
	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o, ix))
	}
	return out
}
