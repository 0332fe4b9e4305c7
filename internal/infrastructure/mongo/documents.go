package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Zhima-Mochi/storefront/internal/domain/address"
	"github.com/Zhima-Mochi/storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/domain/user"
)

const (
	collProducts = "products"
	collCarts    = "carts"
	collOrders   = "orders"
	collUsers    = "users"
)

type addressDoc struct {
	Street  string `bson:"street,omitempty"`
	City    string `bson:"city,omitempty"`
	State   string `bson:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty"`
	Country string `bson:"country,omitempty"`
}

func fromAddress(a address.Address) addressDoc {
	return addressDoc(a)
}

func (d addressDoc) toDomain() address.Address {
	return address.Address(d)
}

type productDoc struct {
	ID            string                `bson:"_id"`
	Name          string                `bson:"name"`
	Description   string                `bson:"description"`
	Price         primitive.Decimal128  `bson:"price"`
	OriginalPrice *primitive.Decimal128 `bson:"originalPrice,omitempty"`
	Category      string                `bson:"category"`
	Image         string                `bson:"image,omitempty"`
	Images        []string              `bson:"images,omitempty"`
	Stock         int                   `bson:"stock"`
	Rating        float64               `bson:"rating"`
	Reviews       int                   `bson:"reviews"`
	IsActive      bool                  `bson:"isActive"`
	CreatedBy     string                `bson:"createdBy"`
	CreatedAt     time.Time             `bson:"createdAt"`
	UpdatedAt     time.Time             `bson:"updatedAt"`
}

func fromProduct(p *catalog.Product) (productDoc, error) {
	var e decEncoder
	d := productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       e.enc(p.Price),
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
	if p.OriginalPrice != nil {
		v := e.enc(*p.OriginalPrice)
		d.OriginalPrice = &v
	}
	return d, e.err
}

func (d productDoc) toDomain() *catalog.Product {
	p := &catalog.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       fromDecimal128(d.Price),
		Category:    catalog.Category(d.Category),
		Image:       d.Image,
		Images:      d.Images,
		Stock:       d.Stock,
		Rating:      d.Rating,
		Reviews:     d.Reviews,
		IsActive:    d.IsActive,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.OriginalPrice != nil {
		v := fromDecimal128(*d.OriginalPrice)
		p.OriginalPrice = &v
	}
	return p
}

type lineDoc struct {
	ProductID string               `bson:"product"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

// cartDoc is keyed by user id. Totals are stored for readers of the raw
// collection and recomputed from items on every save.
type cartDoc struct {
	UserID     string               `bson:"_id"`
	Items      []lineDoc            `bson:"items"`
	TotalItems int                  `bson:"totalItems"`
	TotalPrice primitive.Decimal128 `bson:"totalPrice"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

func fromCart(c *cart.Cart) (cartDoc, error) {
	var e decEncoder
	items := make([]lineDoc, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, lineDoc{ProductID: it.ProductID, Quantity: it.Quantity, Price: e.enc(it.Price)})
	}
	d := cartDoc{
		UserID:     c.UserID,
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: e.enc(c.TotalPrice()),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	return d, e.err
}

func (d cartDoc) toDomain() *cart.Cart {
	c := &cart.Cart{UserID: d.UserID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
	for _, it := range d.Items {
		c.Items = append(c.Items, cart.Item{ProductID: it.ProductID, Quantity: it.Quantity, Price: fromDecimal128(it.Price)})
	}
	return c
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	UserID          string               `bson:"user"`
	Items           []lineDoc            `bson:"items"`
	TotalAmount     primitive.Decimal128 `bson:"totalAmount"`
	ShippingAddress addressDoc           `bson:"shippingAddress"`
	PaymentMethod   string               `bson:"paymentMethod"`
	PaymentStatus   string               `bson:"paymentStatus"`
	OrderStatus     string               `bson:"orderStatus"`
	TrackingNumber  string               `bson:"trackingNumber,omitempty"`
	Notes           string               `bson:"notes,omitempty"`
	IdempotencyKey  string               `bson:"idempotencyKey,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

func fromOrder(o *order.Order) (orderDoc, error) {
	var e decEncoder
	items := make([]lineDoc, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, lineDoc{ProductID: it.ProductID, Quantity: it.Quantity, Price: e.enc(it.Price)})
	}
	d := orderDoc{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     e.enc(o.TotalAmount),
		ShippingAddress: fromAddress(o.ShippingAddress),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		OrderStatus:     string(o.Status),
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		IdempotencyKey:  o.IdempotencyKey,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	return d, e.err
}

func (d orderDoc) toDomain() *order.Order {
	o := &order.Order{
		ID:              d.ID,
		UserID:          d.UserID,
		TotalAmount:     fromDecimal128(d.TotalAmount),
		ShippingAddress: d.ShippingAddress.toDomain(),
		PaymentMethod:   payment.Method(d.PaymentMethod),
		PaymentStatus:   payment.Status(d.PaymentStatus),
		Status:          order.Status(d.OrderStatus),
		TrackingNumber:  d.TrackingNumber,
		Notes:           d.Notes,
		IdempotencyKey:  d.IdempotencyKey,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, order.Item{ProductID: it.ProductID, Quantity: it.Quantity, Price: fromDecimal128(it.Price)})
	}
	return o
}

type userDoc struct {
	ID           string     `bson:"_id"`
	Name         string     `bson:"name"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password"`
	Phone        string     `bson:"phone,omitempty"`
	Address      addressDoc `bson:"address"`
	Avatar       string     `bson:"avatar,omitempty"`
	IsAdmin      bool       `bson:"isAdmin"`
	IsActive     bool       `bson:"isActive"`
	LastLogin    *time.Time `bson:"lastLogin,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
}

func fromUser(u *user.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        user.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Address:      fromAddress(u.Address),
		Avatar:       u.Avatar,
		IsAdmin:      u.IsAdmin,
		IsActive:     u.IsActive,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toDomain() *user.User {
	return &user.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Phone:        d.Phone,
		Address:      d.Address.toDomain(),
		Avatar:       d.Avatar,
		IsAdmin:      d.IsAdmin,
		IsActive:     d.IsActive,
		LastLogin:    d.LastLogin,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
