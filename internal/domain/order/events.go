package order

import "time"

// LineItem is the event view of an order line.
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func lineItems(o *Order) []LineItem {
	out := make([]LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// OrderCreatedEvent is emitted after a checkout commits.
type OrderCreatedEvent struct {
	OrderID     string     `json:"orderId"`
	UserID      string     `json:"userId"`
	Items       []LineItem `json:"items"`
	TotalAmount string     `json:"totalAmount"`
	OccurredAt  time.Time  `json:"occurredAt"`
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Items:       lineItems(o),
		TotalAmount: o.TotalAmount.StringFixed(2),
		OccurredAt:  time.Now().UTC(),
	}
}

// OrderCancelledEvent is emitted after a cancellation restored stock.
type OrderCancelledEvent struct {
	OrderID string     `json:"orderId"`
	UserID  string     `json:"userId"`
	Items   []LineItem `json:"items"`
	// Skipped lists products that no longer existed and were not restocked.
	Skipped    []string  `json:"skipped,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order, skipped []string) OrderCancelledEvent {
	return OrderCancelledEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Items:      lineItems(o),
		Skipped:    skipped,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderStatusChangedEvent is emitted when an admin moves an order or its payment.
type OrderStatusChangedEvent struct {
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	From          Status    `json:"from"`
	To            Status    `json:"to"`
	PaymentStatus string    `json:"paymentStatus"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func NewOrderStatusChangedEvent(o *Order, from Status) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		From:          from,
		To:            o.Status,
		PaymentStatus: string(o.PaymentStatus),
		OccurredAt:    time.Now().UTC(),
	}
}

// ProductIDs lists the products an event touches.
func ProductIDs(items []LineItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
