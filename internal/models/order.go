package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
	OrderReturned   OrderStatus = "Returned"
)

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(value string) (OrderStatus, bool) {
	switch OrderStatus(value) {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled, OrderReturned:
		return OrderStatus(value), true
	}
	return "", false
}

// orderTransitions is the allowed edge set of the order state machine.
// Cancelled and Returned have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderReturned},
	OrderDelivered:  {OrderReturned},
}

// CanTransitionTo reports whether the status graph allows moving to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanCancel reports whether a vendor may still cancel from this status.
func (s OrderStatus) CanCancel() bool {
	return s == OrderPending || s == OrderProcessing
}

// PaymentStatus is the payment state of an order. Unlike OrderStatus it has
// no transition graph; admins set it unconditionally.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

// ParsePaymentStatus validates a raw payment status string.
func ParsePaymentStatus(value string) (PaymentStatus, bool) {
	switch PaymentStatus(value) {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return PaymentStatus(value), true
	}
	return "", false
}

// Order ties a vendor account to a supplier account. Line items and money
// fields are snapshots taken at placement; the record is only mutated through
// the status and payment operations.
type Order struct {
	BaseModel
	OrderNumber string    `gorm:"uniqueIndex" json:"order_number"`
	VendorID    uuid.UUID `gorm:"type:uuid;index" json:"vendor_id"`
	Vendor      *User     `json:"vendor,omitempty"`
	SupplierID  uuid.UUID `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier    *User     `json:"supplier,omitempty"`

	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method"`

	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	ShippingFee float64 `json:"shipping_fee"`
	Discount    float64 `json:"discount"`
	GrandTotal  float64 `json:"grand_total"`

	DeliveryAddress string `json:"delivery_address"`
	DeliveryCity    string `json:"delivery_city"`
	Notes           string `json:"notes"`

	PlacedAt             time.Time  `json:"placed_at"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate   *time.Time `json:"actual_delivery_date,omitempty"`

	Items         []OrderItem        `json:"items,omitempty"`
	StatusHistory []OrderStatusEvent `gorm:"foreignKey:OrderID" json:"status_history,omitempty"`
}

// OrderItem is a creation-time snapshot of a purchased product; later product
// mutations do not touch it.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName string     `json:"product_name"`
	Unit        Unit       `json:"unit"`
	UnitPrice   float64    `json:"unit_price"`
	Quantity    int        `json:"quantity"`
	LineTotal   float64    `json:"line_total"`
}

// OrderStatusEvent is one entry of the append-only status history log.
type OrderStatusEvent struct {
	BaseModel
	OrderID uuid.UUID   `gorm:"type:uuid;index" json:"order_id"`
	Status  OrderStatus `json:"status"`
	Note    string      `json:"note"`
}
