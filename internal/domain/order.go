package domain

import (
	"errors"
	"time"
)

// Order pricing rules, in minor currency units.
const (
	FreeShippingThreshold int64 = 10000
	FlatShippingPrice     int64 = 1000
	TaxRatePercent        int64 = 15
)

// Order state transition errors.
var (
	ErrOrderAlreadyPaid      = errors.New("order already paid")
	ErrOrderAlreadyDelivered = errors.New("order already delivered")
	ErrOrderNotPaid          = errors.New("order is not paid")
)

// OrderItem is a product line priced at the time the order was placed.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// ShippingAddress is where an order ships to.
type ShippingAddress struct {
	Address    string `json:"address" label:"Address" validate:"required,notblank"`
	City       string `json:"city" label:"City" validate:"required,notblank"`
	PostalCode string `json:"postal_code" label:"PostalCode" validate:"required,notblank"`
	Country    string `json:"country" label:"Country" validate:"required,notblank"`
}

// PaymentResult is what the payment provider reported.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

// Order is a customer purchase.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentResult   *PaymentResult  `json:"payment_result,omitempty"`
	ItemsPrice      int64           `json:"items_price"`
	TaxPrice        int64           `json:"tax_price"`
	ShippingPrice   int64           `json:"shipping_price"`
	TotalPrice      int64           `json:"total_price"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	IsDelivered     bool            `json:"is_delivered"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Prices is the computed price breakdown of an order.
type Prices struct {
	Items    int64
	Tax      int64
	Shipping int64
	Total    int64
}

// CalculatePrices prices items: shipping is free above the threshold and
// tax is rounded half up to the nearest minor unit.
func CalculatePrices(items []OrderItem) Prices {
	var p Prices
	for _, it := range items {
		p.Items += it.Price * int64(it.Quantity)
	}
	if p.Items <= FreeShippingThreshold {
		p.Shipping = FlatShippingPrice
	}
	p.Tax = (p.Items*TaxRatePercent + 50) / 100
	p.Total = p.Items + p.Tax + p.Shipping
	return p
}

// VisibleTo reports whether userID may read the order.
func (o *Order) VisibleTo(userID string, admin bool) bool {
	return admin || o.UserID == userID
}

// MarkPaid records a successful payment. An order can be paid once.
func (o *Order) MarkPaid(result PaymentResult, now time.Time) error {
	if o.IsPaid {
		return ErrOrderAlreadyPaid
	}
	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = &result
	o.UpdatedAt = now
	return nil
}

// MarkDelivered records delivery of a paid order. An order can be delivered
// once.
func (o *Order) MarkDelivered(now time.Time) error {
	if !o.IsPaid {
		return ErrOrderNotPaid
	}
	if o.IsDelivered {
		return ErrOrderAlreadyDelivered
	}
	o.IsDelivered = true
	o.DeliveredAt = &now
	o.UpdatedAt = now
	return nil
}

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID string `json:"product_id" label:"ProductID" validate:"required,uuid"`
	Quantity  int    `json:"quantity" label:"Quantity" validate:"required,gt=0,lte=1000"`
}

// CreateOrderInput is the body of a create-order request.
type CreateOrderInput struct {
	Items           []OrderItemInput `json:"items" label:"Items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress  `json:"shipping_address" label:"ShippingAddress" validate:"required"`
	PaymentMethod   string           `json:"payment_method" label:"PaymentMethod" validate:"required,notblank"`
}

// PayOrderInput is the body of a pay-order request.
type PayOrderInput struct {
	ID           string `json:"id" label:"ID" validate:"required"`
	Status       string `json:"status" label:"Status" validate:"required"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address" label:"EmailAddress" validate:"omitempty,email"`
}

// SalesTotal is the paid revenue of one calendar day (UTC).
type SalesTotal struct {
	Date       string `json:"date"`
	TotalSales int64  `json:"total_sales"`
}
