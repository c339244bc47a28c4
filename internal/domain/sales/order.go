package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a store order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPaid,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanRecalculateTaxes returns true while the order has not been cancelled
func (s OrderStatus) CanRecalculateTaxes() bool {
	return s != OrderStatusCancelled
}

// OrderItem is a line of an order
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// Order is a store order as seen by the tax engine
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber     string
	CustomerID      uuid.UUID
	Status          OrderStatus
	Items           []OrderItem
	Subtotal        decimal.Decimal
	ShippingAmount  decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	TaxCalculatedAt *time.Time
}

// NewOrder creates a pending order without items
func NewOrder(tenantID, customerID uuid.UUID, orderNumber string) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	return &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerID:          customerID,
		Status:              OrderStatusPending,
		Items:               make([]OrderItem, 0),
		Subtotal:            decimal.Zero,
		ShippingAmount:      decimal.Zero,
		DiscountAmount:      decimal.Zero,
		TaxAmount:           decimal.Zero,
		TotalAmount:         decimal.Zero,
	}, nil
}

// AddItem appends a line and refreshes the subtotal
func (o *Order) AddItem(productID uuid.UUID, quantity, unitPrice decimal.Decimal) (*OrderItem, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Items can only be added to pending orders")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	item := OrderItem{
		ID:         uuid.New(),
		OrderID:    o.ID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: quantity.Mul(unitPrice).Round(valueobject.CurrencyPlaces),
	}
	o.Items = append(o.Items, item)
	o.recalculateSubtotal()
	o.recalculateTotal()
	o.Touch()
	return &o.Items[len(o.Items)-1], nil
}

// SetShipping sets the freight charged to the customer
func (o *Order) SetShipping(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Shipping cannot be negative")
	}
	o.ShippingAmount = amount
	o.recalculateTotal()
	o.Touch()
	return nil
}

// ApplyDiscount sets the order level discount
func (o *Order) ApplyDiscount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Discount cannot be negative")
	}
	if amount.GreaterThan(o.Subtotal.Add(o.ShippingAmount)) {
		return shared.NewDomainError("INVALID_AMOUNT", "Discount cannot exceed subtotal plus shipping")
	}
	o.DiscountAmount = amount
	o.recalculateTotal()
	o.Touch()
	return nil
}

// ApplyTaxes records the computed tax and recomputes the total
func (o *Order) ApplyTaxes(tax valueobject.Money) error {
	if !o.Status.CanRecalculateTaxes() {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply taxes to a cancelled order")
	}
	if tax.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Tax amount cannot be negative")
	}
	now := time.Now()
	o.TaxAmount = tax.RoundCurrency().Amount()
	o.TaxCalculatedAt = &now
	o.recalculateTotal()
	o.Touch()
	return nil
}

// Cancel marks the order as cancelled
func (o *Order) Cancel() error {
	if o.Status == OrderStatusCancelled || o.Status == OrderStatusDelivered {
		return shared.NewDomainError("INVALID_STATE", "Order cannot be cancelled in status "+string(o.Status))
	}
	o.Status = OrderStatusCancelled
	o.Touch()
	return nil
}

// ItemCount returns the number of lines
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// ProductIDs returns the distinct products in the order
func (o *Order) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

func (o *Order) recalculateSubtotal() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	o.Subtotal = subtotal
}

// recalculateTotal applies total = subtotal + shipping - discount + tax
func (o *Order) recalculateTotal() {
	o.TotalAmount = o.Subtotal.
		Add(o.ShippingAmount).
		Sub(o.DiscountAmount).
		Add(o.TaxAmount)
}
