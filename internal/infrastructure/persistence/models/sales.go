package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the store Order aggregate root.
type OrderModel struct {
	TenantAggregateModel
	OrderNumber     string           `gorm:"type:varchar(50);not null"`
	CustomerID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status          string           `gorm:"type:varchar(20);not null;default:'pending'"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	Subtotal        decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingAmount  decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountAmount  decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount       decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount     decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	TaxCalculatedAt *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *sales.Order {
	o := &sales.Order{
		OrderNumber:     m.OrderNumber,
		CustomerID:      m.CustomerID,
		Status:          sales.OrderStatus(m.Status),
		Subtotal:        m.Subtotal,
		ShippingAmount:  m.ShippingAmount,
		DiscountAmount:  m.DiscountAmount,
		TaxAmount:       m.TaxAmount,
		TotalAmount:     m.TotalAmount,
		TaxCalculatedAt: m.TaxCalculatedAt,
		Items:           make([]sales.OrderItem, len(m.Items)),
	}
	o.TenantAggregateRoot = m.root()
	for i, item := range m.Items {
		o.Items[i] = item.ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *sales.Order) {
	m.setRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.Status = string(o.Status)
	m.Subtotal = o.Subtotal
	m.ShippingAmount = o.ShippingAmount
	m.DiscountAmount = o.DiscountAmount
	m.TaxAmount = o.TaxAmount
	m.TotalAmount = o.TotalAmount
	m.TaxCalculatedAt = o.TaxCalculatedAt
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = OrderItemModelFromDomain(&o.Items[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *sales.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an order line.
type OrderItemModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() sales.OrderItem {
	return sales.OrderItem{
		ID:         m.ID,
		OrderID:    m.OrderID,
		ProductID:  m.ProductID,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice,
		TotalPrice: m.TotalPrice,
	}
}

// OrderItemModelFromDomain creates a persistence model from a domain OrderItem
func OrderItemModelFromDomain(item *sales.OrderItem) OrderItemModel {
	return OrderItemModel{
		ID:         item.ID,
		OrderID:    item.OrderID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
		UnitPrice:  item.UnitPrice,
		TotalPrice: item.TotalPrice,
	}
}

// ProductModel is the catalog row read by the tax engine.
type ProductModel struct {
	BaseModel
	TenantID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name     string          `gorm:"type:varchar(200);not null"`
	SKU      string          `gorm:"type:varchar(50)"`
	Price    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Active   bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *sales.Product {
	return &sales.Product{
		ID:       m.ID,
		TenantID: m.TenantID,
		Name:     m.Name,
		SKU:      m.SKU,
		Price:    m.Price,
		Active:   m.Active,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *sales.Product) *ProductModel {
	now := time.Now()
	return &ProductModel{
		BaseModel: BaseModel{ID: p.ID, CreatedAt: now, UpdatedAt: now},
		TenantID:  p.TenantID,
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		Active:    p.Active,
	}
}

// CustomerModel is the customer row read by the tax engine. Address holds the
// storefront's raw address document.
type CustomerModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(200);not null"`
	Document string    `gorm:"type:varchar(20)"`
	Address  string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *sales.Customer {
	return &sales.Customer{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Document:    m.Document,
		AddressJSON: m.Address,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *sales.Customer) *CustomerModel {
	now := time.Now()
	return &CustomerModel{
		BaseModel: BaseModel{ID: c.ID, CreatedAt: now, UpdatedAt: now},
		TenantID:  c.TenantID,
		Name:      c.Name,
		Document:  c.Document,
		Address:   c.AddressJSON,
	}
}
