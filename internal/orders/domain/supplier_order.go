package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supplier order statuses. Status is derived from the receiving aggregate,
// never set directly by an operator.
const (
	SupplierStatusPending           = "pending"
	SupplierStatusConfirmed         = "confirmed"
	SupplierStatusInTransit         = "in_transit"
	SupplierStatusInReceiving       = "in_receiving"
	SupplierStatusReceived          = "received"
	SupplierStatusPartiallyReceived = "partially_received"
	SupplierStatusCancelled         = "cancelled"
)

// SupplierOrder is an inbound business order fulfilled by receiving
type SupplierOrder struct {
	ID                   uint                `json:"id" gorm:"primaryKey"`
	OrderNumber          string              `json:"order_number" gorm:"uniqueIndex;not null"`
	SupplierName         string              `json:"supplier_name" gorm:"not null"`
	Status               string              `json:"status" gorm:"not null;default:'pending'"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date"`
	ActualDeliveryDate   *time.Time          `json:"actual_delivery_date"`
	Notes                string              `json:"notes"`
	Items                []SupplierOrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	DeletedAt            gorm.DeletedAt      `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (SupplierOrder) TableName() string {
	return "supplier_orders"
}

// SupplierOrderItem is one ordered line of a supplier order
type SupplierOrderItem struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	OrderID          uint            `json:"order_id" gorm:"not null;index"`
	ProductID        uint            `json:"product_id" gorm:"not null"`
	OrderedQuantity  decimal.Decimal `json:"ordered_quantity" gorm:"type:decimal(10,2);not null"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (SupplierOrderItem) TableName() string {
	return "supplier_order_items"
}

// SupplierOrderFilter narrows supplier order listings
type SupplierOrderFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// SupplierOrderRepository defines the contract for supplier order data access
type SupplierOrderRepository interface {
	Create(ctx context.Context, order *SupplierOrder) error
	FindByID(ctx context.Context, id uint) (*SupplierOrder, error)
	FindAll(ctx context.Context, filter SupplierOrderFilter) ([]SupplierOrder, error)
	Update(ctx context.Context, order *SupplierOrder) error
	UpdateItem(ctx context.Context, item *SupplierOrderItem) error
	NextOrderNumber(ctx context.Context, prefix string) (string, error)
}
