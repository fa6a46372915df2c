package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Receiving order statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ErrOrderNotFound is returned when a receiving order lookup finds nothing
var ErrOrderNotFound = errors.New("receiving order not found")

// ErrItemNotFound is returned when a receiving item lookup finds nothing
var ErrItemNotFound = errors.New("receiving item not found")

// ErrActiveOrderExists rejects creating a second active receiving order for
// the same supplier order
var ErrActiveOrderExists = errors.New("an active receiving order already exists for this order")

// ReceivingOrder is the inbound fulfillment order for one supplier order
type ReceivingOrder struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	SupplierOrderID uint            `json:"supplier_order_id" gorm:"not null;index"`
	Status          string          `json:"status" gorm:"not null;default:'pending'"`
	OperatorID      *uint           `json:"operator_id" gorm:"index"`
	StartedAt       *time.Time      `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
	Items           []ReceivingItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (ReceivingOrder) TableName() string {
	return "receiving_orders"
}

// IsActive reports whether the order still accepts scan events
func (o *ReceivingOrder) IsActive() bool {
	return o.Status == StatusPending || o.Status == StatusInProgress
}

// ReceivingItem is one line to receive. LocationID is assigned by the first
// successful intake; the received quantity mirrors into the supplier order
// line referenced by SupplierItemID.
type ReceivingItem struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	OrderID           uint            `json:"order_id" gorm:"not null;index"`
	SupplierItemID    uint            `json:"supplier_item_id" gorm:"not null"`
	ProductID         uint            `json:"product_id" gorm:"not null"`
	LocationID        *uint           `json:"location_id"`
	TargetQuantity    decimal.Decimal `json:"target_quantity" gorm:"type:decimal(10,2);not null"`
	FulfilledQuantity decimal.Decimal `json:"fulfilled_quantity" gorm:"type:decimal(10,2);not null;default:0"`
	IsCompleted       bool            `json:"is_completed" gorm:"not null;default:false"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (ReceivingItem) TableName() string {
	return "receiving_items"
}

// Remaining returns how much is still to receive
func (i *ReceivingItem) Remaining() decimal.Decimal {
	return i.TargetQuantity.Sub(i.FulfilledQuantity)
}

// ReceivingHistory is the immutable audit row for one movement, signed:
// reversals write a negative quantity.
type ReceivingHistory struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	ItemID     uint            `json:"item_id" gorm:"not null;index"`
	OperatorID uint            `json:"operator_id" gorm:"not null"`
	LocationID uint            `json:"location_id" gorm:"not null"`
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName specifies the table name
func (ReceivingHistory) TableName() string {
	return "receiving_history"
}

// ReceivingOrderFilter narrows receiving order listings
type ReceivingOrderFilter struct {
	Status     string
	OperatorID uint
	Limit      int
	Offset     int
}

// ReceivingRepository defines the contract for receiving data access. The
// HasActiveReceivingOrder and HasAnyReceivingOrder methods feed the supplier
// order status reconciler.
type ReceivingRepository interface {
	Create(ctx context.Context, order *ReceivingOrder) error
	FindByID(ctx context.Context, id uint) (*ReceivingOrder, error)
	FindAll(ctx context.Context, filter ReceivingOrderFilter) ([]ReceivingOrder, error)
	Update(ctx context.Context, order *ReceivingOrder) error
	UpdateItem(ctx context.Context, item *ReceivingItem) error
	FindItem(ctx context.Context, orderID, itemID uint) (*ReceivingItem, error)
	FindItemForProduct(ctx context.Context, orderID, productID uint) (*ReceivingItem, error)
	AddHistory(ctx context.Context, entry *ReceivingHistory) error
	HasActiveReceivingOrder(ctx context.Context, supplierOrderID uint) (bool, error)
	HasAnyReceivingOrder(ctx context.Context, supplierOrderID uint) (bool, error)
}
