package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Picking order statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ErrOrderNotFound is returned when a picking order lookup finds nothing
var ErrOrderNotFound = errors.New("picking order not found")

// ErrActiveOrderExists rejects creating a second active picking order for the
// same customer order
var ErrActiveOrderExists = errors.New("an active picking order already exists for this order")

// ErrItemNotFound is returned when a picking item lookup finds nothing
var ErrItemNotFound = errors.New("picking item not found")

// PickingOrder is the outbound fulfillment order for one customer order
type PickingOrder struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	CustomerOrderID uint          `json:"customer_order_id" gorm:"not null;index"`
	Status          string        `json:"status" gorm:"not null;default:'pending'"`
	OperatorID      *uint         `json:"operator_id" gorm:"index"`
	StartedAt       *time.Time    `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at"`
	Items           []PickingItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName specifies the table name
func (PickingOrder) TableName() string {
	return "picking_orders"
}

// IsActive reports whether the order still accepts scan events
func (o *PickingOrder) IsActive() bool {
	return o.Status == StatusPending || o.Status == StatusInProgress
}

// PickingItem is one line to pick. LocationID is preassigned to the location
// holding the most stock and may be nil when the product is nowhere on stock.
type PickingItem struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	OrderID           uint            `json:"order_id" gorm:"not null;index"`
	ProductID         uint            `json:"product_id" gorm:"not null"`
	LocationID        *uint           `json:"location_id"`
	TargetQuantity    decimal.Decimal `json:"target_quantity" gorm:"type:decimal(10,2);not null"`
	FulfilledQuantity decimal.Decimal `json:"fulfilled_quantity" gorm:"type:decimal(10,2);not null;default:0"`
	IsCompleted       bool            `json:"is_completed" gorm:"not null;default:false"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (PickingItem) TableName() string {
	return "picking_items"
}

// Remaining returns how much is still to pick
func (i *PickingItem) Remaining() decimal.Decimal {
	return i.TargetQuantity.Sub(i.FulfilledQuantity)
}

// PickingHistory is the immutable audit row for one movement. Reversals
// write a compensating entry with a negative quantity.
type PickingHistory struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	ItemID     uint            `json:"item_id" gorm:"not null;index"`
	OperatorID uint            `json:"operator_id" gorm:"not null"`
	LocationID uint            `json:"location_id" gorm:"not null"`
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName specifies the table name
func (PickingHistory) TableName() string {
	return "picking_history"
}

// PickingOrderFilter narrows picking order listings
type PickingOrderFilter struct {
	Status          string
	OperatorID      uint
	CustomerOrderID uint
	Limit           int
	Offset          int
}

// PickingRepository defines the contract for picking data access
type PickingRepository interface {
	Create(ctx context.Context, order *PickingOrder) error
	FindByID(ctx context.Context, id uint) (*PickingOrder, error)
	FindAll(ctx context.Context, filter PickingOrderFilter) ([]PickingOrder, error)
	Update(ctx context.Context, order *PickingOrder) error
	UpdateItem(ctx context.Context, item *PickingItem) error
	FindItem(ctx context.Context, orderID, itemID uint) (*PickingItem, error)
	// FindItemForProduct locates the order line for a product. A not-yet
	// fully picked line is preferred when the product appears on several.
	FindItemForProduct(ctx context.Context, orderID, productID uint) (*PickingItem, error)
	AddHistory(ctx context.Context, entry *PickingHistory) error
	HasActiveOrderFor(ctx context.Context, customerOrderID uint) (bool, error)
	HasAnyOrderFor(ctx context.Context, customerOrderID uint) (bool, error)
}
