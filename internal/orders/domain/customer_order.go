package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer order statuses
const (
	CustomerStatusNew                = "new"
	CustomerStatusInProgress         = "in_progress"
	CustomerStatusCompleted          = "completed"
	CustomerStatusPartiallyCompleted = "partially_completed"
	CustomerStatusCancelled          = "cancelled"
)

// CustomerOrder is an outbound business order fulfilled by picking
type CustomerOrder struct {
	ID           uint                `json:"id" gorm:"primaryKey"`
	OrderNumber  string              `json:"order_number" gorm:"uniqueIndex;not null"`
	CustomerName string              `json:"customer_name" gorm:"not null"`
	Status       string              `json:"status" gorm:"not null;default:'new'"`
	Notes        string              `json:"notes"`
	Items        []CustomerOrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	DeletedAt    gorm.DeletedAt      `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (CustomerOrder) TableName() string {
	return "customer_orders"
}

// CustomerOrderItem is one ordered line of a customer order
type CustomerOrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName specifies the table name
func (CustomerOrderItem) TableName() string {
	return "customer_order_items"
}

// CustomerOrderFilter narrows customer order listings
type CustomerOrderFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// CustomerOrderRepository defines the contract for customer order data access
type CustomerOrderRepository interface {
	Create(ctx context.Context, order *CustomerOrder) error
	FindByID(ctx context.Context, id uint) (*CustomerOrder, error)
	FindAll(ctx context.Context, filter CustomerOrderFilter) ([]CustomerOrder, error)
	Update(ctx context.Context, order *CustomerOrder) error
	// NextOrderNumber returns the next free number for the given prefix,
	// e.g. "RegOut" yields "RegOut-000042".
	NextOrderNumber(ctx context.Context, prefix string) (string, error)
}
