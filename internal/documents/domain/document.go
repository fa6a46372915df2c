package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDocumentNotFound is returned when a document lookup finds nothing
var ErrDocumentNotFound = errors.New("document not found")

// Warehouse document types
const (
	TypeOutbound = "WZ"
	TypeInbound  = "PZ"
	TypeTransfer = "MM"
)

// WarehouseDocument is the paper trail of a completed fulfillment order: one
// header plus one line per positively fulfilled (product, location) pair.
type WarehouseDocument struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Number      string         `json:"number" gorm:"uniqueIndex;not null"`
	Type        string         `json:"type" gorm:"not null"`
	OrderNumber string         `json:"order_number" gorm:"index;not null"`
	OperatorID  uint           `json:"operator_id" gorm:"not null"`
	Notes       string         `json:"notes"`
	Items       []DocumentItem `json:"items" gorm:"foreignKey:DocumentID"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName specifies the table name
func (WarehouseDocument) TableName() string {
	return "warehouse_documents"
}

// DocumentItem is one line of a warehouse document
type DocumentItem struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	DocumentID uint            `json:"document_id" gorm:"not null;index"`
	ProductID  uint            `json:"product_id" gorm:"not null"`
	LocationID uint            `json:"location_id" gorm:"not null"`
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:decimal(10,2);not null"`
}

// TableName specifies the table name
func (DocumentItem) TableName() string {
	return "warehouse_document_items"
}

// DocumentFilter narrows document listings
type DocumentFilter struct {
	Type   string
	Search string
	Limit  int
	Offset int
}

// DocumentRepository defines the contract for warehouse document data access
type DocumentRepository interface {
	Create(ctx context.Context, document *WarehouseDocument) error
	FindByID(ctx context.Context, id uint) (*WarehouseDocument, error)
	FindAll(ctx context.Context, filter DocumentFilter) ([]WarehouseDocument, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}
