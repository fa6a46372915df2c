package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInsufficientStock is returned when an outbound adjustment would drive
// the quantity below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// Stock is the ledger row: quantity of one product at one location. Rows are
// created lazily on first movement and never deleted; a zero-quantity row is
// history of the pair having been used.
type Stock struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	ProductID        uint            `json:"product_id" gorm:"not null;uniqueIndex:idx_stock_product_location,priority:1"`
	LocationID       uint            `json:"location_id" gorm:"not null;uniqueIndex:idx_stock_product_location,priority:2"`
	Quantity         decimal.Decimal `json:"quantity" gorm:"type:decimal(10,2);not null;default:0"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (Stock) TableName() string {
	return "stocks"
}

// StockFilter narrows stock listings
type StockFilter struct {
	ProductID  uint
	LocationID uint
	NonZero    bool
	Limit      int
	Offset     int
}

// StockRepository is the ledger contract. Adjust must serialize concurrent
// adjustments to the same (product, location) pair with a row lock and
// re-validate inside the lock.
type StockRepository interface {
	GetOrCreate(ctx context.Context, productID, locationID uint) (*Stock, error)
	// Adjust applies a signed delta under a row lock. With clampAtZero set
	// a negative result is floored to zero (receiving corrections);
	// otherwise it fails with ErrInsufficientStock and no mutation.
	Adjust(ctx context.Context, productID, locationID uint, delta decimal.Decimal, clampAtZero bool) (*Stock, error)
	FindAll(ctx context.Context, filter StockFilter) ([]Stock, error)
	// TopLocationForProduct returns the stock row holding the largest
	// quantity of the product, used to preassign picking locations.
	TopLocationForProduct(ctx context.Context, productID uint) (*Stock, error)
}
