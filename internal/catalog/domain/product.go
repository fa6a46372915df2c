package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a product lookup finds nothing
var ErrProductNotFound = errors.New("product not found")

// Product represents a stockable item. A product with ParentID set is a
// variant (size/color) of its base product and shares the parent's groups.
type Product struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	Code        string   `json:"code" gorm:"uniqueIndex;not null"`
	Name        string   `json:"name" gorm:"not null"`
	Description string   `json:"description"`
	Barcode     string   `json:"barcode" gorm:"uniqueIndex;not null"`
	Unit        string   `json:"unit" gorm:"default:'szt'"`
	ParentID    *uint    `json:"parent_id" gorm:"index"`
	Parent      *Product `json:"-" gorm:"foreignKey:ParentID"`

	Groups []ProductGroup `json:"groups,omitempty" gorm:"many2many:product_group_memberships"`

	// Fields mirrored from the Subiekt ERP
	SubiektID            *int            `json:"subiekt_id" gorm:"index"`
	SubiektStock         decimal.Decimal `json:"subiekt_stock" gorm:"type:decimal(10,2);default:0"`
	SubiektStockReserved decimal.Decimal `json:"subiekt_stock_reserved" gorm:"type:decimal(10,2);default:0"`
	LastSyncAt           *time.Time      `json:"last_sync_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// IsVariant reports whether the product is a variant of a base product
func (p *Product) IsVariant() bool {
	return p.ParentID != nil
}

// ProductGroup groups related products
type ProductGroup struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	Color       string    `json:"color" gorm:"default:'#007bff'"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (ProductGroup) TableName() string {
	return "product_groups"
}

// ProductCode is an alias barcode/code entry pointing at a product. Scanners
// resolve against active entries before falling back to the product's own
// code and name.
type ProductCode struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	Code      string    `json:"code" gorm:"uniqueIndex;not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (ProductCode) TableName() string {
	return "product_codes"
}

// ProductFilter narrows product listings
type ProductFilter struct {
	Search  string
	GroupID uint
	Limit   int
	Offset  int
}

// ProductRepository defines the contract for catalog data access
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	// FindByCode resolves a scanned code: active alias entry first, then
	// exact case-insensitive code, then exact case-insensitive name.
	FindByCode(ctx context.Context, code string) (*Product, error)
	FindBySubiektID(ctx context.Context, subiektID int) (*Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, error)
	Update(ctx context.Context, product *Product) error

	GetOrCreateGroup(ctx context.Context, name string, defaults ProductGroup) (*ProductGroup, error)
	AddToGroup(ctx context.Context, product *Product, group *ProductGroup) error
	FindGroups(ctx context.Context) ([]ProductGroup, error)
}
