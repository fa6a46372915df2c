package domain

import (
	"context"
	"errors"
	"time"
)

// ErrLocationNotFound is returned when a location lookup finds nothing
var ErrLocationNotFound = errors.New("location not found")

// Location types
const (
	TypeShelf = "shelf"
	TypeRack  = "rack"
	TypeZone  = "zone"
)

// Location is a place in the warehouse identified by a globally unique barcode
type Location struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Type        string    `json:"type" gorm:"not null;default:'shelf'"`
	Barcode     string    `json:"barcode" gorm:"uniqueIndex;not null"`
	ParentID    *uint     `json:"parent_id" gorm:"index"`
	Parent      *Location `json:"-" gorm:"foreignKey:ParentID"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name
func (Location) TableName() string {
	return "locations"
}

// LocationFilter narrows location listings
type LocationFilter struct {
	Search string
	Type   string
	Limit  int
	Offset int
}

// LocationRepository defines the contract for location data access
type LocationRepository interface {
	Create(ctx context.Context, location *Location) error
	FindByID(ctx context.Context, id uint) (*Location, error)
	// FindByBarcodeOrName resolves a scanned value: exact barcode match
	// first, then case-insensitive exact name.
	FindByBarcodeOrName(ctx context.Context, value string) (*Location, error)
	FindAll(ctx context.Context, filter LocationFilter) ([]Location, error)
	Update(ctx context.Context, location *Location) error
}
