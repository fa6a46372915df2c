package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/regalator/wms/internal/inventory/domain"
	"github.com/regalator/wms/pkg/database"
)

type GormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Stock{})
}

func (r *GormStockRepository) GetOrCreate(ctx context.Context, productID, locationID uint) (*domain.Stock, error) {
	db := database.FromContext(ctx, r.db)

	var stock domain.Stock
	err := db.Where("product_id = ? AND location_id = ?", productID, locationID).First(&stock).Error
	if err == nil {
		return &stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	stock = domain.Stock{
		ProductID:        productID,
		LocationID:       locationID,
		Quantity:         decimal.Zero,
		ReservedQuantity: decimal.Zero,
	}
	if err := db.Create(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// Adjust locks the ledger row with SELECT ... FOR UPDATE and validates the
// resulting quantity inside the lock. Two operators racing on the same
// (product, location) pair serialize here; pairs that differ do not block
// each other.
func (r *GormStockRepository) Adjust(ctx context.Context, productID, locationID uint, delta decimal.Decimal, clampAtZero bool) (*domain.Stock, error) {
	db := database.FromContext(ctx, r.db)

	var stock domain.Stock
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stock = domain.Stock{
			ProductID:        productID,
			LocationID:       locationID,
			Quantity:         decimal.Zero,
			ReservedQuantity: decimal.Zero,
		}
		if err := db.Create(&stock).Error; err != nil {
			return nil, err
		}
		// Re-read under the lock so a concurrent creator cannot slip a
		// mutation between our create and update.
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND location_id = ?", productID, locationID).
			First(&stock).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	newQuantity := stock.Quantity.Add(delta)
	if newQuantity.IsNegative() {
		if !clampAtZero {
			return nil, domain.ErrInsufficientStock
		}
		newQuantity = decimal.Zero
	}

	stock.Quantity = newQuantity
	if err := db.Save(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *GormStockRepository) FindAll(ctx context.Context, filter domain.StockFilter) ([]domain.Stock, error) {
	db := database.FromContext(ctx, r.db).Model(&domain.Stock{})

	if filter.ProductID != 0 {
		db = db.Where("product_id = ?", filter.ProductID)
	}
	if filter.LocationID != 0 {
		db = db.Where("location_id = ?", filter.LocationID)
	}
	if filter.NonZero {
		db = db.Where("quantity > 0")
	}
	if filter.Limit == 0 {
		filter.Limit = 100
	}

	var stocks []domain.Stock
	err := db.Order("location_id, product_id").Limit(filter.Limit).Offset(filter.Offset).Find(&stocks).Error
	return stocks, err
}

func (r *GormStockRepository) TopLocationForProduct(ctx context.Context, productID uint) (*domain.Stock, error) {
	var stock domain.Stock
	err := database.FromContext(ctx, r.db).
		Where("product_id = ? AND quantity > 0", productID).
		Order("quantity DESC").
		First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}
