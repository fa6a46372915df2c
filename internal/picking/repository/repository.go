package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/regalator/wms/internal/picking/domain"
	"github.com/regalator/wms/pkg/database"
)

type GormPickingRepository struct {
	db *gorm.DB
}

func NewGormPickingRepository(db *gorm.DB) *GormPickingRepository {
	return &GormPickingRepository{db: db}
}

func (r *GormPickingRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.PickingOrder{}, &domain.PickingItem{}, &domain.PickingHistory{})
}

func (r *GormPickingRepository) Create(ctx context.Context, order *domain.PickingOrder) error {
	return database.FromContext(ctx, r.db).Create(order).Error
}

func (r *GormPickingRepository) FindByID(ctx context.Context, id uint) (*domain.PickingOrder, error) {
	var order domain.PickingOrder
	err := database.FromContext(ctx, r.db).Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormPickingRepository) FindAll(ctx context.Context, filter domain.PickingOrderFilter) ([]domain.PickingOrder, error) {
	db := database.FromContext(ctx, r.db).Model(&domain.PickingOrder{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.OperatorID != 0 {
		db = db.Where("operator_id = ?", filter.OperatorID)
	}
	if filter.CustomerOrderID != 0 {
		db = db.Where("customer_order_id = ?", filter.CustomerOrderID)
	}
	// Customer-scoped queries feed status derivation and must see every
	// order, so the default page size only applies to unscoped listings.
	if filter.Limit == 0 && filter.CustomerOrderID == 0 {
		filter.Limit = 50
	}

	db = db.Preload("Items").Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}

	var orders []domain.PickingOrder
	err := db.Find(&orders).Error
	return orders, err
}

func (r *GormPickingRepository) Update(ctx context.Context, order *domain.PickingOrder) error {
	return database.FromContext(ctx, r.db).Save(order).Error
}

func (r *GormPickingRepository) UpdateItem(ctx context.Context, item *domain.PickingItem) error {
	return database.FromContext(ctx, r.db).Save(item).Error
}

func (r *GormPickingRepository) FindItem(ctx context.Context, orderID, itemID uint) (*domain.PickingItem, error) {
	var item domain.PickingItem
	err := database.FromContext(ctx, r.db).
		Where("order_id = ? AND id = ?", orderID, itemID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormPickingRepository) FindItemForProduct(ctx context.Context, orderID, productID uint) (*domain.PickingItem, error) {
	var item domain.PickingItem
	err := database.FromContext(ctx, r.db).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		Order("is_completed, id").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormPickingRepository) AddHistory(ctx context.Context, entry *domain.PickingHistory) error {
	return database.FromContext(ctx, r.db).Create(entry).Error
}

func (r *GormPickingRepository) HasActiveOrderFor(ctx context.Context, customerOrderID uint) (bool, error) {
	var count int64
	err := database.FromContext(ctx, r.db).
		Model(&domain.PickingOrder{}).
		Where("customer_order_id = ? AND status IN ?", customerOrderID,
			[]string{domain.StatusPending, domain.StatusInProgress}).
		Count(&count).Error
	return count > 0, err
}

func (r *GormPickingRepository) HasAnyOrderFor(ctx context.Context, customerOrderID uint) (bool, error) {
	var count int64
	err := database.FromContext(ctx, r.db).
		Model(&domain.PickingOrder{}).
		Where("customer_order_id = ?", customerOrderID).
		Count(&count).Error
	return count > 0, err
}
