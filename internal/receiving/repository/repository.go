package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/regalator/wms/internal/receiving/domain"
	"github.com/regalator/wms/pkg/database"
)

type GormReceivingRepository struct {
	db *gorm.DB
}

func NewGormReceivingRepository(db *gorm.DB) *GormReceivingRepository {
	return &GormReceivingRepository{db: db}
}

func (r *GormReceivingRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.ReceivingOrder{}, &domain.ReceivingItem{}, &domain.ReceivingHistory{})
}

func (r *GormReceivingRepository) Create(ctx context.Context, order *domain.ReceivingOrder) error {
	return database.FromContext(ctx, r.db).Create(order).Error
}

func (r *GormReceivingRepository) FindByID(ctx context.Context, id uint) (*domain.ReceivingOrder, error) {
	var order domain.ReceivingOrder
	err := database.FromContext(ctx, r.db).Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormReceivingRepository) FindAll(ctx context.Context, filter domain.ReceivingOrderFilter) ([]domain.ReceivingOrder, error) {
	db := database.FromContext(ctx, r.db).Model(&domain.ReceivingOrder{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.OperatorID != 0 {
		db = db.Where("operator_id = ?", filter.OperatorID)
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	var orders []domain.ReceivingOrder
	err := db.Preload("Items").Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&orders).Error
	return orders, err
}

func (r *GormReceivingRepository) Update(ctx context.Context, order *domain.ReceivingOrder) error {
	return database.FromContext(ctx, r.db).Save(order).Error
}

func (r *GormReceivingRepository) UpdateItem(ctx context.Context, item *domain.ReceivingItem) error {
	return database.FromContext(ctx, r.db).Save(item).Error
}

func (r *GormReceivingRepository) FindItem(ctx context.Context, orderID, itemID uint) (*domain.ReceivingItem, error) {
	var item domain.ReceivingItem
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

func (r *GormReceivingRepository) FindItemForProduct(ctx context.Context, orderID, productID uint) (*domain.ReceivingItem, error) {
	var item domain.ReceivingItem
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

func (r *GormReceivingRepository) AddHistory(ctx context.Context, entry *domain.ReceivingHistory) error {
	return database.FromContext(ctx, r.db).Create(entry).Error
}

func (r *GormReceivingRepository) HasActiveReceivingOrder(ctx context.Context, supplierOrderID uint) (bool, error) {
	var count int64
	err := database.FromContext(ctx, r.db).
		Model(&domain.ReceivingOrder{}).
		Where("supplier_order_id = ? AND status IN ?", supplierOrderID,
			[]string{domain.StatusPending, domain.StatusInProgress}).
		Count(&count).Error
	return count > 0, err
}

func (r *GormReceivingRepository) HasAnyReceivingOrder(ctx context.Context, supplierOrderID uint) (bool, error) {
	var count int64
	err := database.FromContext(ctx, r.db).
		Model(&domain.ReceivingOrder{}).
		Where("supplier_order_id = ?", supplierOrderID).
		Count(&count).Error
	return count > 0, err
}
