package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/regalator/wms/internal/orders/domain"
	"github.com/regalator/wms/pkg/database"
)

// nextOrderNumber parses the highest existing "{prefix}-NNNNNN" number and
// returns the next one. Runs inside the caller's transaction when one is
// active, so two concurrent creators cannot both get the same number without
// one of them failing the unique index.
func nextOrderNumber(db *gorm.DB, model interface{}, prefix string) (string, error) {
	var last string
	err := db.Model(model).
		Where("order_number LIKE ?", prefix+"-%").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &last).Error
	if err != nil {
		return "", err
	}

	next := 1
	if last != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, prefix+"-")); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s-%06d", prefix, next), nil
}

type GormCustomerOrderRepository struct {
	db *gorm.DB
}

func NewGormCustomerOrderRepository(db *gorm.DB) *GormCustomerOrderRepository {
	return &GormCustomerOrderRepository{db: db}
}

func (r *GormCustomerOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.CustomerOrder{}, &domain.CustomerOrderItem{})
}

func (r *GormCustomerOrderRepository) Create(ctx context.Context, order *domain.CustomerOrder) error {
	return database.FromContext(ctx, r.db).Create(order).Error
}

func (r *GormCustomerOrderRepository) FindByID(ctx context.Context, id uint) (*domain.CustomerOrder, error) {
	var order domain.CustomerOrder
	if err := database.FromContext(ctx, r.db).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormCustomerOrderRepository) FindAll(ctx context.Context, filter domain.CustomerOrderFilter) ([]domain.CustomerOrder, error) {
	db := database.FromContext(ctx, r.db).Model(&domain.CustomerOrder{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		db = db.Where("order_number ILIKE ? OR customer_name ILIKE ?", pattern, pattern)
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	var orders []domain.CustomerOrder
	err := db.Preload("Items").Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&orders).Error
	return orders, err
}

func (r *GormCustomerOrderRepository) Update(ctx context.Context, order *domain.CustomerOrder) error {
	return database.FromContext(ctx, r.db).Save(order).Error
}

func (r *GormCustomerOrderRepository) NextOrderNumber(ctx context.Context, prefix string) (string, error) {
	return nextOrderNumber(database.FromContext(ctx, r.db), &domain.CustomerOrder{}, prefix)
}

type GormSupplierOrderRepository struct {
	db *gorm.DB
}

func NewGormSupplierOrderRepository(db *gorm.DB) *GormSupplierOrderRepository {
	return &GormSupplierOrderRepository{db: db}
}

func (r *GormSupplierOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.SupplierOrder{}, &domain.SupplierOrderItem{})
}

func (r *GormSupplierOrderRepository) Create(ctx context.Context, order *domain.SupplierOrder) error {
	return database.FromContext(ctx, r.db).Create(order).Error
}

func (r *GormSupplierOrderRepository) FindByID(ctx context.Context, id uint) (*domain.SupplierOrder, error) {
	var order domain.SupplierOrder
	if err := database.FromContext(ctx, r.db).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormSupplierOrderRepository) FindAll(ctx context.Context, filter domain.SupplierOrderFilter) ([]domain.SupplierOrder, error) {
	db := database.FromContext(ctx, r.db).Model(&domain.SupplierOrder{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		db = db.Where("order_number ILIKE ? OR supplier_name ILIKE ?", pattern, pattern)
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	var orders []domain.SupplierOrder
	err := db.Preload("Items").Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&orders).Error
	return orders, err
}

func (r *GormSupplierOrderRepository) Update(ctx context.Context, order *domain.SupplierOrder) error {
	return database.FromContext(ctx, r.db).Save(order).Error
}

func (r *GormSupplierOrderRepository) UpdateItem(ctx context.Context, item *domain.SupplierOrderItem) error {
	return database.FromContext(ctx, r.db).Save(item).Error
}

func (r *GormSupplierOrderRepository) NextOrderNumber(ctx context.Context, prefix string) (string, error) {
	return nextOrderNumber(database.FromContext(ctx, r.db), &domain.SupplierOrder{}, prefix)
}

// IsNotFound reports whether err is the record-not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
