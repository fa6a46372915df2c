package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/regalator/wms/internal/catalog/domain"
	"github.com/regalator/wms/pkg/database"
)

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{}, &domain.ProductGroup{}, &domain.ProductCode{})
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return database.FromContext(ctx, r.db).Create(product).Error
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	if err := database.FromContext(ctx, r.db).Preload("Groups").First(&product, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrProductNotFound
	}
	return err
}

// FindByCode resolves a scanned product code. Resolution order matters for
// scanner behavior: an active alias entry wins over the product's own code,
// which wins over the product name. Code and name matches are
// case-insensitive.
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	db := database.FromContext(ctx, r.db)
	code = strings.TrimSpace(code)

	var alias domain.ProductCode
	err := db.Where("code = ? AND is_active = ?", code, true).First(&alias).Error
	if err == nil {
		var product domain.Product
		if err := db.First(&product, alias.ProductID).Error; err != nil {
			return nil, err
		}
		return &product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var product domain.Product
	err = db.Where("LOWER(code) = LOWER(?)", code).First(&product).Error
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := db.Where("LOWER(name) = LOWER(?)", code).First(&product).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (r *GormProductRepository) FindBySubiektID(ctx context.Context, subiektID int) (*domain.Product, error) {
	var product domain.Product
	if err := database.FromContext(ctx, r.db).Where("subiekt_id = ?", subiektID).First(&product).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (r *GormProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	db := database.FromContext(ctx, r.db).Model(&domain.Product{}).Preload("Groups")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		db = db.Where("code ILIKE ? OR name ILIKE ? OR barcode ILIKE ?", pattern, pattern, pattern)
	}
	if filter.GroupID != 0 {
		db = db.Joins("JOIN product_group_memberships pgm ON pgm.product_id = products.id").
			Where("pgm.product_group_id = ?", filter.GroupID)
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	var products []domain.Product
	err := db.Order("name").Limit(filter.Limit).Offset(filter.Offset).Find(&products).Error
	return products, err
}

func (r *GormProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return database.FromContext(ctx, r.db).Save(product).Error
}

func (r *GormProductRepository) GetOrCreateGroup(ctx context.Context, name string, defaults domain.ProductGroup) (*domain.ProductGroup, error) {
	db := database.FromContext(ctx, r.db)

	var group domain.ProductGroup
	err := db.Where("name = ?", name).First(&group).Error
	if err == nil {
		return &group, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	defaults.Name = name
	if err := db.Create(&defaults).Error; err != nil {
		return nil, err
	}
	return &defaults, nil
}

func (r *GormProductRepository) AddToGroup(ctx context.Context, product *domain.Product, group *domain.ProductGroup) error {
	return database.FromContext(ctx, r.db).Model(product).Association("Groups").Append(group)
}

func (r *GormProductRepository) FindGroups(ctx context.Context) ([]domain.ProductGroup, error) {
	var groups []domain.ProductGroup
	err := database.FromContext(ctx, r.db).Order("name").Find(&groups).Error
	return groups, err
}
