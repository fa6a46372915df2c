package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/regalator/wms/internal/documents/domain"
	"github.com/regalator/wms/pkg/database"
)

type GormDocumentRepository struct {
	db *gorm.DB
}

func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.WarehouseDocument{}, &domain.DocumentItem{})
}

func (r *GormDocumentRepository) Create(ctx context.Context, document *domain.WarehouseDocument) error {
	return database.FromContext(ctx, r.db).Create(document).Error
}

func (r *GormDocumentRepository) FindByID(ctx context.Context, id uint) (*domain.WarehouseDocument, error) {
	var document domain.WarehouseDocument
	if err := database.FromContext(ctx, r.db).Preload("Items").First(&document, id).Error; err != nil {
		return nil, err
	}
	return &document, nil
}

func (r *GormDocumentRepository) FindAll(ctx context.Context, filter domain.DocumentFilter) ([]domain.WarehouseDocument, error) {
	db := database.FromContext(ctx, r.db).Model(&domain.WarehouseDocument{})

	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		db = db.Where("number ILIKE ? OR order_number ILIKE ?", pattern, pattern)
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	var documents []domain.WarehouseDocument
	err := db.Preload("Items").Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&documents).Error
	return documents, err
}

func (r *GormDocumentRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := database.FromContext(ctx, r.db).
		Model(&domain.WarehouseDocument{}).
		Where("number = ?", number).
		Count(&count).Error
	return count > 0, err
}
