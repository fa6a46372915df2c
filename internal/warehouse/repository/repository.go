package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/regalator/wms/internal/warehouse/domain"
	"github.com/regalator/wms/pkg/database"
)

type GormLocationRepository struct {
	db *gorm.DB
}

func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

func (r *GormLocationRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Location{})
}

func (r *GormLocationRepository) Create(ctx context.Context, location *domain.Location) error {
	return database.FromContext(ctx, r.db).Create(location).Error
}

func (r *GormLocationRepository) FindByID(ctx context.Context, id uint) (*domain.Location, error) {
	var location domain.Location
	if err := database.FromContext(ctx, r.db).First(&location, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &location, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrLocationNotFound
	}
	return err
}

// FindByBarcodeOrName tries the exact barcode first. Operators sometimes type
// the location name instead of scanning, so a case-insensitive exact name
// match is the fallback.
func (r *GormLocationRepository) FindByBarcodeOrName(ctx context.Context, value string) (*domain.Location, error) {
	db := database.FromContext(ctx, r.db)
	value = strings.TrimSpace(value)

	var location domain.Location
	err := db.Where("barcode = ?", value).First(&location).Error
	if err == nil {
		return &location, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := db.Where("LOWER(name) = LOWER(?)", value).First(&location).Error; err != nil {
		return nil, notFound(err)
	}
	return &location, nil
}

func (r *GormLocationRepository) FindAll(ctx context.Context, filter domain.LocationFilter) ([]domain.Location, error) {
	db := database.FromContext(ctx, r.db).Where("is_active = ?", true)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		db = db.Where("code ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	var locations []domain.Location
	err := db.Order("code").Limit(filter.Limit).Offset(filter.Offset).Find(&locations).Error
	return locations, err
}

func (r *GormLocationRepository) Update(ctx context.Context, location *domain.Location) error {
	return database.FromContext(ctx, r.db).Save(location).Error
}
