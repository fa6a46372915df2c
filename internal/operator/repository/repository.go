package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/regalator/wms/internal/operator/domain"
	"github.com/regalator/wms/pkg/database"
)

type GormOperatorRepository struct {
	db *gorm.DB
}

func NewGormOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

func (r *GormOperatorRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Operator{})
}

func (r *GormOperatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	return database.FromContext(ctx, r.db).Create(operator).Error
}

func (r *GormOperatorRepository) FindByID(ctx context.Context, id uint) (*domain.Operator, error) {
	var operator domain.Operator
	if err := database.FromContext(ctx, r.db).First(&operator, id).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

func (r *GormOperatorRepository) FindByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	var operator domain.Operator
	if err := database.FromContext(ctx, r.db).Where("username = ?", username).First(&operator).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

func (r *GormOperatorRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Operator, error) {
	var operators []domain.Operator
	err := database.FromContext(ctx, r.db).Limit(limit).Offset(offset).Order("username").Find(&operators).Error
	return operators, err
}

func (r *GormOperatorRepository) Update(ctx context.Context, operator *domain.Operator) error {
	return database.FromContext(ctx, r.db).Save(operator).Error
}
