package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/regalator/wms/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-repository")

// GormStockRepositoryWithTracing wraps GormStockRepository with tracing
type GormStockRepositoryWithTracing struct {
	*GormStockRepository
}

// NewGormStockRepositoryWithTracing creates a new repository with tracing
func NewGormStockRepositoryWithTracing(db *gorm.DB) *GormStockRepositoryWithTracing {
	return &GormStockRepositoryWithTracing{
		GormStockRepository: NewGormStockRepository(db),
	}
}

// GetOrCreate with tracing
func (r *GormStockRepositoryWithTracing) GetOrCreate(ctx context.Context, productID, locationID uint) (*domain.Stock, error) {
	ctx, span := tracer.Start(ctx, "repository.GetOrCreate",
		trace.WithAttributes(
			attribute.Int("stock.product_id", int(productID)),
			attribute.Int("stock.location_id", int(locationID)),
		),
	)
	defer span.End()

	stock, err := r.GormStockRepository.GetOrCreate(ctx, productID, locationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("stock.quantity", stock.Quantity.String()))
	return stock, nil
}

// Adjust with tracing
func (r *GormStockRepositoryWithTracing) Adjust(ctx context.Context, productID, locationID uint, delta decimal.Decimal, clampAtZero bool) (*domain.Stock, error) {
	ctx, span := tracer.Start(ctx, "repository.Adjust",
		trace.WithAttributes(
			attribute.Int("stock.product_id", int(productID)),
			attribute.Int("stock.location_id", int(locationID)),
			attribute.String("stock.delta", delta.String()),
			attribute.Bool("stock.clamp_at_zero", clampAtZero),
		),
	)
	defer span.End()

	stock, err := r.GormStockRepository.Adjust(ctx, productID, locationID, delta, clampAtZero)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("stock.quantity", stock.Quantity.String()))
	return stock, nil
}

// FindAll with tracing
func (r *GormStockRepositoryWithTracing) FindAll(ctx context.Context, filter domain.StockFilter) ([]domain.Stock, error) {
	ctx, span := tracer.Start(ctx, "repository.FindAll")
	defer span.End()

	stocks, err := r.GormStockRepository.FindAll(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("stock.count", len(stocks)))
	return stocks, nil
}

// TopLocationForProduct with tracing
func (r *GormStockRepositoryWithTracing) TopLocationForProduct(ctx context.Context, productID uint) (*domain.Stock, error) {
	ctx, span := tracer.Start(ctx, "repository.TopLocationForProduct",
		trace.WithAttributes(
			attribute.Int("stock.product_id", int(productID)),
		),
	)
	defer span.End()

	stock, err := r.GormStockRepository.TopLocationForProduct(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("stock.location_id", int(stock.LocationID)))
	return stock, nil
}
