package usecase

import (
	"context"
	"errors"
	"time"

	catalogdomain "github.com/regalator/wms/internal/catalog/domain"
	"github.com/regalator/wms/internal/subiekt/domain"
	"github.com/regalator/wms/pkg/logger"
)

// Importer creates and refreshes local catalog products from the Subiekt
// mirror. It is the only write path from ERP data into the catalog.
type Importer struct {
	adapter  domain.Adapter
	products catalogdomain.ProductRepository
}

func NewImporter(adapter domain.Adapter, products catalogdomain.ProductRepository) *Importer {
	return &Importer{adapter: adapter, products: products}
}

// GetOrCreateProduct resolves a local product by its external id, importing
// it from the mirror on first sight. Fails closed with ErrUnavailable when
// the mirror is down, never creating a half-populated row.
func (i *Importer) GetOrCreateProduct(ctx context.Context, subiektID int) (*catalogdomain.Product, error) {
	product, err := i.products.FindBySubiektID(ctx, subiektID)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, catalogdomain.ErrProductNotFound) {
		return nil, err
	}

	erp, err := i.adapter.GetProductByID(ctx, subiektID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	id := erp.ID
	product = &catalogdomain.Product{
		Code:                 erp.Code,
		Name:                 erp.Name,
		Description:          erp.Description,
		Barcode:              erp.Code,
		SubiektID:            &id,
		SubiektStock:         erp.Stock,
		SubiektStockReserved: erp.StockReserved,
		LastSyncAt:           &now,
	}
	if err := i.products.Create(ctx, product); err != nil {
		return nil, err
	}

	if erp.GroupName != "" {
		if err := i.syncGroup(ctx, product, erp.GroupName); err != nil {
			logger.Warn(ctx).Err(err).Str("group", erp.GroupName).Msg("Failed to sync product group")
		}
	}

	logger.Info(ctx).
		Int("subiekt_id", subiektID).
		Str("code", product.Code).
		Msg("Product imported from Subiekt")
	return product, nil
}

// RefreshProduct re-reads the mirror stock figures for an already imported
// product.
func (i *Importer) RefreshProduct(ctx context.Context, product *catalogdomain.Product) error {
	if product.SubiektID == nil {
		return nil
	}

	erp, err := i.adapter.GetProductByID(ctx, *product.SubiektID)
	if err != nil {
		return err
	}

	now := time.Now()
	product.SubiektStock = erp.Stock
	product.SubiektStockReserved = erp.StockReserved
	product.LastSyncAt = &now
	return i.products.Update(ctx, product)
}

func (i *Importer) syncGroup(ctx context.Context, product *catalogdomain.Product, groupName string) error {
	group, err := i.products.GetOrCreateGroup(ctx, groupName, catalogdomain.ProductGroup{
		Code:     groupName,
		IsActive: true,
	})
	if err != nil {
		return err
	}
	return i.products.AddToGroup(ctx, product, group)
}
