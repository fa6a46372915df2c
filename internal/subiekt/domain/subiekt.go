package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when the ERP mirror cannot be reached or is not
// configured. Callers must fail closed rather than create half-populated
// products.
var ErrUnavailable = errors.New("subiekt unavailable")

// ErrProductNotFound is returned when the external id resolves to nothing
var ErrProductNotFound = errors.New("subiekt product not found")

// Subiekt document types
const (
	DocTypeCustomerOrder = 16 // ZK
	DocTypeSupplierOrder = 15 // ZD
)

// ErpProduct is a product row read from the Subiekt mirror
type ErpProduct struct {
	ID            int             `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	GroupName     string          `json:"group_name"`
	Stock         decimal.Decimal `json:"stock"`
	StockReserved decimal.Decimal `json:"stock_reserved"`
}

// ErpDocument is a document header read from the Subiekt mirror
type ErpDocument struct {
	ID       int    `json:"id"`
	Number   string `json:"number"`
	Type     int    `json:"type"`
	Contact  string `json:"contact"`
	IssuedAt string `json:"issued_at"`
}

// ErpPosition is one document line read from the Subiekt mirror
type ErpPosition struct {
	ID        int             `json:"id"`
	ProductID int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Adapter is the read-only view of the Subiekt SQL mirror. All methods
// return ErrUnavailable when the mirror is down or not configured.
type Adapter interface {
	GetProductByID(ctx context.Context, id int) (*ErpProduct, error)
	ListProductsWithStock(ctx context.Context, search string, limit int) ([]ErpProduct, error)
	ListDocuments(ctx context.Context, docType, limit int) ([]ErpDocument, error)
	GetDocumentPositions(ctx context.Context, documentID int) ([]ErpPosition, error)
}
