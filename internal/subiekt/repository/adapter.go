package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/regalator/wms/internal/subiekt/domain"
)

// SQLAdapter reads the Subiekt mirror over plain database/sql. The mirror is
// a foreign schema we do not own, so no ORM mapping here.
type SQLAdapter struct {
	db *sql.DB
}

func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

func (a *SQLAdapter) GetProductByID(ctx context.Context, id int) (*domain.ErpProduct, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT t.tw_Id, t.tw_Symbol, t.tw_Nazwa, COALESCE(t.tw_Opis, ''),
		       COALESCE(g.grt_Nazwa, ''),
		       COALESCE(s.st_Stan, 0), COALESCE(s.st_StanRez, 0)
		FROM tw__Towar t
		LEFT JOIN sl_GrupaTw g ON g.grt_Id = t.tw_IdGrupa
		LEFT JOIN tw_Stan s ON s.st_TowId = t.tw_Id
		WHERE t.tw_Id = $1`, id)

	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return product, nil
}

func (a *SQLAdapter) ListProductsWithStock(ctx context.Context, search string, limit int) ([]domain.ErpProduct, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT t.tw_Id, t.tw_Symbol, t.tw_Nazwa, COALESCE(t.tw_Opis, ''),
		       COALESCE(g.grt_Nazwa, ''),
		       COALESCE(s.st_Stan, 0), COALESCE(s.st_StanRez, 0)
		FROM tw__Towar t
		LEFT JOIN sl_GrupaTw g ON g.grt_Id = t.tw_IdGrupa
		LEFT JOIN tw_Stan s ON s.st_TowId = t.tw_Id
		WHERE ($1 = '' OR t.tw_Symbol ILIKE '%' || $1 || '%' OR t.tw_Nazwa ILIKE '%' || $1 || '%')
		ORDER BY t.tw_Symbol
		LIMIT $2`, search, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer rows.Close()

	var products []domain.ErpProduct
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return products, nil
}

func (a *SQLAdapter) ListDocuments(ctx context.Context, docType, limit int) ([]domain.ErpDocument, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT d.dok_Id, d.dok_NrPelny, d.dok_Typ,
		       COALESCE(k.adr_Nazwa, ''), d.dok_DataWyst::text
		FROM dok__Dokument d
		LEFT JOIN adr__Ewid k ON k.adr_IdObiektu = d.dok_OdbiorcaId AND k.adr_TypAdresu = 1
		WHERE d.dok_Typ = $1
		ORDER BY d.dok_DataWyst DESC
		LIMIT $2`, docType, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer rows.Close()

	var documents []domain.ErpDocument
	for rows.Next() {
		var doc domain.ErpDocument
		if err := rows.Scan(&doc.ID, &doc.Number, &doc.Type, &doc.Contact, &doc.IssuedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return documents, nil
}

func (a *SQLAdapter) GetDocumentPositions(ctx context.Context, documentID int) ([]domain.ErpPosition, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT ob_Id, ob_TowId, ob_Ilosc
		FROM dok_Pozycja
		WHERE ob_DokHanId = $1
		ORDER BY ob_Id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer rows.Close()

	var positions []domain.ErpPosition
	for rows.Next() {
		var pos domain.ErpPosition
		var qty string
		if err := rows.Scan(&pos.ID, &pos.ProductID, &qty); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		pos.Quantity, err = decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("%w: bad quantity %q", domain.ErrUnavailable, qty)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return positions, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (*domain.ErpProduct, error) {
	var product domain.ErpProduct
	var stock, reserved string
	if err := row.Scan(&product.ID, &product.Code, &product.Name, &product.Description,
		&product.GroupName, &stock, &reserved); err != nil {
		return nil, err
	}

	var err error
	if product.Stock, err = decimal.NewFromString(stock); err != nil {
		return nil, fmt.Errorf("bad stock value %q", stock)
	}
	if product.StockReserved, err = decimal.NewFromString(reserved); err != nil {
		return nil, fmt.Errorf("bad reserved value %q", reserved)
	}
	return &product, nil
}

// NopAdapter is used when no Subiekt mirror is configured
type NopAdapter struct{}

func (NopAdapter) GetProductByID(context.Context, int) (*domain.ErpProduct, error) {
	return nil, domain.ErrUnavailable
}

func (NopAdapter) ListProductsWithStock(context.Context, string, int) ([]domain.ErpProduct, error) {
	return nil, domain.ErrUnavailable
}

func (NopAdapter) ListDocuments(context.Context, int, int) ([]domain.ErpDocument, error) {
	return nil, domain.ErrUnavailable
}

func (NopAdapter) GetDocumentPositions(context.Context, int) ([]domain.ErpPosition, error) {
	return nil, domain.ErrUnavailable
}
