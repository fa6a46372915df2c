package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/regalator/wms/internal/documents/domain"
	"github.com/regalator/wms/pkg/logger"
)

// Line is one positively fulfilled (product, location, quantity) triple of a
// completed fulfillment order.
type Line struct {
	ProductID  uint
	LocationID uint
	Quantity   decimal.Decimal
}

// Service synthesizes warehouse documents from completed fulfillment orders
type Service struct {
	repo domain.DocumentRepository
	now  func() time.Time
}

func NewService(repo domain.DocumentRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateOutbound creates a WZ document for a completed picking order
func (s *Service) CreateOutbound(ctx context.Context, orderNumber string, operatorID uint, lines []Line) (*domain.WarehouseDocument, error) {
	return s.create(ctx, domain.TypeOutbound, orderNumber, operatorID, lines)
}

// CreateInbound creates a PZ document for a completed receiving order
func (s *Service) CreateInbound(ctx context.Context, orderNumber string, operatorID uint, lines []Line) (*domain.WarehouseDocument, error) {
	return s.create(ctx, domain.TypeInbound, orderNumber, operatorID, lines)
}

func (s *Service) create(ctx context.Context, docType, orderNumber string, operatorID uint, lines []Line) (*domain.WarehouseDocument, error) {
	number, err := s.nextNumber(ctx, docType, orderNumber)
	if err != nil {
		return nil, err
	}

	document := domain.WarehouseDocument{
		Number:      number,
		Type:        docType,
		OrderNumber: orderNumber,
		OperatorID:  operatorID,
	}
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			continue
		}
		document.Items = append(document.Items, domain.DocumentItem{
			ProductID:  line.ProductID,
			LocationID: line.LocationID,
			Quantity:   line.Quantity,
		})
	}

	if err := s.repo.Create(ctx, &document); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("number", document.Number).
		Str("type", docType).
		Int("lines", len(document.Items)).
		Msg("Warehouse document created")
	return &document, nil
}

// nextNumber builds "{TYPE}-{orderNumber}-{YYYYMMDDHHMM}" and appends a
// numeric suffix when two completions land within the same minute.
func (s *Service) nextNumber(ctx context.Context, docType, orderNumber string) (string, error) {
	base := fmt.Sprintf("%s-%s-%s", docType, orderNumber, s.now().Format("200601021504"))

	number := base
	for suffix := 2; ; suffix++ {
		exists, err := s.repo.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
		number = fmt.Sprintf("%s-%d", base, suffix)
	}
}
