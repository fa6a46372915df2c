package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/regalator/wms/internal/documents/domain"
)

type fakeDocumentRepo struct {
	documents []domain.WarehouseDocument
}

func (f *fakeDocumentRepo) Create(_ context.Context, document *domain.WarehouseDocument) error {
	document.ID = uint(len(f.documents) + 1)
	f.documents = append(f.documents, *document)
	return nil
}

func (f *fakeDocumentRepo) FindByID(_ context.Context, id uint) (*domain.WarehouseDocument, error) {
	for i := range f.documents {
		if f.documents[i].ID == id {
			return &f.documents[i], nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (f *fakeDocumentRepo) FindAll(_ context.Context, _ domain.DocumentFilter) ([]domain.WarehouseDocument, error) {
	return f.documents, nil
}

func (f *fakeDocumentRepo) NumberExists(_ context.Context, number string) (bool, error) {
	for _, document := range f.documents {
		if document.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func fixedService(repo domain.DocumentRepository) *Service {
	s := NewService(repo)
	s.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)
	}
	return s
}

func TestCreateOutboundNumber(t *testing.T) {
	repo := &fakeDocumentRepo{}
	s := fixedService(repo)

	doc, err := s.CreateOutbound(context.Background(), "RegOut-000007", 1, []Line{
		{ProductID: 1, LocationID: 2, Quantity: decimal.NewFromInt(5)},
	})
	if err != nil {
		t.Fatalf("CreateOutbound() unexpected error: %v", err)
	}
	if doc.Number != "WZ-RegOut-000007-202603140926" {
		t.Errorf("number = %q, want WZ-RegOut-000007-202603140926", doc.Number)
	}
	if len(doc.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(doc.Items))
	}
}

func TestNumberCollisionGetsSuffix(t *testing.T) {
	repo := &fakeDocumentRepo{}
	s := fixedService(repo)
	ctx := context.Background()
	lines := []Line{{ProductID: 1, LocationID: 2, Quantity: decimal.NewFromInt(1)}}

	first, err := s.CreateInbound(ctx, "RegIn-000003", 1, lines)
	if err != nil {
		t.Fatalf("first CreateInbound() unexpected error: %v", err)
	}
	second, err := s.CreateInbound(ctx, "RegIn-000003", 1, lines)
	if err != nil {
		t.Fatalf("second CreateInbound() unexpected error: %v", err)
	}
	third, err := s.CreateInbound(ctx, "RegIn-000003", 1, lines)
	if err != nil {
		t.Fatalf("third CreateInbound() unexpected error: %v", err)
	}

	if first.Number != "PZ-RegIn-000003-202603140926" {
		t.Errorf("first number = %q", first.Number)
	}
	if second.Number != "PZ-RegIn-000003-202603140926-2" {
		t.Errorf("second number = %q, want -2 suffix", second.Number)
	}
	if third.Number != "PZ-RegIn-000003-202603140926-3" {
		t.Errorf("third number = %q, want -3 suffix", third.Number)
	}
}

func TestNonPositiveLinesAreSkipped(t *testing.T) {
	repo := &fakeDocumentRepo{}
	s := fixedService(repo)

	doc, err := s.CreateOutbound(context.Background(), "RegOut-000001", 1, []Line{
		{ProductID: 1, LocationID: 2, Quantity: decimal.NewFromInt(5)},
		{ProductID: 2, LocationID: 2, Quantity: decimal.Zero},
	})
	if err != nil {
		t.Fatalf("CreateOutbound() unexpected error: %v", err)
	}
	if len(doc.Items) != 1 {
		t.Errorf("items = %d, want 1 (zero-quantity line skipped)", len(doc.Items))
	}
}
