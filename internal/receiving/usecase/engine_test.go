package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/regalator/wms/internal/catalog/domain"
	docdomain "github.com/regalator/wms/internal/documents/domain"
	docusecase "github.com/regalator/wms/internal/documents/usecase"
	fulfilldomain "github.com/regalator/wms/internal/fulfillment/domain"
	"github.com/regalator/wms/internal/fulfillment/session"
	inventorydomain "github.com/regalator/wms/internal/inventory/domain"
	ordersdomain "github.com/regalator/wms/internal/orders/domain"
	ordersusecase "github.com/regalator/wms/internal/orders/usecase"
	"github.com/regalator/wms/internal/receiving/domain"
	warehousedomain "github.com/regalator/wms/internal/warehouse/domain"
	"github.com/regalator/wms/kafka"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type passTx struct{}

func (passTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeReceivingRepo struct {
	orders  map[uint]*domain.ReceivingOrder
	items   map[uint]*domain.ReceivingItem
	history []domain.ReceivingHistory
	nextID  uint
}

func newFakeReceivingRepo() *fakeReceivingRepo {
	return &fakeReceivingRepo{
		orders: make(map[uint]*domain.ReceivingOrder),
		items:  make(map[uint]*domain.ReceivingItem),
		nextID: 1,
	}
}

func (f *fakeReceivingRepo) Create(_ context.Context, order *domain.ReceivingOrder) error {
	order.ID = f.nextID
	f.nextID++
	stored := *order
	stored.Items = nil
	f.orders[order.ID] = &stored
	for i := range order.Items {
		order.Items[i].ID = f.nextID
		f.nextID++
		order.Items[i].OrderID = order.ID
		item := order.Items[i]
		f.items[item.ID] = &item
	}
	return nil
}

func (f *fakeReceivingRepo) FindByID(_ context.Context, id uint) (*domain.ReceivingOrder, error) {
	stored, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	order := *stored
	for _, item := range f.items {
		if item.OrderID == id {
			order.Items = append(order.Items, *item)
		}
	}
	return &order, nil
}

func (f *fakeReceivingRepo) FindAll(_ context.Context, _ domain.ReceivingOrderFilter) ([]domain.ReceivingOrder, error) {
	var orders []domain.ReceivingOrder
	for id := range f.orders {
		order, _ := f.FindByID(context.Background(), id)
		orders = append(orders, *order)
	}
	return orders, nil
}

func (f *fakeReceivingRepo) Update(_ context.Context, order *domain.ReceivingOrder) error {
	stored := *order
	stored.Items = nil
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeReceivingRepo) UpdateItem(_ context.Context, item *domain.ReceivingItem) error {
	stored := *item
	f.items[item.ID] = &stored
	return nil
}

func (f *fakeReceivingRepo) FindItem(_ context.Context, orderID, itemID uint) (*domain.ReceivingItem, error) {
	item, ok := f.items[itemID]
	if !ok || item.OrderID != orderID {
		return nil, domain.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeReceivingRepo) FindItemForProduct(_ context.Context, orderID, productID uint) (*domain.ReceivingItem, error) {
	var found *domain.ReceivingItem
	for _, item := range f.items {
		if item.OrderID != orderID || item.ProductID != productID {
			continue
		}
		if found == nil || (found.IsCompleted && !item.IsCompleted) {
			copied := *item
			found = &copied
		}
	}
	if found == nil {
		return nil, domain.ErrItemNotFound
	}
	return found, nil
}

func (f *fakeReceivingRepo) AddHistory(_ context.Context, entry *domain.ReceivingHistory) error {
	entry.ID = f.nextID
	f.nextID++
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeReceivingRepo) HasActiveReceivingOrder(_ context.Context, supplierOrderID uint) (bool, error) {
	for _, order := range f.orders {
		if order.SupplierOrderID == supplierOrderID && order.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReceivingRepo) HasAnyReceivingOrder(_ context.Context, supplierOrderID uint) (bool, error) {
	for _, order := range f.orders {
		if order.SupplierOrderID == supplierOrderID {
			return true, nil
		}
	}
	return false, nil
}

type fakeSupplierRepo struct {
	orders map[uint]*ordersdomain.SupplierOrder
}

func (f *fakeSupplierRepo) Create(_ context.Context, order *ordersdomain.SupplierOrder) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeSupplierRepo) FindByID(_ context.Context, id uint) (*ordersdomain.SupplierOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, errors.New("supplier order not found")
	}
	copied := *order
	copied.Items = append([]ordersdomain.SupplierOrderItem(nil), order.Items...)
	return &copied, nil
}

func (f *fakeSupplierRepo) FindAll(_ context.Context, _ ordersdomain.SupplierOrderFilter) ([]ordersdomain.SupplierOrder, error) {
	return nil, nil
}

func (f *fakeSupplierRepo) Update(_ context.Context, order *ordersdomain.SupplierOrder) error {
	copied := *order
	copied.Items = append([]ordersdomain.SupplierOrderItem(nil), order.Items...)
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeSupplierRepo) UpdateItem(_ context.Context, item *ordersdomain.SupplierOrderItem) error {
	order, ok := f.orders[item.OrderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	for i := range order.Items {
		if order.Items[i].ID == item.ID {
			order.Items[i] = *item
			return nil
		}
	}
	return domain.ErrItemNotFound
}

func (f *fakeSupplierRepo) NextOrderNumber(_ context.Context, prefix string) (string, error) {
	return prefix + "-000001", nil
}

type fakeProductRepo struct {
	products map[uint]*catalogdomain.Product
}

func (f *fakeProductRepo) Create(_ context.Context, product *catalogdomain.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uint) (*catalogdomain.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	return product, nil
}

func (f *fakeProductRepo) FindByCode(_ context.Context, code string) (*catalogdomain.Product, error) {
	for _, product := range f.products {
		if strings.EqualFold(product.Code, code) || strings.EqualFold(product.Name, code) {
			return product, nil
		}
	}
	return nil, catalogdomain.ErrProductNotFound
}

func (f *fakeProductRepo) FindBySubiektID(_ context.Context, _ int) (*catalogdomain.Product, error) {
	return nil, catalogdomain.ErrProductNotFound
}

func (f *fakeProductRepo) FindAll(_ context.Context, _ catalogdomain.ProductFilter) ([]catalogdomain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) Update(_ context.Context, _ *catalogdomain.Product) error { return nil }

func (f *fakeProductRepo) GetOrCreateGroup(_ context.Context, _ string, defaults catalogdomain.ProductGroup) (*catalogdomain.ProductGroup, error) {
	return &defaults, nil
}

func (f *fakeProductRepo) AddToGroup(_ context.Context, _ *catalogdomain.Product, _ *catalogdomain.ProductGroup) error {
	return nil
}

func (f *fakeProductRepo) FindGroups(_ context.Context) ([]catalogdomain.ProductGroup, error) {
	return nil, nil
}

type fakeLocationRepo struct {
	locations map[uint]*warehousedomain.Location
}

func (f *fakeLocationRepo) Create(_ context.Context, location *warehousedomain.Location) error {
	f.locations[location.ID] = location
	return nil
}

func (f *fakeLocationRepo) FindByID(_ context.Context, id uint) (*warehousedomain.Location, error) {
	location, ok := f.locations[id]
	if !ok {
		return nil, warehousedomain.ErrLocationNotFound
	}
	return location, nil
}

func (f *fakeLocationRepo) FindByBarcodeOrName(_ context.Context, value string) (*warehousedomain.Location, error) {
	for _, location := range f.locations {
		if location.Barcode == value || strings.EqualFold(location.Name, value) {
			return location, nil
		}
	}
	return nil, warehousedomain.ErrLocationNotFound
}

func (f *fakeLocationRepo) FindAll(_ context.Context, _ warehousedomain.LocationFilter) ([]warehousedomain.Location, error) {
	return nil, nil
}

func (f *fakeLocationRepo) Update(_ context.Context, _ *warehousedomain.Location) error { return nil }

type stockKey struct {
	productID  uint
	locationID uint
}

type fakeStockRepo struct {
	stocks map[stockKey]decimal.Decimal
}

func (f *fakeStockRepo) GetOrCreate(_ context.Context, productID, locationID uint) (*inventorydomain.Stock, error) {
	key := stockKey{productID, locationID}
	if _, ok := f.stocks[key]; !ok {
		f.stocks[key] = decimal.Zero
	}
	return &inventorydomain.Stock{ProductID: productID, LocationID: locationID, Quantity: f.stocks[key]}, nil
}

func (f *fakeStockRepo) Adjust(_ context.Context, productID, locationID uint, delta decimal.Decimal, clampAtZero bool) (*inventorydomain.Stock, error) {
	key := stockKey{productID, locationID}
	next := f.stocks[key].Add(delta)
	if next.IsNegative() {
		if !clampAtZero {
			return nil, inventorydomain.ErrInsufficientStock
		}
		next = decimal.Zero
	}
	f.stocks[key] = next
	return &inventorydomain.Stock{ProductID: productID, LocationID: locationID, Quantity: next}, nil
}

func (f *fakeStockRepo) FindAll(_ context.Context, _ inventorydomain.StockFilter) ([]inventorydomain.Stock, error) {
	return nil, nil
}

func (f *fakeStockRepo) TopLocationForProduct(_ context.Context, _ uint) (*inventorydomain.Stock, error) {
	return nil, inventorydomain.ErrInsufficientStock
}

type fakeDocumentRepo struct {
	documents []docdomain.WarehouseDocument
}

func (f *fakeDocumentRepo) Create(_ context.Context, document *docdomain.WarehouseDocument) error {
	document.ID = uint(len(f.documents) + 1)
	f.documents = append(f.documents, *document)
	return nil
}

func (f *fakeDocumentRepo) FindByID(_ context.Context, _ uint) (*docdomain.WarehouseDocument, error) {
	return nil, docdomain.ErrDocumentNotFound
}

func (f *fakeDocumentRepo) FindAll(_ context.Context, _ docdomain.DocumentFilter) ([]docdomain.WarehouseDocument, error) {
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

type fixture struct {
	engine    *Engine
	receiving *fakeReceivingRepo
	suppliers *fakeSupplierRepo
	stocks    *fakeStockRepo
	documents *fakeDocumentRepo
}

// newFixture seeds a supplier order (RegIn-000001) with two lines, 10 x
// WIDGET of which 4 already received and 5 x GADGET fully received, plus the
// matching receiving order. Current stock mirrors the received amounts at
// location 1.
func newFixture() *fixture {
	receiving := newFakeReceivingRepo()
	suppliers := &fakeSupplierRepo{orders: map[uint]*ordersdomain.SupplierOrder{
		1: {
			ID:           1,
			OrderNumber:  "RegIn-000001",
			SupplierName: "Widgets sp. z o.o.",
			Status:       ordersdomain.SupplierStatusInReceiving,
			Items: []ordersdomain.SupplierOrderItem{
				{ID: 1, OrderID: 1, ProductID: 1, OrderedQuantity: dec("10"), ReceivedQuantity: dec("4")},
				{ID: 2, OrderID: 1, ProductID: 2, OrderedQuantity: dec("5"), ReceivedQuantity: dec("5")},
			},
		},
	}}
	products := &fakeProductRepo{products: map[uint]*catalogdomain.Product{
		1: {ID: 1, Code: "WIDGET", Name: "Widget"},
		2: {ID: 2, Code: "GADGET", Name: "Gadget"},
	}}
	locations := &fakeLocationRepo{locations: map[uint]*warehousedomain.Location{
		1: {ID: 1, Code: "A1", Name: "Shelf A1", Barcode: "LOC-A1"},
		2: {ID: 2, Code: "B2", Name: "Shelf B2", Barcode: "LOC-B2"},
	}}
	stocks := &fakeStockRepo{stocks: map[stockKey]decimal.Decimal{
		{productID: 1, locationID: 1}: dec("4"),
		{productID: 2, locationID: 1}: dec("5"),
	}}
	documents := &fakeDocumentRepo{}

	locationID := uint(1)
	receiving.Create(context.Background(), &domain.ReceivingOrder{
		SupplierOrderID: 1,
		Status:          domain.StatusInProgress,
		Items: []domain.ReceivingItem{
			{SupplierItemID: 1, ProductID: 1, LocationID: &locationID, TargetQuantity: dec("10"), FulfilledQuantity: dec("4")},
			{SupplierItemID: 2, ProductID: 2, LocationID: &locationID, TargetQuantity: dec("5"), FulfilledQuantity: dec("5"), IsCompleted: true},
		},
	})

	reconciler := ordersusecase.NewSupplierOrderReconciler(suppliers, receiving)
	engine := NewEngine(
		receiving, suppliers, products, locations, stocks,
		session.NewMemoryStore(),
		docusecase.NewService(documents),
		reconciler,
		passTx{},
		kafka.NopPublisher{},
	)
	return &fixture{engine: engine, receiving: receiving, suppliers: suppliers, stocks: stocks, documents: documents}
}

func (fx *fixture) submit(t *testing.T, event ScanEvent) *ScanResult {
	t.Helper()
	event.OrderID = 1
	event.OperatorID = 7
	result, err := fx.engine.Submit(context.Background(), event)
	if err != nil {
		t.Fatalf("Submit() unexpected error: %v", err)
	}
	return result
}

func (fx *fixture) stockAt(productID, locationID uint) decimal.Decimal {
	return fx.stocks.stocks[stockKey{productID, locationID}]
}

func TestCreateFromSupplierOrderRejectsActiveDuplicate(t *testing.T) {
	fx := newFixture()

	if _, err := fx.engine.CreateFromSupplierOrder(context.Background(), 1); !errors.Is(err, domain.ErrActiveOrderExists) {
		t.Errorf("CreateFromSupplierOrder() error = %v, want ErrActiveOrderExists", err)
	}
}

func TestOverwriteCompletesLastLine(t *testing.T) {
	fx := newFixture()

	fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})
	fx.submit(t, ScanEvent{ProductCode: "WIDGET"})
	result := fx.submit(t, ScanEvent{Quantity: "10", Mode: "overwrite"})

	if result.Feedback.Severity != fulfilldomain.SeveritySuccess {
		t.Fatalf("feedback = %+v, want success", result.Feedback)
	}
	if !result.OrderCompleted {
		t.Error("OrderCompleted = false, want true (last outstanding line)")
	}

	item, _ := fx.receiving.FindItem(context.Background(), 1, 2)
	if !item.FulfilledQuantity.Equal(dec("10")) || !item.IsCompleted {
		t.Errorf("item = %+v, want fulfilled 10 and completed", item)
	}
	if !fx.stockAt(1, 1).Equal(dec("10")) {
		t.Errorf("stock = %s, want 10 (delta +6 applied)", fx.stockAt(1, 1))
	}

	supplierOrder := fx.suppliers.orders[1]
	if !supplierOrder.Items[0].ReceivedQuantity.Equal(dec("10")) {
		t.Errorf("supplier aggregate = %s, want 10", supplierOrder.Items[0].ReceivedQuantity)
	}
	if supplierOrder.Status != ordersdomain.SupplierStatusReceived {
		t.Errorf("supplier status = %q, want received", supplierOrder.Status)
	}
	if supplierOrder.ActualDeliveryDate == nil {
		t.Error("actual delivery date not stamped on transition to received")
	}
	if len(fx.documents.documents) != 1 || fx.documents.documents[0].Type != docdomain.TypeInbound {
		t.Errorf("documents = %+v, want one PZ", fx.documents.documents)
	}
}

func TestReverseLoweredAggregateRecomputesStatus(t *testing.T) {
	fx := newFixture()

	// Reverse the fully received GADGET line (received 5 at location 1).
	result, err := fx.engine.Reverse(context.Background(), 1, 3, 7)
	if err != nil {
		t.Fatalf("Reverse() unexpected error: %v", err)
	}
	if result.Feedback.Severity != fulfilldomain.SeveritySuccess {
		t.Fatalf("feedback = %+v, want success", result.Feedback)
	}

	item, _ := fx.receiving.FindItem(context.Background(), 1, 3)
	if !item.FulfilledQuantity.IsZero() || item.IsCompleted {
		t.Errorf("item = %+v, want zeroed and reopened", item)
	}
	if !fx.stockAt(2, 1).IsZero() {
		t.Errorf("stock = %s, want 0 after removing 5", fx.stockAt(2, 1))
	}

	supplierOrder := fx.suppliers.orders[1]
	if !supplierOrder.Items[1].ReceivedQuantity.IsZero() {
		t.Errorf("supplier aggregate = %s, want 0", supplierOrder.Items[1].ReceivedQuantity)
	}
	if supplierOrder.Status != ordersdomain.SupplierStatusInReceiving {
		t.Errorf("supplier status = %q, want in_receiving while the order is active", supplierOrder.Status)
	}

	last := fx.receiving.history[len(fx.receiving.history)-1]
	if !last.Quantity.Equal(dec("-5")) {
		t.Errorf("history entry = %+v, want compensating -5", last)
	}
}

func TestReverseFloorsStockAtZero(t *testing.T) {
	fx := newFixture()
	// Stock was externally lowered below the received amount.
	fx.stocks.stocks[stockKey{2, 1}] = dec("3")

	if _, err := fx.engine.Reverse(context.Background(), 1, 3, 7); err != nil {
		t.Fatalf("Reverse() unexpected error: %v", err)
	}
	if !fx.stockAt(2, 1).IsZero() {
		t.Errorf("stock = %s, want floored at 0", fx.stockAt(2, 1))
	}
}

func TestCompletePartialDelivery(t *testing.T) {
	fx := newFixture()

	order, err := fx.engine.Complete(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if order.Status != domain.StatusCompleted {
		t.Errorf("order status = %q, want completed", order.Status)
	}
	if len(fx.documents.documents) != 1 {
		t.Fatalf("documents = %d, want one PZ for the partial delivery", len(fx.documents.documents))
	}
	if len(fx.documents.documents[0].Items) != 2 {
		t.Errorf("document lines = %d, want 2 (both positively received lines)", len(fx.documents.documents[0].Items))
	}

	supplierOrder := fx.suppliers.orders[1]
	if supplierOrder.Status != ordersdomain.SupplierStatusPartiallyReceived {
		t.Errorf("supplier status = %q, want partially_received", supplierOrder.Status)
	}
}

func TestAppendPastTargetRejected(t *testing.T) {
	fx := newFixture()
	fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})
	fx.submit(t, ScanEvent{ProductCode: "WIDGET"})

	result := fx.submit(t, ScanEvent{Quantity: "7"})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want over-capacity error", result.Feedback)
	}
	if !fx.stockAt(1, 1).Equal(dec("4")) {
		t.Errorf("stock = %s, want unchanged 4", fx.stockAt(1, 1))
	}
	supplierOrder := fx.suppliers.orders[1]
	if !supplierOrder.Items[0].ReceivedQuantity.Equal(dec("4")) {
		t.Errorf("supplier aggregate = %s, want unchanged 4", supplierOrder.Items[0].ReceivedQuantity)
	}
}

func TestItemSelectRejectsConflictingLocation(t *testing.T) {
	fx := newFixture()
	fx.submit(t, ScanEvent{LocationCode: "LOC-B2"})

	result := fx.submit(t, ScanEvent{ItemID: 2})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want mismatch error", result.Feedback)
	}
	if result.CurrentItem != nil {
		t.Error("item selected despite location mismatch")
	}

	result = fx.submit(t, ScanEvent{Quantity: "6"})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want selection-required error", result.Feedback)
	}
	if !fx.stockAt(1, 2).IsZero() {
		t.Errorf("stock at session location = %s, want untouched 0", fx.stockAt(1, 2))
	}
}

func TestLocationMismatchOnAssignedLine(t *testing.T) {
	fx := newFixture()
	fx.submit(t, ScanEvent{LocationCode: "LOC-B2"})

	result := fx.submit(t, ScanEvent{ProductCode: "WIDGET"})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want mismatch error", result.Feedback)
	}
	if result.CurrentItem != nil {
		t.Error("item selected despite location mismatch")
	}
	if result.CurrentLocation == nil || result.CurrentLocation.ID != 2 {
		t.Error("selected location was lost after mismatch")
	}
}
