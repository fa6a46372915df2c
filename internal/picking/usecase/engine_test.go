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
	"github.com/regalator/wms/internal/picking/domain"
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

type fakePickingRepo struct {
	orders     map[uint]*domain.PickingOrder
	items      map[uint]*domain.PickingItem
	history    []domain.PickingHistory
	nextID     uint
	lastFilter domain.PickingOrderFilter
}

func newFakePickingRepo() *fakePickingRepo {
	return &fakePickingRepo{
		orders: make(map[uint]*domain.PickingOrder),
		items:  make(map[uint]*domain.PickingItem),
		nextID: 1,
	}
}

func (f *fakePickingRepo) Create(_ context.Context, order *domain.PickingOrder) error {
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

func (f *fakePickingRepo) FindByID(_ context.Context, id uint) (*domain.PickingOrder, error) {
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

func (f *fakePickingRepo) FindAll(_ context.Context, filter domain.PickingOrderFilter) ([]domain.PickingOrder, error) {
	f.lastFilter = filter
	var orders []domain.PickingOrder
	for id := range f.orders {
		order, _ := f.FindByID(context.Background(), id)
		if filter.CustomerOrderID != 0 && order.CustomerOrderID != filter.CustomerOrderID {
			continue
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (f *fakePickingRepo) Update(_ context.Context, order *domain.PickingOrder) error {
	stored := *order
	stored.Items = nil
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakePickingRepo) UpdateItem(_ context.Context, item *domain.PickingItem) error {
	stored := *item
	f.items[item.ID] = &stored
	return nil
}

func (f *fakePickingRepo) FindItem(_ context.Context, orderID, itemID uint) (*domain.PickingItem, error) {
	item, ok := f.items[itemID]
	if !ok || item.OrderID != orderID {
		return nil, domain.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakePickingRepo) FindItemForProduct(_ context.Context, orderID, productID uint) (*domain.PickingItem, error) {
	var found *domain.PickingItem
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

func (f *fakePickingRepo) AddHistory(_ context.Context, entry *domain.PickingHistory) error {
	entry.ID = f.nextID
	f.nextID++
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakePickingRepo) HasActiveOrderFor(_ context.Context, customerOrderID uint) (bool, error) {
	for _, order := range f.orders {
		if order.CustomerOrderID == customerOrderID && order.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePickingRepo) HasAnyOrderFor(_ context.Context, customerOrderID uint) (bool, error) {
	for _, order := range f.orders {
		if order.CustomerOrderID == customerOrderID {
			return true, nil
		}
	}
	return false, nil
}

type fakeCustomerRepo struct {
	orders map[uint]*ordersdomain.CustomerOrder
}

func (f *fakeCustomerRepo) Create(_ context.Context, order *ordersdomain.CustomerOrder) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeCustomerRepo) FindByID(_ context.Context, id uint) (*ordersdomain.CustomerOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, errors.New("customer order not found")
	}
	copied := *order
	return &copied, nil
}

func (f *fakeCustomerRepo) FindAll(_ context.Context, _ ordersdomain.CustomerOrderFilter) ([]ordersdomain.CustomerOrder, error) {
	return nil, nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, order *ordersdomain.CustomerOrder) error {
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeCustomerRepo) NextOrderNumber(_ context.Context, prefix string) (string, error) {
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

func (f *fakeStockRepo) TopLocationForProduct(_ context.Context, productID uint) (*inventorydomain.Stock, error) {
	var best *inventorydomain.Stock
	for key, qty := range f.stocks {
		if key.productID != productID || !qty.IsPositive() {
			continue
		}
		if best == nil || qty.GreaterThan(best.Quantity) {
			best = &inventorydomain.Stock{ProductID: productID, LocationID: key.locationID, Quantity: qty}
		}
	}
	if best == nil {
		return nil, inventorydomain.ErrInsufficientStock
	}
	return best, nil
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
	picking   *fakePickingRepo
	customers *fakeCustomerRepo
	stocks    *fakeStockRepo
	documents *fakeDocumentRepo
}

// newFixture seeds one customer order (RegOut-000001, 5 x WIDGET) with a
// picking order whose single line is preassigned to location 1, and 10 units
// of stock at that location.
func newFixture() *fixture {
	picking := newFakePickingRepo()
	customers := &fakeCustomerRepo{orders: map[uint]*ordersdomain.CustomerOrder{
		1: {
			ID:           1,
			OrderNumber:  "RegOut-000001",
			CustomerName: "ACME",
			Status:       ordersdomain.CustomerStatusNew,
			Items: []ordersdomain.CustomerOrderItem{
				{ID: 1, OrderID: 1, ProductID: 1, Quantity: dec("5")},
			},
		},
	}}
	products := &fakeProductRepo{products: map[uint]*catalogdomain.Product{
		1: {ID: 1, Code: "WIDGET", Name: "Widget", Barcode: "5901234123457"},
		2: {ID: 2, Code: "OTHER", Name: "Other product", Barcode: "5901234123458"},
	}}
	locations := &fakeLocationRepo{locations: map[uint]*warehousedomain.Location{
		1: {ID: 1, Code: "A1", Name: "Shelf A1", Barcode: "LOC-A1"},
		2: {ID: 2, Code: "B2", Name: "Shelf B2", Barcode: "LOC-B2"},
	}}
	stocks := &fakeStockRepo{stocks: map[stockKey]decimal.Decimal{
		{productID: 1, locationID: 1}: dec("10"),
	}}
	documents := &fakeDocumentRepo{}

	locationID := uint(1)
	picking.Create(context.Background(), &domain.PickingOrder{
		CustomerOrderID: 1,
		Status:          domain.StatusPending,
		Items: []domain.PickingItem{
			{ProductID: 1, LocationID: &locationID, TargetQuantity: dec("5"), FulfilledQuantity: decimal.Zero},
		},
	})

	engine := NewEngine(
		picking, customers, products, locations, stocks,
		session.NewMemoryStore(),
		docusecase.NewService(documents),
		passTx{},
		kafka.NopPublisher{},
	)
	return &fixture{engine: engine, picking: picking, customers: customers, stocks: stocks, documents: documents}
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

func TestPickCompletesOrder(t *testing.T) {
	fx := newFixture()

	result := fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})
	if result.CurrentLocation == nil || result.CurrentLocation.ID != 1 {
		t.Fatal("location LOC-A1 not selected")
	}

	result = fx.submit(t, ScanEvent{ProductCode: "WIDGET"})
	if result.CurrentItem == nil {
		t.Fatal("item not selected after product scan")
	}
	if got := result.SuggestedQty[result.CurrentItem.ID]; got != "5" {
		t.Errorf("suggested quantity = %q, want 5", got)
	}

	result = fx.submit(t, ScanEvent{Quantity: "5", Mode: "append"})
	if result.Feedback.Severity != fulfilldomain.SeveritySuccess {
		t.Fatalf("feedback = %+v, want success", result.Feedback)
	}
	if !strings.Contains(result.Feedback.Message, "order completed") {
		t.Errorf("message %q missing completion suffix", result.Feedback.Message)
	}
	if !result.OrderCompleted {
		t.Error("OrderCompleted = false, want true")
	}
	if result.Order.Status != domain.StatusCompleted {
		t.Errorf("order status = %q, want completed", result.Order.Status)
	}
	if len(result.CompletedItems) != 1 || len(result.PendingItems) != 0 {
		t.Errorf("items split = %d completed / %d pending, want 1/0",
			len(result.CompletedItems), len(result.PendingItems))
	}
	if !fx.stockAt(1, 1).Equal(dec("5")) {
		t.Errorf("stock = %s, want 5 after picking 5 of 10", fx.stockAt(1, 1))
	}
	if len(fx.picking.history) != 1 || !fx.picking.history[0].Quantity.Equal(dec("5")) {
		t.Errorf("history = %+v, want one entry of 5", fx.picking.history)
	}
	if len(fx.documents.documents) != 1 {
		t.Fatalf("documents = %d, want one outbound document", len(fx.documents.documents))
	}
	if doc := fx.documents.documents[0]; doc.Type != docdomain.TypeOutbound || !strings.HasPrefix(doc.Number, "WZ-RegOut-000001-") {
		t.Errorf("document = %+v, want WZ for RegOut-000001", doc)
	}
	if fx.customers.orders[1].Status != ordersdomain.CustomerStatusCompleted {
		t.Errorf("customer order status = %q, want completed", fx.customers.orders[1].Status)
	}
}

func TestOverCapacityLeavesStateUnchanged(t *testing.T) {
	fx := newFixture()
	fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})
	fx.submit(t, ScanEvent{ProductCode: "WIDGET"})
	fx.submit(t, ScanEvent{Quantity: "5"})

	result := fx.submit(t, ScanEvent{ItemID: 2, Quantity: "1"})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want error", result.Feedback)
	}

	item, _ := fx.picking.FindItem(context.Background(), 1, 2)
	if !item.FulfilledQuantity.Equal(dec("5")) {
		t.Errorf("fulfilled = %s, want unchanged 5", item.FulfilledQuantity)
	}
	if !fx.stockAt(1, 1).Equal(dec("5")) {
		t.Errorf("stock = %s, want unchanged 5", fx.stockAt(1, 1))
	}
}

func TestItemNotInOrderKeepsLocation(t *testing.T) {
	fx := newFixture()
	fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})

	result := fx.submit(t, ScanEvent{ProductCode: "OTHER"})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want error", result.Feedback)
	}
	if result.CurrentLocation == nil || result.CurrentLocation.ID != 1 {
		t.Error("previously selected location was lost after failed product scan")
	}
	if result.CurrentItem != nil {
		t.Error("item selected despite product not being in the order")
	}
}

func TestLocationMismatch(t *testing.T) {
	fx := newFixture()
	fx.submit(t, ScanEvent{LocationCode: "LOC-B2"})

	result := fx.submit(t, ScanEvent{ProductCode: "WIDGET"})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want mismatch error", result.Feedback)
	}
	if result.CurrentItem != nil {
		t.Error("item selected despite location mismatch")
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

	result = fx.submit(t, ScanEvent{Quantity: "5"})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want selection-required error", result.Feedback)
	}
	if !fx.stockAt(1, 1).Equal(dec("10")) || !fx.stockAt(1, 2).IsZero() {
		t.Errorf("stock = %s@1 %s@2, want untouched 10@1 0@2",
			fx.stockAt(1, 1), fx.stockAt(1, 2))
	}
}

func TestStatusDerivationScopedToCustomerOrder(t *testing.T) {
	fx := newFixture()

	fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})
	fx.submit(t, ScanEvent{ProductCode: "WIDGET"})
	fx.submit(t, ScanEvent{Quantity: "5"})

	if fx.picking.lastFilter.CustomerOrderID != 1 {
		t.Errorf("aggregate queried with CustomerOrderID = %d, want 1",
			fx.picking.lastFilter.CustomerOrderID)
	}
	if fx.picking.lastFilter.Limit != 0 {
		t.Errorf("aggregate queried with Limit = %d, want 0 (no page window)",
			fx.picking.lastFilter.Limit)
	}
}

func TestInsufficientStockRejectsPick(t *testing.T) {
	fx := newFixture()
	fx.stocks.stocks[stockKey{1, 1}] = dec("3")

	fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})
	fx.submit(t, ScanEvent{ProductCode: "WIDGET"})
	result := fx.submit(t, ScanEvent{Quantity: "5"})

	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want error", result.Feedback)
	}
	if !fx.stockAt(1, 1).Equal(dec("3")) {
		t.Errorf("stock = %s, want unchanged 3", fx.stockAt(1, 1))
	}
	item, _ := fx.picking.FindItem(context.Background(), 1, 2)
	if !item.FulfilledQuantity.IsZero() {
		t.Errorf("fulfilled = %s, want unchanged 0", item.FulfilledQuantity)
	}
}

func TestSelectionRequired(t *testing.T) {
	fx := newFixture()

	result := fx.submit(t, ScanEvent{Quantity: "5"})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Fatalf("feedback = %+v, want selection required error", result.Feedback)
	}
	if !fx.stockAt(1, 1).Equal(dec("10")) {
		t.Errorf("stock = %s, want unchanged 10", fx.stockAt(1, 1))
	}
}

func TestReversalRoundTrip(t *testing.T) {
	fx := newFixture()
	fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})
	fx.submit(t, ScanEvent{ProductCode: "WIDGET"})
	fx.submit(t, ScanEvent{Quantity: "5"})

	result, err := fx.engine.Reverse(context.Background(), 1, 2, 7)
	if err != nil {
		t.Fatalf("Reverse() unexpected error: %v", err)
	}
	if result.Feedback.Severity != fulfilldomain.SeveritySuccess {
		t.Fatalf("feedback = %+v, want success", result.Feedback)
	}
	if result.Order.Status != domain.StatusInProgress {
		t.Errorf("order status = %q, want in_progress after reversal", result.Order.Status)
	}
	if !fx.stockAt(1, 1).Equal(dec("10")) {
		t.Errorf("stock = %s, want 10 restored", fx.stockAt(1, 1))
	}
	item, _ := fx.picking.FindItem(context.Background(), 1, 2)
	if !item.FulfilledQuantity.IsZero() || item.IsCompleted {
		t.Errorf("item = %+v, want zeroed and reopened", item)
	}
	if len(fx.picking.history) != 2 || !fx.picking.history[1].Quantity.Equal(dec("-5")) {
		t.Errorf("history = %+v, want compensating -5 entry", fx.picking.history)
	}

	// Re-applying the same quantity restores the pre-reversal state.
	fx.submit(t, ScanEvent{ItemID: 2, Quantity: "5"})
	item, _ = fx.picking.FindItem(context.Background(), 1, 2)
	if !item.FulfilledQuantity.Equal(dec("5")) || !item.IsCompleted {
		t.Errorf("item = %+v, want fulfilled 5 and completed after round trip", item)
	}
	if !fx.stockAt(1, 1).Equal(dec("5")) {
		t.Errorf("stock = %s, want 5 after round trip", fx.stockAt(1, 1))
	}
}

func TestOverwriteLowersFulfilledAndReturnsStock(t *testing.T) {
	fx := newFixture()
	fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})
	fx.submit(t, ScanEvent{ProductCode: "WIDGET"})
	fx.submit(t, ScanEvent{Quantity: "4"})

	result := fx.submit(t, ScanEvent{ItemID: 2, Quantity: "2", Mode: "overwrite"})
	if result.Feedback.Severity != fulfilldomain.SeveritySuccess {
		t.Fatalf("feedback = %+v, want success", result.Feedback)
	}

	item, _ := fx.picking.FindItem(context.Background(), 1, 2)
	if !item.FulfilledQuantity.Equal(dec("2")) {
		t.Errorf("fulfilled = %s, want 2 after overwrite", item.FulfilledQuantity)
	}
	if !fx.stockAt(1, 1).Equal(dec("8")) {
		t.Errorf("stock = %s, want 8 (two units returned)", fx.stockAt(1, 1))
	}
	if len(fx.picking.history) != 1 {
		t.Errorf("history entries = %d, want 1 (overwrite writes none)", len(fx.picking.history))
	}
}

func TestClearSelection(t *testing.T) {
	fx := newFixture()
	fx.submit(t, ScanEvent{LocationCode: "LOC-A1"})
	fx.submit(t, ScanEvent{ProductCode: "WIDGET"})

	result := fx.submit(t, ScanEvent{Action: ActionClearSelection})
	if result.CurrentLocation != nil || result.CurrentItem != nil {
		t.Error("selection survived clear_selection")
	}

	result = fx.submit(t, ScanEvent{Quantity: "5"})
	if result.Feedback.Severity != fulfilldomain.SeverityError {
		t.Error("quantity accepted without selection after clear")
	}
}

func TestCreateFromCustomerOrderRejectsActiveDuplicate(t *testing.T) {
	fx := newFixture()

	if _, err := fx.engine.CreateFromCustomerOrder(context.Background(), 1); !errors.Is(err, domain.ErrActiveOrderExists) {
		t.Errorf("CreateFromCustomerOrder() error = %v, want ErrActiveOrderExists", err)
	}
}

func TestCreateFromCustomerOrderPreassignsTopLocation(t *testing.T) {
	fx := newFixture()
	fx.picking.orders[1].Status = domain.StatusCancelled
	fx.stocks.stocks[stockKey{1, 2}] = dec("50")

	order, err := fx.engine.CreateFromCustomerOrder(context.Background(), 1)
	if err != nil {
		t.Fatalf("CreateFromCustomerOrder() unexpected error: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(order.Items))
	}
	if order.Items[0].LocationID == nil || *order.Items[0].LocationID != 2 {
		t.Errorf("preassigned location = %v, want 2 (largest stock)", order.Items[0].LocationID)
	}
	if !order.Items[0].TargetQuantity.Equal(dec("5")) {
		t.Errorf("target = %s, want 5", order.Items[0].TargetQuantity)
	}
}
