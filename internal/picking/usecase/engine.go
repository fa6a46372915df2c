package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/regalator/wms/internal/catalog/domain"
	docusecase "github.com/regalator/wms/internal/documents/usecase"
	fulfilldomain "github.com/regalator/wms/internal/fulfillment/domain"
	inventorydomain "github.com/regalator/wms/internal/inventory/domain"
	ordersdomain "github.com/regalator/wms/internal/orders/domain"
	ordersusecase "github.com/regalator/wms/internal/orders/usecase"
	"github.com/regalator/wms/internal/picking/domain"
	warehousedomain "github.com/regalator/wms/internal/warehouse/domain"
	"github.com/regalator/wms/kafka"
	"github.com/regalator/wms/pkg/database"
	"github.com/regalator/wms/pkg/logger"
)

// ActionClearSelection drops all session state for the order
const ActionClearSelection = "clear_selection"

// ScanEvent is one operator scan or form submission against a picking order
type ScanEvent struct {
	OrderID      uint
	OperatorID   uint
	LocationCode string
	ProductCode  string
	Quantity     string
	ItemID       uint
	Action       string
	Mode         string
}

// ScanResult is the refreshed operator view after a scan event
type ScanResult struct {
	Order           *domain.PickingOrder      `json:"order"`
	PendingItems    []domain.PickingItem      `json:"pending_items"`
	CompletedItems  []domain.PickingItem      `json:"completed_items"`
	CurrentLocation *warehousedomain.Location `json:"current_location,omitempty"`
	CurrentItem     *domain.PickingItem       `json:"current_item,omitempty"`
	SuggestedQty    map[uint]string           `json:"suggested_qty,omitempty"`
	Feedback        fulfilldomain.Feedback    `json:"feedback"`
	OrderCompleted  bool                      `json:"order_completed"`
}

// Engine executes picking scan events. Session bookkeeping happens outside
// the transaction; the quantity apply is a single all-or-nothing commit.
type Engine struct {
	picking   domain.PickingRepository
	customers ordersdomain.CustomerOrderRepository
	products  catalogdomain.ProductRepository
	locations warehousedomain.LocationRepository
	stocks    inventorydomain.StockRepository
	sessions  fulfilldomain.SessionStore
	documents *docusecase.Service
	tx        database.TxManager
	events    kafka.EventPublisher
}

func NewEngine(
	picking domain.PickingRepository,
	customers ordersdomain.CustomerOrderRepository,
	products catalogdomain.ProductRepository,
	locations warehousedomain.LocationRepository,
	stocks inventorydomain.StockRepository,
	sessions fulfilldomain.SessionStore,
	documents *docusecase.Service,
	tx database.TxManager,
	events kafka.EventPublisher,
) *Engine {
	return &Engine{
		picking:   picking,
		customers: customers,
		products:  products,
		locations: locations,
		stocks:    stocks,
		sessions:  sessions,
		documents: documents,
		tx:        tx,
		events:    events,
	}
}

// CreateFromCustomerOrder builds a picking order from a customer order, one
// line per ordered item, preassigned to the location currently holding the
// most stock of the product.
func (e *Engine) CreateFromCustomerOrder(ctx context.Context, customerOrderID uint) (*domain.PickingOrder, error) {
	customerOrder, err := e.customers.FindByID(ctx, customerOrderID)
	if err != nil {
		return nil, err
	}

	active, err := e.picking.HasActiveOrderFor(ctx, customerOrder.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domain.ErrActiveOrderExists
	}

	order := domain.PickingOrder{
		CustomerOrderID: customerOrder.ID,
		Status:          domain.StatusPending,
	}
	for _, line := range customerOrder.Items {
		item := domain.PickingItem{
			ProductID:         line.ProductID,
			TargetQuantity:    line.Quantity,
			FulfilledQuantity: decimal.Zero,
		}
		if stock, err := e.stocks.TopLocationForProduct(ctx, line.ProductID); err == nil {
			locationID := stock.LocationID
			item.LocationID = &locationID
		}
		order.Items = append(order.Items, item)
	}

	if err := e.picking.Create(ctx, &order); err != nil {
		return nil, err
	}

	if err := e.reconcileCustomerOrder(ctx, customerOrder.ID); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("picking_order_id", order.ID).
		Str("order_number", customerOrder.OrderNumber).
		Int("items", len(order.Items)).
		Msg("Picking order created")
	return &order, nil
}

// Start assigns the order to an operator and opens it for scanning
func (e *Engine) Start(ctx context.Context, orderID, operatorID uint) (*domain.PickingOrder, error) {
	order, err := e.picking.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusPending {
		return order, nil
	}

	now := time.Now()
	order.Status = domain.StatusInProgress
	order.OperatorID = &operatorID
	order.StartedAt = &now
	if err := e.picking.Update(ctx, order); err != nil {
		return nil, err
	}
	if err := e.reconcileCustomerOrder(ctx, order.CustomerOrderID); err != nil {
		return nil, err
	}
	return order, nil
}

// Submit processes one scan event. Location and item selection survive a
// failed quantity step since they live in the session cache, not the
// transaction.
func (e *Engine) Submit(ctx context.Context, event ScanEvent) (*ScanResult, error) {
	order, err := e.picking.FindByID(ctx, event.OrderID)
	if err != nil {
		return nil, err
	}

	session, err := e.sessions.Load(ctx, event.OperatorID, fulfilldomain.FlowPicking, order.ID)
	if err != nil {
		return nil, err
	}

	if event.Action == ActionClearSelection {
		session.Clear()
		if err := e.sessions.Save(ctx, event.OperatorID, fulfilldomain.FlowPicking, order.ID, session); err != nil {
			return nil, err
		}
		return e.buildResult(ctx, order.ID, session, fulfilldomain.Info("Selection cleared"), false)
	}

	feedback := fulfilldomain.Info("No change")
	var scanErr error
	orderCompleted := false

	if event.ItemID != 0 {
		item, err := e.picking.FindItem(ctx, order.ID, event.ItemID)
		switch {
		case errors.Is(err, domain.ErrItemNotFound):
			scanErr = fulfilldomain.ErrItemNotInOrder
		case err != nil:
			return nil, err
		case item.LocationID != nil && session.LocationID != nil && *item.LocationID != *session.LocationID:
			scanErr = fulfilldomain.ErrLocationMismatch
		default:
			e.selectItem(session, item)
			feedback = fulfilldomain.Info("Item selected")
		}
	}

	if scanErr == nil && event.LocationCode != "" {
		location, err := e.locations.FindByBarcodeOrName(ctx, event.LocationCode)
		switch {
		case errors.Is(err, warehousedomain.ErrLocationNotFound):
			scanErr = fulfilldomain.ErrLocationNotFound
		case err != nil:
			return nil, err
		default:
			locationID := location.ID
			session.LocationID = &locationID
			feedback = fulfilldomain.Success(fmt.Sprintf("Location %s selected", location.Code))
		}
	}

	if scanErr == nil && event.ProductCode != "" {
		feedback, scanErr, err = e.resolveProduct(ctx, order, session, event.ProductCode)
		if err != nil {
			return nil, err
		}
	}

	if scanErr == nil && event.Quantity != "" {
		feedback, orderCompleted, scanErr, err = e.applyQuantityStep(ctx, order, session, event)
		if err != nil {
			return nil, err
		}
	}

	if scanErr != nil {
		feedback = fulfilldomain.FeedbackFor(scanErr)
	}
	if orderCompleted {
		session.Clear()
	}

	if err := e.sessions.Save(ctx, event.OperatorID, fulfilldomain.FlowPicking, order.ID, session); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to persist scan session")
	}

	return e.buildResult(ctx, order.ID, session, feedback, orderCompleted)
}

func (e *Engine) resolveProduct(ctx context.Context, order *domain.PickingOrder, session *fulfilldomain.ScanSession, code string) (fulfilldomain.Feedback, error, error) {
	product, err := e.products.FindByCode(ctx, code)
	if errors.Is(err, catalogdomain.ErrProductNotFound) {
		return fulfilldomain.Feedback{}, fulfilldomain.ErrProductNotFound, nil
	}
	if err != nil {
		return fulfilldomain.Feedback{}, nil, err
	}

	item, err := e.picking.FindItemForProduct(ctx, order.ID, product.ID)
	if errors.Is(err, domain.ErrItemNotFound) {
		return fulfilldomain.Feedback{}, fulfilldomain.ErrItemNotInOrder, nil
	}
	if err != nil {
		return fulfilldomain.Feedback{}, nil, err
	}

	if item.LocationID != nil && session.LocationID != nil && *item.LocationID != *session.LocationID {
		return fulfilldomain.Feedback{}, fulfilldomain.ErrLocationMismatch, nil
	}

	e.selectItem(session, item)
	return fulfilldomain.Success(fmt.Sprintf("Product %s selected", product.Code)), nil, nil
}

// selectItem sets the current item, adopts its assigned location when the
// session has none, and refreshes the quantity suggestion.
func (e *Engine) selectItem(session *fulfilldomain.ScanSession, item *domain.PickingItem) {
	itemID := item.ID
	session.ItemID = &itemID
	if session.LocationID == nil && item.LocationID != nil {
		locationID := *item.LocationID
		session.LocationID = &locationID
	}
	session.SetSuggestion(item.ID, fulfilldomain.SuggestQuantity(item.TargetQuantity, item.FulfilledQuantity))
}

type applyOutcome struct {
	delta          decimal.Decimal
	newFulfilled   decimal.Decimal
	targetQuantity decimal.Decimal
	orderCompleted bool
	documentNumber string
	orderNumber    string
	productID      uint
}

func (e *Engine) applyQuantityStep(ctx context.Context, order *domain.PickingOrder, session *fulfilldomain.ScanSession, event ScanEvent) (fulfilldomain.Feedback, bool, error, error) {
	if session.ItemID == nil || session.LocationID == nil {
		return fulfilldomain.Feedback{}, false, fulfilldomain.ErrSelectionRequired, nil
	}

	qty, err := fulfilldomain.ParseQuantity(event.Quantity)
	if err != nil {
		return fulfilldomain.Feedback{}, false, err, nil
	}
	mode := fulfilldomain.ParseMode(event.Mode)

	outcome, err := e.apply(ctx, order.ID, *session.ItemID, *session.LocationID, qty, mode, event.OperatorID)
	if err != nil {
		if fulfilldomain.IsScanError(err) {
			return fulfilldomain.Feedback{}, false, err, nil
		}
		return fulfilldomain.Feedback{}, false, nil, err
	}

	e.publishMovement(ctx, outcome, *session.LocationID, mode, event.OperatorID, order.ID)

	message := fmt.Sprintf("Picked %s", qty)
	if outcome.orderCompleted {
		message += ", order completed"
	} else {
		session.SetSuggestion(*session.ItemID, fulfilldomain.SuggestQuantity(
			outcome.targetQuantity, outcome.newFulfilled))
	}
	return fulfilldomain.Success(message), outcome.orderCompleted, nil, nil
}

// apply is the transactional core: re-reads the line inside the transaction,
// validates bounds, moves stock under the row lock and derives completion.
func (e *Engine) apply(ctx context.Context, orderID, itemID, locationID uint, qty decimal.Decimal, mode string, operatorID uint) (*applyOutcome, error) {
	var outcome applyOutcome

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := e.picking.FindItem(ctx, orderID, itemID)
		if errors.Is(err, domain.ErrItemNotFound) {
			return fulfilldomain.ErrItemNotInOrder
		}
		if err != nil {
			return err
		}

		newFulfilled, delta, err := fulfilldomain.ApplyQuantity(item.TargetQuantity, item.FulfilledQuantity, qty, mode)
		if err != nil {
			return err
		}

		// A pick removes stock, so the ledger delta is the negation.
		if !delta.IsZero() {
			if _, err := e.stocks.Adjust(ctx, item.ProductID, locationID, delta.Neg(), false); err != nil {
				if errors.Is(err, inventorydomain.ErrInsufficientStock) {
					return fulfilldomain.ErrInsufficientStock
				}
				return err
			}
		}

		item.FulfilledQuantity = newFulfilled
		item.IsCompleted = newFulfilled.GreaterThanOrEqual(item.TargetQuantity)
		if item.LocationID == nil {
			item.LocationID = &locationID
		}
		if err := e.picking.UpdateItem(ctx, item); err != nil {
			return err
		}

		if mode == fulfilldomain.ModeAppend && delta.IsPositive() {
			if err := e.picking.AddHistory(ctx, &domain.PickingHistory{
				ItemID:     item.ID,
				OperatorID: operatorID,
				LocationID: locationID,
				Quantity:   delta,
			}); err != nil {
				return err
			}
		}

		outcome.delta = delta
		outcome.newFulfilled = newFulfilled
		outcome.targetQuantity = item.TargetQuantity
		outcome.productID = item.ProductID
		return e.finishApply(ctx, orderID, operatorID, &outcome)
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// finishApply updates the order status and, when every line is complete,
// closes the order and synthesizes the outbound document.
func (e *Engine) finishApply(ctx context.Context, orderID, operatorID uint, outcome *applyOutcome) error {
	order, err := e.picking.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	now := time.Now()
	if order.Status == domain.StatusPending {
		order.Status = domain.StatusInProgress
		if order.StartedAt == nil {
			order.StartedAt = &now
		}
		if order.OperatorID == nil {
			order.OperatorID = &operatorID
		}
	}

	allCompleted := len(order.Items) > 0
	for _, item := range order.Items {
		if !item.IsCompleted {
			allCompleted = false
			break
		}
	}

	customerOrder, err := e.customers.FindByID(ctx, order.CustomerOrderID)
	if err != nil {
		return err
	}
	outcome.orderNumber = customerOrder.OrderNumber

	if allCompleted {
		order.Status = domain.StatusCompleted
		order.CompletedAt = &now

		var lines []docusecase.Line
		for _, item := range order.Items {
			if item.LocationID == nil || !item.FulfilledQuantity.IsPositive() {
				continue
			}
			lines = append(lines, docusecase.Line{
				ProductID:  item.ProductID,
				LocationID: *item.LocationID,
				Quantity:   item.FulfilledQuantity,
			})
		}
		document, err := e.documents.CreateOutbound(ctx, customerOrder.OrderNumber, operatorID, lines)
		if err != nil {
			return err
		}
		outcome.orderCompleted = true
		outcome.documentNumber = document.Number
	}

	if err := e.picking.Update(ctx, order); err != nil {
		return err
	}
	return e.reconcileCustomerOrder(ctx, order.CustomerOrderID)
}

// Reverse zeroes a line's picked quantity, returns the stock to its location
// and reopens the order when it had been completed. A compensating negative
// history entry keeps the audit trail symmetric.
func (e *Engine) Reverse(ctx context.Context, orderID, itemID, operatorID uint) (*ScanResult, error) {
	var reversed decimal.Decimal
	var productID uint
	var locationID uint

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := e.picking.FindItem(ctx, orderID, itemID)
		if err != nil {
			return err
		}
		if !item.FulfilledQuantity.IsPositive() {
			return nil
		}
		if item.LocationID == nil {
			return fulfilldomain.ErrSelectionRequired
		}

		reversed = item.FulfilledQuantity
		productID = item.ProductID
		locationID = *item.LocationID

		if _, err := e.stocks.Adjust(ctx, item.ProductID, *item.LocationID, reversed, false); err != nil {
			return err
		}

		item.FulfilledQuantity = decimal.Zero
		item.IsCompleted = false
		if err := e.picking.UpdateItem(ctx, item); err != nil {
			return err
		}

		if err := e.picking.AddHistory(ctx, &domain.PickingHistory{
			ItemID:     item.ID,
			OperatorID: operatorID,
			LocationID: locationID,
			Quantity:   reversed.Neg(),
		}); err != nil {
			return err
		}

		order, err := e.picking.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == domain.StatusCompleted {
			order.Status = domain.StatusInProgress
			order.CompletedAt = nil
			if err := e.picking.Update(ctx, order); err != nil {
				return err
			}
		}
		return e.reconcileCustomerOrder(ctx, order.CustomerOrderID)
	})
	if err != nil {
		return nil, err
	}

	session, sessionErr := e.sessions.Load(ctx, operatorID, fulfilldomain.FlowPicking, orderID)
	if sessionErr != nil {
		session = &fulfilldomain.ScanSession{}
	}
	session.ClearItem(itemID)
	if err := e.sessions.Save(ctx, operatorID, fulfilldomain.FlowPicking, orderID, session); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to persist scan session")
	}

	feedback := fulfilldomain.Info("Nothing to reverse")
	if reversed.IsPositive() {
		e.publishMovement(ctx, &applyOutcome{delta: reversed.Neg(), productID: productID},
			locationID, fulfilldomain.ModeAppend, operatorID, orderID)
		feedback = fulfilldomain.Success(fmt.Sprintf("Reversed %s, stock returned to location", reversed))
	}
	return e.buildResult(ctx, orderID, session, feedback, false)
}

func (e *Engine) reconcileCustomerOrder(ctx context.Context, customerOrderID uint) error {
	customerOrder, err := e.customers.FindByID(ctx, customerOrderID)
	if err != nil {
		return err
	}

	hasActive, err := e.picking.HasActiveOrderFor(ctx, customerOrderID)
	if err != nil {
		return err
	}

	anyPicked, allPicked, err := e.pickedAggregate(ctx, customerOrderID)
	if err != nil {
		return err
	}

	status := ordersusecase.DeriveCustomerStatus(customerOrder.Status, hasActive, anyPicked, allPicked)
	if status == customerOrder.Status {
		return nil
	}
	customerOrder.Status = status
	return e.customers.Update(ctx, customerOrder)
}

func (e *Engine) pickedAggregate(ctx context.Context, customerOrderID uint) (anyPicked, allPicked bool, err error) {
	orders, err := e.picking.FindAll(ctx, domain.PickingOrderFilter{CustomerOrderID: customerOrderID})
	if err != nil {
		return false, false, err
	}

	allPicked = false
	for _, order := range orders {
		orderAll := len(order.Items) > 0
		for _, item := range order.Items {
			if item.FulfilledQuantity.IsPositive() {
				anyPicked = true
			}
			if !item.IsCompleted {
				orderAll = false
			}
		}
		if orderAll {
			allPicked = true
		}
	}
	return anyPicked, allPicked, nil
}

// publishMovement emits the stock movement event (and the completion event
// when the order closed). Failures are logged, never surfaced.
func (e *Engine) publishMovement(ctx context.Context, outcome *applyOutcome, locationID uint, mode string, operatorID, orderID uint) {
	if !outcome.delta.IsZero() {
		err := e.events.PublishStockMovement(ctx, kafka.StockMovementEvent{
			Flow:       fulfilldomain.FlowPicking,
			ProductID:  outcome.productID,
			LocationID: locationID,
			Quantity:   outcome.delta.Neg().String(),
			Mode:       mode,
			OperatorID: operatorID,
			OrderID:    orderID,
		})
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("Failed to publish stock movement event")
		}
	}
	if outcome.orderCompleted {
		err := e.events.PublishOrderCompleted(ctx, kafka.OrderCompletedEvent{
			Flow:           fulfilldomain.FlowPicking,
			OrderID:        orderID,
			OrderNumber:    outcome.orderNumber,
			DocumentNumber: outcome.documentNumber,
		})
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("Failed to publish order completed event")
		}
	}
}

// buildResult reloads the order and splits its lines into pending and
// completed for the operator view.
func (e *Engine) buildResult(ctx context.Context, orderID uint, session *fulfilldomain.ScanSession, feedback fulfilldomain.Feedback, completed bool) (*ScanResult, error) {
	order, err := e.picking.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		Order:          order,
		Feedback:       feedback,
		OrderCompleted: completed,
		SuggestedQty:   session.SuggestedQty,
	}
	for _, item := range order.Items {
		if item.IsCompleted {
			result.CompletedItems = append(result.CompletedItems, item)
		} else {
			result.PendingItems = append(result.PendingItems, item)
		}
	}

	// Stale session references self-heal: ids that no longer resolve are
	// treated as no selection.
	if session.LocationID != nil {
		if location, err := e.locations.FindByID(ctx, *session.LocationID); err == nil {
			result.CurrentLocation = location
		} else {
			session.LocationID = nil
		}
	}
	if session.ItemID != nil {
		if item, err := e.picking.FindItem(ctx, orderID, *session.ItemID); err == nil {
			result.CurrentItem = item
		} else {
			session.ItemID = nil
		}
	}
	return result, nil
}
