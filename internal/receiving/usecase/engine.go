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
	"github.com/regalator/wms/internal/receiving/domain"
	warehousedomain "github.com/regalator/wms/internal/warehouse/domain"
	"github.com/regalator/wms/kafka"
	"github.com/regalator/wms/pkg/database"
	"github.com/regalator/wms/pkg/logger"
)

// ActionClearSelection drops all session state for the order
const ActionClearSelection = "clear_selection"

// ScanEvent is one operator scan or form submission against a receiving order
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
	Order           *domain.ReceivingOrder    `json:"order"`
	PendingItems    []domain.ReceivingItem    `json:"pending_items"`
	CompletedItems  []domain.ReceivingItem    `json:"completed_items"`
	CurrentLocation *warehousedomain.Location `json:"current_location,omitempty"`
	CurrentItem     *domain.ReceivingItem     `json:"current_item,omitempty"`
	SuggestedQty    map[uint]string           `json:"suggested_qty,omitempty"`
	Feedback        fulfilldomain.Feedback    `json:"feedback"`
	OrderCompleted  bool                      `json:"order_completed"`
}

// Engine executes receiving scan events. Intake adds stock; overwrite
// corrections may subtract it, floored at zero. The supplier order status is
// reconciled after every apply and reversal.
type Engine struct {
	receiving  domain.ReceivingRepository
	suppliers  ordersdomain.SupplierOrderRepository
	products   catalogdomain.ProductRepository
	locations  warehousedomain.LocationRepository
	stocks     inventorydomain.StockRepository
	sessions   fulfilldomain.SessionStore
	documents  *docusecase.Service
	reconciler *ordersusecase.SupplierOrderReconciler
	tx         database.TxManager
	events     kafka.EventPublisher
}

func NewEngine(
	receiving domain.ReceivingRepository,
	suppliers ordersdomain.SupplierOrderRepository,
	products catalogdomain.ProductRepository,
	locations warehousedomain.LocationRepository,
	stocks inventorydomain.StockRepository,
	sessions fulfilldomain.SessionStore,
	documents *docusecase.Service,
	reconciler *ordersusecase.SupplierOrderReconciler,
	tx database.TxManager,
	events kafka.EventPublisher,
) *Engine {
	return &Engine{
		receiving:  receiving,
		suppliers:  suppliers,
		products:   products,
		locations:  locations,
		stocks:     stocks,
		sessions:   sessions,
		documents:  documents,
		reconciler: reconciler,
		tx:         tx,
		events:     events,
	}
}

// CreateFromSupplierOrder builds a receiving order from a supplier order, one
// line per ordered item. Already received quantities carry over so bounds
// stay consistent when a second delivery arrives for the same order.
func (e *Engine) CreateFromSupplierOrder(ctx context.Context, supplierOrderID uint) (*domain.ReceivingOrder, error) {
	supplierOrder, err := e.suppliers.FindByID(ctx, supplierOrderID)
	if err != nil {
		return nil, err
	}

	active, err := e.receiving.HasActiveReceivingOrder(ctx, supplierOrder.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domain.ErrActiveOrderExists
	}

	order := domain.ReceivingOrder{
		SupplierOrderID: supplierOrder.ID,
		Status:          domain.StatusPending,
	}
	for _, line := range supplierOrder.Items {
		order.Items = append(order.Items, domain.ReceivingItem{
			SupplierItemID:    line.ID,
			ProductID:         line.ProductID,
			TargetQuantity:    line.OrderedQuantity,
			FulfilledQuantity: line.ReceivedQuantity,
			IsCompleted:       line.ReceivedQuantity.GreaterThanOrEqual(line.OrderedQuantity),
		})
	}

	if err := e.receiving.Create(ctx, &order); err != nil {
		return nil, err
	}
	if _, err := e.reconciler.Reconcile(ctx, supplierOrder.ID); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("receiving_order_id", order.ID).
		Str("order_number", supplierOrder.OrderNumber).
		Int("items", len(order.Items)).
		Msg("Receiving order created")
	return &order, nil
}

// Start assigns the order to an operator and opens it for scanning
func (e *Engine) Start(ctx context.Context, orderID, operatorID uint) (*domain.ReceivingOrder, error) {
	order, err := e.receiving.FindByID(ctx, orderID)
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
	if err := e.receiving.Update(ctx, order); err != nil {
		return nil, err
	}
	if _, err := e.reconciler.Reconcile(ctx, order.SupplierOrderID); err != nil {
		return nil, err
	}
	return order, nil
}

// Submit processes one scan event against a receiving order
func (e *Engine) Submit(ctx context.Context, event ScanEvent) (*ScanResult, error) {
	order, err := e.receiving.FindByID(ctx, event.OrderID)
	if err != nil {
		return nil, err
	}

	session, err := e.sessions.Load(ctx, event.OperatorID, fulfilldomain.FlowReceiving, order.ID)
	if err != nil {
		return nil, err
	}

	if event.Action == ActionClearSelection {
		session.Clear()
		if err := e.sessions.Save(ctx, event.OperatorID, fulfilldomain.FlowReceiving, order.ID, session); err != nil {
			return nil, err
		}
		return e.buildResult(ctx, order.ID, session, fulfilldomain.Info("Selection cleared"), false)
	}

	feedback := fulfilldomain.Info("No change")
	var scanErr error
	orderCompleted := false

	if event.ItemID != 0 {
		item, err := e.receiving.FindItem(ctx, order.ID, event.ItemID)
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

	if err := e.sessions.Save(ctx, event.OperatorID, fulfilldomain.FlowReceiving, order.ID, session); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to persist scan session")
	}

	return e.buildResult(ctx, order.ID, session, feedback, orderCompleted)
}

func (e *Engine) resolveProduct(ctx context.Context, order *domain.ReceivingOrder, session *fulfilldomain.ScanSession, code string) (fulfilldomain.Feedback, error, error) {
	product, err := e.products.FindByCode(ctx, code)
	if errors.Is(err, catalogdomain.ErrProductNotFound) {
		return fulfilldomain.Feedback{}, fulfilldomain.ErrProductNotFound, nil
	}
	if err != nil {
		return fulfilldomain.Feedback{}, nil, err
	}

	item, err := e.receiving.FindItemForProduct(ctx, order.ID, product.ID)
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

func (e *Engine) selectItem(session *fulfilldomain.ScanSession, item *domain.ReceivingItem) {
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

func (e *Engine) applyQuantityStep(ctx context.Context, order *domain.ReceivingOrder, session *fulfilldomain.ScanSession, event ScanEvent) (fulfilldomain.Feedback, bool, error, error) {
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

	message := fmt.Sprintf("Received %s", qty)
	if outcome.orderCompleted {
		message += ", order completed"
	} else {
		session.SetSuggestion(*session.ItemID, fulfilldomain.SuggestQuantity(
			outcome.targetQuantity, outcome.newFulfilled))
	}
	return fulfilldomain.Success(message), outcome.orderCompleted, nil, nil
}

// apply is the transactional core: re-reads the line inside the transaction,
// validates bounds, moves stock under the row lock, mirrors the delta into
// the supplier order line and derives completion.
func (e *Engine) apply(ctx context.Context, orderID, itemID, locationID uint, qty decimal.Decimal, mode string, operatorID uint) (*applyOutcome, error) {
	var outcome applyOutcome

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := e.receiving.FindItem(ctx, orderID, itemID)
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

		// Intake adds stock. A downward overwrite correction subtracts
		// it, floored at zero rather than erroring.
		if !delta.IsZero() {
			if _, err := e.stocks.Adjust(ctx, item.ProductID, locationID, delta, true); err != nil {
				return err
			}
		}

		item.FulfilledQuantity = newFulfilled
		item.IsCompleted = newFulfilled.GreaterThanOrEqual(item.TargetQuantity)
		if item.LocationID == nil {
			item.LocationID = &locationID
		}
		if err := e.receiving.UpdateItem(ctx, item); err != nil {
			return err
		}

		if err := e.mirrorToSupplierItem(ctx, item, delta); err != nil {
			return err
		}

		if mode == fulfilldomain.ModeAppend && delta.IsPositive() {
			if err := e.receiving.AddHistory(ctx, &domain.ReceivingHistory{
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

// mirrorToSupplierItem applies the delta to the parent supplier order line's
// received aggregate, floored at zero.
func (e *Engine) mirrorToSupplierItem(ctx context.Context, item *domain.ReceivingItem, delta decimal.Decimal) error {
	order, err := e.receiving.FindByID(ctx, item.OrderID)
	if err != nil {
		return err
	}
	supplierOrder, err := e.suppliers.FindByID(ctx, order.SupplierOrderID)
	if err != nil {
		return err
	}

	for i := range supplierOrder.Items {
		if supplierOrder.Items[i].ID != item.SupplierItemID {
			continue
		}
		received := supplierOrder.Items[i].ReceivedQuantity.Add(delta)
		if received.IsNegative() {
			received = decimal.Zero
		}
		supplierOrder.Items[i].ReceivedQuantity = received
		return e.suppliers.UpdateItem(ctx, &supplierOrder.Items[i])
	}
	return fmt.Errorf("supplier order item %d not found", item.SupplierItemID)
}

// finishApply updates the order status and, when every line is complete,
// closes the order, synthesizes the inbound document and reconciles the
// supplier order.
func (e *Engine) finishApply(ctx context.Context, orderID, operatorID uint, outcome *applyOutcome) error {
	order, err := e.receiving.FindByID(ctx, orderID)
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

	supplierOrder, err := e.suppliers.FindByID(ctx, order.SupplierOrderID)
	if err != nil {
		return err
	}
	outcome.orderNumber = supplierOrder.OrderNumber

	if allCompleted {
		if err := e.close(ctx, order, supplierOrder.OrderNumber, operatorID, &now, outcome); err != nil {
			return err
		}
	}

	if err := e.receiving.Update(ctx, order); err != nil {
		return err
	}
	_, err = e.reconciler.Reconcile(ctx, order.SupplierOrderID)
	return err
}

func (e *Engine) close(ctx context.Context, order *domain.ReceivingOrder, orderNumber string, operatorID uint, now *time.Time, outcome *applyOutcome) error {
	order.Status = domain.StatusCompleted
	order.CompletedAt = now

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
	document, err := e.documents.CreateInbound(ctx, orderNumber, operatorID, lines)
	if err != nil {
		return err
	}
	outcome.orderCompleted = true
	outcome.documentNumber = document.Number
	return nil
}

// Complete closes a receiving order early, before every line reached its
// target. A partial delivery still produces an inbound document for what
// actually arrived.
func (e *Engine) Complete(ctx context.Context, orderID, operatorID uint) (*domain.ReceivingOrder, error) {
	var completed *domain.ReceivingOrder
	var outcome applyOutcome

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := e.receiving.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == domain.StatusCompleted {
			completed = order
			return nil
		}

		supplierOrder, err := e.suppliers.FindByID(ctx, order.SupplierOrderID)
		if err != nil {
			return err
		}
		outcome.orderNumber = supplierOrder.OrderNumber

		now := time.Now()
		if err := e.close(ctx, order, supplierOrder.OrderNumber, operatorID, &now, &outcome); err != nil {
			return err
		}
		if err := e.receiving.Update(ctx, order); err != nil {
			return err
		}
		if _, err := e.reconciler.Reconcile(ctx, order.SupplierOrderID); err != nil {
			return err
		}
		completed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.orderCompleted {
		e.publishCompletion(ctx, &outcome, orderID)
	}
	if err := e.sessions.Delete(ctx, operatorID, fulfilldomain.FlowReceiving, orderID); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to drop scan session")
	}
	return completed, nil
}

// Reverse zeroes a line's received quantity, removes the stock from its
// location (floored at zero) and writes a compensating negative history
// entry. The supplier order aggregate is reconciled afterwards.
func (e *Engine) Reverse(ctx context.Context, orderID, itemID, operatorID uint) (*ScanResult, error) {
	var reversed decimal.Decimal
	var productID uint
	var locationID uint

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := e.receiving.FindItem(ctx, orderID, itemID)
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

		if _, err := e.stocks.Adjust(ctx, item.ProductID, *item.LocationID, reversed.Neg(), true); err != nil {
			return err
		}

		item.FulfilledQuantity = decimal.Zero
		item.IsCompleted = false
		if err := e.receiving.UpdateItem(ctx, item); err != nil {
			return err
		}

		if err := e.mirrorToSupplierItem(ctx, item, reversed.Neg()); err != nil {
			return err
		}

		if err := e.receiving.AddHistory(ctx, &domain.ReceivingHistory{
			ItemID:     item.ID,
			OperatorID: operatorID,
			LocationID: locationID,
			Quantity:   reversed.Neg(),
		}); err != nil {
			return err
		}

		order, err := e.receiving.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == domain.StatusCompleted {
			order.Status = domain.StatusInProgress
			order.CompletedAt = nil
			if err := e.receiving.Update(ctx, order); err != nil {
				return err
			}
		}
		_, err = e.reconciler.Reconcile(ctx, order.SupplierOrderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	session, sessionErr := e.sessions.Load(ctx, operatorID, fulfilldomain.FlowReceiving, orderID)
	if sessionErr != nil {
		session = &fulfilldomain.ScanSession{}
	}
	session.ClearItem(itemID)
	if err := e.sessions.Save(ctx, operatorID, fulfilldomain.FlowReceiving, orderID, session); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to persist scan session")
	}

	feedback := fulfilldomain.Info("Nothing to reverse")
	if reversed.IsPositive() {
		e.publishMovement(ctx, &applyOutcome{delta: reversed.Neg(), productID: productID},
			locationID, fulfilldomain.ModeAppend, operatorID, orderID)
		feedback = fulfilldomain.Success(fmt.Sprintf("Reversed %s, stock removed from location", reversed))
	}
	return e.buildResult(ctx, orderID, session, feedback, false)
}

func (e *Engine) publishMovement(ctx context.Context, outcome *applyOutcome, locationID uint, mode string, operatorID, orderID uint) {
	if !outcome.delta.IsZero() {
		err := e.events.PublishStockMovement(ctx, kafka.StockMovementEvent{
			Flow:       fulfilldomain.FlowReceiving,
			ProductID:  outcome.productID,
			LocationID: locationID,
			Quantity:   outcome.delta.String(),
			Mode:       mode,
			OperatorID: operatorID,
			OrderID:    orderID,
		})
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("Failed to publish stock movement event")
		}
	}
	if outcome.orderCompleted {
		e.publishCompletion(ctx, outcome, orderID)
	}
}

func (e *Engine) publishCompletion(ctx context.Context, outcome *applyOutcome, orderID uint) {
	err := e.events.PublishOrderCompleted(ctx, kafka.OrderCompletedEvent{
		Flow:           fulfilldomain.FlowReceiving,
		OrderID:        orderID,
		OrderNumber:    outcome.orderNumber,
		DocumentNumber: outcome.documentNumber,
	})
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to publish order completed event")
	}
}

func (e *Engine) buildResult(ctx context.Context, orderID uint, session *fulfilldomain.ScanSession, feedback fulfilldomain.Feedback, completed bool) (*ScanResult, error) {
	order, err := e.receiving.FindByID(ctx, orderID)
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

	if session.LocationID != nil {
		if location, err := e.locations.FindByID(ctx, *session.LocationID); err == nil {
			result.CurrentLocation = location
		} else {
			session.LocationID = nil
		}
	}
	if session.ItemID != nil {
		if item, err := e.receiving.FindItem(ctx, orderID, *session.ItemID); err == nil {
			result.CurrentItem = item
		} else {
			session.ItemID = nil
		}
	}
	return result, nil
}
