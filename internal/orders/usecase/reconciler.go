package usecase

import (
	"context"
	"time"

	"github.com/regalator/wms/internal/orders/domain"
	"github.com/regalator/wms/pkg/logger"
)

// ReceivingActivity reports the receiving-order state attached to a supplier
// order. Implemented by the receiving module; an interface here keeps the
// dependency pointing inward.
type ReceivingActivity interface {
	HasActiveReceivingOrder(ctx context.Context, supplierOrderID uint) (bool, error)
	HasAnyReceivingOrder(ctx context.Context, supplierOrderID uint) (bool, error)
}

// DeriveSupplierStatus computes the supplier order status from its receiving
// aggregate. The status is never set directly by an operator.
//
// Priority: an active receiving order wins, then full reception, then any
// reception at all. A previously received order whose quantities were fully
// reversed falls back to confirmed.
func DeriveSupplierStatus(current string, hasActive, hasAny bool, items []domain.SupplierOrderItem) string {
	if current == domain.SupplierStatusCancelled {
		return current
	}
	if hasActive {
		return domain.SupplierStatusInReceiving
	}

	anyReceived := false
	allReceived := len(items) > 0
	totalOrdered := false
	for _, item := range items {
		if item.OrderedQuantity.IsPositive() {
			totalOrdered = true
		}
		if item.ReceivedQuantity.IsPositive() {
			anyReceived = true
		}
		if item.ReceivedQuantity.LessThan(item.OrderedQuantity) {
			allReceived = false
		}
	}

	switch {
	case allReceived && totalOrdered:
		return domain.SupplierStatusReceived
	case anyReceived || hasAny:
		return domain.SupplierStatusPartiallyReceived
	case current == domain.SupplierStatusReceived || current == domain.SupplierStatusPartiallyReceived:
		return domain.SupplierStatusConfirmed
	default:
		return current
	}
}

// DeriveCustomerStatus computes the customer order status from its picking
// aggregate.
func DeriveCustomerStatus(current string, hasActivePicking, anyPicked, allPicked bool) string {
	if current == domain.CustomerStatusCancelled {
		return current
	}
	switch {
	case allPicked && anyPicked:
		return domain.CustomerStatusCompleted
	case hasActivePicking:
		return domain.CustomerStatusInProgress
	case anyPicked:
		return domain.CustomerStatusPartiallyCompleted
	case current == domain.CustomerStatusCompleted ||
		current == domain.CustomerStatusPartiallyCompleted ||
		current == domain.CustomerStatusInProgress:
		return domain.CustomerStatusNew
	default:
		return current
	}
}

// SupplierOrderReconciler recomputes supplier order status after every
// receiving apply or reversal.
type SupplierOrderReconciler struct {
	orders    domain.SupplierOrderRepository
	receiving ReceivingActivity
}

func NewSupplierOrderReconciler(orders domain.SupplierOrderRepository, receiving ReceivingActivity) *SupplierOrderReconciler {
	return &SupplierOrderReconciler{orders: orders, receiving: receiving}
}

// Reconcile reloads the supplier order, derives its status and persists the
// change. Stamps the actual delivery date on the transition to received and
// clears it when the order regresses.
func (r *SupplierOrderReconciler) Reconcile(ctx context.Context, supplierOrderID uint) (*domain.SupplierOrder, error) {
	order, err := r.orders.FindByID(ctx, supplierOrderID)
	if err != nil {
		return nil, err
	}

	hasActive, err := r.receiving.HasActiveReceivingOrder(ctx, supplierOrderID)
	if err != nil {
		return nil, err
	}
	hasAny, err := r.receiving.HasAnyReceivingOrder(ctx, supplierOrderID)
	if err != nil {
		return nil, err
	}

	status := DeriveSupplierStatus(order.Status, hasActive, hasAny, order.Items)
	if status == order.Status {
		return order, nil
	}

	previous := order.Status
	order.Status = status
	if status == domain.SupplierStatusReceived && order.ActualDeliveryDate == nil {
		now := time.Now()
		order.ActualDeliveryDate = &now
	}
	if previous == domain.SupplierStatusReceived && status != domain.SupplierStatusReceived {
		order.ActualDeliveryDate = nil
	}

	if err := r.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("supplier_order_id", order.ID).
		Str("from", previous).
		Str("to", status).
		Msg("Supplier order status reconciled")
	return order, nil
}
