package usecase

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/regalator/wms/internal/orders/domain"
)

func item(ordered, received int64) domain.SupplierOrderItem {
	return domain.SupplierOrderItem{
		OrderedQuantity:  decimal.NewFromInt(ordered),
		ReceivedQuantity: decimal.NewFromInt(received),
	}
}

func TestDeriveSupplierStatus(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		hasActive bool
		hasAny    bool
		items     []domain.SupplierOrderItem
		want      string
	}{
		{
			name:      "active receiving order wins",
			current:   domain.SupplierStatusConfirmed,
			hasActive: true,
			hasAny:    true,
			items:     []domain.SupplierOrderItem{item(10, 10)},
			want:      domain.SupplierStatusInReceiving,
		},
		{
			name:    "all lines received",
			current: domain.SupplierStatusInReceiving,
			hasAny:  true,
			items:   []domain.SupplierOrderItem{item(10, 10), item(5, 5)},
			want:    domain.SupplierStatusReceived,
		},
		{
			name:    "some lines received",
			current: domain.SupplierStatusInReceiving,
			hasAny:  true,
			items:   []domain.SupplierOrderItem{item(10, 10), item(5, 0)},
			want:    domain.SupplierStatusPartiallyReceived,
		},
		{
			name:    "receiving order exists but nothing received yet",
			current: domain.SupplierStatusConfirmed,
			hasAny:  true,
			items:   []domain.SupplierOrderItem{item(10, 0)},
			want:    domain.SupplierStatusPartiallyReceived,
		},
		{
			name:    "fully reversed regresses to confirmed",
			current: domain.SupplierStatusReceived,
			items:   []domain.SupplierOrderItem{item(10, 0)},
			want:    domain.SupplierStatusConfirmed,
		},
		{
			name:    "partially received fully reversed regresses to confirmed",
			current: domain.SupplierStatusPartiallyReceived,
			items:   []domain.SupplierOrderItem{item(10, 0)},
			want:    domain.SupplierStatusConfirmed,
		},
		{
			name:    "untouched pending order keeps its status",
			current: domain.SupplierStatusPending,
			items:   []domain.SupplierOrderItem{item(10, 0)},
			want:    domain.SupplierStatusPending,
		},
		{
			name:    "zero ordered total never counts as received",
			current: domain.SupplierStatusConfirmed,
			items:   []domain.SupplierOrderItem{item(0, 0)},
			want:    domain.SupplierStatusConfirmed,
		},
		{
			name:      "cancelled order is never reconciled",
			current:   domain.SupplierStatusCancelled,
			hasActive: true,
			hasAny:    true,
			items:     []domain.SupplierOrderItem{item(10, 10)},
			want:      domain.SupplierStatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveSupplierStatus(tt.current, tt.hasActive, tt.hasAny, tt.items)
			if got != tt.want {
				t.Errorf("DeriveSupplierStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveCustomerStatus(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		hasPicking bool
		anyPicked  bool
		allPicked  bool
		want       string
	}{
		{"fully picked completes", domain.CustomerStatusInProgress, false, true, true, domain.CustomerStatusCompleted},
		{"active picking marks in progress", domain.CustomerStatusNew, true, false, false, domain.CustomerStatusInProgress},
		{"closed picking with partial amounts", domain.CustomerStatusInProgress, false, true, false, domain.CustomerStatusPartiallyCompleted},
		{"fully reversed falls back to new", domain.CustomerStatusCompleted, false, false, false, domain.CustomerStatusNew},
		{"untouched new order stays new", domain.CustomerStatusNew, false, false, false, domain.CustomerStatusNew},
		{"cancelled order is never reconciled", domain.CustomerStatusCancelled, true, true, true, domain.CustomerStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveCustomerStatus(tt.current, tt.hasPicking, tt.anyPicked, tt.allPicked)
			if got != tt.want {
				t.Errorf("DeriveCustomerStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
