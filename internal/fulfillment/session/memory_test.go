package session

import (
	"context"
	"testing"

	"github.com/regalator/wms/internal/fulfillment/domain"
)

func TestMemoryStoreDetachesLoadedSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := &domain.ScanSession{}
	saved.SetSuggestion(4, "2.50")
	if err := store.Save(ctx, 7, domain.FlowPicking, 1, saved); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	loaded, err := store.Load(ctx, 7, domain.FlowPicking, 1)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	loaded.SetSuggestion(4, "99")
	loaded.SetSuggestion(5, "1")
	locationID := uint(3)
	loaded.LocationID = &locationID

	reloaded, err := store.Load(ctx, 7, domain.FlowPicking, 1)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got := reloaded.SuggestedQty[4]; got != "2.50" {
		t.Errorf("stored suggestion = %q, want 2.50 (unsaved mutation leaked)", got)
	}
	if _, ok := reloaded.SuggestedQty[5]; ok {
		t.Error("unsaved suggestion for item 5 leaked into the store")
	}
	if reloaded.LocationID != nil {
		t.Error("unsaved location selection leaked into the store")
	}
}

func TestMemoryStoreDeleteDropsSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := &domain.ScanSession{}
	saved.SetSuggestion(4, "1")
	if err := store.Save(ctx, 7, domain.FlowReceiving, 2, saved); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if err := store.Delete(ctx, 7, domain.FlowReceiving, 2); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}

	loaded, err := store.Load(ctx, 7, domain.FlowReceiving, 2)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if loaded.SuggestedQty != nil || loaded.LocationID != nil || loaded.ItemID != nil {
		t.Errorf("session after delete = %+v, want empty", loaded)
	}
}
