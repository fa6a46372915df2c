package domain

import "context"

// Flows
const (
	FlowPicking   = "picking"
	FlowReceiving = "receiving"
)

// ScanSession is the per-operator, per-order scan context carried between
// barcode-scan requests: the selected location, the selected line item and
// cached quantity suggestions. It is UI bookkeeping only and is never the
// source of truth for stock.
type ScanSession struct {
	LocationID   *uint           `json:"location_id,omitempty"`
	ItemID       *uint           `json:"item_id,omitempty"`
	SuggestedQty map[uint]string `json:"suggested_qty,omitempty"`
}

// SetSuggestion caches the quantity suggestion for an item
func (s *ScanSession) SetSuggestion(itemID uint, value string) {
	if value == "" {
		delete(s.SuggestedQty, itemID)
		return
	}
	if s.SuggestedQty == nil {
		s.SuggestedQty = make(map[uint]string)
	}
	s.SuggestedQty[itemID] = value
}

// ClearItem drops the item selection and its cached suggestion
func (s *ScanSession) ClearItem(itemID uint) {
	if s.ItemID != nil && *s.ItemID == itemID {
		s.ItemID = nil
	}
	delete(s.SuggestedQty, itemID)
}

// Clear drops everything
func (s *ScanSession) Clear() {
	s.LocationID = nil
	s.ItemID = nil
	s.SuggestedQty = nil
}

// SessionStore persists scan sessions between requests, keyed by operator,
// flow and fulfillment order. Load returns an empty session when none exists.
type SessionStore interface {
	Load(ctx context.Context, operatorID uint, flow string, orderID uint) (*ScanSession, error)
	Save(ctx context.Context, operatorID uint, flow string, orderID uint, session *ScanSession) error
	Delete(ctx context.Context, operatorID uint, flow string, orderID uint) error
}
