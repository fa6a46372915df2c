package session

import (
	"context"
	"sync"

	"github.com/regalator/wms/internal/fulfillment/domain"
)

// MemoryStore is the in-process fallback used when Redis is not configured.
// Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.ScanSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.ScanSession)}
}

func (s *MemoryStore) Load(_ context.Context, operatorID uint, flow string, orderID uint) (*domain.ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionKey(operatorID, flow, orderID)]; ok {
		copied := cloneSession(session)
		return &copied, nil
	}
	return &domain.ScanSession{}, nil
}

func (s *MemoryStore) Save(_ context.Context, operatorID uint, flow string, orderID uint, session *domain.ScanSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionKey(operatorID, flow, orderID)] = cloneSession(*session)
	return nil
}

// cloneSession detaches the stored value from the caller's copy. Callers
// mutate the suggestion map between Load and Save, so sharing it would let
// unsaved changes leak into the store.
func cloneSession(session domain.ScanSession) domain.ScanSession {
	if session.LocationID != nil {
		id := *session.LocationID
		session.LocationID = &id
	}
	if session.ItemID != nil {
		id := *session.ItemID
		session.ItemID = &id
	}
	if session.SuggestedQty != nil {
		suggestions := make(map[uint]string, len(session.SuggestedQty))
		for itemID, qty := range session.SuggestedQty {
			suggestions[itemID] = qty
		}
		session.SuggestedQty = suggestions
	}
	return session
}

func (s *MemoryStore) Delete(_ context.Context, operatorID uint, flow string, orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionKey(operatorID, flow, orderID))
	return nil
}
