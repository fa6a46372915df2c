package kafka

import "time"

// StockMovementEvent is emitted after every committed stock mutation
type StockMovementEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Flow       string    `json:"flow"` // picking | receiving
	ProductID  uint      `json:"product_id"`
	LocationID uint      `json:"location_id"`
	Quantity   string    `json:"quantity"` // signed decimal string
	Mode       string    `json:"mode"`
	OperatorID uint      `json:"operator_id"`
	OrderID    uint      `json:"order_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// OrderCompletedEvent is emitted when a fulfillment order reaches completed
type OrderCompletedEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	Flow           string    `json:"flow"`
	OrderID        uint      `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	DocumentNumber string    `json:"document_number"`
	Timestamp      time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeStockMovement  = "stock.movement"
	EventTypeOrderCompleted = "fulfillment.order_completed"
)

// Kafka topics
const (
	TopicStockMovements = "stock-movements"
	TopicOrderCompleted = "fulfillment-completed"
)
