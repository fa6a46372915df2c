package domain

import "errors"

// Scan event errors. All are recovered at the request boundary and turned
// into a single operator-facing feedback message; none are fatal.
var (
	ErrLocationNotFound  = errors.New("location not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrItemNotInOrder    = errors.New("item not in order")
	ErrLocationMismatch  = errors.New("item is assigned to a different location")
	ErrInvalidQuantity   = errors.New("quantity must be a positive number")
	ErrOverCapacity      = errors.New("quantity exceeds the target")
	ErrInsufficientStock = errors.New("insufficient stock at location")
	ErrUnderflow         = errors.New("quantity cannot go below zero")
	ErrSelectionRequired = errors.New("select a location and an item first")
)

// Feedback severities
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityError   = "error"
)

// Feedback is the one message-plus-severity pair every scan event produces
type Feedback struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func Success(message string) Feedback {
	return Feedback{Message: message, Severity: SeveritySuccess}
}

func Info(message string) Feedback {
	return Feedback{Message: message, Severity: SeverityInfo}
}

func Error(message string) Feedback {
	return Feedback{Message: message, Severity: SeverityError}
}

// FeedbackFor maps a scan error to its operator-facing feedback
func FeedbackFor(err error) Feedback {
	switch {
	case errors.Is(err, ErrLocationNotFound):
		return Error("Location not found")
	case errors.Is(err, ErrProductNotFound):
		return Error("Product not found")
	case errors.Is(err, ErrItemNotInOrder):
		return Error("Product is not part of this order")
	case errors.Is(err, ErrLocationMismatch):
		return Error("Item is assigned to a different location")
	case errors.Is(err, ErrInvalidQuantity):
		return Error("Quantity must be a positive number")
	case errors.Is(err, ErrOverCapacity):
		return Error("Quantity exceeds the remaining target")
	case errors.Is(err, ErrInsufficientStock):
		return Error("Not enough stock at the selected location")
	case errors.Is(err, ErrUnderflow):
		return Error("Quantity cannot go below zero")
	case errors.Is(err, ErrSelectionRequired):
		return Error("Select a location and an item before entering a quantity")
	default:
		return Error("Operation failed, please retry the scan")
	}
}

// IsScanError reports whether err belongs to the scan taxonomy, as opposed to
// an unexpected persistence failure that should surface as a 5xx.
func IsScanError(err error) bool {
	for _, known := range []error{
		ErrLocationNotFound, ErrProductNotFound, ErrItemNotInOrder,
		ErrLocationMismatch, ErrInvalidQuantity, ErrOverCapacity,
		ErrInsufficientStock, ErrUnderflow, ErrSelectionRequired,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
