package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity application modes
const (
	ModeAppend    = "append"
	ModeOverwrite = "overwrite"
)

// ParseMode normalizes a mode field, defaulting to append
func ParseMode(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), ModeOverwrite) {
		return ModeOverwrite
	}
	return ModeAppend
}

// ParseQuantity parses an operator-entered quantity. Accepts a comma decimal
// separator since scanner keyboards are set to the Polish locale.
func ParseQuantity(value string) (decimal.Decimal, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	qty, err := decimal.NewFromString(value)
	if err != nil || !qty.IsPositive() {
		return decimal.Decimal{}, ErrInvalidQuantity
	}
	return qty.Round(2), nil
}

// ApplyQuantity computes the new fulfilled quantity and the signed ledger
// delta for one scan event. It mutates nothing.
//
// append adds the requested quantity to the current fulfilled amount;
// overwrite treats the requested quantity as the new absolute value, so the
// delta may be negative. The result must stay within [0, target].
func ApplyQuantity(target, fulfilled, requested decimal.Decimal, mode string) (newFulfilled, delta decimal.Decimal, err error) {
	if !requested.IsPositive() {
		return decimal.Decimal{}, decimal.Decimal{}, ErrInvalidQuantity
	}

	switch mode {
	case ModeOverwrite:
		newFulfilled = requested
	default:
		newFulfilled = fulfilled.Add(requested)
	}

	if newFulfilled.GreaterThan(target) {
		return decimal.Decimal{}, decimal.Decimal{}, ErrOverCapacity
	}
	if newFulfilled.IsNegative() {
		return decimal.Decimal{}, decimal.Decimal{}, ErrUnderflow
	}

	return newFulfilled, newFulfilled.Sub(fulfilled), nil
}

// SuggestQuantity precomputes the input value offered when an item is
// selected: the remaining amount if positive, else the already fulfilled
// amount if positive, else nothing.
func SuggestQuantity(target, fulfilled decimal.Decimal) string {
	remaining := target.Sub(fulfilled)
	if remaining.IsPositive() {
		return remaining.String()
	}
	if fulfilled.IsPositive() {
		return fulfilled.String()
	}
	return ""
}
