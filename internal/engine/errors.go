// Package engine holds the fuel procurement and crisis decision algorithms.
//
// Everything here is pure: callers load a snapshot of depots, tanks, rates,
// policies, offers and orders, pass it in together with the Parameters read
// for this invocation, and get typed results back. Nothing in this package
// touches the database or keeps state between calls.
package engine

import "errors"

var (
	// ErrInvalidInput marks a caller error such as a negative quantity or a non-positive density.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig marks parameters that break the tier ordering or are out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Data quality warning codes
const (
	WarningNoConsumptionRate = "NO_CONSUMPTION_RATE"
	WarningNoCapacity        = "NO_TANK_CAPACITY"
	WarningInvalidThresholds = "INVALID_THRESHOLDS"
	WarningInvalidDensity    = "INVALID_DENSITY"
	WarningReceiverAtTarget  = "RECEIVER_AT_TARGET"
)
