package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxDensity is the upper bound accepted for a fuel density in kg/L
const MaxDensity = 2.0

var thousand = decimal.NewFromInt(1000)

// LitersToTons converts a volume to mass using density in kg/L, rounded to 2 decimals
func LitersToTons(liters, density float64) (float64, error) {
	if liters < 0 || !finite(liters) {
		return 0, fmt.Errorf("%w: liters must be a finite non-negative number, got %v", ErrInvalidInput, liters)
	}
	if err := checkDensity(density); err != nil {
		return 0, err
	}
	tons := decimal.NewFromFloat(liters).
		Mul(decimal.NewFromFloat(density)).
		Div(thousand).
		Round(2)
	return tons.InexactFloat64(), nil
}

// TonsToLiters converts a mass back to volume, rounded to 2 decimals
func TonsToLiters(tons, density float64) (float64, error) {
	if tons < 0 || !finite(tons) {
		return 0, fmt.Errorf("%w: tons must be a finite non-negative number, got %v", ErrInvalidInput, tons)
	}
	if err := checkDensity(density); err != nil {
		return 0, err
	}
	liters := decimal.NewFromFloat(tons).
		Mul(thousand).
		Div(decimal.NewFromFloat(density)).
		Round(2)
	return liters.InexactFloat64(), nil
}

func checkDensity(density float64) error {
	if !(density > 0 && density <= MaxDensity) {
		return fmt.Errorf("%w: density must be in (0, %v], got %v", ErrInvalidInput, MaxDensity, density)
	}
	return nil
}

// mustTons is LitersToTons for values already known to be valid.
// Negative inputs are reported as zero tons.
func mustTons(liters, density float64) float64 {
	if liters <= 0 {
		return 0
	}
	tons, err := LitersToTons(liters, density)
	if err != nil {
		return 0
	}
	return tons
}

// finite reports whether v is neither NaN nor an infinity
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// round rounds v half away from zero to the given number of decimals.
// Non-finite values are returned unchanged; decimal cannot represent them.
func round(v float64, places int32) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}
