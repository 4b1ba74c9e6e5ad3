package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLitersToTons_DieselDensity(t *testing.T) {
	tons, err := LitersToTons(1000, 0.84)

	require.NoError(t, err)
	assert.Equal(t, 0.84, tons)
}

func TestTonsToLiters_Inverse(t *testing.T) {
	liters, err := TonsToLiters(0.84, 0.84)

	require.NoError(t, err)
	assert.Equal(t, 1000.0, liters)
}

func TestConversion_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		convert func() (float64, error)
	}{
		{"negative liters", func() (float64, error) { return LitersToTons(-1, 0.84) }},
		{"zero density", func() (float64, error) { return LitersToTons(100, 0) }},
		{"negative density", func() (float64, error) { return LitersToTons(100, -0.8) }},
		{"density above range", func() (float64, error) { return LitersToTons(100, 2.5) }},
		{"negative tons", func() (float64, error) { return TonsToLiters(-0.5, 0.84) }},
		{"tons with zero density", func() (float64, error) { return TonsToLiters(1, 0) }},
		{"NaN liters", func() (float64, error) { return LitersToTons(math.NaN(), 0.84) }},
		{"infinite liters", func() (float64, error) { return LitersToTons(math.Inf(1), 0.84) }},
		{"NaN tons", func() (float64, error) { return TonsToLiters(math.NaN(), 0.84) }},
		{"infinite tons", func() (float64, error) { return TonsToLiters(math.Inf(1), 0.84) }},
		{"NaN density", func() (float64, error) { return LitersToTons(100, math.NaN()) }},
		{"infinite density", func() (float64, error) { return TonsToLiters(1, math.Inf(1)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.convert()
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestConversion_RoundTrip(t *testing.T) {
	densities := []float64{0.01, 0.5, 0.72, 0.84, 1.0, 1.5, 2.0}
	volumes := []float64{0, 1, 999, 1000, 1001, 12345.67, 50000, 1234567.89}

	for _, d := range densities {
		for _, l := range volumes {
			tons, err := LitersToTons(l, d)
			require.NoError(t, err)

			back, err := TonsToLiters(tons, d)
			require.NoError(t, err)

			again, err := LitersToTons(back, d)
			require.NoError(t, err)

			// Tons carry 2 decimals, so the round trip is exact at ton precision
			assert.InDelta(t, tons, again, 0.01, "liters=%v density=%v", l, d)
			assert.InDelta(t, l, back, 0.005*1000/d+0.01, "liters=%v density=%v", l, d)
		}
	}
}
