package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParameters_Defaults(t *testing.T) {
	p, err := ParseParameters(nil)

	require.NoError(t, err)
	assert.Equal(t, DefaultParameters(), p)
}

func TestParseParameters_Overrides(t *testing.T) {
	p, err := ParseParameters(map[string]string{
		ParamWarningDays:         "10",
		ParamDonorBufferDays:     " 20 ",
		ParamOrderStepLiters:     "500",
		ParamForecastHorizonDays: "45",
		"unrelated_setting":      "whatever",
	})

	require.NoError(t, err)
	assert.Equal(t, 10.0, p.Thresholds.WarningDays)
	assert.Equal(t, 20.0, p.DonorBufferDays)
	assert.Equal(t, 500.0, p.OrderStepLiters)
	assert.Equal(t, 45, p.ForecastHorizonDays)
	assert.Equal(t, 5.0, p.Thresholds.MustOrderDays)
}

func TestParseParameters_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"non numeric", map[string]string{ParamCriticalDays: "three"}},
		{"negative", map[string]string{ParamDeliveryBufferDays: "-2"}},
		{"tier order broken", map[string]string{ParamMustOrderDays: "9"}},
		{"fill order broken", map[string]string{ParamMinFillPct: "90"}},
		{"useful volume zero", map[string]string{ParamMaxUsefulVolumePct: "0"}},
		{"overfill bars swapped", map[string]string{ParamOverfillInfoPct: "99"}},
		{"fractional horizon", map[string]string{ParamForecastHorizonDays: "7.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParameters(tt.values)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseParameters_RejectsNonFiniteValues(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "+Inf"} {
		_, err := ParseParameters(map[string]string{ParamDonorBufferDays: raw})
		assert.ErrorIs(t, err, ErrInvalidConfig, raw)
	}
}

func TestParseParameters_SupplierScoring(t *testing.T) {
	p, err := ParseParameters(map[string]string{
		ParamSupplierPriorityMaxPoints: "40",
		ParamSupplierTrustWeight:       "0.5",
		ParamSupplierSpeedUrgent:       "1:50, 4:10, *:-40",
	})

	require.NoError(t, err)
	assert.Equal(t, 40.0, p.Scoring.PriorityMaxPoints)
	assert.Equal(t, 10.0, p.Scoring.PriorityStepPoints)
	assert.Equal(t, 0.5, p.Scoring.TrustWeight)
	assert.Equal(t, []SpeedTier{{MaxDays: 1, Points: 50}, {MaxDays: 4, Points: 10}, {MaxDays: -1, Points: -40}}, p.Scoring.UrgentSpeed)
	assert.Equal(t, DefaultParameters().Scoring.RelaxedSpeed, p.Scoring.RelaxedSpeed)
}

func TestParseSpeedTiers_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no catch-all", "2:30,5:10"},
		{"descending days", "5:10,2:30,*:0"},
		{"missing points", "2,*:0"},
		{"non numeric points", "2:fast,*:0"},
		{"NaN points", "2:NaN,*:0"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpeedTiers(tt.raw)
			assert.Error(t, err)

			_, err = ParseParameters(map[string]string{ParamSupplierSpeedRelaxed: tt.raw})
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
