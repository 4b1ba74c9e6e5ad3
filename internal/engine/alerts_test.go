package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tank(depotID uuid.UUID, depotName, code, fuel string, stock float64, dailyConsumption *float64) TankState {
	return TankState{
		TankID:                uuid.New(),
		TankCode:              code,
		DepotID:               depotID,
		DepotName:             depotName,
		FuelTypeID:            uuid.New(),
		FuelCode:              fuel,
		StockLiters:           stock,
		CapacityLiters:        10000,
		DepotCapacityLiters:   10000,
		DepotDailyConsumption: dailyConsumption,
	}
}

func TestBuildAlerts_MergesAndSorts(t *testing.T) {
	alpha, bravo := uuid.New(), uuid.New()
	tanks := []TankState{
		tank(bravo, "Bravo", "T2", "DT", 9900, nil),
		tank(alpha, "Alpha", "T4", "A92", 5000, rate(1000)),
		tank(bravo, "Bravo", "T3", "DT", 9600, nil),
		tank(alpha, "Alpha", "T1", "DT", 500, rate(1000)),
		tank(bravo, "Bravo", "T5", "A95", 1500, nil),
	}

	alerts := BuildAlerts(tanks, DefaultParameters())

	require.Len(t, alerts, 6)
	type key struct {
		tank     string
		kind     AlertType
		severity Urgency
	}
	got := make([]key, len(alerts))
	for i, a := range alerts {
		got[i] = key{a.TankCode, a.Type, a.Severity}
	}
	assert.Equal(t, []key{
		{"T1", AlertLowStock, UrgencyCatastrophe},
		{"T1", AlertReorderPoint, UrgencyCatastrophe},
		{"T5", AlertReorderPoint, UrgencyCritical},
		{"T4", AlertLowStock, UrgencyMustOrder},
		{"T2", AlertOverfill, UrgencyWarning},
		{"T3", AlertOverfill, UrgencyPlanned},
	}, got)

	assert.Equal(t, 0.5, *alerts[0].DaysLeft)
	assert.Equal(t, 1000.0, *alerts[1].ThresholdLiters)
	assert.Equal(t, 2000.0, *alerts[2].ThresholdLiters)
	assert.Equal(t, 99.0, alerts[4].FillPct)
}

func TestBuildAlerts_ApportionsDepotFiguresByCapacity(t *testing.T) {
	depot := uuid.New()
	policy := &PolicyLevels{CriticalLiters: 4000, MinLiters: 6000, TargetLiters: 16000}

	low := tank(depot, "Charlie", "X", "DT", 2500, rate(2000))
	low.DepotCapacityLiters = 20000
	low.Policy = policy
	full := tank(depot, "Charlie", "Y", "DT", 9000, rate(2000))
	full.DepotCapacityLiters = 20000
	full.Policy = policy

	alerts := BuildAlerts([]TankState{full, low}, DefaultParameters())

	require.Len(t, alerts, 2)
	assert.Equal(t, AlertLowStock, alerts[0].Type)
	assert.Equal(t, UrgencyCritical, alerts[0].Severity)
	assert.Equal(t, 2.5, *alerts[0].DaysLeft)
	assert.Equal(t, AlertReorderPoint, alerts[1].Type)
	assert.Equal(t, UrgencyCritical, alerts[1].Severity)
	assert.Equal(t, 3000.0, *alerts[1].ThresholdLiters)
}

func TestBuildAlerts_OverfillBoundaries(t *testing.T) {
	p := DefaultParameters()
	depot := uuid.New()

	assert.Empty(t, BuildAlerts([]TankState{tank(depot, "D", "A", "DT", 9500, nil)}, p))

	alerts := BuildAlerts([]TankState{tank(depot, "D", "B", "DT", 9800, nil)}, p)
	require.Len(t, alerts, 1)
	assert.Equal(t, UrgencyWarning, alerts[0].Severity)
}

func TestSummarizeAlerts(t *testing.T) {
	alpha, bravo := uuid.New(), uuid.New()
	alerts := BuildAlerts([]TankState{
		tank(alpha, "Alpha", "T1", "DT", 500, rate(1000)),
		tank(alpha, "Alpha", "T4", "A92", 5000, rate(1000)),
		tank(bravo, "Bravo", "T2", "DT", 9900, nil),
		tank(bravo, "Bravo", "T3", "DT", 9600, nil),
		tank(bravo, "Bravo", "T5", "A95", 1500, nil),
	}, DefaultParameters())

	summary := SummarizeAlerts(alerts)

	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 2, summary.BySeverity[UrgencyCatastrophe])
	assert.Equal(t, 1, summary.BySeverity[UrgencyCritical])
	assert.Equal(t, 1, summary.BySeverity[UrgencyMustOrder])
	assert.Equal(t, 1, summary.BySeverity[UrgencyWarning])
	assert.Equal(t, 1, summary.BySeverity[UrgencyPlanned])
	assert.Equal(t, 2, summary.ByType[AlertLowStock])
	assert.Equal(t, 2, summary.ByType[AlertReorderPoint])
	assert.Equal(t, 2, summary.ByType[AlertOverfill])

	require.Len(t, summary.ByDepot, 2)
	assert.Equal(t, "Alpha", summary.ByDepot[0].DepotName)
	assert.Equal(t, UrgencyCatastrophe, summary.ByDepot[0].MaxSeverity)
	assert.Equal(t, 3, summary.ByDepot[0].Count)
	assert.Equal(t, UrgencyCritical, summary.ByDepot[1].MaxSeverity)

	assert.Len(t, FilterByDepot(alerts, bravo), 3)
	assert.Empty(t, FilterByDepot(alerts, uuid.New()))
}

func TestSummarizeAlerts_Empty(t *testing.T) {
	summary := SummarizeAlerts(nil)

	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.BySeverity[UrgencyCatastrophe])
	assert.NotNil(t, summary.ByDepot)
}
