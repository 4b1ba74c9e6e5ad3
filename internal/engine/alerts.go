package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// AlertType identifies which rule raised an alert
type AlertType string

const (
	AlertLowStock     AlertType = "LOW_STOCK"
	AlertReorderPoint AlertType = "REORDER_POINT"
	AlertOverfill     AlertType = "OVERFILL"
)

// TankState is one tank with the depot×fuel context needed for alerting
type TankState struct {
	TankID         uuid.UUID
	TankCode       string
	DepotID        uuid.UUID
	DepotName      string
	StationID      uuid.UUID
	FuelTypeID     uuid.UUID
	FuelCode       string
	StockLiters    float64
	CapacityLiters float64
	// DepotCapacityLiters is the combined capacity of the depot's tanks for this fuel
	DepotCapacityLiters float64
	// DepotDailyConsumption is nil when no rate is effective today
	DepotDailyConsumption *float64
	Policy                *PolicyLevels
}

// share is the tank's fraction of the depot capacity for its fuel
func (t TankState) share() float64 {
	if t.DepotCapacityLiters <= 0 || t.CapacityLiters >= t.DepotCapacityLiters {
		return 1
	}
	return t.CapacityLiters / t.DepotCapacityLiters
}

// Alert is one entry of the fleet alert feed
type Alert struct {
	ID              string    `json:"id"`
	Type            AlertType `json:"type"`
	Severity        Urgency   `json:"severity"`
	TankID          uuid.UUID `json:"tankId"`
	TankCode        string    `json:"tankCode"`
	DepotID         uuid.UUID `json:"depotId"`
	DepotName       string    `json:"depotName"`
	StationID       uuid.UUID `json:"stationId"`
	FuelTypeID      uuid.UUID `json:"fuelTypeId"`
	FuelCode        string    `json:"fuelCode"`
	StockLiters     float64   `json:"stockLiters"`
	CapacityLiters  float64   `json:"capacityLiters"`
	FillPct         float64   `json:"fillPct"`
	DaysLeft        *float64  `json:"daysLeft,omitempty"`
	ThresholdLiters *float64  `json:"thresholdLiters,omitempty"`
	Message         string    `json:"message"`
}

// BuildAlerts evaluates low-stock, reorder-point and overfill rules for every tank.
// Depot consumption and policy levels are apportioned to tanks by capacity share.
// The result is ordered by severity, then days left, then depot and tank.
func BuildAlerts(tanks []TankState, p Parameters) []Alert {
	alerts := []Alert{}
	for _, t := range tanks {
		if t.CapacityLiters <= 0 {
			continue
		}
		alerts = append(alerts, tankAlerts(t, p)...)
	}
	slices.SortStableFunc(alerts, compareAlerts)
	return alerts
}

func tankAlerts(t TankState, p Parameters) []Alert {
	var out []Alert
	share := t.share()
	fill := t.StockLiters / t.CapacityLiters * 100

	base := Alert{
		TankID:         t.TankID,
		TankCode:       t.TankCode,
		DepotID:        t.DepotID,
		DepotName:      t.DepotName,
		StationID:      t.StationID,
		FuelTypeID:     t.FuelTypeID,
		FuelCode:       t.FuelCode,
		StockLiters:    round(t.StockLiters, 2),
		CapacityLiters: t.CapacityLiters,
		FillPct:        round(fill, 1),
	}

	if t.DepotDailyConsumption != nil {
		daysLeft := DaysUntilEmpty(t.StockLiters, *t.DepotDailyConsumption*share)
		if severity := ClassifyDays(daysLeft, p.Thresholds); daysLeft != nil && severity >= UrgencyWarning {
			a := base
			a.ID = alertID(AlertLowStock, t.TankID)
			a.Type = AlertLowStock
			a.Severity = severity
			a.DaysLeft = roundPtr(daysLeft, 1)
			a.Message = fmt.Sprintf("%s %s tank %s: %.1f days of stock left", t.DepotName, t.FuelCode, t.TankCode, *a.DaysLeft)
			out = append(out, a)
		}
	}

	depotCapacity := t.DepotCapacityLiters
	if depotCapacity <= 0 {
		depotCapacity = t.CapacityLiters
	}
	levels := ResolveLevels(t.Policy, depotCapacity, p).Scale(share)
	if levels.Validate() == nil {
		var threshold float64
		var severity Urgency
		switch {
		case levels.CriticalLiters > 0 && t.StockLiters <= levels.CriticalLiters:
			threshold, severity = levels.CriticalLiters, UrgencyCatastrophe
		case levels.MinLiters > 0 && t.StockLiters <= levels.MinLiters:
			threshold, severity = levels.MinLiters, UrgencyCritical
		}
		if severity > UrgencyNormal {
			a := base
			a.ID = alertID(AlertReorderPoint, t.TankID)
			a.Type = AlertReorderPoint
			a.Severity = severity
			th := round(threshold, 2)
			a.ThresholdLiters = &th
			a.Message = fmt.Sprintf("%s %s tank %s: stock %.0f L at or below %s level %.0f L",
				t.DepotName, t.FuelCode, t.TankCode, t.StockLiters, levelName(severity), threshold)
			out = append(out, a)
		}
	}

	if severity, ok := overfillSeverity(fill, p); ok {
		a := base
		a.ID = alertID(AlertOverfill, t.TankID)
		a.Type = AlertOverfill
		a.Severity = severity
		a.Message = fmt.Sprintf("%s %s tank %s is %.1f%% full", t.DepotName, t.FuelCode, t.TankCode, fill)
		out = append(out, a)
	}
	return out
}

// overfillSeverity is PLANNED above the info bar and WARNING at or above the warning bar
func overfillSeverity(fillPct float64, p Parameters) (Urgency, bool) {
	switch {
	case fillPct >= p.OverfillWarningPct:
		return UrgencyWarning, true
	case fillPct > p.OverfillInfoPct:
		return UrgencyPlanned, true
	default:
		return UrgencyNormal, false
	}
}

func levelName(u Urgency) string {
	if u == UrgencyCatastrophe {
		return "critical"
	}
	return "minimum"
}

func alertID(t AlertType, tankID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", t, tankID)
}

func compareAlerts(a, b Alert) int {
	if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
		return c
	}
	switch {
	case a.DaysLeft != nil && b.DaysLeft == nil:
		return -1
	case a.DaysLeft == nil && b.DaysLeft != nil:
		return 1
	case a.DaysLeft != nil && b.DaysLeft != nil:
		if c := cmp.Compare(*a.DaysLeft, *b.DaysLeft); c != 0 {
			return c
		}
	}
	return cmp.Or(
		cmp.Compare(a.DepotName, b.DepotName),
		cmp.Compare(a.TankCode, b.TankCode),
		cmp.Compare(a.Type, b.Type),
	)
}

// DepotAlertCount is the number of alerts raised for one depot
type DepotAlertCount struct {
	DepotID     uuid.UUID `json:"depotId"`
	DepotName   string    `json:"depotName"`
	Count       int       `json:"count"`
	MaxSeverity Urgency   `json:"maxSeverity"`
}

// AlertSummary counts alerts by severity, type and depot
type AlertSummary struct {
	Total      int               `json:"total"`
	BySeverity map[Urgency]int   `json:"bySeverity"`
	ByType     map[AlertType]int `json:"byType"`
	ByDepot    []DepotAlertCount `json:"byDepot"`
}

// SummarizeAlerts aggregates an alert feed. Depots are listed most severe first.
func SummarizeAlerts(alerts []Alert) AlertSummary {
	s := AlertSummary{
		Total:      len(alerts),
		BySeverity: make(map[Urgency]int),
		ByType: map[AlertType]int{
			AlertLowStock:     0,
			AlertReorderPoint: 0,
			AlertOverfill:     0,
		},
		ByDepot: []DepotAlertCount{},
	}
	for _, u := range AllUrgencies {
		if u != UrgencyNormal {
			s.BySeverity[u] = 0
		}
	}

	index := make(map[uuid.UUID]int)
	for _, a := range alerts {
		s.BySeverity[a.Severity]++
		s.ByType[a.Type]++
		i, ok := index[a.DepotID]
		if !ok {
			i = len(s.ByDepot)
			index[a.DepotID] = i
			s.ByDepot = append(s.ByDepot, DepotAlertCount{DepotID: a.DepotID, DepotName: a.DepotName})
		}
		s.ByDepot[i].Count++
		s.ByDepot[i].MaxSeverity = max(s.ByDepot[i].MaxSeverity, a.Severity)
	}

	slices.SortFunc(s.ByDepot, func(a, b DepotAlertCount) int {
		return cmp.Or(
			cmp.Compare(b.MaxSeverity, a.MaxSeverity),
			cmp.Compare(b.Count, a.Count),
			cmp.Compare(a.DepotName, b.DepotName),
		)
	})
	return s
}

// FilterByDepot keeps alerts for one depot, preserving order
func FilterByDepot(alerts []Alert, depotID uuid.UUID) []Alert {
	out := []Alert{}
	for _, a := range alerts {
		if a.DepotID == depotID {
			out = append(out, a)
		}
	}
	return out
}
