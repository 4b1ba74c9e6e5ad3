package engine

import (
	"fmt"
	"strings"
)

// Urgency is the single ordered severity scale shared by procurement, crisis and alerts.
// Higher values are more severe.
type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyPlanned
	UrgencyWarning
	UrgencyMustOrder
	UrgencyCritical
	UrgencyCatastrophe
)

var urgencyNames = [...]string{
	UrgencyNormal:      "NORMAL",
	UrgencyPlanned:     "PLANNED",
	UrgencyWarning:     "WARNING",
	UrgencyMustOrder:   "MUST_ORDER",
	UrgencyCritical:    "CRITICAL",
	UrgencyCatastrophe: "CATASTROPHE",
}

// AllUrgencies lists every tier from most to least severe
var AllUrgencies = []Urgency{
	UrgencyCatastrophe,
	UrgencyCritical,
	UrgencyMustOrder,
	UrgencyWarning,
	UrgencyPlanned,
	UrgencyNormal,
}

func (u Urgency) String() string {
	if u < UrgencyNormal || u > UrgencyCatastrophe {
		return fmt.Sprintf("Urgency(%d)", int(u))
	}
	return urgencyNames[u]
}

// ParseUrgency accepts a tier name case-insensitively. INFO is an alias of PLANNED.
func ParseUrgency(s string) (Urgency, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "INFO" {
		return UrgencyPlanned, nil
	}
	for u, n := range urgencyNames {
		if n == name {
			return Urgency(u), nil
		}
	}
	return UrgencyNormal, fmt.Errorf("%w: unknown urgency %q", ErrInvalidInput, s)
}

func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Urgency) UnmarshalText(text []byte) error {
	parsed, err := ParseUrgency(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Thresholds are the day-count boundaries of the time-based tiers
type Thresholds struct {
	CatastropheDays float64 `json:"catastropheDays"`
	CriticalDays    float64 `json:"criticalDays"`
	MustOrderDays   float64 `json:"mustOrderDays"`
	WarningDays     float64 `json:"warningDays"`
	PlanningDays    float64 `json:"planningDays"`
}

// Validate checks catastrophe <= critical <= must_order <= warning <= planning
func (t Thresholds) Validate() error {
	if t.CatastropheDays < 0 {
		return fmt.Errorf("%w: catastrophe_days must not be negative", ErrInvalidConfig)
	}
	bounds := []struct {
		name  string
		value float64
	}{
		{"catastrophe_days", t.CatastropheDays},
		{"critical_days", t.CriticalDays},
		{"must_order_days", t.MustOrderDays},
		{"warning_days", t.WarningDays},
		{"planning_days", t.PlanningDays},
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i].value < bounds[i-1].value {
			return fmt.Errorf("%w: %s (%v) must not be below %s (%v)", ErrInvalidConfig,
				bounds[i].name, bounds[i].value, bounds[i-1].name, bounds[i-1].value)
		}
	}
	return nil
}

// Classify maps stock, thresholds and days-left to a tier. The first matching rule wins,
// most severe first. A level of zero disables its stock rule; a nil daysLeft disables
// every time rule.
func Classify(stock, minLevel, criticalLevel float64, daysLeft *float64, t Thresholds) Urgency {
	byTime := ClassifyDays(daysLeft, t)
	if (criticalLevel > 0 && stock <= criticalLevel) || byTime == UrgencyCatastrophe {
		return UrgencyCatastrophe
	}
	if minLevel > 0 && stock <= minLevel {
		return UrgencyCritical
	}
	return byTime
}

// ClassifyDays applies only the time-based rules
func ClassifyDays(daysLeft *float64, t Thresholds) Urgency {
	if daysLeft == nil {
		return UrgencyNormal
	}
	d := *daysLeft
	switch {
	case d <= t.CatastropheDays:
		return UrgencyCatastrophe
	case d <= t.CriticalDays:
		return UrgencyCritical
	case d <= t.MustOrderDays:
		return UrgencyMustOrder
	case d <= t.WarningDays:
		return UrgencyWarning
	case d <= t.PlanningDays:
		return UrgencyPlanned
	default:
		return UrgencyNormal
	}
}
