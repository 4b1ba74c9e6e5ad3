package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// system_parameters keys
const (
	ParamCatastropheDays         = "catastrophe_days"
	ParamCriticalDays            = "critical_days"
	ParamMustOrderDays           = "must_order_days"
	ParamWarningDays             = "warning_days"
	ParamPlanningDays            = "planning_days"
	ParamDeliveryBufferDays      = "delivery_buffer_days"
	ParamDonorBufferDays         = "donor_buffer_days"
	ParamDefaultLeadTimeDays     = "default_lead_time_days"
	ParamTransferDefaultLeadDays = "transfer_default_lead_days"
	ParamCriticalFillPct         = "critical_fill_pct"
	ParamMinFillPct              = "min_fill_pct"
	ParamTargetFillPct           = "target_fill_pct"
	ParamMaxUsefulVolumePct      = "max_useful_volume_pct"
	ParamOverfillInfoPct         = "overfill_info_pct"
	ParamOverfillWarningPct      = "overfill_warning_pct"
	ParamOrderStepLiters         = "order_step_liters"
	ParamForecastHorizonDays     = "forecast_horizon_days"

	ParamSupplierPriorityMaxPoints  = "supplier_priority_max_points"
	ParamSupplierPriorityStepPoints = "supplier_priority_step_points"
	ParamSupplierTrustWeight        = "supplier_trust_weight"
	ParamSupplierRecommendedScore   = "supplier_recommended_score"
	ParamSupplierSpeedUrgent        = "supplier_speed_urgent"
	ParamSupplierSpeedElevated      = "supplier_speed_elevated"
	ParamSupplierSpeedRelaxed       = "supplier_speed_relaxed"
)

// Parameters is the tunable configuration of one engine invocation.
// Load it once per top-level operation and pass it down.
type Parameters struct {
	Thresholds Thresholds `json:"thresholds"`

	DeliveryBufferDays      float64 `json:"deliveryBufferDays"`
	DonorBufferDays         float64 `json:"donorBufferDays"`
	DefaultLeadTimeDays     float64 `json:"defaultLeadTimeDays"`
	TransferDefaultLeadDays float64 `json:"transferDefaultLeadDays"`

	// Percentages are 0-100
	CriticalFillPct    float64 `json:"criticalFillPct"`
	MinFillPct         float64 `json:"minFillPct"`
	TargetFillPct      float64 `json:"targetFillPct"`
	MaxUsefulVolumePct float64 `json:"maxUsefulVolumePct"`
	OverfillInfoPct    float64 `json:"overfillInfoPct"`
	OverfillWarningPct float64 `json:"overfillWarningPct"`

	OrderStepLiters     float64 `json:"orderStepLiters"`
	ForecastHorizonDays int     `json:"forecastHorizonDays"`

	Scoring SupplierScoring `json:"supplierScoring"`
}

// SpeedTier awards Points to an offer delivering within MaxDays.
// A negative MaxDays matches any delivery time.
type SpeedTier struct {
	MaxDays int     `json:"maxDays"`
	Points  float64 `json:"points"`
}

// SupplierScoring weights the manual supplier recommendation.
// Speed tiers are checked in order; the last one must match any delivery time.
type SupplierScoring struct {
	PriorityMaxPoints  float64     `json:"priorityMaxPoints"`
	PriorityStepPoints float64     `json:"priorityStepPoints"`
	TrustWeight        float64     `json:"trustWeight"`
	RecommendedScore   float64     `json:"recommendedScore"`
	UrgentSpeed        []SpeedTier `json:"urgentSpeed"`
	ElevatedSpeed      []SpeedTier `json:"elevatedSpeed"`
	RelaxedSpeed       []SpeedTier `json:"relaxedSpeed"`
}

// DefaultParameters returns the values used when a key is absent from the store
func DefaultParameters() Parameters {
	return Parameters{
		Thresholds: Thresholds{
			CatastropheDays: 1,
			CriticalDays:    3,
			MustOrderDays:   5,
			WarningDays:     7,
			PlanningDays:    14,
		},
		DeliveryBufferDays:      2,
		DonorBufferDays:         15,
		DefaultLeadTimeDays:     7,
		TransferDefaultLeadDays: 30,
		CriticalFillPct:         10,
		MinFillPct:              20,
		TargetFillPct:           80,
		MaxUsefulVolumePct:      95,
		OverfillInfoPct:         95,
		OverfillWarningPct:      98,
		OrderStepLiters:         1000,
		ForecastHorizonDays:     30,
		Scoring: SupplierScoring{
			PriorityMaxPoints:  30,
			PriorityStepPoints: 10,
			TrustWeight:        0.4,
			RecommendedScore:   RecommendedScore,
			UrgentSpeed:        []SpeedTier{{2, 30}, {5, 10}, {7, 0}, {-1, -30}},
			ElevatedSpeed:      []SpeedTier{{3, 20}, {7, 10}, {14, 0}, {-1, -15}},
			RelaxedSpeed:       []SpeedTier{{7, 10}, {21, 0}, {-1, -10}},
		},
	}
}

// ParseParameters overlays raw key/value pairs on the defaults and validates the result.
// Unknown keys are ignored.
func ParseParameters(values map[string]string) (Parameters, error) {
	p := DefaultParameters()
	targets := map[string]*float64{
		ParamCatastropheDays:         &p.Thresholds.CatastropheDays,
		ParamCriticalDays:            &p.Thresholds.CriticalDays,
		ParamMustOrderDays:           &p.Thresholds.MustOrderDays,
		ParamWarningDays:             &p.Thresholds.WarningDays,
		ParamPlanningDays:            &p.Thresholds.PlanningDays,
		ParamDeliveryBufferDays:      &p.DeliveryBufferDays,
		ParamDonorBufferDays:         &p.DonorBufferDays,
		ParamDefaultLeadTimeDays:     &p.DefaultLeadTimeDays,
		ParamTransferDefaultLeadDays: &p.TransferDefaultLeadDays,
		ParamCriticalFillPct:         &p.CriticalFillPct,
		ParamMinFillPct:              &p.MinFillPct,
		ParamTargetFillPct:           &p.TargetFillPct,
		ParamMaxUsefulVolumePct:      &p.MaxUsefulVolumePct,
		ParamOverfillInfoPct:         &p.OverfillInfoPct,
		ParamOverfillWarningPct:      &p.OverfillWarningPct,
		ParamOrderStepLiters:         &p.OrderStepLiters,

		ParamSupplierPriorityMaxPoints:  &p.Scoring.PriorityMaxPoints,
		ParamSupplierPriorityStepPoints: &p.Scoring.PriorityStepPoints,
		ParamSupplierTrustWeight:        &p.Scoring.TrustWeight,
		ParamSupplierRecommendedScore:   &p.Scoring.RecommendedScore,
	}
	speeds := map[string]*[]SpeedTier{
		ParamSupplierSpeedUrgent:   &p.Scoring.UrgentSpeed,
		ParamSupplierSpeedElevated: &p.Scoring.ElevatedSpeed,
		ParamSupplierSpeedRelaxed:  &p.Scoring.RelaxedSpeed,
	}

	for key, raw := range values {
		if key == ParamForecastHorizonDays {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || n < 0 {
				return Parameters{}, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrInvalidConfig, key, raw)
			}
			p.ForecastHorizonDays = n
			continue
		}
		if tiers, ok := speeds[key]; ok {
			parsed, err := ParseSpeedTiers(raw)
			if err != nil {
				return Parameters{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
			}
			*tiers = parsed
			continue
		}
		target, ok := targets[key]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || v < 0 || !finite(v) {
			return Parameters{}, fmt.Errorf("%w: %s must be a finite non-negative number, got %q", ErrInvalidConfig, key, raw)
		}
		*target = v
	}

	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// Validate checks tier ordering and that the fill percentages are consistent
func (p Parameters) Validate() error {
	if err := p.Thresholds.Validate(); err != nil {
		return err
	}
	if !(p.CriticalFillPct <= p.MinFillPct && p.MinFillPct <= p.TargetFillPct && p.TargetFillPct <= 100) {
		return fmt.Errorf("%w: fill percentages must satisfy critical <= min <= target <= 100", ErrInvalidConfig)
	}
	if p.MaxUsefulVolumePct <= 0 || p.MaxUsefulVolumePct > 100 {
		return fmt.Errorf("%w: max_useful_volume_pct must be in (0, 100]", ErrInvalidConfig)
	}
	if p.OverfillInfoPct > p.OverfillWarningPct {
		return fmt.Errorf("%w: overfill_info_pct must not exceed overfill_warning_pct", ErrInvalidConfig)
	}
	for name, tiers := range map[string][]SpeedTier{
		ParamSupplierSpeedUrgent:   p.Scoring.UrgentSpeed,
		ParamSupplierSpeedElevated: p.Scoring.ElevatedSpeed,
		ParamSupplierSpeedRelaxed:  p.Scoring.RelaxedSpeed,
	} {
		if err := validateSpeedTiers(tiers); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

// ParseSpeedTiers reads tiers written as "2:30,5:10,7:0,*:-30", where each entry is
// maxDays:points and "*" matches any delivery time.
func ParseSpeedTiers(raw string) ([]SpeedTier, error) {
	var tiers []SpeedTier
	for _, part := range strings.Split(raw, ",") {
		days, points, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("tier %q is not maxDays:points", part)
		}
		tier := SpeedTier{MaxDays: -1}
		if days = strings.TrimSpace(days); days != "*" {
			n, err := strconv.Atoi(days)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("tier %q has an invalid day count", part)
			}
			tier.MaxDays = n
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(points), 64)
		if err != nil || !finite(v) {
			return nil, fmt.Errorf("tier %q has invalid points", part)
		}
		tier.Points = v
		tiers = append(tiers, tier)
	}
	if err := validateSpeedTiers(tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

func validateSpeedTiers(tiers []SpeedTier) error {
	if len(tiers) == 0 || tiers[len(tiers)-1].MaxDays >= 0 {
		return errors.New("tiers must end with a catch-all entry")
	}
	last := math.MinInt
	for _, t := range tiers[:len(tiers)-1] {
		if t.MaxDays < 0 || t.MaxDays <= last {
			return errors.New("tier day limits must be strictly ascending")
		}
		last = t.MaxDays
	}
	return nil
}
