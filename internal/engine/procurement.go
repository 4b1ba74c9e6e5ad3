package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// PolicyLevels are explicit thresholds for one depot×fuel, in liters
type PolicyLevels struct {
	CriticalLiters float64
	MinLiters      float64
	TargetLiters   float64
}

// Threshold sources
const (
	LevelsFromPolicy   = "policy"
	LevelsFromFallback = "capacity_pct"
)

// Levels are the effective thresholds for a depot×fuel together with its capacity
type Levels struct {
	CriticalLiters float64 `json:"criticalLevelLiters"`
	MinLiters      float64 `json:"minLevelLiters"`
	TargetLiters   float64 `json:"targetLevelLiters"`
	CapacityLiters float64 `json:"capacityLiters"`
	Source         string  `json:"source"`
}

// ResolveLevels picks the policy when present, otherwise derives levels from capacity percentages
func ResolveLevels(policy *PolicyLevels, capacity float64, p Parameters) Levels {
	if policy != nil {
		return Levels{
			CriticalLiters: policy.CriticalLiters,
			MinLiters:      policy.MinLiters,
			TargetLiters:   policy.TargetLiters,
			CapacityLiters: capacity,
			Source:         LevelsFromPolicy,
		}
	}
	return Levels{
		CriticalLiters: capacity * p.CriticalFillPct / 100,
		MinLiters:      capacity * p.MinFillPct / 100,
		TargetLiters:   capacity * p.TargetFillPct / 100,
		CapacityLiters: capacity,
		Source:         LevelsFromFallback,
	}
}

// Validate checks 0 <= critical <= min <= target <= capacity. Violations are
// reported, never corrected.
func (l Levels) Validate() error {
	if l.CriticalLiters < 0 || l.CriticalLiters > l.MinLiters || l.MinLiters > l.TargetLiters || l.TargetLiters > l.CapacityLiters {
		return fmt.Errorf("%w: levels must satisfy 0 <= critical (%v) <= min (%v) <= target (%v) <= capacity (%v)",
			ErrInvalidInput, l.CriticalLiters, l.MinLiters, l.TargetLiters, l.CapacityLiters)
	}
	return nil
}

// Scale returns the levels proportionally reduced to a share of the depot capacity
func (l Levels) Scale(share float64) Levels {
	return Levels{
		CriticalLiters: l.CriticalLiters * share,
		MinLiters:      l.MinLiters * share,
		TargetLiters:   l.TargetLiters * share,
		CapacityLiters: l.CapacityLiters * share,
		Source:         l.Source,
	}
}

// Offer is a supplier offer for a station+fuel as seen by the engine
type Offer struct {
	OfferID        uuid.UUID
	SupplierID     uuid.UUID
	SupplierName   string
	SupplierActive bool
	OfferActive    bool
	AutoScore      float64
	Priority       int
	DeliveryDays   int
	PricePerTon    float64
	ValidFrom      *time.Time
	ValidTo        *time.Time
}

// Available reports whether the offer may be picked on day
func (o Offer) Available(day time.Time) bool {
	if !o.OfferActive || !o.SupplierActive {
		return false
	}
	d := truncateDay(day)
	if o.ValidFrom != nil && truncateDay(o.ValidFrom.In(d.Location())).After(d) {
		return false
	}
	if o.ValidTo != nil && truncateDay(o.ValidTo.In(d.Location())).Before(d) {
		return false
	}
	return true
}

// SupplierRef is the chosen supplier on a shortage report
type SupplierRef struct {
	SupplierID   uuid.UUID `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	OfferID      uuid.UUID `json:"offerId"`
	PricePerTon  float64   `json:"pricePerTon"`
	DeliveryDays int       `json:"deliveryDays"`
	Priority     int       `json:"priority"`
	AutoScore    float64   `json:"autoScore"`
}

func compareOffers(a, b Offer) int {
	return cmp.Or(
		cmp.Compare(a.Priority, b.Priority),
		cmp.Compare(a.DeliveryDays, b.DeliveryDays),
		cmp.Compare(b.AutoScore, a.AutoScore),
		cmp.Compare(a.PricePerTon, b.PricePerTon),
		cmp.Compare(a.SupplierID.String(), b.SupplierID.String()),
	)
}

// BestOffer picks the available offer with the lowest priority rank, then the
// fastest delivery, then the highest supplier score. Returns nil when none is available.
func BestOffer(offers []Offer, today time.Time) *Offer {
	var best *Offer
	for i := range offers {
		if !offers[i].Available(today) {
			continue
		}
		if best == nil || compareOffers(offers[i], *best) < 0 {
			best = &offers[i]
		}
	}
	return best
}

// OrderCalculation is the breakdown behind a recommended order quantity
type OrderCalculation struct {
	StockLiters               float64 `json:"stockLiters"`
	DailyConsumptionLiters    float64 `json:"dailyConsumptionLiters"`
	LeadTimeDays              float64 `json:"leadTimeDays"`
	LeadTimeSource            string  `json:"leadTimeSource"`
	BufferDays                float64 `json:"bufferDays"`
	ConsumptionDuringDelivery float64 `json:"consumptionDuringDeliveryLiters"`
	TargetLiters              float64 `json:"targetLiters"`
	UncappedOrderLiters       float64 `json:"uncappedOrderLiters"`
	MaxUsefulLiters           float64 `json:"maxUsefulLiters"`
	MaxOrderLiters            float64 `json:"maxOrderLiters"`
	OrderStepLiters           float64 `json:"orderStepLiters"`
	RecommendedLiters         float64 `json:"recommendedLiters"`
	Capped                    bool    `json:"capped"`
	ProjectedAtDeliveryLiters float64 `json:"projectedAtDeliveryLiters"`
	InsufficientCapacity      bool    `json:"insufficientCapacity"`
	ShortfallLiters           float64 `json:"shortfallLiters"`
}

// SizeOrder computes the quantity that restores target stock once the delivery lands,
// capped so the delivery fits under the useful volume of the tanks.
func SizeOrder(stock, dailyConsumption float64, levels Levels, leadTimeDays float64, p Parameters) OrderCalculation {
	calc := OrderCalculation{
		StockLiters:            stock,
		DailyConsumptionLiters: dailyConsumption,
		LeadTimeDays:           leadTimeDays,
		BufferDays:             p.DeliveryBufferDays,
		TargetLiters:           levels.TargetLiters,
		OrderStepLiters:        p.OrderStepLiters,
	}

	calc.ConsumptionDuringDelivery = dailyConsumption * (leadTimeDays + p.DeliveryBufferDays)
	calc.UncappedOrderLiters = math.Max(0, levels.TargetLiters+calc.ConsumptionDuringDelivery-stock)
	calc.MaxUsefulLiters = levels.CapacityLiters * p.MaxUsefulVolumePct / 100
	calc.MaxOrderLiters = math.Max(0, calc.MaxUsefulLiters-math.Max(0, stock-calc.ConsumptionDuringDelivery))

	recommended := roundUpToStep(calc.UncappedOrderLiters, p.OrderStepLiters)
	if recommended > calc.MaxOrderLiters {
		recommended = roundDownToStep(calc.MaxOrderLiters, p.OrderStepLiters)
		calc.Capped = true
	}
	calc.RecommendedLiters = recommended

	calc.ProjectedAtDeliveryLiters = stock + recommended - calc.ConsumptionDuringDelivery
	if calc.ProjectedAtDeliveryLiters < 0 {
		calc.InsufficientCapacity = true
		calc.ShortfallLiters = -calc.ProjectedAtDeliveryLiters
	}

	calc.ConsumptionDuringDelivery = round(calc.ConsumptionDuringDelivery, 2)
	calc.UncappedOrderLiters = round(calc.UncappedOrderLiters, 2)
	calc.MaxUsefulLiters = round(calc.MaxUsefulLiters, 2)
	calc.MaxOrderLiters = round(calc.MaxOrderLiters, 2)
	calc.ProjectedAtDeliveryLiters = round(calc.ProjectedAtDeliveryLiters, 2)
	calc.ShortfallLiters = round(calc.ShortfallLiters, 2)
	return calc
}

func roundUpToStep(v, step float64) float64 {
	if step <= 0 || v <= 0 {
		return math.Max(0, v)
	}
	return math.Ceil(v/step) * step
}

func roundDownToStep(v, step float64) float64 {
	if step <= 0 || v <= 0 {
		return math.Max(0, v)
	}
	return math.Floor(v/step) * step
}

// ActiveOrder is a non-terminal order for a depot×fuel
type ActiveOrder struct {
	OrderID        uuid.UUID `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	DepotID        uuid.UUID `json:"depotId"`
	Status         string    `json:"status"`
	QuantityLiters float64   `json:"quantityLiters"`
	DeliveryDate   time.Time `json:"deliveryDate"`
}

// Combination is the snapshot of one depot×fuel pair
type Combination struct {
	DepotID     uuid.UUID
	DepotName   string
	StationID   uuid.UUID
	StationName string
	FuelTypeID  uuid.UUID
	FuelName    string
	FuelCode    string
	Density     float64

	StockLiters    float64
	CapacityLiters float64
	// DailyConsumption is nil when no consumption rate is effective today
	DailyConsumption *float64
	Policy           *PolicyLevels
	Offers           []Offer
	ActiveOrders     []ActiveOrder
}

// DataQualityWarning explains why a combination was left out of a result
type DataQualityWarning struct {
	DepotID    uuid.UUID `json:"depotId"`
	DepotName  string    `json:"depotName"`
	FuelTypeID uuid.UUID `json:"fuelTypeId"`
	FuelCode   string    `json:"fuelCode"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
}

func newWarning(c Combination, code, format string, args ...any) *DataQualityWarning {
	return &DataQualityWarning{
		DepotID:    c.DepotID,
		DepotName:  c.DepotName,
		FuelTypeID: c.FuelTypeID,
		FuelCode:   c.FuelCode,
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
	}
}

// OrderRecommendation is the suggested purchase order
type OrderRecommendation struct {
	Liters        float64  `json:"liters"`
	Tons          float64  `json:"tons"`
	EstimatedCost *float64 `json:"estimatedCost,omitempty"`
}

// ShortageReport is the procurement verdict for one depot×fuel
type ShortageReport struct {
	DepotID     uuid.UUID `json:"depotId"`
	DepotName   string    `json:"depotName"`
	StationID   uuid.UUID `json:"stationId"`
	StationName string    `json:"stationName"`
	FuelTypeID  uuid.UUID `json:"fuelTypeId"`
	FuelName    string    `json:"fuelName"`
	FuelCode    string    `json:"fuelCode"`

	Urgency                Urgency  `json:"urgency"`
	StockLiters            float64  `json:"stockLiters"`
	StockTons              float64  `json:"stockTons"`
	CapacityLiters         float64  `json:"capacityLiters"`
	FillPct                float64  `json:"fillPct"`
	DailyConsumptionLiters float64  `json:"dailyConsumptionLiters"`
	DaysLeft               *float64 `json:"daysLeft"`
	DaysUntilCritical      *float64 `json:"daysUntilCritical"`
	ProjectedStockoutDay   *int     `json:"projectedStockoutDay,omitempty"`
	Levels                 Levels   `json:"levels"`

	BestSupplier   *SupplierRef         `json:"bestSupplier"`
	Recommendation *OrderRecommendation `json:"recommendation"`
	Calculation    OrderCalculation     `json:"calculation"`

	POPending    bool         `json:"poPending"`
	PendingOrder *ActiveOrder `json:"pendingOrder,omitempty"`

	InsufficientCapacity bool    `json:"insufficientCapacity"`
	ShortfallLiters      float64 `json:"shortfallLiters,omitempty"`
}

// EvaluateCombination classifies one depot×fuel and sizes its order. A non-nil warning
// means the combination could not be evaluated and the report is nil.
func EvaluateCombination(c Combination, p Parameters, today time.Time) (*ShortageReport, *DataQualityWarning) {
	if c.DailyConsumption == nil {
		return nil, newWarning(c, WarningNoConsumptionRate, "no consumption rate effective on %s", today.Format(time.DateOnly))
	}
	if c.CapacityLiters <= 0 {
		return nil, newWarning(c, WarningNoCapacity, "depot has no tank capacity for this fuel")
	}
	if checkDensity(c.Density) != nil {
		return nil, newWarning(c, WarningInvalidDensity, "fuel density %v is out of range", c.Density)
	}
	levels := ResolveLevels(c.Policy, c.CapacityLiters, p)
	if err := levels.Validate(); err != nil {
		return nil, newWarning(c, WarningInvalidThresholds, "%s thresholds are inconsistent: %v", levels.Source, err)
	}

	daily := *c.DailyConsumption
	daysLeft := DaysUntilEmpty(c.StockLiters, daily)

	report := &ShortageReport{
		DepotID:                c.DepotID,
		DepotName:              c.DepotName,
		StationID:              c.StationID,
		StationName:            c.StationName,
		FuelTypeID:             c.FuelTypeID,
		FuelName:               c.FuelName,
		FuelCode:               c.FuelCode,
		Urgency:                Classify(c.StockLiters, levels.MinLiters, levels.CriticalLiters, daysLeft, p.Thresholds),
		StockLiters:            round(c.StockLiters, 2),
		StockTons:              mustTons(c.StockLiters, c.Density),
		CapacityLiters:         c.CapacityLiters,
		FillPct:                round(c.StockLiters/c.CapacityLiters*100, 1),
		DailyConsumptionLiters: daily,
		DaysLeft:               roundPtr(daysLeft, 1),
		DaysUntilCritical:      roundPtr(DaysUntilThreshold(c.StockLiters, levels.CriticalLiters, daily), 1),
		Levels:                 levels,
	}

	leadTime := p.DefaultLeadTimeDays
	leadSource := "default"
	if best := BestOffer(c.Offers, today); best != nil {
		report.BestSupplier = &SupplierRef{
			SupplierID:   best.SupplierID,
			SupplierName: best.SupplierName,
			OfferID:      best.OfferID,
			PricePerTon:  best.PricePerTon,
			DeliveryDays: best.DeliveryDays,
			Priority:     best.Priority,
			AutoScore:    best.AutoScore,
		}
		leadTime = float64(best.DeliveryDays)
		leadSource = "supplier_offer"
	}

	report.Calculation = SizeOrder(c.StockLiters, daily, levels, leadTime, p)
	report.Calculation.LeadTimeSource = leadSource
	report.InsufficientCapacity = report.Calculation.InsufficientCapacity
	report.ShortfallLiters = report.Calculation.ShortfallLiters

	if pending := firstActiveOrder(c.ActiveOrders); pending != nil {
		report.POPending = true
		report.PendingOrder = pending
	} else if report.Calculation.RecommendedLiters > 0 {
		rec := &OrderRecommendation{
			Liters: report.Calculation.RecommendedLiters,
			Tons:   mustTons(report.Calculation.RecommendedLiters, c.Density),
		}
		if report.BestSupplier != nil {
			cost := round(rec.Tons*report.BestSupplier.PricePerTon, 2)
			rec.EstimatedCost = &cost
		}
		report.Recommendation = rec
	}

	report.ProjectedStockoutDay = projectedStockout(c, daily, p, today)
	return report, nil
}

// firstActiveOrder returns the earliest-delivering non-terminal order
func firstActiveOrder(orders []ActiveOrder) *ActiveOrder {
	var first *ActiveOrder
	for i := range orders {
		if !isActiveStatus(orders[i].Status) {
			continue
		}
		if first == nil || orders[i].DeliveryDate.Before(first.DeliveryDate) {
			first = &orders[i]
		}
	}
	return first
}

func isActiveStatus(status string) bool {
	return status == "planned" || status == "confirmed" || status == "in_transit"
}

func projectedStockout(c Combination, daily float64, p Parameters, today time.Time) *int {
	if p.ForecastHorizonDays <= 0 || c.StockLiters > c.CapacityLiters {
		return nil
	}
	levels, err := ProjectForward(Projection{
		Start:            today,
		InitialStock:     c.StockLiters,
		DailyConsumption: daily,
		Capacity:         c.CapacityLiters,
		Deliveries:       DeliveriesFrom(c.ActiveOrders, today),
		HorizonDays:      p.ForecastHorizonDays,
	})
	if err != nil {
		return nil
	}
	if level, ok := FirstDayAtOrBelow(levels, 0); ok {
		return &level.Day
	}
	return nil
}

// DeliveriesFrom turns active orders into projection deliveries. Day 0 of a projection is
// the measured stock, so an order still active on its delivery date is landed on day 1.
// Orders dated before today are overdue and left out.
func DeliveriesFrom(orders []ActiveOrder, today time.Time) []Delivery {
	var out []Delivery
	for _, o := range orders {
		if !isActiveStatus(o.Status) {
			continue
		}
		date := o.DeliveryDate
		switch days := daysBetween(today, date); {
		case days < 0:
			continue
		case days == 0:
			date = truncateDay(today).AddDate(0, 0, 1)
		}
		out = append(out, Delivery{Date: date, Liters: o.QuantityLiters})
	}
	return out
}

// ShortageScan is the fleet-wide procurement result
type ShortageScan struct {
	Shortages []ShortageReport     `json:"shortages"`
	Warnings  []DataQualityWarning `json:"warnings"`
}

// ScanShortages evaluates every combination and keeps those with daysLeft <= daysThreshold
// or stock at or below the minimum level, most urgent first.
func ScanShortages(combos []Combination, daysThreshold float64, p Parameters, today time.Time) (ShortageScan, error) {
	if daysThreshold < 0 {
		return ShortageScan{}, fmt.Errorf("%w: days threshold must not be negative", ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return ShortageScan{}, err
	}

	scan := ShortageScan{Shortages: []ShortageReport{}, Warnings: []DataQualityWarning{}}
	for _, c := range combos {
		report, warning := EvaluateCombination(c, p, today)
		if warning != nil {
			scan.Warnings = append(scan.Warnings, *warning)
			continue
		}
		if isShortage(report, c.StockLiters, daysThreshold) {
			scan.Shortages = append(scan.Shortages, *report)
		}
	}

	slices.SortStableFunc(scan.Shortages, compareShortages)
	return scan, nil
}

func isShortage(r *ShortageReport, stock, daysThreshold float64) bool {
	if r.DaysLeft != nil && *r.DaysLeft <= daysThreshold {
		return true
	}
	return stock <= r.Levels.MinLiters
}

// compareShortages orders by days left ascending with unknown days last,
// then by urgency descending, then by depot and fuel for a stable output.
func compareShortages(a, b ShortageReport) int {
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
		cmp.Compare(b.Urgency, a.Urgency),
		cmp.Compare(a.DepotName, b.DepotName),
		cmp.Compare(a.FuelCode, b.FuelCode),
	)
}

// ProcurementSummary aggregates a full evaluation of the fleet
type ProcurementSummary struct {
	Combinations         int             `json:"combinations"`
	ByUrgency            map[Urgency]int `json:"byUrgency"`
	POsPending           int             `json:"posPending"`
	NeedingOrder         int             `json:"needingOrder"`
	InsufficientCapacity int             `json:"insufficientCapacity"`
	TotalRecommendLiters float64         `json:"totalRecommendedLiters"`
	TotalRecommendTons   float64         `json:"totalRecommendedTons"`
	EstimatedCost        float64         `json:"estimatedCost"`
	DataQualityWarnings  int             `json:"dataQualityWarnings"`
}

// SummarizeProcurement evaluates all combinations, shortage or not, and aggregates them
func SummarizeProcurement(combos []Combination, p Parameters, today time.Time) (ProcurementSummary, error) {
	if err := p.Validate(); err != nil {
		return ProcurementSummary{}, err
	}
	s := ProcurementSummary{ByUrgency: make(map[Urgency]int, len(AllUrgencies))}
	for _, u := range AllUrgencies {
		s.ByUrgency[u] = 0
	}
	for _, c := range combos {
		report, warning := EvaluateCombination(c, p, today)
		if warning != nil {
			s.DataQualityWarnings++
			continue
		}
		s.Combinations++
		s.ByUrgency[report.Urgency]++
		if report.POPending {
			s.POsPending++
		}
		if report.InsufficientCapacity {
			s.InsufficientCapacity++
		}
		if report.Recommendation != nil && report.Urgency >= UrgencyWarning {
			s.NeedingOrder++
			s.TotalRecommendLiters += report.Recommendation.Liters
			s.TotalRecommendTons += report.Recommendation.Tons
			if report.Recommendation.EstimatedCost != nil {
				s.EstimatedCost += *report.Recommendation.EstimatedCost
			}
		}
	}
	s.TotalRecommendLiters = round(s.TotalRecommendLiters, 2)
	s.TotalRecommendTons = round(s.TotalRecommendTons, 2)
	s.EstimatedCost = round(s.EstimatedCost, 2)
	return s, nil
}
