package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// StaleTolerance is the tons margin allowed above a recomputed safe maximum
const StaleTolerance = 0.01

// DepotFuelState is the on-hand position of one depot for the fuel in crisis
type DepotFuelState struct {
	DepotID        uuid.UUID
	DepotName      string
	StockLiters    float64
	CapacityLiters float64
	// DailyConsumption is nil when no rate is effective today
	DailyConsumption *float64
	Policy           *PolicyLevels
}

func (d DepotFuelState) rate() float64 {
	if d.DailyConsumption == nil || *d.DailyConsumption < 0 {
		return 0
	}
	return *d.DailyConsumption
}

// CrisisInput is the snapshot needed to search donors for one depot×fuel
type CrisisInput struct {
	FuelTypeID uuid.UUID
	FuelCode   string
	Density    float64
	Receiver   DepotFuelState
	// Siblings are the other depots at the receiver's station
	Siblings []DepotFuelState
	// SiblingOrders are the siblings' non-terminal orders for the fuel
	SiblingOrders []ActiveOrder
}

// ReceiverProfile describes the depot in crisis
type ReceiverProfile struct {
	DepotID                uuid.UUID  `json:"depotId"`
	DepotName              string     `json:"depotName"`
	FuelTypeID             uuid.UUID  `json:"fuelTypeId"`
	FuelCode               string     `json:"fuelCode"`
	StockLiters            float64    `json:"stockLiters"`
	StockTons              float64    `json:"stockTons"`
	DailyConsumptionLiters *float64   `json:"dailyConsumptionLiters"`
	Levels                 Levels     `json:"levels"`
	Urgency                Urgency    `json:"urgency"`
	QtyNeededLiters        float64    `json:"qtyNeededLiters"`
	QtyNeededTons          float64    `json:"qtyNeededTons"`
	DaysUntilCritical      *float64   `json:"daysUntilCritical"`
	CriticalLevelDate      *time.Time `json:"criticalLevelDate"`
}

// CompensatingPOs are the replacement order sizes for both sides of a redistribution
type CompensatingPOs struct {
	ReceiverLiters float64 `json:"receiverLiters"`
	ReceiverTons   float64 `json:"receiverTons"`
	DonorLiters    float64 `json:"donorLiters"`
	DonorTons      float64 `json:"donorTons"`
}

// SplitDeliveryOption redirects part of a sibling's in-transit order
type SplitDeliveryOption struct {
	OrderID             uuid.UUID `json:"orderId"`
	OrderNumber         string    `json:"orderNumber"`
	DonorDepotID        uuid.UUID `json:"donorDepotId"`
	DonorDepotName      string    `json:"donorDepotName"`
	DeliveryDate        time.Time `json:"deliveryDate"`
	DaysToDelivery      int       `json:"daysToDelivery"`
	OrderQuantityLiters float64   `json:"orderQuantityLiters"`
	OrderQuantityTons   float64   `json:"orderQuantityTons"`

	DonorStockLiters         float64         `json:"donorStockLiters"`
	DonorDailyConsumption    float64         `json:"donorDailyConsumptionLiters"`
	DonorLevels              Levels          `json:"donorLevels"`
	DonorMinSafeLiters       float64         `json:"donorMinSafeLiters"`
	DonorSpareLiters         float64         `json:"donorSpareLiters"`
	DonorAfterSplitLiters    float64         `json:"donorAfterSplitLiters"`
	DonorAfterDeliveryLiters float64         `json:"donorAfterDeliveryLiters"`
	MaxSplitLiters           float64         `json:"maxSplitLiters"`
	MaxSplitTons             float64         `json:"maxSplitTons"`
	SuggestedSplitLiters     float64         `json:"suggestedSplitLiters"`
	SuggestedSplitTons       float64         `json:"suggestedSplitTons"`
	CompensatingPOs          CompensatingPOs `json:"compensatingPos"`
}

// TransferOption moves on-hand stock from a sibling depot
type TransferOption struct {
	DonorDepotID          uuid.UUID  `json:"donorDepotId"`
	DonorDepotName        string     `json:"donorDepotName"`
	DonorStockLiters      float64    `json:"donorStockLiters"`
	DonorDailyConsumption float64    `json:"donorDailyConsumptionLiters"`
	DonorLevels           Levels     `json:"donorLevels"`
	LeadTimeDays          int        `json:"leadTimeDays"`
	NextDeliveryDate      *time.Time `json:"nextDeliveryDate,omitempty"`
	NextDeliveryLiters    float64    `json:"nextDeliveryLiters,omitempty"`

	DonorMinSafeLiters       float64         `json:"donorMinSafeLiters"`
	DonorSpareLiters         float64         `json:"donorSpareLiters"`
	DonorAfterTransferLiters float64         `json:"donorAfterTransferLiters"`
	DonorAtNextDelivery      *float64        `json:"donorAfterNextDeliveryLiters,omitempty"`
	MaxTransferLiters        float64         `json:"maxTransferLiters"`
	MaxTransferTons          float64         `json:"maxTransferTons"`
	SuggestedTransferLiters  float64         `json:"suggestedTransferLiters"`
	SuggestedTransferTons    float64         `json:"suggestedTransferTons"`
	CompensatingPOs          CompensatingPOs `json:"compensatingPos"`
}

// CrisisOptions is the full donor search result. Split delivery is preferred over transfer.
type CrisisOptions struct {
	Receiver      ReceiverProfile       `json:"receivingDepot"`
	SplitDelivery []SplitDeliveryOption `json:"splitDelivery"`
	Transfer      []TransferOption      `json:"transfer"`
	Warnings      []DataQualityWarning  `json:"warnings"`
}

// FindOptions searches the receiver's siblings for donatable supply.
// A receiver already at or above its target gets no options and a RECEIVER_AT_TARGET warning.
func FindOptions(in CrisisInput, p Parameters, today time.Time) (*CrisisOptions, error) {
	if err := checkDensity(in.Density); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if in.Receiver.CapacityLiters <= 0 {
		return nil, fmt.Errorf("%w: depot %s has no tank capacity for this fuel", ErrInvalidInput, in.Receiver.DepotName)
	}

	receiverLevels := ResolveLevels(in.Receiver.Policy, in.Receiver.CapacityLiters, p)
	if err := receiverLevels.Validate(); err != nil {
		return nil, err
	}

	profile := buildReceiverProfile(in, receiverLevels, p, today)
	out := &CrisisOptions{
		Receiver:      profile,
		SplitDelivery: []SplitDeliveryOption{},
		Transfer:      []TransferOption{},
		Warnings:      []DataQualityWarning{},
	}
	if profile.QtyNeededLiters <= 0 {
		out.Warnings = append(out.Warnings, DataQualityWarning{
			DepotID:    in.Receiver.DepotID,
			DepotName:  in.Receiver.DepotName,
			FuelTypeID: in.FuelTypeID,
			FuelCode:   in.FuelCode,
			Code:       WarningReceiverAtTarget,
			Message:    fmt.Sprintf("stock %.0f L is already at or above the target of %.0f L", in.Receiver.StockLiters, receiverLevels.TargetLiters),
		})
		return out, nil
	}

	donors := make(map[uuid.UUID]donorState, len(in.Siblings))
	for _, s := range in.Siblings {
		if s.DepotID == in.Receiver.DepotID {
			continue
		}
		levels := ResolveLevels(s.Policy, s.CapacityLiters, p)
		if err := levels.Validate(); err != nil {
			out.Warnings = append(out.Warnings, DataQualityWarning{
				DepotID:    s.DepotID,
				DepotName:  s.DepotName,
				FuelTypeID: in.FuelTypeID,
				FuelCode:   in.FuelCode,
				Code:       WarningInvalidThresholds,
				Message:    fmt.Sprintf("donor excluded: %v", err),
			})
			continue
		}
		donors[s.DepotID] = donorState{DepotFuelState: s, levels: levels}
	}

	if profile.CriticalLevelDate != nil {
		out.SplitDelivery = splitDeliveryOptions(in, donors, profile, p, today)
	}
	out.Transfer = transferOptions(in, donors, profile, p, today)
	return out, nil
}

type donorState struct {
	DepotFuelState
	levels Levels
}

func buildReceiverProfile(in CrisisInput, levels Levels, p Parameters, today time.Time) ReceiverProfile {
	r := in.Receiver
	needed := math.Max(0, levels.TargetLiters-r.StockLiters)
	profile := ReceiverProfile{
		DepotID:                r.DepotID,
		DepotName:              r.DepotName,
		FuelTypeID:             in.FuelTypeID,
		FuelCode:               in.FuelCode,
		StockLiters:            round(r.StockLiters, 2),
		StockTons:              mustTons(r.StockLiters, in.Density),
		DailyConsumptionLiters: r.DailyConsumption,
		Levels:                 levels,
		QtyNeededLiters:        round(needed, 2),
		QtyNeededTons:          mustTons(needed, in.Density),
	}

	var daysLeft *float64
	if r.DailyConsumption != nil {
		daysLeft = DaysUntilEmpty(r.StockLiters, *r.DailyConsumption)
		if untilCritical := DaysUntilThreshold(r.StockLiters, levels.CriticalLiters, *r.DailyConsumption); untilCritical != nil {
			profile.DaysUntilCritical = roundPtr(untilCritical, 1)
			date := truncateDay(today).AddDate(0, 0, int(math.Floor(*untilCritical)))
			profile.CriticalLevelDate = &date
		}
	}
	profile.Urgency = Classify(r.StockLiters, levels.MinLiters, levels.CriticalLiters, daysLeft, p.Thresholds)
	return profile
}

func splitDeliveryOptions(in CrisisInput, donors map[uuid.UUID]donorState, profile ReceiverProfile, p Parameters, today time.Time) []SplitDeliveryOption {
	options := []SplitDeliveryOption{}
	for _, order := range in.SiblingOrders {
		if order.Status != "in_transit" || order.QuantityLiters <= 0 {
			continue
		}
		if daysBetween(*profile.CriticalLevelDate, order.DeliveryDate) > 0 {
			continue
		}
		donor, ok := donors[order.DepotID]
		if !ok {
			continue
		}
		if opt, ok := evaluateSplit(order, donor, profile, in.Density, p, today); ok {
			options = append(options, opt)
		}
	}
	slices.SortFunc(options, func(a, b SplitDeliveryOption) int {
		return cmp.Or(
			cmp.Compare(b.SuggestedSplitLiters, a.SuggestedSplitLiters),
			cmp.Compare(b.MaxSplitLiters, a.MaxSplitLiters),
			a.DeliveryDate.Compare(b.DeliveryDate),
		)
	})
	return options
}

// evaluateSplit sizes the largest split that keeps the donor at or above its critical
// level right away and at or above its minimum once the reduced order lands.
func evaluateSplit(order ActiveOrder, donor donorState, profile ReceiverProfile, density float64, p Parameters, today time.Time) (SplitDeliveryOption, bool) {
	rate := donor.rate()
	days := max(0, daysBetween(today, order.DeliveryDate))

	minSafe := rate * (float64(days) + p.DonorBufferDays)
	spare := donor.StockLiters - minSafe
	criticalFloor := donor.StockLiters - donor.levels.CriticalLiters
	afterDeliveryFloor := donor.StockLiters - rate*float64(days) + order.QuantityLiters - donor.levels.MinLiters

	maxSafe := math.Min(math.Min(order.QuantityLiters, spare), math.Min(criticalFloor, afterDeliveryFloor))
	if maxSafe <= 0 {
		return SplitDeliveryOption{}, false
	}
	maxSafe = math.Floor(maxSafe*100) / 100
	suggested := math.Min(maxSafe, profile.QtyNeededLiters)

	return SplitDeliveryOption{
		OrderID:                  order.OrderID,
		OrderNumber:              order.OrderNumber,
		DonorDepotID:             donor.DepotID,
		DonorDepotName:           donor.DepotName,
		DeliveryDate:             order.DeliveryDate,
		DaysToDelivery:           days,
		OrderQuantityLiters:      order.QuantityLiters,
		OrderQuantityTons:        mustTons(order.QuantityLiters, density),
		DonorStockLiters:         round(donor.StockLiters, 2),
		DonorDailyConsumption:    rate,
		DonorLevels:              donor.levels,
		DonorMinSafeLiters:       round(minSafe, 2),
		DonorSpareLiters:         round(spare, 2),
		DonorAfterSplitLiters:    round(donor.StockLiters-suggested, 2),
		DonorAfterDeliveryLiters: round(donor.StockLiters-rate*float64(days)+order.QuantityLiters-suggested, 2),
		MaxSplitLiters:           maxSafe,
		MaxSplitTons:             mustTons(maxSafe, density),
		SuggestedSplitLiters:     suggested,
		SuggestedSplitTons:       mustTons(suggested, density),
		CompensatingPOs:          compensatingPOs(profile.QtyNeededLiters, suggested, density),
	}, true
}

func transferOptions(in CrisisInput, donors map[uuid.UUID]donorState, profile ReceiverProfile, p Parameters, today time.Time) []TransferOption {
	next := nextDeliveries(in.SiblingOrders, today)
	options := []TransferOption{}
	for _, s := range in.Siblings {
		donor, ok := donors[s.DepotID]
		if !ok || donor.StockLiters <= 0 {
			continue
		}
		var delivery *ActiveOrder
		if o, ok := next[donor.DepotID]; ok {
			delivery = &o
		}
		if opt, ok := evaluateTransfer(donor, delivery, profile, in.Density, p, today); ok {
			options = append(options, opt)
		}
	}
	slices.SortFunc(options, func(a, b TransferOption) int {
		return cmp.Or(
			cmp.Compare(b.SuggestedTransferLiters, a.SuggestedTransferLiters),
			cmp.Compare(b.MaxTransferLiters, a.MaxTransferLiters),
			cmp.Compare(a.DonorDepotName, b.DonorDepotName),
		)
	})
	return options
}

// evaluateTransfer applies the split safety rules to on-hand stock. The lead time is the
// donor's next scheduled delivery, or the pessimistic default when none is scheduled.
func evaluateTransfer(donor donorState, delivery *ActiveOrder, profile ReceiverProfile, density float64, p Parameters, today time.Time) (TransferOption, bool) {
	rate := donor.rate()
	lead := p.TransferDefaultLeadDays
	if delivery != nil {
		lead = float64(max(0, daysBetween(today, delivery.DeliveryDate)))
	}

	minSafe := rate * (lead + p.DonorBufferDays)
	spare := donor.StockLiters - minSafe
	maxSafe := math.Min(spare, donor.StockLiters-donor.levels.CriticalLiters)

	var afterNext *float64
	if delivery != nil {
		floor := donor.StockLiters - rate*lead + delivery.QuantityLiters - donor.levels.MinLiters
		maxSafe = math.Min(maxSafe, floor)
	}
	if maxSafe <= 0 {
		return TransferOption{}, false
	}
	maxSafe = math.Floor(maxSafe*100) / 100
	suggested := math.Min(maxSafe, profile.QtyNeededLiters)

	opt := TransferOption{
		DonorDepotID:             donor.DepotID,
		DonorDepotName:           donor.DepotName,
		DonorStockLiters:         round(donor.StockLiters, 2),
		DonorDailyConsumption:    rate,
		DonorLevels:              donor.levels,
		LeadTimeDays:             int(lead),
		DonorMinSafeLiters:       round(minSafe, 2),
		DonorSpareLiters:         round(spare, 2),
		DonorAfterTransferLiters: round(donor.StockLiters-suggested, 2),
		MaxTransferLiters:        maxSafe,
		MaxTransferTons:          mustTons(maxSafe, density),
		SuggestedTransferLiters:  suggested,
		SuggestedTransferTons:    mustTons(suggested, density),
		CompensatingPOs:          compensatingPOs(profile.QtyNeededLiters, suggested, density),
	}
	if delivery != nil {
		date := delivery.DeliveryDate
		opt.NextDeliveryDate = &date
		opt.NextDeliveryLiters = delivery.QuantityLiters
		v := round(donor.StockLiters-suggested-rate*lead+delivery.QuantityLiters, 2)
		afterNext = &v
	}
	opt.DonorAtNextDelivery = afterNext
	return opt, true
}

// nextDeliveries returns each depot's earliest non-terminal order landing today or later
func nextDeliveries(orders []ActiveOrder, today time.Time) map[uuid.UUID]ActiveOrder {
	next := make(map[uuid.UUID]ActiveOrder)
	for _, o := range orders {
		if !isActiveStatus(o.Status) || daysBetween(today, o.DeliveryDate) < 0 {
			continue
		}
		if cur, ok := next[o.DepotID]; !ok || o.DeliveryDate.Before(cur.DeliveryDate) {
			next[o.DepotID] = o
		}
	}
	return next
}

func compensatingPOs(needed, given, density float64) CompensatingPOs {
	receiver := math.Max(0, needed-given)
	return CompensatingPOs{
		ReceiverLiters: round(receiver, 2),
		ReceiverTons:   mustTons(receiver, density),
		DonorLiters:    round(given, 2),
		DonorTons:      mustTons(given, density),
	}
}

// FindSplitOption returns the split option for a donor order, if still offered
func (o *CrisisOptions) FindSplitOption(orderID uuid.UUID) (SplitDeliveryOption, bool) {
	for _, opt := range o.SplitDelivery {
		if opt.OrderID == orderID {
			return opt, true
		}
	}
	return SplitDeliveryOption{}, false
}

// FindTransferOption returns the transfer option for a donor depot, if still offered
func (o *CrisisOptions) FindTransferOption(donorDepotID uuid.UUID) (TransferOption, bool) {
	for _, opt := range o.Transfer {
		if opt.DonorDepotID == donorDepotID {
			return opt, true
		}
	}
	return TransferOption{}, false
}

// ExceedsSafeMaximum reports whether requested tons are above maxTons beyond StaleTolerance
func ExceedsSafeMaximum(requestedTons, maxTons float64) bool {
	return requestedTons > maxTons+StaleTolerance
}
