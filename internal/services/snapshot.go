package services

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"

	"github.com/google/uuid"
)

// depotFuel identifies one depot×fuel combination
type depotFuel struct {
	depotID    uuid.UUID
	fuelTypeID uuid.UUID
}

type stationFuel struct {
	stationID  uuid.UUID
	fuelTypeID uuid.UUID
}

type tankTotals struct {
	stock    float64
	capacity float64
}

// snapshot is a point-in-time read of everything the engine needs for a set of depots.
// It is built once per top-level operation and never written back.
type snapshot struct {
	depots    map[uuid.UUID]models.Depot
	fuelTypes map[uuid.UUID]models.FuelType

	keys     []depotFuel
	tanks    []models.Tank
	totals   map[depotFuel]*tankTotals
	rates    map[depotFuel]float64
	policies map[depotFuel]*engine.PolicyLevels
	offers   map[stationFuel][]engine.Offer
	orders   map[depotFuel][]engine.ActiveOrder
}

// loadParameters reads the parameter store for this invocation
func loadParameters(ctx context.Context, repo repository.FuelRepositoryInterface) (engine.Parameters, error) {
	values, err := repo.LoadParameters(ctx)
	if err != nil {
		return engine.Parameters{}, fmt.Errorf("failed to load system parameters: %w", err)
	}
	return engine.ParseParameters(values)
}

// loadSnapshot reads tanks, rates, policies, offers and orders for the given depots.
// filter narrows the queries; depots supplies names and stations for every depot in scope.
func loadSnapshot(ctx context.Context, repo repository.FuelRepositoryInterface, depots []models.Depot, filter repository.SnapshotFilter, today time.Time) (*snapshot, error) {
	s := &snapshot{
		depots:    make(map[uuid.UUID]models.Depot, len(depots)),
		fuelTypes: make(map[uuid.UUID]models.FuelType),
		totals:    make(map[depotFuel]*tankTotals),
		rates:     make(map[depotFuel]float64),
		policies:  make(map[depotFuel]*engine.PolicyLevels),
		offers:    make(map[stationFuel][]engine.Offer),
		orders:    make(map[depotFuel][]engine.ActiveOrder),
	}
	for _, d := range depots {
		s.depots[d.ID] = d
	}

	fuelTypes, err := repo.ListFuelTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fuel types: %w", err)
	}
	for _, ft := range fuelTypes {
		s.fuelTypes[ft.ID] = ft
	}

	tanks, err := repo.ListTanks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tanks: %w", err)
	}
	for _, t := range tanks {
		if _, ok := s.depots[t.DepotID]; !ok {
			continue
		}
		key := depotFuel{t.DepotID, t.FuelTypeID}
		tot, ok := s.totals[key]
		if !ok {
			tot = &tankTotals{}
			s.totals[key] = tot
			s.keys = append(s.keys, key)
		}
		tot.stock += t.CurrentStockLiters
		tot.capacity += t.CapacityLiters
		s.tanks = append(s.tanks, t)
	}

	rates, err := repo.ListConsumptionRates(ctx, today, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumption rates: %w", err)
	}
	for _, r := range rates {
		key := depotFuel{r.DepotID, r.FuelTypeID}
		if _, seen := s.rates[key]; seen || !r.IsEffective(today) {
			continue
		}
		s.rates[key] = r.LitersPerDay
	}

	policies, err := repo.ListStockPolicies(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock policies: %w", err)
	}
	for _, p := range policies {
		s.policies[depotFuel{p.DepotID, p.FuelTypeID}] = &engine.PolicyLevels{
			CriticalLiters: p.CriticalLevelLiters,
			MinLiters:      p.MinLevelLiters,
			TargetLiters:   p.TargetLevelLiters,
		}
	}

	offers, err := repo.ListSupplierOffers(ctx, filter.FuelTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier offers: %w", err)
	}
	for _, o := range offers {
		key := stationFuel{o.StationID, o.FuelTypeID}
		s.offers[key] = append(s.offers[key], toEngineOffer(o))
	}

	orders, err := repo.ListActiveOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list active orders: %w", err)
	}
	for _, o := range orders {
		key := depotFuel{o.DepotID, o.FuelTypeID}
		s.orders[key] = append(s.orders[key], toActiveOrder(o))
	}

	slices.SortFunc(s.keys, func(a, b depotFuel) int {
		return cmp.Or(
			cmp.Compare(s.depots[a.depotID].Name, s.depots[b.depotID].Name),
			cmp.Compare(s.fuelTypes[a.fuelTypeID].Code, s.fuelTypes[b.fuelTypeID].Code),
			cmp.Compare(a.depotID.String(), b.depotID.String()),
		)
	})

	return s, nil
}

func toEngineOffer(o models.SupplierOffer) engine.Offer {
	offer := engine.Offer{
		OfferID:      o.ID,
		SupplierID:   o.SupplierID,
		OfferActive:  o.IsActive,
		Priority:     o.Priority,
		DeliveryDays: o.DeliveryDays,
		PricePerTon:  o.PricePerTon,
		ValidFrom:    o.ValidFrom,
		ValidTo:      o.ValidTo,
	}
	if o.Supplier != nil {
		offer.SupplierName = o.Supplier.Name
		offer.SupplierActive = o.Supplier.IsActive
		offer.AutoScore = o.Supplier.AutoScore
	}
	return offer
}

func toActiveOrder(o models.Order) engine.ActiveOrder {
	return engine.ActiveOrder{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		DepotID:        o.DepotID,
		Status:         string(o.Status),
		QuantityLiters: o.QuantityLiters,
		DeliveryDate:   o.DeliveryDate,
	}
}

// reserve nets open crisis cases out of the snapshot. A split delivery shrinks the donor
// order it redirects; a transfer draws down the donor's on-hand stock until the case is resolved.
func (s *snapshot) reserve(cases []models.CrisisCase) {
	for _, c := range cases {
		key := depotFuel{c.DonorDepotID, c.FuelTypeID}
		switch c.CaseType {
		case models.CrisisCaseSplitDelivery:
			if c.DonorOrderID == nil {
				continue
			}
			orders := s.orders[key]
			for i := range orders {
				if orders[i].OrderID == *c.DonorOrderID {
					orders[i].QuantityLiters = math.Max(0, orders[i].QuantityLiters-c.QuantityLiters)
				}
			}
		case models.CrisisCaseTransfer:
			if tot, ok := s.totals[key]; ok {
				tot.stock = math.Max(0, tot.stock-c.QuantityLiters)
			}
		}
	}
}

func (s *snapshot) dailyConsumption(key depotFuel) *float64 {
	v, ok := s.rates[key]
	if !ok {
		return nil
	}
	return &v
}

func (s *snapshot) combination(key depotFuel) engine.Combination {
	depot := s.depots[key.depotID]
	fuel := s.fuelTypes[key.fuelTypeID]
	c := engine.Combination{
		DepotID:          depot.ID,
		DepotName:        depot.Name,
		StationID:        depot.StationID,
		FuelTypeID:       key.fuelTypeID,
		FuelName:         fuel.Name,
		FuelCode:         fuel.Code,
		Density:          fuel.Density,
		DailyConsumption: s.dailyConsumption(key),
		Policy:           s.policies[key],
		Offers:           s.offers[stationFuel{depot.StationID, key.fuelTypeID}],
		ActiveOrders:     s.orders[key],
	}
	if depot.Station != nil {
		c.StationName = depot.Station.Name
	}
	if tot, ok := s.totals[key]; ok {
		c.StockLiters = tot.stock
		c.CapacityLiters = tot.capacity
	}
	return c
}

// combinations returns every depot×fuel that has at least one tank, ordered by depot then fuel
func (s *snapshot) combinations() []engine.Combination {
	out := make([]engine.Combination, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.combination(key))
	}
	return out
}

func (s *snapshot) depotFuelState(key depotFuel) engine.DepotFuelState {
	state := engine.DepotFuelState{
		DepotID:          key.depotID,
		DepotName:        s.depots[key.depotID].Name,
		DailyConsumption: s.dailyConsumption(key),
		Policy:           s.policies[key],
	}
	if tot, ok := s.totals[key]; ok {
		state.StockLiters = tot.stock
		state.CapacityLiters = tot.capacity
	}
	return state
}

// tankStates returns one alert input per tank with its depot×fuel context
func (s *snapshot) tankStates() []engine.TankState {
	out := make([]engine.TankState, 0, len(s.tanks))
	for _, t := range s.tanks {
		key := depotFuel{t.DepotID, t.FuelTypeID}
		depot := s.depots[t.DepotID]
		state := engine.TankState{
			TankID:                t.ID,
			TankCode:              t.Code,
			DepotID:               t.DepotID,
			DepotName:             depot.Name,
			StationID:             depot.StationID,
			FuelTypeID:            t.FuelTypeID,
			FuelCode:              s.fuelTypes[t.FuelTypeID].Code,
			StockLiters:           t.CurrentStockLiters,
			CapacityLiters:        t.CapacityLiters,
			DepotDailyConsumption: s.dailyConsumption(key),
			Policy:                s.policies[key],
		}
		if tot, ok := s.totals[key]; ok {
			state.DepotCapacityLiters = tot.capacity
		}
		out = append(out, state)
	}
	return out
}

// today returns the service clock truncated to a calendar day
func today(now func() time.Time) time.Time {
	t := now()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
