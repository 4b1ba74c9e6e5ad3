package services

import (
	"context"
	"slices"
	"time"

	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

var (
	fixedNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	testDay  = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
)

func clock() time.Time { return fixedNow }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func ptr[T any](v T) *T { return &v }

// station is an in-memory fleet behind a mock repository
type station struct {
	id       uuid.UUID
	fuel     models.FuelType
	depots   []models.Depot
	tanks    []models.Tank
	rates    []models.ConsumptionRate
	policies []models.StockPolicy
	offers   []models.SupplierOffer
	orders   []models.Order
	cases    []models.CrisisCase
	params   map[string]string
}

func newStation() *station {
	return &station{
		id:     uuid.New(),
		fuel:   models.FuelType{ID: uuid.New(), Code: "DT", Name: "Diesel", Density: 0.84},
		params: map[string]string{},
	}
}

// addDepot adds a depot with one tank of the station fuel. dailyConsumption nil means no rate row.
func (s *station) addDepot(name string, stock, capacity float64, dailyConsumption *float64) models.Depot {
	depot := models.Depot{ID: uuid.New(), StationID: s.id, Code: name, Name: name}
	s.depots = append(s.depots, depot)
	s.tanks = append(s.tanks, models.Tank{
		ID:                 uuid.New(),
		DepotID:            depot.ID,
		FuelTypeID:         s.fuel.ID,
		Code:               name + "-T1",
		CapacityLiters:     capacity,
		CurrentStockLiters: stock,
	})
	if dailyConsumption != nil {
		s.rates = append(s.rates, models.ConsumptionRate{
			ID:            uuid.New(),
			DepotID:       depot.ID,
			FuelTypeID:    s.fuel.ID,
			LitersPerDay:  *dailyConsumption,
			EffectiveFrom: testDay.AddDate(0, 0, -30),
		})
	}
	return depot
}

func (s *station) addPolicy(depotID uuid.UUID, critical, minLevel, target float64) {
	s.policies = append(s.policies, models.StockPolicy{
		ID:                  uuid.New(),
		DepotID:             depotID,
		FuelTypeID:          s.fuel.ID,
		CriticalLevelLiters: critical,
		MinLevelLiters:      minLevel,
		TargetLevelLiters:   target,
	})
}

func (s *station) addOffer(name string, priority, deliveryDays int, price float64) {
	supplier := &models.Supplier{ID: uuid.New(), Name: name, IsActive: true, AutoScore: 70}
	s.offers = append(s.offers, models.SupplierOffer{
		ID:           uuid.New(),
		SupplierID:   supplier.ID,
		StationID:    s.id,
		FuelTypeID:   s.fuel.ID,
		PricePerTon:  price,
		DeliveryDays: deliveryDays,
		Priority:     priority,
		IsActive:     true,
		Supplier:     supplier,
	})
}

func (s *station) addOrder(depotID uuid.UUID, number string, status models.OrderStatus, liters float64, inDays int) models.Order {
	order := models.Order{
		ID:             uuid.New(),
		OrderNumber:    number,
		StationID:      s.id,
		DepotID:        depotID,
		FuelTypeID:     s.fuel.ID,
		QuantityLiters: liters,
		OrderDate:      testDay.AddDate(0, 0, -5),
		DeliveryDate:   testDay.AddDate(0, 0, inDays),
		Status:         status,
	}
	s.orders = append(s.orders, order)
	return order
}

// openCases returns the station's accepted and monitoring cases drawing on the given donors
func (s *station) openCases(_ context.Context, donorDepotIDs []uuid.UUID, fuelTypeID uuid.UUID) []models.CrisisCase {
	out := []models.CrisisCase{}
	for _, c := range s.cases {
		if c.FuelTypeID == fuelTypeID && slices.Contains(donorDepotIDs, c.DonorDepotID) && slices.Contains(models.OpenCrisisStatuses, c.Status) {
			out = append(out, c)
		}
	}
	return out
}

func (s *station) depot(name string) models.Depot {
	for _, d := range s.depots {
		if d.Name == name {
			return d
		}
	}
	panic("unknown depot " + name)
}

// expectReads registers every snapshot read against the station contents
func (s *station) expectReads(repo *mocks.MockFuelRepository) {
	repo.On("LoadParameters", mock.Anything).Return(s.params, nil)
	repo.On("ListFuelTypes", mock.Anything).Return([]models.FuelType{s.fuel}, nil)
	repo.On("GetFuelType", mock.Anything, s.fuel.ID).Return(&s.fuel, nil)
	repo.On("ListDepots", mock.Anything).Return(s.depots, nil)
	repo.On("ListDepotsByStation", mock.Anything, s.id).Return(s.depots, nil)
	for i := range s.depots {
		repo.On("GetDepot", mock.Anything, s.depots[i].ID).Return(&s.depots[i], nil)
	}
	repo.On("ListTanks", mock.Anything, mock.Anything).Return(s.tanks, nil)
	repo.On("ListConsumptionRates", mock.Anything, mock.Anything, mock.Anything).Return(s.rates, nil)
	repo.On("ListStockPolicies", mock.Anything, mock.Anything).Return(s.policies, nil)
	repo.On("ListSupplierOffers", mock.Anything, mock.Anything).Return(s.offers, nil)
	repo.On("ListActiveOrders", mock.Anything, mock.Anything).Return(s.orders, nil)
	repo.On("ListOpenCrisisCasesByDonor", mock.Anything, mock.Anything, s.fuel.ID).Return(s.openCases, nil)
	repo.On("LockOpenCrisisCasesByDonor", mock.Anything, mock.Anything, s.fuel.ID).Return(s.openCases, nil)
}
