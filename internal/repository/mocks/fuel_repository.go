// Package mocks provides testify mocks of the repository layer
package mocks

import (
	"context"
	"time"

	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockFuelRepository is a mock implementation of FuelRepositoryInterface
type MockFuelRepository struct {
	mock.Mock
}

// Ensure MockFuelRepository implements the interface
var _ repository.FuelRepositoryInterface = (*MockFuelRepository)(nil)

func (m *MockFuelRepository) LoadParameters(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockFuelRepository) ListFuelTypes(ctx context.Context) ([]models.FuelType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.FuelType), args.Error(1)
}

func (m *MockFuelRepository) GetFuelType(ctx context.Context, id uuid.UUID) (*models.FuelType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FuelType), args.Error(1)
}

func (m *MockFuelRepository) GetFuelTypeByCode(ctx context.Context, code string) (*models.FuelType, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FuelType), args.Error(1)
}

func (m *MockFuelRepository) ListDepots(ctx context.Context) ([]models.Depot, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Depot), args.Error(1)
}

func (m *MockFuelRepository) GetDepot(ctx context.Context, id uuid.UUID) (*models.Depot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Depot), args.Error(1)
}

func (m *MockFuelRepository) GetDepotByCode(ctx context.Context, code string) (*models.Depot, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Depot), args.Error(1)
}

func (m *MockFuelRepository) ListDepotsByStation(ctx context.Context, stationID uuid.UUID) ([]models.Depot, error) {
	args := m.Called(ctx, stationID)
	return args.Get(0).([]models.Depot), args.Error(1)
}

func (m *MockFuelRepository) ListTanks(ctx context.Context, filter repository.SnapshotFilter) ([]models.Tank, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Tank), args.Error(1)
}

func (m *MockFuelRepository) GetTank(ctx context.Context, id uuid.UUID) (*models.Tank, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tank), args.Error(1)
}

func (m *MockFuelRepository) ListConsumptionRates(ctx context.Context, day time.Time, filter repository.SnapshotFilter) ([]models.ConsumptionRate, error) {
	args := m.Called(ctx, day, filter)
	return args.Get(0).([]models.ConsumptionRate), args.Error(1)
}

func (m *MockFuelRepository) ListStockPolicies(ctx context.Context, filter repository.SnapshotFilter) ([]models.StockPolicy, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.StockPolicy), args.Error(1)
}

func (m *MockFuelRepository) ListSupplierOffers(ctx context.Context, fuelTypeID *uuid.UUID) ([]models.SupplierOffer, error) {
	args := m.Called(ctx, fuelTypeID)
	return args.Get(0).([]models.SupplierOffer), args.Error(1)
}

func (m *MockFuelRepository) ListActiveOrders(ctx context.Context, filter repository.SnapshotFilter) ([]models.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockFuelRepository) CreateCrisisCase(ctx context.Context, c *models.CrisisCase) error {
	args := m.Called(ctx, c)
	if args.Error(0) == nil {
		c.CreatedAt = time.Now()
		c.UpdatedAt = c.CreatedAt
	}
	return args.Error(0)
}

func (m *MockFuelRepository) GetCrisisCase(ctx context.Context, id uuid.UUID) (*models.CrisisCase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrisisCase), args.Error(1)
}

func (m *MockFuelRepository) LockCrisisCase(ctx context.Context, id uuid.UUID) (*models.CrisisCase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrisisCase), args.Error(1)
}

func (m *MockFuelRepository) UpdateCrisisCase(ctx context.Context, c *models.CrisisCase) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockFuelRepository) ListCrisisCases(ctx context.Context, status *models.CrisisCaseStatus) ([]models.CrisisCase, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]models.CrisisCase), args.Error(1)
}

func (m *MockFuelRepository) ListOpenCrisisCasesByDonor(ctx context.Context, donorDepotIDs []uuid.UUID, fuelTypeID uuid.UUID) ([]models.CrisisCase, error) {
	args := m.Called(ctx, donorDepotIDs, fuelTypeID)
	if fn, ok := args.Get(0).(func(context.Context, []uuid.UUID, uuid.UUID) []models.CrisisCase); ok {
		return fn(ctx, donorDepotIDs, fuelTypeID), args.Error(1)
	}
	return args.Get(0).([]models.CrisisCase), args.Error(1)
}

func (m *MockFuelRepository) LockOpenCrisisCasesByDonor(ctx context.Context, donorDepotIDs []uuid.UUID, fuelTypeID uuid.UUID) ([]models.CrisisCase, error) {
	args := m.Called(ctx, donorDepotIDs, fuelTypeID)
	if fn, ok := args.Get(0).(func(context.Context, []uuid.UUID, uuid.UUID) []models.CrisisCase); ok {
		return fn(ctx, donorDepotIDs, fuelTypeID), args.Error(1)
	}
	return args.Get(0).([]models.CrisisCase), args.Error(1)
}

func (m *MockFuelRepository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockFuelRepository) LockOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockFuelRepository) AppendOrderNote(ctx context.Context, orderID uuid.UUID, note string) error {
	args := m.Called(ctx, orderID, note)
	return args.Error(0)
}

func (m *MockFuelRepository) LockTank(ctx context.Context, id uuid.UUID) (*models.Tank, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tank), args.Error(1)
}

func (m *MockFuelRepository) LockTanks(ctx context.Context, depotIDs []uuid.UUID, fuelTypeID uuid.UUID) ([]models.Tank, error) {
	args := m.Called(ctx, depotIDs, fuelTypeID)
	return args.Get(0).([]models.Tank), args.Error(1)
}

func (m *MockFuelRepository) UpdateTankStock(ctx context.Context, tankID uuid.UUID, stockLiters float64) error {
	args := m.Called(ctx, tankID, stockLiters)
	return args.Error(0)
}

func (m *MockFuelRepository) CreateTankAudit(ctx context.Context, audit *models.TankStockAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockFuelRepository) ListTankAudits(ctx context.Context, tankID uuid.UUID, limit int) ([]models.TankStockAudit, error) {
	args := m.Called(ctx, tankID, limit)
	return args.Get(0).([]models.TankStockAudit), args.Error(1)
}

func (m *MockFuelRepository) UpsertStockPolicy(ctx context.Context, policy *models.StockPolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

// WithTransaction executes the callback with the mock itself as the transaction repository
func (m *MockFuelRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.FuelRepositoryInterface) error) error {
	return fn(m)
}
