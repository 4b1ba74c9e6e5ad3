package services

import (
	"context"
	"errors"
	"testing"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/events"
	eventmocks "fuel-procurement-service/internal/events/mocks"
	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"
	"fuel-procurement-service/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestStockService(repo repository.FuelRepositoryInterface, publisher events.Publisher) *StockService {
	return &StockService{repo: repo, publisher: publisher, logger: testLogger().WithField("component", "stock")}
}

func TestUpdateTankStock(t *testing.T) {
	s := newStation()
	depot := s.addDepot("North", 12000, 30000, ptr(800.0))
	tank := s.tanks[0]

	repo := new(mocks.MockFuelRepository)
	publisher := new(eventmocks.MockPublisher)
	repo.On("LockTank", mock.Anything, tank.ID).Return(&tank, nil)
	repo.On("UpdateTankStock", mock.Anything, tank.ID, 18500.0).Return(nil)
	repo.On("CreateTankAudit", mock.Anything, mock.AnythingOfType("*models.TankStockAudit")).Return(nil)
	repo.On("GetDepot", mock.Anything, depot.ID).Return(&depot, nil)
	repo.On("GetFuelType", mock.Anything, s.fuel.ID).Return(&s.fuel, nil)
	publisher.On("PublishStockAdjusted", mock.Anything, mock.MatchedBy(func(adj events.StockAdjustment) bool {
		return adj.TankID == tank.ID.String() &&
			adj.DepotName == "North" &&
			adj.FuelCode == "DT" &&
			adj.PreviousLiters == 12000 &&
			adj.CurrentLiters == 18500 &&
			adj.AdjustedBy == "operator@fleet"
	})).Return(nil)

	svc := newTestStockService(repo, publisher)
	audit, err := svc.UpdateTankStock(context.Background(), tank.ID, UpdateTankStockInput{
		StockLiters: 18500,
		Reason:      "  dip reading  ",
		ChangedBy:   "operator@fleet",
	})

	require.NoError(t, err)
	assert.Equal(t, 12000.0, audit.OldStockLiters)
	assert.Equal(t, 18500.0, audit.NewStockLiters)
	assert.Equal(t, 6500.0, audit.DeltaLiters)
	assert.Equal(t, "dip reading", audit.Reason)
	require.NotNil(t, audit.ChangedBy)
	assert.Equal(t, "operator@fleet", *audit.ChangedBy)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUpdateTankStock_PublishFailureDoesNotFail(t *testing.T) {
	tank := models.Tank{ID: uuid.New(), DepotID: uuid.New(), FuelTypeID: uuid.New(), CapacityLiters: 1000, CurrentStockLiters: 400}
	repo := new(mocks.MockFuelRepository)
	publisher := new(eventmocks.MockPublisher)
	repo.On("LockTank", mock.Anything, tank.ID).Return(&tank, nil)
	repo.On("UpdateTankStock", mock.Anything, tank.ID, 100.0).Return(nil)
	repo.On("CreateTankAudit", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetDepot", mock.Anything, tank.DepotID).Return(nil, repository.ErrNotFound)
	repo.On("GetFuelType", mock.Anything, tank.FuelTypeID).Return(nil, repository.ErrNotFound)
	publisher.On("PublishStockAdjusted", mock.Anything, mock.MatchedBy(func(adj events.StockAdjustment) bool {
		return adj.AdjustedBy == systemActor
	})).Return(errors.New("nats down"))

	svc := newTestStockService(repo, publisher)
	audit, err := svc.UpdateTankStock(context.Background(), tank.ID, UpdateTankStockInput{StockLiters: 100, Reason: "drained"})

	require.NoError(t, err)
	assert.Equal(t, -300.0, audit.DeltaLiters)
	assert.Nil(t, audit.ChangedBy)
	publisher.AssertExpectations(t)
}

func TestUpdateTankStock_NoPublisher(t *testing.T) {
	tank := models.Tank{ID: uuid.New(), CapacityLiters: 1000, CurrentStockLiters: 400}
	repo := new(mocks.MockFuelRepository)
	repo.On("LockTank", mock.Anything, tank.ID).Return(&tank, nil)
	repo.On("UpdateTankStock", mock.Anything, tank.ID, 1000.0).Return(nil)
	repo.On("CreateTankAudit", mock.Anything, mock.Anything).Return(nil)

	svc := newTestStockService(repo, nil)
	_, err := svc.UpdateTankStock(context.Background(), tank.ID, UpdateTankStockInput{StockLiters: 1000, Reason: "filled"})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "GetDepot", mock.Anything, mock.Anything)
}

func TestUpdateTankStock_Validation(t *testing.T) {
	tank := models.Tank{ID: uuid.New(), CapacityLiters: 1000, CurrentStockLiters: 400}

	tests := []struct {
		name  string
		input UpdateTankStockInput
		err   error
	}{
		{"negative stock", UpdateTankStockInput{StockLiters: -1, Reason: "x"}, engine.ErrInvalidInput},
		{"missing reason", UpdateTankStockInput{StockLiters: 10, Reason: "   "}, engine.ErrInvalidInput},
		{"above capacity", UpdateTankStockInput{StockLiters: 1000.5, Reason: "x"}, engine.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockFuelRepository)
			repo.On("LockTank", mock.Anything, tank.ID).Return(&tank, nil)
			svc := newTestStockService(repo, nil)

			_, err := svc.UpdateTankStock(context.Background(), tank.ID, tt.input)

			assert.ErrorIs(t, err, tt.err)
			repo.AssertNotCalled(t, "UpdateTankStock", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateTankStock_TankNotFound(t *testing.T) {
	repo := new(mocks.MockFuelRepository)
	repo.On("LockTank", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	svc := newTestStockService(repo, nil)

	_, err := svc.UpdateTankStock(context.Background(), uuid.New(), UpdateTankStockInput{StockLiters: 10, Reason: "x"})

	assert.ErrorIs(t, err, ErrTankNotFound)
}

func TestUpdateTankStock_AuditFailure(t *testing.T) {
	tank := models.Tank{ID: uuid.New(), CapacityLiters: 1000, CurrentStockLiters: 400}
	repo := new(mocks.MockFuelRepository)
	repo.On("LockTank", mock.Anything, tank.ID).Return(&tank, nil)
	repo.On("UpdateTankStock", mock.Anything, tank.ID, 500.0).Return(nil)
	repo.On("CreateTankAudit", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	svc := newTestStockService(repo, nil)

	_, err := svc.UpdateTankStock(context.Background(), tank.ID, UpdateTankStockInput{StockLiters: 500, Reason: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write stock audit")
}

func TestGetTankHistory(t *testing.T) {
	tank := models.Tank{ID: uuid.New()}
	audits := []models.TankStockAudit{{ID: uuid.New(), TankID: tank.ID}, {ID: uuid.New(), TankID: tank.ID}}
	repo := new(mocks.MockFuelRepository)
	repo.On("GetTank", mock.Anything, tank.ID).Return(&tank, nil)
	repo.On("ListTankAudits", mock.Anything, tank.ID, DefaultHistoryLimit).Return(audits, nil)
	svc := newTestStockService(repo, nil)

	history, err := svc.GetTankHistory(context.Background(), tank.ID, 0)

	require.NoError(t, err)
	assert.Len(t, history, 2)
	repo.AssertExpectations(t)
}

func TestGetTankHistory_TankNotFound(t *testing.T) {
	repo := new(mocks.MockFuelRepository)
	repo.On("GetTank", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	svc := newTestStockService(repo, nil)

	_, err := svc.GetTankHistory(context.Background(), uuid.New(), 10)

	assert.ErrorIs(t, err, ErrTankNotFound)
}
