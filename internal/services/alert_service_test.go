package services

import (
	"context"
	"testing"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/repository"
	"fuel-procurement-service/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAlertService(repo repository.FuelRepositoryInterface) *AlertService {
	return &AlertService{repo: repo, logger: testLogger().WithField("component", "alerts"), now: clock}
}

// alertStation has one nearly empty depot and one nearly full depot without a rate
func alertStation() *station {
	s := newStation()
	s.addDepot("Low", 500, 10000, ptr(1000.0))
	s.addDepot("Full", 9900, 10000, nil)
	return s
}

func TestGetActiveAlerts(t *testing.T) {
	s := alertStation()
	repo := new(mocks.MockFuelRepository)
	s.expectReads(repo)
	svc := newTestAlertService(repo)

	alerts, err := svc.GetActiveAlerts(context.Background())

	require.NoError(t, err)
	require.Len(t, alerts, 3)

	assert.Equal(t, engine.AlertLowStock, alerts[0].Type)
	assert.Equal(t, engine.UrgencyCatastrophe, alerts[0].Severity)
	assert.Equal(t, 0.5, *alerts[0].DaysLeft)

	assert.Equal(t, engine.AlertReorderPoint, alerts[1].Type)
	assert.Equal(t, engine.UrgencyCatastrophe, alerts[1].Severity)
	assert.Equal(t, 1000.0, *alerts[1].ThresholdLiters)

	assert.Equal(t, engine.AlertOverfill, alerts[2].Type)
	assert.Equal(t, engine.UrgencyWarning, alerts[2].Severity)
	assert.Equal(t, "Full", alerts[2].DepotName)
}

func TestGetAlertSummary(t *testing.T) {
	s := alertStation()
	repo := new(mocks.MockFuelRepository)
	s.expectReads(repo)
	svc := newTestAlertService(repo)

	summary, err := svc.GetAlertSummary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.BySeverity[engine.UrgencyCatastrophe])
	assert.Equal(t, 1, summary.BySeverity[engine.UrgencyWarning])
	assert.Equal(t, 1, summary.ByType[engine.AlertOverfill])
	require.Len(t, summary.ByDepot, 2)
	assert.Equal(t, "Low", summary.ByDepot[0].DepotName)
	assert.Equal(t, 2, summary.ByDepot[0].Count)
}

func TestGetDepotAlerts(t *testing.T) {
	s := alertStation()
	repo := new(mocks.MockFuelRepository)
	s.expectReads(repo)
	svc := newTestAlertService(repo)

	alerts, err := svc.GetDepotAlerts(context.Background(), s.depot("Full").ID)

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, engine.AlertOverfill, alerts[0].Type)
}

func TestGetDepotAlerts_DepotNotFound(t *testing.T) {
	repo := new(mocks.MockFuelRepository)
	repo.On("GetDepot", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	svc := newTestAlertService(repo)

	_, err := svc.GetDepotAlerts(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrDepotNotFound)
}
