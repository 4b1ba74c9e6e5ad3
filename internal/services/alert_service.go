package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AlertService builds the fleet alert feed from current tank stock
type AlertService struct {
	repo   repository.FuelRepositoryInterface
	logger *logrus.Entry
	now    func() time.Time
}

// NewAlertService creates a new AlertService
func NewAlertService(repo repository.FuelRepositoryInterface, logger *logrus.Logger) *AlertService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AlertService{
		repo:   repo,
		logger: logger.WithField("component", "alerts"),
		now:    time.Now,
	}
}

func (s *AlertService) buildAlerts(ctx context.Context, depots []models.Depot, filter repository.SnapshotFilter) ([]engine.Alert, error) {
	params, err := loadParameters(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(ctx, s.repo, depots, filter, today(s.now))
	if err != nil {
		return nil, err
	}
	return engine.BuildAlerts(snap.tankStates(), params), nil
}

// GetActiveAlerts returns every active alert in the fleet, most severe first
func (s *AlertService) GetActiveAlerts(ctx context.Context) ([]engine.Alert, error) {
	depots, err := s.repo.ListDepots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list depots: %w", err)
	}
	return s.buildAlerts(ctx, depots, repository.SnapshotFilter{})
}

// GetAlertSummary counts active alerts by severity, type and depot
func (s *AlertService) GetAlertSummary(ctx context.Context) (*engine.AlertSummary, error) {
	alerts, err := s.GetActiveAlerts(ctx)
	if err != nil {
		return nil, err
	}
	summary := engine.SummarizeAlerts(alerts)
	return &summary, nil
}

// GetDepotAlerts returns the active alerts of one depot
func (s *AlertService) GetDepotAlerts(ctx context.Context, depotID uuid.UUID) ([]engine.Alert, error) {
	depot, err := s.repo.GetDepot(ctx, depotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDepotNotFound
		}
		return nil, err
	}
	alerts, err := s.buildAlerts(ctx, []models.Depot{*depot}, repository.SnapshotFilter{DepotIDs: []uuid.UUID{depotID}})
	if err != nil {
		return nil, err
	}
	return engine.FilterByDepot(alerts, depotID), nil
}
