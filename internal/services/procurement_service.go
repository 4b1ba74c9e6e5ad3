package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxForecastHorizonDays bounds on-demand depot forecasts
const MaxForecastHorizonDays = 365

// ProcurementService answers read-only procurement questions over a fresh snapshot
type ProcurementService struct {
	repo   repository.FuelRepositoryInterface
	logger *logrus.Entry
	now    func() time.Time
}

// NewProcurementService creates a new ProcurementService
func NewProcurementService(repo repository.FuelRepositoryInterface, logger *logrus.Logger) *ProcurementService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ProcurementService{
		repo:   repo,
		logger: logger.WithField("component", "procurement"),
		now:    time.Now,
	}
}

// DepotForecast is the day-by-day projection for one depot×fuel
type DepotForecast struct {
	DepotID                uuid.UUID              `json:"depotId"`
	DepotName              string                 `json:"depotName"`
	FuelTypeID             uuid.UUID              `json:"fuelTypeId"`
	FuelCode               string                 `json:"fuelCode"`
	StockLiters            float64                `json:"stockLiters"`
	CapacityLiters         float64                `json:"capacityLiters"`
	DailyConsumptionLiters *float64               `json:"dailyConsumptionLiters"`
	Levels                 engine.Levels          `json:"levels"`
	HorizonDays            int                    `json:"horizonDays"`
	Deliveries             []engine.Delivery      `json:"deliveries"`
	Forecast               engine.ForecastSummary `json:"forecast"`
	Warnings               []string               `json:"warnings,omitempty"`
}

func (s *ProcurementService) fleetSnapshot(ctx context.Context, day time.Time) (*snapshot, error) {
	depots, err := s.repo.ListDepots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list depots: %w", err)
	}
	return loadSnapshot(ctx, s.repo, depots, repository.SnapshotFilter{}, day)
}

// GetUpcomingShortages returns every depot×fuel running out within daysThreshold days
// or already at or below its minimum level, most urgent first.
func (s *ProcurementService) GetUpcomingShortages(ctx context.Context, daysThreshold float64) (*engine.ShortageScan, error) {
	if daysThreshold < 0 {
		return nil, fmt.Errorf("%w: days threshold must not be negative", engine.ErrInvalidInput)
	}

	params, err := loadParameters(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	day := today(s.now)
	snap, err := s.fleetSnapshot(ctx, day)
	if err != nil {
		return nil, err
	}

	scan, err := engine.ScanShortages(snap.combinations(), daysThreshold, params, day)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"daysThreshold": daysThreshold,
		"shortages":     len(scan.Shortages),
		"warnings":      len(scan.Warnings),
	}).Debug("Shortage scan completed")

	return &scan, nil
}

// GetProcurementSummary aggregates the evaluation of every depot×fuel in the fleet
func (s *ProcurementService) GetProcurementSummary(ctx context.Context) (*engine.ProcurementSummary, error) {
	params, err := loadParameters(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	day := today(s.now)
	snap, err := s.fleetSnapshot(ctx, day)
	if err != nil {
		return nil, err
	}

	summary, err := engine.SummarizeProcurement(snap.combinations(), params, day)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetSupplierRecommendations ranks suppliers of a fuel for a manual order
func (s *ProcurementService) GetSupplierRecommendations(ctx context.Context, fuelTypeID uuid.UUID, requiredTons float64, urgency engine.Urgency) ([]engine.SupplierScore, error) {
	if fuelTypeID == uuid.Nil {
		return nil, fmt.Errorf("%w: fuel type id is required", engine.ErrInvalidInput)
	}
	if requiredTons < 0 || math.IsNaN(requiredTons) || math.IsInf(requiredTons, 0) {
		return nil, fmt.Errorf("%w: required tons must be a finite non-negative number", engine.ErrInvalidInput)
	}

	params, err := loadParameters(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetFuelType(ctx, fuelTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFuelTypeNotFound
		}
		return nil, err
	}

	offers, err := s.repo.ListSupplierOffers(ctx, &fuelTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier offers: %w", err)
	}

	engineOffers := make([]engine.Offer, 0, len(offers))
	for _, o := range offers {
		engineOffers = append(engineOffers, toEngineOffer(o))
	}

	return engine.ScoreSuppliers(engineOffers, requiredTons, urgency, params.Scoring, today(s.now))
}

// GetDepotForecast projects one depot×fuel forward over horizonDays, landing its active orders.
// horizonDays <= 0 uses the forecast_horizon_days parameter.
func (s *ProcurementService) GetDepotForecast(ctx context.Context, depotID, fuelTypeID uuid.UUID, horizonDays int) (*DepotForecast, error) {
	if horizonDays > MaxForecastHorizonDays {
		return nil, fmt.Errorf("%w: horizon must not exceed %d days", engine.ErrInvalidInput, MaxForecastHorizonDays)
	}

	params, err := loadParameters(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	if horizonDays <= 0 {
		horizonDays = params.ForecastHorizonDays
	}

	depot, err := s.repo.GetDepot(ctx, depotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDepotNotFound
		}
		return nil, err
	}
	if _, err := s.repo.GetFuelType(ctx, fuelTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFuelTypeNotFound
		}
		return nil, err
	}

	day := today(s.now)
	filter := repository.SnapshotFilter{DepotIDs: []uuid.UUID{depotID}, FuelTypeID: &fuelTypeID}
	snap, err := loadSnapshot(ctx, s.repo, []models.Depot{*depot}, filter, day)
	if err != nil {
		return nil, err
	}

	c := snap.combination(depotFuel{depotID, fuelTypeID})
	if c.CapacityLiters <= 0 {
		return nil, fmt.Errorf("%w: depot %s has no tanks for fuel %s", engine.ErrInvalidInput, depot.Name, c.FuelCode)
	}

	levels := engine.ResolveLevels(c.Policy, c.CapacityLiters, params)
	result := &DepotForecast{
		DepotID:                depotID,
		DepotName:              depot.Name,
		FuelTypeID:             fuelTypeID,
		FuelCode:               c.FuelCode,
		StockLiters:            c.StockLiters,
		CapacityLiters:         c.CapacityLiters,
		DailyConsumptionLiters: c.DailyConsumption,
		Levels:                 levels,
		HorizonDays:            horizonDays,
		Deliveries:             engine.DeliveriesFrom(c.ActiveOrders, day),
	}

	daily := 0.0
	if c.DailyConsumption != nil {
		daily = *c.DailyConsumption
	} else {
		result.Warnings = append(result.Warnings, engine.WarningNoConsumptionRate)
	}
	if err := levels.Validate(); err != nil {
		result.Warnings = append(result.Warnings, engine.WarningInvalidThresholds)
	}

	seq, err := engine.ProjectForward(engine.Projection{
		Start:            day,
		InitialStock:     min(c.StockLiters, c.CapacityLiters),
		DailyConsumption: daily,
		Capacity:         c.CapacityLiters,
		Deliveries:       result.Deliveries,
		HorizonDays:      horizonDays,
	})
	if err != nil {
		return nil, err
	}
	result.Forecast = engine.Summarize(seq, levels.CriticalLiters)

	return result, nil
}
