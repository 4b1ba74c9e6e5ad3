package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PolicyService maintains per depot×fuel stock policies
type PolicyService struct {
	repo   repository.FuelRepositoryInterface
	logger *logrus.Entry
}

// NewPolicyService creates a new PolicyService
func NewPolicyService(repo repository.FuelRepositoryInterface, logger *logrus.Logger) *PolicyService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PolicyService{
		repo:   repo,
		logger: logger.WithField("component", "policies"),
	}
}

// PolicyRow is one parsed line of a stock policy import
type PolicyRow struct {
	Row            int
	DepotCode      string
	FuelCode       string
	CriticalLiters float64
	MinLiters      float64
	TargetLiters   float64
}

// ImportRowError explains why a row was skipped
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a stock policy import
type ImportResult struct {
	TotalRows int              `json:"totalRows"`
	Imported  int              `json:"imported"`
	Skipped   int              `json:"skipped"`
	Errors    []ImportRowError `json:"errors"`
}

func (r PolicyRow) validate() error {
	switch {
	case strings.TrimSpace(r.DepotCode) == "":
		return errors.New("depot code is required")
	case strings.TrimSpace(r.FuelCode) == "":
		return errors.New("fuel code is required")
	case r.CriticalLiters < 0 || r.MinLiters < 0 || r.TargetLiters < 0:
		return errors.New("levels must not be negative")
	case r.CriticalLiters > r.MinLiters || r.MinLiters > r.TargetLiters:
		return fmt.Errorf("levels must satisfy critical <= min <= target (got %.0f / %.0f / %.0f)", r.CriticalLiters, r.MinLiters, r.TargetLiters)
	}
	return nil
}

// ImportPolicies validates every row, then upserts the valid ones in one transaction.
// Invalid rows are reported and skipped.
func (s *PolicyService) ImportPolicies(ctx context.Context, rows []PolicyRow) (*ImportResult, error) {
	result := &ImportResult{TotalRows: len(rows), Errors: []ImportRowError{}}

	depotIDs := make(map[string]uuid.UUID)
	fuelIDs := make(map[string]uuid.UUID)
	var policies []*models.StockPolicy

	for _, row := range rows {
		if err := row.validate(); err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: row.Row, Message: err.Error()})
			continue
		}

		depotID, err := s.lookupDepot(ctx, depotIDs, strings.TrimSpace(row.DepotCode))
		if err != nil {
			if !errors.Is(err, ErrDepotNotFound) {
				return nil, err
			}
			result.Errors = append(result.Errors, ImportRowError{Row: row.Row, Message: fmt.Sprintf("unknown depot %q", row.DepotCode)})
			continue
		}
		fuelID, err := s.lookupFuel(ctx, fuelIDs, strings.TrimSpace(row.FuelCode))
		if err != nil {
			if !errors.Is(err, ErrFuelTypeNotFound) {
				return nil, err
			}
			result.Errors = append(result.Errors, ImportRowError{Row: row.Row, Message: fmt.Sprintf("unknown fuel %q", row.FuelCode)})
			continue
		}

		now := time.Now()
		policies = append(policies, &models.StockPolicy{
			ID:                  uuid.New(),
			DepotID:             depotID,
			FuelTypeID:          fuelID,
			CriticalLevelLiters: row.CriticalLiters,
			MinLevelLiters:      row.MinLiters,
			TargetLevelLiters:   row.TargetLiters,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}

	if len(policies) > 0 {
		err := s.repo.WithTransaction(ctx, func(tx repository.FuelRepositoryInterface) error {
			for _, p := range policies {
				if err := tx.UpsertStockPolicy(ctx, p); err != nil {
					return fmt.Errorf("failed to upsert stock policy: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	result.Imported = len(policies)
	result.Skipped = len(result.Errors)

	s.logger.WithFields(logrus.Fields{
		"rows":     result.TotalRows,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	}).Info("Stock policy import completed")

	return result, nil
}

func (s *PolicyService) lookupDepot(ctx context.Context, seen map[string]uuid.UUID, code string) (uuid.UUID, error) {
	if id, ok := seen[code]; ok {
		return id, nil
	}
	depot, err := s.repo.GetDepotByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrDepotNotFound
		}
		return uuid.Nil, err
	}
	seen[code] = depot.ID
	return depot.ID, nil
}

func (s *PolicyService) lookupFuel(ctx context.Context, seen map[string]uuid.UUID, code string) (uuid.UUID, error) {
	if id, ok := seen[code]; ok {
		return id, nil
	}
	fuel, err := s.repo.GetFuelTypeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrFuelTypeNotFound
		}
		return uuid.Nil, err
	}
	seen[code] = fuel.ID
	return fuel.ID, nil
}
