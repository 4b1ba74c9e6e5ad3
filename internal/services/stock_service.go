package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/events"
	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultHistoryLimit caps tank history reads when the caller gives no limit
const DefaultHistoryLimit = 100

// StockService owns tank stock mutation. Every change writes an audit row.
type StockService struct {
	repo      repository.FuelRepositoryInterface
	publisher events.Publisher
	logger    *logrus.Entry
}

// NewStockService creates a new StockService. publisher may be nil.
func NewStockService(repo repository.FuelRepositoryInterface, publisher events.Publisher, logger *logrus.Logger) *StockService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StockService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithField("component", "stock"),
	}
}

// UpdateTankStockInput sets a tank's measured stock
type UpdateTankStockInput struct {
	StockLiters float64 `json:"stockLiters"`
	Reason      string  `json:"reason"`
	ChangedBy   string  `json:"-"`
}

// UpdateTankStock sets the tank stock and appends an audit record in one transaction
func (s *StockService) UpdateTankStock(ctx context.Context, tankID uuid.UUID, input UpdateTankStockInput) (*models.TankStockAudit, error) {
	if input.StockLiters < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", engine.ErrInvalidInput)
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", engine.ErrInvalidInput)
	}

	var (
		audit *models.TankStockAudit
		tank  *models.Tank
	)
	err := s.repo.WithTransaction(ctx, func(tx repository.FuelRepositoryInterface) error {
		var err error
		tank, err = tx.LockTank(ctx, tankID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTankNotFound
			}
			return err
		}
		if input.StockLiters > tank.CapacityLiters {
			return fmt.Errorf("%w: stock %.2f L exceeds tank capacity %.2f L", engine.ErrInvalidInput, input.StockLiters, tank.CapacityLiters)
		}

		if err := tx.UpdateTankStock(ctx, tank.ID, input.StockLiters); err != nil {
			return fmt.Errorf("failed to update tank stock: %w", err)
		}

		var changedBy *string
		if input.ChangedBy != "" {
			changedBy = &input.ChangedBy
		}
		audit = &models.TankStockAudit{
			ID:             uuid.New(),
			TankID:         tank.ID,
			OldStockLiters: tank.CurrentStockLiters,
			NewStockLiters: input.StockLiters,
			DeltaLiters:    input.StockLiters - tank.CurrentStockLiters,
			Reason:         reason,
			ChangedBy:      changedBy,
			CreatedAt:      time.Now(),
		}
		if err := tx.CreateTankAudit(ctx, audit); err != nil {
			return fmt.Errorf("failed to write stock audit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tankId":    tank.ID,
		"oldLiters": audit.OldStockLiters,
		"newLiters": audit.NewStockLiters,
	}).Info("Tank stock updated")

	s.publishAdjustment(ctx, tank, audit)
	return audit, nil
}

// publishAdjustment is best effort; the stock change is already committed
func (s *StockService) publishAdjustment(ctx context.Context, tank *models.Tank, audit *models.TankStockAudit) {
	if s.publisher == nil {
		return
	}

	adj := events.StockAdjustment{
		TankID:         tank.ID.String(),
		TankCode:       tank.Code,
		DepotID:        tank.DepotID.String(),
		PreviousLiters: audit.OldStockLiters,
		CurrentLiters:  audit.NewStockLiters,
		Reason:         audit.Reason,
		AdjustedBy:     actor(derefString(audit.ChangedBy)),
	}
	if depot, err := s.repo.GetDepot(ctx, tank.DepotID); err == nil {
		adj.DepotName = depot.Name
	}
	if fuel, err := s.repo.GetFuelType(ctx, tank.FuelTypeID); err == nil {
		adj.FuelCode = fuel.Code
	}

	if err := s.publisher.PublishStockAdjusted(ctx, adj); err != nil {
		s.logger.WithError(err).WithField("tankId", tank.ID).Warn("Stock adjusted event not published")
	}
}

// GetTankHistory returns the tank's audit trail, newest first
func (s *StockService) GetTankHistory(ctx context.Context, tankID uuid.UUID, limit int) ([]models.TankStockAudit, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if _, err := s.repo.GetTank(ctx, tankID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTankNotFound
		}
		return nil, err
	}
	return s.repo.ListTankAudits(ctx, tankID, limit)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
