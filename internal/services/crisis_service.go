package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const systemActor = "system"

// CrisisService finds donors for a depot in shortage and records accepted redistributions
type CrisisService struct {
	repo   repository.FuelRepositoryInterface
	logger *logrus.Entry
	now    func() time.Time
}

// NewCrisisService creates a new CrisisService
func NewCrisisService(repo repository.FuelRepositoryInterface, logger *logrus.Logger) *CrisisService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CrisisService{
		repo:   repo,
		logger: logger.WithField("component", "crisis"),
		now:    time.Now,
	}
}

// AcceptSplitDeliveryInput redirects part of a sibling's in-transit order to the receiving depot
type AcceptSplitDeliveryInput struct {
	DepotID      uuid.UUID `json:"depotId"`
	FuelTypeID   uuid.UUID `json:"fuelTypeId"`
	OrderID      uuid.UUID `json:"orderId"`
	QuantityTons float64   `json:"quantityTons"`
	Notes        string    `json:"notes,omitempty"`
	CreatedBy    string    `json:"-"`
}

// AcceptTransferInput moves on-hand stock from a sibling depot to the receiving depot
type AcceptTransferInput struct {
	DepotID      uuid.UUID `json:"depotId"`
	FuelTypeID   uuid.UUID `json:"fuelTypeId"`
	DonorDepotID uuid.UUID `json:"donorDepotId"`
	QuantityTons float64   `json:"quantityTons"`
	Notes        string    `json:"notes,omitempty"`
	CreatedBy    string    `json:"-"`
}

func validateCrisisTarget(depotID, fuelTypeID uuid.UUID) error {
	if depotID == uuid.Nil {
		return fmt.Errorf("%w: depot id is required", engine.ErrInvalidInput)
	}
	if fuelTypeID == uuid.Nil {
		return fmt.Errorf("%w: fuel type id is required", engine.ErrInvalidInput)
	}
	return nil
}

func validateQuantity(tons float64) error {
	if tons <= 0 {
		return fmt.Errorf("%w: quantity must be positive", engine.ErrInvalidInput)
	}
	return nil
}

func (s *CrisisService) resolveTarget(ctx context.Context, depotID, fuelTypeID uuid.UUID) (*models.Depot, *models.FuelType, error) {
	depot, err := s.repo.GetDepot(ctx, depotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrDepotNotFound
		}
		return nil, nil, err
	}
	fuel, err := s.repo.GetFuelType(ctx, fuelTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrFuelTypeNotFound
		}
		return nil, nil, err
	}
	return depot, fuel, nil
}

// stationDepots returns the receiver's station depots, always including the receiver
func stationDepots(ctx context.Context, repo repository.FuelRepositoryInterface, depot *models.Depot) ([]models.Depot, error) {
	depots, err := repo.ListDepotsByStation(ctx, depot.StationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list station depots: %w", err)
	}
	for _, d := range depots {
		if d.ID == depot.ID {
			return depots, nil
		}
	}
	return append(depots, *depot), nil
}

func depotIDs(depots []models.Depot) []uuid.UUID {
	ids := make([]uuid.UUID, len(depots))
	for i, d := range depots {
		ids[i] = d.ID
	}
	return ids
}

// findOptions reads the station snapshot through repo, nets out the quantities already
// committed by open cases and runs the donor search
func (s *CrisisService) findOptions(ctx context.Context, repo repository.FuelRepositoryInterface, params engine.Parameters, depot *models.Depot, fuel *models.FuelType, depots []models.Depot, committed []models.CrisisCase, day time.Time) (*engine.CrisisOptions, error) {
	filter := repository.SnapshotFilter{DepotIDs: depotIDs(depots), FuelTypeID: &fuel.ID}
	snap, err := loadSnapshot(ctx, repo, depots, filter, day)
	if err != nil {
		return nil, err
	}
	snap.reserve(committed)

	in := engine.CrisisInput{
		FuelTypeID: fuel.ID,
		FuelCode:   fuel.Code,
		Density:    fuel.Density,
		Receiver:   snap.depotFuelState(depotFuel{depot.ID, fuel.ID}),
	}
	for _, key := range snap.keys {
		if key.depotID == depot.ID {
			continue
		}
		in.Siblings = append(in.Siblings, snap.depotFuelState(key))
		in.SiblingOrders = append(in.SiblingOrders, snap.orders[key]...)
	}

	return engine.FindOptions(in, params, day)
}

// FindCrisisOptions returns split-delivery and transfer options for a depot×fuel in shortage
func (s *CrisisService) FindCrisisOptions(ctx context.Context, depotID, fuelTypeID uuid.UUID) (*engine.CrisisOptions, error) {
	if err := validateCrisisTarget(depotID, fuelTypeID); err != nil {
		return nil, err
	}

	params, err := loadParameters(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	depot, fuel, err := s.resolveTarget(ctx, depotID, fuelTypeID)
	if err != nil {
		return nil, err
	}
	depots, err := stationDepots(ctx, s.repo, depot)
	if err != nil {
		return nil, err
	}
	committed, err := s.repo.ListOpenCrisisCasesByDonor(ctx, depotIDs(depots), fuel.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open crisis cases: %w", err)
	}

	return s.findOptions(ctx, s.repo, params, depot, fuel, depots, committed, today(s.now))
}

// AcceptSplitDelivery re-validates a split-delivery option under row locks and records it.
// Quantities of open cases against the same donors count as already taken.
// The case and the donor order annotation commit together.
func (s *CrisisService) AcceptSplitDelivery(ctx context.Context, input AcceptSplitDeliveryInput) (*models.CrisisCase, error) {
	if err := validateCrisisTarget(input.DepotID, input.FuelTypeID); err != nil {
		return nil, err
	}
	if input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("%w: order id is required", engine.ErrInvalidInput)
	}
	if err := validateQuantity(input.QuantityTons); err != nil {
		return nil, err
	}

	params, err := loadParameters(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	depot, fuel, err := s.resolveTarget(ctx, input.DepotID, input.FuelTypeID)
	if err != nil {
		return nil, err
	}

	day := today(s.now)
	var created *models.CrisisCase

	err = s.repo.WithTransaction(ctx, func(tx repository.FuelRepositoryInterface) error {
		order, err := tx.LockOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.FuelTypeID != fuel.ID {
			return fmt.Errorf("%w: order %s is not for fuel %s", engine.ErrInvalidInput, order.OrderNumber, fuel.Code)
		}

		depots, err := stationDepots(ctx, tx, depot)
		if err != nil {
			return err
		}
		if _, err := tx.LockTanks(ctx, depotIDs(depots), fuel.ID); err != nil {
			return fmt.Errorf("failed to lock tanks: %w", err)
		}
		committed, err := tx.LockOpenCrisisCasesByDonor(ctx, depotIDs(depots), fuel.ID)
		if err != nil {
			return fmt.Errorf("failed to lock open crisis cases: %w", err)
		}

		opts, err := s.findOptions(ctx, tx, params, depot, fuel, depots, committed, day)
		if err != nil {
			return err
		}
		option, ok := opts.FindSplitOption(order.ID)
		if !ok {
			return fmt.Errorf("%w: order %s is no longer eligible for a split", ErrStaleProposal, order.OrderNumber)
		}
		if engine.ExceedsSafeMaximum(input.QuantityTons, option.MaxSplitTons) {
			return fmt.Errorf("%w: requested %.2f t exceeds the current safe maximum of %.2f t", ErrStaleProposal, input.QuantityTons, option.MaxSplitTons)
		}

		liters, err := engine.TonsToLiters(input.QuantityTons, fuel.Density)
		if err != nil {
			return err
		}
		calc, err := json.Marshal(option)
		if err != nil {
			return fmt.Errorf("failed to marshal calculation: %w", err)
		}

		orderID := order.ID
		c := &models.CrisisCase{
			ID:              uuid.New(),
			CaseType:        models.CrisisCaseSplitDelivery,
			Status:          models.CrisisStatusAccepted,
			CriticalDepotID: depot.ID,
			DonorDepotID:    option.DonorDepotID,
			FuelTypeID:      fuel.ID,
			DonorOrderID:    &orderID,
			QuantityLiters:  liters,
			QuantityTons:    input.QuantityTons,
			MaxSafeTons:     option.MaxSplitTons,
			Calculation:     datatypes.JSON(calc),
			Notes:           optionalNotes(input.Notes),
			CreatedBy:       actor(input.CreatedBy),
			AcceptedAt:      s.now(),
		}
		if err := tx.CreateCrisisCase(ctx, c); err != nil {
			return fmt.Errorf("failed to create crisis case: %w", err)
		}

		note := fmt.Sprintf("[CRISIS %s] split delivery: %.2f t (%.0f L) redirected to depot %s, accepted by %s on %s",
			c.ID, input.QuantityTons, liters, depot.Name, c.CreatedBy, day.Format(time.DateOnly))
		if err := tx.AppendOrderNote(ctx, order.ID, note); err != nil {
			return fmt.Errorf("failed to annotate order: %w", err)
		}

		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"caseId":       created.ID,
		"depotId":      created.CriticalDepotID,
		"donorDepotId": created.DonorDepotID,
		"orderId":      input.OrderID,
		"tons":         created.QuantityTons,
	}).Info("Split delivery accepted")

	return created, nil
}

// AcceptTransfer re-validates a transfer option under row locks and records it.
// The physical movement is carried out outside this service.
func (s *CrisisService) AcceptTransfer(ctx context.Context, input AcceptTransferInput) (*models.CrisisCase, error) {
	if err := validateCrisisTarget(input.DepotID, input.FuelTypeID); err != nil {
		return nil, err
	}
	if input.DonorDepotID == uuid.Nil {
		return nil, fmt.Errorf("%w: donor depot id is required", engine.ErrInvalidInput)
	}
	if input.DonorDepotID == input.DepotID {
		return nil, fmt.Errorf("%w: a depot cannot donate to itself", engine.ErrInvalidInput)
	}
	if err := validateQuantity(input.QuantityTons); err != nil {
		return nil, err
	}

	params, err := loadParameters(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	depot, fuel, err := s.resolveTarget(ctx, input.DepotID, input.FuelTypeID)
	if err != nil {
		return nil, err
	}

	day := today(s.now)
	var created *models.CrisisCase

	err = s.repo.WithTransaction(ctx, func(tx repository.FuelRepositoryInterface) error {
		depots, err := stationDepots(ctx, tx, depot)
		if err != nil {
			return err
		}
		if _, err := tx.LockTanks(ctx, depotIDs(depots), fuel.ID); err != nil {
			return fmt.Errorf("failed to lock tanks: %w", err)
		}
		committed, err := tx.LockOpenCrisisCasesByDonor(ctx, depotIDs(depots), fuel.ID)
		if err != nil {
			return fmt.Errorf("failed to lock open crisis cases: %w", err)
		}

		opts, err := s.findOptions(ctx, tx, params, depot, fuel, depots, committed, day)
		if err != nil {
			return err
		}
		option, ok := opts.FindTransferOption(input.DonorDepotID)
		if !ok {
			return fmt.Errorf("%w: depot %s can no longer donate", ErrStaleProposal, input.DonorDepotID)
		}
		if engine.ExceedsSafeMaximum(input.QuantityTons, option.MaxTransferTons) {
			return fmt.Errorf("%w: requested %.2f t exceeds the current safe maximum of %.2f t", ErrStaleProposal, input.QuantityTons, option.MaxTransferTons)
		}

		liters, err := engine.TonsToLiters(input.QuantityTons, fuel.Density)
		if err != nil {
			return err
		}
		calc, err := json.Marshal(option)
		if err != nil {
			return fmt.Errorf("failed to marshal calculation: %w", err)
		}

		c := &models.CrisisCase{
			ID:              uuid.New(),
			CaseType:        models.CrisisCaseTransfer,
			Status:          models.CrisisStatusAccepted,
			CriticalDepotID: depot.ID,
			DonorDepotID:    option.DonorDepotID,
			FuelTypeID:      fuel.ID,
			QuantityLiters:  liters,
			QuantityTons:    input.QuantityTons,
			MaxSafeTons:     option.MaxTransferTons,
			Calculation:     datatypes.JSON(calc),
			Notes:           optionalNotes(input.Notes),
			CreatedBy:       actor(input.CreatedBy),
			AcceptedAt:      s.now(),
		}
		if err := tx.CreateCrisisCase(ctx, c); err != nil {
			return fmt.Errorf("failed to create crisis case: %w", err)
		}

		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"caseId":       created.ID,
		"depotId":      created.CriticalDepotID,
		"donorDepotId": created.DonorDepotID,
		"tons":         created.QuantityTons,
	}).Info("Transfer accepted")

	return created, nil
}

// LinkCompensatingPO attaches a replacement purchase order to a case and moves it to monitoring
func (s *CrisisService) LinkCompensatingPO(ctx context.Context, caseID uuid.UUID, role models.CompensatingPORole, poID uuid.UUID) (*models.CrisisCase, error) {
	if role != models.CompensatingPOCritical && role != models.CompensatingPODonor {
		return nil, fmt.Errorf("%w: role must be %q or %q", engine.ErrInvalidInput, models.CompensatingPOCritical, models.CompensatingPODonor)
	}
	if poID == uuid.Nil {
		return nil, fmt.Errorf("%w: purchase order id is required", engine.ErrInvalidInput)
	}

	var updated *models.CrisisCase
	err := s.repo.WithTransaction(ctx, func(tx repository.FuelRepositoryInterface) error {
		c, err := tx.LockCrisisCase(ctx, caseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCaseNotFound
			}
			return err
		}
		if !c.Status.CanTransitionTo(models.CrisisStatusMonitoring) {
			return fmt.Errorf("%w: %s case cannot take a compensating PO", ErrInvalidTransition, c.Status)
		}

		order, err := tx.GetOrder(ctx, poID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		expectedDepot := c.CriticalDepotID
		if role == models.CompensatingPODonor {
			expectedDepot = c.DonorDepotID
		}
		if order.DepotID != expectedDepot || order.FuelTypeID != c.FuelTypeID {
			return fmt.Errorf("%w: order %s does not replenish the %s depot of this case", engine.ErrInvalidInput, order.OrderNumber, role)
		}

		id := order.ID
		if role == models.CompensatingPOCritical {
			c.CriticalPOID = &id
		} else {
			c.DonorPOID = &id
		}
		c.Status = models.CrisisStatusMonitoring
		if c.MonitoringAt == nil {
			now := s.now()
			c.MonitoringAt = &now
		}
		if err := tx.UpdateCrisisCase(ctx, c); err != nil {
			return fmt.Errorf("failed to update crisis case: %w", err)
		}

		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"caseId": caseID,
		"role":   role,
		"poId":   poID,
	}).Info("Compensating PO linked")

	return updated, nil
}

// ResolveCase closes a case. Resolved is terminal.
func (s *CrisisService) ResolveCase(ctx context.Context, caseID uuid.UUID, notes string) (*models.CrisisCase, error) {
	var updated *models.CrisisCase
	err := s.repo.WithTransaction(ctx, func(tx repository.FuelRepositoryInterface) error {
		c, err := tx.LockCrisisCase(ctx, caseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCaseNotFound
			}
			return err
		}
		if !c.Status.CanTransitionTo(models.CrisisStatusResolved) {
			return fmt.Errorf("%w: %s case cannot be resolved", ErrInvalidTransition, c.Status)
		}

		now := s.now()
		c.Status = models.CrisisStatusResolved
		c.ResolvedAt = &now
		if notes = strings.TrimSpace(notes); notes != "" {
			if c.Notes != nil && *c.Notes != "" {
				notes = *c.Notes + "\n" + notes
			}
			c.Notes = &notes
		}
		if err := tx.UpdateCrisisCase(ctx, c); err != nil {
			return fmt.Errorf("failed to update crisis case: %w", err)
		}

		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("caseId", caseID).Info("Crisis case resolved")
	return updated, nil
}

// ListCases returns cases newest first, optionally filtered by status
func (s *CrisisService) ListCases(ctx context.Context, status string) ([]models.CrisisCase, error) {
	var filter *models.CrisisCaseStatus
	if status != "" {
		st := models.CrisisCaseStatus(strings.ToLower(status))
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown case status %q", engine.ErrInvalidInput, status)
		}
		filter = &st
	}
	return s.repo.ListCrisisCases(ctx, filter)
}

// GetCase returns one case
func (s *CrisisService) GetCase(ctx context.Context, caseID uuid.UUID) (*models.CrisisCase, error) {
	c, err := s.repo.GetCrisisCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return c, nil
}

func optionalNotes(notes string) *string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil
	}
	return &notes
}

func actor(createdBy string) string {
	if createdBy == "" {
		return systemActor
	}
	return createdBy
}
