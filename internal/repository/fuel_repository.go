package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fuel-procurement-service/internal/models"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound = errors.New("not found")
)

// Cache TTL constants
const (
	FuelTypeCacheTTL = 30 * time.Minute // fuel grades and densities rarely change
	cacheKeyPrefix   = "fuel:procurement:"
	fuelTypesKey     = "fuel_types:all"
)

// SnapshotFilter narrows snapshot reads. Empty fields mean "all".
type SnapshotFilter struct {
	DepotIDs   []uuid.UUID
	FuelTypeID *uuid.UUID
}

// FuelRepositoryInterface is the data layer consumed by the services
type FuelRepositoryInterface interface {
	// Snapshot reads
	LoadParameters(ctx context.Context) (map[string]string, error)
	ListFuelTypes(ctx context.Context) ([]models.FuelType, error)
	GetFuelType(ctx context.Context, id uuid.UUID) (*models.FuelType, error)
	GetFuelTypeByCode(ctx context.Context, code string) (*models.FuelType, error)
	ListDepots(ctx context.Context) ([]models.Depot, error)
	GetDepot(ctx context.Context, id uuid.UUID) (*models.Depot, error)
	GetDepotByCode(ctx context.Context, code string) (*models.Depot, error)
	ListDepotsByStation(ctx context.Context, stationID uuid.UUID) ([]models.Depot, error)
	ListTanks(ctx context.Context, filter SnapshotFilter) ([]models.Tank, error)
	GetTank(ctx context.Context, id uuid.UUID) (*models.Tank, error)
	ListConsumptionRates(ctx context.Context, day time.Time, filter SnapshotFilter) ([]models.ConsumptionRate, error)
	ListStockPolicies(ctx context.Context, filter SnapshotFilter) ([]models.StockPolicy, error)
	ListSupplierOffers(ctx context.Context, fuelTypeID *uuid.UUID) ([]models.SupplierOffer, error)
	ListActiveOrders(ctx context.Context, filter SnapshotFilter) ([]models.Order, error)

	// Crisis cases
	CreateCrisisCase(ctx context.Context, c *models.CrisisCase) error
	GetCrisisCase(ctx context.Context, id uuid.UUID) (*models.CrisisCase, error)
	LockCrisisCase(ctx context.Context, id uuid.UUID) (*models.CrisisCase, error)
	UpdateCrisisCase(ctx context.Context, c *models.CrisisCase) error
	ListCrisisCases(ctx context.Context, status *models.CrisisCaseStatus) ([]models.CrisisCase, error)
	ListOpenCrisisCasesByDonor(ctx context.Context, donorDepotIDs []uuid.UUID, fuelTypeID uuid.UUID) ([]models.CrisisCase, error)
	LockOpenCrisisCasesByDonor(ctx context.Context, donorDepotIDs []uuid.UUID, fuelTypeID uuid.UUID) ([]models.CrisisCase, error)

	// Orders
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	AppendOrderNote(ctx context.Context, orderID uuid.UUID, note string) error

	// Tanks
	LockTank(ctx context.Context, id uuid.UUID) (*models.Tank, error)
	LockTanks(ctx context.Context, depotIDs []uuid.UUID, fuelTypeID uuid.UUID) ([]models.Tank, error)
	UpdateTankStock(ctx context.Context, tankID uuid.UUID, stockLiters float64) error
	CreateTankAudit(ctx context.Context, audit *models.TankStockAudit) error
	ListTankAudits(ctx context.Context, tankID uuid.UUID, limit int) ([]models.TankStockAudit, error)

	// Stock policies
	UpsertStockPolicy(ctx context.Context, policy *models.StockPolicy) error

	WithTransaction(ctx context.Context, fn func(txRepo FuelRepositoryInterface) error) error
}

// FuelRepository implements FuelRepositoryInterface on gorm with an optional Redis cache
type FuelRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

var _ FuelRepositoryInterface = (*FuelRepository)(nil)

// NewFuelRepository creates a new FuelRepository. redisClient may be nil.
func NewFuelRepository(db *gorm.DB, redisClient *redis.Client) *FuelRepository {
	repo := &FuelRepository{
		db:    db,
		redis: redisClient,
	}

	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 500,
			L1TTL:      time.Minute,
			DefaultTTL: FuelTypeCacheTTL,
			KeyPrefix:  cacheKeyPrefix,
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

// WithTransaction runs fn inside one database transaction. fn's error rolls everything back.
func (r *FuelRepository) WithTransaction(ctx context.Context, fn func(txRepo FuelRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&FuelRepository{db: tx, redis: r.redis, cache: r.cache})
	})
}

// RedisHealth pings Redis
func (r *FuelRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

// DBHealth pings the database
func (r *FuelRepository) DBHealth(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CacheStats returns cache statistics, nil when Redis is not configured
func (r *FuelRepository) CacheStats() *cache.CacheStats {
	if r.cache == nil {
		return nil
	}
	stats := r.cache.Stats()
	return &stats
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func applyFilter(q *gorm.DB, filter SnapshotFilter) *gorm.DB {
	if len(filter.DepotIDs) > 0 {
		q = q.Where("depot_id IN ?", filter.DepotIDs)
	}
	if filter.FuelTypeID != nil {
		q = q.Where("fuel_type_id = ?", *filter.FuelTypeID)
	}
	return q
}

// --- Snapshot reads ---

// LoadParameters reads the whole system_parameters table as raw key/value pairs
func (r *FuelRepository) LoadParameters(ctx context.Context) (map[string]string, error) {
	var rows []models.SystemParameter
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

// ListFuelTypes returns all fuel types, served from cache when available
func (r *FuelRepository) ListFuelTypes(ctx context.Context) ([]models.FuelType, error) {
	load := func() ([]models.FuelType, error) {
		var fuelTypes []models.FuelType
		err := r.db.WithContext(ctx).Order("code ASC").Find(&fuelTypes).Error
		return fuelTypes, err
	}

	if r.cache == nil {
		return load()
	}

	var fuelTypes []models.FuelType
	err := r.cache.GetOrSetJSON(ctx, fuelTypesKey, &fuelTypes, FuelTypeCacheTTL, func() (any, error) {
		return load()
	})
	if err != nil {
		return nil, err
	}
	return fuelTypes, nil
}

// GetFuelType looks a fuel type up through the cached list
func (r *FuelRepository) GetFuelType(ctx context.Context, id uuid.UUID) (*models.FuelType, error) {
	fuelTypes, err := r.ListFuelTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range fuelTypes {
		if fuelTypes[i].ID == id {
			return &fuelTypes[i], nil
		}
	}
	return nil, ErrNotFound
}

// GetFuelTypeByCode looks a fuel type up by its code
func (r *FuelRepository) GetFuelTypeByCode(ctx context.Context, code string) (*models.FuelType, error) {
	var fuelType models.FuelType
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&fuelType).Error; err != nil {
		return nil, notFound(err)
	}
	return &fuelType, nil
}

func (r *FuelRepository) ListDepots(ctx context.Context) ([]models.Depot, error) {
	var depots []models.Depot
	err := r.db.WithContext(ctx).
		Preload("Station").
		Order("name ASC").
		Find(&depots).Error
	return depots, err
}

func (r *FuelRepository) GetDepot(ctx context.Context, id uuid.UUID) (*models.Depot, error) {
	var depot models.Depot
	if err := r.db.WithContext(ctx).Preload("Station").Where("id = ?", id).First(&depot).Error; err != nil {
		return nil, notFound(err)
	}
	return &depot, nil
}

func (r *FuelRepository) GetDepotByCode(ctx context.Context, code string) (*models.Depot, error) {
	var depot models.Depot
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&depot).Error; err != nil {
		return nil, notFound(err)
	}
	return &depot, nil
}

// ListDepotsByStation returns every depot at a station, including the caller's own
func (r *FuelRepository) ListDepotsByStation(ctx context.Context, stationID uuid.UUID) ([]models.Depot, error) {
	var depots []models.Depot
	err := r.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("name ASC").
		Find(&depots).Error
	return depots, err
}

func (r *FuelRepository) ListTanks(ctx context.Context, filter SnapshotFilter) ([]models.Tank, error) {
	var tanks []models.Tank
	err := applyFilter(r.db.WithContext(ctx), filter).
		Order("depot_id, fuel_type_id, code").
		Find(&tanks).Error
	return tanks, err
}

func (r *FuelRepository) GetTank(ctx context.Context, id uuid.UUID) (*models.Tank, error) {
	var tank models.Tank
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tank).Error; err != nil {
		return nil, notFound(err)
	}
	return &tank, nil
}

// ListConsumptionRates returns the rates effective on day, newest first
func (r *FuelRepository) ListConsumptionRates(ctx context.Context, day time.Time, filter SnapshotFilter) ([]models.ConsumptionRate, error) {
	var rates []models.ConsumptionRate
	d := day.Format(time.DateOnly)
	err := applyFilter(r.db.WithContext(ctx), filter).
		Where("effective_from <= ?", d).
		Where("effective_to IS NULL OR effective_to >= ?", d).
		Order("effective_from DESC").
		Find(&rates).Error
	return rates, err
}

func (r *FuelRepository) ListStockPolicies(ctx context.Context, filter SnapshotFilter) ([]models.StockPolicy, error) {
	var policies []models.StockPolicy
	err := applyFilter(r.db.WithContext(ctx), filter).Find(&policies).Error
	return policies, err
}

// ListSupplierOffers returns offers with their supplier. Availability is decided by the caller.
func (r *FuelRepository) ListSupplierOffers(ctx context.Context, fuelTypeID *uuid.UUID) ([]models.SupplierOffer, error) {
	var offers []models.SupplierOffer
	q := r.db.WithContext(ctx).Preload("Supplier")
	if fuelTypeID != nil {
		q = q.Where("fuel_type_id = ?", *fuelTypeID)
	}
	err := q.Order("priority ASC, delivery_days ASC").Find(&offers).Error
	return offers, err
}

// ListActiveOrders returns planned, confirmed and in-transit orders
func (r *FuelRepository) ListActiveOrders(ctx context.Context, filter SnapshotFilter) ([]models.Order, error) {
	var orders []models.Order
	err := applyFilter(r.db.WithContext(ctx), filter).
		Where("status IN ?", models.ActiveOrderStatuses).
		Order("delivery_date ASC").
		Find(&orders).Error
	return orders, err
}

// --- Crisis cases ---

func (r *FuelRepository) CreateCrisisCase(ctx context.Context, c *models.CrisisCase) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *FuelRepository) GetCrisisCase(ctx context.Context, id uuid.UUID) (*models.CrisisCase, error) {
	var c models.CrisisCase
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// LockCrisisCase reads a case with SELECT ... FOR UPDATE. Call inside WithTransaction.
func (r *FuelRepository) LockCrisisCase(ctx context.Context, id uuid.UUID) (*models.CrisisCase, error) {
	var c models.CrisisCase
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *FuelRepository) UpdateCrisisCase(ctx context.Context, c *models.CrisisCase) error {
	c.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *FuelRepository) ListCrisisCases(ctx context.Context, status *models.CrisisCaseStatus) ([]models.CrisisCase, error) {
	var cases []models.CrisisCase
	q := r.db.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Order("created_at DESC").Find(&cases).Error
	return cases, err
}

// ListOpenCrisisCasesByDonor returns accepted and monitoring cases drawing on any of the donor depots
func (r *FuelRepository) ListOpenCrisisCasesByDonor(ctx context.Context, donorDepotIDs []uuid.UUID, fuelTypeID uuid.UUID) ([]models.CrisisCase, error) {
	var cases []models.CrisisCase
	err := openCasesByDonor(r.db.WithContext(ctx), donorDepotIDs, fuelTypeID).Find(&cases).Error
	return cases, err
}

// LockOpenCrisisCasesByDonor is ListOpenCrisisCasesByDonor with SELECT ... FOR UPDATE. Call inside WithTransaction.
func (r *FuelRepository) LockOpenCrisisCasesByDonor(ctx context.Context, donorDepotIDs []uuid.UUID, fuelTypeID uuid.UUID) ([]models.CrisisCase, error) {
	var cases []models.CrisisCase
	err := openCasesByDonor(r.db.WithContext(ctx), donorDepotIDs, fuelTypeID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Find(&cases).Error
	return cases, err
}

func openCasesByDonor(q *gorm.DB, donorDepotIDs []uuid.UUID, fuelTypeID uuid.UUID) *gorm.DB {
	return q.Where("donor_depot_id IN ? AND fuel_type_id = ? AND status IN ?", donorDepotIDs, fuelTypeID, models.OpenCrisisStatuses).
		Order("accepted_at ASC")
}

// --- Orders ---

func (r *FuelRepository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// LockOrder reads an order with SELECT ... FOR UPDATE. Call inside WithTransaction.
func (r *FuelRepository) LockOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// AppendOrderNote adds a line to an order's notes
func (r *FuelRepository) AppendOrderNote(ctx context.Context, orderID uuid.UUID, note string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"notes":      gorm.Expr("CASE WHEN notes IS NULL OR notes = '' THEN ? ELSE notes || ? END", note, "\n"+note),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Tanks ---

// LockTank reads a tank with SELECT ... FOR UPDATE. Call inside WithTransaction.
func (r *FuelRepository) LockTank(ctx context.Context, id uuid.UUID) (*models.Tank, error) {
	var tank models.Tank
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&tank).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &tank, nil
}

// LockTanks locks every tank of the given depots for one fuel, in a stable order
func (r *FuelRepository) LockTanks(ctx context.Context, depotIDs []uuid.UUID, fuelTypeID uuid.UUID) ([]models.Tank, error) {
	var tanks []models.Tank
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("depot_id IN ? AND fuel_type_id = ?", depotIDs, fuelTypeID).
		Order("id").
		Find(&tanks).Error
	return tanks, err
}

func (r *FuelRepository) UpdateTankStock(ctx context.Context, tankID uuid.UUID, stockLiters float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Tank{}).
		Where("id = ?", tankID).
		Updates(map[string]interface{}{
			"current_stock_liters": stockLiters,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FuelRepository) CreateTankAudit(ctx context.Context, audit *models.TankStockAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

// ListTankAudits returns a tank's stock history, newest first
func (r *FuelRepository) ListTankAudits(ctx context.Context, tankID uuid.UUID, limit int) ([]models.TankStockAudit, error) {
	var audits []models.TankStockAudit
	q := r.db.WithContext(ctx).
		Where("tank_id = ?", tankID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&audits).Error
	return audits, err
}

// --- Stock policies ---

// UpsertStockPolicy inserts a policy or overwrites the levels of the existing depot×fuel row
func (r *FuelRepository) UpsertStockPolicy(ctx context.Context, policy *models.StockPolicy) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "depot_id"}, {Name: "fuel_type_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"critical_level_liters", "min_level_liters", "target_level_liters", "updated_at"}),
		}).
		Create(policy).Error
}
