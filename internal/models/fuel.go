package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FuelType is a fuel grade. Density (kg/L) is the only liters/tons factor.
type FuelType struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Code      string    `json:"code" gorm:"type:varchar(50);not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Density   float64   `json:"density" gorm:"type:decimal(6,4);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Station groups depots; depots sharing a station are siblings for crisis donation.
type Station struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RegionID  uuid.UUID `json:"regionId" gorm:"type:uuid;index"`
	Code      string    `json:"code" gorm:"type:varchar(50);uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Depot is a fuel storage facility at a station
type Depot struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	StationID uuid.UUID       `json:"stationId" gorm:"type:uuid;not null;index"`
	Code      string          `json:"code" gorm:"type:varchar(50);uniqueIndex"`
	Name      string          `json:"name" gorm:"type:varchar(255);not null"`
	Station   *Station        `json:"station,omitempty" gorm:"foreignKey:StationID"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Tanks []Tank `json:"tanks,omitempty" gorm:"foreignKey:DepotID"`
}

// Tank is the source of truth for on-hand inventory.
// CurrentStockLiters only changes through UpdateTankStock, which writes a TankStockAudit.
type Tank struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DepotID            uuid.UUID `json:"depotId" gorm:"type:uuid;not null;index:idx_tanks_depot_fuel"`
	FuelTypeID         uuid.UUID `json:"fuelTypeId" gorm:"type:uuid;not null;index:idx_tanks_depot_fuel"`
	Code               string    `json:"code" gorm:"type:varchar(50)"`
	CapacityLiters     float64   `json:"capacityLiters" gorm:"type:decimal(14,2);not null"`
	CurrentStockLiters float64   `json:"currentStockLiters" gorm:"type:decimal(14,2);not null;default:0"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// TankStockAudit records every stock change on a tank
type TankStockAudit struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TankID         uuid.UUID `json:"tankId" gorm:"type:uuid;not null;index"`
	OldStockLiters float64   `json:"oldStockLiters" gorm:"type:decimal(14,2);not null"`
	NewStockLiters float64   `json:"newStockLiters" gorm:"type:decimal(14,2);not null"`
	DeltaLiters    float64   `json:"deltaLiters" gorm:"type:decimal(14,2);not null"`
	Reason         string    `json:"reason" gorm:"type:text;not null"`
	ChangedBy      *string   `json:"changedBy,omitempty" gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"createdAt" gorm:"not null;index"`
}

// ConsumptionRate is a daily consumption row (sales params) with an effective range.
// Only the row effective today is used by the engine.
type ConsumptionRate struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DepotID       uuid.UUID  `json:"depotId" gorm:"type:uuid;not null;index:idx_sales_params_depot_fuel"`
	FuelTypeID    uuid.UUID  `json:"fuelTypeId" gorm:"type:uuid;not null;index:idx_sales_params_depot_fuel"`
	LitersPerDay  float64    `json:"litersPerDay" gorm:"type:decimal(14,2);not null"`
	EffectiveFrom time.Time  `json:"effectiveFrom" gorm:"type:date;not null"`
	EffectiveTo   *time.Time `json:"effectiveTo,omitempty" gorm:"type:date"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsEffective reports whether the rate applies on the given day
func (r ConsumptionRate) IsEffective(day time.Time) bool {
	if r.EffectiveFrom.After(day) {
		return false
	}
	return r.EffectiveTo == nil || !r.EffectiveTo.Before(truncateDay(day))
}

// StockPolicy holds explicit per depot×fuel thresholds in liters.
type StockPolicy struct {
	ID                  uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DepotID             uuid.UUID `json:"depotId" gorm:"type:uuid;not null;uniqueIndex:idx_stock_policy_depot_fuel"`
	FuelTypeID          uuid.UUID `json:"fuelTypeId" gorm:"type:uuid;not null;uniqueIndex:idx_stock_policy_depot_fuel"`
	CriticalLevelLiters float64   `json:"criticalLevelLiters" gorm:"type:decimal(14,2);not null"`
	MinLevelLiters      float64   `json:"minLevelLiters" gorm:"type:decimal(14,2);not null"`
	TargetLevelLiters   float64   `json:"targetLevelLiters" gorm:"type:decimal(14,2);not null"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Supplier is a fuel supplier. AutoScore is a 0-100 trust score.
type Supplier struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Code      string    `json:"code" gorm:"type:varchar(50);uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	IsActive  bool      `json:"isActive" gorm:"default:true"`
	AutoScore float64   `json:"autoScore" gorm:"type:decimal(5,2);default:50"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SupplierOffer is a supplier's price and lead time for a fuel delivered to a station.
// Priority 1 is the most preferred.
type SupplierOffer struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SupplierID   uuid.UUID  `json:"supplierId" gorm:"type:uuid;not null;index"`
	StationID    uuid.UUID  `json:"stationId" gorm:"type:uuid;not null;index:idx_offers_station_fuel"`
	FuelTypeID   uuid.UUID  `json:"fuelTypeId" gorm:"type:uuid;not null;index:idx_offers_station_fuel"`
	PricePerTon  float64    `json:"pricePerTon" gorm:"type:decimal(12,2);not null"`
	DeliveryDays int        `json:"deliveryDays" gorm:"not null"`
	Priority     int        `json:"priority" gorm:"not null;default:1"`
	IsActive     bool       `json:"isActive" gorm:"default:true"`
	ValidFrom    *time.Time `json:"validFrom,omitempty" gorm:"type:date"`
	ValidTo      *time.Time `json:"validTo,omitempty" gorm:"type:date"`
	Supplier     *Supplier  `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// OrderStatus is the lifecycle state of a fuel order
type OrderStatus string

const (
	OrderStatusPlanned   OrderStatus = "planned"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
)

// ActiveOrderStatuses are the non-terminal statuses
var ActiveOrderStatuses = []OrderStatus{OrderStatusPlanned, OrderStatusConfirmed, OrderStatusInTransit}

// IsActive returns true for non-terminal orders
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusPlanned || s == OrderStatusConfirmed || s == OrderStatusInTransit
}

// Order is a fuel purchase order. Its lifecycle is owned by the ERP import;
// this service only reads orders and annotates their notes.
type Order struct {
	ID             uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderNumber    string      `json:"orderNumber" gorm:"type:varchar(50);index"`
	StationID      uuid.UUID   `json:"stationId" gorm:"type:uuid;not null;index"`
	DepotID        uuid.UUID   `json:"depotId" gorm:"type:uuid;not null;index:idx_orders_depot_fuel"`
	FuelTypeID     uuid.UUID   `json:"fuelTypeId" gorm:"type:uuid;not null;index:idx_orders_depot_fuel"`
	SupplierID     *uuid.UUID  `json:"supplierId,omitempty" gorm:"type:uuid;index"`
	QuantityLiters float64     `json:"quantityLiters" gorm:"type:decimal(14,2);not null"`
	PricePerTon    float64     `json:"pricePerTon" gorm:"type:decimal(12,2);default:0"`
	OrderDate      time.Time   `json:"orderDate" gorm:"type:date;not null"`
	DeliveryDate   time.Time   `json:"deliveryDate" gorm:"type:date;not null;index"`
	Status         OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'planned';index"`
	Notes          *string     `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// SystemParameter is one entry of the global key/value threshold store
type SystemParameter struct {
	Key         string    `json:"key" gorm:"type:varchar(100);primary_key"`
	Value       string    `json:"value" gorm:"type:varchar(255);not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName implementations
func (FuelType) TableName() string {
	return "fuel_types"
}

func (Station) TableName() string {
	return "stations"
}

func (Depot) TableName() string {
	return "depots"
}

func (Tank) TableName() string {
	return "tanks"
}

func (TankStockAudit) TableName() string {
	return "tank_stock_history"
}

func (ConsumptionRate) TableName() string {
	return "sales_params"
}

func (StockPolicy) TableName() string {
	return "stock_policies"
}

func (Supplier) TableName() string {
	return "suppliers"
}

func (SupplierOffer) TableName() string {
	return "supplier_station_offers"
}

func (Order) TableName() string {
	return "orders"
}

func (SystemParameter) TableName() string {
	return "system_parameters"
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
