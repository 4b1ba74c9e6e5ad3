package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CrisisCaseType is the kind of redistribution a case records
type CrisisCaseType string

const (
	CrisisCaseSplitDelivery CrisisCaseType = "split_delivery"
	CrisisCaseTransfer      CrisisCaseType = "transfer"
)

// CrisisCaseStatus is the lifecycle state of a crisis case.
// Cases move forward only: proposed -> accepted -> monitoring -> resolved.
type CrisisCaseStatus string

const (
	// CrisisStatusProposed is reserved; acceptance creates cases directly in accepted.
	CrisisStatusProposed   CrisisCaseStatus = "proposed"
	CrisisStatusAccepted   CrisisCaseStatus = "accepted"
	CrisisStatusMonitoring CrisisCaseStatus = "monitoring"
	CrisisStatusResolved   CrisisCaseStatus = "resolved"
)

// OpenCrisisStatuses are the statuses whose quantity is still committed against the donor
var OpenCrisisStatuses = []CrisisCaseStatus{CrisisStatusAccepted, CrisisStatusMonitoring}

var crisisStatusRank = map[CrisisCaseStatus]int{
	CrisisStatusProposed:   0,
	CrisisStatusAccepted:   1,
	CrisisStatusMonitoring: 2,
	CrisisStatusResolved:   3,
}

// IsValid reports whether s is a known status
func (s CrisisCaseStatus) IsValid() bool {
	_, ok := crisisStatusRank[s]
	return ok
}

// CanTransitionTo reports whether a case may move from s to next.
// Staying in monitoring is allowed so the second compensating PO can be linked.
func (s CrisisCaseStatus) CanTransitionTo(next CrisisCaseStatus) bool {
	from, ok := crisisStatusRank[s]
	if !ok {
		return false
	}
	to, ok := crisisStatusRank[next]
	if !ok {
		return false
	}
	if s == CrisisStatusResolved {
		return false
	}
	if s == CrisisStatusMonitoring && next == CrisisStatusMonitoring {
		return true
	}
	return to > from
}

// CompensatingPORole selects which side of a case a replacement PO belongs to
type CompensatingPORole string

const (
	CompensatingPOCritical CompensatingPORole = "critical"
	CompensatingPODonor    CompensatingPORole = "donor"
)

// CrisisCase is the persisted record of an accepted crisis proposal
type CrisisCase struct {
	ID              uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CaseType        CrisisCaseType   `json:"caseType" gorm:"type:varchar(20);not null;index"`
	Status          CrisisCaseStatus `json:"status" gorm:"type:varchar(20);not null;default:'accepted';index"`
	CriticalDepotID uuid.UUID        `json:"criticalDepotId" gorm:"type:uuid;not null;index"`
	DonorDepotID    uuid.UUID        `json:"donorDepotId" gorm:"type:uuid;not null;index"`
	FuelTypeID      uuid.UUID        `json:"fuelTypeId" gorm:"type:uuid;not null"`
	DonorOrderID    *uuid.UUID       `json:"donorOrderId,omitempty" gorm:"type:uuid;index"`
	QuantityLiters  float64          `json:"quantityLiters" gorm:"type:decimal(14,2);not null"`
	QuantityTons    float64          `json:"quantityTons" gorm:"type:decimal(12,2);not null"`
	MaxSafeTons     float64          `json:"maxSafeTons" gorm:"type:decimal(12,2);not null"`
	CriticalPOID    *uuid.UUID       `json:"criticalPoId,omitempty" gorm:"column:critical_po_id;type:uuid"`
	DonorPOID       *uuid.UUID       `json:"donorPoId,omitempty" gorm:"column:donor_po_id;type:uuid"`
	Calculation     datatypes.JSON   `json:"calculation" gorm:"type:jsonb"`
	Notes           *string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy       string           `json:"createdBy" gorm:"type:varchar(255);not null"`
	AcceptedAt      time.Time        `json:"acceptedAt" gorm:"not null"`
	MonitoringAt    *time.Time       `json:"monitoringAt,omitempty"`
	ResolvedAt      *time.Time       `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func (CrisisCase) TableName() string {
	return "crisis_cases"
}
