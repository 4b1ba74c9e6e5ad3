package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// RecommendedScore is the default score at or above which a supplier is marked recommended
const RecommendedScore = 50.0

// SupplierScore is one ranked entry of a supplier recommendation
type SupplierScore struct {
	SupplierID      uuid.UUID `json:"supplierId"`
	SupplierName    string    `json:"supplierName"`
	OfferID         uuid.UUID `json:"offerId"`
	PricePerTon     float64   `json:"pricePerTon"`
	DeliveryDays    int       `json:"deliveryDays"`
	Priority        int       `json:"priority"`
	AutoScore       float64   `json:"autoScore"`
	PriorityWeight  float64   `json:"priorityWeight"`
	TrustWeight     float64   `json:"trustWeight"`
	SpeedAdjustment float64   `json:"speedAdjustment"`
	Score           float64   `json:"score"`
	EstimatedCost   float64   `json:"estimatedCost"`
	IsRecommended   bool      `json:"isRecommended"`
}

// ScoreSuppliers ranks suppliers for a manual order of requiredTons at the given urgency.
// Each supplier is scored on its best available offer.
func ScoreSuppliers(offers []Offer, requiredTons float64, urgency Urgency, w SupplierScoring, today time.Time) ([]SupplierScore, error) {
	if requiredTons < 0 || !finite(requiredTons) {
		return nil, fmt.Errorf("%w: required tons must be a finite non-negative number", ErrInvalidInput)
	}

	best := make(map[uuid.UUID]Offer)
	for _, o := range offers {
		if !o.Available(today) {
			continue
		}
		if cur, ok := best[o.SupplierID]; !ok || compareOffers(o, cur) < 0 {
			best[o.SupplierID] = o
		}
	}

	scores := make([]SupplierScore, 0, len(best))
	for _, o := range best {
		priorityWeight := math.Max(0, w.PriorityMaxPoints-float64(o.Priority-1)*w.PriorityStepPoints)
		trustWeight := o.AutoScore * w.TrustWeight
		speed := w.speedAdjustment(o.DeliveryDays, urgency)
		score := round(priorityWeight+trustWeight+speed, 2)
		cost := requiredTons * o.PricePerTon
		if !finite(cost) {
			return nil, fmt.Errorf("%w: estimated cost for %s overflows", ErrInvalidInput, o.SupplierName)
		}
		scores = append(scores, SupplierScore{
			SupplierID:      o.SupplierID,
			SupplierName:    o.SupplierName,
			OfferID:         o.OfferID,
			PricePerTon:     o.PricePerTon,
			DeliveryDays:    o.DeliveryDays,
			Priority:        o.Priority,
			AutoScore:       o.AutoScore,
			PriorityWeight:  priorityWeight,
			TrustWeight:     round(trustWeight, 2),
			SpeedAdjustment: speed,
			Score:           score,
			EstimatedCost:   round(cost, 2),
			IsRecommended:   score >= w.RecommendedScore,
		})
	}

	slices.SortFunc(scores, func(a, b SupplierScore) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(a.PricePerTon, b.PricePerTon),
			cmp.Compare(a.SupplierName, b.SupplierName),
		)
	})
	return scores, nil
}

// speedAdjustment rewards fast and penalizes slow delivery, more steeply the more urgent the need
func (w SupplierScoring) speedAdjustment(deliveryDays int, urgency Urgency) float64 {
	tiers := w.RelaxedSpeed
	switch {
	case urgency >= UrgencyCritical:
		tiers = w.UrgentSpeed
	case urgency >= UrgencyWarning:
		tiers = w.ElevatedSpeed
	}
	for _, t := range tiers {
		if t.MaxDays < 0 || deliveryDays <= t.MaxDays {
			return t.Points
		}
	}
	return 0
}
