package engine

import (
	"fmt"
	"iter"
	"time"
)

// DaysUntilEmpty returns stock/dailyConsumption, or nil when there is no consumption.
// nil means "unknown", not "infinite runway".
func DaysUntilEmpty(stock, dailyConsumption float64) *float64 {
	if dailyConsumption <= 0 {
		return nil
	}
	days := stock / dailyConsumption
	return &days
}

// DaysUntilThreshold returns the days until stock falls to threshold, floored at 0.
// Returns nil when there is no consumption.
func DaysUntilThreshold(stock, threshold, dailyConsumption float64) *float64 {
	if dailyConsumption <= 0 {
		return nil
	}
	days := (stock - threshold) / dailyConsumption
	if days < 0 {
		days = 0
	}
	return &days
}

// Delivery is a quantity landing in the tank on a calendar date
type Delivery struct {
	Date   time.Time `json:"date"`
	Liters float64   `json:"liters"`
}

// Projection describes a forward simulation of one depot×fuel stock
type Projection struct {
	Start            time.Time
	InitialStock     float64
	DailyConsumption float64
	Capacity         float64
	Deliveries       []Delivery
	HorizonDays      int
}

// DayLevel is the projected stock at the end of one day
type DayLevel struct {
	Day       int       `json:"day"`
	Date      time.Time `json:"date"`
	Stock     float64   `json:"stockLiters"`
	Delivered float64   `json:"deliveredLiters"`
	// Spilled is delivered volume that did not fit under capacity
	Spilled float64 `json:"spilledLiters"`
	// Unmet is consumption that could not be served because the tank ran dry
	Unmet float64 `json:"unmetLiters"`
}

func (p Projection) validate() error {
	switch {
	case p.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	case p.InitialStock < 0 || p.InitialStock > p.Capacity:
		return fmt.Errorf("%w: initial stock %v outside [0, %v]", ErrInvalidInput, p.InitialStock, p.Capacity)
	case p.DailyConsumption < 0:
		return fmt.Errorf("%w: daily consumption must not be negative", ErrInvalidInput)
	case p.HorizonDays < 0:
		return fmt.Errorf("%w: horizon must not be negative", ErrInvalidInput)
	}
	for _, d := range p.Deliveries {
		if d.Liters < 0 {
			return fmt.Errorf("%w: delivery on %s is negative", ErrInvalidInput, d.Date.Format(time.DateOnly))
		}
	}
	return nil
}

// ProjectForward returns the day-by-day stock sequence for days 0..HorizonDays.
// Day 0 is the initial stock. Each later day subtracts consumption, adds deliveries
// for that date and clamps to [0, capacity], recording what was spilled or unmet.
// The sequence is lazy and can be ranged over any number of times.
func ProjectForward(p Projection) (iter.Seq[DayLevel], error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	loc := p.Start.Location()
	start := truncateDay(p.Start)
	byDate := make(map[string]float64, len(p.Deliveries))
	for _, d := range p.Deliveries {
		byDate[d.Date.In(loc).Format(time.DateOnly)] += d.Liters
	}

	return func(yield func(DayLevel) bool) {
		stock := p.InitialStock
		if !yield(DayLevel{Day: 0, Date: start, Stock: stock}) {
			return
		}
		for day := 1; day <= p.HorizonDays; day++ {
			date := start.AddDate(0, 0, day)
			delivered := byDate[date.Format(time.DateOnly)]
			level := DayLevel{Day: day, Date: date, Delivered: delivered}

			next := stock - p.DailyConsumption + delivered
			switch {
			case next < 0:
				level.Unmet = -next
				next = 0
			case next > p.Capacity:
				level.Spilled = next - p.Capacity
				next = p.Capacity
			}
			level.Stock = next
			stock = next

			if !yield(level) {
				return
			}
		}
	}, nil
}

// FirstDayAtOrBelow returns the first projected day whose stock is at or below threshold
func FirstDayAtOrBelow(levels iter.Seq[DayLevel], threshold float64) (DayLevel, bool) {
	for level := range levels {
		if level.Stock <= threshold {
			return level, true
		}
	}
	return DayLevel{}, false
}

// ForecastSummary is a materialized projection with its key dates
type ForecastSummary struct {
	Levels        []DayLevel `json:"levels"`
	StockoutDay   *int       `json:"stockoutDay,omitempty"`
	CriticalDay   *int       `json:"criticalDay,omitempty"`
	TotalSpilled  float64    `json:"totalSpilledLiters"`
	TotalUnmet    float64    `json:"totalUnmetLiters"`
	TotalDelivery float64    `json:"totalDeliveredLiters"`
}

// Summarize collects a projection and marks the first stockout and first day at or
// below criticalLevel. criticalLevel <= 0 skips the critical marker.
func Summarize(levels iter.Seq[DayLevel], criticalLevel float64) ForecastSummary {
	var s ForecastSummary
	for level := range levels {
		level.Stock = round(level.Stock, 2)
		s.Levels = append(s.Levels, level)
		s.TotalSpilled += level.Spilled
		s.TotalUnmet += level.Unmet
		s.TotalDelivery += level.Delivered
		if s.StockoutDay == nil && level.Stock <= 0 {
			day := level.Day
			s.StockoutDay = &day
		}
		if criticalLevel > 0 && s.CriticalDay == nil && level.Stock <= criticalLevel {
			day := level.Day
			s.CriticalDay = &day
		}
	}
	s.TotalSpilled = round(s.TotalSpilled, 2)
	s.TotalUnmet = round(s.TotalUnmet, 2)
	return s
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b, negative when b is earlier
func daysBetween(a, b time.Time) int {
	a = truncateDay(a)
	b = truncateDay(b.In(a.Location()))
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
