// Package events provides NATS event publishing for fuel-procurement-service
package events

import (
	"context"
	"fmt"
	"math"
	"time"

	"fuel-procurement-service/internal/engine"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/sirupsen/logrus"
)

// StockAdjustment describes one tank stock change
type StockAdjustment struct {
	TankID         string
	TankCode       string
	FuelCode       string
	DepotID        string
	DepotName      string
	PreviousLiters float64
	CurrentLiters  float64
	Reason         string
	AdjustedBy     string
}

// Publisher is what the services and jobs need from the event bus
type Publisher interface {
	PublishStockAdjusted(ctx context.Context, adj StockAdjustment) error
	PublishAlert(ctx context.Context, alert engine.Alert) error
}

// FuelEventPublisher publishes tank events on the shared inventory stream
type FuelEventPublisher struct {
	publisher *events.Publisher
	fleetID   string
	logger    *logrus.Entry
}

var _ Publisher = (*FuelEventPublisher)(nil)

// NewFuelEventPublisher connects to NATS and makes sure the inventory stream exists.
// fleetID is sent as the event tenant.
func NewFuelEventPublisher(natsURL, fleetID string, logger *logrus.Logger) (*FuelEventPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "fuel-procurement-service-publisher"

	publisher, err := events.NewPublisher(config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := publisher.EnsureStream(ctx, events.StreamInventory, []string{"inventory.>"}); err != nil {
		log.WithError(err).Warn("Failed to ensure inventory stream exists")
	}

	return &FuelEventPublisher{
		publisher: publisher,
		fleetID:   fleetID,
		logger:    log.WithField("component", "fuel-events"),
	}, nil
}

// liters rounds a volume to the whole-unit stock counts carried by inventory events
func liters(v float64) int {
	return int(math.Round(v))
}

// PublishAlert publishes a low-stock alert. CATASTROPHE at zero stock is sent as
// inventory.out_of_stock, everything else as inventory.low_stock.
func (p *FuelEventPublisher) PublishAlert(ctx context.Context, alert engine.Alert) error {
	eventType := events.InventoryLowStock
	level := "warning"
	if alert.Severity >= engine.UrgencyCritical {
		level = "critical"
	}
	if alert.Severity == engine.UrgencyCatastrophe && alert.StockLiters <= 0 {
		eventType = events.InventoryOutOfStock
	}

	item := events.InventoryItem{
		ProductID:     alert.FuelTypeID.String(),
		Name:          alert.TankCode,
		SKU:           alert.FuelCode,
		CurrentStock:  liters(alert.StockLiters),
		WarehouseID:   alert.DepotID.String(),
		WarehouseName: alert.DepotName,
	}
	if alert.ThresholdLiters != nil {
		item.ReorderPoint = liters(*alert.ThresholdLiters)
	}

	event := events.NewInventoryEvent(eventType, p.fleetID)
	event.Items = []events.InventoryItem{item}
	event.AlertLevel = level
	event.AlertMessage = alert.Message
	event.CalculateSummary()

	fields := logrus.Fields{
		"alertId":  alert.ID,
		"depotId":  alert.DepotID,
		"tankId":   alert.TankID,
		"severity": alert.Severity,
	}
	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(fields).WithError(err).Errorf("Failed to publish %s event", eventType)
		return err
	}

	p.logger.WithFields(fields).Infof("Published %s event", eventType)
	return nil
}

// PublishStockAdjusted publishes an inventory.adjusted event for a tank stock update
func (p *FuelEventPublisher) PublishStockAdjusted(ctx context.Context, adj StockAdjustment) error {
	event := events.NewInventoryEvent(events.InventoryAdjusted, p.fleetID)
	event.Items = []events.InventoryItem{
		{
			ProductID:     adj.TankID,
			Name:          adj.TankCode,
			SKU:           adj.FuelCode,
			CurrentStock:  liters(adj.CurrentLiters),
			PreviousStock: liters(adj.PreviousLiters),
			WarehouseID:   adj.DepotID,
			WarehouseName: adj.DepotName,
		},
	}
	event.AdjustmentReason = adj.Reason
	event.AdjustedBy = adj.AdjustedBy
	switch {
	case adj.CurrentLiters > adj.PreviousLiters:
		event.AdjustmentType = "add"
	case adj.CurrentLiters < adj.PreviousLiters:
		event.AdjustmentType = "remove"
	default:
		event.AdjustmentType = "set"
	}
	event.AlertLevel = "info"
	event.AlertMessage = fmt.Sprintf("Tank %s (%s) at %s changed from %.0f L to %.0f L",
		adj.TankCode, adj.FuelCode, adj.DepotName, adj.PreviousLiters, adj.CurrentLiters)

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"tankId":  adj.TankID,
			"depotId": adj.DepotID,
		}).WithError(err).Error("Failed to publish inventory.adjusted event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"tankId":         adj.TankID,
		"previousLiters": adj.PreviousLiters,
		"currentLiters":  adj.CurrentLiters,
		"adjustmentType": event.AdjustmentType,
	}).Info("Published inventory.adjusted event")
	return nil
}

// IsConnected returns true if connected to NATS
func (p *FuelEventPublisher) IsConnected() bool {
	return p.publisher.IsConnected()
}

// Close closes the NATS connection
func (p *FuelEventPublisher) Close() {
	p.publisher.Close()
}
