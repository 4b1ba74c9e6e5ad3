package jobs

import (
	"context"
	"sync"
	"time"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/events"

	"github.com/sirupsen/logrus"
)

// AlertSource lists the fleet's active alerts
type AlertSource interface {
	GetActiveAlerts(ctx context.Context) ([]engine.Alert, error)
}

// AlertScanJob periodically evaluates stock alerts and publishes low-stock events
type AlertScanJob struct {
	alerts    AlertSource
	publisher events.Publisher
	logger    *logrus.Logger
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once

	// last published severity per alert ID; an alert is republished only when it escalates
	published map[string]engine.Urgency
}

// NewAlertScanJob creates a new alert scan job. publisher may be nil, in which case
// alerts are only logged.
func NewAlertScanJob(alerts AlertSource, publisher events.Publisher, interval time.Duration, logger *logrus.Logger) *AlertScanJob {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AlertScanJob{
		alerts:    alerts,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
		published: make(map[string]engine.Urgency),
	}
}

// Start runs the scan immediately and then on every tick until stopped
func (j *AlertScanJob) Start(ctx context.Context) {
	j.logger.WithField("interval", j.interval).Info("Alert scan job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.runScan(ctx)

	for {
		select {
		case <-ticker.C:
			j.runScan(ctx)
		case <-j.stopCh:
			j.logger.Info("Alert scan job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Alert scan job context cancelled")
			return
		}
	}
}

// Stop signals the job to stop
func (j *AlertScanJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

func (j *AlertScanJob) runScan(ctx context.Context) {
	j.logger.Debug("Running alert scan...")

	alerts, err := j.alerts.GetActiveAlerts(ctx)
	if err != nil {
		j.logger.WithError(err).Error("Failed to evaluate stock alerts")
		return
	}

	summary := engine.SummarizeAlerts(alerts)
	j.logger.WithFields(logrus.Fields{
		"total":       summary.Total,
		"catastrophe": summary.BySeverity[engine.UrgencyCatastrophe],
		"critical":    summary.BySeverity[engine.UrgencyCritical],
	}).Info("Alert scan completed")

	active := make(map[string]bool, len(alerts))
	published := 0
	for _, alert := range alerts {
		if alert.Type != engine.AlertLowStock || alert.Severity < engine.UrgencyCritical {
			continue
		}
		active[alert.ID] = true
		if last, seen := j.published[alert.ID]; seen && alert.Severity <= last {
			continue
		}
		if j.publisher == nil {
			j.logger.WithFields(logrus.Fields{
				"depot":    alert.DepotName,
				"tank":     alert.TankCode,
				"severity": alert.Severity,
			}).Warn(alert.Message)
			j.published[alert.ID] = alert.Severity
			continue
		}
		if err := j.publisher.PublishAlert(ctx, alert); err != nil {
			j.logger.WithError(err).WithField("alertId", alert.ID).Error("Failed to publish stock alert")
			continue
		}
		j.published[alert.ID] = alert.Severity
		published++
	}

	// cleared alerts may fire again later
	for id := range j.published {
		if !active[id] {
			delete(j.published, id)
		}
	}

	if published > 0 {
		j.logger.Infof("Published %d stock alerts", published)
	}
}
