package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"fuel-procurement-service/internal/engine"
	eventmocks "fuel-procurement-service/internal/events/mocks"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type stubAlerts struct {
	alerts []engine.Alert
	err    error
	calls  int
}

func (s *stubAlerts) GetActiveAlerts(context.Context) ([]engine.Alert, error) {
	s.calls++
	return s.alerts, s.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func lowStock(id string, severity engine.Urgency) engine.Alert {
	return engine.Alert{
		ID:         id,
		Type:       engine.AlertLowStock,
		Severity:   severity,
		TankID:     uuid.New(),
		DepotID:    uuid.New(),
		FuelTypeID: uuid.New(),
		Message:    "running low",
	}
}

func TestAlertScanJob_PublishesCriticalLowStockOnce(t *testing.T) {
	source := &stubAlerts{alerts: []engine.Alert{
		lowStock("a1", engine.UrgencyCatastrophe),
		lowStock("a2", engine.UrgencyWarning),
		{ID: "a3", Type: engine.AlertOverfill, Severity: engine.UrgencyWarning},
	}}
	publisher := new(eventmocks.MockPublisher)
	publisher.On("PublishAlert", mock.Anything, mock.MatchedBy(func(a engine.Alert) bool { return a.ID == "a1" })).Return(nil)
	job := NewAlertScanJob(source, publisher, time.Minute, quietLogger())

	job.runScan(context.Background())
	job.runScan(context.Background())

	publisher.AssertNumberOfCalls(t, "PublishAlert", 1)
	assert.Equal(t, 2, source.calls)
}

func TestAlertScanJob_RepublishesOnEscalation(t *testing.T) {
	source := &stubAlerts{alerts: []engine.Alert{lowStock("a1", engine.UrgencyCritical)}}
	publisher := new(eventmocks.MockPublisher)
	publisher.On("PublishAlert", mock.Anything, mock.Anything).Return(nil)
	job := NewAlertScanJob(source, publisher, time.Minute, quietLogger())

	job.runScan(context.Background())
	source.alerts = []engine.Alert{lowStock("a1", engine.UrgencyCatastrophe)}
	job.runScan(context.Background())

	publisher.AssertNumberOfCalls(t, "PublishAlert", 2)
}

func TestAlertScanJob_ClearedAlertFiresAgain(t *testing.T) {
	source := &stubAlerts{alerts: []engine.Alert{lowStock("a1", engine.UrgencyCritical)}}
	publisher := new(eventmocks.MockPublisher)
	publisher.On("PublishAlert", mock.Anything, mock.Anything).Return(nil)
	job := NewAlertScanJob(source, publisher, time.Minute, quietLogger())

	job.runScan(context.Background())
	source.alerts = nil
	job.runScan(context.Background())
	source.alerts = []engine.Alert{lowStock("a1", engine.UrgencyCritical)}
	job.runScan(context.Background())

	publisher.AssertNumberOfCalls(t, "PublishAlert", 2)
}

func TestAlertScanJob_RetriesFailedPublish(t *testing.T) {
	source := &stubAlerts{alerts: []engine.Alert{lowStock("a1", engine.UrgencyCritical)}}
	publisher := new(eventmocks.MockPublisher)
	publisher.On("PublishAlert", mock.Anything, mock.Anything).Return(errors.New("nats: timeout")).Once()
	publisher.On("PublishAlert", mock.Anything, mock.Anything).Return(nil).Once()
	job := NewAlertScanJob(source, publisher, time.Minute, quietLogger())

	job.runScan(context.Background())
	job.runScan(context.Background())
	job.runScan(context.Background())

	publisher.AssertNumberOfCalls(t, "PublishAlert", 2)
}

func TestAlertScanJob_SourceErrorAndNilPublisher(t *testing.T) {
	source := &stubAlerts{err: errors.New("db down")}
	job := NewAlertScanJob(source, nil, 0, nil)
	assert.Equal(t, 30*time.Minute, job.interval)

	job.runScan(context.Background())

	source.err = nil
	source.alerts = []engine.Alert{lowStock("a1", engine.UrgencyCatastrophe)}
	job.runScan(context.Background())
	assert.Contains(t, job.published, "a1")
}

func TestAlertScanJob_StartStop(t *testing.T) {
	source := &stubAlerts{}
	job := NewAlertScanJob(source, nil, time.Hour, quietLogger())

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	job.Stop()
	job.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop")
	}
}

func TestAlertScanJob_ContextCancel(t *testing.T) {
	job := NewAlertScanJob(&stubAlerts{}, nil, time.Hour, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop on context cancel")
	}
}
