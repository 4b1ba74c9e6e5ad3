// Package mocks provides a testify mock of the event publisher
package mocks

import (
	"context"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/events"

	"github.com/stretchr/testify/mock"
)

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

var _ events.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) PublishStockAdjusted(ctx context.Context, adj events.StockAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

func (m *MockPublisher) PublishAlert(ctx context.Context, alert engine.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}
