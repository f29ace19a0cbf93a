package main

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the service's OpenTelemetry counters.
type Metrics struct {
	ordersCreated   metric.Int64Counter
	ordersCancelled metric.Int64Counter
	stockDecrements metric.Int64Counter
	stockRestores   metric.Int64Counter
}

// NewMetrics registers the counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	ordersCreated, err := meter.Int64Counter("orders_created_total",
		metric.WithDescription("Number of orders successfully created"))
	if err != nil {
		return nil, err
	}
	ordersCancelled, err := meter.Int64Counter("orders_cancelled_total",
		metric.WithDescription("Number of orders cancelled"))
	if err != nil {
		return nil, err
	}
	stockDecrements, err := meter.Int64Counter("stock_decrements_total",
		metric.WithDescription("Number of per-item stock decrements applied"))
	if err != nil {
		return nil, err
	}
	stockRestores, err := meter.Int64Counter("stock_restores_total",
		metric.WithDescription("Number of per-item stock restorations applied"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersCreated:   ordersCreated,
		ordersCancelled: ordersCancelled,
		stockDecrements: stockDecrements,
		stockRestores:   stockRestores,
	}, nil
}

// OrderCreated records a successful order creation with its item count.
func (m *Metrics) OrderCreated(ctx context.Context, itemCount int) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1)
	m.stockDecrements.Add(ctx, int64(itemCount))
}

// OrderCancelled records an order cancellation.
func (m *Metrics) OrderCancelled(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersCancelled.Add(ctx, 1)
}

// StockRestored records item stock restorations.
func (m *Metrics) StockRestored(ctx context.Context, itemCount int) {
	if m == nil {
		return
	}
	m.stockRestores.Add(ctx, int64(itemCount))
}
