package telemetry

import (
	"context"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/joao-fontenele/presswala/internal/domain"
)

// InitMeterProvider installs a Prometheus backed MeterProvider and starts
// Go runtime metrics. The returned handler serves /metrics.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(newResource(serviceName, serviceVersion, os.Getenv("APP_ENV"))),
	)
	otel.SetMeterProvider(mp)

	if err := runtime.Start(); err != nil {
		return nil, nil, err
	}

	return promhttp.Handler(), mp.Shutdown, nil
}

// Metrics are the business counters recorded by the order service.
type Metrics struct {
	ordersPlaced otelmetric.Int64Counter
	orderValue   otelmetric.Int64Histogram
	transitions  otelmetric.Int64Counter
	adminClaims  otelmetric.Int64Counter
}

// NewMetrics registers the counters on the global MeterProvider. Before
// InitMeterProvider runs the global provider is a no-op, which is what
// handler tests get.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("presswala")

	placed, err := meter.Int64Counter("presswala.orders.placed",
		otelmetric.WithDescription("Orders accepted for placement"))
	if err != nil {
		return nil, err
	}
	value, err := meter.Int64Histogram("presswala.orders.value",
		otelmetric.WithDescription("Order total at placement"),
		otelmetric.WithUnit("{rupee}"))
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("presswala.orders.transitions",
		otelmetric.WithDescription("Order status transition attempts by outcome"))
	if err != nil {
		return nil, err
	}
	claims, err := meter.Int64Counter("presswala.admin.claims",
		otelmetric.WithDescription("Admin bootstrap claim attempts by outcome"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersPlaced: placed,
		orderValue:   value,
		transitions:  transitions,
		adminClaims:  claims,
	}, nil
}

func (m *Metrics) OrderPlaced(ctx context.Context, total int64) {
	if m == nil {
		return
	}
	m.ordersPlaced.Add(ctx, 1)
	m.orderValue.Record(ctx, total)
}

// Transition records an attempt to move an order to status to. outcome is
// "ok" or the rejection class.
func (m *Metrics) Transition(ctx context.Context, to domain.OrderStatus, outcome string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("to", string(to)),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) AdminClaim(ctx context.Context, granted bool) {
	if m == nil {
		return
	}
	m.adminClaims.Add(ctx, 1, otelmetric.WithAttributes(attribute.Bool("granted", granted)))
}
