package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/odoyewu/odoyewu/internal/database"
)

var dbSystem = attribute.String("db.system", "postgresql")

// RegisterPoolMetrics reports db.Stats() as observable gauges on every
// collection. Unregister the returned registration before closing db.
func RegisterPoolMetrics(meter metric.Meter, db *sql.DB) (metric.Registration, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))
	}

	open, err := meter.Int64ObservableGauge(
		"db_connections_open",
		metric.WithDescription("Number of established database connections"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db_connections_open gauge: %w", err)
	}

	inUse, err := meter.Int64ObservableGauge(
		"db_connections_in_use",
		metric.WithDescription("Number of database connections currently in use"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db_connections_in_use gauge: %w", err)
	}

	idle, err := meter.Int64ObservableGauge(
		"db_connections_idle",
		metric.WithDescription("Number of idle database connections"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db_connections_idle gauge: %w", err)
	}

	waits, err := meter.Int64ObservableCounter(
		"db_connection_waits_total",
		metric.WithDescription("Total number of waits for a free connection"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db_connection_waits_total counter: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		attrs := metric.WithAttributes(dbSystem)
		o.ObserveInt64(open, int64(stats.OpenConnections), attrs)
		o.ObserveInt64(inUse, int64(stats.InUse), attrs)
		o.ObserveInt64(idle, int64(stats.Idle), attrs)
		o.ObserveInt64(waits, stats.WaitCount, attrs)
		return nil
	}, open, inUse, idle, waits)
}

// TracedStore wraps a database.Store so that every transaction gets a span
// and a duration observation
type TracedStore struct {
	database.Store
	tracer   trace.Tracer
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// NewTracedStore uses the global tracer and meter providers when the
// arguments are nil
func NewTracedStore(store database.Store, tp trace.TracerProvider, meter metric.Meter) (*TracedStore, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if meter == nil {
		meter = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))
	}

	duration, err := meter.Float64Histogram(
		"db_transaction_duration_seconds",
		metric.WithDescription("Database transaction duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db_transaction_duration_seconds histogram: %w", err)
	}

	total, err := meter.Int64Counter(
		"db_transaction_total",
		metric.WithDescription("Total number of database transactions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db_transaction_total counter: %w", err)
	}

	return &TracedStore{
		Store:    store,
		tracer:   tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion)),
		duration: duration,
		total:    total,
	}, nil
}

func (s *TracedStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repo database.Repository) error) error {
	ctx, span := s.tracer.Start(ctx, "db.transaction",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(dbSystem),
	)
	defer span.End()

	start := time.Now()
	err := s.Store.RunInTx(ctx, fn)

	status := "committed"
	if err != nil {
		status = "rolled_back"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	attrs := metric.WithAttributes(dbSystem, attribute.String("status", status))
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	s.total.Add(ctx, 1, attrs)
	return err
}
