package monitoring

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/database/memstore"
)

func TestRegisterPoolMetrics(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reader, provider := newTestMeter(t)
	reg, err := RegisterPoolMetrics(provider.Meter("test"), db)
	require.NoError(t, err)
	defer func() { assert.NoError(t, reg.Unregister()) }()

	data := collect(t, reader)
	for _, name := range []string{"db_connections_open", "db_connections_in_use", "db_connections_idle"} {
		_, ok := data[name].(metricdata.Gauge[int64])
		assert.True(t, ok, "%s should be an int64 gauge", name)
	}
	assert.Equal(t, int64(0), sumOf(t, data["db_connection_waits_total"]))
}

func TestTracedStore_RunInTx(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	reader, provider := newTestMeter(t)

	store, err := NewTracedStore(memstore.New(), tp, provider.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.RunInTx(ctx, func(context.Context, database.Repository) error { return nil }))
	boom := stderrors.New("boom")
	err = store.RunInTx(ctx, func(context.Context, database.Repository) error { return boom })
	assert.ErrorIs(t, err, boom)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "db.transaction", ended[0].Name())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["db_transaction_total"]))
	hist, ok := data["db_transaction_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)
}
