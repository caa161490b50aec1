package telemetry

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// DatabaseTarget describes the database a traced connection points at
type DatabaseTarget struct {
	Name string
	Host string
	Port int
}

func (t DatabaseTarget) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{semconv.DBSystemPostgreSQL}
	if t.Name != "" {
		attrs = append(attrs, semconv.DBName(t.Name))
	}
	if t.Host != "" {
		attrs = append(attrs, semconv.ServerAddress(t.Host))
	}
	if t.Port > 0 {
		attrs = append(attrs, semconv.ServerPort(t.Port))
	}
	return attrs
}

// InstrumentDatabase opens a database handle whose queries are traced
func InstrumentDatabase(driverName, dataSourceName string, target DatabaseTarget) (*sql.DB, error) {
	db, err := otelsql.Open(driverName, dataSourceName,
		otelsql.WithAttributes(target.attributes()...),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitConnResetSession: true,
			OmitRows:             true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open instrumented database: %w", err)
	}

	if err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(target.attributes()...)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register database stats: %w", err)
	}
	return db, nil
}

// InstrumentRedisClient adds the tracing hook to a Redis client
func InstrumentRedisClient(client *redis.Client) {
	client.AddHook(redisotel.NewTracingHook())
}
