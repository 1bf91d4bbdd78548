package telemetry

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InitAppMetrics registers observable gauges for the connection pools. rdb may
// be nil when Redis is not configured.
func InitAppMetrics(serviceName string, pool *pgxpool.Pool, rdb *redis.Client) {
	meter := otel.Meter(serviceName + "/app")

	dbTotal, err := meter.Int64ObservableGauge("alerta_db_pool_connections",
		metric.WithDescription("Conexoes abertas no pool do Postgres"))
	if err != nil {
		return
	}
	dbIdle, err := meter.Int64ObservableGauge("alerta_db_pool_idle_connections",
		metric.WithDescription("Conexoes ociosas no pool do Postgres"))
	if err != nil {
		return
	}
	redisTotal, err := meter.Int64ObservableGauge("alerta_redis_pool_connections",
		metric.WithDescription("Conexoes abertas no pool do Redis"))
	if err != nil {
		return
	}

	_, _ = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		if pool != nil {
			st := pool.Stat()
			o.ObserveInt64(dbTotal, int64(st.TotalConns()))
			o.ObserveInt64(dbIdle, int64(st.IdleConns()))
		}
		if rdb != nil {
			o.ObserveInt64(redisTotal, int64(rdb.PoolStats().TotalConns))
		}
		return nil
	}, dbTotal, dbIdle, redisTotal)
}
