package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	slowQueryStartKey    = "telemetry:query_start"
	defaultSlowQueryTime = 200 * time.Millisecond
)

// InstrumentDB adds OTEL spans to every gorm query and logs slow ones.
// Full SQL text is only attached when cfg.DBLogFullSQL is set.
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithAttributes(attribute.String("db.system", db.Dialector.Name())),
	}
	if !cfg.DBLogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	threshold := cfg.DBSlowQueryThresh
	if threshold <= 0 {
		threshold = defaultSlowQueryTime
	}
	return registerSlowQueryLog(db, threshold, logger)
}

func registerSlowQueryLog(db *gorm.DB, threshold time.Duration, logger *zap.Logger) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(slowQueryStartKey, time.Now())
	}
	finish := func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(slowQueryStartKey)
		if !ok {
			return
		}
		elapsed := time.Since(v.(time.Time))
		if elapsed < threshold {
			return
		}
		ctx := tx.Statement.Context
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
		logger.Warn("Slow query",
			zap.String("table", tx.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold),
			zap.Int64("rows", tx.Statement.RowsAffected),
			zap.String("trace_id", TraceID(ctx)),
		)
	}

	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:before_create", start),
		cb.Create().After("gorm:create").Register("telemetry:after_create", finish),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", start),
		cb.Query().After("gorm:query").Register("telemetry:after_query", finish),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", start),
		cb.Update().After("gorm:update").Register("telemetry:after_update", finish),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", start),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", finish),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", start),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", finish),
	)
}

// RegisterPoolMetrics reports the sql.DB connection pool as observable gauges
func RegisterPoolMetrics(meter metric.Meter, sqlDB *sql.DB) error {
	if meter == nil {
		return ErrMeterNil
	}
	open, err := meter.Int64ObservableGauge("db.client.connections.open",
		metric.WithDescription("Open connections in the pool"))
	if err != nil {
		return err
	}
	inUse, err := meter.Int64ObservableGauge("db.client.connections.in_use",
		metric.WithDescription("Connections currently in use"))
	if err != nil {
		return err
	}
	idle, err := meter.Int64ObservableGauge("db.client.connections.idle",
		metric.WithDescription("Idle connections"))
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db.client.connections.waits",
		metric.WithDescription("Total number of waits for a connection"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(idle, int64(stats.Idle))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, idle, waits)
	return err
}
