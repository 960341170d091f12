package sink

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/domain"
	"github.com/user/listing-scraper/internal/monitoring"
)

// RecordStore persists records into a database table.
type RecordStore interface {
	SaveRecords(ctx context.Context, table string, records []domain.Record) error
}

// Dispatcher hands a finished batch to exactly one sink.
type Dispatcher struct {
	publisher *Publisher
	store     RecordStore
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. store may be nil when no database is configured.
func NewDispatcher(p *Publisher, store RecordStore, m *monitoring.Metrics, l *zap.Logger) *Dispatcher {
	return &Dispatcher{publisher: p, store: store, metrics: m, logger: l}
}

// Dispatch writes records to target. An empty batch is skipped with a warning.
func (d *Dispatcher) Dispatch(ctx context.Context, records []domain.Record, target domain.SinkTarget) error {
	if len(records) == 0 {
		d.logger.Warn("no records to save", zap.Stringer("target", target))
		return nil
	}

	var err error
	switch target.Kind {
	case domain.SinkAPI:
		err = d.toAPI(ctx, records, target)
	case domain.SinkPostgres:
		err = d.toPostgres(ctx, records, target)
	case domain.SinkFile:
		err = d.toFile(records, target)
	default:
		err = domain.ErrNoTarget
	}
	if err != nil {
		d.metrics.IncErrorsTotal(errorType(err))
		return err
	}
	return nil
}

func (d *Dispatcher) toAPI(ctx context.Context, records []domain.Record, target domain.SinkTarget) error {
	if !d.publisher.Publish(ctx, target.URL, records) {
		return fmt.Errorf("%w: %s", domain.ErrPublishFailed, target.URL)
	}
	d.metrics.AddRecordsWritten("api", len(records))
	return nil
}

func (d *Dispatcher) toPostgres(ctx context.Context, records []domain.Record, target domain.SinkTarget) error {
	if d.store == nil {
		return fmt.Errorf("%w: postgres store is not connected", domain.ErrNoTarget)
	}
	if err := d.store.SaveRecords(ctx, target.Table, records); err != nil {
		return fmt.Errorf("save to postgres table %s: %w", target.Table, err)
	}
	d.metrics.AddRecordsWritten("postgres", len(records))
	d.logger.Info("records saved", zap.String("sink", "postgres"), zap.String("table", target.Table), zap.Int("records", len(records)))
	return nil
}

func (d *Dispatcher) toFile(records []domain.Record, target domain.SinkTarget) error {
	format, err := WriteFile(target.Path, target.Table, records)
	if err != nil {
		return err
	}
	d.metrics.AddRecordsWritten(string(format), len(records))
	d.logger.Info("records saved", zap.String("sink", string(format)), zap.String("path", target.Path), zap.Int("records", len(records)))
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, domain.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, domain.ErrPublishFailed):
		return "publish"
	case errors.Is(err, domain.ErrNoTarget):
		return "no_target"
	default:
		return "sink_write"
	}
}
