// Package worker runs the background report exporter. It listens for event
// change notifications and republishes the report sheets once writes settle,
// with a periodic full export as a fallback for missed messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"salesops/internal/amqp"
	"salesops/internal/log"
	"salesops/internal/metrics"
	"salesops/internal/services"
	"salesops/internal/store"
)

// ReportSource computes the reports to export.
type ReportSource interface {
	Report(ctx context.Context, q services.ReportQuery) (services.Report, error)
	Invalidate()
}

type Config struct {
	// Period of the exported reports, as accepted by services.ReportQuery.
	Period string
	// Interval between unconditional exports.
	Interval time.Duration
	// Debounce is how long change notifications must go quiet before an export.
	Debounce time.Duration
	// Roster includes every known group, even idle ones.
	Roster bool
}

func DefaultConfig() Config {
	return Config{
		Period:   "month",
		Interval: 5 * time.Minute,
		Debounce: 2 * time.Second,
		Roster:   true,
	}
}

var exportDimensions = []services.Dimension{
	services.DimensionRepresentative,
	services.DimensionLineOfWork,
	services.DimensionOverall,
}

type ExportWorker struct {
	reports  ReportSource
	exporter store.ReportExporter
	config   Config
	logger   *log.Logger

	changes chan struct{}

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	stopOnce *sync.Once
	doneCh   chan struct{}
}

func NewExportWorker(reports ReportSource, exporter store.ReportExporter, cfg Config, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentWorker)
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	return &ExportWorker{
		reports:  reports,
		exporter: exporter,
		config:   cfg,
		logger:   logger.WithComponent(log.ComponentWorker),
		changes:  make(chan struct{}, 1),
	}
}

// HandleEventChanged is the AMQP consumer callback. It drops cached reports
// and schedules an export; it never fails, so messages are always acked.
func (w *ExportWorker) HandleEventChanged(ctx context.Context, msg *amqp.EventChangedMessage) error {
	w.logger.DebugContext(ctx, "Event change received",
		log.FieldEventID, msg.EventID, log.FieldOperation, string(msg.Operation))
	w.reports.Invalidate()
	select {
	case w.changes <- struct{}{}:
	default:
	}
	return nil
}

// Start exports once and then runs the export loop until Stop is called or
// ctx is done. It returns an error if the worker is already running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("export worker is already running")
	}
	w.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	w.stopCh, w.doneCh, w.stopOnce = stopCh, doneCh, new(sync.Once)
	w.mu.Unlock()

	go w.runLoop(ctx, stopCh, doneCh)

	w.logger.InfoContext(ctx, "Export worker started",
		"period", w.config.Period, "interval", w.config.Interval, "debounce", w.config.Debounce)
	return nil
}

// Stop signals the loop to exit and waits for it, up to ctx's deadline.
// It is safe to call concurrently and more than once.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh, once := w.stopCh, w.doneCh, w.stopOnce
	w.mu.Unlock()

	once.Do(func() { close(stopCh) })
	select {
	case <-doneCh:
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}
	w.logger.InfoContext(ctx, "Export worker stopped")
	return nil
}

func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// runLoop clears the running flag on exit, whether stopped or cancelled,
// so the worker can be started again.
func (w *ExportWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(doneCh)
	}()

	w.exportAndLog(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	debounce := time.NewTimer(w.config.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-w.changes:
			debounce.Reset(w.config.Debounce)
		case <-debounce.C:
			w.exportAndLog(ctx)
		case <-ticker.C:
			w.exportAndLog(ctx)
		}
	}
}

func (w *ExportWorker) exportAndLog(ctx context.Context) {
	if err := w.ExportAll(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Report export failed", log.FieldError, err)
	}
}

// ExportAll computes and exports one sheet per report dimension. A failed
// sheet does not stop the others; all failures are returned together.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	var errs []error
	for _, d := range exportDimensions {
		if err := w.exportOne(ctx, d); err != nil {
			metrics.ReportsExported.WithLabelValues("error").Inc()
			errs = append(errs, fmt.Errorf("export %s: %w", d, err))
			continue
		}
		metrics.ReportsExported.WithLabelValues("success").Inc()
	}
	return errors.Join(errs...)
}

func (w *ExportWorker) exportOne(ctx context.Context, d services.Dimension) error {
	r, err := w.reports.Report(ctx, services.ReportQuery{
		Dimension: d,
		Period:    w.config.Period,
		Roster:    w.config.Roster,
	})
	if err != nil {
		return err
	}
	sheet := ReportSheet(r)
	if err := w.exporter.ExportReport(ctx, sheet); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Report exported",
		log.NewFields().WithReport(string(d), r.Period, r.Window.String()).ToSlice()...)
	return nil
}
