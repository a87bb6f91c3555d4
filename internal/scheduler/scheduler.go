package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rl1809/retail-ops/internal/core/domain"
)

// ReorderSource is the read-only slice of the gateway the scheduler needs.
type ReorderSource interface {
	LowStock(ctx context.Context) ([]domain.InventoryRecord, error)
}

// Scheduler runs the periodic reorder report. It only reads state.
type Scheduler struct {
	cron   *cron.Cron
	source ReorderSource
	spec   string
	logger *zap.Logger
}

// NewScheduler builds a scheduler for the standard five-field cron spec.
// An empty spec yields a scheduler whose Start is a no-op.
func NewScheduler(spec string, source ReorderSource, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:   cron.New(),
		source: source,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the report job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("reorder report disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.runReorderReport); err != nil {
		return fmt.Errorf("schedule reorder report: %w", err)
	}

	s.logger.Info("starting scheduler", zap.String("reorder_cron", s.spec))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runReorderReport() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.ReorderReport(ctx); err != nil {
		s.logger.Error("failed to build reorder report", zap.Error(err))
	}
}

// ReorderReport logs every low-stock record and returns how many there were.
func (s *Scheduler) ReorderReport(ctx context.Context) (int, error) {
	records, err := s.source.LowStock(ctx)
	if err != nil {
		return 0, err
	}

	for _, rec := range records {
		s.logger.Info("reorder candidate",
			zap.String("store_id", rec.LocationID),
			zap.String("sku", rec.SKU),
			zap.Int("available", rec.Available()),
			zap.Int("reorder_point", rec.ReorderPoint))
	}
	s.logger.Info("reorder report complete", zap.Int("count", len(records)))
	return len(records), nil
}
