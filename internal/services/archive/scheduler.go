package archive

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Archiver is the part of ArchiveService the scheduler drives.
type Archiver interface {
	ArchiveAndReset(ctx context.Context) (ArchiveOutcome, error)
}

// Scheduler runs ArchiveAndReset on a fixed interval.
type Scheduler struct {
	archiver Archiver
	interval time.Duration
	logger   *zap.Logger
}

func NewScheduler(archiver Archiver, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{archiver: archiver, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. A failed run is logged and the next
// tick is attempted as usual.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("archive scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("archive scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	outcome, err := s.archiver.ArchiveAndReset(ctx)
	if err != nil {
		s.logger.Error("scheduled archive failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	s.logger.Info("scheduled archive finished",
		zap.Bool("archived", outcome.Archived),
		zap.String("snapshot", outcome.SnapshotName),
		zap.Int("rows", outcome.RowCount),
		zap.String("reason", outcome.Reason),
		zap.Duration("took", time.Since(start)))
}
