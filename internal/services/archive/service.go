package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/lock"
	"picking-verification-backend/internal/metrics"
	"picking-verification-backend/internal/repository"
)

// SnapshotLayout names snapshots by local wall-clock time to the minute.
const SnapshotLayout = "Backup_2006-01-02_15-04"

type ArchiveOutcome struct {
	Archived     bool   `json:"archived"`
	SnapshotName string `json:"snapshot_name,omitempty"`
	RowCount     int    `json:"row_count"`
	Reason       string `json:"reason,omitempty"`
}

type ArchiveService struct {
	store  repository.Store
	locker lock.Locker
	logger *zap.Logger
	now    func() time.Time
}

func NewArchiveService(store repository.Store, locker lock.Locker, logger *zap.Logger) *ArchiveService {
	return &ArchiveService{
		store:  store,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

func SnapshotName(t time.Time) string {
	return t.Format(SnapshotLayout)
}

// ArchiveAndReset copies the whole store into a new snapshot and then
// truncates the live store back to its header line. The live store is only
// touched once the snapshot has been written.
func (s *ArchiveService) ArchiveAndReset(ctx context.Context) (ArchiveOutcome, error) {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return ArchiveOutcome{}, err
	}
	defer release()

	lines, err := s.store.ReadAll(ctx)
	if err != nil {
		metrics.Archives.WithLabelValues("failed").Inc()
		metrics.StoreErrors.WithLabelValues("read_all").Inc()
		s.logger.Error("archive read failed", zap.Error(err))
		return ArchiveOutcome{}, apperrors.Read("read_all", err)
	}
	if len(lines) <= 1 {
		metrics.Archives.WithLabelValues("empty").Inc()
		s.logger.Info("archive skipped, store has no data rows")
		return ArchiveOutcome{Reason: "empty"}, nil
	}

	name := SnapshotName(s.now())
	rowCount := len(lines) - 1

	if err := s.store.CreateSnapshot(ctx, name, lines); err != nil {
		metrics.Archives.WithLabelValues("failed").Inc()
		s.logger.Error("snapshot failed, live store untouched",
			zap.String("snapshot", name), zap.Error(err))
		if errors.Is(err, apperrors.ErrSnapshotExists) {
			return ArchiveOutcome{}, err
		}
		metrics.StoreErrors.WithLabelValues("create_snapshot").Inc()
		return ArchiveOutcome{}, apperrors.Write("create_snapshot", err)
	}

	if err := s.reset(ctx, lines[0]); err != nil {
		metrics.Archives.WithLabelValues("partial").Inc()
		s.logger.Error("snapshot written but live store not reset",
			zap.String("snapshot", name), zap.Int("rows", rowCount), zap.Error(err))
		return ArchiveOutcome{}, &apperrors.PartialArchiveError{SnapshotName: name, RowCount: rowCount, Err: err}
	}

	metrics.Archives.WithLabelValues("archived").Inc()
	s.logger.Info("store archived",
		zap.String("snapshot", name), zap.Int("rows", rowCount))
	return ArchiveOutcome{Archived: true, SnapshotName: name, RowCount: rowCount}, nil
}

// ResumeReset finishes an archive that stopped after its snapshot was
// written. The live store is reset only while it still holds exactly the
// snapshot's content, or nothing beyond a header, so rows appended since
// the failure are never discarded.
func (s *ArchiveService) ResumeReset(ctx context.Context, snapshotName string) (ArchiveOutcome, error) {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return ArchiveOutcome{}, err
	}
	defer release()

	snap, err := s.store.Snapshot(ctx, snapshotName)
	if errors.Is(err, apperrors.ErrSnapshotNotFound) {
		return ArchiveOutcome{}, err
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("snapshot").Inc()
		return ArchiveOutcome{}, apperrors.Read("snapshot", err)
	}
	if len(snap) == 0 {
		return ArchiveOutcome{}, fmt.Errorf("%w: snapshot %s is empty", apperrors.ErrSnapshotMismatch, snapshotName)
	}

	live, err := s.store.ReadAll(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("read_all").Inc()
		return ArchiveOutcome{}, apperrors.Read("read_all", err)
	}
	if len(live) > 1 && !sameGrid(live, snap) {
		s.logger.Warn("resume refused, live store changed since snapshot",
			zap.String("snapshot", snapshotName),
			zap.Int("live_rows", len(live)-1),
			zap.Int("snapshot_rows", len(snap)-1))
		return ArchiveOutcome{}, fmt.Errorf("%w: %s has %d rows, live store has %d",
			apperrors.ErrSnapshotMismatch, snapshotName, len(snap)-1, len(live)-1)
	}

	rowCount := len(snap) - 1
	if err := s.reset(ctx, snap[0]); err != nil {
		metrics.Archives.WithLabelValues("partial").Inc()
		s.logger.Error("resume reset failed", zap.String("snapshot", snapshotName), zap.Error(err))
		return ArchiveOutcome{}, &apperrors.PartialArchiveError{SnapshotName: snapshotName, RowCount: rowCount, Err: err}
	}

	metrics.Archives.WithLabelValues("archived").Inc()
	s.logger.Info("archive reset resumed",
		zap.String("snapshot", snapshotName), zap.Int("rows", rowCount))
	return ArchiveOutcome{Archived: true, SnapshotName: snapshotName, RowCount: rowCount}, nil
}

func (s *ArchiveService) reset(ctx context.Context, header []string) error {
	if err := s.store.Clear(ctx); err != nil {
		metrics.StoreErrors.WithLabelValues("clear").Inc()
		return apperrors.Write("clear", err)
	}
	if err := s.store.AppendRows(ctx, [][]string{header}); err != nil {
		metrics.StoreErrors.WithLabelValues("append_rows").Inc()
		return apperrors.Write("append_rows", err)
	}
	return nil
}

// sameGrid compares two tables ignoring trailing empty cells, which some
// backends drop on read.
func sameGrid(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := trimLine(a[i]), trimLine(b[i])
		if len(x) != len(y) {
			return false
		}
		for j := range x {
			if x[j] != y[j] {
				return false
			}
		}
	}
	return true
}

func trimLine(line []string) []string {
	n := len(line)
	for n > 0 && line[n-1] == "" {
		n--
	}
	return line[:n]
}

// Snapshots lists the snapshots taken so far.
func (s *ArchiveService) Snapshots(ctx context.Context) ([]string, error) {
	names, err := s.store.Snapshots(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("list_snapshots").Inc()
		return nil, apperrors.Read("list_snapshots", err)
	}
	return names, nil
}
