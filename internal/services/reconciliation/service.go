package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/lock"
	"picking-verification-backend/internal/metrics"
	"picking-verification-backend/internal/models"
	"picking-verification-backend/internal/repository"
	"picking-verification-backend/internal/services/matching"
)

// BatchRepository persists pending batches and their decisions.
type BatchRepository interface {
	Create(ctx context.Context, batch *models.PendingBatch) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PendingBatch, error)
	Save(ctx context.Context, batch *models.PendingBatch) error
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
	ListByStatus(ctx context.Context, statuses []models.BatchStatus, limit int) ([]models.PendingBatch, error)
	RecordAudit(ctx context.Context, entry *models.CommitAuditLog) error
	AuditLog(ctx context.Context, batchID uuid.UUID) ([]models.CommitAuditLog, error)
}

const maxListLimit = 200

type ReconciliationService struct {
	store    repository.Store
	batches  BatchRepository
	locker   lock.Locker
	schema   models.Schema
	batchTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// BatchView is a pending batch with its reconciliation against the store.
type BatchView struct {
	Batch  *models.PendingBatch `json:"batch"`
	Result matching.Result      `json:"result"`
}

func NewReconciliationService(
	store repository.Store,
	batches BatchRepository,
	locker lock.Locker,
	batchTTL time.Duration,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		store:    store,
		batches:  batches,
		locker:   locker,
		schema:   models.PickingSchema,
		batchTTL: batchTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReconciliationService) Schema() models.Schema {
	return s.schema
}

// Upload reconciles incoming against the store and parks it as a pending
// batch awaiting the operator's decision.
func (s *ReconciliationService) Upload(ctx context.Context, filename string, incoming models.Dataset) (*BatchView, error) {
	if missing := s.schema.Missing(incoming.Header); len(missing) > 0 {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		s.logger.Warn("upload rejected",
			zap.String("filename", filename),
			zap.Strings("missing_columns", missing))
		return nil, &apperrors.SchemaError{Missing: missing}
	}

	store, err := s.readStore(ctx)
	if err != nil {
		return nil, err
	}

	result, err := matching.Reconcile(incoming, store, s.schema)
	if err != nil {
		return nil, err
	}

	now := s.now()
	batch := &models.PendingBatch{
		ID:               uuid.New(),
		Filename:         filename,
		ConflictCount:    result.ConflictCount,
		StoredMatchCount: result.StoredMatches.Len(),
		Status:           models.BatchPending,
		ExpiresAt:        now.Add(s.batchTTL),
		CreatedAt:        now,
	}
	if err := batch.SetDataset(incoming); err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	if err := batch.SetConflictKeys(result.ConflictKeys); err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("save batch: %w", err)
	}

	label := "clean"
	if !result.IsClean {
		label = "conflict"
	}
	metrics.Uploads.WithLabelValues(label).Inc()
	metrics.ConflictRows.Add(float64(result.ConflictCount))

	s.logger.Info("upload reconciled",
		zap.String("batch_id", batch.ID.String()),
		zap.String("filename", filename),
		zap.Int("rows", incoming.Len()),
		zap.Int("conflicts", result.ConflictCount),
		zap.Int("incoming_duplicates", len(result.IncomingDuplicates)))

	return &BatchView{Batch: batch, Result: result}, nil
}

// GetBatch loads a batch and reconciles it against the current store.
func (s *ReconciliationService) GetBatch(ctx context.Context, id uuid.UUID) (*BatchView, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	incoming, err := batch.Dataset()
	if err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", id, err)
	}
	store, err := s.readStore(ctx)
	if err != nil {
		return nil, err
	}
	result, err := matching.Reconcile(incoming, store, s.schema)
	if err != nil {
		return nil, err
	}
	return &BatchView{Batch: batch, Result: result}, nil
}

// Decide applies the operator's decision to a pending batch. Under the
// store lock the batch is claimed, so a second decision on the same batch
// fails with ErrBatchDecided, then the store is re-read and the batch
// re-reconciled. If the set of conflicting keys changed since the operator
// reviewed the batch the decision is refused with ErrStaleBatch and the
// batch goes back to pending with its refreshed result.
func (s *ReconciliationService) Decide(ctx context.Context, id uuid.UUID, decision Decision, operator string) (CommitOutcome, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return CommitOutcome{}, err
	}

	now := s.now()
	switch {
	case batch.Status == models.BatchExpired:
		return CommitOutcome{}, apperrors.ErrBatchExpired
	case batch.Status != models.BatchPending:
		return CommitOutcome{}, fmt.Errorf("%w: status %s", apperrors.ErrBatchDecided, batch.Status)
	case batch.IsExpired(now):
		batch.Status = models.BatchExpired
		if err := s.batches.Save(ctx, batch); err != nil {
			s.logger.Error("failed to mark batch expired", zap.String("batch_id", id.String()), zap.Error(err))
		}
		return CommitOutcome{}, apperrors.ErrBatchExpired
	}

	incoming, err := batch.Dataset()
	if err != nil {
		return CommitOutcome{}, fmt.Errorf("decode batch %s: %w", id, err)
	}
	reviewed, err := batch.ReviewedKeys()
	if err != nil {
		return CommitOutcome{}, fmt.Errorf("decode batch %s: %w", id, err)
	}

	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return CommitOutcome{}, err
	}
	defer release()

	claimed, err := s.batches.Claim(ctx, id)
	if err != nil {
		return CommitOutcome{}, fmt.Errorf("claim batch %s: %w", id, err)
	}
	if !claimed {
		metrics.Decisions.WithLabelValues(string(decision), "duplicate").Inc()
		return CommitOutcome{}, fmt.Errorf("%w: batch %s was decided concurrently", apperrors.ErrBatchDecided, id)
	}
	batch.Status = models.BatchCommitting

	store, err := s.readStore(ctx)
	if err != nil {
		s.unclaim(ctx, batch)
		return CommitOutcome{}, err
	}
	result, err := matching.Reconcile(incoming, store, s.schema)
	if err != nil {
		s.unclaim(ctx, batch)
		return CommitOutcome{}, err
	}

	if !matching.SameKeys(reviewed, result.ConflictKeys) {
		s.logger.Warn("batch is stale",
			zap.String("batch_id", id.String()),
			zap.Strings("reviewed_conflicts", reviewed),
			zap.Strings("current_conflicts", result.ConflictKeys))
		batch.ConflictCount = result.ConflictCount
		batch.StoredMatchCount = result.StoredMatches.Len()
		if err := batch.SetConflictKeys(result.ConflictKeys); err != nil {
			s.logger.Error("failed to encode refreshed conflicts", zap.String("batch_id", id.String()), zap.Error(err))
		}
		s.unclaim(ctx, batch)
		metrics.Decisions.WithLabelValues(string(decision), "stale").Inc()
		return CommitOutcome{Decision: decision}, fmt.Errorf("%w: reviewed conflicts %v, now %v",
			apperrors.ErrStaleBatch, reviewed, result.ConflictKeys)
	}

	outcome, err := Commit(ctx, s.store, store.Header, incoming, result, decision)
	if errors.Is(err, apperrors.ErrDecisionMismatch) {
		s.unclaim(ctx, batch)
		metrics.Decisions.WithLabelValues(string(decision), "mismatch").Inc()
		return outcome, err
	}

	s.record(ctx, batch, result, outcome, operator, err)
	return outcome, err
}

// unclaim returns a claimed batch to pending.
func (s *ReconciliationService) unclaim(ctx context.Context, batch *models.PendingBatch) {
	batch.Status = models.BatchPending
	if err := s.batches.Save(ctx, batch); err != nil {
		s.logger.Error("failed to release batch", zap.String("batch_id", batch.ID.String()), zap.Error(err))
	}
}

// record persists the decision on the batch and in the audit log. The
// store has already been written at this point, so persistence failures
// are logged rather than returned; the batch then stays claimed and cannot
// be appended a second time.
func (s *ReconciliationService) record(ctx context.Context, batch *models.PendingBatch, result matching.Result, outcome CommitOutcome, operator string, commitErr error) {
	now := s.now()
	fields := []zap.Field{
		zap.String("batch_id", batch.ID.String()),
		zap.String("decision", string(outcome.Decision)),
		zap.String("operator", operator),
		zap.Int("rows", outcome.RowCount),
		zap.Int("conflicts", result.ConflictCount),
	}

	entry := &models.CommitAuditLog{
		ID:            uuid.New(),
		BatchID:       batch.ID,
		Decision:      string(outcome.Decision),
		Appended:      outcome.Appended,
		RowCount:      outcome.RowCount,
		ConflictCount: result.ConflictCount,
		PerformedBy:   operator,
		CreatedAt:     now,
	}

	switch {
	case commitErr != nil:
		// Back to pending so the operator can resubmit.
		batch.Status = models.BatchPending
		batch.LastError = commitErr.Error()
		entry.Error = commitErr.Error()
		metrics.Decisions.WithLabelValues(string(outcome.Decision), "store_error").Inc()
		metrics.StoreErrors.WithLabelValues("append_rows").Inc()
		s.logger.Error("commit failed", append(fields, zap.Error(commitErr))...)
	case outcome.Appended:
		batch.Status = models.BatchCommitted
		batch.Decision = string(outcome.Decision)
		batch.DecidedAt = &now
		batch.LastError = ""
		metrics.Decisions.WithLabelValues(string(outcome.Decision), "appended").Inc()
		metrics.AppendedRows.Add(float64(outcome.RowCount))
		if len(outcome.DroppedColumns) > 0 {
			s.logger.Warn("columns not in store header were not stored",
				append(fields, zap.Strings("dropped_columns", outcome.DroppedColumns))...)
		}
		s.logger.Info("batch committed", fields...)
	default:
		batch.Status = models.BatchAborted
		batch.Decision = string(outcome.Decision)
		batch.DecidedAt = &now
		metrics.Decisions.WithLabelValues(string(outcome.Decision), "declined").Inc()
		s.logger.Info("batch aborted", fields...)
	}

	if err := s.batches.Save(ctx, batch); err != nil {
		s.logger.Error("failed to save batch decision", append(fields, zap.Error(err))...)
	}
	if err := s.batches.RecordAudit(ctx, entry); err != nil {
		s.logger.Error("failed to write audit log", append(fields, zap.Error(err))...)
	}
}

// StoreView returns every row currently in the store.
func (s *ReconciliationService) StoreView(ctx context.Context) (models.Dataset, error) {
	return s.readStore(ctx)
}

// DeletePallet removes every stored row whose key equals pallet.
func (s *ReconciliationService) DeletePallet(ctx context.Context, pallet string) (int, error) {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	n, err := s.store.DeleteRows(ctx, s.schema.Key, pallet)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("delete_rows").Inc()
		return 0, apperrors.Write("delete_rows", err)
	}
	s.logger.Info("pallet deleted from store", zap.String("pallet", pallet), zap.Int("rows", n))
	return n, nil
}

// ListBatches returns the most recent batches with one of statuses, or of
// any status when statuses is empty.
func (s *ReconciliationService) ListBatches(ctx context.Context, statuses []models.BatchStatus, limit int) ([]models.PendingBatch, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.batches.ListByStatus(ctx, statuses, limit)
}

// AuditTrail returns every decision recorded against a batch.
func (s *ReconciliationService) AuditTrail(ctx context.Context, id uuid.UUID) ([]models.CommitAuditLog, error) {
	if _, err := s.batches.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.batches.AuditLog(ctx, id)
}

// ExpirePending marks pending batches past their expiry.
func (s *ReconciliationService) ExpirePending(ctx context.Context) (int64, error) {
	n, err := s.batches.ExpireBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired pending batches", zap.Int64("count", n))
	}
	return n, nil
}

func (s *ReconciliationService) readStore(ctx context.Context) (models.Dataset, error) {
	lines, err := s.store.ReadAll(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("read_all").Inc()
		s.logger.Error("store read failed", zap.Error(err))
		return models.Dataset{}, apperrors.Read("read_all", err)
	}
	return models.DatasetFromGrid(lines), nil
}
