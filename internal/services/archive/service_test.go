package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/lock"
	"picking-verification-backend/internal/repository"
)

var header = []string{"Pallet", "Actual Qty", "Uom", "Load Id"}

type brokenStore struct {
	*repository.MemoryStore
	snapshotErr error
	clearErr    error
}

func (b *brokenStore) CreateSnapshot(ctx context.Context, name string, rows [][]string) error {
	if b.snapshotErr != nil {
		return b.snapshotErr
	}
	return b.MemoryStore.CreateSnapshot(ctx, name, rows)
}

func (b *brokenStore) Clear(ctx context.Context) error {
	if b.clearErr != nil {
		return b.clearErr
	}
	return b.MemoryStore.Clear(ctx)
}

func newService(store repository.Store) *ArchiveService {
	svc := NewArchiveService(store, lock.NewMemory(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 5, 7, 9, 42, 0, time.Local) }
	return svc
}

func threeRows() [][]string {
	return [][]string{
		header,
		{"A1", "1", "EA", "L1"},
		{"A2", "2", "EA", "L1"},
		{"A3", "3", "CS", "L2"},
	}
}

func TestSnapshotName(t *testing.T) {
	at := time.Date(2026, 11, 30, 23, 5, 59, 0, time.Local)
	assert.Equal(t, "Backup_2026-11-30_23-05", SnapshotName(at))
}

func TestArchiveAndReset(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(threeRows()...)

	out, err := newService(store).ArchiveAndReset(ctx)
	require.NoError(t, err)
	assert.Equal(t, ArchiveOutcome{Archived: true, SnapshotName: "Backup_2026-03-05_07-09", RowCount: 3}, out)

	snap, err := store.Snapshot(ctx, out.SnapshotName)
	require.NoError(t, err)
	assert.Equal(t, threeRows(), snap)

	live, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{header}, live)
}

func TestArchiveAndReset_EmptyStore(t *testing.T) {
	for name, store := range map[string]*repository.MemoryStore{
		"nothing":     repository.NewMemoryStore(),
		"header only": repository.NewMemoryStore(header),
	} {
		t.Run(name, func(t *testing.T) {
			out, err := newService(store).ArchiveAndReset(context.Background())
			require.NoError(t, err)
			assert.False(t, out.Archived)
			assert.Equal(t, "empty", out.Reason)
			names, err := store.Snapshots(context.Background())
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestArchiveAndReset_SnapshotFailureLeavesStore(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{
		MemoryStore: repository.NewMemoryStore(threeRows()...),
		snapshotErr: errors.New("permission denied"),
	}

	_, err := newService(store).ArchiveAndReset(ctx)
	var writeErr *apperrors.StoreWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "create_snapshot", writeErr.Op)

	live, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, threeRows(), live)
}

func TestArchiveAndReset_SnapshotNameTaken(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(threeRows()...)
	require.NoError(t, store.CreateSnapshot(ctx, "Backup_2026-03-05_07-09", nil))

	_, err := newService(store).ArchiveAndReset(ctx)
	assert.ErrorIs(t, err, apperrors.ErrSnapshotExists)

	live, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 4)
}

func TestArchiveAndReset_PartialThenResume(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{
		MemoryStore: repository.NewMemoryStore(threeRows()...),
		clearErr:    errors.New("rate limited"),
	}
	svc := newService(store)

	_, err := svc.ArchiveAndReset(ctx)
	var partial *apperrors.PartialArchiveError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "Backup_2026-03-05_07-09", partial.SnapshotName)
	assert.Equal(t, 3, partial.RowCount)

	snap, err := store.Snapshot(ctx, partial.SnapshotName)
	require.NoError(t, err)
	assert.Equal(t, threeRows(), snap)

	store.clearErr = nil
	out, err := svc.ResumeReset(ctx, partial.SnapshotName)
	require.NoError(t, err)
	assert.True(t, out.Archived)
	assert.Equal(t, 3, out.RowCount)

	live, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{header}, live)
	names, err := store.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestResumeReset_RefusesChangedStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(threeRows()...)
	require.NoError(t, store.CreateSnapshot(ctx, "Backup_2026-03-05_07-09", threeRows()))
	require.NoError(t, store.AppendRows(ctx, [][]string{{"B1", "1", "EA", "L3"}}))

	_, err := newService(store).ResumeReset(ctx, "Backup_2026-03-05_07-09")
	assert.ErrorIs(t, err, apperrors.ErrSnapshotMismatch)

	live, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 5)
}

func TestResumeReset_AfterHalfFinishedClear(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateSnapshot(ctx, "Backup_2026-03-05_07-09", threeRows()))

	out, err := newService(store).ResumeReset(ctx, "Backup_2026-03-05_07-09")
	require.NoError(t, err)
	assert.Equal(t, 3, out.RowCount)

	live, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{header}, live)
}

func TestResumeReset_UnknownSnapshot(t *testing.T) {
	_, err := newService(repository.NewMemoryStore(header)).ResumeReset(context.Background(), "Backup_missing")
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
}

func TestSameGridIgnoresTrailingBlanks(t *testing.T) {
	assert.True(t, sameGrid([][]string{{"a", "", ""}}, [][]string{{"a"}}))
	assert.False(t, sameGrid([][]string{{"a", "b"}}, [][]string{{"a"}}))
	assert.False(t, sameGrid([][]string{{"a"}}, [][]string{{"a"}, {"b"}}))
}

func TestSnapshotsListsArchives(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(threeRows()...)
	svc := newService(store)

	_, err := svc.ArchiveAndReset(ctx)
	require.NoError(t, err)

	names, err := svc.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Backup_2026-03-05_07-09"}, names)
}
