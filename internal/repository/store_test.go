package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/testutil"
)

var header = []string{"Pallet", "Actual Qty", "Uom", "Load Id"}

// storeContract exercises behavior every Store backend must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty store reads nothing", func(t *testing.T) {
		s := newStore(t)
		lines, err := s.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("append keeps order", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AppendRows(ctx, [][]string{header}))
		require.NoError(t, s.AppendRows(ctx, [][]string{
			{"A1", "10", "EA", "L1"},
			{"A2", "5", "CS", "L1"},
		}))
		require.NoError(t, s.AppendRows(ctx, nil))

		lines, err := s.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			header,
			{"A1", "10", "EA", "L1"},
			{"A2", "5", "CS", "L1"},
		}, lines)
	})

	t.Run("delete removes every match", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AppendRows(ctx, [][]string{
			header,
			{"A1", "10", "EA", "L1"},
			{"A2", "5", "CS", "L1"},
			{"A1", "3", "EA", "L2"},
		}))

		n, err := s.DeleteRows(ctx, "Pallet", "A1")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		lines, err := s.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, [][]string{header, {"A2", "5", "CS", "L1"}}, lines)

		_, err = s.DeleteRows(ctx, "Nope", "A1")
		assert.Error(t, err)
	})

	t.Run("snapshot names are unique", func(t *testing.T) {
		s := newStore(t)
		grid := [][]string{header, {"A1", "10", "EA", "L1"}}
		require.NoError(t, s.CreateSnapshot(ctx, "Backup_2026-10-14_09-00", grid))

		err := s.CreateSnapshot(ctx, "Backup_2026-10-14_09-00", grid)
		assert.ErrorIs(t, err, apperrors.ErrSnapshotExists)

		got, err := s.Snapshot(ctx, "Backup_2026-10-14_09-00")
		require.NoError(t, err)
		assert.Equal(t, grid, got)

		_, err = s.Snapshot(ctx, "Backup_missing")
		assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
	})

	t.Run("snapshots are listed by name", func(t *testing.T) {
		s := newStore(t)
		names, err := s.Snapshots(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		grid := [][]string{header}
		require.NoError(t, s.CreateSnapshot(ctx, "Backup_2026-10-14_09-00", grid))
		require.NoError(t, s.CreateSnapshot(ctx, "Backup_2026-10-13_09-00", grid))

		names, err = s.Snapshots(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Backup_2026-10-13_09-00", "Backup_2026-10-14_09-00"}, names)
	})

	t.Run("clear then header", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AppendRows(ctx, [][]string{header, {"A1", "10", "EA", "L1"}}))
		require.NoError(t, s.Clear(ctx))
		require.NoError(t, s.AppendRows(ctx, [][]string{header}))

		lines, err := s.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, [][]string{header}, lines)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestPostgresStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewPostgresStore(testutil.NewTestDB(t)) })
}

func TestMemoryStore_ReadReturnsCopy(t *testing.T) {
	s := NewMemoryStore(header, []string{"A1", "10", "EA", "L1"})

	lines, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	lines[1][0] = "mutated"

	again, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A1", again[1][0])
}

func TestPostgresStore_SnapshotVerbatim(t *testing.T) {
	ctx := context.Background()
	s := NewPostgresStore(testutil.NewTestDB(t))
	grid := [][]string{header, {"A1", "", "EA", "L1"}, {"A2"}}

	require.NoError(t, s.CreateSnapshot(ctx, "Backup_x", grid))
	got, err := s.Snapshot(ctx, "Backup_x")
	require.NoError(t, err)
	assert.Equal(t, grid, got)
}

func TestA1QuotesTitles(t *testing.T) {
	assert.Equal(t, "'Sheet1'", a1("Sheet1"))
	assert.Equal(t, "'Bob''s sheet'", a1("Bob's sheet"))
}

func TestSheetValuesConversion(t *testing.T) {
	rows := [][]string{{"Pallet", "Uom"}, {"A1", "EA"}}
	assert.Equal(t, rows, fromValues(toValues(rows)))
	assert.Equal(t, [][]string{{"12", "true"}}, fromValues([][]interface{}{{12, true}}))
}
