package repository

import "context"

// Store is the system of record for accepted picking rows. It is a plain
// ordered table: the first line returned by ReadAll is the header.
type Store interface {
	ReadAll(ctx context.Context) ([][]string, error)
	AppendRows(ctx context.Context, rows [][]string) error
	// DeleteRows removes every data line whose cell under column equals
	// value and reports how many were removed.
	DeleteRows(ctx context.Context, column, value string) (int, error)
	// CreateSnapshot writes rows verbatim into a new container called name.
	// It returns apperrors.ErrSnapshotExists when name is taken.
	CreateSnapshot(ctx context.Context, name string, rows [][]string) error
	// Snapshot reads a snapshot back. It returns
	// apperrors.ErrSnapshotNotFound when name does not exist.
	Snapshot(ctx context.Context, name string) ([][]string, error)
	// Snapshots lists snapshot names in ascending order.
	Snapshots(ctx context.Context) ([]string, error)
	// Clear removes every line, header included.
	Clear(ctx context.Context) error
}

func columnIndex(header []string, column string) int {
	for i, h := range header {
		if h == column {
			return i
		}
	}
	return -1
}

func cell(line []string, i int) string {
	if i < len(line) {
		return line[i]
	}
	return ""
}

func copyGrid(grid [][]string) [][]string {
	out := make([][]string, len(grid))
	for i, line := range grid {
		out[i] = append([]string(nil), line...)
	}
	return out
}
