package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetFromGrid_PadsShortRowsAndDropsExtraCells(t *testing.T) {
	ds := DatasetFromGrid([][]string{
		{"Pallet", "Uom"},
		{"A1"},
		{"A2", "EA", "stray"},
	})

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"Pallet", "Uom"}, ds.Header)
	assert.Equal(t, Row{"A1", ""}, ds.Rows[0])
	assert.Equal(t, Row{"A2", "EA"}, ds.Rows[1])
}

func TestDatasetFromGrid_KeepsRepeatedAndBlankColumns(t *testing.T) {
	grid := [][]string{
		{"Pallet", "Qty", "Qty", "", ""},
		{"A1", "1", "2", "x", "y"},
	}
	ds := DatasetFromGrid(grid)

	assert.Equal(t, [][]string{{"A1", "1", "2", "x", "y"}}, ds.Values())
	assert.Equal(t, grid, ds.Grid())
	assert.Equal(t, []string{"1"}, ds.Column("Qty"))
	assert.Equal(t, "1", ds.Get(ds.Rows[0], "Qty"))

	// Repeated names are matched by occurrence when aligning.
	aligned := ds.AlignTo([]string{"Qty", "Pallet", "Qty", "Qty"})
	assert.Equal(t, [][]string{{"1", "A1", "2", ""}}, aligned)
	assert.Equal(t, [][]string{{"A1", "1", "2", "x", "y"}}, ds.AlignTo(ds.Header))
}

func TestDatasetFromGrid_Empty(t *testing.T) {
	ds := DatasetFromGrid(nil)
	assert.True(t, ds.IsEmpty())
	assert.Empty(t, ds.Header)
}

func TestDataset_AlignToFollowsTargetHeader(t *testing.T) {
	ds := DatasetFromGrid([][]string{
		{"Uom", "Pallet"},
		{"EA", "A1"},
	})

	aligned := ds.AlignTo([]string{"Pallet", "Load Id", "Uom"})
	assert.Equal(t, [][]string{{"A1", "", "EA"}}, aligned)
}

func TestDataset_GridRoundTrip(t *testing.T) {
	grid := [][]string{
		{"Pallet", "Actual Qty", "Uom", "Load Id"},
		{"A1", "10", "EA", "L1"},
		{"A2", "4", "CS", "L1"},
	}
	assert.Equal(t, grid, DatasetFromGrid(grid).Grid())
}

func TestDataset_ProjectKeepsOrder(t *testing.T) {
	ds := DatasetFromGrid([][]string{
		{"Load Id", "Pallet", "Extra"},
		{"L1", "A1", "x"},
	})

	p := ds.Project([]string{"Pallet", "Load Id"})
	assert.Equal(t, []string{"Pallet", "Load Id"}, p.Header)
	assert.Equal(t, [][]string{{"A1", "L1"}}, p.Values())
}

func TestSchema_MissingAndDisplay(t *testing.T) {
	assert.Equal(t, []string{ColumnPallet}, PickingSchema.Missing([]string{"pallet", "Uom"}))
	assert.Empty(t, PickingSchema.Missing([]string{"Uom", "Pallet"}))

	cols := PickingSchema.DisplayColumns([]string{"Load Id", "Other", "Pallet"})
	assert.Equal(t, []string{ColumnPallet, ColumnLoadID}, cols)
}

func TestPendingBatch_DatasetRoundTrip(t *testing.T) {
	ds := DatasetFromGrid([][]string{
		{"Pallet", "Uom"},
		{"A1", "EA"},
		{"A1", "CS"},
	})

	var b PendingBatch
	require.NoError(t, b.SetDataset(ds))
	assert.Equal(t, 2, b.RowCount)

	got, err := b.Dataset()
	require.NoError(t, err)
	assert.Equal(t, ds.Grid(), got.Grid())
}
