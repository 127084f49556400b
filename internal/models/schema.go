package models

const (
	ColumnPallet    = "Pallet"
	ColumnActualQty = "Actual Qty"
	ColumnUom       = "Uom"
	ColumnLoadID    = "Load Id"
)

// Schema describes the columns a picking sheet is expected to carry.
// Key is the dedup column; Display is the order columns are shown to the
// operator when conflicts are found.
type Schema struct {
	Key      string
	Required []string
	Display  []string
}

var PickingSchema = Schema{
	Key:      ColumnPallet,
	Required: []string{ColumnPallet},
	Display:  []string{ColumnPallet, ColumnActualQty, ColumnUom, ColumnLoadID},
}

// Missing returns the required columns absent from header, in schema order.
func (s Schema) Missing(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}

	var missing []string
	for _, col := range s.Required {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// DisplayColumns returns the display columns that header actually has.
func (s Schema) DisplayColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}

	cols := make([]string, 0, len(s.Display))
	for _, col := range s.Display {
		if _, ok := present[col]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}
