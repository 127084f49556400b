package models

// Row is one picking entry laid out positionally along the header of the
// Dataset that owns it.
type Row []string

// Dataset is a header plus the rows that share it. Cells are kept in
// header position, so repeated or blank header names never collapse.
type Dataset struct {
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

func NewDataset(header []string) Dataset {
	h := make([]string, len(header))
	copy(h, header)
	return Dataset{Header: h, Rows: []Row{}}
}

// DatasetFromGrid treats the first line of grid as the header. Short lines
// are padded with empty cells and cells past the header width are dropped.
func DatasetFromGrid(grid [][]string) Dataset {
	if len(grid) == 0 {
		return NewDataset(nil)
	}

	ds := NewDataset(grid[0])
	for _, line := range grid[1:] {
		row := make(Row, len(ds.Header))
		copy(row, line)
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func (d Dataset) Len() int {
	return len(d.Rows)
}

func (d Dataset) IsEmpty() bool {
	return len(d.Rows) == 0
}

// Index returns the position of the first column called name, or -1.
func (d Dataset) Index(name string) int {
	for i, h := range d.Header {
		if h == name {
			return i
		}
	}
	return -1
}

func (d Dataset) HasColumn(name string) bool {
	return d.Index(name) >= 0
}

// Get returns the cell of r under the first column called name.
func (d Dataset) Get(r Row, name string) string {
	if i := d.Index(name); i >= 0 && i < len(r) {
		return r[i]
	}
	return ""
}

// Column returns every value of name, in row order.
func (d Dataset) Column(name string) []string {
	idx := d.Index(name)
	values := make([]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		v := ""
		if idx >= 0 && idx < len(r) {
			v = r[idx]
		}
		values = append(values, v)
	}
	return values
}

// Append adds a copy of r, padded or cut to the header width.
func (d *Dataset) Append(r Row) {
	row := make(Row, len(d.Header))
	copy(row, r)
	d.Rows = append(d.Rows, row)
}

// Values returns the rows positionally, following the dataset's own header.
func (d Dataset) Values() [][]string {
	out := make([][]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}

// AlignTo lays rows out positionally along header. The n-th column of a
// given name in header takes the n-th column of that name here; columns
// the dataset does not have come out as empty cells.
func (d Dataset) AlignTo(header []string) [][]string {
	src := d.positions(header)
	out := make([][]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		line := make([]string, len(header))
		for i, j := range src {
			if j >= 0 && j < len(r) {
				line[i] = r[j]
			}
		}
		out = append(out, line)
	}
	return out
}

// Grid is the header followed by Values.
func (d Dataset) Grid() [][]string {
	grid := make([][]string, 0, len(d.Rows)+1)
	grid = append(grid, append([]string(nil), d.Header...))
	return append(grid, d.Values()...)
}

// Project keeps only cols, in the order given.
func (d Dataset) Project(cols []string) Dataset {
	out := NewDataset(cols)
	for _, line := range d.AlignTo(cols) {
		out.Rows = append(out.Rows, line)
	}
	return out
}

// positions maps every column of header to its source index in d,
// matching repeated names by occurrence.
func (d Dataset) positions(header []string) []int {
	seen := make(map[string][]int, len(d.Header))
	for i, h := range d.Header {
		seen[h] = append(seen[h], i)
	}
	used := make(map[string]int, len(header))
	src := make([]int, len(header))
	for i, h := range header {
		n := used[h]
		used[h] = n + 1
		if n < len(seen[h]) {
			src[i] = seen[h][n]
		} else {
			src[i] = -1
		}
	}
	return src
}
