package loader

import (
	"github.com/razeghi71/tabql/table"
)

// builder accumulates cells row by row. Columns may appear mid-stream, in
// which case earlier rows are missing in them.
type builder struct {
	names []string
	index map[string]int
	cells [][]table.Value
	rows  int
	// raw is set for text sources: every cell is a string whose kind is
	// decided per column at build time.
	raw bool
}

func newBuilder(raw bool) *builder {
	return &builder{index: make(map[string]int), raw: raw}
}

// column returns the position of name, adding the column if needed.
func (b *builder) column(name string) int {
	if i, ok := b.index[name]; ok {
		return i
	}
	i := len(b.names)
	b.names = append(b.names, name)
	b.index[name] = i
	cells := make([]table.Value, b.rows)
	for r := range cells {
		cells[r] = table.Null()
	}
	b.cells = append(b.cells, cells)
	return i
}

func (b *builder) startRow() {
	for i := range b.cells {
		b.cells[i] = append(b.cells[i], table.Null())
	}
	b.rows++
}

func (b *builder) set(col int, v table.Value) {
	b.cells[col][b.rows-1] = v
}

func (b *builder) build() *table.Table {
	cols := make([]*table.Column, len(b.names))
	for i, name := range b.names {
		if b.raw {
			cols[i] = inferColumn(name, b.cells[i])
		} else {
			cols[i] = table.FromValues(name, b.cells[i])
		}
	}
	return table.NewTable(cols...)
}

// inferColumn makes a Number column when every present cell parses as a
// number, and a Text column keeping the raw strings otherwise.
func inferColumn(name string, cells []table.Value) *table.Column {
	nums := make([]float64, len(cells))
	numeric := true
	for i, v := range cells {
		if v.IsNull() {
			continue
		}
		f, ok := table.ParseNumber(v.Str)
		if !ok {
			numeric = false
			break
		}
		nums[i] = f
	}

	var c *table.Column
	if numeric {
		c = table.Numbers(name, nums...)
	} else {
		strs := make([]string, len(cells))
		for i, v := range cells {
			strs[i] = v.Str
		}
		c = table.Texts(name, strs...)
	}
	for i, v := range cells {
		c.Missing[i] = v.IsNull()
	}
	return c
}
