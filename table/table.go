package table

import (
	"strconv"
	"strings"
)

// ValueType represents the type of a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeNumber
	TypeText
)

// Value is a single cell read out of, or written into, a column.
type Value struct {
	Type ValueType
	Num  float64
	Str  string
}

// Null returns a missing value.
func Null() Value {
	return Value{Type: TypeNull}
}

// NumVal creates a numeric value.
func NumVal(v float64) Value {
	return Value{Type: TypeNumber, Num: v}
}

// StrVal creates a text value.
func StrVal(v string) Value {
	return Value{Type: TypeText, Str: v}
}

// IsNull returns true if the value is missing.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// AsFloat returns the numeric payload, if any.
func (v Value) AsFloat() (float64, bool) {
	if v.Type == TypeNumber {
		return v.Num, true
	}
	return 0, false
}

// AsString returns the string representation.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeNumber:
		return FormatNumber(v.Num)
	case TypeText:
		return v.Str
	default:
		return "?"
	}
}

// Equal reports whether two values have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeNumber:
		return v.Num == o.Num
	case TypeText:
		return v.Str == o.Str
	}
	return true
}

// FormatNumber renders a float without exponent or trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseNumber parses s as a number, tolerating surrounding whitespace.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseValue interprets a raw literal: quoted text stays text (quotes
// stripped), anything that lexically looks numeric becomes a number.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if unq, ok := unquote(s); ok {
		return StrVal(unq)
	}
	if f, ok := ParseNumber(s); ok {
		return NumVal(f)
	}
	return StrVal(s)
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			return s[1 : len(s)-1], true
		}
	}
	return s, false
}

// Table is an ordered set of equally long columns plus a row-label index.
//
// Labels survive filtering and row drops so rows can be addressed by the
// position they had when the table was loaded.
type Table struct {
	Columns []*Column
	Index   []int
}

// NewTable creates a table from columns and assigns labels 0..n-1.
// All columns must have the same length.
func NewTable(cols ...*Column) *Table {
	n := 0
	if len(cols) > 0 {
		n = cols[0].Len()
	}
	return &Table{Columns: cols, Index: Sequence(n)}
}

// Sequence returns the labels 0..n-1.
func Sequence(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Index)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColIndex returns the index of a column by name, or -1.
func (t *Table) ColIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	idx := t.ColIndex(name)
	if idx < 0 {
		return nil, false
	}
	return t.Columns[idx], true
}

// RowOf returns the position of the row carrying label, or -1.
func (t *Table) RowOf(label int) int {
	for i, l := range t.Index {
		if l == label {
			return i
		}
	}
	return -1
}

// Get returns the value at a given row position and column name.
func (t *Table) Get(row int, col string) Value {
	c, ok := t.Column(col)
	if !ok || row < 0 || row >= t.NumRows() {
		return Null()
	}
	return c.Value(row)
}

// Take returns a new table holding the rows at the given positions, in that
// order, with their labels.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Take(rows)
	}
	idx := make([]int, len(rows))
	for i, r := range rows {
		idx[i] = t.Index[r]
	}
	return &Table{Columns: cols, Index: idx}
}

// Filter keeps the rows whose mask entry is true.
func (t *Table) Filter(mask []bool) *Table {
	var rows []int
	for i, keep := range mask {
		if keep {
			rows = append(rows, i)
		}
	}
	return t.Take(rows)
}

// Project returns a table with the given columns in the given order. The
// columns are copied, the labels kept. It reports the first unknown name.
func (t *Table) Project(names []string) (*Table, string) {
	cols := make([]*Column, len(names))
	for i, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, n
		}
		cols[i] = c.Clone()
	}
	idx := make([]int, len(t.Index))
	copy(idx, t.Index)
	return &Table{Columns: cols, Index: idx}, ""
}

// DropColumn removes a column by name and reports whether it existed.
func (t *Table) DropColumn(name string) bool {
	idx := t.ColIndex(name)
	if idx < 0 {
		return false
	}
	t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
	return true
}

// Clone creates a deep copy of the table.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Clone()
	}
	idx := make([]int, len(t.Index))
	copy(idx, t.Index)
	return &Table{Columns: cols, Index: idx}
}

// Equal reports whether two tables have the same columns, kinds, values and
// labels.
func (t *Table) Equal(o *Table) bool {
	if len(t.Columns) != len(o.Columns) || len(t.Index) != len(o.Index) {
		return false
	}
	for i := range t.Index {
		if t.Index[i] != o.Index[i] {
			return false
		}
	}
	for i, c := range t.Columns {
		oc := o.Columns[i]
		if c.Name != oc.Name || c.Kind != oc.Kind {
			return false
		}
		for r := 0; r < c.Len(); r++ {
			if !c.Value(r).Equal(oc.Value(r)) {
				return false
			}
		}
	}
	return true
}

// String returns a compact representation of the table.
func (t *Table) String() string {
	if t.NumRows() == 0 {
		return "[" + strings.Join(t.ColumnNames(), ", ") + "] (0 rows)"
	}

	var sb strings.Builder
	sb.WriteString("[ ")
	for r := 0; r < t.NumRows(); r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, c := range t.Columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c.Name)
			sb.WriteString(":")
			sb.WriteString(c.Value(r).AsString())
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}
