package table

// Kind is the declared type of every cell in a column.
type Kind int

const (
	KindNumber Kind = iota
	KindText
)

func (k Kind) String() string {
	if k == KindNumber {
		return "number"
	}
	return "text"
}

// Column is a homogeneous array of numbers or strings with a parallel
// missing bitmap. Only the slice matching Kind is populated.
type Column struct {
	Name    string
	Kind    Kind
	Nums    []float64
	Strs    []string
	Missing []bool
}

// Numbers builds a numeric column with no missing cells.
func Numbers(name string, vals ...float64) *Column {
	nums := make([]float64, len(vals))
	copy(nums, vals)
	return &Column{Name: name, Kind: KindNumber, Nums: nums, Missing: make([]bool, len(vals))}
}

// Texts builds a text column with no missing cells.
func Texts(name string, vals ...string) *Column {
	strs := make([]string, len(vals))
	copy(strs, vals)
	return &Column{Name: name, Kind: KindText, Strs: strs, Missing: make([]bool, len(vals))}
}

// FromValues builds a column from loose values. The column is numeric when
// every non-missing value is a number, otherwise numbers are kept as their
// text form.
func FromValues(name string, vals []Value) *Column {
	kind := KindNumber
	for _, v := range vals {
		if v.Type == TypeText {
			kind = KindText
			break
		}
	}
	c := &Column{Name: name, Kind: kind, Missing: make([]bool, len(vals))}
	if kind == KindNumber {
		c.Nums = make([]float64, len(vals))
	} else {
		c.Strs = make([]string, len(vals))
	}
	for i, v := range vals {
		c.put(i, v)
	}
	return c
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.Missing)
}

// IsNumeric reports whether the column holds numbers.
func (c *Column) IsNumeric() bool {
	return c.Kind == KindNumber
}

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool {
	return c.Missing[i]
}

// Value returns cell i.
func (c *Column) Value(i int) Value {
	if c.Missing[i] {
		return Null()
	}
	if c.Kind == KindNumber {
		return NumVal(c.Nums[i])
	}
	return StrVal(c.Strs[i])
}

// Set writes cell i. Writing text into a numeric column turns the whole
// column into text; numbers written into a text column keep their text form.
func (c *Column) Set(i int, v Value) {
	if v.Type == TypeText && c.Kind == KindNumber {
		c.toText()
	}
	c.put(i, v)
}

func (c *Column) put(i int, v Value) {
	switch v.Type {
	case TypeNull:
		c.Missing[i] = true
		if c.Kind == KindNumber {
			c.Nums[i] = 0
		} else {
			c.Strs[i] = ""
		}
	case TypeNumber:
		c.Missing[i] = false
		if c.Kind == KindNumber {
			c.Nums[i] = v.Num
		} else {
			c.Strs[i] = FormatNumber(v.Num)
		}
	case TypeText:
		c.Missing[i] = false
		c.Strs[i] = v.Str
	}
}

func (c *Column) toText() {
	strs := make([]string, len(c.Nums))
	for i, f := range c.Nums {
		if !c.Missing[i] {
			strs[i] = FormatNumber(f)
		}
	}
	c.Kind = KindText
	c.Strs = strs
	c.Nums = nil
}

// Floats returns the non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	if c.Kind != KindNumber {
		return nil
	}
	out := make([]float64, 0, len(c.Nums))
	for i, f := range c.Nums {
		if !c.Missing[i] {
			out = append(out, f)
		}
	}
	return out
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Take returns a new column with the cells at the given positions.
func (c *Column) Take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Missing: make([]bool, len(rows))}
	if c.Kind == KindNumber {
		out.Nums = make([]float64, len(rows))
	} else {
		out.Strs = make([]string, len(rows))
	}
	for i, r := range rows {
		out.Missing[i] = c.Missing[r]
		if c.Kind == KindNumber {
			out.Nums[i] = c.Nums[r]
		} else {
			out.Strs[i] = c.Strs[r]
		}
	}
	return out
}

// Clone creates a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	out.Missing = append([]bool(nil), c.Missing...)
	if c.Nums != nil {
		out.Nums = append([]float64(nil), c.Nums...)
	}
	if c.Strs != nil {
		out.Strs = append([]string(nil), c.Strs...)
	}
	return out
}
