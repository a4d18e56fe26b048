package ast

// CleanCommand is a statement that rewrites one stored table in place.
type CleanCommand interface {
	Statement
	TableName() string
	cleanNode()
}

// FillMethod selects how FILL NA computes the replacement.
type FillMethod int

const (
	FillMean FillMethod = iota
	FillMedian
	FillMode
	FillValue
)

// FillNaStmt replaces missing cells of Column.
type FillNaStmt struct {
	Table  string
	Column string
	Method FillMethod
	Value  Literal // used by FillValue
}

// Axis selects the unit DROP NA removes.
type Axis int

const (
	AxisRows Axis = iota
	AxisColumns
)

// How selects whether one or all missing cells trigger a drop.
type How int

const (
	HowAny How = iota
	HowAll
)

// DropNaStmt drops rows or columns holding missing cells.
type DropNaStmt struct {
	Table   string
	Axis    Axis
	How     How
	Columns []string // empty means all columns
}

// RemoveStringsStmt coerces columns to numbers and drops rows that did not
// convert.
type RemoveStringsStmt struct {
	Table   string
	Columns []string // empty means every numeric column
}

// RemoveNumbersStmt drops rows whose cell in a text column is numeric.
type RemoveNumbersStmt struct {
	Table   string
	Columns []string // empty means every text column
}

// DropStmt drops one row (by label) or one column.
type DropStmt struct {
	Table  string
	Column string // set when dropping a column
	Row    int    // row label, used when Column is empty
}

// ReplaceCellStmt overwrites one cell. Raw is parsed as a number when it
// looks numeric, otherwise as text with quotes stripped.
type ReplaceCellStmt struct {
	Table  string
	Row    int
	Column string
	Raw    string
}

// OutlierMethod selects the outlier rule.
type OutlierMethod int

const (
	OutlierIQR OutlierMethod = iota
	OutlierZScore
)

// Default thresholds used when FILTER OUTLIERS gives none.
const (
	DefaultIQRThreshold    = 1.5
	DefaultZScoreThreshold = 3.0
)

// FilterOutliersStmt keeps only rows whose Column value is not an outlier.
type FilterOutliersStmt struct {
	Table     string
	Column    string
	Method    OutlierMethod
	Threshold float64

	// HasThreshold is false when no threshold was given and the method
	// default applies.
	HasThreshold bool
}

// NormMethod selects the rescaling rule.
type NormMethod int

const (
	NormMinMax NormMethod = iota
	NormZScore
)

// NormalizeStmt rescales Column in place.
type NormalizeStmt struct {
	Table  string
	Column string
	Method NormMethod
}

func (s *FillNaStmt) stmtNode()         {}
func (s *DropNaStmt) stmtNode()         {}
func (s *RemoveStringsStmt) stmtNode()  {}
func (s *RemoveNumbersStmt) stmtNode()  {}
func (s *DropStmt) stmtNode()           {}
func (s *ReplaceCellStmt) stmtNode()    {}
func (s *FilterOutliersStmt) stmtNode() {}
func (s *NormalizeStmt) stmtNode()      {}

func (s *FillNaStmt) cleanNode()         {}
func (s *DropNaStmt) cleanNode()         {}
func (s *RemoveStringsStmt) cleanNode()  {}
func (s *RemoveNumbersStmt) cleanNode()  {}
func (s *DropStmt) cleanNode()           {}
func (s *ReplaceCellStmt) cleanNode()    {}
func (s *FilterOutliersStmt) cleanNode() {}
func (s *NormalizeStmt) cleanNode()      {}

func (s *FillNaStmt) TableName() string         { return s.Table }
func (s *DropNaStmt) TableName() string         { return s.Table }
func (s *RemoveStringsStmt) TableName() string  { return s.Table }
func (s *RemoveNumbersStmt) TableName() string  { return s.Table }
func (s *DropStmt) TableName() string           { return s.Table }
func (s *ReplaceCellStmt) TableName() string    { return s.Table }
func (s *FilterOutliersStmt) TableName() string { return s.Table }
func (s *NormalizeStmt) TableName() string      { return s.Table }
