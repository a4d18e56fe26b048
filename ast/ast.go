package ast

import (
	"strconv"
	"strings"
)

// Statement is one top-level command: load, select, a clean variant or plot.
type Statement interface {
	stmtNode()
}

// LoadStmt binds the table read from Path under Table.
type LoadStmt struct {
	Path  string
	Table string
}

func (s *LoadStmt) stmtNode() {}

// SelectItem is one entry of a select list: a column or an aggregate.
type SelectItem interface {
	selectItem()
}

// ColumnRef references a column by name.
type ColumnRef struct {
	Name string
}

func (c *ColumnRef) selectItem() {}

// Wildcard is the "*" aggregate target.
const Wildcard = "*"

// AggFunc is an aggregate function.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

var aggNames = map[AggFunc]string{
	AggCount: "COUNT", AggSum: "SUM", AggAvg: "AVG", AggMin: "MIN", AggMax: "MAX",
}

func (f AggFunc) String() string {
	if s, ok := aggNames[f]; ok {
		return s
	}
	return "AggFunc(" + strconv.Itoa(int(f)) + ")"
}

// ParseAggFunc resolves a case-insensitive aggregate name.
func ParseAggFunc(name string) (AggFunc, bool) {
	for f, s := range aggNames {
		if strings.EqualFold(s, name) {
			return f, true
		}
	}
	return 0, false
}

// AggregateCall is FUNC(column) or COUNT(*).
type AggregateCall struct {
	Func   AggFunc
	Column string // Wildcard for "*"
}

func (a *AggregateCall) selectItem() {}

// OutputName is the result column name: "count" for COUNT(*), otherwise
// "<func>_<column>" with the function in lower case.
func (a *AggregateCall) OutputName() string {
	if a.Func == AggCount && a.Column == Wildcard {
		return "count"
	}
	return strings.ToLower(a.Func.String()) + "_" + a.Column
}

// OrderKey is one ORDER BY column.
type OrderKey struct {
	Column string
	Desc   bool
}

// SelectStmt is a query over one table.
type SelectStmt struct {
	Star    bool
	Items   []SelectItem
	From    string
	Where   Condition // nil if absent
	GroupBy []string
	OrderBy []OrderKey
	Into    string // AS alias, empty if absent
}

func (s *SelectStmt) stmtNode() {}

// PlotKind is the chart requested by PLOT.
type PlotKind int

const (
	PlotHist PlotKind = iota
	PlotScatter
	PlotBox
	PlotLine
	PlotBar
)

var plotNames = map[PlotKind]string{
	PlotHist: "HIST", PlotScatter: "SCATTER", PlotBox: "BOX", PlotLine: "LINE", PlotBar: "BAR",
}

func (k PlotKind) String() string {
	if s, ok := plotNames[k]; ok {
		return s
	}
	return "PlotKind(" + strconv.Itoa(int(k)) + ")"
}

// ParsePlotKind resolves a case-insensitive chart name. HISTOGRAM is
// accepted for HIST.
func ParsePlotKind(name string) (PlotKind, bool) {
	if strings.EqualFold(name, "HISTOGRAM") {
		return PlotHist, true
	}
	for k, s := range plotNames {
		if strings.EqualFold(s, name) {
			return k, true
		}
	}
	return 0, false
}

// PlotStmt hands columns of a table to the renderer.
type PlotStmt struct {
	Columns []string
	Table   string
	Kind    PlotKind
}

func (s *PlotStmt) stmtNode() {}
