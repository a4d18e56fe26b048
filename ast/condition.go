package ast

import (
	"strconv"
	"strings"
)

// Condition is a node of a row filter.
type Condition interface {
	condNode()
}

// CompareOp is a comparison operator.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNeq
	OpLt
	OpGt
	OpLte
	OpGte
)

var opNames = map[CompareOp]string{
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpGt: ">", OpLte: "<=", OpGte: ">=",
}

func (o CompareOp) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "CompareOp(" + strconv.Itoa(int(o)) + ")"
}

// Ordering reports whether the operator needs ordered operands.
func (o CompareOp) Ordering() bool {
	return o != OpEq && o != OpNeq
}

// Literal is the right-hand side of a comparison.
type Literal struct {
	IsNumber bool
	Num      float64
	Text     string
}

// NumberLit creates a numeric literal.
func NumberLit(f float64) Literal {
	return Literal{IsNumber: true, Num: f}
}

// TextLit creates a text literal.
func TextLit(s string) Literal {
	return Literal{Text: s}
}

// BareLit interprets an unquoted token: a number if it parses as one,
// text otherwise.
func BareLit(s string) Literal {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return NumberLit(f)
	}
	return TextLit(s)
}

// String renders the literal as text; numbers use their shortest form.
func (l Literal) String() string {
	if l.IsNumber {
		return strconv.FormatFloat(l.Num, 'f', -1, 64)
	}
	return l.Text
}

// Comparison is "column op literal".
type Comparison struct {
	Column string
	Op     CompareOp
	Value  Literal
}

func (c *Comparison) condNode() {}

// And is the conjunction of two conditions.
type And struct {
	Left  Condition
	Right Condition
}

func (c *And) condNode() {}

// Or is the disjunction of two conditions.
type Or struct {
	Left  Condition
	Right Condition
}

func (c *Or) condNode() {}

// Not negates a condition.
type Not struct {
	Inner Condition
}

func (c *Not) condNode() {}

// Group is a parenthesized condition.
type Group struct {
	Inner Condition
}

func (c *Group) condNode() {}
