// Package plot checks PLOT requests against a table and draws them as text
// charts.
package plot

import (
	"errors"
	"fmt"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/table"
)

var (
	ErrColumnCount = errors.New("wrong number of columns for plot")
	ErrColumnKind  = errors.New("wrong column kind for plot")
	ErrNoColumn    = errors.New("plot column not found")
)

// Renderer draws a validated plot request.
type Renderer interface {
	Render(t *table.Table, columns []string, kind ast.PlotKind) error
}

// Validate checks the column count and column kinds kind requires:
// HIST one numeric column, SCATTER two numeric columns, BOX one or more
// numeric columns, LINE one or two columns with a numeric last column, and
// BAR one text column.
func Validate(t *table.Table, columns []string, kind ast.PlotKind) error {
	cols := make([]*table.Column, len(columns))
	for i, name := range columns {
		c, ok := t.Column(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrNoColumn, name)
		}
		cols[i] = c
	}

	n := len(cols)
	switch kind {
	case ast.PlotHist:
		if n != 1 {
			return countError(kind, "exactly 1", n)
		}
		return requireNumeric(kind, cols...)
	case ast.PlotScatter:
		if n != 2 {
			return countError(kind, "exactly 2", n)
		}
		return requireNumeric(kind, cols...)
	case ast.PlotBox:
		if n < 1 {
			return countError(kind, "at least 1", n)
		}
		return requireNumeric(kind, cols...)
	case ast.PlotLine:
		if n != 1 && n != 2 {
			return countError(kind, "1 or 2", n)
		}
		return requireNumeric(kind, cols[n-1])
	case ast.PlotBar:
		if n != 1 {
			return countError(kind, "exactly 1", n)
		}
		if cols[0].IsNumeric() {
			return fmt.Errorf("%w: BAR needs a categorical column, %q is numeric", ErrColumnKind, cols[0].Name)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown plot kind %s", ErrColumnCount, kind)
	}
}

func countError(kind ast.PlotKind, want string, got int) error {
	return fmt.Errorf("%w: %s needs %s column(s), got %d", ErrColumnCount, kind, want, got)
}

func requireNumeric(kind ast.PlotKind, cols ...*table.Column) error {
	for _, c := range cols {
		if !c.IsNumeric() {
			return fmt.Errorf("%w: %s needs numeric columns, %q is text", ErrColumnKind, kind, c.Name)
		}
	}
	return nil
}
