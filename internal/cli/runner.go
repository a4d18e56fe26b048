package cli

import (
	"fmt"
	"io"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/engine"
	"github.com/razeghi71/tabql/internal/output"
	"github.com/razeghi71/tabql/table"
)

// Runner executes statements against a session and reports each result.
type Runner struct {
	Session *engine.Session
	Out     io.Writer
	MaxRows int
}

// Run executes input as a script, printing each result as it completes and
// stopping at the first failure.
func (r *Runner) Run(input string) error {
	_, err := r.Session.ExecuteScript(input, r.report)
	return err
}

func (r *Runner) report(stmt ast.Statement, t *table.Table) error {
	switch st := stmt.(type) {
	case *ast.SelectStmt:
		if err := output.WriteTable(r.Out, t, r.MaxRows); err != nil {
			return err
		}
		if st.Into != "" {
			fmt.Fprintf(r.Out, "Stored as %s\n", st.Into)
		}
	case *ast.LoadStmt:
		fmt.Fprintf(r.Out, "Loaded %s: %d rows, %d columns\n", st.Table, t.NumRows(), len(t.Columns))
	case *ast.PlotStmt:
		// the renderer has already written the chart
	default:
		fmt.Fprintf(r.Out, "OK: %d rows, %d columns\n", t.NumRows(), len(t.Columns))
	}
	return nil
}
