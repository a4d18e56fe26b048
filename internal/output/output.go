// Package output prints tables for the terminal.
package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/razeghi71/tabql/table"
)

// WriteTable prints t with its row labels as the first column. At most
// maxRows rows are printed when maxRows > 0; the remainder is summarized in
// a trailing line.
func WriteTable(w io.Writer, t *table.Table, maxRows int) error {
	if len(t.Columns) == 0 {
		_, err := fmt.Fprintln(w, "(no columns)")
		return err
	}

	tw := newWriter(w)
	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, "")
	header = append(header, t.ColumnNames()...)
	tw.SetHeader(header)

	n := t.NumRows()
	shown := n
	if maxRows > 0 && shown > maxRows {
		shown = maxRows
	}
	for i := 0; i < shown; i++ {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(t.Index[i]))
		for _, c := range t.Columns {
			row = append(row, c.Value(i).AsString())
		}
		tw.Append(row)
	}
	tw.Render()

	if shown < n {
		_, err := fmt.Fprintf(w, "... %d more rows (%d total)\n", n-shown, n)
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", n)
	return err
}

// WriteSchema prints one line per column: its name, kind and number of
// missing cells.
func WriteSchema(w io.Writer, t *table.Table) {
	tw := newWriter(w)
	tw.SetHeader([]string{"column", "kind", "missing"})
	for _, c := range t.Columns {
		tw.Append([]string{c.Name, c.Kind.String(), strconv.Itoa(c.MissingCount())})
	}
	tw.Render()
}

// WriteNames prints each table name with its size.
func WriteNames(w io.Writer, store *table.Store) {
	tw := newWriter(w)
	tw.SetHeader([]string{"table", "rows", "columns"})
	for _, name := range store.Names() {
		t, _ := store.Get(name)
		tw.Append([]string{name, strconv.Itoa(t.NumRows()), strconv.Itoa(len(t.Columns))})
	}
	tw.Render()
}

func newWriter(w io.Writer) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	return tw
}
