package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/stats"
	"github.com/razeghi71/tabql/table"
)

// group is one partition of a GROUP BY: its key tuple and row positions.
type group struct {
	key  []table.Value
	rows []int
}

// checkAggregate validates the call against t before any work is done.
func checkAggregate(call *ast.AggregateCall, t *table.Table, tableName string) error {
	if call.Column == ast.Wildcard {
		if call.Func != ast.AggCount {
			return fmt.Errorf("%w: %s(*) is not allowed, only COUNT(*)", ErrInvalidArgument, call.Func)
		}
		return nil
	}
	col, ok := t.Column(call.Column)
	if !ok {
		return columnNotFound(call.Column, tableName)
	}
	if (call.Func == ast.AggSum || call.Func == ast.AggAvg) && !col.IsNumeric() {
		return notNumeric(call.Func.String(), call.Column)
	}
	return nil
}

// EvalAggregate reduces the given rows of t with one aggregate call.
// Missing cells are ignored; an empty reduction yields a missing value,
// except COUNT which yields 0.
func EvalAggregate(call *ast.AggregateCall, t *table.Table, rows []int) (table.Value, error) {
	if err := checkAggregate(call, t, ""); err != nil {
		return table.Null(), err
	}
	if call.Column == ast.Wildcard {
		return table.NumVal(float64(len(rows))), nil
	}

	col, _ := t.Column(call.Column)
	switch call.Func {
	case ast.AggCount:
		n := 0
		for _, r := range rows {
			if !col.IsMissing(r) {
				n++
			}
		}
		return table.NumVal(float64(n)), nil
	case ast.AggSum, ast.AggAvg:
		vals := make([]float64, 0, len(rows))
		for _, r := range rows {
			if !col.IsMissing(r) {
				vals = append(vals, col.Nums[r])
			}
		}
		if len(vals) == 0 {
			return table.Null(), nil
		}
		if call.Func == ast.AggAvg {
			return table.NumVal(stats.Mean(vals)), nil
		}
		return table.NumVal(stats.Sum(vals)), nil
	case ast.AggMin, ast.AggMax:
		best := table.Null()
		for _, r := range rows {
			v := col.Value(r)
			if v.IsNull() {
				continue
			}
			if best.IsNull() {
				best = v
				continue
			}
			cmp := compareValues(v, best)
			if (call.Func == ast.AggMin && cmp < 0) || (call.Func == ast.AggMax && cmp > 0) {
				best = v
			}
		}
		return best, nil
	default:
		return table.Null(), fmt.Errorf("%w: aggregate function %s", ErrInvalidArgument, call.Func)
	}
}

// partition splits the rows of t by the distinct tuples of the key columns.
// Rows with a missing key cell belong to no group. Groups are ordered by key.
func partition(t *table.Table, keys []string) []group {
	cols := make([]*table.Column, len(keys))
	for i, k := range keys {
		cols[i], _ = t.Column(k)
	}

	var groups []group
	keyMap := make(map[string]int)
	for r := 0; r < t.NumRows(); r++ {
		keyParts := make([]string, len(cols))
		keyVals := make([]table.Value, len(cols))
		skip := false
		for i, c := range cols {
			if c.IsMissing(r) {
				skip = true
				break
			}
			keyVals[i] = c.Value(r)
			keyParts[i] = keyVals[i].AsString()
		}
		if skip {
			continue
		}
		keyStr := strings.Join(keyParts, "\x00")

		gi, exists := keyMap[keyStr]
		if !exists {
			gi = len(groups)
			groups = append(groups, group{key: keyVals})
			keyMap[keyStr] = gi
		}
		groups[gi].rows = append(groups[gi].rows, r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		for k := range keys {
			if cmp := compareValues(groups[i].key[k], groups[j].key[k]); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return groups
}

// aggregate computes the calls over t, either once over all rows or once
// per group of the key columns. Key columns come first in the result.
func aggregate(t *table.Table, tableName string, keys []string, calls []*ast.AggregateCall) (*table.Table, error) {
	for _, k := range keys {
		if t.ColIndex(k) < 0 {
			return nil, columnNotFound(k, tableName)
		}
	}
	for _, call := range calls {
		if err := checkAggregate(call, t, tableName); err != nil {
			return nil, err
		}
	}

	var groups []group
	if len(keys) == 0 {
		groups = []group{{rows: table.Sequence(t.NumRows())}}
	} else {
		groups = partition(t, keys)
	}

	keyVals := make([][]table.Value, len(keys))
	aggVals := make([][]table.Value, len(calls))
	for _, g := range groups {
		for i := range keys {
			keyVals[i] = append(keyVals[i], g.key[i])
		}
		for i, call := range calls {
			v, err := EvalAggregate(call, t, g.rows)
			if err != nil {
				return nil, err
			}
			aggVals[i] = append(aggVals[i], v)
		}
	}

	cols := make([]*table.Column, 0, len(keys)+len(calls))
	for i, k := range keys {
		src, _ := t.Column(k)
		cols = append(cols, keyColumn(src, keyVals[i]))
	}
	for i, call := range calls {
		cols = append(cols, table.FromValues(call.OutputName(), aggVals[i]))
	}
	res := table.NewTable(cols...)
	res.Index = table.Sequence(len(groups))
	return res, nil
}

// keyColumn builds a group-key column keeping the kind of its source.
func keyColumn(src *table.Column, vals []table.Value) *table.Column {
	c := table.FromValues(src.Name, vals)
	if src.Kind == table.KindText && c.Kind == table.KindNumber {
		c = table.Texts(src.Name)
		c.Strs = make([]string, len(vals))
		c.Missing = make([]bool, len(vals))
		for i, v := range vals {
			c.Set(i, v)
		}
	}
	return c
}

// compareValues orders numbers numerically and text lexically; missing
// values sort last.
func compareValues(a, b table.Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}

	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		return compareFloats(af, bf)
	}
	return strings.Compare(a.AsString(), b.AsString())
}
