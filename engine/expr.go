package engine

import (
	"fmt"
	"strconv"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/table"
)

// EvalCondition evaluates a condition tree against every row of t, stored
// under tableName, and returns the selection mask. Both sides of AND/OR are
// always evaluated so that a type error anywhere in the tree is reported.
func EvalCondition(cond ast.Condition, t *table.Table, tableName string) ([]bool, error) {
	switch c := cond.(type) {
	case *ast.Comparison:
		return evalComparison(c, t, tableName)
	case *ast.And:
		left, right, err := evalBranches(c.Left, c.Right, t, tableName)
		if err != nil {
			return nil, err
		}
		for i := range left {
			left[i] = left[i] && right[i]
		}
		return left, nil
	case *ast.Or:
		left, right, err := evalBranches(c.Left, c.Right, t, tableName)
		if err != nil {
			return nil, err
		}
		for i := range left {
			left[i] = left[i] || right[i]
		}
		return left, nil
	case *ast.Not:
		mask, err := EvalCondition(c.Inner, t, tableName)
		if err != nil {
			return nil, err
		}
		for i := range mask {
			mask[i] = !mask[i]
		}
		return mask, nil
	case *ast.Group:
		return EvalCondition(c.Inner, t, tableName)
	default:
		return nil, fmt.Errorf("%w: condition type %T", ErrInvalidArgument, cond)
	}
}

func evalBranches(l, r ast.Condition, t *table.Table, tableName string) ([]bool, []bool, error) {
	left, lerr := EvalCondition(l, t, tableName)
	right, rerr := EvalCondition(r, t, tableName)
	if lerr != nil {
		return nil, nil, lerr
	}
	if rerr != nil {
		return nil, nil, rerr
	}
	return left, right, nil
}

func evalComparison(c *ast.Comparison, t *table.Table, tableName string) ([]bool, error) {
	col, ok := t.Column(c.Column)
	if !ok {
		return nil, columnNotFound(c.Column, tableName)
	}

	mask := make([]bool, col.Len())
	if col.IsNumeric() {
		lit, err := numericLiteral(c)
		if err != nil {
			return nil, err
		}
		for i := range mask {
			if col.IsMissing(i) {
				mask[i] = c.Op == ast.OpNeq
				continue
			}
			mask[i] = cmpResult(c.Op, compareFloats(col.Nums[i], lit))
		}
		return mask, nil
	}

	if c.Op.Ordering() {
		return nil, fmt.Errorf("%w: cannot apply %s to text column %q", ErrType, c.Op, c.Column)
	}
	lit := c.Value.String()
	for i := range mask {
		if col.IsMissing(i) {
			mask[i] = c.Op == ast.OpNeq
			continue
		}
		eq := col.Strs[i] == lit
		if c.Op == ast.OpEq {
			mask[i] = eq
		} else {
			mask[i] = !eq
		}
	}
	return mask, nil
}

func numericLiteral(c *ast.Comparison) (float64, error) {
	if c.Value.IsNumber {
		return c.Value.Num, nil
	}
	f, err := strconv.ParseFloat(c.Value.Text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot compare numeric column %q with %s %q",
			ErrType, c.Column, c.Op, c.Value.Text)
	}
	return f, nil
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpResult(op ast.CompareOp, cmp int) bool {
	switch op {
	case ast.OpEq:
		return cmp == 0
	case ast.OpNeq:
		return cmp != 0
	case ast.OpLt:
		return cmp < 0
	case ast.OpGt:
		return cmp > 0
	case ast.OpLte:
		return cmp <= 0
	case ast.OpGte:
		return cmp >= 0
	}
	return false
}
