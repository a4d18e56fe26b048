package engine

import (
	"fmt"
	"sort"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/table"
)

// execSelect runs the SELECT pipeline: filter, group-by, order-by, then
// projection or aggregation. The source table is never modified.
func execSelect(s *ast.SelectStmt, store *table.Store) (*table.Table, error) {
	src, ok := store.Get(s.From)
	if !ok {
		return nil, tableNotFound(s.From)
	}

	current := src
	if s.Where != nil {
		mask, err := EvalCondition(s.Where, current, s.From)
		if err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		current = current.Filter(mask)
	}

	for _, k := range s.GroupBy {
		if current.ColIndex(k) < 0 {
			return nil, columnNotFound(k, s.From)
		}
	}
	grouped := len(s.GroupBy) > 0 && !s.Star

	if len(s.OrderBy) > 0 && !grouped {
		var err error
		current, err = execSort(s.OrderBy, current, s.From)
		if err != nil {
			return nil, err
		}
	}

	result, err := project(s, current)
	if err != nil {
		return nil, err
	}

	if len(s.OrderBy) > 0 && grouped {
		result, err = execSort(s.OrderBy, result, s.From)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func project(s *ast.SelectStmt, t *table.Table) (*table.Table, error) {
	if s.Star {
		return t.Clone(), nil
	}

	var plain []string
	var calls []*ast.AggregateCall
	for _, item := range s.Items {
		switch it := item.(type) {
		case *ast.ColumnRef:
			plain = append(plain, it.Name)
		case *ast.AggregateCall:
			calls = append(calls, it)
		default:
			return nil, fmt.Errorf("%w: select item %T", ErrInvalidArgument, item)
		}
	}

	if len(s.GroupBy) > 0 {
		keys := make(map[string]bool, len(s.GroupBy))
		for _, k := range s.GroupBy {
			keys[k] = true
		}
		for _, c := range plain {
			if !keys[c] {
				return nil, fmt.Errorf("%w: column %q must appear in GROUP BY or be used in an aggregate function",
					ErrSchemaViolation, c)
			}
		}
		return aggregate(t, s.From, s.GroupBy, calls)
	}

	if len(calls) > 0 {
		if len(plain) > 0 {
			return nil, fmt.Errorf("%w: column %q must appear in GROUP BY or be used in an aggregate function",
				ErrSchemaViolation, plain[0])
		}
		return aggregate(t, s.From, nil, calls)
	}

	res, missing := t.Project(plain)
	if missing != "" {
		return nil, columnNotFound(missing, s.From)
	}
	return res, nil
}

// execSort stable-sorts rows by the keys, each with its own direction.
// Missing values sort last in both directions.
func execSort(keys []ast.OrderKey, t *table.Table, tableName string) (*table.Table, error) {
	cols := make([]*table.Column, len(keys))
	for i, k := range keys {
		c, ok := t.Column(k.Column)
		if !ok {
			return nil, columnNotFound(k.Column, tableName)
		}
		cols[i] = c
	}

	order := table.Sequence(t.NumRows())
	sort.SliceStable(order, func(i, j int) bool {
		for k, c := range cols {
			a, b := c.Value(order[i]), c.Value(order[j])
			if a.IsNull() || b.IsNull() {
				if cmp := compareValues(a, b); cmp != 0 {
					return cmp < 0
				}
				continue
			}
			cmp := compareValues(a, b)
			if cmp != 0 {
				if keys[k].Desc {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
	return t.Take(order), nil
}
