package engine

import (
	"fmt"
	"math"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/stats"
	"github.com/razeghi71/tabql/table"
)

// execClean computes the cleaned copy of the target table and swaps it into
// the store only when the whole command succeeded.
func execClean(cmd ast.CleanCommand, store *table.Store) (*table.Table, error) {
	name := cmd.TableName()
	src, ok := store.Get(name)
	if !ok {
		return nil, tableNotFound(name)
	}

	var (
		result *table.Table
		err    error
	)
	switch c := cmd.(type) {
	case *ast.FillNaStmt:
		result, err = fillNa(c, src.Clone())
	case *ast.DropNaStmt:
		result, err = dropNa(c, src)
	case *ast.RemoveStringsStmt:
		result, err = removeStrings(c, src.Clone())
	case *ast.RemoveNumbersStmt:
		result, err = removeNumbers(c, src)
	case *ast.DropStmt:
		result, err = dropRowOrColumn(c, src.Clone())
	case *ast.ReplaceCellStmt:
		result, err = replaceCell(c, src.Clone())
	case *ast.FilterOutliersStmt:
		result, err = filterOutliers(c, src)
	case *ast.NormalizeStmt:
		result, err = normalize(c, src.Clone())
	default:
		return nil, fmt.Errorf("%w: clean command %T", ErrInvalidArgument, cmd)
	}
	if err != nil {
		return nil, err
	}

	store.Put(name, result)
	return result, nil
}

func fillNa(s *ast.FillNaStmt, t *table.Table) (*table.Table, error) {
	col, ok := t.Column(s.Column)
	if !ok {
		return nil, columnNotFound(s.Column, s.Table)
	}

	var fill table.Value
	switch s.Method {
	case ast.FillMean, ast.FillMedian:
		if !col.IsNumeric() {
			return nil, notNumeric("FILL NA", s.Column)
		}
		vals := col.Floats()
		if len(vals) == 0 {
			return t, nil
		}
		if s.Method == ast.FillMean {
			fill = table.NumVal(stats.Mean(vals))
		} else {
			fill = table.NumVal(stats.Median(vals))
		}
	case ast.FillMode:
		fill = mode(col)
		if fill.IsNull() {
			return t, nil
		}
	case ast.FillValue:
		if s.Value.IsNumber {
			fill = table.NumVal(s.Value.Num)
		} else {
			fill = table.StrVal(s.Value.Text)
		}
	default:
		return nil, fmt.Errorf("%w: fill method %d", ErrInvalidArgument, s.Method)
	}

	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			col.Set(i, fill)
		}
	}
	return t, nil
}

// mode returns the most frequent non-missing value; ties go to the value
// seen first.
func mode(col *table.Column) table.Value {
	counts := make(map[string]int)
	top := 0
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if v.IsNull() {
			continue
		}
		k := v.AsString()
		counts[k]++
		if counts[k] > top {
			top = counts[k]
		}
	}
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if !v.IsNull() && counts[v.AsString()] == top {
			return v
		}
	}
	return table.Null()
}

func dropNa(s *ast.DropNaStmt, t *table.Table) (*table.Table, error) {
	subset := s.Columns
	if len(subset) == 0 {
		subset = t.ColumnNames()
	}
	cols := make([]*table.Column, len(subset))
	for i, name := range subset {
		c, ok := t.Column(name)
		if !ok {
			return nil, columnNotFound(name, s.Table)
		}
		cols[i] = c
	}

	shouldDrop := func(missing, considered int) bool {
		if considered == 0 {
			return false
		}
		if s.How == ast.HowAll {
			return missing == considered
		}
		return missing > 0
	}

	switch s.Axis {
	case ast.AxisRows:
		var keep []int
		for r := 0; r < t.NumRows(); r++ {
			missing := 0
			for _, c := range cols {
				if c.IsMissing(r) {
					missing++
				}
			}
			if !shouldDrop(missing, len(cols)) {
				keep = append(keep, r)
			}
		}
		return t.Take(keep), nil
	case ast.AxisColumns:
		out := t.Clone()
		for _, c := range cols {
			if shouldDrop(c.MissingCount(), c.Len()) {
				out.DropColumn(c.Name)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: drop axis %d", ErrInvalidArgument, s.Axis)
	}
}

func targetColumns(t *table.Table, tableName string, names []string, kind table.Kind) ([]*table.Column, error) {
	if len(names) == 0 {
		var cols []*table.Column
		for _, c := range t.Columns {
			if c.Kind == kind {
				cols = append(cols, c)
			}
		}
		return cols, nil
	}
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, columnNotFound(n, tableName)
		}
		cols[i] = c
	}
	return cols, nil
}

func removeStrings(s *ast.RemoveStringsStmt, t *table.Table) (*table.Table, error) {
	cols, err := targetColumns(t, s.Table, s.Columns, table.KindNumber)
	if err != nil {
		return nil, err
	}

	for i, c := range cols {
		if c.IsNumeric() {
			continue
		}
		coerced := table.Numbers(c.Name, make([]float64, c.Len())...)
		for r := 0; r < c.Len(); r++ {
			f, ok := table.ParseNumber(c.Strs[r])
			if c.IsMissing(r) || !ok {
				coerced.Missing[r] = true
				continue
			}
			coerced.Nums[r] = f
		}
		t.Columns[t.ColIndex(c.Name)] = coerced
		cols[i] = coerced
	}

	var keep []int
	for r := 0; r < t.NumRows(); r++ {
		ok := true
		for _, c := range cols {
			if c.IsMissing(r) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, r)
		}
	}
	return t.Take(keep), nil
}

func removeNumbers(s *ast.RemoveNumbersStmt, t *table.Table) (*table.Table, error) {
	cols, err := targetColumns(t, s.Table, s.Columns, table.KindText)
	if err != nil {
		return nil, err
	}

	var keep []int
	for r := 0; r < t.NumRows(); r++ {
		numeric := false
		for _, c := range cols {
			if c.IsMissing(r) {
				continue
			}
			if c.IsNumeric() {
				numeric = true
				break
			}
			if _, ok := table.ParseNumber(c.Strs[r]); ok {
				numeric = true
				break
			}
		}
		if !numeric {
			keep = append(keep, r)
		}
	}
	return t.Take(keep), nil
}

func dropRowOrColumn(s *ast.DropStmt, t *table.Table) (*table.Table, error) {
	if s.Column != "" {
		if !t.DropColumn(s.Column) {
			return nil, columnNotFound(s.Column, s.Table)
		}
		return t, nil
	}

	pos := t.RowOf(s.Row)
	if pos < 0 {
		return nil, fmt.Errorf("%w: row %d does not exist in table %q", ErrInvalidArgument, s.Row, s.Table)
	}
	keep := make([]int, 0, t.NumRows()-1)
	for r := 0; r < t.NumRows(); r++ {
		if r != pos {
			keep = append(keep, r)
		}
	}
	return t.Take(keep), nil
}

func replaceCell(s *ast.ReplaceCellStmt, t *table.Table) (*table.Table, error) {
	col, ok := t.Column(s.Column)
	if !ok {
		return nil, columnNotFound(s.Column, s.Table)
	}
	pos := t.RowOf(s.Row)
	if pos < 0 {
		return nil, fmt.Errorf("%w: row %d does not exist in table %q", ErrInvalidArgument, s.Row, s.Table)
	}
	col.Set(pos, table.ParseValue(s.Raw))
	return t, nil
}

func filterOutliers(s *ast.FilterOutliersStmt, t *table.Table) (*table.Table, error) {
	col, ok := t.Column(s.Column)
	if !ok {
		return nil, columnNotFound(s.Column, s.Table)
	}
	if !col.IsNumeric() {
		return nil, notNumeric("FILTER OUTLIERS", s.Column)
	}

	threshold, err := outlierThreshold(s)
	if err != nil {
		return nil, err
	}

	vals := col.Floats()
	var keepValue func(x float64) bool
	switch s.Method {
	case ast.OutlierIQR:
		q1 := stats.Quantile(0.25, vals)
		q3 := stats.Quantile(0.75, vals)
		iqr := q3 - q1
		lower, upper := q1-threshold*iqr, q3+threshold*iqr
		keepValue = func(x float64) bool { return x >= lower && x <= upper }
	case ast.OutlierZScore:
		mean, std := stats.Mean(vals), stats.StdDev(vals)
		if std == 0 || math.IsNaN(std) {
			keepValue = func(float64) bool { return true }
		} else {
			keepValue = func(x float64) bool { return math.Abs(x-mean)/std <= threshold }
		}
	default:
		return nil, fmt.Errorf("%w: outlier method %d", ErrInvalidArgument, s.Method)
	}

	var keep []int
	for r := 0; r < col.Len(); r++ {
		if !col.IsMissing(r) && keepValue(col.Nums[r]) {
			keep = append(keep, r)
		}
	}
	return t.Take(keep), nil
}

// outlierThreshold returns the given threshold, or the method default when
// none was given.
func outlierThreshold(s *ast.FilterOutliersStmt) (float64, error) {
	if s.HasThreshold {
		if s.Threshold < 0 || math.IsNaN(s.Threshold) || math.IsInf(s.Threshold, 0) {
			return 0, fmt.Errorf("%w: outlier threshold %v", ErrInvalidArgument, s.Threshold)
		}
		return s.Threshold, nil
	}
	switch s.Method {
	case ast.OutlierZScore:
		return ast.DefaultZScoreThreshold, nil
	default:
		return ast.DefaultIQRThreshold, nil
	}
}

func normalize(s *ast.NormalizeStmt, t *table.Table) (*table.Table, error) {
	col, ok := t.Column(s.Column)
	if !ok {
		return nil, columnNotFound(s.Column, s.Table)
	}
	if !col.IsNumeric() {
		return nil, notNumeric("NORMALIZE", s.Column)
	}

	vals := col.Floats()
	var offset, scale float64
	switch s.Method {
	case ast.NormMinMax:
		lo, hi := stats.Min(vals), stats.Max(vals)
		offset, scale = lo, hi-lo
	case ast.NormZScore:
		offset, scale = stats.Mean(vals), stats.StdDev(vals)
	default:
		return nil, fmt.Errorf("%w: normalization method %d", ErrInvalidArgument, s.Method)
	}
	if scale == 0 || math.IsNaN(scale) {
		return t, nil
	}

	for r := 0; r < col.Len(); r++ {
		if !col.IsMissing(r) {
			col.Nums[r] = (col.Nums[r] - offset) / scale
		}
	}
	return t, nil
}
