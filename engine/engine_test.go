package engine

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/internal/logger"
	"github.com/razeghi71/tabql/parser"
	"github.com/razeghi71/tabql/table"
)

// peopleTable has five rows: ages [24,20,24,36,45] and one missing city.
func peopleTable() *table.Table {
	city := table.Texts("city", "NY", "LA", "NY", "SF", "")
	city.Missing[4] = true
	return table.NewTable(
		table.Texts("name", "Alice", "Bob", "Charlie", "Diana", "Eve"),
		table.Numbers("age", 24, 20, 24, 36, 45),
		table.Numbers("salary", 1000000, 60000, 75000, 56000, 88000),
		city,
	)
}

func newTestSession(t *testing.T, tables map[string]*table.Table) *Session {
	t.Helper()
	s := NewSession(nil, nil, nil)
	for name, tbl := range tables {
		s.Store.Put(name, tbl)
	}
	return s
}

func run(t *testing.T, s *Session, input string) *table.Table {
	t.Helper()
	stmt, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	result, err := s.Execute(stmt)
	if err != nil {
		t.Fatalf("exec %q: %v", input, err)
	}
	return result
}

func runErr(t *testing.T, s *Session, input string) error {
	t.Helper()
	stmt, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	_, err = s.Execute(stmt)
	if err == nil {
		t.Fatalf("exec %q: expected error", input)
	}
	return err
}

func stored(t *testing.T, s *Session, name string) *table.Table {
	t.Helper()
	tbl, ok := s.Store.Get(name)
	if !ok {
		t.Fatalf("table %q not in store", name)
	}
	return tbl
}

func TestFilterAndNotPartitionRows(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	conds := []string{
		"age > 22",
		"age == 24",
		"name != 'Bob'",
		"age < 21 OR salary >= 75000",
		"(age >= 24 AND salary < 80000) OR name == Eve",
	}
	for _, cond := range conds {
		in := run(t, s, "SELECT * FROM t WHERE "+cond)
		out := run(t, s, "SELECT * FROM t WHERE NOT ("+cond+")")
		if in.NumRows()+out.NumRows() != 5 {
			t.Errorf("%s: %d + %d rows, expected 5", cond, in.NumRows(), out.NumRows())
		}
	}
}

func TestWhereKeepsLabels(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	result := run(t, s, "SELECT name FROM t WHERE age == 24")
	if len(result.Index) != 2 || result.Index[0] != 0 || result.Index[1] != 2 {
		t.Errorf("expected labels [0 2], got %v", result.Index)
	}
}

func TestWhereTextEquality(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	result := run(t, s, "SELECT name FROM t WHERE city = 'NY'")
	if result.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", result.NumRows())
	}
	// missing cities match != only
	result = run(t, s, "SELECT name FROM t WHERE city != 'NY'")
	if result.NumRows() != 3 {
		t.Errorf("expected 3 rows, got %d", result.NumRows())
	}
}

func TestConditionErrors(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	tests := []struct {
		input string
		want  error
	}{
		{"SELECT * FROM t WHERE name > 'A'", ErrType},
		{"SELECT * FROM t WHERE age > 1 OR name < 'B'", ErrType},
		{"SELECT * FROM t WHERE age > 'old'", ErrType},
		{"SELECT * FROM t WHERE height > 1", ErrNotFound},
	}
	for _, tt := range tests {
		err := runErr(t, s, tt.input)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.input, tt.want, err)
		}
	}
}

func TestConditionUnknownColumnNamesTable(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"people": peopleTable()})
	err := runErr(t, s, "SELECT * FROM people WHERE age > 1 AND NOT (height > 1)")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, `column "height" in table "people"`) {
		t.Errorf("expected column and table in error, got %q", msg)
	}
}

func TestGroupByCount(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	result := run(t, s, "SELECT age, COUNT(*) FROM t GROUP BY age")
	if result.NumRows() != 4 {
		t.Fatalf("expected 4 groups, got %d", result.NumRows())
	}
	if names := result.ColumnNames(); names[0] != "age" || names[1] != "count" {
		t.Fatalf("unexpected columns %v", names)
	}
	want := map[float64]float64{20: 1, 24: 2, 36: 1, 45: 1}
	for r := 0; r < result.NumRows(); r++ {
		age, _ := result.Get(r, "age").AsFloat()
		n, _ := result.Get(r, "count").AsFloat()
		if want[age] != n {
			t.Errorf("age %v: count %v, expected %v", age, n, want[age])
		}
	}
}

func TestGroupByDropsMissingKeysAndSorts(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	result := run(t, s, "SELECT city, SUM(salary), MAX(name) FROM t GROUP BY city")
	if result.NumRows() != 3 {
		t.Fatalf("expected 3 groups, got %d", result.NumRows())
	}
	if got := result.Get(0, "city").Str; got != "LA" {
		t.Errorf("expected first group LA, got %q", got)
	}
	if got, _ := result.Get(1, "sum_salary").AsFloat(); got != 1075000 {
		t.Errorf("NY sum_salary: expected 1075000, got %v", got)
	}
	if got := result.Get(1, "max_name").Str; got != "Charlie" {
		t.Errorf("NY max_name: expected Charlie, got %q", got)
	}
}

func TestGroupByOrderBy(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	result := run(t, s, "SELECT age, COUNT(*) FROM t GROUP BY age ORDER BY count DESC")
	if got, _ := result.Get(0, "age").AsFloat(); got != 24 {
		t.Errorf("expected age 24 first, got %v", got)
	}
}

func TestGroupBySchemaViolation(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	for _, q := range []string{
		"SELECT name FROM t GROUP BY age",
		"SELECT name, COUNT(*) FROM t",
	} {
		if err := runErr(t, s, q); !errors.Is(err, ErrSchemaViolation) {
			t.Errorf("%s: expected schema violation, got %v", q, err)
		}
	}
}

func TestUngroupedAggregates(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	result := run(t, s, "SELECT COUNT(*), COUNT(city), SUM(age), AVG(age), MIN(name), MAX(age) FROM t")
	if result.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", result.NumRows())
	}
	want := []string{"count", "count_city", "sum_age", "avg_age", "min_name", "max_age"}
	for i, name := range result.ColumnNames() {
		if name != want[i] {
			t.Errorf("column %d: expected %q, got %q", i, want[i], name)
		}
	}
	checks := map[string]float64{"count": 5, "count_city": 4, "sum_age": 149, "avg_age": 29.8, "max_age": 45}
	for col, v := range checks {
		if got, _ := result.Get(0, col).AsFloat(); math.Abs(got-v) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", col, v, got)
		}
	}
	if got := result.Get(0, "min_name").Str; got != "Alice" {
		t.Errorf("min_name: expected Alice, got %q", got)
	}
}

func TestAggregateOverNoRows(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	result := run(t, s, "SELECT COUNT(*), SUM(age), MIN(age) FROM t WHERE age > 100")
	if got, _ := result.Get(0, "count").AsFloat(); got != 0 {
		t.Errorf("count: expected 0, got %v", got)
	}
	if !result.Get(0, "sum_age").IsNull() || !result.Get(0, "min_age").IsNull() {
		t.Errorf("expected missing reductions, got %v", result)
	}
}

func TestAggregateErrors(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	tests := []struct {
		input string
		want  error
	}{
		{"SELECT SUM(*) FROM t", ErrInvalidArgument},
		{"SELECT AVG(name) FROM t", ErrType},
		{"SELECT MAX(height) FROM t", ErrNotFound},
		{"SELECT age, COUNT(*) FROM t GROUP BY height", ErrNotFound},
	}
	for _, tt := range tests {
		if err := runErr(t, s, tt.input); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.input, tt.want, err)
		}
	}
}

func TestEvalAggregate(t *testing.T) {
	tbl := peopleTable()
	v, err := EvalAggregate(&ast.AggregateCall{Func: ast.AggAvg, Column: "salary"}, tbl, []int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := v.AsFloat(); got != 67500 {
		t.Errorf("expected 67500, got %v", got)
	}
}

func TestSumAndAvgSkipMissing(t *testing.T) {
	age := table.Numbers("age", 10, 0, 20, 0, 30)
	age.Missing[1] = true
	age.Missing[3] = true
	tbl := table.NewTable(age)
	rows := []int{0, 1, 2, 3, 4}

	tests := []struct {
		fn   ast.AggFunc
		want float64
	}{
		{ast.AggSum, 60},
		{ast.AggAvg, 20},
	}
	for _, tt := range tests {
		v, err := EvalAggregate(&ast.AggregateCall{Func: tt.fn, Column: "age"}, tbl, rows)
		if err != nil {
			t.Fatal(err)
		}
		if got, _ := v.AsFloat(); got != tt.want {
			t.Errorf("%v: expected %v, got %v", tt.fn, tt.want, got)
		}
	}

	v, err := EvalAggregate(&ast.AggregateCall{Func: ast.AggAvg, Column: "age"}, tbl, []int{1, 3})
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsNull() {
		t.Errorf("expected missing average over missing cells, got %v", v)
	}
}

func TestSelectStarRoundTrip(t *testing.T) {
	src := peopleTable()
	s := newTestSession(t, map[string]*table.Table{"t": src})
	result := run(t, s, "SELECT * FROM t")
	if !result.Equal(src) {
		t.Errorf("SELECT * changed the table:\n%v\n%v", src, result)
	}
	if result == src {
		t.Error("SELECT * should return a copy")
	}
}

func TestSelectProjectionAndOrder(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	result := run(t, s, "SELECT salary, name FROM t ORDER BY age DESC, name ASC")
	if names := result.ColumnNames(); len(names) != 2 || names[0] != "salary" {
		t.Fatalf("unexpected columns %v", names)
	}
	want := []string{"Eve", "Diana", "Alice", "Charlie", "Bob"}
	for i, n := range want {
		if got := result.Get(i, "name").Str; got != n {
			t.Errorf("row %d: expected %s, got %s", i, n, got)
		}
	}
}

func TestOrderByMissingLast(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	for _, dir := range []string{"ASC", "DESC"} {
		result := run(t, s, "SELECT city FROM t ORDER BY city "+dir)
		if !result.Get(4, "city").IsNull() {
			t.Errorf("%s: expected missing city last, got %v", dir, result)
		}
	}
}

func TestSelectAsStoresResult(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	run(t, s, "SELECT name FROM t WHERE age > 30 AS older")
	older := stored(t, s, "older")
	if older.NumRows() != 2 {
		t.Errorf("expected 2 rows, got %d", older.NumRows())
	}

	run(t, s, "SELECT name FROM t AS older")
	if stored(t, s, "older").NumRows() != 5 {
		t.Error("re-binding an alias should replace the table")
	}
	if stored(t, s, "t").NumRows() != 5 {
		t.Error("SELECT must not modify the source table")
	}
}

func TestSelectErrors(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"t": peopleTable()})
	tests := []struct {
		input string
		want  error
	}{
		{"SELECT * FROM nowhere", ErrNotFound},
		{"SELECT height FROM t", ErrNotFound},
		{"SELECT name FROM t ORDER BY height", ErrNotFound},
	}
	for _, tt := range tests {
		if err := runErr(t, s, tt.input); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.input, tt.want, err)
		}
	}
}

func TestLoad(t *testing.T) {
	var gotPath string
	source := SourceFunc(func(path string) (*table.Table, error) {
		gotPath = path
		if strings.HasSuffix(path, "missing.csv") {
			return nil, errors.New("no such file")
		}
		return peopleTable(), nil
	})
	s := NewSession(source, nil, nil)

	stmt, _ := parser.Parse("LOAD 'data/people.csv' AS people")
	if _, err := s.Execute(stmt); err != nil {
		t.Fatal(err)
	}
	if gotPath != "data/people.csv" {
		t.Errorf("source called with %q", gotPath)
	}
	if stored(t, s, "people").NumRows() != 5 {
		t.Error("loaded table not stored")
	}

	stmt, _ = parser.Parse("LOAD 'missing.csv' AS other")
	if _, err := s.Execute(stmt); err == nil || !strings.Contains(err.Error(), "missing.csv") {
		t.Errorf("expected load error naming the path, got %v", err)
	}
	if _, ok := s.Store.Get("other"); ok {
		t.Error("failed load must not bind a table")
	}
}

type recordingRenderer struct {
	calls []string
}

func (r *recordingRenderer) Render(t *table.Table, columns []string, kind ast.PlotKind) error {
	r.calls = append(r.calls, kind.String()+":"+strings.Join(columns, ","))
	return nil
}

func TestPlot(t *testing.T) {
	rr := &recordingRenderer{}
	s := NewSession(nil, rr, nil)
	s.Store.Put("t", peopleTable())

	run(t, s, "PLOT age FROM t AS HIST")
	run(t, s, "PLOT age, salary FROM t AS SCATTER")
	if len(rr.calls) != 2 || rr.calls[1] != "SCATTER:age,salary" {
		t.Errorf("unexpected renderer calls %v", rr.calls)
	}

	tests := []struct {
		input string
		want  error
	}{
		{"PLOT name FROM t AS HIST", ErrType},
		{"PLOT height FROM t AS BOX", ErrNotFound},
		{"PLOT age FROM t AS SCATTER", ErrInvalidArgument},
		{"PLOT age FROM nowhere AS HIST", ErrNotFound},
	}
	for _, tt := range tests {
		if err := runErr(t, s, tt.input); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.input, tt.want, err)
		}
	}
	if len(rr.calls) != 2 {
		t.Error("renderer must not be called for invalid requests")
	}
}

func TestExecuteScript(t *testing.T) {
	s := NewSession(SourceFunc(func(string) (*table.Table, error) { return peopleTable(), nil }), nil, nil)

	results, err := s.ExecuteScript(`
		LOAD 'people.csv' AS p;
		NORMALIZE p salary;
		SELECT name FROM p WHERE salary == 1;
	`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if got := results[2].Get(0, "name").Str; got != "Alice" {
		t.Errorf("expected Alice to hold the max salary, got %q", got)
	}

	results, err = s.ExecuteScript("DROP ROW 0 FROM p; NORMALIZE p name; DROP ROW 1 FROM p;", nil)
	if !errors.Is(err, ErrType) {
		t.Fatalf("expected type error, got %v", err)
	}
	if !strings.Contains(err.Error(), "statement 2") {
		t.Errorf("error should name the failing statement: %v", err)
	}
	if len(results) != 1 || stored(t, s, "p").NumRows() != 4 {
		t.Error("statements before the failure should take effect, later ones should not")
	}
}

func TestExecuteScriptReportsEachResult(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"p": peopleTable()})

	var kinds []string
	var rows []int
	report := func(stmt ast.Statement, result *table.Table) error {
		kinds = append(kinds, statementKind(stmt))
		rows = append(rows, result.NumRows())
		return nil
	}
	if _, err := s.ExecuteScript("DROP ROW 0 FROM p; SELECT name FROM p WHERE age > 30;", report); err != nil {
		t.Fatal(err)
	}
	if strings.Join(kinds, ",") != "drop,select" {
		t.Errorf("expected drop,select reported, got %v", kinds)
	}
	if len(rows) != 2 || rows[0] != 4 || rows[1] != 2 {
		t.Errorf("expected row counts [4 2], got %v", rows)
	}

	errStop := errors.New("stop")
	calls := 0
	results, err := s.ExecuteScript("DROP ROW 1 FROM p; DROP ROW 2 FROM p;", func(ast.Statement, *table.Table) error {
		calls++
		return errStop
	})
	if !errors.Is(err, errStop) || !strings.Contains(err.Error(), "statement 1") {
		t.Fatalf("expected report error on statement 1, got %v", err)
	}
	if calls != 1 || len(results) != 1 || stored(t, s, "p").NumRows() != 3 {
		t.Error("a failed report should stop the script after the current statement")
	}
}

func TestExecuteScriptSingleStatementError(t *testing.T) {
	s := newTestSession(t, map[string]*table.Table{"p": peopleTable()})
	_, err := s.ExecuteScript("NORMALIZE p name;", nil)
	if !errors.Is(err, ErrType) {
		t.Fatalf("expected type error, got %v", err)
	}
	if strings.Contains(err.Error(), "statement 1") {
		t.Errorf("a lone statement's error should not be numbered: %v", err)
	}
}

func TestSessionLogsStatements(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewWriter("debug", "json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSession(nil, nil, log)
	s.Store.Put("t", peopleTable())

	run(t, s, "SELECT * FROM t")
	runErr(t, s, "NORMALIZE t name")
	_ = log.Sync()

	out := buf.String()
	if !strings.Contains(out, `"statement executed"`) || !strings.Contains(out, `"kind":"select"`) {
		t.Errorf("missing debug entry: %s", out)
	}
	if !strings.Contains(out, `"statement failed"`) || !strings.Contains(out, `"kind":"normalize"`) {
		t.Errorf("missing warn entry: %s", out)
	}
}
