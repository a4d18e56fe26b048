package loader

import (
	"os"
	"path/filepath"
	"testing"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeghi71/tabql/table"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "people.csv", "name,age,city\nalice,30,NY\nbob,NA,LA\ncarol,25,\n")

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "city"}, tbl.ColumnNames())
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []int{0, 1, 2}, tbl.Index)

	age, _ := tbl.Column("age")
	assert.True(t, age.IsNumeric())
	assert.Equal(t, 1, age.MissingCount())
	assert.Equal(t, 25.0, age.Nums[2])

	city, _ := tbl.Column("city")
	assert.False(t, city.IsNumeric())
	assert.True(t, city.IsMissing(2))
	assert.Equal(t, "LA", city.Strs[1])
}

func TestLoadCSVMixedColumnIsText(t *testing.T) {
	path := writeFile(t, "mixed.csv", "v\n1\ntwo\n3\n")

	tbl, err := Load(path)
	require.NoError(t, err)
	v, _ := tbl.Column("v")
	assert.Equal(t, table.KindText, v.Kind)
	assert.Equal(t, []string{"1", "two", "3"}, v.Strs)
}

func TestLoadCSVMissingMarkers(t *testing.T) {
	path := writeFile(t, "m.csv", "x\n1\nnull\nN/A\nNaN\nna\n")

	tbl, err := Load(path)
	require.NoError(t, err)
	x, _ := tbl.Column("x")
	assert.True(t, x.IsNumeric())
	assert.Equal(t, 4, x.MissingCount())
}

func TestLoadCSVShortRows(t *testing.T) {
	path := writeFile(t, "short.csv", "a,b\n1,2\n3\n")

	tbl, err := Load(path)
	require.NoError(t, err)
	b, _ := tbl.Column("b")
	assert.True(t, b.IsMissing(1))
}

func TestLoadJSONKeepsKeyOrder(t *testing.T) {
	path := writeFile(t, "rows.json", `[
		{"z": 1, "a": "x"},
		{"z": 2, "a": null, "m": true}
	]`)

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, tbl.ColumnNames())

	z, _ := tbl.Column("z")
	assert.True(t, z.IsNumeric())
	a, _ := tbl.Column("a")
	assert.True(t, a.IsMissing(1))
	m, _ := tbl.Column("m")
	assert.True(t, m.IsMissing(0))
	assert.Equal(t, "true", m.Strs[1])
}

func TestLoadJSONRejectsObject(t *testing.T) {
	path := writeFile(t, "obj.json", `{"a": 1}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "rows.jsonl", "{\"a\": 1, \"b\": \"x\"}\n\n{\"a\": 2.5}\n")

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	a, _ := tbl.Column("a")
	assert.Equal(t, []float64{1, 2.5}, a.Nums)
	b, _ := tbl.Column("b")
	assert.True(t, b.IsMissing(1))
}

func TestLoadJSONLBadLine(t *testing.T) {
	path := writeFile(t, "bad.jsonl", "{\"a\": 1}\nnot json\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadAvro(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.avro")
	f, err := os.Create(path)
	require.NoError(t, err)

	w, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W: f,
		Schema: `{"type": "record", "name": "row", "fields": [
			{"name": "name", "type": "string"},
			{"name": "score", "type": ["null", "double"]}
		]}`,
	})
	require.NoError(t, err)
	require.NoError(t, w.Append([]map[string]interface{}{
		{"name": "alice", "score": goavro.Union("double", 9.5)},
		{"name": "bob", "score": nil},
	}))
	require.NoError(t, f.Close())

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "score"}, tbl.ColumnNames())
	score, _ := tbl.Column("score")
	assert.True(t, score.IsNumeric())
	assert.Equal(t, 9.5, score.Nums[0])
	assert.True(t, score.IsMissing(1))
}

func TestLoadParquet(t *testing.T) {
	type Row struct {
		ID   int64   `parquet:"id"`
		Name string  `parquet:"name"`
		Wage float64 `parquet:"wage"`
	}

	path := filepath.Join(t.TempDir(), "rows.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	writer := parquet.NewGenericWriter[Row](f)
	_, err = writer.Write([]Row{
		{ID: 1, Name: "alice", Wage: 10.5},
		{ID: 2, Name: "bob", Wage: 20},
	})
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, f.Close())

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "wage"}, tbl.ColumnNames())
	assert.Equal(t, 2, tbl.NumRows())
	id, _ := tbl.Column("id")
	assert.Equal(t, []float64{1, 2}, id.Nums)
	name, _ := tbl.Column("name")
	assert.Equal(t, []string{"alice", "bob"}, name.Strs)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Load("data.xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
