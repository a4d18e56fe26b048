package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeghi71/tabql/table"
)

func sample() *table.Table {
	age := table.Numbers("age", 30, 0, 25)
	age.Missing[1] = true
	return table.NewTable(table.Texts("name", "alice", "bob", "carol"), age)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sample(), 0))

	out := buf.String()
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "null")
	assert.Contains(t, out, "(3 rows)")
}

func TestWriteTableShowsLabels(t *testing.T) {
	tbl := sample().Take([]int{0, 2})

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl, 0))

	var labels []string
	for _, line := range strings.Split(buf.String(), "\n") {
		fields := strings.Split(line, "|")
		if len(fields) > 2 {
			labels = append(labels, strings.TrimSpace(fields[1]))
		}
	}
	assert.Equal(t, []string{"", "0", "2"}, labels)
}

func TestWriteTableTruncates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sample(), 2))

	out := buf.String()
	assert.NotContains(t, out, "carol")
	assert.Contains(t, out, "1 more rows (3 total)")
}

func TestWriteTableNoColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, table.NewTable(), 10))
	assert.Equal(t, "(no columns)\n", buf.String())
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	WriteSchema(&buf, sample())

	out := buf.String()
	assert.Contains(t, out, "number")
	assert.Contains(t, out, "text")
	assert.Regexp(t, `age\s+\|\s+number\s+\|\s+1`, out)
}

func TestWriteNames(t *testing.T) {
	store := table.NewStore()
	store.Put("people", sample())

	var buf bytes.Buffer
	WriteNames(&buf, store)
	assert.Regexp(t, `people\s+\|\s+3\s+\|\s+2`, buf.String())
}
