// output_test.go - Tests for report building and the output formatters.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dev-console/gridmat/internal/grid"
	"github.com/dev-console/gridmat/internal/materialize"
)

func sampleResult() materialize.Result {
	rows := []grid.Row{
		{Index: "0", Key: "a", Expandable: true, Cells: map[string]string{"name": "Tables", "type": "group"}},
		{Index: "1", Key: "b", HasIcon: true, Indent: 0, Expandable: true, Cells: map[string]string{"name": "account", "type": "table"}},
		{Index: "2", Key: "c", HasIcon: true, Indent: 16, Cells: map[string]string{"name": "name, primary", "type": "column"}},
	}
	res := materialize.Result{
		Complete:   true,
		Steps:      3,
		GapRetries: 1,
		Elapsed:    3500 * time.Millisecond,
		Height:     1260,
		Generation: 2,
	}
	for i, r := range rows {
		res.Entries = append(res.Entries, materialize.Entry{Index: i, Row: r})
	}
	return res
}

// ============================================
// Report
// ============================================

func TestNewReportHierarchy(t *testing.T) {
	t.Parallel()
	r := NewReport("simulate", sampleResult(), nil)

	require.Len(t, r.Rows, 3)
	assert.Equal(t, ReportRow{Index: 0, Depth: 0, Parent: -1, Toggle: true, Cells: map[string]string{"name": "Tables", "type": "group"}}, r.Rows[0])
	assert.Equal(t, 1, r.Rows[1].Depth)
	assert.Equal(t, 0, r.Rows[1].Parent)
	assert.True(t, r.Rows[1].Toggle)
	assert.Equal(t, 1, r.Rows[2].Parent)
	assert.Equal(t, 2, r.Rows[2].Depth)
	assert.False(t, r.Rows[2].Toggle)
	assert.Equal(t, []string{"name", "type"}, r.Columns())
	assert.Zero(t, r.Filtered)
}

func TestNewReportFilteredAndError(t *testing.T) {
	t.Parallel()
	res := sampleResult()
	res.Complete = false
	res.Err = errors.New("boom")
	r := NewReport("run", res, res.Rows()[:1])

	assert.Equal(t, 2, r.Filtered)
	assert.Equal(t, "boom", r.Error)
	assert.Len(t, r.Rows, 1)
}

// ============================================
// Formatters
// ============================================

func TestGetFormatter(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"", "human", "json", "csv", "yaml"} {
		f, err := GetFormatter(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	_, err := GetFormatter("xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, NewReport("run", sampleResult(), nil)))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, true, got["complete"])
	assert.EqualValues(t, 3, got["steps"])
	assert.Len(t, got["rows"], 3)
}

func TestYAMLFormatter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, NewReport("run", sampleResult(), nil)))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run", got["command"])
	assert.Equal(t, true, got["complete"])
	assert.Len(t, got["rows"], 3)
}

func TestCSVFormatter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, (&CSVFormatter{}).Format(&buf, NewReport("run", sampleResult(), nil)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"index", "depth", "parent", "name", "type"}, records[0])
	assert.Equal(t, []string{"2", "2", "1", "name, primary", "column"}, records[3])
}

func TestHumanFormatter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{}).Format(&buf, NewReport("simulate", sampleResult(), nil)))
	out := buf.String()

	assert.Contains(t, out, "[OK]")
	assert.Contains(t, out, "3 rows materialized")
	assert.Contains(t, out, "account")
	assert.Contains(t, out, "    name, primary")
	assert.Contains(t, out, "1 gap retries")
	assert.Contains(t, out, "took 3.5s")
	assert.Contains(t, out, "height 1,260px")
}

func TestHumanFormatterPartialTruncated(t *testing.T) {
	t.Parallel()
	res := sampleResult()
	res.Complete = false
	res.Reason = "gap retries exhausted"
	res.Missing = []int{7}

	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{MaxRows: 1}).Format(&buf, NewReport("run", res, nil)))
	out := buf.String()

	assert.Contains(t, out, "[Partial]")
	assert.Contains(t, out, "gap retries exhausted")
	assert.Contains(t, out, "2 more")
	assert.Contains(t, out, "1 missing")
	assert.False(t, strings.Contains(out, "name, primary"))
}
