package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONReport_PopulatesFromResultTables(t *testing.T) {
	t.Run("should carry over summary and detail rows", func(t *testing.T) {
		tables := sampleTables()
		tables.Summary[0].Site.File = "work.go"
		tables.Summary[0].Site.Line = 42
		tables.Summary[0].Site.Fingerprint = 0xC0FFEE

		r := NewJSONReport(tables)
		require.Len(t, r.Summary, 1)
		assert.Equal(t, "hot-path", r.Summary[0].Site)
		assert.Equal(t, "work.go", r.Summary[0].File)
		assert.Equal(t, 42, r.Summary[0].Line)
		assert.Equal(t, uint64(0xC0FFEE), r.Summary[0].Fingerprint)
		require.Len(t, r.Details, 1)
	})

	t.Run("should respect WithoutDetails", func(t *testing.T) {
		r := NewJSONReport(sampleTables(), WithoutDetails())
		assert.Nil(t, r.Details)
	})
}

func TestJSONReport_WriteReportProducesValidJSON(t *testing.T) {
	t.Run("should round-trip through encoding/json", func(t *testing.T) {
		r := NewJSONReport(sampleTables())

		var buf bytes.Buffer
		require.NoError(t, r.WriteReport(&buf))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Contains(t, decoded, "summary")
		assert.Contains(t, decoded, "details")
	})
}

func TestJSONReport_OmitsDetailsWhenNil(t *testing.T) {
	r := &JSONReport{Summary: []JSONSummaryRow{{Site: "x"}}}
	var buf bytes.Buffer
	require.NoError(t, r.WriteReport(&buf))
	assert.NotContains(t, buf.String(), `"details"`)
}
