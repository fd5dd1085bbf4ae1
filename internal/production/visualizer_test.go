// Tests for Visualizer DOT and JSON export of observed transitions.
package production

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisualizer_ExportDOT(t *testing.T) {
	v := NewVisualizer("line-1", idle)
	drive(t, v)

	dot := v.ExportDOT()
	assert.True(t, strings.HasPrefix(dot, `digraph "line-1" {`), dot)
	for _, s := range []string{`"idle"`, `"running"`, `"done"`} {
		assert.Contains(t, dot, s)
	}
	assert.Contains(t, dot, `"idle" -> "running" [label="1"];`)
	assert.Contains(t, dot, `"running" -> "done" [label="1"];`)
	assert.Contains(t, dot, `"idle" [label="idle" style="rounded,filled" fillcolor=lightgreen];`)
}

func TestVisualizer_ExportJSON(t *testing.T) {
	v := NewVisualizer("line-1", idle)
	drive(t, v)
	drive(t, v)

	data, err := v.ExportJSON()
	require.NoError(t, err)

	var g Graph
	require.NoError(t, json.Unmarshal(data, &g))
	assert.Equal(t, "line-1", g.Machine)
	assert.Equal(t, "idle", g.Current)
	assert.Equal(t, []string{"done", "idle", "running"}, g.States)
	assert.Equal(t, []Edge{
		{From: "idle", To: "running", Count: 2},
		{From: "running", To: "done", Count: 2},
	}, g.Edges)
}
