package content

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sigil/internal/node"
)

func TestAddContentFoldsMode(t *testing.T) {
	m := New()
	m.AddContent(0, "VAR", "", node.Args{{Value: "name"}})
	m.AddContent(0, "char", "hi", nil)

	require.Len(t, m.Units, 2)
	assert.Equal(t, "var", m.Units[0].Mode)
	assert.Equal(t, "hi", m.Units[1].Text)
}

func TestUnitLines(t *testing.T) {
	m := New()
	m.AddContent(4, "char", "hi", nil)
	m.DefineBlock("header", []Unit{NewUnit("char", "a", nil, nil).At(2)})

	require.Len(t, m.Units, 1)
	assert.Equal(t, 4, m.Units[0].Line)

	clone := m.Clone()
	units, ok := clone.Block("header")
	require.True(t, ok)
	assert.Equal(t, 2, units[0].Line)

	data, err := json.Marshal(m.Units[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"line":4`)
}

func TestBlocks(t *testing.T) {
	m := New()

	assert.False(t, m.AppendToBlock("header", Unit{Mode: "char"}), "append needs an existing block")
	assert.False(t, m.IsBlock("header"))

	m.DefineBlock("header", nil)
	assert.True(t, m.IsBlock("header"))
	units, ok := m.Block("header")
	require.True(t, ok)
	assert.Empty(t, units)

	assert.True(t, m.AppendToBlock("header", Unit{Mode: "char", Text: "a"}))
	assert.True(t, m.AppendToBlock("header", Unit{Mode: "char", Text: "b"}))
	units, _ = m.Block("header")
	assert.Len(t, units, 2)

	m.DefineBlock("header", []Unit{{Mode: "char", Text: "replaced"}})
	units, _ = m.Block("header")
	assert.Equal(t, []Unit{{Mode: "char", Text: "replaced"}}, units)
}

func TestMergeBlocksOverrides(t *testing.T) {
	m := New()
	m.DefineBlock("a", []Unit{{Mode: "char", Text: "old"}})
	m.DefineBlock("b", []Unit{{Mode: "char", Text: "keep"}})

	other := map[string][]Unit{
		"a": {{Mode: "char", Text: "new"}},
		"c": {{Mode: "char", Text: "added"}},
	}
	m.MergeBlocks(other)
	other["a"][0].Text = "mutated"

	assert.Equal(t, []string{"a", "b", "c"}, m.BlockNames())
	units, _ := m.Block("a")
	assert.Equal(t, "new", units[0].Text, "merged blocks are copies")
}

func TestClearUnitsKeepsBlocks(t *testing.T) {
	m := New()
	m.AddContent(0, "char", "x", nil)
	m.DefineBlock("b", nil)

	m.ClearUnits()

	assert.Empty(t, m.Units)
	assert.True(t, m.IsBlock("b"))
}

func TestCloneIsDeep(t *testing.T) {
	m := New()
	m.AddUnits([]Unit{{
		Mode:  "use",
		Args:  node.Args{{Value: "b"}},
		Nodes: []*node.Tree{{Name: "v", Args: node.Args{{Value: "x"}}}},
	}})
	m.DefineBlock("b", []Unit{{Mode: "char", Text: "t"}})

	clone := m.Clone()
	clone.Units[0].Args[0].Value = "changed"
	clone.Units[0].Nodes[0].Name = "changed"
	clone.Blocks["b"][0].Text = "changed"

	assert.Equal(t, "b", m.Units[0].Args[0].Value)
	assert.Equal(t, "v", m.Units[0].Nodes[0].Name)
	assert.Equal(t, "t", m.Blocks["b"][0].Text)
}

func TestModelSurvivesJSON(t *testing.T) {
	m := New()
	m.AddContent(0, "var", "", node.Args{{Value: "a"}, {Name: "default", Value: "b"}})
	m.DefineBlock("greet", []Unit{
		{Mode: "char", Text: "Hello "},
		{Mode: "arg", Args: node.Args{{Value: "1"}}},
	})

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Model
	require.NoError(t, json.Unmarshal(data, &decoded))

	if diff := cmp.Diff(m, &decoded); diff != "" {
		t.Errorf("JSON round trip mismatch (-want +got):\n%s", diff)
	}
}
