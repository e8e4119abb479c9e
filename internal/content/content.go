// Package content holds the render sequence produced by mode handlers.
package content

import (
	"sort"

	"golang.org/x/text/cases"

	"github.com/conneroisu/sigil/internal/node"
)

// Unit is one entry of the render sequence.
type Unit struct {
	Mode  string       `json:"mode" yaml:"mode"`
	Text  string       `json:"text,omitempty" yaml:"text,omitempty"`
	Args  node.Args    `json:"args,omitempty" yaml:"args,omitempty"`
	Nodes []*node.Tree `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	// Line is where the unit's tag opened, 0 when unknown.
	Line int `json:"line,omitempty" yaml:"line,omitempty"`
}

// NewUnit builds a unit with a case folded mode name.
func NewUnit(mode, text string, args node.Args, nodes []*node.Tree) Unit {
	return Unit{
		Mode:  cases.Fold().String(mode),
		Text:  text,
		Args:  args,
		Nodes: nodes,
	}
}

// At returns u with its source line set.
func (u Unit) At(line int) Unit {
	u.Line = line

	return u
}

// Clone returns a deep copy.
func (u Unit) Clone() Unit {
	out := u
	out.Args = u.Args.Clone()
	if u.Nodes != nil {
		out.Nodes = make([]*node.Tree, len(u.Nodes))
		for i, n := range u.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}

	return out
}

// Model is the ordered top-level units plus the named blocks.
type Model struct {
	Units  []Unit            `json:"units" yaml:"units"`
	Blocks map[string][]Unit `json:"blocks" yaml:"blocks"`
}

// New creates an empty model.
func New() *Model {
	return &Model{Blocks: make(map[string][]Unit)}
}

// AddContent appends a unit opened on line to the render sequence.
func (m *Model) AddContent(line int, mode, text string, args node.Args) {
	m.Units = append(m.Units, NewUnit(mode, text, args, nil).At(line))
}

// AddUnits appends units to the render sequence.
func (m *Model) AddUnits(units []Unit) {
	m.Units = append(m.Units, units...)
}

// ClearUnits empties the render sequence. Blocks are kept.
func (m *Model) ClearUnits() {
	m.Units = nil
}

// DefineBlock replaces any earlier definition of name.
func (m *Model) DefineBlock(name string, units []Unit) {
	if m.Blocks == nil {
		m.Blocks = make(map[string][]Unit)
	}
	if units == nil {
		units = []Unit{}
	}
	m.Blocks[name] = units
}

// AppendToBlock adds u to an existing block. It reports false when the
// block is not defined.
func (m *Model) AppendToBlock(name string, u Unit) bool {
	units, ok := m.Blocks[name]
	if !ok {
		return false
	}
	m.Blocks[name] = append(units, u)

	return true
}

// IsBlock reports whether name is defined.
func (m *Model) IsBlock(name string) bool {
	_, ok := m.Blocks[name]

	return ok
}

// Block returns the units of a block.
func (m *Model) Block(name string) ([]Unit, bool) {
	units, ok := m.Blocks[name]

	return units, ok
}

// BlockNames returns the defined block names in sorted order.
func (m *Model) BlockNames() []string {
	names := make([]string, 0, len(m.Blocks))
	for name := range m.Blocks {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// MergeBlocks copies blocks into m, overriding same-named definitions.
func (m *Model) MergeBlocks(blocks map[string][]Unit) {
	for name, units := range blocks {
		m.DefineBlock(name, cloneUnits(units))
	}
}

// Clone returns a deep copy.
func (m *Model) Clone() *Model {
	out := &Model{
		Units:  cloneUnits(m.Units),
		Blocks: make(map[string][]Unit, len(m.Blocks)),
	}
	for name, units := range m.Blocks {
		out.Blocks[name] = cloneUnits(units)
	}

	return out
}

func cloneUnits(units []Unit) []Unit {
	if units == nil {
		return nil
	}
	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = u.Clone()
	}

	return out
}
