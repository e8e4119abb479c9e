package node

import "strings"

// Tree is a detached, closed tag subtree.
type Tree struct {
	Name        string  `json:"name" yaml:"name"`
	Args        Args    `json:"args,omitempty" yaml:"args,omitempty"`
	Content     string  `json:"content,omitempty" yaml:"content,omitempty"`
	Children    []*Tree `json:"children,omitempty" yaml:"children,omitempty"`
	OpenLine    int     `json:"open_line" yaml:"open_line"`
	CloseLine   int     `json:"close_line" yaml:"close_line"`
	ContextFree bool    `json:"context_free" yaml:"context_free"`
}

// Is reports whether the tag name matches any of names, ignoring case.
func (t *Tree) Is(names ...string) bool {
	for _, n := range names {
		if strings.EqualFold(t.Name, n) {
			return true
		}
	}

	return false
}

// HasChildren reports whether the tag encloses other tags.
func (t *Tree) HasChildren() bool {
	return len(t.Children) > 0
}

// Walk visits every descendant of t in document order. When obeyContextFree
// is set, the children of a descendant that is not context-free are
// skipped. Returning false from fn stops the walk.
func (t *Tree) Walk(obeyContextFree bool, fn func(*Tree) bool) {
	stack := make([]*Tree, 0, len(t.Children))
	for i := len(t.Children) - 1; i >= 0; i-- {
		stack = append(stack, t.Children[i])
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(cur) {
			return
		}
		if obeyContextFree && !cur.ContextFree {
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// Find returns the first descendant whose name matches any of names.
func (t *Tree) Find(obeyContextFree bool, names ...string) *Tree {
	var found *Tree
	t.Walk(obeyContextFree, func(d *Tree) bool {
		if d.Is(names...) {
			found = d
			return false
		}
		return true
	})

	return found
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := *t
	out.Args = t.Args.Clone()
	if t.Children != nil {
		out.Children = make([]*Tree, len(t.Children))
		for i, c := range t.Children {
			out.Children[i] = c.Clone()
		}
	}

	return &out
}
