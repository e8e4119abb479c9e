// Package node holds tag nodes while a template is being tokenized.
//
// Open nodes live in an Arena and refer to each other by ID. The arena is
// the only owner; a node's Parent is a plain index used for lookups. Once
// an outermost tag closes, its subtree is detached into a Tree, which owns
// its children directly and is what the content model keeps.
package node

// ID addresses a node inside an Arena.
type ID int

// NoParent marks a node that has not been re-parented.
const NoParent ID = -1

// Node is one opened tag instance.
type Node struct {
	Name        string
	Args        Args
	Children    []ID
	Parent      ID
	OpenLine    int
	CloseLine   int
	Closed      bool
	ContextFree bool

	content []rune
}

// AppendName appends r to the tag name.
func (n *Node) AppendName(r rune) {
	n.Name += string(r)
}

// AppendContent appends r to the inline literal content.
func (n *Node) AppendContent(r rune) {
	n.content = append(n.content, r)
}

// SetContent replaces the inline literal content.
func (n *Node) SetContent(s string) {
	n.content = []rune(s)
}

// Content returns the inline literal content.
func (n *Node) Content() string {
	return string(n.content)
}

// Arena stores nodes for one tokenization pass.
type Arena struct {
	nodes []Node
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// New allocates an open node first seen on line.
func (a *Arena) New(line int) ID {
	a.nodes = append(a.nodes, Node{Parent: NoParent, OpenLine: line})

	return ID(len(a.nodes) - 1)
}

// Get returns the node for id. The pointer is invalidated by the next New.
func (a *Arena) Get(id ID) *Node {
	return &a.nodes[id]
}

// Len returns the number of allocated nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// AppendChildren attaches children to parent in order and points each
// child back at parent.
func (a *Arena) AppendChildren(parent ID, children []ID) {
	p := &a.nodes[parent]
	p.Children = append(p.Children, children...)
	for _, c := range children {
		a.nodes[c].Parent = parent
	}
}

// Reset drops every node. IDs handed out earlier become invalid.
func (a *Arena) Reset() {
	a.nodes = a.nodes[:0]
}

// Detach copies the subtree rooted at id into an owned Tree.
func (a *Arena) Detach(id ID) *Tree {
	type frame struct {
		id  ID
		out *Tree
	}

	root := a.snapshot(id)
	stack := []frame{{id: id, out: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &a.nodes[f.id]
		if len(n.Children) == 0 {
			continue
		}
		f.out.Children = make([]*Tree, len(n.Children))
		for i, c := range n.Children {
			child := a.snapshot(c)
			f.out.Children[i] = child
			stack = append(stack, frame{id: c, out: child})
		}
	}

	return root
}

func (a *Arena) snapshot(id ID) *Tree {
	n := &a.nodes[id]

	return &Tree{
		Name:        n.Name,
		Args:        n.Args.Clone(),
		Content:     n.Content(),
		OpenLine:    n.OpenLine,
		CloseLine:   n.CloseLine,
		ContextFree: n.ContextFree,
	}
}
