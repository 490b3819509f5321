package dialog

// Node is a single message in the dialog tree: a long-form body, a short
// summary used for keyboard buttons, an optional image and an ordered list
// of child choices.
type Node struct {
	Text      string
	ShortText string
	Image     string
	Choices   []Choice
}

// Choice binds a child node to its full dotted path (e.g. "1.2.3").
type Choice struct {
	Path string
	Node *Node
}

// Child returns the direct child stored under the given dotted path.
func (n *Node) Child(path string) (*Node, bool) {
	for _, c := range n.Choices {
		if c.Path == path {
			return c.Node, true
		}
	}
	return nil, false
}

// AddChild attaches a child under the given dotted path, replacing any
// existing child with the same path. Order of first insertion is preserved.
func (n *Node) AddChild(path string, child *Node) {
	for i, c := range n.Choices {
		if c.Path == path {
			n.Choices[i].Node = child
			return
		}
	}
	n.Choices = append(n.Choices, Choice{Path: path, Node: child})
}
