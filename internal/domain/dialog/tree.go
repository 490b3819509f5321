package dialog

import (
	"strings"
	"sync/atomic"
)

// Tree is one immutable generation of the dialog: a root node plus the
// bidirectional token map built for exactly that generation. Dotted paths
// never leave the process; external callers only ever see tokens.
type Tree struct {
	root        *Node
	tokenToPath map[string]string
	pathToToken map[string]string
}

// Root returns the tree root.
func (t *Tree) Root() *Node {
	return t.root
}

// RootChoices returns the root's choices for initial keyboard construction.
func (t *Tree) RootChoices() []Choice {
	return t.root.Choices
}

// Token returns the opaque token assigned to a dotted path in this
// generation. The root has no token.
func (t *Tree) Token(path string) (string, bool) {
	tok, ok := t.pathToToken[path]
	return tok, ok
}

// NodeByToken resolves a token to its node by walking the tree segment by
// segment. Unknown tokens and broken paths both report not found.
func (t *Tree) NodeByToken(token string) (*Node, bool) {
	path, ok := t.tokenToPath[token]
	if !ok {
		return nil, false
	}
	return t.nodeByPath(path)
}

func (t *Tree) nodeByPath(path string) (*Node, bool) {
	segments := strings.Split(path, ".")
	cur := t.root
	for i := range segments {
		next, ok := cur.Child(strings.Join(segments[:i+1], "."))
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Registry holds the live tree generation behind an atomic pointer.
// Readers never block on a reload and never observe a half-built tree:
// Swap publishes a fully constructed Tree, and tokens minted by a superseded
// generation simply stop resolving.
type Registry struct {
	live atomic.Pointer[Tree]
}

// NewRegistry creates a registry publishing the given tree.
func NewRegistry(t *Tree) *Registry {
	r := &Registry{}
	r.live.Store(t)
	return r
}

// Current returns the live tree generation.
func (r *Registry) Current() *Tree {
	return r.live.Load()
}

// Swap atomically replaces the live tree generation.
func (r *Registry) Swap(t *Tree) {
	r.live.Store(t)
}

// NodeByToken resolves a token against the live generation.
func (r *Registry) NodeByToken(token string) (*Node, bool) {
	t := r.live.Load()
	if t == nil {
		return nil, false
	}
	return t.NodeByToken(token)
}
