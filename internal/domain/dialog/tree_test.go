package dialog

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeByTokenUnknown(t *testing.T) {
	tree := parse(t, "root|Top|Top|\n1|a|a|\n")
	node, ok := tree.NodeByToken("no-such-token")
	assert.False(t, ok)
	assert.Nil(t, node)
}

func TestRegistrySwapInvalidatesOldTokens(t *testing.T) {
	oldTree := parse(t, "root|Top|Top|\n1|a|a|\n")
	newTree := parse(t, "root|Top|Top|\n2|b|b|\n")
	oldToken := mustToken(t, oldTree, "1")

	reg := NewRegistry(oldTree)
	_, ok := reg.NodeByToken(oldToken)
	require.True(t, ok)

	reg.Swap(newTree)
	_, ok = reg.NodeByToken(oldToken)
	assert.False(t, ok, "token from a superseded generation must not resolve")
	_, ok = reg.NodeByToken(mustToken(t, newTree, "2"))
	assert.True(t, ok)
}

func TestRegistryEmpty(t *testing.T) {
	reg := NewRegistry(nil)
	_, ok := reg.NodeByToken("anything")
	assert.False(t, ok)
}

// Concurrent lookups during a reload must observe either the old or the new
// generation in full, never a mix.
func TestRegistrySwapConcurrent(t *testing.T) {
	treeA := parse(t, "root|Top|Top|\n1|from A|a|\n")
	treeB := parse(t, "root|Top|Top|\n1|from B|b|\n")
	tokenA := mustToken(t, treeA, "1")
	tokenB := mustToken(t, treeB, "1")
	require.Equal(t, tokenA, tokenB, "same path hashes to the same token")

	reg := NewRegistry(treeA)
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				node, ok := reg.NodeByToken(tokenA)
				if !ok {
					continue
				}
				if node.Text != "from A" && node.Text != "from B" {
					t.Errorf("mixed generation observed: %q", node.Text)
					return
				}
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		if i%2 == 0 {
			reg.Swap(treeB)
		} else {
			reg.Swap(treeA)
		}
	}
	close(done)
	wg.Wait()
}

func TestAddChildReplacesSamePath(t *testing.T) {
	root := &Node{}
	root.AddChild("1", &Node{Text: "first"})
	root.AddChild("1", &Node{Text: "second"})

	require.Len(t, root.Choices, 1)
	child, ok := root.Child("1")
	require.True(t, ok)
	assert.Equal(t, "second", child.Text)
}

func TestTreeWalkBrokenPath(t *testing.T) {
	// A token map entry whose path no longer walks is a miss, not a panic.
	tree := parse(t, strings.Join([]string{
		"root|Top|Top|",
		"1|a|a|",
		"1.1|b|b|",
	}, "\n"))
	tree.root.Choices = nil

	_, ok := tree.NodeByToken(mustToken(t, tree, "1.1"))
	assert.False(t, ok)
}
