package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infobot/infobot/internal/domain/dialog"
)

func TestKeyboardForNode(t *testing.T) {
	tree, err := dialog.NewParser("", nil).Parse(strings.NewReader(strings.Join([]string{
		"root|Welcome|Start|",
		"1|First body|First|",
		"2|Second body|Second|",
	}, "\n")))
	require.NoError(t, err)

	markup := keyboardForNode(tree, tree.Root())
	require.Len(t, markup.InlineKeyboard, 2)

	first := markup.InlineKeyboard[0][0]
	assert.Equal(t, "First", first.Text)
	token, ok := tree.Token("1")
	require.True(t, ok)
	require.NotNil(t, first.CallbackData)
	assert.Equal(t, token, *first.CallbackData)

	// Callback data carries only opaque tokens, never dotted paths.
	for _, row := range markup.InlineKeyboard {
		assert.NotContains(t, *row[0].CallbackData, ".")
	}
}

func TestKeyboardForLeafNode(t *testing.T) {
	tree, err := dialog.NewParser("", nil).Parse(strings.NewReader("root|Welcome|Start|\n1|Body|Leaf|\n"))
	require.NoError(t, err)

	node, ok := tree.NodeByToken(mustToken(t, tree, "1"))
	require.True(t, ok)
	markup := keyboardForNode(tree, node)
	assert.Empty(t, markup.InlineKeyboard)
}

func mustToken(t *testing.T, tree *dialog.Tree, path string) string {
	t.Helper()
	token, ok := tree.Token(path)
	require.True(t, ok)
	return token
}
