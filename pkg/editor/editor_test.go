package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/arbor/pkg/script"
	"github.com/kittclouds/arbor/pkg/tree"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is a minimal in-memory Store for session tests; the real
// implementations live in internal/store.
type memStore struct {
	stories map[string]*script.Story
}

func (m *memStore) SaveStory(_ context.Context, s *script.Story) error {
	if m.stories == nil {
		m.stories = map[string]*script.Story{}
	}
	m.stories[s.Name] = s.Clone()
	return nil
}

func (m *memStore) LoadStory(_ context.Context, name string) (*script.Story, error) {
	s, ok := m.stories[name]
	if !ok {
		return nil, fmt.Errorf("memStore: story %q not found", name)
	}
	return s.Clone(), nil
}

func TestSimple(t *testing.T) {
	e := NewProject("simple_test", quiet())

	require.NoError(t, e.NewName("cat", "Behemoth"))
	assert.Equal(t, "Behemoth", e.Story().Names["cat"])

	require.NoError(t, e.NewValue("rus_lit", 50))
	assert.Equal(t, uint32(50), e.Story().Vals["rus_lit"])

	first, err := e.NewNode("cat", "Well, who knows, who knows", script.Pos{})
	require.NoError(t, err)
	second, err := e.NewNode("cat", "'I protest!' ::cat:: exclaimed hotly. 'Dostoevsky is immortal'", script.Pos{})
	require.NoError(t, err)

	_, err = e.NewEdge("Dostoevsky's dead", first, second,
		script.Requirement{Kind: script.ReqLess, Key: "rus_lit", Val: 51},
		script.Effect{Kind: script.EffectSub, Key: "rus_lit", Val: 1},
	)
	require.NoError(t, err)

	speaker, dialogue, err := e.NodeText(first)
	require.NoError(t, err)
	assert.Equal(t, "Behemoth", speaker)
	assert.Equal(t, "Well, who knows, who knows", dialogue)

	it, err := e.Story().Tree.OutgoingFrom(first)
	require.NoError(t, err)
	edgeIndex, ok := it.Next()
	require.True(t, ok)
	choiceText, err := e.EdgeText(edgeIndex)
	require.NoError(t, err)
	assert.Equal(t, "Dostoevsky's dead", choiceText)

	speaker, dialogue, err = e.NodeText(second)
	require.NoError(t, err)
	assert.Equal(t, "Behemoth", speaker)
	assert.Equal(t, "'I protest!' Behemoth exclaimed hotly. 'Dostoevsky is immortal'", dialogue)

	require.NoError(t, e.Validate(4))

	// save, reload, compare
	st := &memStore{}
	require.NoError(t, e.Save(context.Background(), st))
	loaded, err := Load(context.Background(), st, "simple_test", quiet())
	require.NoError(t, err)
	assert.Equal(t, e.Story(), loaded.Story())

	// rebuilding an already minimal story must not change resolved text
	require.NoError(t, e.Rebuild(2))
	speaker, dialogue, err = e.NodeText(first)
	require.NoError(t, err)
	assert.Equal(t, "Behemoth", speaker)
	assert.Equal(t, "Well, who knows, who knows", dialogue)
	choiceText, err = e.EdgeText(edgeIndex)
	require.NoError(t, err)
	assert.Equal(t, "Dostoevsky's dead", choiceText)
}

func TestUndoRedo(t *testing.T) {
	e := NewProject("undo_redo_test", quiet())
	require.NoError(t, e.NewName("cat", "Behemoth"))

	for i := 0; i < 10; i++ {
		idx, err := e.NewNode("cat", fmt.Sprintf("test dialogue %d", i), script.Pos{})
		require.NoError(t, err)
		_, err = e.NewEdge(fmt.Sprintf("test choice %d", i), 0, idx, script.Requirement{}, script.Effect{})
		require.NoError(t, err)
	}

	full := e.Story().Clone()

	for i := 0; i < 15; i++ {
		require.NoError(t, e.Undo())
	}
	for i := 0; i < 15; i++ {
		require.NoError(t, e.Redo())
	}

	assert.Equal(t, full, e.Story())
}

func TestMoveChoiceUndo(t *testing.T) {
	e := NewProject("move_test", quiet())
	require.NoError(t, e.NewName("cat", "Behemoth"))

	root, err := e.NewNode("cat", "pick one", script.Pos{})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		idx, err := e.NewNode("cat", fmt.Sprintf("outcome %d", i), script.Pos{})
		require.NoError(t, err)
		_, err = e.NewEdge(fmt.Sprintf("choice %d", i), root, idx, script.Requirement{}, script.Effect{})
		require.NoError(t, err)
	}

	order := func() []tree.EdgeIndex {
		it, err := e.Story().Tree.OutgoingFrom(root)
		require.NoError(t, err)
		return it.Collect()
	}
	assert.Equal(t, []tree.EdgeIndex{0, 1, 2}, order())

	require.NoError(t, e.MoveChoice(root, 2, 0))
	assert.Equal(t, []tree.EdgeIndex{2, 0, 1}, order())

	require.NoError(t, e.Undo())
	assert.Equal(t, []tree.EdgeIndex{0, 1, 2}, order())
	require.NoError(t, e.Redo())
	assert.Equal(t, []tree.EdgeIndex{2, 0, 1}, order())
}

func TestTableGuards(t *testing.T) {
	e := NewProject("guards", quiet())
	require.NoError(t, e.NewName("cat", "Behemoth"))
	require.NoError(t, e.NewValue("coins", 5))

	assert.ErrorIs(t, e.NewName("cat", "Murka"), script.ErrNameExists)
	assert.ErrorIs(t, e.NewValue("coins", 1), script.ErrValueExists)
	assert.ErrorIs(t, e.NewName("waytoolongkey", "x"), script.ErrKeyTooLong)
	assert.ErrorIs(t, e.EditName("dog", "Barbos"), script.ErrNameNotExists)
	assert.ErrorIs(t, e.EditValue("gems", 1), script.ErrValueNotExists)
	assert.ErrorIs(t, e.RemoveName("dog"), script.ErrNameNotExists)
	assert.ErrorIs(t, e.RemoveValue("gems"), script.ErrValueNotExists)

	// speaking node embeds ::cat:: in the buffer, blocking removal
	_, err := e.NewNode("cat", "hello", script.Pos{})
	require.NoError(t, err)
	assert.ErrorIs(t, e.RemoveName("cat"), script.ErrNameInUse)

	// unknown speaker
	_, err = e.NewNode("dog", "woof", script.Pos{})
	assert.ErrorIs(t, err, script.ErrNameNotExists)

	// value referenced by an effect cannot be removed
	idx, err := e.NewNode("cat", "again", script.Pos{})
	require.NoError(t, err)
	_, err = e.NewEdge("spend", 0, idx,
		script.Requirement{}, script.Effect{Kind: script.EffectSub, Key: "coins", Val: 1})
	require.NoError(t, err)
	assert.ErrorIs(t, e.RemoveValue("coins"), script.ErrValueInUse)

	// name referenced only by a requirement
	require.NoError(t, e.NewName("dog", "Barbos"))
	require.NoError(t, e.EditEdge(0, "spend",
		script.Requirement{Kind: script.ReqCmp, Key: "dog", Name: "Barbos"},
		script.Effect{}))
	assert.ErrorIs(t, e.RemoveName("dog"), script.ErrNameInUse)

	// unreferenced entries remove fine
	require.NoError(t, e.NewValue("gems", 0))
	require.NoError(t, e.RemoveValue("gems"))
	require.NoError(t, e.RemoveValue("coins"), "effect reference was edited away")
}

func TestEditNodeUndo(t *testing.T) {
	e := NewProject("edit_test", quiet())
	require.NoError(t, e.NewName("cat", "Behemoth"))

	idx, err := e.NewNode("cat", "original line", script.Pos{})
	require.NoError(t, err)

	require.NoError(t, e.EditNode(idx, "cat", "rewritten line"))
	_, dialogue, err := e.NodeText(idx)
	require.NoError(t, err)
	assert.Equal(t, "rewritten line", dialogue)

	require.NoError(t, e.Undo())
	_, dialogue, err = e.NodeText(idx)
	require.NoError(t, err)
	assert.Equal(t, "original line", dialogue, "old section still resolves, buffer is append-only")
}

func TestRebuildReclaimsDeadBytes(t *testing.T) {
	e := NewProject("rebuild_test", quiet())
	require.NoError(t, e.NewName("cat", "Behemoth"))

	idx, err := e.NewNode("cat", "first draft of a line", script.Pos{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, e.EditNode(idx, "cat", fmt.Sprintf("draft %d", i)))
	}
	bloated := len(e.Story().Text)

	require.NoError(t, e.Rebuild(2))
	assert.Less(t, len(e.Story().Text), bloated)
	assert.Zero(t, e.History().Len(), "rebuild clears the history")

	_, dialogue, err := e.NodeText(idx)
	require.NoError(t, err)
	assert.Equal(t, "draft 4", dialogue)

	// idempotence: rebuilding a minimal story changes nothing
	text := e.Story().Text
	treeBefore := e.Story().Tree.Clone()
	require.NoError(t, e.Rebuild(2))
	assert.Equal(t, text, e.Story().Text)
	assert.Equal(t, treeBefore, e.Story().Tree)
}

func TestRebuildUnreachable(t *testing.T) {
	e := NewProject("unreachable", quiet())
	require.NoError(t, e.NewName("cat", "Behemoth"))

	_, err := e.NewNode("cat", "root", script.Pos{})
	require.NoError(t, err)
	_, err = e.NewNode("cat", "orphan", script.Pos{})
	require.NoError(t, err)

	before := e.Story().Clone()
	assert.ErrorIs(t, e.Rebuild(2), ErrUnreachable)

	e.RestoreBackup()
	assert.Equal(t, before, e.Story())
}

func TestCompactCorruptedHash(t *testing.T) {
	e := NewProject("corrupt", quiet())
	require.NoError(t, e.NewName("cat", "Behemoth"))
	_, err := e.NewNode("cat", "hello", script.Pos{})
	require.NoError(t, err)

	node, err := e.Story().Tree.Node(0)
	require.NoError(t, err)
	node.Section.Hash++

	_, _, err = Compact(e.Story().Text, e.Story().Tree)
	assert.ErrorIs(t, err, script.ErrInvalidHash)
}

func TestCompactEmpty(t *testing.T) {
	s := script.NewStory("empty")
	text, rebuilt, err := Compact(s.Text, s.Tree)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Zero(t, rebuilt.NodeCount())
}
