package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/arbor/pkg/script"
	"github.com/kittclouds/arbor/pkg/tree"
)

// buildStory creates a consistent story: n nodes in a chain with one choice
// edge between each pair.
func buildStory(t *testing.T, n int) *script.Story {
	t.Helper()
	s := script.NewStory("test")
	s.Names["cat"] = "Behemoth"
	s.Vals["coins"] = 10

	for i := 0; i < n; i++ {
		sec := s.Append("::cat::some dialogue with ::cat:: inside")
		_, err := s.Tree.AddNode(script.NewDialogue(sec, script.Pos{}))
		require.NoError(t, err)
	}
	for i := 0; i+1 < n; i++ {
		sec := s.Append("offer milk to ::cat::")
		choice := script.NewChoice(sec,
			script.Requirement{Kind: script.ReqGreater, Key: "coins", Val: 1},
			script.Effect{Kind: script.EffectSub, Key: "coins", Val: 2},
		)
		_, err := s.Tree.AddEdge(tree.NodeIndex(i), tree.NodeIndex(i+1), choice)
		require.NoError(t, err)
	}
	return s
}

func TestRunConsistentStory(t *testing.T) {
	s := buildStory(t, 20)
	assert.NoError(t, Run(s, 4))
	assert.NoError(t, Run(s, 1))
	assert.NoError(t, Run(s, 0), "defaults worker count")
}

func TestRunEmptyStory(t *testing.T) {
	s := script.NewStory("empty")
	assert.NoError(t, Run(s, 4))
}

func TestCorruptedHash(t *testing.T) {
	s := buildStory(t, 5)
	node, err := s.Tree.Node(2)
	require.NoError(t, err)
	node.Section.Hash++

	assert.ErrorIs(t, Run(s, 4), script.ErrInvalidHash)
	assert.ErrorIs(t, Node(s, 2), script.ErrInvalidHash)
}

func TestSectionOutOfBounds(t *testing.T) {
	s := buildStory(t, 5)
	edge, err := s.Tree.Edge(1)
	require.NoError(t, err)
	edge.Section.End = len(s.Text) + 40

	assert.ErrorIs(t, Run(s, 4), script.ErrInvalidSection)
	assert.ErrorIs(t, Edge(s, 1), script.ErrInvalidSection)
}

func TestUnknownNameKeyInText(t *testing.T) {
	s := buildStory(t, 3)
	delete(s.Names, "cat")
	err := Run(s, 4)
	require.Error(t, err)
	// either a node or an edge check reports first
	assert.True(t, errors.Is(err, script.ErrNodeParse) || errors.Is(err, script.ErrEdgeParse),
		"got: %v", err)
}

func TestRequirementEffectKeys(t *testing.T) {
	s := buildStory(t, 3)
	delete(s.Vals, "coins")
	assert.ErrorIs(t, Run(s, 4), script.ErrValueNotExists)
	assert.ErrorIs(t, Edge(s, 0), script.ErrValueNotExists)
}

func TestInvalidIndex(t *testing.T) {
	s := buildStory(t, 2)
	assert.ErrorIs(t, Node(s, 99), tree.ErrInvalidNodeIndex)
	assert.ErrorIs(t, Edge(s, 99), tree.ErrInvalidEdgeIndex)
}

func TestChunks(t *testing.T) {
	assert.Nil(t, chunks(0, 4))
	assert.Equal(t, []span{{0, 1}}, chunks(1, 4))
	assert.Equal(t, []span{{0, 3}, {3, 6}, {6, 8}, {8, 10}}, chunks(10, 4))

	// spans must cover [0, n) without gaps or overlap
	total := 0
	prev := 0
	for _, c := range chunks(17, 5) {
		assert.Equal(t, prev, c.lo)
		total += c.hi - c.lo
		prev = c.hi
	}
	assert.Equal(t, 17, total)
}
