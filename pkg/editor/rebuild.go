package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kittclouds/arbor/pkg/script"
	"github.com/kittclouds/arbor/pkg/tree"
)

// ErrUnreachable rejects compaction of a graph with nodes unreachable from
// the root. Compaction only copies reachable text, so proceeding would leave
// those nodes pointing at ranges that no longer exist.
var ErrUnreachable = errors.New("editor: graph has nodes unreachable from the root")

// Compact rebuilds the text buffer in depth-first visitation order from node
// 0, colocating each node's text with its outgoing edges' text. Reclaims the
// dead ranges the append-only edit model leaves behind and approximates a
// player's read order for locality.
//
// Topology is copied unchanged; only sections are rewritten. Every copied
// slice is hash-verified on read and rehashed after the copy, so a
// desynchronized buffer fails fast instead of being compacted into place.
func Compact(text string, t *script.Tree) (string, *script.Tree, error) {
	rebuilt := t.Clone()
	if t.NodeCount() == 0 {
		return "", rebuilt, nil
	}

	var buf strings.Builder
	buf.Grow(len(text))

	copySection := func(sec script.Section) (script.Section, error) {
		slice, err := sec.Slice(text)
		if err != nil {
			return script.Section{}, err
		}
		start := buf.Len()
		buf.WriteString(slice)
		return script.NewSection(start, buf.Len(), xxhash.Sum64String(slice)), nil
	}

	dfs := tree.NewDfs(t, 0)
	for {
		node, ok, err := dfs.Next()
		if err != nil {
			return "", nil, err
		}
		if !ok {
			break
		}

		dialogue, err := t.Node(node)
		if err != nil {
			return "", nil, err
		}
		section, err := copySection(dialogue.Section)
		if err != nil {
			return "", nil, fmt.Errorf("node %d: %w", node, err)
		}
		moved, err := rebuilt.Node(node)
		if err != nil {
			return "", nil, err
		}
		moved.Section = section

		it, err := t.OutgoingFrom(node)
		if err != nil {
			return "", nil, err
		}
		for edge, ok := it.Next(); ok; edge, ok = it.Next() {
			choice, err := t.Edge(edge)
			if err != nil {
				return "", nil, err
			}
			section, err := copySection(choice.Section)
			if err != nil {
				return "", nil, fmt.Errorf("edge %d: %w", edge, err)
			}
			movedEdge, err := rebuilt.Edge(edge)
			if err != nil {
				return "", nil, err
			}
			movedEdge.Section = section
		}
	}

	if dfs.Visited() != t.NodeCount() {
		return "", nil, ErrUnreachable
	}

	return buf.String(), rebuilt, nil
}

// Rebuild compacts the active story in place. The pre-rebuild state is kept
// as the backup snapshot; call RestoreBackup if the rebuild or the follow-up
// validation fails. The history is cleared on success since every recorded
// event references offsets into the old buffer.
func (e *Editor) Rebuild(workers int) error {
	e.log.Info("rebuilding story", "textBytes", len(e.story.Text))
	e.backup = e.story.Clone()

	text, rebuilt, err := Compact(e.story.Text, e.story.Tree)
	if err != nil {
		return err
	}
	e.story.Text = text
	e.story.Tree = rebuilt

	if err := e.Validate(workers); err != nil {
		return fmt.Errorf("rebuilt story failed validation: %w", err)
	}

	e.hist.Clear()
	e.log.Info("rebuild complete", "textBytes", len(text))
	return nil
}
