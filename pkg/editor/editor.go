// Package editor implements the session layer for editing a story: it owns
// the active story, an in-memory backup snapshot, and the undo/redo history,
// and keeps the three consistent across every operation.
package editor

import (
	"context"
	"log/slog"

	"github.com/kittclouds/arbor/pkg/history"
	"github.com/kittclouds/arbor/pkg/script"
	"github.com/kittclouds/arbor/pkg/tree"
	"github.com/kittclouds/arbor/pkg/validate"
)

// Store persists stories between sessions. Implemented by the SQLite and
// file stores in internal/store.
type Store interface {
	SaveStory(ctx context.Context, s *script.Story) error
	LoadStory(ctx context.Context, name string) (*script.Story, error)
}

// Editor is the single-writer editing session for one story. It is not safe
// for concurrent use; callers serialize operations.
type Editor struct {
	story  *script.Story
	backup *script.Story
	hist   *history.History
	log    *slog.Logger
}

// NewProject creates an editor with a fresh empty story.
func NewProject(name string, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	story := script.NewStory(name)
	return &Editor{
		story:  story,
		backup: story.Clone(),
		hist:   history.New(),
		log:    logger.With("story", name),
	}
}

// Load opens a persisted story. The story is validated in full before it
// becomes the active copy.
func Load(ctx context.Context, st Store, name string, logger *slog.Logger) (*Editor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	story, err := st.LoadStory(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := validate.Run(story, 0); err != nil {
		return nil, err
	}
	logger.Info("loaded story", "story", name, "nodes", story.Tree.NodeCount(), "edges", story.Tree.EdgeCount())
	return &Editor{
		story:  story,
		backup: story.Clone(),
		hist:   history.New(),
		log:    logger.With("story", name),
	}, nil
}

// Story exposes the active story for read access.
func (e *Editor) Story() *script.Story {
	return e.story
}

// History exposes the undo/redo log.
func (e *Editor) History() *history.History {
	return e.hist
}

// Save persists the active story and syncs the backup snapshot with it.
func (e *Editor) Save(ctx context.Context, st Store) error {
	e.log.Info("saving story")
	if err := st.SaveStory(ctx, e.story); err != nil {
		return err
	}
	e.backup = e.story.Clone()
	return nil
}

// RestoreBackup swaps the active story with the backup snapshot. Used to
// recover after a failed rebuild or a bad batch of edits.
func (e *Editor) RestoreBackup() {
	e.log.Warn("restoring backup snapshot")
	e.story, e.backup = e.backup, e.story
}

// Undo reverts the most recent operation.
func (e *Editor) Undo() error {
	e.log.Debug("undo")
	return e.hist.Undo(e.story)
}

// Redo replays the most recently undone operation.
func (e *Editor) Redo() error {
	e.log.Debug("redo")
	return e.hist.Redo(e.story)
}

// NewNode appends a dialogue node speaking as the given name-table key. The
// raw text is stored as "::speaker::dialogue"; the dialogue may embed further
// ::key:: references.
func (e *Editor) NewNode(speaker, dialogue string, pos script.Pos) (tree.NodeIndex, error) {
	if _, ok := e.story.Names[speaker]; !ok {
		return 0, script.ErrNameNotExists
	}

	section := e.story.Append(script.TokenSep + speaker + script.TokenSep + dialogue)
	event, err := e.story.Tree.AddNode(script.NewDialogue(section, pos))
	if err != nil {
		return 0, err
	}
	e.hist.Push(history.NodeInsert(event))
	e.log.Info("new node", "index", event.Index, "speaker", speaker)
	return event.Index, nil
}

// NewEdge appends a choice edge between two nodes. The requirement and
// effect are validated against the tables before anything is recorded.
func (e *Editor) NewEdge(text string, source, target tree.NodeIndex, req script.Requirement, eff script.Effect) (tree.EdgeIndex, error) {
	if err := req.Validate(e.story.Names, e.story.Vals); err != nil {
		return 0, err
	}
	if err := eff.Validate(e.story.Names, e.story.Vals); err != nil {
		return 0, err
	}

	section := e.story.Append(text)
	event, err := e.story.Tree.AddEdge(source, target, script.NewChoice(section, req, eff))
	if err != nil {
		return 0, err
	}
	e.hist.Push(history.EdgeInsert(event))
	e.log.Info("new edge", "index", event.Index, "source", source, "target", target)
	return event.Index, nil
}

// NewName adds a key to the name table.
func (e *Editor) NewName(key, name string) error {
	if err := script.ValidateKey(key); err != nil {
		return err
	}
	if err := script.ValidateName(name); err != nil {
		return err
	}
	if _, ok := e.story.Names[key]; ok {
		return script.ErrNameExists
	}

	e.story.Names[key] = name
	e.hist.Push(history.NameInsert{Key: key, Name: name})
	e.log.Info("new name", "key", key)
	return nil
}

// NewValue adds a key to the value table.
func (e *Editor) NewValue(key string, val uint32) error {
	if err := script.ValidateKey(key); err != nil {
		return err
	}
	if _, ok := e.story.Vals[key]; ok {
		return script.ErrValueExists
	}

	e.story.Vals[key] = val
	e.hist.Push(history.ValueInsert{Key: key, Val: val})
	e.log.Info("new value", "key", key)
	return nil
}

// EditNode replaces a node's speaker and dialogue. The new text is appended
// to the buffer; the old range becomes dead weight until the next rebuild.
func (e *Editor) EditNode(index tree.NodeIndex, speaker, dialogue string) error {
	if _, ok := e.story.Names[speaker]; !ok {
		return script.ErrNameNotExists
	}
	old, err := e.story.Tree.Node(index)
	if err != nil {
		return err
	}

	section := e.story.Append(script.TokenSep + speaker + script.TokenSep + dialogue)
	event, err := e.story.Tree.EditNode(index, script.NewDialogue(section, old.Pos))
	if err != nil {
		return err
	}
	e.hist.Push(history.NodeEdit(event))
	e.log.Info("edit node", "index", index)
	return nil
}

// MoveNode updates a node's canvas position without touching its text.
func (e *Editor) MoveNode(index tree.NodeIndex, pos script.Pos) error {
	old, err := e.story.Tree.Node(index)
	if err != nil {
		return err
	}

	event, err := e.story.Tree.EditNode(index, script.NewDialogue(old.Section, pos))
	if err != nil {
		return err
	}
	e.hist.Push(history.NodeEdit(event))
	return nil
}

// EditEdge replaces an edge's text, requirement and effect.
func (e *Editor) EditEdge(index tree.EdgeIndex, text string, req script.Requirement, eff script.Effect) error {
	if err := req.Validate(e.story.Names, e.story.Vals); err != nil {
		return err
	}
	if err := eff.Validate(e.story.Names, e.story.Vals); err != nil {
		return err
	}
	if _, err := e.story.Tree.Edge(index); err != nil {
		return err
	}

	section := e.story.Append(text)
	event, err := e.story.Tree.EditEdge(index, script.NewChoice(section, req, eff))
	if err != nil {
		return err
	}
	e.hist.Push(history.EdgeEdit(event))
	e.log.Info("edit edge", "index", index)
	return nil
}

// EditName updates the display name stored at a key.
func (e *Editor) EditName(key, name string) error {
	if err := script.ValidateName(name); err != nil {
		return err
	}
	old, ok := e.story.Names[key]
	if !ok {
		return script.ErrNameNotExists
	}

	e.story.Names[key] = name
	e.hist.Push(history.NameEdit{Key: key, From: old, To: name})
	e.log.Info("edit name", "key", key)
	return nil
}

// EditValue updates the number stored at a key.
func (e *Editor) EditValue(key string, val uint32) error {
	old, ok := e.story.Vals[key]
	if !ok {
		return script.ErrValueNotExists
	}

	e.story.Vals[key] = val
	e.hist.Push(history.ValueEdit{Key: key, From: old, To: val})
	e.log.Info("edit value", "key", key)
	return nil
}

// MoveChoice repositions an edge within its source's choice ordering. The
// placement governs the order choices are presented to the player.
func (e *Editor) MoveChoice(source tree.NodeIndex, index tree.EdgeIndex, placement tree.PlacementIndex) error {
	event, err := e.story.Tree.EditLinkOrder(source, index, placement)
	if err != nil {
		return err
	}
	e.hist.Push(history.LinkMove(event))
	e.log.Info("move choice", "source", source, "edge", index, "placement", event.To)
	return nil
}

// RemoveNode removes a dialogue node. Fails with tree.ErrNodeInUse while any
// edge still touches it. The node's text stays in the buffer until rebuild.
func (e *Editor) RemoveNode(index tree.NodeIndex) error {
	event, err := e.story.Tree.RemoveNode(index)
	if err != nil {
		return err
	}
	e.hist.Push(history.NodeRemove(event))
	e.log.Info("remove node", "index", index)
	return nil
}

// RemoveEdge removes a choice edge.
func (e *Editor) RemoveEdge(index tree.EdgeIndex) error {
	event, err := e.story.Tree.RemoveEdge(index)
	if err != nil {
		return err
	}
	e.hist.Push(history.EdgeRemove(event))
	e.log.Info("remove edge", "index", index)
	return nil
}

// RemoveName removes a key from the name table. Fails with ErrNameInUse if
// the key is referenced anywhere in the text buffer, including stale ranges,
// or by any requirement or effect. Scanning stale text too is deliberate: an
// undo may bring a referencing section back.
func (e *Editor) RemoveName(key string) error {
	name, ok := e.story.Names[key]
	if !ok {
		return script.ErrNameNotExists
	}

	if script.Occurrences(e.story.Text, []string{key})[key] > 0 {
		return script.ErrNameInUse
	}
	for _, choice := range e.story.Tree.Edges() {
		if choice.Requirement.UsesName(key) || choice.Effect.UsesName(key) {
			return script.ErrNameInUse
		}
	}

	delete(e.story.Names, key)
	e.hist.Push(history.NameRemove{Key: key, Name: name})
	e.log.Info("remove name", "key", key)
	return nil
}

// RemoveValue removes a key from the value table. Fails with ErrValueInUse
// if any requirement or effect references it.
func (e *Editor) RemoveValue(key string) error {
	val, ok := e.story.Vals[key]
	if !ok {
		return script.ErrValueNotExists
	}

	for _, choice := range e.story.Tree.Edges() {
		if choice.Requirement.UsesValue(key) || choice.Effect.UsesValue(key) {
			return script.ErrValueInUse
		}
	}

	delete(e.story.Vals, key)
	e.hist.Push(history.ValueRemove{Key: key, Val: val})
	e.log.Info("remove value", "key", key)
	return nil
}

// NodeText resolves a node's text with hash verification and name
// substitution, returning the speaker's display name and the dialogue.
func (e *Editor) NodeText(index tree.NodeIndex) (speaker, dialogue string, err error) {
	node, err := e.story.Tree.Node(index)
	if err != nil {
		return "", "", err
	}
	raw, err := node.Section.Slice(e.story.Text)
	if err != nil {
		return "", "", err
	}
	return script.ParseNode(raw, e.story.Names)
}

// EdgeText resolves an edge's text with hash verification and name
// substitution.
func (e *Editor) EdgeText(index tree.EdgeIndex) (string, error) {
	edge, err := e.story.Tree.Edge(index)
	if err != nil {
		return "", err
	}
	raw, err := edge.Section.Slice(e.story.Text)
	if err != nil {
		return "", err
	}
	return script.ParseEdge(raw, e.story.Names)
}

// Validate runs the full consistency check over the active story.
func (e *Editor) Validate(workers int) error {
	return validate.Run(e.story, workers)
}
