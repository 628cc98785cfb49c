package history

import (
	"github.com/kittclouds/arbor/pkg/script"
	"github.com/kittclouds/arbor/pkg/tree"
)

// Tree events are thin wrappers over the event values the tree operations
// return, specialized to the story payloads. Table events carry the key and
// the old/new entries directly.

// NodeInsert records a dialogue node insertion.
type NodeInsert tree.NodeInsert[script.Dialogue]

func (e NodeInsert) Undo(s *script.Story) error {
	_, err := s.Tree.RemoveNode(e.Index)
	return err
}

func (e NodeInsert) Redo(s *script.Story) error {
	_, err := s.Tree.InsertNode(e.Node, e.Index)
	return err
}

// NodeRemove records a dialogue node removal.
type NodeRemove tree.NodeRemove[script.Dialogue]

func (e NodeRemove) Undo(s *script.Story) error {
	_, err := s.Tree.InsertNode(e.Node, e.Index)
	return err
}

func (e NodeRemove) Redo(s *script.Story) error {
	_, err := s.Tree.RemoveNode(e.Index)
	return err
}

// NodeEdit records a dialogue payload replacement.
type NodeEdit tree.NodeEdit[script.Dialogue]

func (e NodeEdit) Undo(s *script.Story) error {
	_, err := s.Tree.EditNode(e.Index, e.From)
	return err
}

func (e NodeEdit) Redo(s *script.Story) error {
	_, err := s.Tree.EditNode(e.Index, e.To)
	return err
}

// EdgeInsert records a choice edge insertion.
type EdgeInsert tree.EdgeInsert[script.Choice]

func (e EdgeInsert) Undo(s *script.Story) error {
	_, err := s.Tree.RemoveEdge(e.Index)
	return err
}

func (e EdgeInsert) Redo(s *script.Story) error {
	_, err := s.Tree.InsertEdge(e.Source, e.Target, e.Edge, e.Index, e.Placement)
	return err
}

// EdgeRemove records a choice edge removal.
type EdgeRemove tree.EdgeRemove[script.Choice]

func (e EdgeRemove) Undo(s *script.Story) error {
	_, err := s.Tree.InsertEdge(e.Source, e.Target, e.Edge, e.Index, e.Placement)
	return err
}

func (e EdgeRemove) Redo(s *script.Story) error {
	_, err := s.Tree.RemoveEdge(e.Index)
	return err
}

// EdgeEdit records a choice payload replacement.
type EdgeEdit tree.EdgeEdit[script.Choice]

func (e EdgeEdit) Undo(s *script.Story) error {
	_, err := s.Tree.EditEdge(e.Index, e.From)
	return err
}

func (e EdgeEdit) Redo(s *script.Story) error {
	_, err := s.Tree.EditEdge(e.Index, e.To)
	return err
}

// LinkMove records a placement change within an adjacency chain.
type LinkMove tree.LinkMove

func (e LinkMove) Undo(s *script.Story) error {
	_, err := s.Tree.EditLinkOrder(e.Source, e.Index, e.From)
	return err
}

func (e LinkMove) Redo(s *script.Story) error {
	_, err := s.Tree.EditLinkOrder(e.Source, e.Index, e.To)
	return err
}

// NameInsert records a name table insertion.
type NameInsert struct {
	Key  string
	Name string
}

func (e NameInsert) Undo(s *script.Story) error {
	delete(s.Names, e.Key)
	return nil
}

func (e NameInsert) Redo(s *script.Story) error {
	s.Names[e.Key] = e.Name
	return nil
}

// NameRemove records a name table removal.
type NameRemove struct {
	Key  string
	Name string
}

func (e NameRemove) Undo(s *script.Story) error {
	s.Names[e.Key] = e.Name
	return nil
}

func (e NameRemove) Redo(s *script.Story) error {
	delete(s.Names, e.Key)
	return nil
}

// NameEdit records a name table update.
type NameEdit struct {
	Key  string
	From string
	To   string
}

func (e NameEdit) Undo(s *script.Story) error {
	s.Names[e.Key] = e.From
	return nil
}

func (e NameEdit) Redo(s *script.Story) error {
	s.Names[e.Key] = e.To
	return nil
}

// ValueInsert records a value table insertion.
type ValueInsert struct {
	Key string
	Val uint32
}

func (e ValueInsert) Undo(s *script.Story) error {
	delete(s.Vals, e.Key)
	return nil
}

func (e ValueInsert) Redo(s *script.Story) error {
	s.Vals[e.Key] = e.Val
	return nil
}

// ValueRemove records a value table removal.
type ValueRemove struct {
	Key string
	Val uint32
}

func (e ValueRemove) Undo(s *script.Story) error {
	s.Vals[e.Key] = e.Val
	return nil
}

func (e ValueRemove) Redo(s *script.Story) error {
	delete(s.Vals, e.Key)
	return nil
}

// ValueEdit records a value table update.
type ValueEdit struct {
	Key  string
	From uint32
	To   uint32
}

func (e ValueEdit) Undo(s *script.Story) error {
	s.Vals[e.Key] = e.From
	return nil
}

func (e ValueEdit) Redo(s *script.Story) error {
	s.Vals[e.Key] = e.To
	return nil
}
