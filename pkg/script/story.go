package script

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kittclouds/arbor/pkg/tree"
)

// Tree is the dialogue tree specialization used across the module: dialogue
// nodes connected by player choices.
type Tree = tree.Tree[Dialogue, Choice]

// Story is the top-level project aggregate: the dialogue tree, the
// append-only text buffer every Section points into, and the name and value
// tables read by text substitution and by requirements and effects.
type Story struct {
	UID   uint64     `json:"uid"`
	Name  string     `json:"name"`
	Tree  *Tree      `json:"-"`
	Text  string     `json:"text"`
	Names NameTable  `json:"names"`
	Vals  ValueTable `json:"vals"`
}

// NewStory creates an empty story with preallocated storage.
func NewStory(name string) *Story {
	return &Story{
		UID:   NewUID(),
		Name:  name,
		Tree:  tree.New[Dialogue, Choice](512, 2048),
		Names: NameTable{},
		Vals:  ValueTable{},
	}
}

// Clone returns a deep copy of the story, used for backup snapshots.
func (s *Story) Clone() *Story {
	return &Story{
		UID:   s.UID,
		Name:  s.Name,
		Tree:  s.Tree.Clone(),
		Text:  s.Text,
		Names: s.Names.Clone(),
		Vals:  s.Vals.Clone(),
	}
}

// Append pushes raw text onto the end of the buffer and returns a hashed
// section referencing it. Existing sections stay valid; stale ranges are
// reclaimed by a rebuild.
func (s *Story) Append(text string) Section {
	start := len(s.Text)
	s.Text += text
	return Section{Start: start, End: len(s.Text), Hash: xxhash.Sum64String(text)}
}

// NewUID generates a 64-bit identifier for associating external resources
// with a story instance.
func NewUID() uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
	return xxhash.Sum64(buf[:])
}
