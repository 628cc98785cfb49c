// Package store provides persistence for stories: a SQLite-backed store
// using the ncruces database/sql driver and a flat-file store over a
// hackpadfs filesystem. Both keep the node and edge arrays in index order
// with their link arrays index-aligned, and the text buffer byte-verbatim,
// since every section is a raw offset into it.
package store

import (
	"context"
	"errors"

	"github.com/kittclouds/arbor/pkg/script"
	"github.com/kittclouds/arbor/pkg/tree"
)

// ErrNotFound reports a lookup of a story name the store has never saved.
var ErrNotFound = errors.New("store: story not found")

// Store persists stories between editing sessions.
type Store interface {
	// SaveStory writes the story, replacing any prior save under its name.
	SaveStory(ctx context.Context, s *script.Story) error
	// LoadStory reads a story back. The tree arrays are validated during
	// reconstruction.
	LoadStory(ctx context.Context, name string) (*script.Story, error)
	// ListStories returns the saved story names in lexical order.
	ListStories(ctx context.Context) ([]string, error)
	// DeleteStory removes a saved story.
	DeleteStory(ctx context.Context, name string) error
	Close() error
}

// storedStory is the serialized form shared by the file store: the story
// scalars plus the tree's six parallel arrays.
type storedStory struct {
	UID     uint64            `json:"uid"`
	Name    string            `json:"name"`
	Text    string            `json:"text"`
	Names   script.NameTable  `json:"names"`
	Vals    script.ValueTable `json:"vals"`
	Nodes   []script.Dialogue `json:"nodes"`
	Edges   []script.Choice   `json:"edges"`
	Heads   []tree.EdgeIndex  `json:"heads"`
	Links   []tree.EdgeIndex  `json:"links"`
	Sources []tree.NodeIndex  `json:"sources"`
	Targets []tree.NodeIndex  `json:"targets"`
}

func encodeStory(s *script.Story) storedStory {
	return storedStory{
		UID:     s.UID,
		Name:    s.Name,
		Text:    s.Text,
		Names:   s.Names,
		Vals:    s.Vals,
		Nodes:   s.Tree.Nodes(),
		Edges:   s.Tree.Edges(),
		Heads:   s.Tree.Heads(),
		Links:   s.Tree.Links(),
		Sources: s.Tree.Sources(),
		Targets: s.Tree.Targets(),
	}
}

func decodeStory(d storedStory) (*script.Story, error) {
	t, err := tree.FromParts(d.Nodes, d.Edges, d.Heads, d.Links, d.Sources, d.Targets)
	if err != nil {
		return nil, err
	}
	names := d.Names
	if names == nil {
		names = script.NameTable{}
	}
	vals := d.Vals
	if vals == nil {
		vals = script.ValueTable{}
	}
	return &script.Story{
		UID:   d.UID,
		Name:  d.Name,
		Tree:  t,
		Text:  d.Text,
		Names: names,
		Vals:  vals,
	}, nil
}
