// Package script holds the shared narrative types: hashed text sections, node
// and edge payloads, requirement/effect conditions, the name and value lookup
// tables, and the Story aggregate that ties them to a dialogue tree.
package script

import (
	"errors"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrInvalidSection reports a section whose byte range falls outside
	// the current text buffer.
	ErrInvalidSection = errors.New("script: section out of text bounds")
	// ErrInvalidHash reports a section whose stored hash no longer matches
	// the referenced bytes. The graph and buffer have desynchronized;
	// recover from backup rather than retry.
	ErrInvalidHash = errors.New("script: hash does not match text section")
)

// Section is a non-owning reference to a slice of a story's text buffer. The
// buffer is append-only, so a section stays valid until a rebuild rewrites
// it. The 64-bit content hash makes any desynchronization between graph and
// buffer detectable on read.
type Section struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Hash  uint64 `json:"hash"`
}

// NewSection builds a section from a byte range and a precomputed hash.
func NewSection(start, end int, hash uint64) Section {
	return Section{Start: start, End: end, Hash: hash}
}

// SectionOf hashes the given range of text and returns a section referencing
// it. ErrInvalidSection if the range is out of bounds.
func SectionOf(text string, start, end int) (Section, error) {
	if start > end || end > len(text) {
		return Section{}, ErrInvalidSection
	}
	return Section{Start: start, End: end, Hash: xxhash.Sum64String(text[start:end])}, nil
}

// Len returns the length of the referenced range in bytes.
func (s Section) Len() int {
	return s.End - s.Start
}

// Slice resolves the section against the text buffer. Every read verifies
// the content hash; ErrInvalidHash means the buffer was mutated out of band
// and the section can no longer be trusted.
func (s Section) Slice(text string) (string, error) {
	if s.Start > s.End || s.End > len(text) {
		return "", ErrInvalidSection
	}
	slice := text[s.Start:s.End]
	if xxhash.Sum64String(slice) != s.Hash {
		return "", ErrInvalidHash
	}
	return slice, nil
}
