package script

import (
	"errors"
	"strings"
)

const (
	// KeyMaxLen caps the byte length of name/value table keys.
	KeyMaxLen = 8
	// NameMaxLen caps the byte length of display names.
	NameMaxLen = 32
)

var (
	// ErrNameExists rejects inserting a name key that is already taken.
	ErrNameExists = errors.New("script: name already exists")
	// ErrNameNotExists reports a lookup of an unknown name key.
	ErrNameNotExists = errors.New("script: name does not exist")
	// ErrNameInUse rejects removing a name key still referenced by the
	// text buffer or by a requirement or effect.
	ErrNameInUse = errors.New("script: name is in use")
	// ErrValueExists rejects inserting a value key that is already taken.
	ErrValueExists = errors.New("script: value already exists")
	// ErrValueNotExists reports a lookup of an unknown value key.
	ErrValueNotExists = errors.New("script: value does not exist")
	// ErrValueInUse rejects removing a value key still referenced by a
	// requirement or effect.
	ErrValueInUse = errors.New("script: value is in use")
	// ErrKeyTooLong rejects an empty key, a key over KeyMaxLen bytes, or a
	// key containing the token separator.
	ErrKeyTooLong = errors.New("script: key must be 1 to 8 bytes without separators")
	// ErrNameTooLong rejects a name over NameMaxLen bytes or containing
	// the token separator.
	ErrNameTooLong = errors.New("script: name must be at most 32 bytes without separators")
)

// NameTable maps short keys to display names. Keys are substituted into
// dialogue and choice text via ::key:: tokens; names may also be updated at
// play time by Assign effects.
type NameTable map[string]string

// ValueTable maps short keys to numeric state, read by requirements and
// written by effects.
type ValueTable map[string]uint32

// ValidateKey checks a table key against the length cap. Keys are embedded
// in text between token separators, so they must not contain one.
func ValidateKey(key string) error {
	if key == "" || len(key) > KeyMaxLen || strings.Contains(key, TokenSep) {
		return ErrKeyTooLong
	}
	return nil
}

// ValidateName checks a display name against the length cap. Names are
// substituted into text, so a separator inside one would corrupt parsing.
func ValidateName(name string) error {
	if len(name) > NameMaxLen || strings.Contains(name, TokenSep) {
		return ErrNameTooLong
	}
	return nil
}

// Clone returns a deep copy of the table.
func (t NameTable) Clone() NameTable {
	c := make(NameTable, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// Clone returns a deep copy of the table.
func (t ValueTable) Clone() ValueTable {
	c := make(ValueTable, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}
