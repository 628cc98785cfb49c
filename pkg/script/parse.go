package script

import (
	"errors"
	"strings"
)

// TokenSep delimits ::key:: name references inside raw text. Node text has
// the form "::speaker::dialogue" where the dialogue may embed further
// ::key:: tokens; edge text is plain text with optional embedded tokens.
const TokenSep = "::"

var (
	// ErrNodeParse reports node text that is malformed or references an
	// unknown name key.
	ErrNodeParse = errors.New("script: node parsing failed")
	// ErrEdgeParse reports edge text that references an unknown name key.
	ErrEdgeParse = errors.New("script: edge parsing failed")
)

// SplitNode splits raw node text into its speaker key and dialogue body
// without resolving either against the name table.
func SplitNode(text string) (speakerKey, dialogue string, err error) {
	parts := strings.SplitN(text, TokenSep, 3)
	if len(parts) != 3 || parts[0] != "" {
		return "", "", ErrNodeParse
	}
	return parts[1], parts[2], nil
}

// ParseNode resolves raw node text against the name table, returning the
// speaker's display name and the dialogue with every embedded ::key:: token
// substituted.
//
// Splitting on the separator leaves the speaker key at index 1 and every
// further key at an odd index; even indices are literal text. This holds
// even for adjacent tokens, since empty literals split out between them.
func ParseNode(text string, names NameTable) (speaker, dialogue string, err error) {
	tokens := strings.Split(text, TokenSep)
	if len(tokens) < 3 || tokens[0] != "" {
		return "", "", ErrNodeParse
	}
	speaker, ok := names[tokens[1]]
	if !ok {
		return "", "", ErrNodeParse
	}
	var buf strings.Builder
	for i := 2; i < len(tokens); i++ {
		if i%2 == 1 {
			name, ok := names[tokens[i]]
			if !ok {
				return "", "", ErrNodeParse
			}
			buf.WriteString(name)
		} else {
			buf.WriteString(tokens[i])
		}
	}
	return speaker, buf.String(), nil
}

// ValidateNode runs the ParseNode routine without producing output.
func ValidateNode(text string, names NameTable) error {
	tokens := strings.Split(text, TokenSep)
	if len(tokens) < 3 || tokens[0] != "" {
		return ErrNodeParse
	}
	if _, ok := names[tokens[1]]; !ok {
		return ErrNodeParse
	}
	for i := 3; i < len(tokens); i += 2 {
		if _, ok := names[tokens[i]]; !ok {
			return ErrNodeParse
		}
	}
	return nil
}

// ParseEdge resolves raw edge text against the name table, substituting
// every embedded ::key:: token. Odd split indices are keys, even indices are
// literal text.
func ParseEdge(text string, names NameTable) (string, error) {
	tokens := strings.Split(text, TokenSep)
	var buf strings.Builder
	for i, tok := range tokens {
		if i%2 == 1 {
			name, ok := names[tok]
			if !ok {
				return "", ErrEdgeParse
			}
			buf.WriteString(name)
		} else {
			buf.WriteString(tok)
		}
	}
	return buf.String(), nil
}

// ValidateEdge runs the ParseEdge routine without producing output.
func ValidateEdge(text string, names NameTable) error {
	tokens := strings.Split(text, TokenSep)
	for i := 1; i < len(tokens); i += 2 {
		if _, ok := names[tokens[i]]; !ok {
			return ErrEdgeParse
		}
	}
	return nil
}
