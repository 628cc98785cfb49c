package script

import (
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Occurrences counts ::key:: references in the text buffer for each of the
// given keys in a single pass. Backing check for name removal: a key with a
// nonzero count is still referenced somewhere in the story.
//
// Overlapping iteration is required because adjacent tokens share a
// separator: in "::a::b::" the trailing "::" of the first reference is the
// leading "::" of the next.
func Occurrences(text string, keys []string) map[string]int {
	if len(keys) == 0 {
		return nil
	}

	patterns := make([]string, len(keys))
	for i, key := range keys {
		patterns[i] = TokenSep + key + TokenSep
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.StandardMatch, // required for IterOverlapping
	})
	ac := builder.Build(patterns)

	counts := make(map[string]int, len(keys))
	iter := ac.IterOverlapping(text)
	for {
		m := iter.Next()
		if m == nil {
			break
		}
		counts[keys[m.Pattern()]]++
	}
	return counts
}
