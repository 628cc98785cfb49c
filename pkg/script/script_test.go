package script

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionSlice(t *testing.T) {
	text := "hello cat, hello cow"

	sec, err := SectionOf(text, 6, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, sec.Len())

	slice, err := sec.Slice(text)
	require.NoError(t, err)
	assert.Equal(t, "cat", slice)

	// out-of-bounds range
	_, err = SectionOf(text, 0, len(text)+1)
	assert.ErrorIs(t, err, ErrInvalidSection)
	_, err = SectionOf(text, 9, 6)
	assert.ErrorIs(t, err, ErrInvalidSection)

	// section past the end of a shrunken buffer
	_, err = sec.Slice("short")
	assert.ErrorIs(t, err, ErrInvalidSection)

	// hash corrupted without touching the bytes
	bad := sec
	bad.Hash++
	_, err = bad.Slice(text)
	assert.ErrorIs(t, err, ErrInvalidHash)

	// bytes mutated under an unchanged section
	mutated := "hello dog, hello cow"
	_, err = sec.Slice(mutated)
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestSplitNode(t *testing.T) {
	key, dialogue, err := SplitNode("::cat::meow, ::dog:: says woof")
	require.NoError(t, err)
	assert.Equal(t, "cat", key)
	assert.Equal(t, "meow, ::dog:: says woof", dialogue)

	_, _, err = SplitNode("no speaker token")
	assert.ErrorIs(t, err, ErrNodeParse)
	_, _, err = SplitNode("::onlyspeaker")
	assert.ErrorIs(t, err, ErrNodeParse)
}

func TestParseNode(t *testing.T) {
	names := NameTable{"cat": "Behemoth", "dog": "Barbos"}

	speaker, dialogue, err := ParseNode("::cat::hello ::dog::, how are you?", names)
	require.NoError(t, err)
	assert.Equal(t, "Behemoth", speaker)
	assert.Equal(t, "hello Barbos, how are you?", dialogue)

	// adjacent tokens split with empty literals between them
	speaker, dialogue, err = ParseNode("::cat::::dog::", names)
	require.NoError(t, err)
	assert.Equal(t, "Behemoth", speaker)
	assert.Equal(t, "Barbos", dialogue)

	_, _, err = ParseNode("::mouse::hello", names)
	assert.ErrorIs(t, err, ErrNodeParse)
	_, _, err = ParseNode("::cat::hello ::mouse::", names)
	assert.ErrorIs(t, err, ErrNodeParse)
	_, _, err = ParseNode("missing speaker", names)
	assert.ErrorIs(t, err, ErrNodeParse)

	assert.NoError(t, ValidateNode("::cat::hello ::dog::!", names))
	assert.ErrorIs(t, ValidateNode("::cat::hello ::mouse::!", names), ErrNodeParse)
}

func TestParseEdge(t *testing.T) {
	names := NameTable{"cat": "Behemoth"}

	out, err := ParseEdge("pet ::cat:: gently", names)
	require.NoError(t, err)
	assert.Equal(t, "pet Behemoth gently", out)

	out, err = ParseEdge("no tokens here", names)
	require.NoError(t, err)
	assert.Equal(t, "no tokens here", out)

	_, err = ParseEdge("pet ::mouse::", names)
	assert.ErrorIs(t, err, ErrEdgeParse)

	assert.NoError(t, ValidateEdge("pet ::cat::", names))
	assert.ErrorIs(t, ValidateEdge("pet ::mouse::", names), ErrEdgeParse)
}

func TestValidateKeyName(t *testing.T) {
	assert.NoError(t, ValidateKey("cat"))
	assert.ErrorIs(t, ValidateKey(""), ErrKeyTooLong)
	assert.ErrorIs(t, ValidateKey("muchtoolong"), ErrKeyTooLong)
	assert.ErrorIs(t, ValidateKey("a::b"), ErrKeyTooLong)

	assert.NoError(t, ValidateName("Behemoth"))
	assert.NoError(t, ValidateName(""))
	assert.ErrorIs(t, ValidateName("this display name is far too long to store"), ErrNameTooLong)
	assert.ErrorIs(t, ValidateName("a::b"), ErrNameTooLong)
}

func TestRequirement(t *testing.T) {
	names := NameTable{"cat": "Behemoth"}
	vals := ValueTable{"coins": 10}

	cases := []struct {
		req  Requirement
		met  bool
		err  error
		name string
	}{
		{Requirement{}, true, nil, "none"},
		{Requirement{Kind: ReqGreater, Key: "coins", Val: 5}, true, nil, "greater met"},
		{Requirement{Kind: ReqGreater, Key: "coins", Val: 10}, false, nil, "greater unmet"},
		{Requirement{Kind: ReqLess, Key: "coins", Val: 11}, true, nil, "less met"},
		{Requirement{Kind: ReqEqual, Key: "coins", Val: 10}, true, nil, "equal met"},
		{Requirement{Kind: ReqCmp, Key: "cat", Name: "Behemoth"}, true, nil, "cmp met"},
		{Requirement{Kind: ReqCmp, Key: "cat", Name: "Barbos"}, false, nil, "cmp unmet"},
		{Requirement{Kind: ReqEqual, Key: "gems", Val: 1}, false, ErrValueNotExists, "unknown value key"},
		{Requirement{Kind: ReqCmp, Key: "dog", Name: "Barbos"}, false, ErrNameNotExists, "unknown name key"},
		{Requirement{Kind: ReqKind(99)}, false, ErrUnknownKind, "unknown kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err != nil {
				assert.ErrorIs(t, tc.req.Validate(names, vals), tc.err)
			} else {
				assert.NoError(t, tc.req.Validate(names, vals))
			}
			assert.Equal(t, tc.met, tc.req.Met(names, vals))
		})
	}

	assert.True(t, Requirement{Kind: ReqCmp, Key: "cat"}.UsesName("cat"))
	assert.False(t, Requirement{Kind: ReqCmp, Key: "cat"}.UsesValue("cat"))
	assert.True(t, Requirement{Kind: ReqGreater, Key: "coins"}.UsesValue("coins"))
}

func TestEffectApply(t *testing.T) {
	names := NameTable{"cat": "Behemoth"}
	vals := ValueTable{"coins": 10}

	require.NoError(t, Effect{Kind: EffectAdd, Key: "coins", Val: 5}.Apply(names, vals))
	assert.Equal(t, uint32(15), vals["coins"])

	require.NoError(t, Effect{Kind: EffectSub, Key: "coins", Val: 20}.Apply(names, vals))
	assert.Equal(t, uint32(0), vals["coins"], "subtraction saturates at zero")

	require.NoError(t, Effect{Kind: EffectSet, Key: "coins", Val: 7}.Apply(names, vals))
	assert.Equal(t, uint32(7), vals["coins"])

	require.NoError(t, Effect{Kind: EffectAdd, Key: "coins", Val: ^uint32(0)}.Apply(names, vals))
	assert.Equal(t, ^uint32(0), vals["coins"], "addition saturates at max")

	require.NoError(t, Effect{Kind: EffectAssign, Key: "cat", Name: "Murka"}.Apply(names, vals))
	assert.Equal(t, "Murka", names["cat"])

	assert.ErrorIs(t, Effect{Kind: EffectSet, Key: "gems", Val: 1}.Apply(names, vals), ErrValueNotExists)
	assert.ErrorIs(t, Effect{Kind: EffectAssign, Key: "dog"}.Apply(names, vals), ErrNameNotExists)
	assert.ErrorIs(t, Effect{Kind: EffectKind(99)}.Apply(names, vals), ErrUnknownKind)

	assert.True(t, Effect{Kind: EffectAssign, Key: "cat"}.UsesName("cat"))
	assert.True(t, Effect{Kind: EffectSub, Key: "coins"}.UsesValue("coins"))
	assert.False(t, Effect{Kind: EffectAssign, Key: "cat"}.UsesValue("cat"))
}

func TestOccurrences(t *testing.T) {
	text := "::cat::hello ::dog::, tell ::cat:: a story"
	counts := Occurrences(text, []string{"cat", "dog", "mouse"})
	assert.Equal(t, 2, counts["cat"])
	assert.Equal(t, 1, counts["dog"])
	assert.Zero(t, counts["mouse"])

	// adjacent references share a separator
	counts = Occurrences("::cat::dog::", []string{"cat", "dog"})
	assert.Equal(t, 1, counts["cat"])
	assert.Equal(t, 1, counts["dog"])

	assert.Nil(t, Occurrences(text, nil))
}

func TestStoryAppendClone(t *testing.T) {
	story := NewStory("test")
	assert.NotZero(t, story.UID)

	sec := story.Append("::cat::hello")
	assert.Equal(t, Section{Start: 0, End: 12, Hash: xxhash.Sum64String("::cat::hello")}, sec)

	sec2 := story.Append(" more")
	assert.Equal(t, 12, sec2.Start)

	slice, err := sec.Slice(story.Text)
	require.NoError(t, err)
	assert.Equal(t, "::cat::hello", slice)

	story.Names["cat"] = "Behemoth"
	story.Vals["coins"] = 3
	_, err = story.Tree.AddNode(NewDialogue(sec, Pos{}))
	require.NoError(t, err)

	clone := story.Clone()
	assert.Equal(t, story, clone)

	// mutating the clone leaves the original untouched
	clone.Names["cat"] = "Murka"
	clone.Vals["coins"] = 9
	_, err = clone.Tree.AddNode(NewDialogue(sec2, Pos{}))
	require.NoError(t, err)
	assert.Equal(t, "Behemoth", story.Names["cat"])
	assert.Equal(t, uint32(3), story.Vals["coins"])
	assert.Equal(t, 1, story.Tree.NodeCount())
}
