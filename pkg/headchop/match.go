package headchop

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// DefaultPattern is the name fragment that identifies the head bone.
const DefaultPattern = "head"

// MatchMode selects how bone names are compared against the pattern.
type MatchMode int

const (
	// MatchSubstring matches when the pattern appears anywhere in the name.
	MatchSubstring MatchMode = iota
	// MatchExact matches when the whole name equals the pattern.
	MatchExact
	// MatchWord matches when one of the name's words equals the pattern.
	// Words are split on non-alphanumerics and lower-to-upper case changes.
	MatchWord
)

// String returns the config name of the mode.
func (m MatchMode) String() string {
	switch m {
	case MatchSubstring:
		return "substring"
	case MatchExact:
		return "exact"
	case MatchWord:
		return "word"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseMatchMode converts a config name into a MatchMode.
// An empty string selects MatchSubstring.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substring":
		return MatchSubstring, nil
	case "exact":
		return MatchExact, nil
	case "word":
		return MatchWord, nil
	default:
		return MatchSubstring, fmt.Errorf("unknown match mode %q", s)
	}
}

// Matcher identifies the head bone by name. All comparisons are case-insensitive.
// The zero value matches "head" as a substring.
type Matcher struct {
	Pattern string
	Mode    MatchMode
	// Bone, when set, names the head bone exactly and overrides Pattern and Mode.
	Bone string
}

// Match reports whether a bone name identifies the head.
func (m Matcher) Match(name string) bool {
	fold := cases.Fold()

	if m.Bone != "" {
		return fold.String(name) == fold.String(m.Bone)
	}

	pattern := m.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	pattern = fold.String(pattern)

	switch m.Mode {
	case MatchExact:
		return fold.String(name) == pattern
	case MatchWord:
		for _, w := range splitWords(name) {
			if fold.String(w) == pattern {
				return true
			}
		}
		return false
	default:
		return strings.Contains(fold.String(name), pattern)
	}
}

// FindHeadBone returns the first bone, in index order, whose name matches.
// Later matches are ignored even if they are unrelated to the first. A bone
// override prefers a case-sensitive hit before falling back to folded names.
func FindHeadBone(skel *Skeleton, m Matcher) (int, bool) {
	if m.Bone != "" {
		if i := skel.Index(m.Bone); i >= 0 {
			return i, true
		}
	}
	for i := range skel.Bones {
		if m.Match(skel.Bones[i].Name) {
			return i, true
		}
	}
	return -1, false
}

// splitWords splits a bone name such as "J_Bip_C_Head" or "mixamorig:HeadTop_End"
// into words. It must run before case folding.
func splitWords(name string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	var prev rune
	for _, r := range name {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}
