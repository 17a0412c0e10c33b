package store

import "strings"

// codeStopWords holds common programming keywords and generic identifiers
// that are too frequent to usefully narrow the trigram prefilter; removing
// them thins out the trigram set without weakening it, since
// SubstringPrefilter's exact substring check remains the authoritative
// match regardless of what the trigram set contains.
var codeStopWords = BuildStopWordMap([]string{
	"var", "let", "const", "func", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
})

// BuildTrigramSet returns the set of lowercase 3-character substrings of
// s's code-aware tokens (tokens shorter than three characters are kept
// whole), used by SubstringPrefilter as a loose overlap check once its
// exact substring check has not matched.
func BuildTrigramSet(s string) map[string]struct{} {
	tokens := FilterStopWords(TokenizeCode(s), codeStopWords)
	set := make(map[string]struct{})
	for _, tok := range tokens {
		addTrigrams(set, tok)
	}
	return set
}

func addTrigrams(set map[string]struct{}, tok string) {
	if len(tok) < 3 {
		set[tok] = struct{}{}
		return
	}
	for i := 0; i+3 <= len(tok); i++ {
		set[tok[i:i+3]] = struct{}{}
	}
}

// SubstringPrefilter builds a lexical predicate for ScanCandidates: it
// returns true for content that contains needle (case-insensitive) and,
// failing that, for content that shares at least one trigram with needle.
// It never returns false for content
// that actually contains needle — the spec's invariant that embedding
// dissimilarity is the only permitted reason to drop a candidate depends
// on that being exact, not approximate.
func SubstringPrefilter(needle string) func(content string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return func(string) bool { return true }
	}
	needleTrigrams := BuildTrigramSet(needle)

	return func(content string) bool {
		lower := strings.ToLower(content)
		if strings.Contains(lower, needle) {
			return true
		}
		if len(needleTrigrams) == 0 {
			return false
		}
		contentTrigrams := BuildTrigramSet(content)
		for tri := range needleTrigrams {
			if _, ok := contentTrigrams[tri]; ok {
				return true
			}
		}
		return false
	}
}
