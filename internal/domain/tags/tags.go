// Package tags tokenises comma/whitespace separated keyword lists produced by the tagging model.
package tags

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Vocabulary token length bounds, in runes.
const (
	MinTokenLen = 1
	MaxTokenLen = 30
)

// Separator joins normalised tags in stored content.
const Separator = ", "

func isSeparator(r rune) bool {
	return r == ',' || r == '，' || unicode.IsSpace(r)
}

func isListSeparator(r rune) bool {
	return r == ',' || r == '，' || r == '\n'
}

// Split returns the non-empty tokens of s split on commas (ASCII and full-width) and whitespace.
func Split(s string) []string {
	return strings.FieldsFunc(s, isSeparator)
}

// SplitList splits on commas and newlines only, keeping multi-word tags such as "롱 기장" intact.
func SplitList(s string) []string {
	parts := strings.FieldsFunc(s, isListSeparator)
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of tokens Split would produce.
func Count(s string) int {
	n := 0
	inToken := false
	for _, r := range s {
		if isSeparator(r) {
			inToken = false
			continue
		}
		if !inToken {
			n++
			inToken = true
		}
	}
	return n
}

// ExtractVocabulary collects the distinct tokens of a stored-document corpus.
// Entries may be string, []string or []any of strings; anything else is skipped.
// Tokens outside [MinTokenLen, MaxTokenLen] runes are dropped. The result is sorted.
// When no token survives, the sorted, deduplicated fallback is returned.
func ExtractVocabulary(corpus []any, fallback []string) []string {
	set := make(map[string]struct{})
	for _, entry := range corpus {
		switch v := entry.(type) {
		case string:
			addTokens(set, v)
		case []string:
			for _, s := range v {
				addTokens(set, s)
			}
		case []any:
			for _, inner := range v {
				if s, ok := inner.(string); ok {
					addTokens(set, s)
				}
			}
		}
	}
	if len(set) == 0 {
		return sortedUnique(fallback)
	}
	return sortedKeys(set)
}

// FromPhrases builds a vocabulary from suggestion phrases such as "원피스, 네이비, 오피스룩".
func FromPhrases(phrases []string) []string {
	set := make(map[string]struct{})
	for _, p := range phrases {
		addTokens(set, p)
	}
	return sortedKeys(set)
}

func addTokens(set map[string]struct{}, s string) {
	for _, tok := range Split(s) {
		tok = norm.NFC.String(strings.TrimSpace(tok))
		if n := utf8.RuneCountInString(tok); n < MinTokenLen || n > MaxTokenLen {
			continue
		}
		set[tok] = struct{}{}
	}
}

func sortedUnique(in []string) []string {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
