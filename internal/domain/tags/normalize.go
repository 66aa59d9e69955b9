package tags

import (
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize turns a raw model answer into a canonical "a, b, c" tag string.
// The answer may be a plain keyword list, a fenced code block, or a JSON array/object
// whose values are strings or string arrays. Duplicates are removed, first occurrence wins.
// Returns "" when the answer carries no tags.
func Normalize(raw string) string {
	body := stripFence(strings.TrimSpace(raw))

	var list []string
	if v, ok := decodeJSON(body); ok {
		list = collectStrings(v, nil)
	} else {
		list = SplitList(stripLabel(body))
	}

	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, t := range list {
		t = norm.NFC.String(strings.Trim(strings.TrimSpace(t), `"'-*·•`))
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return strings.Join(out, Separator)
}

// First returns the first tag of a normalised tag string.
func First(tagString string) string {
	list := SplitList(tagString)
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language hint on the opening line
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// stripLabel removes a leading "태그:" / "Tags:" style label.
func stripLabel(s string) string {
	first, rest, found := strings.Cut(s, "\n")
	line := first
	if i := strings.IndexAny(line, ":："); i >= 0 && i < 20 && !strings.ContainsAny(line[:i], ",，") {
		line = line[i:]
		line = strings.TrimLeft(line, ":：")
	}
	if found {
		return line + "\n" + rest
	}
	return line
}

func decodeJSON(s string) (any, bool) {
	if !strings.HasPrefix(s, "[") && !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

func collectStrings(v any, acc []string) []string {
	switch t := v.(type) {
	case string:
		acc = append(acc, SplitList(t)...)
	case []any:
		for _, e := range t {
			acc = collectStrings(e, acc)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		// map order is random; keep the answer deterministic
		sort.Strings(keys)
		for _, k := range keys {
			acc = collectStrings(t[k], acc)
		}
	}
	return acc
}
