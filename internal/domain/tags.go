package domain

import "strings"

// Tags are persisted as a comma-joined list on the schedule row. Names are
// trimmed of surrounding whitespace once, at write time; reads only split and
// drop empties.

// NormalizeTags trims each tag, drops empties, and removes duplicates while
// preserving first-seen order.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// JoinTags renders a tag set into the stored comma-joined form.
func JoinTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), ",")
}

// SplitTags parses the stored comma-joined form back into a tag list.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}

// TagsIntersect reports whether the two tag sets share at least one name.
// Comparison is exact on trimmed names.
func TagsIntersect(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[strings.TrimSpace(t)] = true
	}
	for _, t := range b {
		if set[strings.TrimSpace(t)] {
			return true
		}
	}
	return false
}
