package cache

import (
	"sort"
	"strings"
)

// NormalizeKey folds a provider's logical request parameters into a canonical
// cache key: keys and values are trimmed and case-folded, internal whitespace
// collapsed, pairs sorted by key. Semantically identical requests collide
// regardless of formatting differences.
func NormalizeKey(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, normalizeToken(k)+"="+normalizeToken(v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// normalizeToken trims, lower-cases and collapses runs of whitespace to a
// single space.
func normalizeToken(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
