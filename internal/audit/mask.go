package audit

import "strings"

// Denylisted snapshot fields: contact, address and identifying values are
// masked before an event is persisted. Matching is case-insensitive.
var denylist = map[string]struct{}{
	"name":           {},
	"first_name":     {},
	"last_name":      {},
	"email":          {},
	"phone":          {},
	"contact":        {},
	"address_line1":  {},
	"address_line2":  {},
	"city":           {},
	"postcode":       {},
	"reference_code": {},
}

const maskMarker = "********"

// Mask redacts a sensitive value: the first two runes are preserved and the
// remainder replaced with a fixed-length marker. Values shorter than two
// runes are replaced entirely. The transform is one-way and idempotent:
// masking an already-masked value yields the same token.
func Mask(v string) string {
	r := []rune(v)
	if len(r) < 2 {
		return "**" + maskMarker
	}
	return string(r[:2]) + maskMarker
}

// Sensitive reports whether the snapshot field name is denylisted.
func Sensitive(field string) bool {
	_, ok := denylist[strings.ToLower(field)]
	return ok
}

// MaskSnapshot returns a copy of the snapshot with every denylisted field
// masked. Non-string denylisted values are replaced with the full marker so
// nothing identifying survives regardless of type. Nil input stays nil.
func MaskSnapshot(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !Sensitive(k) {
			out[k] = v
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = Mask(s)
		} else {
			out[k] = "**" + maskMarker
		}
	}
	return out
}
