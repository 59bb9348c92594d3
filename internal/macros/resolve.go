// internal/macros/resolve.go
package macros

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type aliasIndex struct {
	exact map[string]string
	// byLength lists alias keys longest first, so "fish and chips" is tried
	// before "fish".
	byLength []string
}

// index is built once and only read afterwards.
var index = buildIndex()

func buildIndex() aliasIndex {
	idx := aliasIndex{exact: make(map[string]string, len(aliases))}
	for raw, class := range aliases {
		key := Normalize(raw)
		if key == "" {
			continue
		}
		idx.exact[key] = class
	}
	for key := range idx.exact {
		idx.byLength = append(idx.byLength, key)
	}
	sort.Slice(idx.byLength, func(i, j int) bool {
		a, b := idx.byLength[i], idx.byLength[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return idx
}

// Normalize folds s to lowercase ASCII-ish text: diacritics are stripped,
// characters outside [a-z0-9 _-] dropped and whitespace collapsed.
func Normalize(s string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(s),
	)
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ResolveClass maps a free-text food name to a class key present in the
// density table. It never fails; unknown names resolve to ClassOther.
func ResolveClass(name string) string {
	t := Normalize(name)
	if t == "" {
		return ClassOther
	}
	if class, ok := index.exact[t]; ok {
		return class
	}
	if _, ok := densities[t]; ok {
		return t
	}
	for _, key := range index.byLength {
		if strings.Contains(t, key) {
			return index.exact[key]
		}
	}
	for _, rule := range heuristics {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.class
			}
		}
	}
	return ClassOther
}

// DensityFor returns the density of class, falling back to ClassOther for
// keys not in the table.
func DensityFor(class string) Density {
	if d, ok := densities[class]; ok {
		return d
	}
	return densities[ClassOther]
}

// HasClass reports whether class is a key of the density table.
func HasClass(class string) bool {
	_, ok := densities[class]
	return ok
}

// Classes returns every class key in sorted order.
func Classes() []string {
	out := make([]string, 0, len(densities))
	for k := range densities {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
