package msl

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reservedNames are MSL keywords and identifiers this backend emits
// itself; a user id colliding with one of these must be disambiguated
// before emission.
var reservedNames = map[string]bool{
	"globals": true, "inputs": true, "gid": true, "tpg": true,
	"kernel": true, "vertex": true, "fragment": true, "device": true,
	"constant": true, "thread": true, "using": true, "namespace": true,
	"float": true, "int": true, "bool": true, "uint": true, "void": true,
	"return": true, "if": true, "else": true, "for": true, "struct": true,
	"output_size": true, "b_globals": true,
}

var titleCaser = cases.Title(language.Und)

// escapeName sanitizes a user-supplied id into a legal MSL identifier:
// non [A-Za-z0-9_] runes are replaced with '_', a leading digit is
// prefixed, and a name colliding with a reserved word is title-cased
// first (so a user id "globals" becomes "Globals" before the namer's
// numeric-suffix dedup ever runs, keeping the disambiguation
// deterministic rather than an incidental string match against
// "b_globals").
func escapeName(raw string) string {
	if raw == "" {
		return "_"
	}
	if reservedNames[strings.ToLower(raw)] {
		raw = titleCaser.String(raw)
	}
	var b strings.Builder
	for i, r := range raw {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// namer assigns unique MSL identifiers, deduping via a numeric suffix
// (spec.md §9 design note; mirrors the teacher's msl/writer.go namer).
type namer struct {
	used    map[string]struct{}
	counter uint32
}

func newNamer() *namer {
	return &namer{used: make(map[string]struct{})}
}

// call returns a unique name derived from base, registering it so a
// later call never returns the same name twice.
func (n *namer) call(base string) string {
	escaped := escapeName(base)
	if _, taken := n.used[escaped]; !taken {
		n.used[escaped] = struct{}{}
		return escaped
	}
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		if _, taken := n.used[candidate]; !taken {
			n.used[candidate] = struct{}{}
			return candidate
		}
	}
}

// sanitizeId is the public entry point used by layout and statement
// emission for a one-shot id -> MSL-identifier conversion backed by
// the Writer's namer (so "n_<id>" local bindings, unpacked global
// input locals, and resource binding argument names all share one
// collision domain per Writer instance).
func (w *Writer) sanitizeId(id string) string {
	if name, ok := w.idNames[id]; ok {
		return name
	}
	name := w.namer.call(id)
	w.idNames[id] = name
	return name
}
