// Package refs turns raw reference attribute values into entity ids.
//
// A value holds one or more whitespace separated tokens. A token starting
// with "#" loses exactly that one character; any other token is taken as a
// bare id as it stands. Tokens that end up empty are dropped.
package refs

import "strings"

// Prefix marks a same-corpus fragment reference.
const Prefix = "#"

// Resolve returns the entity ids referenced by raw, in order of appearance.
func Resolve(raw string) []string {
	fields := strings.Fields(raw)
	ids := make([]string, 0, len(fields))
	for _, tok := range fields {
		id := strings.TrimPrefix(tok, Prefix)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// First returns the first id referenced by raw.
func First(raw string) (string, bool) {
	ids := Resolve(raw)
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}
