package blacklist

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cognicore/teienrich/pkg/teienrich/refs"
)

// List holds entity ids that must never be annotated
type List struct {
	ids mapset.Set[string]
}

// New creates a blacklist. Ids may be given with or without the "#" prefix.
func New(ids ...string) *List {
	l := &List{ids: mapset.NewThreadUnsafeSet[string]()}
	for _, id := range ids {
		l.Add(id)
	}
	return l
}

// Contains reports whether id is blacklisted. A nil list contains nothing.
func (l *List) Contains(id string) bool {
	if l == nil {
		return false
	}
	return l.ids.Contains(id)
}

func normalize(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), refs.Prefix)
}

// Add blacklists id
func (l *List) Add(id string) {
	id = normalize(id)
	if id == "" {
		return
	}
	l.ids.Add(id)
}

// Remove drops id from the blacklist. Removing from a nil list is a no-op.
func (l *List) Remove(id string) {
	if l == nil {
		return
	}
	l.ids.Remove(normalize(id))
}

// All returns all blacklisted ids, sorted
func (l *List) All() []string {
	if l == nil {
		return nil
	}
	out := l.ids.ToSlice()
	sort.Strings(out)
	return out
}

// Len returns the number of blacklisted ids
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return l.ids.Cardinality()
}
