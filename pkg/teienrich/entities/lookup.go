// Package entities scans authority (index) documents for identified entities
// and classifies them into back matter families.
package entities

import (
	"context"
	"fmt"
	"sort"

	"github.com/antchfx/xmlquery"

	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

// Selector finds identified entities below an index document's body
const Selector = ".//tei:body//*[@xml:id]"

// Entity is an identified element of an index document
type Entity struct {
	ID     string
	Node   *xmlquery.Node
	Doc    *tei.Document
	Family Family
}

// Scan calls fn for every identified element of doc in document order.
func Scan(doc *tei.Document, fn func(Entity)) error {
	nodes, err := doc.Nodes(Selector)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		id, ok := tei.Attr(n, "xml:id")
		if !ok || id == "" {
			continue
		}
		fn(Entity{
			ID:     id,
			Node:   n,
			Doc:    doc,
			Family: Classify(tei.LocalName(n)),
		})
	}
	return nil
}

// Lookup maps entity ids to their elements across all index documents.
// Later documents win on duplicate ids; duplicates are remembered.
type Lookup struct {
	byID  map[string]Entity
	order []string
	dups  map[string]struct{}
}

// NewLookup creates an empty lookup
func NewLookup() *Lookup {
	return &Lookup{
		byID: make(map[string]Entity),
		dups: make(map[string]struct{}),
	}
}

// Build scans docs in order into a new lookup
func Build(docs []*tei.Document) (*Lookup, error) {
	l := NewLookup()
	for _, doc := range docs {
		if err := Scan(doc, l.Add); err != nil {
			return nil, fmt.Errorf("scan %s: %w", doc.Path, err)
		}
	}
	return l, nil
}

// LoadIndices loads every index document. Index documents are required
// input, so the first failure is returned.
func LoadIndices(ctx context.Context, paths []string) ([]*tei.Document, error) {
	docs := make([]*tei.Document, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := tei.Load(p)
		if err != nil {
			return nil, fmt.Errorf("load index: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Add inserts e, replacing an earlier entity with the same id
func (l *Lookup) Add(e Entity) {
	if _, ok := l.byID[e.ID]; ok {
		l.dups[e.ID] = struct{}{}
	} else {
		l.order = append(l.order, e.ID)
	}
	l.byID[e.ID] = e
}

// Get returns the entity for id
func (l *Lookup) Get(id string) (Entity, bool) {
	e, ok := l.byID[id]
	return e, ok
}

// Len returns the number of distinct ids
func (l *Lookup) Len() int {
	return len(l.byID)
}

// IDs returns the ids in order of first appearance
func (l *Lookup) IDs() []string {
	return append([]string(nil), l.order...)
}

// Duplicates returns the ids defined more than once, sorted
func (l *Lookup) Duplicates() []string {
	out := make([]string, 0, len(l.dups))
	for id := range l.dups {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
