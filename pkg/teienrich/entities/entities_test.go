package entities

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		tag  string
		want Family
	}{
		{"person", Person},
		{"place", Place},
		{"org", Organization},
		{"bibl", Bibliographic},
		{"biblStruct", Bibliographic},
		{"item", GenericItem},
		{"event", Event},
		{"listPerson", Unclassified},
		{"persName", Unclassified},
		{"personGrp", Unclassified},
		{"", Unclassified},
	}
	for _, tt := range tests {
		if got := Classify(tt.tag); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestListTags(t *testing.T) {
	want := []string{"listPerson", "listPlace", "listOrg", "listBibl", "listEvent", "list"}
	for i, f := range Families() {
		if f.ListTag() != want[i] {
			t.Errorf("%v.ListTag() = %q, want %q", f, f.ListTag(), want[i])
		}
	}
	if Unclassified.ListTag() != "" {
		t.Error("Unclassified has no list")
	}
}

const persons = `<TEI xmlns="http://www.tei-c.org/ns/1.0"><teiHeader xml:id="hdr"/><text><body>
<listPerson>
  <person xml:id="p1"><persName>Anna</persName></person>
  <person xml:id="p2"><persName xml:id="p2-name">Bert</persName></person>
</listPerson>
</body></text></TEI>`

const places = `<TEI xmlns="http://www.tei-c.org/ns/1.0"><text><body>
<listPlace><place xml:id="pl1"/><place xml:id="p1"/></listPlace>
</body></text></TEI>`

func TestScan(t *testing.T) {
	doc, _ := tei.Load(persons)

	var got []Entity
	if err := Scan(doc, func(e Entity) { got = append(got, e) }); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 identified elements below body, got %d", len(got))
	}
	if got[0].ID != "p1" || got[0].Family != Person {
		t.Errorf("unexpected first entity %+v", got[0])
	}
	if got[2].ID != "p2-name" || got[2].Family != Unclassified {
		t.Errorf("unexpected nested entity %+v", got[2])
	}
}

func TestBuildLastWins(t *testing.T) {
	a, _ := tei.Load(persons)
	b, _ := tei.Load(places)

	l, err := Build([]*tei.Document{a, b})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if l.Len() != 4 {
		t.Errorf("Expected 4 ids, got %d", l.Len())
	}
	e, ok := l.Get("p1")
	if !ok || e.Family != Place || e.Doc != b {
		t.Errorf("Expected later document to win for p1, got %+v", e)
	}
	if d := l.Duplicates(); len(d) != 1 || d[0] != "p1" {
		t.Errorf("Duplicates = %v", d)
	}
	if ids := l.IDs(); ids[0] != "p1" || ids[len(ids)-1] != "pl1" {
		t.Errorf("IDs = %v", ids)
	}
	if _, ok := l.Get("missing"); ok {
		t.Error("unexpected entity for missing id")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a1, _ := tei.Load(persons)
	a2, _ := tei.Load(persons)

	l1, _ := Build([]*tei.Document{a1})
	l2, _ := Build([]*tei.Document{a2})
	ids1, ids2 := l1.IDs(), l2.IDs()
	if len(ids1) != len(ids2) {
		t.Fatalf("lookups differ: %v vs %v", ids1, ids2)
	}
	for i := range ids1 {
		if ids1[i] != ids2[i] {
			t.Errorf("lookups differ at %d: %s vs %s", i, ids1[i], ids2[i])
		}
	}
}

func TestLoadIndices(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "listperson.xml")
	os.WriteFile(p, []byte(persons), 0644)

	docs, err := LoadIndices(context.Background(), []string{p})
	if err != nil || len(docs) != 1 {
		t.Fatalf("LoadIndices: %v", err)
	}
	if _, err := LoadIndices(context.Background(), []string{filepath.Join(dir, "nope.xml")}); err == nil {
		t.Error("Expected error for missing index")
	}
}
