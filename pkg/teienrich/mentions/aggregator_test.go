package mentions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/teienrich/pkg/teienrich/internalerr"
	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

func edition(id, title, body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0" xml:base="https://example.org" xml:id="` + id + `">
  <teiHeader><fileDesc><titleStmt>
    <title type="main">` + title + `</title>
    <title type="sub">Entwurf</title>
  </titleStmt><sourceDesc><bibl><date when="1900-01-0` + string(id[1]) + `">1900</date></bibl></sourceDesc></fileDesc></teiHeader>
  <text><body><p>` + body + `</p></body></text>
</TEI>`
}

func writeDocs(t *testing.T, docs map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range docs {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestCollectTwoDocsSameEntity(t *testing.T) {
	paths := writeDocs(t, map[string]string{
		"e1.xml": edition("e1.xml", "Erster Brief", `<rs ref="#x">X</rs>`),
		"e2.xml": edition("e2.xml", "Zweiter Brief", `<rs ref="#x">X</rs>`),
	})

	agg := &Aggregator{Selectors: DefaultSelectors()}
	res, err := agg.Collect(context.Background(), paths)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	got := res.Table.Get("x")
	if len(got) != 2 {
		t.Fatalf("Expected 2 mentions of x, got %d", len(got))
	}
	titles := map[string]string{}
	for _, m := range got {
		titles[m.DocID] = m.DocTitle
		if m.DocURI != "https://example.org/"+m.DocID {
			t.Errorf("unexpected uri %s for %s", m.DocURI, m.DocID)
		}
		if m.DocDate != "" || m.SecondaryTitle != "" {
			t.Errorf("optional fields should be empty without selectors: %+v", m)
		}
	}
	if titles["e1.xml"] != "Erster Brief" || titles["e2.xml"] != "Zweiter Brief" {
		t.Errorf("unexpected titles %v", titles)
	}
}

func TestCollectMultiTargetSharesMention(t *testing.T) {
	doc, _ := tei.Load(edition("e1.xml", "Brief", `<rs ref="#a #b">A und B</rs>`))
	agg := &Aggregator{Selectors: DefaultSelectors()}

	res, err := agg.CollectDocuments(context.Background(), []*tei.Document{doc})
	if err != nil {
		t.Fatalf("CollectDocuments: %v", err)
	}
	a, b := res.Table.Get("a"), res.Table.Get("b")
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("Expected one mention each, got a=%d b=%d", len(a), len(b))
	}
	if a[0] != b[0] {
		t.Errorf("Expected identical mention records, got %+v and %+v", a[0], b[0])
	}
	if ids := res.Table.IDs(); len(ids) != 2 || ids[0] != "a" {
		t.Errorf("unexpected id order %v", ids)
	}
	if refs := res.DocRefs["e1.xml"]; len(refs) != 1 || refs[0] != "a" {
		t.Errorf("Expected first id a as the diagnostic reference, got %v", res.DocRefs)
	}
}

func TestCollectDedupesRawReferencesPerDocument(t *testing.T) {
	doc, _ := tei.Load(edition("e1.xml", "Brief", `<rs ref="#p1">a</rs> <rs ref="#p1">b</rs> <rs ref="p1">c</rs>`))
	agg := &Aggregator{Selectors: DefaultSelectors()}

	res, err := agg.CollectDocuments(context.Background(), []*tei.Document{doc})
	if err != nil {
		t.Fatalf("CollectDocuments: %v", err)
	}
	// "#p1" twice counts once, "p1" is a distinct raw string
	if got := len(res.Table.Get("p1")); got != 2 {
		t.Errorf("Expected 2 mention records, got %d", got)
	}
}

func TestCollectOptionalSelectors(t *testing.T) {
	doc, _ := tei.Load(edition("e1.xml", "Brief", `<rs ref="#x">x</rs>`))
	agg := &Aggregator{Selectors: Selectors{
		References:     DefaultReferences,
		Title:          DefaultTitle,
		SecondaryTitle: `.//tei:title[@type="sub"]/text()`,
		Date:           ".//tei:sourceDesc//tei:date/@when",
	}}

	res, err := agg.CollectDocuments(context.Background(), []*tei.Document{doc})
	if err != nil {
		t.Fatalf("CollectDocuments: %v", err)
	}
	m := res.Table.Get("x")[0]
	if m.SecondaryTitle != "Entwurf" {
		t.Errorf("SecondaryTitle = %q", m.SecondaryTitle)
	}
	if m.DocDate != "1900-01-01" {
		t.Errorf("DocDate = %q", m.DocDate)
	}
}

func TestCollectTitleFailureUsesMarker(t *testing.T) {
	doc, _ := tei.Load(edition("e1.xml", "Brief", `<rs ref="#x">x</rs>`))
	agg := &Aggregator{Selectors: Selectors{
		References: DefaultReferences,
		Title:      `.//tei:title[@type="missing"]/text()`,
		Date:       ".//tei:nothing/@when",
	}}

	res, err := agg.CollectDocuments(context.Background(), []*tei.Document{doc})
	if err != nil {
		t.Fatalf("title failure must not abort: %v", err)
	}
	m := res.Table.Get("x")[0]
	if m.DocTitle != "ERROR in title xpath of file: e1.xml" {
		t.Errorf("DocTitle = %q", m.DocTitle)
	}
	if !strings.HasPrefix(m.DocDate, "ERROR in date xpath") {
		t.Errorf("DocDate = %q", m.DocDate)
	}
}

func TestCollectMissingIDIsFatal(t *testing.T) {
	doc, _ := tei.Load(`<TEI xmlns="http://www.tei-c.org/ns/1.0" xml:base="https://example.org"><text><body><rs ref="#x"/></body></text></TEI>`)
	agg := &Aggregator{Selectors: DefaultSelectors()}

	_, err := agg.CollectDocuments(context.Background(), []*tei.Document{doc})
	if !errors.Is(err, internalerr.ErrMissingAttribute) {
		t.Errorf("Expected ErrMissingAttribute, got %v", err)
	}
}

func TestCollectNoReferences(t *testing.T) {
	doc, _ := tei.Load(edition("e1.xml", "Brief", `kein Verweis`))
	agg := &Aggregator{Selectors: DefaultSelectors()}

	res, err := agg.CollectDocuments(context.Background(), []*tei.Document{doc})
	if err != nil {
		t.Fatalf("CollectDocuments: %v", err)
	}
	if res.Table.Len() != 0 {
		t.Errorf("Expected empty table, got %v", res.Table.IDs())
	}
}

func TestCollectIgnoresBackMatter(t *testing.T) {
	doc, _ := tei.Load(`<TEI xmlns="http://www.tei-c.org/ns/1.0" xml:base="b" xml:id="e1.xml">
<text><body><rs ref="#p1"/></body>
<back><listPerson><person xml:id="p1"><birth><rs ref="#pl1"/></birth></person></listPerson></back></text></TEI>`)
	agg := &Aggregator{Selectors: DefaultSelectors()}

	res, err := agg.CollectDocuments(context.Background(), []*tei.Document{doc})
	if err != nil {
		t.Fatalf("CollectDocuments: %v", err)
	}
	if len(res.Table.Get("pl1")) != 0 {
		t.Error("references inside back matter must be ignored")
	}
	if len(res.Table.Get("p1")) != 1 {
		t.Error("expected body reference to be collected")
	}
}

func TestCollectRecordsLoadFailures(t *testing.T) {
	paths := writeDocs(t, map[string]string{
		"bad.xml": "<TEI><unclosed></TEI>",
		"e1.xml":  edition("e1.xml", "Brief", `<rs ref="#x">x</rs>`),
	})
	paths = append(paths, filepath.Join(t.TempDir(), "missing.xml"))

	res, err := (&Aggregator{Selectors: DefaultSelectors()}).Collect(context.Background(), paths)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	s, _, f := res.Report.Counts()
	if s != 1 || f != 2 {
		t.Errorf("Expected 1 success and 2 failures, got %d/%d", s, f)
	}
	if len(res.DocRefs["e1.xml"]) != 1 {
		t.Errorf("unexpected DocRefs %v", res.DocRefs)
	}
}

func TestCollectSkipIndexFiles(t *testing.T) {
	docs := map[string]string{
		"e1.xml":         edition("e1.xml", "Brief", `<rs ref="#x">x</rs>`),
		"listperson.xml": edition("l1.xml", "Register", `<rs ref="#y">y</rs>`),
	}

	tests := []struct {
		name    string
		skip    bool
		skipped int
		hasY    bool
	}{
		{"collect all", false, 0, true},
		{"skip index files", true, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &Aggregator{Selectors: DefaultSelectors(), SkipIndexFiles: tt.skip}
			res, err := agg.Collect(context.Background(), writeDocs(t, docs))
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			_, skipped, _ := res.Report.Counts()
			if skipped != tt.skipped {
				t.Errorf("Expected %d skipped, got %d", tt.skipped, skipped)
			}
			if got := len(res.Table.Get("y")) > 0; got != tt.hasY {
				t.Errorf("Expected y aggregated = %v, got %v", tt.hasY, got)
			}
			if len(res.Table.Get("x")) != 1 {
				t.Error("Expected edition mention of x")
			}
		})
	}
}

func TestCollectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Aggregator{Selectors: DefaultSelectors()}).Collect(ctx, []string{"a.xml"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRawReferencesScalarSelector(t *testing.T) {
	doc, _ := tei.Load(edition("e1.xml", "Brief", `<rs ref="#x">x</rs>`))
	got, err := RawReferences(doc, "string(.//tei:rs/@ref)")
	if err != nil {
		t.Fatalf("RawReferences: %v", err)
	}
	if len(got) != 1 || got[0] != "#x" {
		t.Errorf("RawReferences = %v", got)
	}
}
