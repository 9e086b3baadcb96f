// Package mentions scans edition documents for entity references and
// aggregates them per referenced entity.
package mentions

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cognicore/teienrich/internal/logging"
	"github.com/cognicore/teienrich/internal/progress"
	"github.com/cognicore/teienrich/pkg/teienrich/refs"
	"github.com/cognicore/teienrich/pkg/teienrich/report"
	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

// Default selectors
const (
	DefaultReferences = ".//tei:rs[@ref]/@ref"
	DefaultTitle      = `.//tei:title[@type="main"]/text()`
)

// Selectors are the XPath expressions used to read an edition document.
// SecondaryTitle and Date are optional.
type Selectors struct {
	References     string
	Title          string
	SecondaryTitle string
	Date           string
}

// DefaultSelectors returns the conventional reference and title selectors
func DefaultSelectors() Selectors {
	return Selectors{
		References: DefaultReferences,
		Title:      DefaultTitle,
	}
}

// Aggregator builds a mention table from edition documents
type Aggregator struct {
	Selectors Selectors
	// SkipIndexFiles leaves out paths whose file name contains "list",
	// the naming convention of index documents.
	SkipIndexFiles bool
	Logger         *log.Logger
}

// Result of a collection pass
type Result struct {
	Table *Table
	// DocRefs lists, per edition file name, the first id of every distinct
	// raw reference. Diagnostic only.
	DocRefs map[string][]string
	Report  *report.Report
}

// Collect loads every path and aggregates its mentions. Documents that cannot
// be loaded or whose reference selector fails are recorded and skipped; a
// document without xml:base or xml:id aborts the run.
func (a *Aggregator) Collect(ctx context.Context, paths []string) (*Result, error) {
	res := newResult()
	logger := logging.OrDiscard(a.Logger)
	logger.Info("collecting mentions", "docs", len(paths))

	tr := progress.New(a.Logger, "collect mentions", len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.SkipIndexFiles && strings.Contains(filepath.Base(path), "list") {
			logger.Debug("skipping index file", "path", path)
			res.Report.Skip(path, "index file")
			tr.Step()
			continue
		}
		doc, err := tei.Load(path)
		if err != nil {
			logger.Error("failed to load edition", "path", path, "err", err)
			res.Report.Fail(path, "load", err)
			tr.Step()
			continue
		}
		if err := a.add(res, doc); err != nil {
			return nil, err
		}
		tr.Step()
	}

	res.Report.Finish()
	logger.Info("collected mentioned entities", "entities", res.Table.Len(), "docs", len(paths))
	return res, nil
}

// CollectDocuments aggregates already loaded documents.
func (a *Aggregator) CollectDocuments(ctx context.Context, docs []*tei.Document) (*Result, error) {
	res := newResult()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.add(res, doc); err != nil {
			return nil, err
		}
	}
	res.Report.Finish()
	return res, nil
}

func newResult() *Result {
	return &Result{
		Table:   NewTable(),
		DocRefs: make(map[string][]string),
		Report:  report.New("collect"),
	}
}

func (a *Aggregator) add(res *Result, doc *tei.Document) error {
	logger := logging.OrDiscard(a.Logger)
	path := doc.Path

	uri, err := doc.URI()
	if err != nil {
		return err
	}
	docID, _ := doc.ID()

	m := Mention{
		DocURI:   uri,
		DocPath:  path,
		DocTitle: a.metadata(doc, a.Selectors.Title, "title", docID),
		DocID:    docID,
	}
	if a.Selectors.SecondaryTitle != "" {
		m.SecondaryTitle = a.metadata(doc, a.Selectors.SecondaryTitle, "secondary title", docID)
	}
	if a.Selectors.Date != "" {
		m.DocDate = a.metadata(doc, a.Selectors.Date, "date", docID)
	}

	raws, err := RawReferences(doc, a.Selectors.References)
	if err != nil {
		logger.Error("failed to read references", "path", path, "err", err)
		res.Report.Fail(path, "references", err)
		return nil
	}

	name := docID
	if path != "" {
		name = filepath.Base(path)
	}
	for _, raw := range raws {
		ids := refs.Resolve(raw)
		if len(ids) == 0 {
			continue
		}
		for _, id := range ids {
			res.Table.Add(id, m)
		}
		res.DocRefs[name] = append(res.DocRefs[name], ids[0])
		res.Report.Incr("mentions", len(ids))
	}
	res.Report.Succeed(path)
	return nil
}

// metadata evaluates a metadata selector. Failures are replaced by a marker
// string naming the document so the run can continue.
func (a *Aggregator) metadata(doc *tei.Document, expr, what, docID string) string {
	if expr == "" {
		return ""
	}
	v, ok, err := doc.First(expr)
	if err == nil && ok {
		return tei.NormalizeSpace(v)
	}
	logging.OrDiscard(a.Logger).Warn(fmt.Sprintf("ERROR in %s xpath", what), "doc", docID, "path", doc.Path, "err", err)
	return fmt.Sprintf("ERROR in %s xpath of file: %s", what, docID)
}

// RawReferences returns the distinct raw reference values selected by expr,
// in document order. Values inside back matter are ignored.
func RawReferences(doc *tei.Document, expr string) ([]string, error) {
	nodes, err := doc.Nodes(expr)
	if err != nil {
		// Selectors with a scalar result
		return doc.Strings(expr)
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	var out []string
	for _, n := range nodes {
		if inBackMatter(n) {
			continue
		}
		v := n.InnerText()
		if seen.Add(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func inBackMatter(n *xmlquery.Node) bool {
	return tei.IsTEI(n, "back") || tei.HasAncestor(n, func(p *xmlquery.Node) bool {
		return tei.IsTEI(p, "back")
	})
}
