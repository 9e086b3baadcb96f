// Package backmatter rebuilds the back matter of edition documents from the
// index entities they reference.
package backmatter

import (
	"context"
	"fmt"

	"github.com/antchfx/xmlquery"
	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cognicore/teienrich/internal/logging"
	"github.com/cognicore/teienrich/internal/progress"
	"github.com/cognicore/teienrich/pkg/teienrich/entities"
	"github.com/cognicore/teienrich/pkg/teienrich/internalerr"
	"github.com/cognicore/teienrich/pkg/teienrich/mentions"
	"github.com/cognicore/teienrich/pkg/teienrich/refs"
	"github.com/cognicore/teienrich/pkg/teienrich/report"
	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

// Denormalizer copies referenced entities into a generated back element
type Denormalizer struct {
	// References selects the raw reference values. Empty means
	// mentions.DefaultReferences.
	References string
	Logger     *log.Logger
}

// Result describes one rewritten document
type Result struct {
	// Refs holds the first resolved id of every distinct raw reference.
	Refs []string
	// Matched holds the ids copied into the back matter, in document order.
	Matched []string
	// NoMatch holds the resolved ids missing from the lookup.
	NoMatch []string
}

// Apply replaces the back matter of doc. Existing tei:back elements are
// removed first, so applying twice yields the same document.
func (d *Denormalizer) Apply(doc *tei.Document, lookup *entities.Lookup) (Result, error) {
	var res Result

	texts, err := doc.Nodes("//tei:text")
	if err != nil {
		return res, err
	}
	if len(texts) == 0 {
		return res, fmt.Errorf("%w: %s", internalerr.ErrNoTextRoot, doc.Path)
	}
	if _, err := doc.Remove("//tei:back"); err != nil {
		return res, err
	}

	expr := d.References
	if expr == "" {
		expr = mentions.DefaultReferences
	}
	raw, err := mentions.RawReferences(doc, expr)
	if err != nil {
		return res, err
	}

	byFamily := make(map[entities.Family][]*xmlquery.Node)
	seen := mapset.NewThreadUnsafeSet[string]()
	noMatch := mapset.NewThreadUnsafeSet[string]()
	for _, r := range raw {
		ids := refs.Resolve(r)
		if len(ids) == 0 {
			continue
		}
		res.Refs = append(res.Refs, ids[0])
		for _, id := range ids {
			if !seen.Add(id) {
				continue
			}
			ent, ok := lookup.Get(id)
			if !ok {
				if noMatch.Add(id) {
					res.NoMatch = append(res.NoMatch, id)
				}
				continue
			}
			if ent.Family == entities.Unclassified {
				continue
			}
			byFamily[ent.Family] = append(byFamily[ent.Family], ent.Node)
			res.Matched = append(res.Matched, id)
		}
	}

	back := doc.NewElement("back")
	for _, f := range entities.Families() {
		nodes := byFamily[f]
		if len(nodes) == 0 {
			continue
		}
		list := doc.NewElement(f.ListTag())
		for _, n := range nodes {
			// copies only; the lookup still serves the next document
			tei.AppendChild(list, doc.Import(n))
		}
		tei.AppendChild(back, list)
	}
	if back.FirstChild != nil {
		tei.AppendChild(texts[0], back)
	}
	return res, nil
}

// Run loads, rewrites and saves every edition. Per-document failures are
// logged and recorded in rep; the loop continues.
func (d *Denormalizer) Run(ctx context.Context, paths []string, lookup *entities.Lookup, rep *report.Report) error {
	logger := logging.OrDiscard(d.Logger)
	logger.Info("writing back matter", "docs", len(paths), "entities", lookup.Len())

	tr := progress.New(d.Logger, "denormalize", len(paths))
	defer rep.Finish()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.process(path, lookup, rep, logger)
		tr.Step()
	}
	return nil
}

func (d *Denormalizer) process(path string, lookup *entities.Lookup, rep *report.Report, logger *log.Logger) {
	doc, err := tei.Load(path)
	if err != nil {
		logger.Error("failed to load edition", "path", path, "err", err)
		rep.Fail(path, "load", err)
		return
	}
	res, err := d.Apply(doc, lookup)
	if err != nil {
		logger.Error("failed to denormalize", "path", path, "err", err)
		rep.Fail(path, "denormalize", err)
		return
	}
	rep.NoMatch(res.NoMatch...)
	rep.Incr("matched", len(res.Matched))
	if err := doc.SaveInPlace(); err != nil {
		logger.Error("failed to save edition", "path", path, "err", err)
		rep.Fail(path, "save", err)
		return
	}
	rep.Succeed(path)
}
