// Package sequence links a sorted set of documents through xml:id, prev and
// next attributes on their roots.
package sequence

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/cognicore/teienrich/internal/logging"
	"github.com/cognicore/teienrich/internal/progress"
	"github.com/cognicore/teienrich/pkg/teienrich/report"
	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

// Link holds the root attribute values computed for one document.
// Prev and Next are empty when there is no neighbour or no base.
type Link struct {
	Path string
	Base string
	ID   string
	Prev string
	Next string
}

// Links sorts paths and computes the link of every document.
func Links(paths []string, base string) []Link {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	out := make([]Link, len(sorted))
	for i, p := range sorted {
		l := Link{Path: p, Base: base, ID: filepath.Base(p)}
		if base != "" {
			if i > 0 {
				l.Prev = base + "/" + filepath.Base(sorted[i-1])
			}
			if i < len(sorted)-1 {
				l.Next = base + "/" + filepath.Base(sorted[i+1])
			}
		}
		out[i] = l
	}
	return out
}

// Apply writes l onto the root of doc. Attributes of l that are empty are
// left untouched on the document.
func Apply(doc *tei.Document, l Link) {
	root := doc.Root()
	if l.Base != "" {
		tei.SetAttr(root, "xml:base", l.Base)
	}
	tei.SetAttr(root, "xml:id", l.ID)
	if l.Prev != "" {
		tei.SetAttr(root, "prev", l.Prev)
	}
	if l.Next != "" {
		tei.SetAttr(root, "next", l.Next)
	}
}

// Sequencer rewrites documents in place
type Sequencer struct {
	Logger *log.Logger
}

// Run links every document in paths and saves it.
func (s *Sequencer) Run(ctx context.Context, paths []string, base string, rep *report.Report) error {
	logger := logging.OrDiscard(s.Logger)
	links := Links(paths, base)
	logger.Info("linking documents", "docs", len(links), "base", base)

	tr := progress.New(s.Logger, "link", len(links))
	defer rep.Finish()
	for _, l := range links {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := tei.Load(l.Path)
		if err != nil {
			logger.Error("failed to load document", "path", l.Path, "err", err)
			rep.Fail(l.Path, "load", err)
			tr.Step()
			continue
		}
		Apply(doc, l)
		if err := doc.SaveInPlace(); err != nil {
			logger.Error("failed to save document", "path", l.Path, "err", err)
			rep.Fail(l.Path, "save", err)
			tr.Step()
			continue
		}
		rep.Succeed(l.Path)
		tr.Step()
	}
	return nil
}
