// Package teienrich runs the mention pipeline over a corpus of TEI edition
// and index documents.
package teienrich

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cognicore/teienrich/internal/logging"
	"github.com/cognicore/teienrich/pkg/teienrich/annotate"
	"github.com/cognicore/teienrich/pkg/teienrich/backmatter"
	"github.com/cognicore/teienrich/pkg/teienrich/blacklist"
	"github.com/cognicore/teienrich/pkg/teienrich/entities"
	"github.com/cognicore/teienrich/pkg/teienrich/mentions"
	"github.com/cognicore/teienrich/pkg/teienrich/report"
	"github.com/cognicore/teienrich/pkg/teienrich/store"
	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

// Enricher is the main pipeline facade
type Enricher struct {
	editions  []string
	indices   []string
	selectors mentions.Selectors
	leadIn    string
	blacklist *blacklist.List
	format    annotate.Format
	logger    *log.Logger
	store     store.Store
}

// Options configures an Enricher
type Options struct {
	// Editions and Indices are file paths, used in the given order.
	Editions  []string
	Indices   []string
	Selectors mentions.Selectors
	LeadIn    string
	Blacklist *blacklist.List
	Format    annotate.Format
	Logger    *log.Logger
	// Store archives run reports when set.
	Store store.Store
}

// New creates an Enricher. Empty selectors fall back to the defaults.
func New(opts Options) *Enricher {
	sel := opts.Selectors
	if sel.References == "" {
		sel.References = mentions.DefaultReferences
	}
	if sel.Title == "" {
		sel.Title = mentions.DefaultTitle
	}
	return &Enricher{
		editions:  opts.Editions,
		indices:   opts.Indices,
		selectors: sel,
		leadIn:    opts.LeadIn,
		blacklist: opts.Blacklist,
		format:    opts.Format,
		logger:    logging.OrDiscard(opts.Logger),
		store:     opts.Store,
	}
}

// Close releases the report store
func (e *Enricher) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Corpus carries everything one run builds. Each stage reads what earlier
// stages put here instead of rebuilding it.
type Corpus struct {
	Indices  []*tei.Document
	Mentions *mentions.Result
	Lookup   *entities.Lookup
	Reports  []*report.Report
}

// Err returns the first report error
func (c *Corpus) Err() error {
	for _, r := range c.Reports {
		if err := r.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Unmatched returns the distinct unresolved ids of all reports, sorted
func (c *Corpus) Unmatched() []string {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, r := range c.Reports {
		set.Append(r.Unmatched()...)
	}
	out := set.ToSlice()
	sort.Strings(out)
	return out
}

// MentionsToIndices aggregates the mentions of all editions and writes them
// into the index documents.
func (e *Enricher) MentionsToIndices(ctx context.Context) (*Corpus, error) {
	c := &Corpus{}
	err := e.mentionsToIndices(ctx, c, false)
	if archiveErr := e.archive(ctx, c); err == nil {
		err = archiveErr
	}
	return c, err
}

// Denormalize runs MentionsToIndices and then rebuilds the back matter of
// every edition from the annotated index entities.
func (e *Enricher) Denormalize(ctx context.Context) (*Corpus, error) {
	c := &Corpus{}
	err := e.denormalize(ctx, c)
	if archiveErr := e.archive(ctx, c); err == nil {
		err = archiveErr
	}
	return c, err
}

func (e *Enricher) denormalize(ctx context.Context, c *Corpus) error {
	if err := e.mentionsToIndices(ctx, c, true); err != nil {
		return err
	}

	lookup, err := entities.Build(c.Indices)
	if err != nil {
		return err
	}
	c.Lookup = lookup

	rep := report.New("denormalize")
	c.Reports = append(c.Reports, rep)
	if dups := lookup.Duplicates(); len(dups) > 0 {
		e.logger.Warn("entity ids defined more than once, last one wins", "ids", dups)
		rep.Incr("duplicate_ids", len(dups))
	}

	d := &backmatter.Denormalizer{References: e.selectors.References, Logger: e.logger}
	if err := d.Run(ctx, e.editions, lookup, rep); err != nil {
		return err
	}
	if unmatched := rep.Unmatched(); len(unmatched) > 0 {
		e.logger.Info("references without index entity", "count", len(unmatched))
	}
	return nil
}

func (e *Enricher) mentionsToIndices(ctx context.Context, c *Corpus, skipIndexFiles bool) error {
	indices, err := entities.LoadIndices(ctx, e.indices)
	if err != nil {
		return err
	}
	c.Indices = indices

	agg := &mentions.Aggregator{Selectors: e.selectors, SkipIndexFiles: skipIndexFiles, Logger: e.logger}
	res, err := agg.Collect(ctx, e.editions)
	if err != nil {
		return err
	}
	c.Mentions = res
	c.Reports = append(c.Reports, res.Report)

	rep := report.New("annotate")
	c.Reports = append(c.Reports, rep)
	a := &annotate.Annotator{
		LeadIn:    e.leadIn,
		Blacklist: e.blacklist,
		Format:    e.format,
		Logger:    e.logger,
	}
	stats, err := a.Annotate(ctx, res.Table, indices, rep)
	if err != nil {
		return err
	}
	e.logger.Info("annotated index entities", "annotated", stats.Annotated, "unmentioned", stats.Unmentioned, "blacklisted", stats.Blacklisted)

	failed := mapset.NewThreadUnsafeSet[string]()
	for _, it := range rep.Failures() {
		failed.Add(it.Path)
	}
	for _, doc := range indices {
		if failed.Contains(doc.Path) {
			continue
		}
		if err := doc.SaveInPlace(); err != nil {
			e.logger.Error("failed to save index", "path", doc.Path, "err", err)
			rep.Fail(doc.Path, "save", err)
			continue
		}
		rep.Succeed(doc.Path)
	}
	rep.Finish()
	return nil
}

func (e *Enricher) archive(ctx context.Context, c *Corpus) error {
	return Archive(ctx, e.store, c.Reports...)
}

// Archive saves reports to s. A nil store is a no-op.
func Archive(ctx context.Context, s store.Store, reports ...*report.Report) error {
	if s == nil {
		return nil
	}
	for _, r := range reports {
		if err := s.SaveRun(ctx, r.Run()); err != nil {
			return fmt.Errorf("archive run %s: %w", r.RunID, err)
		}
	}
	return nil
}

// Glob expands pattern into a sorted list of paths
func Glob(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(paths)
	return paths, nil
}
