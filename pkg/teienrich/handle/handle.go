// Package handle inserts registered handles into TEI documents.
package handle

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/cognicore/teienrich/internal/logging"
	"github.com/cognicore/teienrich/internal/progress"
	"github.com/cognicore/teienrich/pkg/teienrich/internalerr"
	"github.com/cognicore/teienrich/pkg/teienrich/report"
	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

// Default selectors
const (
	DefaultSelector    = ".//tei:idno[@type='handle']"
	DefaultInsertPoint = ".//tei:publicationStmt/tei:p"
)

// ErrHandleExists is returned by Insert when the document already has a handle.
var ErrHandleExists = internalerr.ErrHandleExists

// Registrar issues a handle for a full document identifier.
type Registrar interface {
	Register(ctx context.Context, fullID string) (string, error)
}

// Exists returns the first handle selected by selector.
func Exists(doc *tei.Document, selector string) (string, bool, error) {
	v, ok, err := doc.First(selector)
	if err != nil || !ok {
		return "", false, err
	}
	return tei.NormalizeSpace(v), true, nil
}

// FullID returns xml:base + "/" + xml:id of the root. ok is false when
// either is missing.
func FullID(doc *tei.Document) (string, bool) {
	uri, err := doc.URI()
	if err != nil {
		return "", false
	}
	return uri, true
}

// Insert adds <idno type="handle"> right after the first element matched by
// insertPoint.
func Insert(doc *tei.Document, handle, selector, insertPoint string) error {
	if existing, ok, err := Exists(doc, selector); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrHandleExists, existing)
	}

	points, err := doc.Nodes(insertPoint)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("%w: %s", internalerr.ErrNoInsertPoint, insertPoint)
	}

	idno := doc.NewElement("idno")
	tei.SetAttr(idno, "type", "handle")
	tei.SetText(idno, handle)
	tei.InsertAfter(points[0], idno)
	return nil
}

// Options configures Run
type Options struct {
	Registrar Registrar
	// Selector finds an existing handle. Empty means DefaultSelector.
	Selector string
	// InsertPoint is the element the new handle follows. Empty means
	// DefaultInsertPoint.
	InsertPoint string
	Logger      *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Selector == "" {
		o.Selector = DefaultSelector
	}
	if o.InsertPoint == "" {
		o.InsertPoint = DefaultInsertPoint
	}
	return o
}

// Run registers and inserts a handle for every document in paths that has
// none yet. Registration failures are recorded per document. An insert that
// finds a handle is recorded as a violation and stops the run.
func Run(ctx context.Context, paths []string, opts Options, rep *report.Report) error {
	opts = opts.withDefaults()
	if opts.Registrar == nil {
		return fmt.Errorf("%w: handle registrar required", internalerr.ErrInvalidConfig)
	}
	logger := logging.OrDiscard(opts.Logger)
	logger.Info("adding handles", "docs", len(paths))

	tr := progress.New(opts.Logger, "handles", len(paths))
	defer rep.Finish()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := process(ctx, path, opts, rep, logger)
		tr.Step()
		if err != nil {
			return err
		}
	}
	return nil
}

func process(ctx context.Context, path string, opts Options, rep *report.Report, logger *log.Logger) error {
	doc, err := tei.Load(path)
	if err != nil {
		logger.Error("failed to load document", "path", path, "err", err)
		rep.Fail(path, "load", err)
		return nil
	}

	existing, ok, err := Exists(doc, opts.Selector)
	if err != nil {
		logger.Error("failed to look for handle", "path", path, "err", err)
		rep.Fail(path, "lookup", err)
		return nil
	}
	if ok {
		logger.Debug("handle exists", "path", path, "handle", existing)
		rep.Skip(path, "handle exists")
		return nil
	}

	fullID, ok := FullID(doc)
	if !ok {
		rep.Skip(path, "no xml:base or xml:id")
		return nil
	}

	handle, err := opts.Registrar.Register(ctx, fullID)
	if err != nil {
		logger.Error("failed to register handle", "path", path, "id", fullID, "err", err)
		rep.Fail(path, "register", err)
		return nil
	}

	if err := Insert(doc, handle, opts.Selector, opts.InsertPoint); err != nil {
		if errors.Is(err, ErrHandleExists) {
			rep.Violation(path, err)
			return err
		}
		logger.Error("failed to insert handle", "path", path, "err", err)
		rep.Fail(path, "insert", err)
		return nil
	}
	if err := doc.SaveInPlace(); err != nil {
		logger.Error("failed to save document", "path", path, "err", err)
		rep.Fail(path, "save", err)
		return nil
	}
	logger.Debug("handle added", "path", path, "handle", handle)
	rep.Succeed(path)
	return nil
}
