// Package annotate writes "mentioned in" groups into index documents.
package annotate

import (
	"context"

	"github.com/antchfx/xmlquery"
	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gosimple/slug"

	"github.com/cognicore/teienrich/internal/logging"
	"github.com/cognicore/teienrich/pkg/teienrich/blacklist"
	"github.com/cognicore/teienrich/pkg/teienrich/entities"
	"github.com/cognicore/teienrich/pkg/teienrich/mentions"
	"github.com/cognicore/teienrich/pkg/teienrich/report"
	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

// Format selects the markup of the generated group
type Format int

const (
	// NoteGroup writes a noteGrp with one note per source document.
	NoteGroup Format = iota
	// EventList writes a listEvent with one event per source document.
	EventList
)

// GroupType marks generated groups so a later run can replace them.
const GroupType = "mentions"

// DefaultLeadIn is prefixed to every note text
const DefaultLeadIn = "erwähnt in "

// Annotator adds mention groups to identified entities of index documents
type Annotator struct {
	LeadIn    string
	Blacklist *blacklist.List
	Format    Format
	Logger    *log.Logger
}

// Stats counts what happened to the scanned entities
type Stats struct {
	Annotated   int
	Blacklisted int
	Unmentioned int
	// Repeated counts ids met again after they were annotated in this run.
	Repeated int
}

// Annotate mutates docs in place. Documents whose entity scan fails are
// logged, recorded in rep and left as they were; saving is up to the caller.
func (a *Annotator) Annotate(ctx context.Context, table *mentions.Table, docs []*tei.Document, rep *report.Report) (Stats, error) {
	logger := logging.OrDiscard(a.Logger)
	annotated := mapset.NewThreadUnsafeSet[string]()
	var stats Stats

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		err := entities.Scan(doc, func(e entities.Entity) {
			if a.Blacklist.Contains(e.ID) {
				stats.Blacklisted++
				return
			}
			if annotated.Contains(e.ID) {
				stats.Repeated++
				return
			}

			removeGroups(e.Node)
			grp := a.build(doc, table.Get(e.ID))
			if grp == nil {
				stats.Unmentioned++
				return
			}
			if e.Family == entities.Event {
				// second child, after the event label
				tei.InsertChildAt(e.Node, grp, 1)
			} else {
				tei.AppendChild(e.Node, grp)
			}
			annotated.Add(e.ID)
			stats.Annotated++
		})
		if err != nil {
			logger.Error("failed to annotate index", "path", doc.Path, "err", err)
			rep.Fail(doc.Path, "annotate", err)
		}
	}

	rep.Incr("annotated", stats.Annotated)
	rep.Incr("blacklisted", stats.Blacklisted)
	rep.Incr("unmentioned", stats.Unmentioned)
	rep.Incr("repeated", stats.Repeated)
	logger.Debug("annotated index entities", "annotated", stats.Annotated, "blacklisted", stats.Blacklisted, "unmentioned", stats.Unmentioned)
	return stats, nil
}

func (a *Annotator) build(doc *tei.Document, ms []mentions.Mention) *xmlquery.Node {
	switch a.Format {
	case EventList:
		return BuildEventList(doc, ms, a.LeadIn)
	default:
		return BuildNoteGroup(doc, ms, a.LeadIn)
	}
}

// BuildNoteGroup returns a noteGrp with one note per distinct source
// document, or nil when ms yields no note.
func BuildNoteGroup(doc *tei.Document, ms []mentions.Mention, leadIn string) *xmlquery.Node {
	grp := doc.NewElement("noteGrp")
	tei.SetAttr(grp, "type", GroupType)

	seen := mapset.NewThreadUnsafeSet[string]()
	for _, m := range ms {
		if !seen.Add(slug.Make(m.DocID)) {
			continue
		}
		note := doc.NewElement("note")
		tei.SetAttr(note, "type", GroupType)
		tei.SetAttr(note, "target", m.DocID)
		if m.DocDate != "" {
			tei.SetAttr(note, "corresp", m.DocDate)
		}
		text := leadIn + m.DocTitle
		if m.SecondaryTitle != "" {
			text += ", " + m.SecondaryTitle
		}
		tei.SetText(note, text)
		tei.AppendChild(grp, note)
	}

	if grp.FirstChild == nil {
		return nil
	}
	return grp
}

// BuildEventList returns a listEvent with one "mentioned" event per distinct
// source document, or nil when ms yields no event.
func BuildEventList(doc *tei.Document, ms []mentions.Mention, leadIn string) *xmlquery.Node {
	list := doc.NewElement("listEvent")
	tei.SetAttr(list, "type", GroupType)

	seen := mapset.NewThreadUnsafeSet[string]()
	for _, m := range ms {
		if !seen.Add(m.DocURI) {
			continue
		}
		event := doc.NewElement("event")
		tei.SetAttr(event, "type", "mentioned")
		tei.SetText(event, leadIn)

		title := doc.NewElement("title")
		tei.SetText(title, m.DocTitle)
		tei.AppendChild(event, title)

		linkGrp := doc.NewElement("linkGrp")
		link := doc.NewElement("link")
		tei.SetAttr(link, "type", "ARCHE")
		tei.SetAttr(link, "target", m.DocURI)
		tei.AppendChild(linkGrp, link)
		tei.AppendChild(event, linkGrp)

		tei.AppendChild(list, event)
	}

	if list.FirstChild == nil {
		return nil
	}
	return list
}

// removeGroups drops groups written by an earlier run.
func removeGroups(n *xmlquery.Node) {
	for _, c := range tei.ElementChildren(n) {
		if !tei.IsTEI(c, "noteGrp") && !tei.IsTEI(c, "listEvent") {
			continue
		}
		if t, _ := tei.Attr(c, "type"); t == GroupType {
			tei.Detach(c)
		}
	}
}
