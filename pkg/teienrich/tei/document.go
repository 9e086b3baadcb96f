// Package tei loads, queries, mutates and writes TEI documents.
package tei

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/cognicore/teienrich/pkg/teienrich/internalerr"
)

// Document is a parsed TEI/XML tree. Path is empty for documents parsed from
// text.
type Document struct {
	Path string
	node *xmlquery.Node
}

// Load reads a document from a file path, or parses src directly when it
// looks like markup.
func Load(src string) (*Document, error) {
	if strings.HasPrefix(strings.TrimSpace(src), "<") {
		return Parse(strings.NewReader(src))
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	doc.Path = src
	return doc, nil
}

// Parse reads a document from r.
func Parse(r io.Reader) (*Document, error) {
	node, err := xmlquery.Parse(r)
	if err != nil {
		return nil, err
	}
	doc := &Document{node: node}
	if doc.Root() == nil {
		return nil, fmt.Errorf("tei: document has no root element")
	}
	return doc, nil
}

// Root returns the document element.
func (d *Document) Root() *xmlquery.Node {
	for n := d.node.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

// Nodes evaluates expr against the root element and returns the selected
// nodes. Attribute matches come back as attribute nodes whose Parent is the
// owner element.
func (d *Document) Nodes(expr string) ([]*xmlquery.Node, error) {
	return selectNodes(d.node, d.Root(), expr)
}

// NodesFrom evaluates expr with n as the context node.
func (d *Document) NodesFrom(n *xmlquery.Node, expr string) ([]*xmlquery.Node, error) {
	return selectNodes(d.node, n, expr)
}

// Strings evaluates expr against the root element and returns the string
// value of each result.
func (d *Document) Strings(expr string) ([]string, error) {
	return selectStrings(d.node, d.Root(), expr)
}

// First returns the first string result of expr. ok is false when the
// expression selected nothing.
func (d *Document) First(expr string) (value string, ok bool, err error) {
	values, err := d.Strings(expr)
	if err != nil {
		return "", false, err
	}
	if len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}

// Remove detaches every element selected by expr and reports how many were
// removed.
func (d *Document) Remove(expr string) (int, error) {
	nodes, err := d.Nodes(expr)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, n := range nodes {
		if n.Type != xmlquery.ElementNode || n == d.Root() {
			continue
		}
		Detach(n)
		removed++
	}
	return removed, nil
}

// Base returns the root's xml:base.
func (d *Document) Base() (string, bool) {
	return Attr(d.Root(), "xml:base")
}

// ID returns the root's xml:id.
func (d *Document) ID() (string, bool) {
	return Attr(d.Root(), "xml:id")
}

// URI returns base + "/" + id.
func (d *Document) URI() (string, error) {
	base, ok := d.Base()
	if !ok {
		return "", fmt.Errorf("%w: xml:base on %s", internalerr.ErrMissingAttribute, d.name())
	}
	id, ok := d.ID()
	if !ok {
		return "", fmt.Errorf("%w: xml:id on %s", internalerr.ErrMissingAttribute, d.name())
	}
	return base + "/" + id, nil
}

// NewElement creates a detached element in the TEI namespace, using the same
// prefix the document uses for TEI elements.
func (d *Document) NewElement(local string) *xmlquery.Node {
	return &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         local,
		Prefix:       d.teiPrefix(),
		NamespaceURI: NSTEI,
	}
}

// Import returns a deep copy of n (which may belong to another document)
// with TEI elements renamed to this document's TEI prefix.
func (d *Document) Import(n *xmlquery.Node) *xmlquery.Node {
	cp := DeepCopy(n)
	prefix := d.teiPrefix()
	walk(cp, func(c *xmlquery.Node) {
		if c.Type == xmlquery.ElementNode && c.NamespaceURI == NSTEI {
			c.Prefix = prefix
		}
	})
	return cp
}

func (d *Document) teiPrefix() string {
	if root := d.Root(); root != nil && root.NamespaceURI == NSTEI {
		return root.Prefix
	}
	return ""
}

// WriteTo serializes the document, keeping the declaration and whitespace.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	out := d.node.OutputXMLWithOptions(xmlquery.WithPreserveSpace())
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	n, err := io.WriteString(w, out)
	return int64(n), err
}

// String returns the serialized document.
func (d *Document) String() string {
	var buf bytes.Buffer
	d.WriteTo(&buf)
	return buf.String()
}

// Save writes the document to path.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// SaveInPlace writes the document back to the file it was loaded from.
func (d *Document) SaveInPlace() error {
	if d.Path == "" {
		return fmt.Errorf("tei: document was not loaded from a file")
	}
	return d.Save(d.Path)
}

func (d *Document) name() string {
	if d.Path != "" {
		return d.Path
	}
	return "<string>"
}
