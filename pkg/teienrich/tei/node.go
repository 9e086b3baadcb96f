package tei

import (
	"encoding/xml"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Attr returns the value of the named attribute. Names may carry the xml:
// prefix, which also matches attributes parsed with the XML namespace URI.
func Attr(n *xmlquery.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if attrMatches(a, name) {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *xmlquery.Node, name, value string) {
	for i, a := range n.Attr {
		if attrMatches(a, name) {
			n.Attr[i].Value = value
			return
		}
	}
	prefix, local := splitName(name)
	attr := xmlquery.Attr{
		Name:  xml.Name{Space: prefix, Local: local},
		Value: value,
	}
	if prefix == "xml" {
		attr.NamespaceURI = NSXML
	}
	n.Attr = append(n.Attr, attr)
}

// RemoveAttr deletes the named attribute if present.
func RemoveAttr(n *xmlquery.Node, name string) {
	for i, a := range n.Attr {
		if attrMatches(a, name) {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func attrMatches(a xmlquery.Attr, name string) bool {
	prefix, local := splitName(name)
	if a.Name.Local != local {
		return false
	}
	if prefix == "xml" {
		return a.Name.Space == "xml" || a.Name.Space == NSXML || a.NamespaceURI == NSXML
	}
	return a.Name.Space == prefix
}

func splitName(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// LocalName returns the element name without prefix.
func LocalName(n *xmlquery.Node) string {
	return n.Data
}

// IsTEI reports whether n is the TEI element local.
func IsTEI(n *xmlquery.Node, local string) bool {
	return n != nil && n.Type == xmlquery.ElementNode && n.NamespaceURI == NSTEI && n.Data == local
}

// ElementChildren returns the element children of n in document order.
func ElementChildren(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the whitespace-normalized text content of n.
func Text(n *xmlquery.Node) string {
	return NormalizeSpace(n.InnerText())
}

// NormalizeSpace collapses runs of whitespace and trims the result.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SetText replaces all children of n with a single text node.
func SetText(n *xmlquery.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Detach(c)
		c = next
	}
	xmlquery.AddChild(n, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
}

// AppendChild adds child as the last child of parent, detaching it from any
// previous parent first.
func AppendChild(parent, child *xmlquery.Node) {
	Detach(child)
	xmlquery.AddChild(parent, child)
}

// InsertChildAt inserts child at position idx among the non-text children of
// parent. Out of range positions append.
func InsertChildAt(parent, child *xmlquery.Node, idx int) {
	Detach(child)
	pos := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
			continue
		}
		if pos == idx {
			insertBefore(c, child)
			return
		}
		pos++
	}
	xmlquery.AddChild(parent, child)
}

// InsertAfter inserts n as the next sibling of ref.
func InsertAfter(ref, n *xmlquery.Node) {
	Detach(n)
	n.Parent = ref.Parent
	n.PrevSibling = ref
	n.NextSibling = ref.NextSibling
	if ref.NextSibling != nil {
		ref.NextSibling.PrevSibling = n
	} else if ref.Parent != nil {
		ref.Parent.LastChild = n
	}
	ref.NextSibling = n
}

func insertBefore(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.NextSibling = ref
	n.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else if ref.Parent != nil {
		ref.Parent.FirstChild = n
	}
	ref.PrevSibling = n
}

// Detach removes n from its parent.
func Detach(n *xmlquery.Node) {
	if n.Parent == nil {
		return
	}
	xmlquery.RemoveFromTree(n)
}

// DeepCopy returns a detached copy of n and its subtree.
func DeepCopy(n *xmlquery.Node) *xmlquery.Node {
	cp := &xmlquery.Node{
		Type:         n.Type,
		Data:         n.Data,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
	}
	if len(n.Attr) > 0 {
		cp.Attr = make([]xmlquery.Attr, len(n.Attr))
		copy(cp.Attr, n.Attr)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		xmlquery.AddChild(cp, DeepCopy(c))
	}
	return cp
}

// HasAncestor reports whether some ancestor of n satisfies match.
func HasAncestor(n *xmlquery.Node, match func(*xmlquery.Node) bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if match(p) {
			return true
		}
	}
	return false
}

func walk(n *xmlquery.Node, fn func(*xmlquery.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
