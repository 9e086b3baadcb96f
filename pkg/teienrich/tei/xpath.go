package tei

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/cognicore/teienrich/pkg/teienrich/internalerr"
)

// Namespace URIs bound for every expression.
const (
	NSTEI = "http://www.tei-c.org/ns/1.0"
	NSXML = "http://www.w3.org/XML/1998/namespace"
)

// Namespaces is the fixed prefix binding used to compile selectors.
var Namespaces = map[string]string{
	"tei": NSTEI,
	"xml": NSXML,
}

var (
	exprMu    sync.Mutex
	exprCache = make(map[string]*xpath.Expr)
)

// Compile compiles expr with the tei/xml bindings. Results are cached.
func Compile(expr string) (*xpath.Expr, error) {
	exprMu.Lock()
	defer exprMu.Unlock()

	if e, ok := exprCache[expr]; ok {
		return e, nil
	}
	e, err := xpath.CompileWithNS(expr, Namespaces)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", internalerr.ErrInvalidSelector, expr, err)
	}
	exprCache[expr] = e
	return e, nil
}

// evaluate runs expr with node as the context node. The navigator is rooted
// at the owning document so absolute paths behave as usual.
func evaluate(doc, node *xmlquery.Node, expr string) (result interface{}, err error) {
	e, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	nav, err := navigatorAt(doc, node)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %q: %v", internalerr.ErrInvalidSelector, expr, r)
		}
	}()
	return e.Evaluate(nav), nil
}

func navigatorAt(doc, node *xmlquery.Node) (*xmlquery.NodeNavigator, error) {
	if doc == nil || node == nil {
		return nil, fmt.Errorf("tei: empty document")
	}
	nav := xmlquery.CreateXPathNavigator(doc)
	if node == doc {
		return nav, nil
	}

	// Walk from the document node down the ancestor chain of node.
	var chain []*xmlquery.Node
	for n := node; n != nil && n != doc; n = n.Parent {
		chain = append(chain, n)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if !nav.MoveToChild() {
			return nil, fmt.Errorf("tei: node is not attached to document")
		}
		for nav.Current() != chain[i] {
			if !nav.MoveToNext() {
				return nil, fmt.Errorf("tei: node is not attached to document")
			}
		}
	}
	return nav, nil
}

func selectNodes(doc, node *xmlquery.Node, expr string) ([]*xmlquery.Node, error) {
	res, err := evaluate(doc, node, expr)
	if err != nil {
		return nil, err
	}
	it, ok := res.(*xpath.NodeIterator)
	if !ok {
		return nil, fmt.Errorf("%w: %q does not select nodes", internalerr.ErrInvalidSelector, expr)
	}

	var out []*xmlquery.Node
	for it.MoveNext() {
		cur, ok := it.Current().(*xmlquery.NodeNavigator)
		if !ok {
			continue
		}
		if cur.NodeType() == xpath.AttributeNode {
			out = append(out, attributeNode(cur))
			continue
		}
		out = append(out, cur.Current())
	}
	return out, nil
}

// attributeNode mirrors how xmlquery exposes attribute matches: a detached
// attribute node whose parent is the owner element and whose only child holds
// the value.
func attributeNode(nav *xmlquery.NodeNavigator) *xmlquery.Node {
	text := &xmlquery.Node{Type: xmlquery.TextNode, Data: nav.Value()}
	return &xmlquery.Node{
		Parent:       nav.Current(),
		Type:         xmlquery.AttributeNode,
		Data:         nav.LocalName(),
		Prefix:       nav.Prefix(),
		NamespaceURI: nav.NamespaceURL(),
		FirstChild:   text,
		LastChild:    text,
	}
}

func selectStrings(doc, node *xmlquery.Node, expr string) ([]string, error) {
	res, err := evaluate(doc, node, expr)
	if err != nil {
		return nil, err
	}

	switch v := res.(type) {
	case *xpath.NodeIterator:
		var out []string
		for v.MoveNext() {
			out = append(out, v.Current().Value())
		}
		return out, nil
	case string:
		return []string{v}, nil
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case bool:
		return []string{strconv.FormatBool(v)}, nil
	default:
		return nil, fmt.Errorf("%w: %q: unsupported result %T", internalerr.ErrInvalidSelector, expr, res)
	}
}
