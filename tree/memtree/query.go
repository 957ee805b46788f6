package memtree

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/hupe1980/treemirror/tree"
)

// ElementByID returns the element whose id attribute equals id, or nil.
func (d *Document) ElementByID(id string) tree.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	d.forEachElement(func(h *html.Node) bool {
		for _, a := range h.Attr {
			if a.Key == "id" && a.Val == id {
				found = h
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil
	}
	return d.node(found)
}

// ElementsByClassName returns all elements carrying the given class.
func (d *Document) ElementsByClassName(name string) []tree.Node {
	if name == "" {
		return nil
	}
	var out []*html.Node
	d.forEachElement(func(h *html.Node) bool {
		for _, a := range h.Attr {
			if a.Key != "class" {
				continue
			}
			for _, c := range strings.Fields(a.Val) {
				if c == name {
					out = append(out, h)
					break
				}
			}
		}
		return true
	})
	return d.wrapAll(out)
}

// ElementsByTagName returns all elements with the given tag name.
func (d *Document) ElementsByTagName(name string) []tree.Node {
	if name == "" {
		return nil
	}
	name = strings.ToLower(name)
	var out []*html.Node
	d.forEachElement(func(h *html.Node) bool {
		if h.Data == name {
			out = append(out, h)
		}
		return true
	})
	return d.wrapAll(out)
}

// QuerySelectorAll evaluates a structural selector via cascadia.
func (d *Document) QuerySelectorAll(selector string) ([]tree.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	d.mu.RLock()
	matches := sel.MatchAll(d.root)
	d.mu.RUnlock()
	return d.wrapAll(matches), nil
}

// QueryPath evaluates an XPath expression via htmlquery.
func (d *Document) QueryPath(expr string) ([]tree.Node, error) {
	d.mu.RLock()
	matches, err := htmlquery.QueryAll(d.root, expr)
	d.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return d.wrapAll(matches), nil
}

// forEachElement walks all elements in document order until fn returns
// false.
func (d *Document) forEachElement(fn func(*html.Node) bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var walk func(*html.Node) bool
	walk = func(h *html.Node) bool {
		if h.Type == html.ElementNode && !fn(h) {
			return false
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(d.root)
}
