// Package ui renders dashboard state into HTML node trees.
//
// Elements never carry inline script. Interactive elements are tagged with
// On, which renders data-on, data-action and data-arg-* attributes that the
// page script turns into POST /ui/actions/:name calls.
package ui

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Option configures an element under construction.
type Option func(n *html.Node)

// El builds an element with the given options applied in order.
func El(tag string, opts ...Option) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Attr sets attribute key to val, replacing an earlier value.
func Attr(key, val string) Option {
	return func(n *html.Node) {
		for i := range n.Attr {
			if n.Attr[i].Key == key {
				n.Attr[i].Val = val
				return
			}
		}
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
}

// ID sets the id attribute.
func ID(id string) Option { return Attr("id", id) }

// Class sets the class attribute from the non-empty names.
func Class(names ...string) Option {
	kept := names[:0:0]
	for _, c := range names {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return Attr("class", strings.Join(kept, " "))
}

// Style sets the style attribute.
func Style(css string) Option { return Attr("style", css) }

// If applies opt only when cond holds.
func If(cond bool, opt Option) Option {
	if !cond {
		return nil
	}
	return opt
}

// Text appends an escaped text child.
func Text(s string) Option {
	return func(n *html.Node) {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
}

// Children appends child nodes; nil children are skipped.
func Children(children ...*html.Node) Option {
	return func(n *html.Node) {
		for _, c := range children {
			if c != nil {
				n.AppendChild(c)
			}
		}
	}
}

// On attaches a listener: when event fires on the element the page posts
// action with args. Arguments are rendered in key order.
func On(event, action string, args map[string]string) Option {
	return func(n *html.Node) {
		Attr("data-on", event)(n)
		Attr("data-action", action)(n)
		keys := make([]string, 0, len(args))
		for k := range args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			Attr("data-arg-"+k, args[k])(n)
		}
	}
}

// Confirm makes the page ask message before sending the action; the answer
// is sent as the "confirmed" argument.
func Confirm(message string) Option { return Attr("data-confirm", message) }

// CollectForm makes the page send the fields of the enclosing form along
// with the action.
func CollectForm() Option { return Attr("data-collect", "form") }

// Icon is a Font Awesome icon element.
func Icon(name string) *html.Node {
	return El("i", Class("fas", "fa-"+name))
}

// Render writes n as HTML.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// RenderString renders n to a string.
func RenderString(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
