package ui

import (
	"golang.org/x/net/html"

	"github.com/icplatform/dashboard/internal/dashboard"
)

const (
	// TabMeta names the meta element holding the page's tab id.
	TabMeta = "icdash-tab"

	defaultTitle   = "IC Platform"
	fontAwesomeCSS = "https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.4.0/css/all.min.css"
)

// Page renders the full document for s. tabID identifies the tab session
// the page script talks to.
func Page(s dashboard.State, tabID string) *html.Node {
	title := s.Title
	if title == "" {
		title = defaultTitle
	}

	head := El("head", Children(
		El("meta", Attr("charset", "UTF-8")),
		El("meta", Attr("name", "viewport"), Attr("content", "width=device-width, initial-scale=1.0")),
		El("meta", Attr("name", TabMeta), Attr("content", tabID)),
		El("title", Text(title)),
		El("link", Attr("rel", "stylesheet"), Attr("href", fontAwesomeCSS)),
		El("style", Text(pageCSS)),
	))

	body := El("body", Children(
		El("header", Class("hdr"), Children(
			El("h1", Children(Icon("microchip")), Text(" "+title)),
			El("div", Class("hdr-right"), Children(BackendStatus(s.Backend))),
		)),
		El("div", Class("layout"), Children(
			Menu(s.View),
			El("main", Class("content"), Children(View(s))),
			LogPanel(s.Log),
		)),
		ConfigModal(s.Modal),
		Loading(),
		ToastStack(s.Toasts),
		El("script", Text(pageJS)),
	))

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(El("html", Attr("lang", "zh-CN"), Children(head, body)))
	return doc
}
