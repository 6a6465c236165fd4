package scrape

import (
	"strings"

	"golang.org/x/net/html"
)

// Prettify renders the document with one node per line, each indented by
// one space per nesting level.
func (p *Page) Prettify() string {
	if p == nil || p.Doc == nil {
		return ""
	}
	var b strings.Builder
	for _, n := range p.Doc.Nodes {
		prettifyNode(&b, n, 0)
	}
	return b.String()
}

// voidElements never have closing tags.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// rawTextElements hold text that must not be escaped.
var rawTextElements = map[string]bool{
	"script": true, "style": true,
}

func prettifyNode(b *strings.Builder, n *html.Node, depth int) {
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			prettifyNode(b, c, depth)
		}

	case html.DoctypeNode:
		writeLine(b, depth, "<!DOCTYPE "+n.Data+">")

	case html.CommentNode:
		writeLine(b, depth, "<!--"+n.Data+"-->")

	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		if n.Parent != nil && rawTextElements[n.Parent.Data] {
			writeLine(b, depth, text)
			return
		}
		writeLine(b, depth, html.EscapeString(text))

	case html.ElementNode:
		writeLine(b, depth, openTag(n))
		if voidElements[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			prettifyNode(b, c, depth+1)
		}
		writeLine(b, depth, "</"+n.Data+">")
	}
}

func openTag(n *html.Node) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteByte(' ')
		if a.Namespace != "" {
			b.WriteString(a.Namespace)
			b.WriteByte(':')
		}
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}

func writeLine(b *strings.Builder, depth int, s string) {
	b.WriteString(strings.Repeat(" ", depth))
	b.WriteString(s)
	b.WriteByte('\n')
}
