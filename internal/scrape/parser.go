package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parser selects how a response body is turned into a document.
type Parser string

const (
	// ParserHTML parses a full document, synthesizing html, head and body
	// elements when the markup omits them.
	ParserHTML Parser = "html"

	// ParserFragment parses the body as a fragment in a <body> context.
	// No html or head elements are synthesized.
	ParserFragment Parser = "fragment"
)

// ParseParser converts a name to a Parser. The empty string means ParserHTML.
func ParseParser(name string) (Parser, error) {
	switch Parser(strings.ToLower(strings.TrimSpace(name))) {
	case "", ParserHTML:
		return ParserHTML, nil
	case ParserFragment:
		return ParserFragment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownParser, name)
	}
}

// Parse reads r with the given parser.
func Parse(r io.Reader, parser Parser) (*goquery.Document, error) {
	switch parser {
	case "", ParserHTML:
		doc, err := goquery.NewDocumentFromReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse html: %w", err)
		}
		return doc, nil
	case ParserFragment:
		return parseFragment(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownParser, string(parser))
	}
}

func parseFragment(r io.Reader) (*goquery.Document, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html fragment: %w", err)
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), nil
}
