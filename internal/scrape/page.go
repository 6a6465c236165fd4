package scrape

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/sha3"
)

// Page is a fetched and parsed product page.
type Page struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after redirects.
	FinalURL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Class is the status classification that allowed parsing.
	Class StatusClass

	// ContentType is the Content-Type header value.
	ContentType string

	// Headers are the response headers.
	Headers http.Header

	// Raw is the response body as read (bounded by the fetcher's max body size).
	Raw []byte

	// Title is the trimmed text of the first <title> element.
	Title string

	// Hash is the hex SHA3-256 of Raw.
	Hash string

	// Doc is the parsed document.
	Doc *goquery.Document
}

// ContentHash returns the hex SHA3-256 digest of body.
func ContentHash(body []byte) string {
	sum := sha3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Text returns the visible text of the document with whitespace collapsed.
func (p *Page) Text() string {
	if p == nil || p.Doc == nil {
		return ""
	}
	return strings.Join(strings.Fields(p.Doc.Text()), " ")
}

// Contains reports whether s appears in the page text or the raw body.
func (p *Page) Contains(s string) bool {
	if p == nil {
		return false
	}
	return strings.Contains(p.Text(), s) || strings.Contains(string(p.Raw), s)
}
