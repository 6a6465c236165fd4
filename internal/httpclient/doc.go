// Package httpclient builds the *http.Client used to fetch product pages.
//
// The client keeps cookies across redirects, stops after ten redirects and
// can route traffic through a SOCKS5 proxy. Per-product cookies and headers
// are injected by a RoundTripper so that every request, redirects included,
// carries them.
package httpclient
