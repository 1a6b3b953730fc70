package scope

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WindowFromHTML builds a window scope for an HTML page. The location is taken
// from the page itself (<base href>, then <link rel="canonical">, then
// <meta property="og:url">) and falls back to fallback when the page names
// none. Relative references are resolved against fallback.
func WindowFromHTML(r io.Reader, fallback string) (*Scope, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	href := fallback
	if ref, ok := pageLocation(doc); ok {
		href = resolve(fallback, ref)
	}

	return NewWindow(href), nil
}

func pageLocation(doc *goquery.Document) (string, bool) {
	candidates := []struct {
		selector string
		attr     string
	}{
		{"head base[href]", "href"},
		{`link[rel="canonical"][href]`, "href"},
		{`meta[property="og:url"][content]`, "content"},
	}

	for _, c := range candidates {
		value, ok := doc.Find(c.selector).First().Attr(c.attr)
		if value = strings.TrimSpace(value); ok && value != "" {
			return value, true
		}
	}
	return "", false
}

func resolve(base, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() || base == "" {
		return refURL.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
