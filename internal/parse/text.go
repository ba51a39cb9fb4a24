package parse

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"eventsift/internal/textutil"
)

const (
	maxTitleLength    = 150
	maxLocationLength = 100
	minTitleLength    = 3
)

// stripPolicy removes markup that survives as literal text in a listing.
var stripPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// literalMarkup matches a closing or self-closing tag in already-decoded text,
// the trace a listing leaves when it double-escapes its markup. A lone element
// name such as "<canvas>" in a title is not matched.
var literalMarkup = regexp.MustCompile(`</[a-zA-Z][a-zA-Z0-9-]*\s*>|<[a-zA-Z][a-zA-Z0-9-]*(\s[^<>]*)?/>`)

// cleanText takes decoded DOM text, strips literal markup when present, and
// collapses whitespace.
func cleanText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if literalMarkup.MatchString(raw) {
		raw = html.UnescapeString(stripPolicy.Sanitize(raw))
	}
	return textutil.CollapseSpace(raw)
}

// resolveURL resolves href against the page URL. Unparseable input is
// returned trimmed so the URL-cleaning stage can discard it later.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return ref.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
