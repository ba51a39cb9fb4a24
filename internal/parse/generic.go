package parse

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"eventsift/internal/textutil"
)

const (
	genericSelectorLimit = 20
	genericLinkScanLimit = 10
)

var (
	genericBlockClass = regexp.MustCompile(`event|Event`)
	genericDateClass  = regexp.MustCompile(`date|time`)
	genericKeywords   = []string{"event", "workshop", "meetup", "talk", "conference", "summit"}
)

type genericParser struct{}

func (genericParser) Name() SourceType { return SourceGeneric }

func (p genericParser) Extract(doc *html.Node, target Target) []Extraction {
	prefix := genericPrefix(target)
	name := displayName(target, prefix)

	selectors := []matcher{
		tagWith([]atom.Atom{atom.Article}, nil),
		tagWith([]atom.Atom{atom.Div}, classMatches(genericBlockClass)),
		tagWith([]atom.Atom{atom.Li}, classMatches(genericBlockClass)),
	}
	var blocks []*html.Node
	for _, sel := range selectors {
		blocks = append(blocks, findAll(doc, sel, genericSelectorLimit)...)
	}
	if len(blocks) == 0 {
		return p.keywordLinks(doc, target, prefix, name)
	}
	if len(blocks) > target.Limit {
		blocks = blocks[:target.Limit]
	}
	out := make([]Extraction, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, p.block(block, target, prefix, name))
	}
	return out
}

func (p genericParser) block(block *html.Node, target Target, prefix, name string) Extraction {
	title, ok := titleFrom(textContent(findFirst(block, tagWith([]atom.Atom{atom.H2, atom.H3, atom.A}, nil))))
	if !ok {
		return skip(p, target, "block without title")
	}
	link := target.URL
	if a := findFirst(block, tagWith([]atom.Atom{atom.A}, withHref)); a != nil {
		href, _ := attr(a, "href")
		link = resolveURL(target.URL, href)
	}
	date := cleanText(textContent(findFirst(block, tagWith([]atom.Atom{atom.Time, atom.Span}, classMatches(genericDateClass)))))

	c := candidate(prefix, name, title, date, target.Location, link, "", false)
	// Generic identities never include the date.
	c.SourceID = textutil.SourceID(prefix, title, "")
	return Extraction{Candidate: c}
}

func (p genericParser) keywordLinks(doc *html.Node, target Target, prefix, name string) []Extraction {
	links := findAll(doc, tagWith([]atom.Atom{atom.A}, withHref), genericLinkScanLimit)
	var out []Extraction
	for _, a := range links {
		text := cleanText(textContent(a))
		if !hasKeyword(text) {
			continue
		}
		title := textutil.Truncate(text, maxTitleLength)
		href, _ := attr(a, "href")
		out = append(out, Extraction{Candidate: candidate(
			prefix, name, title, "", target.Location, resolveURL(target.URL, href), "", false,
		)})
	}
	return out
}

func hasKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range genericKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// genericPrefix derives the identity prefix from the source tag, e.g.
// "imperial" becomes "Imperial".
func genericPrefix(target Target) string {
	tag := strings.TrimSpace(target.Type)
	if tag == "" || tag == string(SourceGeneric) {
		if name := strings.TrimSpace(target.Name); name != "" {
			return name
		}
		tag = string(SourceGeneric)
	}
	return textutil.TitleCase(tag)
}
