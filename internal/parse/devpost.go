package parse

import (
	"regexp"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"eventsift/internal/events"
)

var (
	devpostCardClass      = regexp.MustCompile(`hackathon-card`)
	devpostHackathonClass = regexp.MustCompile(`hackathon`)
)

type devpostParser struct{}

func (devpostParser) Name() SourceType { return SourceDevpost }

func (p devpostParser) Extract(doc *html.Node, target Target) []Extraction {
	items := findAll(doc, tagWith([]atom.Atom{atom.A}, classMatches(devpostCardClass)), target.Limit)
	if len(items) == 0 {
		items = findAll(doc, tagWith([]atom.Atom{atom.Div}, classMatches(devpostHackathonClass)), target.Limit)
	}
	out := make([]Extraction, 0, len(items))
	for _, item := range items {
		out = append(out, p.item(item, target))
	}
	return out
}

func (p devpostParser) item(item *html.Node, target Target) Extraction {
	titleEl := findFirst(item, tagWith([]atom.Atom{atom.H2}, nil))
	if titleEl == nil {
		titleEl = findFirst(item, tagWith([]atom.Atom{atom.A}, nil))
	}
	title, ok := titleFrom(textContent(titleEl))
	if !ok {
		return skip(p, target, "hackathon without title")
	}
	link := target.URL
	if href, ok := attr(item, "href"); ok && href != "" {
		link = resolveURL(target.URL, href)
	}
	return Extraction{Candidate: candidate(
		string(SourceDevpost), displayName(target, "DevPost"),
		title, "", target.Location, link, events.CategoryHackathon, true,
	)}
}
