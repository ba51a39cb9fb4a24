package parse

import (
	"regexp"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"eventsift/internal/events"
)

var (
	meetupCardHeadClass = regexp.MustCompile(`eventCardHead`)
	meetupCardClass     = regexp.MustCompile(`eventCard`)
)

type meetupParser struct{}

func (meetupParser) Name() SourceType { return SourceMeetup }

func (p meetupParser) Extract(doc *html.Node, target Target) []Extraction {
	items := findAll(doc, tagWith([]atom.Atom{atom.A}, classMatches(meetupCardHeadClass)), target.Limit)
	if len(items) == 0 {
		items = findAll(doc, tagWith([]atom.Atom{atom.Div}, classMatches(meetupCardClass)), target.Limit)
	}
	out := make([]Extraction, 0, len(items))
	for _, item := range items {
		out = append(out, p.item(item, target))
	}
	return out
}

func (p meetupParser) item(item *html.Node, target Target) Extraction {
	title, ok := titleFrom(textContent(item))
	if !ok {
		return skip(p, target, "listing without title")
	}
	link := target.URL
	if a := findFirst(item, tagWith([]atom.Atom{atom.A}, withHref)); a != nil {
		href, _ := attr(a, "href")
		link = resolveURL(target.URL, href)
	} else if href, ok := attr(item, "href"); ok && href != "" {
		link = resolveURL(target.URL, href)
	}
	return Extraction{Candidate: candidate(
		string(SourceMeetup), displayName(target, "Meetup"),
		title, "", target.Location, link, events.CategoryMeetup, true,
	)}
}
