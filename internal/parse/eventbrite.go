package parse

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"eventsift/internal/textutil"
)

var (
	eventbriteCardClass  = regexp.MustCompile(`EventCard`)
	eventbriteTitleClass = regexp.MustCompile(`event-title`)
	eventbriteDateSpec   = regexp.MustCompile(`date`)
	eventbriteLocSpec    = regexp.MustCompile(`location|sub-title`)
	eventbritePriceClass = regexp.MustCompile(`price|free`)
)

type eventbriteParser struct{}

func (eventbriteParser) Name() SourceType { return SourceEventbrite }

func (p eventbriteParser) Extract(doc *html.Node, target Target) []Extraction {
	cards := findAll(doc, tagWith([]atom.Atom{atom.Article}, hasAttr("data-event-id")), target.Limit)
	if len(cards) == 0 {
		cards = findAll(doc, tagWith([]atom.Atom{atom.Div}, classMatches(eventbriteCardClass)), target.Limit)
	}
	out := make([]Extraction, 0, len(cards))
	for _, card := range cards {
		out = append(out, p.card(card, target))
	}
	return out
}

func (p eventbriteParser) card(card *html.Node, target Target) Extraction {
	titleEl := findFirst(card, tagWith([]atom.Atom{atom.H2, atom.H3}, nil))
	if titleEl == nil {
		titleEl = findFirst(card, tagWith([]atom.Atom{atom.A}, classMatches(eventbriteTitleClass)))
	}
	title := textutil.Truncate(cleanText(textContent(titleEl)), maxTitleLength)
	if title == "" {
		return skip(p, target, "card without title")
	}

	link := ""
	if a := findFirst(card, tagWith([]atom.Atom{atom.A}, withHref)); a != nil {
		href, _ := attr(a, "href")
		link = resolveURL(target.URL, href)
	}
	if link == "" || !strings.Contains(link, "eventbrite") {
		link = target.URL
	}

	date := cleanText(textContent(findFirst(card, tagWith([]atom.Atom{atom.Time, atom.Span}, attrPattern("data-spec", eventbriteDateSpec)))))

	location := target.Location
	if locEl := findFirst(card, tagWith([]atom.Atom{atom.Span, atom.Div}, attrPattern("data-spec", eventbriteLocSpec))); locEl != nil {
		if text := cleanText(textContent(locEl)); text != "" {
			location = text
		}
	}

	free := false
	if priceEl := findFirst(card, tagWith([]atom.Atom{atom.Span, atom.Div}, classMatches(eventbritePriceClass))); priceEl != nil {
		free = strings.Contains(strings.ToLower(textContent(priceEl)), "free")
	}

	return Extraction{Candidate: candidate(
		string(SourceEventbrite), displayName(target, "EventBrite"),
		title, date, location, link, "", free,
	)}
}
