package parse

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"eventsift/internal/events"
	"eventsift/internal/services"
	"eventsift/internal/textutil"
)

// SourceType selects the extraction strategy for a configured source.
type SourceType string

// Known source types. Any other tag is parsed with the generic strategy.
const (
	SourceEventbrite SourceType = "eventbrite"
	SourceMeetup     SourceType = "meetup"
	SourceDevpost    SourceType = "devpost"
	SourceGeneric    SourceType = "generic"
)

// DefaultLimit caps the candidates extracted from one page.
const DefaultLimit = 15

// Target describes the page being parsed.
type Target struct {
	// URL is the page URL; relative hrefs resolve against it.
	URL string
	// Type is the configured source tag, lowercase.
	Type string
	// Name overrides the display name stored on each candidate.
	Name string
	// Location is used when a listing carries no location.
	Location string
	Limit    int
}

// Extraction is the outcome of extracting one candidate. Err wraps
// services.ErrParseSkip when the element did not yield a candidate.
type Extraction struct {
	Candidate events.Candidate
	Err       error
}

// Result aggregates the extractions for one page.
type Result struct {
	Candidates []events.Candidate
	Skipped    int
	// Err is set when the page could not be parsed at all.
	Err error
}

// Parser extracts candidate events from a parsed document.
type Parser interface {
	// Name is the source type the parser was registered for.
	Name() SourceType
	Extract(doc *html.Node, target Target) []Extraction
}

var registry = map[SourceType]Parser{
	SourceEventbrite: eventbriteParser{},
	SourceMeetup:     meetupParser{},
	SourceDevpost:    devpostParser{},
}

// For returns the parser registered for the source type, falling back to the
// generic parser.
func For(sourceType string) Parser {
	if p, ok := registry[SourceType(strings.ToLower(strings.TrimSpace(sourceType)))]; ok {
		return p
	}
	return genericParser{}
}

// Parse runs p over content and aggregates the per-candidate extractions.
func Parse(p Parser, content []byte, target Target) Result {
	if target.Limit <= 0 {
		target.Limit = DefaultLimit
	}
	if strings.TrimSpace(target.Location) == "" {
		target.Location = "London"
	}
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return Result{Err: services.Wrap(services.ErrParseSkip, "parse", string(p.Name()), target.URL, err)}
	}
	var result Result
	for _, ex := range p.Extract(doc, target) {
		if ex.Err != nil {
			result.Skipped++
			continue
		}
		if len(result.Candidates) >= target.Limit {
			break
		}
		result.Candidates = append(result.Candidates, ex.Candidate)
	}
	return result
}

// displayName returns the configured name or the fallback.
func displayName(target Target, fallback string) string {
	if name := strings.TrimSpace(target.Name); name != "" {
		return name
	}
	return fallback
}

func skip(p Parser, target Target, reason string) Extraction {
	return Extraction{Err: services.Wrap(services.ErrParseSkip, "parse", string(p.Name()), reason+" ("+target.URL+")", nil)}
}

// titleFrom cleans and bounds a raw title, reporting whether it is usable.
func titleFrom(raw string) (string, bool) {
	title := cleanText(raw)
	if len([]rune(title)) < minTitleLength {
		return "", false
	}
	return textutil.Truncate(title, maxTitleLength), true
}

func candidate(prefix, sourceName, title, date, location, sourceURL string, category events.Category, free bool) events.Candidate {
	return events.Candidate{
		SourceID:   textutil.SourceID(prefix, title, date),
		Title:      title,
		Date:       date,
		Location:   textutil.Truncate(location, maxLocationLength),
		Category:   category,
		IsFree:     free,
		SourceName: sourceName,
		SourceURL:  sourceURL,
	}
}
