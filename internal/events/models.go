package events

import (
	"strconv"
	"strings"
	"time"
)

// MinAcceptConfidence is the lowest confidence at which a record may be valid.
const MinAcceptConfidence = 0.7

// Category is the normalized event kind assigned by the classifier.
type Category string

const (
	CategoryHackathon  Category = "Hackathon"
	CategoryWorkshop   Category = "Workshop"
	CategoryMeetup     Category = "Meetup"
	CategoryConference Category = "Conference"
	CategoryOther      Category = "Other"
)

var allCategories = []Category{
	CategoryHackathon,
	CategoryWorkshop,
	CategoryMeetup,
	CategoryConference,
	CategoryOther,
}

// AllCategories returns the ordered list of known categories.
func AllCategories() []Category {
	return append([]Category(nil), allCategories...)
}

// ParseCategory converts a free-form label into a known Category.
// Unknown or empty labels map to CategoryOther.
func ParseCategory(value string) Category {
	normalized := strings.TrimSpace(value)
	for _, category := range allCategories {
		if strings.EqualFold(normalized, string(category)) {
			return category
		}
	}
	return CategoryOther
}

// StatusKind names the verification state of a record.
type StatusKind string

const (
	StatusUnverified StatusKind = "unverified"
	StatusRejected   StatusKind = "rejected"
	StatusAccepted   StatusKind = "accepted"
)

// Status is the tagged verification state: Unverified, Rejected(confidence),
// or Accepted(confidence).
type Status struct {
	Kind       StatusKind
	Confidence float64
}

// Unverified returns the status of a record that has never been classified.
func Unverified() Status { return Status{Kind: StatusUnverified} }

// Rejected returns the status of a record the classifier did not accept.
func Rejected(confidence float64) Status {
	return Status{Kind: StatusRejected, Confidence: clampConfidence(confidence)}
}

// Accepted returns the status of a record the classifier accepted. A
// confidence below MinAcceptConfidence yields a Rejected status instead.
func Accepted(confidence float64) Status {
	confidence = clampConfidence(confidence)
	if confidence < MinAcceptConfidence {
		return Rejected(confidence)
	}
	return Status{Kind: StatusAccepted, Confidence: confidence}
}

// StatusFromColumns maps the stored is_valid/confidence_score pair to a Status.
func StatusFromColumns(isValid bool, confidence *float64) Status {
	switch {
	case confidence == nil:
		return Unverified()
	case isValid && *confidence >= MinAcceptConfidence:
		return Status{Kind: StatusAccepted, Confidence: *confidence}
	default:
		return Rejected(*confidence)
	}
}

// Columns returns the stored representation of s.
func (s Status) Columns() (bool, *float64) {
	if s.Kind == StatusUnverified || s.Kind == "" {
		return false, nil
	}
	confidence := s.Confidence
	return s.Kind == StatusAccepted, &confidence
}

// Valid reports whether the record is accepted for display.
func (s Status) Valid() bool { return s.Kind == StatusAccepted }

func (s Status) String() string {
	if s.Kind == StatusUnverified || s.Kind == "" {
		return string(StatusUnverified)
	}
	return string(s.Kind) + "(" + strconv.FormatFloat(s.Confidence, 'f', -1, 64) + ")"
}

// Event is a stored event record.
type Event struct {
	ID         int64
	SourceID   string
	Title      string
	Date       string
	Location   string
	Category   Category
	IsFree     bool
	SourceName string
	SourceURL  string
	Status     Status
	CreatedAt  time.Time
	Latitude   *float64
	Longitude  *float64
}

// Candidate is an unvalidated event extracted from a source page.
type Candidate struct {
	SourceID   string
	Title      string
	Date       string
	Location   string
	Category   Category
	IsFree     bool
	SourceName string
	SourceURL  string
}

// Verdict is one classification decision for a stored record.
type Verdict struct {
	ID           int64
	IsValid      bool
	CleanedTitle string
	Category     Category
	Confidence   float64
	Date         string
}

// Accepts reports whether the verdict marks its record valid at threshold.
func (v Verdict) Accepts(threshold float64) bool {
	if threshold < MinAcceptConfidence {
		threshold = MinAcceptConfidence
	}
	return v.IsValid && v.Confidence >= threshold
}

// Summary counts stored records by verification status.
type Summary struct {
	Total      int
	Valid      int
	Rejected   int
	Unverified int
}

func clampConfidence(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}
