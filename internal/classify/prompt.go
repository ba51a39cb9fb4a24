package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eventsift/internal/events"
)

const systemPrompt = "You are a helpful assistant that cleans and validates tech events in %s.\n" +
	"You must ONLY output valid JSON, no extra text.\n"

const instructionsTemplate = `Given this list of event candidates, return a JSON array where each item has:
- id (same as input id)
- is_valid (true/false: upcoming and truly tech/computer science related in %[1]s)
- cleaned_title (string, concise and clear)
- category (one of: %[2]s)
- confidence (number 0-1)
- date (ISO date YYYY-MM-DD; if unknown or past, treat as invalid)
Rules:
- Today is %[3]s. Invalid if the event date is in the past.
- If unsure whether it's tech-related, set is_valid=false.
- Only keep events in %[4]s or surrounding areas clearly marked as %[1]s.
- Use confidence >= %[5]g only when you're fairly sure.
- If you think an event is invalid, set is_valid=false and confidence<=0.6.
`

type promptEvent struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date,omitempty"`
	Location   string `json:"location"`
	IsFree     bool   `json:"is_free"`
	SourceName string `json:"source_name"`
	SourceURL  string `json:"source_url"`
	CreatedAt  string `json:"created_at"`
}

type promptPayload struct {
	Instructions string        `json:"instructions"`
	Events       []promptEvent `json:"events"`
}

// BuildPrompt returns the system and user messages for a batch.
func BuildPrompt(batch []events.Event, region string, threshold float64, today time.Time) (string, string, error) {
	if strings.TrimSpace(region) == "" {
		region = "London"
	}
	categories := make([]string, 0, 5)
	for _, c := range events.AllCategories() {
		categories = append(categories, string(c))
	}
	payload := promptPayload{
		Instructions: fmt.Sprintf(instructionsTemplate,
			region,
			strings.Join(categories, ", "),
			today.Format(time.DateOnly),
			strings.ToUpper(region),
			threshold,
		),
		Events: make([]promptEvent, 0, len(batch)),
	}
	for _, event := range batch {
		pe := promptEvent{
			ID:         event.ID,
			Title:      event.Title,
			Date:       event.Date,
			Location:   event.Location,
			IsFree:     event.IsFree,
			SourceName: event.SourceName,
			SourceURL:  event.SourceURL,
		}
		if !event.CreatedAt.IsZero() {
			pe.CreatedAt = event.CreatedAt.UTC().Format(time.RFC3339)
		}
		payload.Events = append(payload.Events, pe)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", "", fmt.Errorf("encode prompt: %w", err)
	}
	return fmt.Sprintf(systemPrompt, region), strings.TrimSpace(buf.String()), nil
}
