package classify

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"eventsift/internal/events"
	"eventsift/internal/services/llm"
)

var (
	errMissingID = errors.New("verdict without id")
	errNotArray  = errors.New("reply is not a JSON array")
)

type rawVerdict struct {
	ID           json.RawMessage `json:"id"`
	IsValid      json.RawMessage `json:"is_valid"`
	CleanedTitle json.RawMessage `json:"cleaned_title"`
	Category     json.RawMessage `json:"category"`
	Confidence   json.RawMessage `json:"confidence"`
	Date         json.RawMessage `json:"date"`
}

// DecodeVerdicts parses the service reply. It fails when the reply is not a
// JSON array; entries without a usable id are counted in skipped.
func DecodeVerdicts(content string) ([]events.Verdict, int, error) {
	var entries []json.RawMessage
	if err := llm.DecodeLLMJSON(content, &entries); err != nil {
		return nil, 0, err
	}
	if entries == nil {
		return nil, 0, errNotArray
	}
	verdicts := make([]events.Verdict, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		v, err := decodeVerdict(entry)
		if err != nil {
			skipped++
			continue
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, skipped, nil
}

func decodeVerdict(entry json.RawMessage) (events.Verdict, error) {
	var raw rawVerdict
	if err := json.Unmarshal(entry, &raw); err != nil {
		return events.Verdict{}, err
	}
	id, ok := asInt(raw.ID)
	if !ok || id <= 0 {
		return events.Verdict{}, errMissingID
	}
	confidence, _ := asFloat(raw.Confidence)
	switch {
	case confidence < 0:
		confidence = 0
	case confidence > 1:
		confidence = 1
	}
	return events.Verdict{
		ID:           id,
		IsValid:      asBool(raw.IsValid),
		CleanedTitle: strings.TrimSpace(asString(raw.CleanedTitle)),
		Category:     events.ParseCategory(asString(raw.Category)),
		Confidence:   confidence,
		Date:         strings.TrimSpace(asString(raw.Date)),
	}, nil
}

func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func asFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	if s := strings.TrimSpace(asString(raw)); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func asInt(raw json.RawMessage) (int64, bool) {
	f, ok := asFloat(raw)
	if !ok || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

func asBool(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	if f, ok := asFloat(raw); ok {
		return f != 0
	}
	switch strings.ToLower(strings.TrimSpace(asString(raw))) {
	case "true", "yes", "y", "valid":
		return true
	}
	return false
}
