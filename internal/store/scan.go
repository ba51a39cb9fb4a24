package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"eventsift/internal/events"
)

const eventColumns = "id, source_id, title, date, location, category, is_free, source_name, source_url, confidence_score, is_valid, created_at, latitude, longitude"

// timeLayout is fixed-width so text ordering matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func scanEvent(scanner interface{ Scan(dest ...any) error }) (*events.Event, error) {
	var (
		id         int64
		sourceID   sql.NullString
		title      string
		date       sql.NullString
		location   sql.NullString
		category   sql.NullString
		isFree     sql.NullBool
		sourceName sql.NullString
		sourceURL  sql.NullString
		confidence sql.NullFloat64
		isValid    sql.NullBool
		createdRaw sql.NullString
		latitude   sql.NullFloat64
		longitude  sql.NullFloat64
	)
	if err := scanner.Scan(
		&id,
		&sourceID,
		&title,
		&date,
		&location,
		&category,
		&isFree,
		&sourceName,
		&sourceURL,
		&confidence,
		&isValid,
		&createdRaw,
		&latitude,
		&longitude,
	); err != nil {
		return nil, err
	}

	event := &events.Event{
		ID:         id,
		SourceID:   sourceID.String,
		Title:      title,
		Date:       date.String,
		Location:   location.String,
		IsFree:     isFree.Valid && isFree.Bool,
		SourceName: sourceName.String,
		SourceURL:  sourceURL.String,
		Latitude:   nullableFloatPtr(latitude),
		Longitude:  nullableFloatPtr(longitude),
		Status:     events.StatusFromColumns(isValid.Valid && isValid.Bool, nullableFloatPtr(confidence)),
	}
	if category.Valid && category.String != "" {
		event.Category = events.ParseCategory(category.String)
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		event.CreatedAt = created
	}
	return event, nil
}

func scanEvents(rows *sql.Rows) ([]events.Event, error) {
	defer rows.Close()
	var out []events.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
