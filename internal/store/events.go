package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventsift/internal/events"
	"eventsift/internal/services"
)

// ErrDuplicate marks an insert rejected by the source_id uniqueness constraint.
var ErrDuplicate = errors.New("duplicate source_id")

// deleteChunkSize bounds the number of placeholders per DELETE statement.
const deleteChunkSize = 200

// Insert persists a candidate as a new unverified record.
// A source_id collision returns an error matching both services.ErrPersistence and ErrDuplicate.
func (s *Store) Insert(ctx context.Context, candidate events.Candidate) (*events.Event, error) {
	title := strings.TrimSpace(candidate.Title)
	if title == "" {
		return nil, services.Wrap(services.ErrPersistence, "store", "insert", "title is required", nil)
	}
	now := time.Now().UTC()
	var category any
	if candidate.Category != "" {
		category = string(candidate.Category)
	}

	var id int64
	err := retryOnBusy(ensureContext(ctx), func() error {
		return s.queryRow(ctx,
			`INSERT INTO events (
                source_id, title, date, location, category, is_free,
                source_name, source_url, confidence_score, is_valid, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?) RETURNING id`,
			nullableString(candidate.SourceID),
			title,
			nullableString(candidate.Date),
			candidate.Location,
			category,
			candidate.IsFree,
			candidate.SourceName,
			candidate.SourceURL,
			false,
			formatTime(now),
		).Scan(&id)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, services.Wrap(services.ErrPersistence, "store", "insert", "source_id "+candidate.SourceID, fmt.Errorf("%w: %w", ErrDuplicate, err))
		}
		return nil, services.Wrap(services.ErrPersistence, "store", "insert", "", err)
	}
	return s.GetByID(ctx, id)
}

// ExistsBySourceID reports whether a record with the given stable identity exists.
func (s *Store) ExistsBySourceID(ctx context.Context, sourceID string) (bool, error) {
	if strings.TrimSpace(sourceID) == "" {
		return false, nil
	}
	var count int
	if err := s.queryRow(ctx, `SELECT COUNT(1) FROM events WHERE source_id = ?`, sourceID).Scan(&count); err != nil {
		return false, fmt.Errorf("exists by source_id: %w", err)
	}
	return count > 0, nil
}

// GetByID fetches an event by identifier. A missing record returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	row := s.queryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ListOptions filters List results.
type ListOptions struct {
	ValidOnly bool
	Limit     int
}

// List returns stored events ordered by id.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]events.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var args []any
	if opts.ValidOnly {
		query += ` WHERE is_valid = ?`
		args = append(args, true)
	}
	query += ` ORDER BY id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	list, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return list, nil
}

// ListUnverified returns up to limit records that are unclassified or not
// valid, most recently created first.
func (s *Store) ListUnverified(ctx context.Context, limit int) ([]events.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.query(ctx,
		`SELECT `+eventColumns+` FROM events
         WHERE confidence_score IS NULL OR is_valid = ?
         ORDER BY created_at DESC, id DESC
         LIMIT ?`,
		false, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unverified: %w", err)
	}
	list, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("scan unverified: %w", err)
	}
	return list, nil
}

// UpdateURL rewrites the stored source_url of a record.
func (s *Store) UpdateURL(ctx context.Context, id int64, url string) error {
	if _, err := s.execWithRetry(ctx, `UPDATE events SET source_url = ? WHERE id = ?`, url, id); err != nil {
		return services.Wrap(services.ErrPersistence, "store", "update url", fmt.Sprintf("event %d", id), err)
	}
	return nil
}

// SetSourceID assigns a stable identity to a record that lacks one.
func (s *Store) SetSourceID(ctx context.Context, id int64, sourceID string) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE events SET source_id = ? WHERE id = ? AND (source_id IS NULL OR source_id = '')`,
		sourceID, id,
	); err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
		return services.Wrap(services.ErrPersistence, "store", "set source_id", fmt.Sprintf("event %d", id), err)
	}
	return nil
}

// Delete removes the records with the given ids and returns the number removed.
func (s *Store) Delete(ctx context.Context, ids ...int64) (int, error) {
	removed := 0
	for start := 0; start < len(ids); start += deleteChunkSize {
		end := min(start+deleteChunkSize, len(ids))
		chunk := ids[start:end]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		res, err := s.execWithRetry(ctx, `DELETE FROM events WHERE id IN (`+makePlaceholders(len(chunk))+`)`, args...)
		if err != nil {
			return removed, services.Wrap(services.ErrPersistence, "store", "delete", "", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += int(n)
		}
	}
	return removed, nil
}

// Reject records a rejection verdict. Title, category, and date are untouched.
// It reports false when no record has the given id.
func (s *Store) Reject(ctx context.Context, id int64, confidence float64) (bool, error) {
	status := events.Rejected(confidence)
	isValid, conf := status.Columns()
	res, err := s.execWithRetry(ctx,
		`UPDATE events SET is_valid = ?, confidence_score = ? WHERE id = ?`,
		isValid, nullableFloat(conf), id,
	)
	if err != nil {
		return false, services.Wrap(services.ErrPersistence, "store", "reject", fmt.Sprintf("event %d", id), err)
	}
	return affected(res), nil
}

// Acceptance carries the classifier's normalized fields for an accepted record.
type Acceptance struct {
	Title      string
	Category   events.Category
	Date       string
	Confidence float64
}

// Accept marks a record valid and overwrites its title, category, and date.
// A confidence below events.MinAcceptConfidence is stored as a rejection.
// It reports false when no record has the given id.
func (s *Store) Accept(ctx context.Context, id int64, acc Acceptance) (bool, error) {
	status := events.Accepted(acc.Confidence)
	if !status.Valid() {
		return s.Reject(ctx, id, acc.Confidence)
	}
	isValid, conf := status.Columns()
	category := acc.Category
	if category == "" {
		category = events.CategoryOther
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE events
         SET is_valid = ?, confidence_score = ?, title = ?, category = ?, date = ?
         WHERE id = ?`,
		isValid, nullableFloat(conf), acc.Title, string(category), nullableString(acc.Date), id,
	)
	if err != nil {
		return false, services.Wrap(services.ErrPersistence, "store", "accept", fmt.Sprintf("event %d", id), err)
	}
	return affected(res), nil
}

// Stats returns record counts by verification status.
func (s *Store) Stats(ctx context.Context) (events.Summary, error) {
	var summary events.Summary
	queries := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&summary.Total, `SELECT COUNT(1) FROM events`, nil},
		{&summary.Valid, `SELECT COUNT(1) FROM events WHERE is_valid = ?`, []any{true}},
		{&summary.Unverified, `SELECT COUNT(1) FROM events WHERE confidence_score IS NULL`, nil},
		{&summary.Rejected, `SELECT COUNT(1) FROM events WHERE confidence_score IS NOT NULL AND is_valid = ?`, []any{false}},
	}
	for _, q := range queries {
		if err := s.queryRow(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return events.Summary{}, fmt.Errorf("event stats: %w", err)
		}
	}
	return summary, nil
}

func affected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}
