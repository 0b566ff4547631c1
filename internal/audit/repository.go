// Package audit provides access to the signal_events table for
// querying decoded-signal history.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SignalEvent represents a single decoded signal and its translation outcome.
type SignalEvent struct {
	ID         string    `json:"id"`
	Protocol   int32     `json:"protocol"`
	Device     int32     `json:"device"`
	Command    int32     `json:"command"`
	Matched    bool      `json:"matched"`
	Emissions  int       `json:"emissions"`
	Source     string    `json:"source,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Filter controls which signal events to return.
type Filter struct {
	Protocol *int32 // optional: filter by protocol number
	Device   *int32 // optional: filter by device address
	Command  *int32 // optional: filter by command value
	Matched  *bool  // optional: filter by translation outcome
	Source   string // optional: filter by decoder source
	Limit    int    // default 50, max 200
	Offset   int    // pagination offset
}

// ListResult contains the paginated signal event results.
type ListResult struct {
	Events []SignalEvent `json:"events"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// Repository defines the interface for signal log operations.
type Repository interface {
	Record(ctx context.Context, event *SignalEvent) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores signal events in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new signal log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a new signal event. The ID and ReceivedAt are generated if empty.
func (r *SQLiteRepository) Record(ctx context.Context, event *SignalEvent) error {
	if event.ID == "" {
		event.ID = "sig-" + uuid.NewString()[:8]
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	matched := 0
	if event.Matched {
		matched = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO signal_events (id, protocol, device, command, matched, emissions, source, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Protocol, event.Device, event.Command,
		matched, event.Emissions, nullableString(event.Source),
		event.ReceivedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting signal event: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns signal events matching the filter, ordered by most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) { //nolint:gocognit,gocyclo // dynamic query builder: WHERE clause assembly from filter fields
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for signal log queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Build WHERE clause dynamically.
	var conditions []string
	var args []any

	if filter.Protocol != nil {
		conditions = append(conditions, "protocol = ?")
		args = append(args, *filter.Protocol)
	}
	if filter.Device != nil {
		conditions = append(conditions, "device = ?")
		args = append(args, *filter.Device)
	}
	if filter.Command != nil {
		conditions = append(conditions, "command = ?")
		args = append(args, *filter.Command)
	}
	if filter.Matched != nil {
		conditions = append(conditions, "matched = ?")
		if *filter.Matched {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM signal_events %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting signal events: %w", err)
	}

	// Get paginated results.
	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, protocol, device, command, matched, emissions, source, received_at FROM signal_events %s ORDER BY received_at DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying signal events: %w", err)
	}
	defer rows.Close()

	var events []SignalEvent
	for rows.Next() {
		var event SignalEvent
		var matched int
		var source sql.NullString
		var receivedAt string

		if err := rows.Scan(&event.ID, &event.Protocol, &event.Device, &event.Command,
			&matched, &event.Emissions, &source, &receivedAt); err != nil {
			return nil, fmt.Errorf("scanning signal event: %w", err)
		}

		event.Matched = matched != 0
		if source.Valid {
			event.Source = source.String
		}

		t, err := time.Parse(time.RFC3339, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing signal event timestamp %q: %w", receivedAt, err)
		}
		event.ReceivedAt = t

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating signal events: %w", err)
	}

	if events == nil {
		events = []SignalEvent{}
	}

	return &ListResult{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}
