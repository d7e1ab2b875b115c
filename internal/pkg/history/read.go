package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type MicrophoneEvent struct {
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	SeatID     string    `json:"seat_id"`
	State      string    `json:"state"`
}

// RecentMicrophoneEvents returns up to limit events, newest first.
func (db *Database) RecentMicrophoneEvents(ctx context.Context, limit int) ([]MicrophoneEvent, error) {
	const query = `
	SELECT id, occurred_at, seat_id, state
	FROM microphone_events
	ORDER BY occurred_at DESC
	LIMIT $1;
	`
	rows, err := db.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []MicrophoneEvent
	for rows.Next() {
		var event MicrophoneEvent
		if err := rows.Scan(&event.ID, &event.OccurredAt, &event.SeatID, &event.State); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		if err == pgx.ErrNoRows {
			return events, nil
		}
		return nil, err
	}
	return events, nil
}
