package history

import (
	"context"
	"time"
)

// Cleanup removes events older than the retention window.
func (db *Database) Cleanup(ctx context.Context, retention time.Duration) error {
	cutoff := time.Now().Add(-retention)
	if _, err := db.conn.Exec(ctx, "DELETE FROM microphone_events WHERE occurred_at < $1", cutoff); err != nil {
		return err
	}
	if _, err := db.conn.Exec(ctx, "DELETE FROM routing_events WHERE occurred_at < $1", cutoff); err != nil {
		return err
	}
	return nil
}
