// Package history is an optional Postgres recorder of observed microphone
// and interpretation transitions. It is an audit trail, not persistence of
// the mirror: the mirror is rebuilt from the device on every connection.
package history

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
)

const writeTimeout = 5 * time.Second

// Querier is the slice of *pgx.Conn the recorder uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
}

type Database struct {
	dicentis.NopSink
	conn   Querier
	logger *zap.Logger

	mu          sync.Mutex
	prevActive  map[string]struct{}
	prevRouting map[string]dicentis.RoutingState
}

func NewDatabase(conn Querier) *Database {
	return &Database{
		conn:        conn,
		logger:      zap.L(),
		prevActive:  map[string]struct{}{},
		prevRouting: map[string]dicentis.RoutingState{},
	}
}

func (db *Database) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close(context.Background())
}

// DiscussionChanged records the delta between the previous and current
// transmitting sets as on/off events.
func (db *Database) DiscussionChanged(d dicentis.Discussion) {
	now := time.Now()

	db.mu.Lock()
	prev := db.prevActive
	db.prevActive = maps.Clone(d.ActiveSeatIDs)
	db.mu.Unlock()

	for id := range d.ActiveSeatIDs {
		if _, was := prev[id]; !was {
			db.writeMicrophoneEvent(now, id, "on")
		}
	}
	for id := range prev {
		if _, still := d.ActiveSeatIDs[id]; !still {
			db.writeMicrophoneEvent(now, id, "off")
		}
	}
}

func (db *Database) RoutingsChanged(routings map[string]dicentis.RoutingState) {
	now := time.Now()

	db.mu.Lock()
	prev := db.prevRouting
	db.prevRouting = maps.Clone(routings)
	db.mu.Unlock()

	for key, state := range routings {
		if prev[key] != state {
			db.writeRoutingEvent(now, key, state)
		}
	}
}

func (db *Database) writeMicrophoneEvent(at time.Time, seatID, state string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := db.conn.Exec(ctx, `
		INSERT INTO microphone_events (occurred_at, seat_id, state)
		VALUES ($1, $2, $3)
	`, at, seatID, state); err != nil {
		db.logger.Error("failed to record microphone event",
			zap.String("seat_id", seatID), zap.Error(err))
	}
}

func (db *Database) writeRoutingEvent(at time.Time, interpreterKey string, state dicentis.RoutingState) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := db.conn.Exec(ctx, `
		INSERT INTO routing_events (occurred_at, interpreter_key, state)
		VALUES ($1, $2, $3)
	`, at, interpreterKey, string(state)); err != nil {
		db.logger.Error("failed to record routing event",
			zap.String("interpreter_key", interpreterKey), zap.Error(err))
	}
}
