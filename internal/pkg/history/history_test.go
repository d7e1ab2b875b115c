package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
)

type recordedExec struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	mu    sync.Mutex
	execs []recordedExec
	err   error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, recordedExec{sql: sql, args: args})
	return pgconn.CommandTag{}, f.err
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQuerier) Close(context.Context) error { return nil }

// micEvents extracts (seat_id, state) pairs from recorded microphone inserts.
func (f *fakeQuerier) micEvents() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for _, e := range f.execs {
		if strings.Contains(e.sql, "microphone_events") && strings.Contains(e.sql, "INSERT") {
			out[e.args[1].(string)] = e.args[2].(string)
		}
	}
	return out
}

func TestDiscussionChanged_RecordsDeltasOnly(t *testing.T) {
	q := &fakeQuerier{}
	db := NewDatabase(q)

	db.DiscussionChanged(dicentis.Discussion{ActiveSeatIDs: map[string]struct{}{"a": {}, "b": {}}})
	assert.Equal(t, map[string]string{"a": "on", "b": "on"}, q.micEvents())

	// b stays on, a goes off, c comes on: exactly two new rows.
	q.execs = nil
	db.DiscussionChanged(dicentis.Discussion{ActiveSeatIDs: map[string]struct{}{"b": {}, "c": {}}})
	assert.Equal(t, map[string]string{"a": "off", "c": "on"}, q.micEvents())

	// an identical set records nothing.
	q.execs = nil
	db.DiscussionChanged(dicentis.Discussion{ActiveSeatIDs: map[string]struct{}{"b": {}, "c": {}}})
	assert.Empty(t, q.micEvents())
}

func TestRoutingsChanged_RecordsTransitions(t *testing.T) {
	q := &fakeQuerier{}
	db := NewDatabase(q)

	db.RoutingsChanged(map[string]dicentis.RoutingState{"1_1": dicentis.RoutingOutputA})
	require.Len(t, q.execs, 1)
	assert.Equal(t, "1_1", q.execs[0].args[1])
	assert.Equal(t, "activeOnOutputA", q.execs[0].args[2])

	// unchanged state is not re-recorded.
	q.execs = nil
	db.RoutingsChanged(map[string]dicentis.RoutingState{"1_1": dicentis.RoutingOutputA})
	assert.Empty(t, q.execs)

	db.RoutingsChanged(map[string]dicentis.RoutingState{"1_1": dicentis.RoutingOff})
	require.Len(t, q.execs, 1)
	assert.Equal(t, "off", q.execs[0].args[2])
}

func TestWriteFailureIsNotFatal(t *testing.T) {
	q := &fakeQuerier{err: errors.New("connection refused")}
	db := NewDatabase(q)

	// logged, never panics or propagates.
	db.DiscussionChanged(dicentis.Discussion{ActiveSeatIDs: map[string]struct{}{"a": {}}})
}

func TestCleanup(t *testing.T) {
	q := &fakeQuerier{}
	db := NewDatabase(q)

	require.NoError(t, db.Cleanup(context.Background(), 0))

	require.Len(t, q.execs, 2)
	assert.Contains(t, q.execs[0].sql, "DELETE FROM microphone_events")
	assert.Contains(t, q.execs[1].sql, "DELETE FROM routing_events")
}
