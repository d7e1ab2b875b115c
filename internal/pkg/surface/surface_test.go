package surface

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
)

type countingSink struct {
	dicentis.NopSink
	statuses    int
	discussions int
	events      []string
}

func (c *countingSink) StatusChanged(dicentis.Status, string)    { c.statuses++ }
func (c *countingSink) DiscussionChanged(dicentis.Discussion)    { c.discussions++ }
func (c *countingSink) DeviceEvent(op string, _ json.RawMessage) { c.events = append(c.events, op) }

func TestRegistry_FansOutToEverySink(t *testing.T) {
	registry := NewRegistry()
	a := &countingSink{}
	b := &countingSink{}
	require.NoError(t, registry.Register("a", a))
	require.NoError(t, registry.Register("b", b))

	registry.StatusChanged(dicentis.StatusOk, "")
	registry.DiscussionChanged(dicentis.Discussion{})
	registry.DeviceEvent("SeatUpdated", nil)

	for _, sink := range []*countingSink{a, b} {
		assert.Equal(t, 1, sink.statuses)
		assert.Equal(t, 1, sink.discussions)
		assert.Equal(t, []string{"SeatUpdated"}, sink.events)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("mqtt", &countingSink{}))
	assert.ErrorIs(t, registry.Register("mqtt", &countingSink{}), ErrAlreadyRegistered)
}

func TestRegistry_EmptyIsUsable(t *testing.T) {
	registry := NewRegistry()
	registry.SeatsReplaced(nil)
	registry.RoutingsChanged(nil)
}
