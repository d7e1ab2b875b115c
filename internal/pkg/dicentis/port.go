package dicentis

import "encoding/json"

// Sink receives everything the engine has to say. Any host — the MQTT
// surface, the HTTP API's event feed, or a test harness — can implement it
// without the engine knowing what sits on the other side.
//
// Roster callbacks fire on every rebuild (they are rare, once per
// connection). Discussion and routing callbacks fire only when the value
// actually changed; the underlying polls run unconditionally.
type Sink interface {
	StatusChanged(status Status, detail string)
	SeatsReplaced(seats []Seat)
	InterpreterSeatsReplaced(seats []InterpreterSeat)
	DiscussionChanged(d Discussion)
	RoutingsChanged(routings map[string]RoutingState)
	// DeviceEvent carries frames the engine does not consume itself:
	// unknown operations and post-authentication error pushes.
	DeviceEvent(operation string, parameters json.RawMessage)
}

// NopSink discards everything. Embed it to implement only part of Sink.
type NopSink struct{}

func (NopSink) StatusChanged(Status, string)                  {}
func (NopSink) SeatsReplaced([]Seat)                          {}
func (NopSink) InterpreterSeatsReplaced([]InterpreterSeat)    {}
func (NopSink) DiscussionChanged(Discussion)                  {}
func (NopSink) RoutingsChanged(map[string]RoutingState)       {}
func (NopSink) DeviceEvent(string, json.RawMessage)           {}
