// Package surface fans engine notifications out to every registered
// control surface (MQTT, HTTP event feed, history recorder). It implements
// dicentis.Sink so the engine only ever sees one observer.
package surface

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
	"go.uber.org/zap"
)

var ErrAlreadyRegistered = errors.New("sink already registered")

type Registry struct {
	mu    sync.RWMutex
	sinks map[string]dicentis.Sink
}

func NewRegistry() *Registry {
	return &Registry{sinks: map[string]dicentis.Sink{}}
}

func (r *Registry) Register(name string, sink dicentis.Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sinks[name]; ok {
		return ErrAlreadyRegistered
	}
	r.sinks[name] = sink
	return nil
}

// each snapshots the sink set so a slow sink never blocks registration.
func (r *Registry) each(fn func(name string, sink dicentis.Sink)) {
	r.mu.RLock()
	snapshot := make(map[string]dicentis.Sink, len(r.sinks))
	for name, sink := range r.sinks {
		snapshot[name] = sink
	}
	r.mu.RUnlock()
	for name, sink := range snapshot {
		fn(name, sink)
	}
}

func (r *Registry) StatusChanged(status dicentis.Status, detail string) {
	zap.L().Debug("status changed", zap.String("status", string(status)), zap.String("detail", detail))
	r.each(func(_ string, sink dicentis.Sink) { sink.StatusChanged(status, detail) })
}

func (r *Registry) SeatsReplaced(seats []dicentis.Seat) {
	r.each(func(_ string, sink dicentis.Sink) { sink.SeatsReplaced(seats) })
}

func (r *Registry) InterpreterSeatsReplaced(seats []dicentis.InterpreterSeat) {
	r.each(func(_ string, sink dicentis.Sink) { sink.InterpreterSeatsReplaced(seats) })
}

func (r *Registry) DiscussionChanged(d dicentis.Discussion) {
	r.each(func(_ string, sink dicentis.Sink) { sink.DiscussionChanged(d) })
}

func (r *Registry) RoutingsChanged(routings map[string]dicentis.RoutingState) {
	r.each(func(_ string, sink dicentis.Sink) { sink.RoutingsChanged(routings) })
}

func (r *Registry) DeviceEvent(operation string, parameters json.RawMessage) {
	r.each(func(_ string, sink dicentis.Sink) { sink.DeviceEvent(operation, parameters) })
}
