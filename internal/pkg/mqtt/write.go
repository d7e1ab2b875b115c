package mqtt

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
)

// The sink side: every engine notification becomes one or more retained
// topics, so a control panel attaching later still sees the current state.

func (s *service) StatusChanged(status dicentis.Status, detail string) {
	s.publishJSON(s.topic("status"), map[string]string{
		"status": string(status),
		"detail": detail,
	}, true)
}

func (s *service) SeatsReplaced(seats []dicentis.Seat) {
	s.mu.Lock()
	s.seats = seats
	s.mu.Unlock()

	for _, seat := range seats {
		s.publishJSON(s.topic("seat", seat.Key, "info"), seat, true)
	}
	keys := make([]string, 0, len(seats))
	for _, seat := range seats {
		keys = append(keys, seat.Key)
	}
	s.publishJSON(s.topic("seats"), keys, true)
}

func (s *service) InterpreterSeatsReplaced(seats []dicentis.InterpreterSeat) {
	for _, seat := range seats {
		s.publishJSON(s.topic("interpreter", seat.Key, "info"), seat, true)
	}
	keys := make([]string, 0, len(seats))
	for _, seat := range seats {
		keys = append(keys, seat.Key)
	}
	s.publishJSON(s.topic("interpreters"), keys, true)
}

func (s *service) DiscussionChanged(d dicentis.Discussion) {
	s.publishJSON(s.topic("discussion"), d, true)

	s.mu.Lock()
	seats := s.seats
	s.mu.Unlock()
	for _, seat := range seats {
		state := "off"
		if _, ok := d.ActiveSeatIDs[seat.ID]; ok {
			state = "on"
		}
		s.publish(s.topic("seat", seat.Key, "mic"), state, true)
	}

	// The two distinguished "currently speaking" variables. Empty payloads
	// mean the floor is silent.
	line, name := "", ""
	if d.Speaking != nil {
		line, name = d.Speaking.ScreenLine, d.Speaking.Name
	}
	s.publish(s.topic("speaking", "line"), line, true)
	s.publish(s.topic("speaking", "seat"), name, true)
}

func (s *service) RoutingsChanged(routings map[string]dicentis.RoutingState) {
	for key, state := range routings {
		s.publish(s.topic("interpreter", key, "routing"), string(state), true)
	}
}

func (s *service) DeviceEvent(operation string, parameters json.RawMessage) {
	payload := parameters
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	// not retained: events are transient by nature.
	s.publishBytes(s.topic("event", topicSegment(operation)), payload, false)
}

func (s *service) publish(topic, payload string, retained bool) {
	s.publishBytes(topic, []byte(payload), retained)
}

func (s *service) publishJSON(topic string, payload any, retained bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal mqtt payload", zap.String("topic", topic), zap.Error(err))
		return
	}
	s.publishBytes(topic, data, retained)
}

func (s *service) publishBytes(topic string, payload []byte, retained bool) {
	token := s.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		s.logger.Warn("mqtt publish timed out", zap.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		s.logger.Error("mqtt publish failed", zap.String("topic", topic), zap.Error(err))
	}
}
