package dicentis

import (
	"encoding/json"

	ws "github.com/dwaller/dicentis-bridge/pkg/sockets"
	"go.uber.org/zap"
)

// onMessage classifies each inbound frame by its operation tag and routes
// it. Frames arrive in order on the socket read goroutine and handlers run
// inline, so store mutations form a single logical sequence. Malformed
// payloads are logged and dropped; they never touch connection state.
func (s *service) onMessage(data []byte, _ ws.Connection) {
	env := envelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("dropping malformed frame", zap.Error(err), zap.Int("size", len(data)))
		return
	}
	if s.configSnapshot().Verbose {
		s.logger.Debug("received message", zap.String("operation", env.Operation))
	}

	switch Operation(env.Operation) {
	case Login:
		s.handleLoginAck(env.Parameters)
	case ErrorOp:
		s.handleErrorPush(env.Parameters)
	case GetSeats:
		s.handleSeatList(env.Parameters)
	case GetInterpreterBooths:
		s.handleBoothList(env.Parameters)
	case GetInterpreterSeats:
		s.handleInterpreterSeatList(env.Parameters)
	case GetDiscussionList:
		s.handleDiscussionList(env.Parameters)
	case GetInterpretationRoutings:
		s.handleRoutingList(env.Parameters)
	case GetPermissions:
		s.handlePermissions(env.Parameters)
	default:
		// Not dropped: the control surface may care about pushes the
		// engine does not model.
		s.logger.Info("unhandled operation", zap.String("operation", env.Operation))
		s.sink.DeviceEvent(env.Operation, env.Parameters)
	}
}

// handleErrorPush deals with the device's only failure signal. Before
// authentication completes it is the failed login ack; afterwards it is
// informational (the protocol gives no way to tie it to a request).
func (s *service) handleErrorPush(params json.RawMessage) {
	push := errorParams{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &push); err != nil {
			s.logger.Warn("ignoring unparsable error push", zap.Error(err))
			return
		}
	}

	s.mu.Lock()
	preAuth := s.phase == Open || s.phase == Connecting
	s.mu.Unlock()

	if preAuth {
		s.loginFailed(push.Message)
		return
	}
	s.logger.Warn("device reported error", zap.String("message", push.Message))
	s.sink.DeviceEvent(ErrorOp.String(), params)
}

func (s *service) handlePermissions(params json.RawMessage) {
	perms := map[string]any{}
	if err := json.Unmarshal(params, &perms); err != nil {
		s.logger.Warn("ignoring unparsable permissions info", zap.Error(err))
		return
	}
	s.store.ReplacePermissions(perms)
	s.sink.DeviceEvent(GetPermissions.String(), params)
}
