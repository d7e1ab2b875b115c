package dicentis

import (
	"encoding/json"

	"go.uber.org/zap"
)

// sendLogin fires the credential message as soon as the socket is open.
// The protocol has no acknowledgement gating and no retry at this layer: a
// missing ack is indistinguishable from a slow one, so silence is simply
// waited out. A dead socket surfaces through the normal close path.
func (s *service) sendLogin() {
	cfg := s.configSnapshot()
	err := s.send(Login, loginParams{
		User:     cfg.Username,
		Password: cfg.Password,
	})
	s.sendIfErr(err)
	s.logger.Debug("sent msg", zap.String("operation", Login.String()))
}

// handleLoginAck interprets the device's login answer as boolean success.
// A success ack with no explicit flag counts as success; the device only
// volunteers detail on failure.
func (s *service) handleLoginAck(params json.RawMessage) {
	ack := loginAckParams{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &ack); err != nil {
			s.logger.Warn("ignoring unparsable login ack", zap.Error(err))
			return
		}
	}
	if ack.Success != nil && !*ack.Success {
		s.loginFailed(ack.Message)
		return
	}
	s.authenticated()
}

// loginFailed reports the failure without closing the socket. The device
// may accept a retry on the same connection, and a later close still goes
// through the ordinary reconnect path.
func (s *service) loginFailed(message string) {
	if message == "" {
		message = "login rejected"
	}
	s.logger.Error("login failed", zap.String("message", message))
	s.setStatus(StatusConnectionFailure, message)
}

// authenticated is the pivot of the whole lifecycle: one discovery round,
// then polling, everything else chains off inbound frames.
func (s *service) authenticated() {
	s.mu.Lock()
	s.phase = Authenticated
	s.mu.Unlock()
	s.logger.Info("authenticated with device", zap.String("host", s.configSnapshot().Host))
	s.setStatus(StatusOk, "")
	s.runDiscovery()
	s.startPolling()
}
