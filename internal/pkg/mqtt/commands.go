package mqtt

import (
	"encoding/json"
	"strings"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
)

// Command topics mirror the original bridge's OSC addresses: a panel
// publishes a seat key (or a small JSON object) and the bridge forwards the
// matching device command. Command errors are logged, never fatal — the
// surface stays up whatever the panel sends.

type interpretationCommand struct {
	InterpreterKey string `json:"interpreterKey"`
	State          string `json:"state"`
}

type rawCommand struct {
	Operation  string         `json:"operation"`
	Parameters map[string]any `json:"parameters"`
}

func (s *service) subscribeCommands() error {
	subs := map[string]paho_mqtt.MessageHandler{
		s.topic("command", "mic", "activate"):   s.micHandler(s.commander.ActivateMicrophone),
		s.topic("command", "mic", "deactivate"): s.micHandler(s.commander.DeactivateMicrophone),
		s.topic("command", "mic", "toggle"):     s.micHandler(s.commander.ToggleMicrophone),
		s.topic("command", "interpretation"):    s.interpretationHandler,
		s.topic("command", "raw"):               s.rawHandler,
	}
	for topic, handler := range subs {
		token := s.client.Subscribe(topic, 1, handler)
		if !token.WaitTimeout(publishTimeout) {
			s.logger.Warn("mqtt subscribe timed out", zap.String("topic", topic))
			continue
		}
		if err := token.Error(); err != nil {
			return err
		}
		s.logger.Debug("subscribed to command topic", zap.String("topic", topic))
	}
	return nil
}

func (s *service) micHandler(cmd func(seatKey string) error) paho_mqtt.MessageHandler {
	return func(_ paho_mqtt.Client, msg paho_mqtt.Message) {
		seatKey := strings.TrimSpace(string(msg.Payload()))
		if seatKey == "" {
			s.logger.Warn("mic command without seat key", zap.String("topic", msg.Topic()))
			return
		}
		if err := cmd(seatKey); err != nil {
			s.logger.Error("mic command failed",
				zap.String("topic", msg.Topic()), zap.String("seat_key", seatKey), zap.Error(err))
		}
	}
}

func (s *service) interpretationHandler(_ paho_mqtt.Client, msg paho_mqtt.Message) {
	cmd := interpretationCommand{}
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		s.logger.Warn("unparsable interpretation command", zap.Error(err))
		return
	}
	var err error
	if cmd.State == "" || cmd.State == string(dicentis.RoutingOff) {
		err = s.commander.RevokeInterpretation(cmd.InterpreterKey)
	} else {
		err = s.commander.GrantInterpretation(cmd.InterpreterKey, dicentis.RoutingState(cmd.State))
	}
	if err != nil {
		s.logger.Error("interpretation command failed",
			zap.String("interpreter_key", cmd.InterpreterKey), zap.String("state", cmd.State), zap.Error(err))
	}
}

func (s *service) rawHandler(_ paho_mqtt.Client, msg paho_mqtt.Message) {
	cmd := rawCommand{}
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		s.logger.Warn("unparsable raw command", zap.Error(err))
		return
	}
	if cmd.Operation == "" {
		s.logger.Warn("raw command without operation")
		return
	}
	if err := s.commander.SendCustom(cmd.Operation, cmd.Parameters); err != nil {
		s.logger.Error("raw command failed", zap.String("operation", cmd.Operation), zap.Error(err))
	}
}
