// Package mqtt is the bridge's primary control surface: mirrored state is
// published as retained topics, and command topics drive the engine. It is
// the Go-side replacement for the OSC surface of the original bridge.
package mqtt

import (
	"errors"
	"strings"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/dwaller/dicentis-bridge/internal/pkg/config"
	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
)

const publishTimeout = 5 * time.Second

// commander is the slice of the engine the command topics need.
type commander interface {
	ActivateMicrophone(seatKey string) error
	DeactivateMicrophone(seatKey string) error
	ToggleMicrophone(seatKey string) error
	GrantInterpretation(seatKey string, state dicentis.RoutingState) error
	RevokeInterpretation(seatKey string) error
	SendCustom(operation string, parameters map[string]any) error
}

type service struct {
	client    paho_mqtt.Client
	topicRoot string
	commander commander
	logger    *zap.Logger

	// mu guards the roster snapshot used to fan discussion changes out
	// into per-seat mic topics.
	mu    sync.Mutex
	seats []dicentis.Seat
}

func New(client paho_mqtt.Client, topicRoot string, cmd commander) *service {
	if topicRoot == "" {
		topicRoot = "dicentis"
	}
	return &service{
		client:    client,
		topicRoot: strings.TrimSuffix(topicRoot, "/"),
		commander: cmd,
		logger:    zap.L(),
	}
}

// NewFromConfig builds the paho client itself, with auto-reconnect and
// command subscriptions restored whenever the broker connection comes back.
func NewFromConfig(cfg *config.MqttConfig, cmd commander) *service {
	s := New(nil, cfg.TopicRoot, cmd)

	opts := paho_mqtt.NewClientOptions()
	opts.AddBroker(cfg.Host)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(_ paho_mqtt.Client) {
		if err := s.subscribeCommands(); err != nil {
			s.logger.Error("failed to restore command subscriptions", zap.Error(err))
		}
	})

	s.client = paho_mqtt.NewClient(opts)
	return s
}

func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(publishTimeout)
	if err := token.Error(); err != nil {
		return err
	}
	if !res {
		return errors.New("unable to connect in time")
	}
	// Re-subscribing is harmless when the connect handler already did it.
	return s.subscribeCommands()
}

func (s *service) Close() {
	s.client.Disconnect(250)
}

// topicSegment makes an arbitrary device-supplied name safe as a topic
// level. Derived keys are already underscore-sanitized; this catches
// everything else (operation names, free-text labels).
func topicSegment(name string) string {
	return strings.Replace(slug.Make(name), "-", "_", -1)
}

func (s *service) topic(parts ...string) string {
	return s.topicRoot + "/" + strings.Join(parts, "/")
}
