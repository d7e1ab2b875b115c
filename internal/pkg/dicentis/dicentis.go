package dicentis

import (
	"context"
	"encoding/json"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/dwaller/dicentis-bridge/internal/pkg/config"
	ws "github.com/dwaller/dicentis-bridge/pkg/sockets"
	"go.uber.org/zap"
)

const (
	devicePort  = "31416"
	devicePath  = "/Dicentis/API"
	subProtocol = "DICENTIS_1_0"

	// reconnectDelay is fixed; the device offers no backoff guidance and a
	// conference room wants the bridge back quickly.
	reconnectDelay = 5 * time.Second
	dialTimeout    = 15 * time.Second
)

type service struct {
	cfg     *config.DicentisConfig
	store   *Store
	sink    Sink
	errChan chan error
	logger  *zap.Logger

	// newConn builds the socket; replaced in tests.
	newConn func() ws.Connection

	mu             sync.Mutex
	conn           ws.Connection
	phase          Phase
	status         Status
	statusDetail   string
	stopped        bool
	dialing        bool
	reconnectTimer *time.Timer
	pollStop       chan struct{}
}

func New(cfg *config.DicentisConfig, sink Sink, errChan chan error) *service {
	s := &service{
		cfg:     cfg,
		sink:    sink,
		errChan: errChan,
		logger:  zap.L(), // returns the global logger.
		store:   NewStore(),
		status:  StatusDisconnected,
	}
	if s.sink == nil {
		s.sink = NopSink{}
	}
	s.newConn = s.deviceConn
	return s
}

func (s *service) deviceConn() ws.Connection {
	return ws.New(
		ws.OnConnected(s.onconnect),
		ws.OnMessage(s.onMessage),
		ws.OnError(s.onError),
		ws.InsecureSkipVerify(),
	)
}

func (s *service) sendIfErr(err error) {
	if err != nil && s.errChan != nil {
		s.errChan <- err
	}
}

// Start validates the configuration and opens the connection. A validation
// failure is a blocking status: no connection attempt, no retry until
// OnConfigChanged supplies something usable. Transport failures after
// validation are not returned; the supervisor owns them.
func (s *service) Start(ctx context.Context) error {
	cfg := s.configSnapshot()
	if err := cfg.Validate(); err != nil {
		s.setStatus(StatusConfigurationError, err.Error())
		return err
	}
	// Inherited from the device deployment model: the server presents a
	// self-signed certificate, so peer verification stays off. Flag it
	// rather than hide it.
	s.logger.Warn("device certificate verification is disabled",
		zap.String("host", cfg.Host))

	s.mu.Lock()
	s.stopped = false
	s.mu.Unlock()

	s.connect(ctx)
	return nil
}

// connect opens a fresh socket unless one is already open or being dialed.
// The in-flight guard keeps a reconnect timer firing mid-dial from ever
// producing two sockets.
func (s *service) connect(ctx context.Context) {
	s.mu.Lock()
	if s.stopped || s.dialing || (s.conn != nil && s.conn.IsConnected()) {
		s.mu.Unlock()
		return
	}
	s.dialing = true
	s.phase = Connecting
	conn := s.newConn()
	s.conn = conn
	host := s.cfg.Host
	s.mu.Unlock()

	// the mirror is rebuilt from scratch on every connection.
	s.store.Reset()
	s.setStatus(StatusConnecting, "")

	u := url.URL{Scheme: "wss", Host: net.JoinHostPort(host, devicePort), Path: devicePath}
	s.logger.Debug("connecting to", zap.String("url", u.String()))
	err := conn.Dial(ctx, u.String(), subProtocol)

	s.mu.Lock()
	s.dialing = false
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("failed to connect to", zap.String("url", u.String()), zap.Error(err))
		s.setStatus(StatusConnectionFailure, err.Error())
		s.mu.Lock()
		s.phase = Disconnected
		s.scheduleReconnectLocked()
		s.mu.Unlock()
		return
	}
	s.logger.Debug("successfully connected to", zap.String("url", u.String()))
}

func (s *service) onconnect(c ws.Connection) {
	s.mu.Lock()
	s.conn = c
	s.phase = Open
	s.mu.Unlock()
	s.logger.Debug("onconnect ws received")
	s.sendLogin()
}

func (s *service) onError(err error) {
	s.logger.Warn("connection lost", zap.Error(err))
	s.handleDisconnect(err)
}

// handleDisconnect runs on any close or transport error, whatever the
// cause: polling stops, poll-derived state clears, and — unless stopped —
// exactly one reconnect attempt is scheduled.
func (s *service) handleDisconnect(cause error) {
	s.mu.Lock()
	wasStopped := s.stopped
	s.phase = Disconnected
	s.stopPollingLocked()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.mu.Unlock()

	micsChanged, routingsChanged := s.store.ClearEphemeral()
	if micsChanged {
		s.sink.DiscussionChanged(s.store.Discussion())
	}
	if routingsChanged {
		s.sink.RoutingsChanged(s.store.RoutingsByKey())
	}
	if wasStopped {
		return
	}
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	s.setStatus(StatusDisconnected, detail)

	s.mu.Lock()
	s.scheduleReconnectLocked()
	s.mu.Unlock()
}

// scheduleReconnectLocked arms the single reconnect timer. A second close
// arriving while one is pending is a no-op; a flapping link never stacks
// timers.
func (s *service) scheduleReconnectLocked() {
	if !s.cfg.Reconnect || s.stopped || s.reconnectTimer != nil {
		return
	}
	s.reconnectTimer = time.AfterFunc(reconnectDelay, func() {
		s.mu.Lock()
		s.reconnectTimer = nil
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		s.connect(ctx)
	})
}

// Stop tears the engine down from any state and leaves no scheduled work
// behind. Safe to call repeatedly.
func (s *service) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	s.stopPollingLocked()
	conn := s.conn
	s.conn = nil
	s.phase = Disconnected
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	s.store.ClearEphemeral()
	s.setStatus(StatusDisconnected, "stopped")
}

// OnConfigChanged swaps the configuration in. The connection is only torn
// down and redialed when a connection-relevant field actually changed.
func (s *service) OnConfigChanged(ctx context.Context, cfg *config.DicentisConfig) error {
	s.mu.Lock()
	same := s.cfg.ConnectionFieldsEqual(cfg)
	s.cfg = cfg
	s.mu.Unlock()
	if same {
		return nil
	}
	s.Stop()
	return s.Start(ctx)
}

func (s *service) send(op Operation, params any) error {
	s.mu.Lock()
	conn := s.conn
	verbose := s.cfg.Verbose
	s.mu.Unlock()
	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(request{Operation: op.String(), Parameters: params})
	if err != nil {
		return err
	}
	if verbose {
		s.logger.Debug("sending msg", zap.ByteString("request", data), zap.String("operation", op.String()))
	}
	return conn.Send(ws.Msg{Body: data})
}

// configSnapshot returns the current config pointer; its fields are never
// mutated in place, only the pointer is swapped.
func (s *service) configSnapshot() *config.DicentisConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *service) setStatus(status Status, detail string) {
	s.mu.Lock()
	if s.status == status && s.statusDetail == detail {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.statusDetail = detail
	s.mu.Unlock()
	s.sink.StatusChanged(status, detail)
}

func (s *service) CurrentStatus() (Status, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusDetail
}

func (s *service) CurrentPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Read-side accessors, proxied to the store for the control surfaces.

func (s *service) Seats() []Seat                          { return s.store.Seats() }
func (s *service) InterpreterSeats() []InterpreterSeat    { return s.store.InterpreterSeats() }
func (s *service) Discussion() Discussion                 { return s.store.Discussion() }
func (s *service) Routings() map[string]RoutingState      { return s.store.RoutingsByKey() }
func (s *service) IsMicrophoneActive(seatKey string) bool { return s.store.IsMicrophoneActive(seatKey) }
func (s *service) Routing(seatKey string) RoutingState    { return s.store.Routing(seatKey) }
func (s *service) Permissions() map[string]any            { return s.store.Permissions() }
