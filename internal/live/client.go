package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// State is the health of the live link.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

var (
	errServerClosed    = errors.New("server closed the transport")
	errNamespaceClosed = errors.New("server disconnected the namespace")
)

type Config struct {
	URL        string
	EnginePath string
	DeviceID   int64

	// Reconnect delay bounds; defaults 1s and 5s.
	MinBackoff time.Duration
	MaxBackoff time.Duration

	HandshakeTimeout time.Duration
	Dialer           *websocket.Dialer
}

// Client keeps one live connection to the push channel and fans server events
// out to registered handlers. Handlers outlive reconnects.
type Client struct {
	cfg      Config
	endpoint Endpoint
	logger   *zap.Logger
	registry *Registry

	mu        sync.Mutex
	state     State
	observers []func(State)

	writeMu sync.Mutex
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ep, err := ParseEndpoint(cfg.URL, cfg.EnginePath)
	if err != nil {
		return nil, err
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = cfg.MinBackoff
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}

	logger = logger.With(zap.String("component", "live"), zap.String("namespace", ep.Namespace))
	return &Client{
		cfg:      cfg,
		endpoint: ep,
		logger:   logger,
		registry: NewRegistry(logger),
	}, nil
}

// Registry exposes the handler registry.
func (c *Client) Registry() *Registry {
	return c.registry
}

// State returns the current link state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnState registers fn to be called on every state transition.
func (c *Client) OnState(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	obs := make([]func(State), len(c.observers))
	copy(obs, c.observers)
	c.mu.Unlock()

	c.logger.Info("live link", zap.Stringer("state", s))
	for _, fn := range obs {
		fn(s)
	}
}

// Run connects and keeps reconnecting until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	b := &backoff.Backoff{
		Min:    c.cfg.MinBackoff,
		Max:    c.cfg.MaxBackoff,
		Factor: 2,
		Jitter: true,
	}

	for {
		c.setState(Connecting)
		joined, err := c.session(ctx)
		c.setState(Disconnected)

		if ctx.Err() != nil {
			return nil
		}
		if joined {
			b.Reset()
		}

		wait := b.Duration()
		c.logger.Warn("live connection lost",
			zap.Error(err),
			zap.Duration("retry_in", wait),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// session runs one connection until it fails. It reports whether the
// namespace was joined at least once.
func (c *Client) session(ctx context.Context) (bool, error) {
	dialer := c.cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, c.endpoint.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.endpoint.URL, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	hs, err := c.readHandshake(conn)
	if err != nil {
		return false, err
	}
	liveness := time.Duration(hs.PingInterval+hs.PingTimeout) * time.Millisecond
	if liveness <= 0 {
		liveness = 45 * time.Second
	}

	if err := c.write(conn, encodeConnect(c.endpoint.Namespace)); err != nil {
		return false, err
	}

	joined := false
	for {
		_ = conn.SetReadDeadline(time.Now().Add(liveness))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return joined, fmt.Errorf("read: %w", err)
		}
		if len(msg) == 0 {
			continue
		}

		switch msg[0] {
		case enginePing:
			if err := c.write(conn, string(enginePong)); err != nil {
				return joined, err
			}
		case engineClose:
			return joined, errServerClosed
		case engineMessage:
			p, err := decodePacket(string(msg[1:]))
			if err != nil {
				c.logger.Warn("dropping malformed packet", zap.Error(err))
				continue
			}
			if p.Namespace != c.endpoint.Namespace {
				continue
			}
			switch p.Type {
			case socketConnect:
				joined = true
				c.setState(Connected)
				if err := c.join(conn); err != nil {
					return joined, err
				}
			case socketConnectError:
				return joined, fmt.Errorf("namespace %s rejected: %s", p.Namespace, p.Data)
			case socketDisconnect:
				return joined, errNamespaceClosed
			case socketEvent:
				c.dispatch(p.Data)
			}
		}
	}
}

func (c *Client) readHandshake(conn *websocket.Conn) (handshake, error) {
	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return handshake{}, fmt.Errorf("read handshake: %w", err)
	}
	if len(msg) == 0 || msg[0] != engineOpen {
		return handshake{}, fmt.Errorf("unexpected handshake packet %.40q", msg)
	}
	var hs handshake
	if err := json.Unmarshal(msg[1:], &hs); err != nil {
		return handshake{}, fmt.Errorf("decode handshake: %w", err)
	}
	return hs, nil
}

// join announces interest in the configured device.
func (c *Client) join(conn *websocket.Conn) error {
	frame, err := encodeEvent(c.endpoint.Namespace, EventJoinDevice, joinDevice{DeviceID: c.cfg.DeviceID})
	if err != nil {
		return err
	}
	c.logger.Debug("joining device", zap.Int64("device_id", c.cfg.DeviceID))
	return c.write(conn, frame)
}

func (c *Client) write(conn *websocket.Conn, frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *Client) dispatch(data json.RawMessage) {
	name, args, err := eventArgs(data)
	if err != nil {
		c.logger.Warn("dropping event", zap.Error(err))
		return
	}
	for _, obj := range flatten(args) {
		c.registry.Dispatch(name, obj)
	}
}
