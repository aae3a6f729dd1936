package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/meetflow/chat-relay/internal/domain"
	"github.com/meetflow/chat-relay/internal/relay"
	"go.uber.org/zap"
)

var ErrNotConnected = errors.New("client: not connected")

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultInboundBuffer    = 64
	maxReconnectBackoff     = 30 * time.Second
)

// Config controls a Session. BaseURL is the relay's HTTP origin, e.g.
// "http://localhost:8080".
type Config struct {
	BaseURL  string
	Identity domain.Identity

	// Transports is tried in order; a failed handshake downgrades to the
	// next entry and the session never moves back up. Defaults to
	// websocket then polling.
	Transports []string

	HandshakeTimeout time.Duration

	// HTTPClient is used for bootstrap, polling and uploads. It must not
	// carry a Timeout shorter than the server's long-poll window.
	HTTPClient *http.Client

	Logger *zap.SugaredLogger

	// OnConnectionChange is invoked whenever the session gains or loses a
	// live transport. May be nil.
	OnConnectionChange func(connected bool)
}

// Session is a client-side connection to the relay. It keeps the set of
// joined rooms and rejoins them after a reconnect.
type Session struct {
	cfg    Config
	httpc  *http.Client
	logger *zap.SugaredLogger

	mu         sync.Mutex
	transports []string
	current    transport
	connected  bool
	rooms      map[string]struct{}

	inbound chan *relay.Envelope

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Dial wakes the relay endpoint up, performs the transport handshake and
// starts the read loop.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: base url is required")
	}
	if len(cfg.Transports) == 0 {
		cfg.Transports = []string{TransportWebSocket, TransportPolling}
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	sessionCtx, cancel := context.WithCancel(context.Background())

	s := &Session{
		cfg:        cfg,
		httpc:      cfg.HTTPClient,
		logger:     cfg.Logger,
		transports: append([]string(nil), cfg.Transports...),
		rooms:      make(map[string]struct{}),
		inbound:    make(chan *relay.Envelope, defaultInboundBuffer),
		ctx:        sessionCtx,
		cancel:     cancel,
	}

	if err := s.bootstrap(ctx); err != nil {
		s.logger.Warnw("relay bootstrap request failed", "error", err)
	}

	t, err := s.connect(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	s.setTransport(t)

	go s.readLoop()

	return s, nil
}

// bootstrap hits the relay route so the server spins its core up before
// the handshake. The timestamp query defeats any intermediary cache.
func (s *Session) bootstrap(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/socket?t=%d", s.cfg.BaseURL, time.Now().UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (s *Session) connect(ctx context.Context) (transport, error) {
	for {
		s.mu.Lock()
		if len(s.transports) == 0 {
			s.mu.Unlock()
			return nil, errors.New("client: no transports left")
		}
		name := s.transports[0]
		last := len(s.transports) == 1
		s.mu.Unlock()

		t, err := s.dialTransport(ctx, name)
		if err == nil {
			return t, nil
		}
		if last {
			return nil, err
		}

		s.logger.Warnw("transport handshake failed, downgrading",
			"transport", name,
			"error", err,
		)
		s.mu.Lock()
		s.transports = s.transports[1:]
		s.mu.Unlock()
	}
}

func (s *Session) dialTransport(ctx context.Context, name string) (transport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
	defer cancel()

	switch name {
	case TransportWebSocket:
		return dialWebSocket(dialCtx, s.cfg.BaseURL, s.cfg.HandshakeTimeout)
	case TransportPolling:
		return connectPolling(dialCtx, s.cfg.BaseURL, s.httpc)
	default:
		return nil, fmt.Errorf("client: unknown transport %q", name)
	}
}

func (s *Session) readLoop() {
	for {
		t := s.currentTransport()
		if t == nil {
			return
		}

		env, err := t.Read()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}

			s.setConnected(false)
			s.logger.Warnw("transport read failed, reconnecting", "error", err)
			t.Close()

			if !s.reconnect() {
				return
			}
			continue
		}

		select {
		case s.inbound <- env:
		default:
			s.logger.Warnw("inbound queue full, dropping envelope", "event", env.Event)
		}
	}
}

func (s *Session) reconnect() bool {
	backoff := time.Second

	for {
		select {
		case <-s.ctx.Done():
			return false
		case <-time.After(backoff):
		}

		t, err := s.connect(s.ctx)
		if err == nil {
			s.setTransport(t)
			s.rejoinRooms(t)
			return true
		}

		s.logger.Warnw("reconnect attempt failed", "error", err)
		backoff = min(backoff*2, maxReconnectBackoff)
	}
}

func (s *Session) rejoinRooms(t transport) {
	s.mu.Lock()
	rooms := make([]string, 0, len(s.rooms))
	for roomID := range s.rooms {
		rooms = append(rooms, roomID)
	}
	s.mu.Unlock()

	for _, roomID := range rooms {
		if err := t.Write(relay.NewJoinRoom(roomID)); err != nil {
			s.logger.Warnw("failed to rejoin room", "room_id", roomID, "error", err)
		}
	}
}

func (s *Session) setTransport(t transport) {
	s.mu.Lock()
	s.current = t
	s.mu.Unlock()

	s.setConnected(true)
	s.logger.Infow("connected to relay", "transport", t.Name())
}

func (s *Session) currentTransport() transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) setConnected(connected bool) {
	s.mu.Lock()
	changed := s.connected != connected
	s.connected = connected
	s.mu.Unlock()

	if changed && s.cfg.OnConnectionChange != nil {
		s.cfg.OnConnectionChange(connected)
	}
}

// Connected reports whether the session currently has a live transport.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Transport reports the name of the active transport, or "" when offline.
func (s *Session) Transport() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Name()
}

// Events delivers envelopes pushed by the relay, receive-message and
// joined-room included.
func (s *Session) Events() <-chan *relay.Envelope {
	return s.inbound
}

// JoinRoom subscribes the session to a room. The room is remembered and
// rejoined automatically after a reconnect.
func (s *Session) JoinRoom(roomID string) error {
	s.mu.Lock()
	s.rooms[roomID] = struct{}{}
	t := s.current
	connected := s.connected
	s.mu.Unlock()

	if t == nil || !connected {
		return ErrNotConnected
	}
	return t.Write(relay.NewJoinRoom(roomID))
}

// Send relays a raw envelope. JoinRoom and SendMessage cover the common
// cases.
func (s *Session) Send(event, roomID string, message json.RawMessage) error {
	s.mu.Lock()
	t := s.current
	connected := s.connected
	s.mu.Unlock()

	if t == nil || !connected {
		return ErrNotConnected
	}
	return t.Write(&relay.Envelope{Event: event, RoomID: roomID, Message: message})
}

// SendMessage relays a message to every member of the room.
func (s *Session) SendMessage(roomID string, msg *domain.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("client: failed to encode message: %w", err)
	}
	return s.Send(relay.EventSendMessage, roomID, payload)
}

// Close tears the session down. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		t := s.current
		s.current = nil
		s.mu.Unlock()

		if t != nil {
			t.Close()
		}
		s.setConnected(false)
	})
	return nil
}

// DecodeMessage extracts the chat message carried by a receive-message
// envelope.
func DecodeMessage(env *relay.Envelope) (*domain.Message, error) {
	if env.Event != relay.EventReceiveMessage {
		return nil, fmt.Errorf("client: cannot decode %q envelope as a message", env.Event)
	}

	var msg domain.Message
	if err := json.Unmarshal(env.Message, &msg); err != nil {
		return nil, fmt.Errorf("client: failed to decode message: %w", err)
	}
	return &msg, nil
}
