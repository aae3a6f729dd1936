package relay

import (
	"sync"

	"github.com/meetflow/chat-relay/internal/infrastructure/configs"
	"github.com/meetflow/chat-relay/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

type inbound struct {
	client *Client
	env    *Envelope
}

type disconnected struct {
	client *Client
	reason string
}

// Core is the relay's protocol handler. A single goroutine consumes every
// register, disconnect, and inbound event, so membership mutation and
// broadcast fan-out are serialized; per-member delivery never blocks it.
type Core struct {
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	registry *Registry
	rooms    *RoomIndex

	register   chan *Client
	unregister chan disconnected
	dispatch   chan inbound

	startOnce sync.Once
}

func NewCore(cfg configs.RelayConfig, logger *zap.SugaredLogger, m *metrics.Metrics) *Core {
	dispatchBuffer := cfg.DispatchBuffer
	if dispatchBuffer <= 0 {
		dispatchBuffer = 256
	}

	return &Core{
		logger:     logger,
		metrics:    m,
		registry:   NewRegistry(),
		rooms:      NewRoomIndex(),
		register:   make(chan *Client),
		unregister: make(chan disconnected),
		dispatch:   make(chan inbound, dispatchBuffer),
	}
}

// Start launches the run loop exactly once; subsequent calls are no-ops.
// The core lives for the rest of the process: there is no teardown.
func (c *Core) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

func (c *Core) Register(cl *Client) {
	c.register <- cl
}

// Disconnect reports that a connection is gone. Safe to call more than once
// for the same client; the reason is diagnostics only.
func (c *Core) Disconnect(cl *Client, reason string) {
	c.unregister <- disconnected{client: cl, reason: reason}
}

func (c *Core) Dispatch(cl *Client, env *Envelope) {
	c.dispatch <- inbound{client: cl, env: env}
}

// Connections reports the number of live connections.
func (c *Core) Connections() int {
	return c.registry.Len()
}

func (c *Core) run() {
	c.logger.Infow("relay core started")

	for {
		select {
		case cl := <-c.register:
			c.registry.Add(cl)
			c.metrics.ActiveConnections.Inc()
			c.logger.Infow("connection registered", "connection", cl.ID)

		case d := <-c.unregister:
			c.handleDisconnect(d)

		case in := <-c.dispatch:
			c.handleEvent(in.client, in.env)
		}
	}
}

func (c *Core) handleDisconnect(d disconnected) {
	rooms, ok := c.registry.Remove(d.client)
	if !ok {
		return
	}

	for _, roomID := range rooms {
		c.rooms.Leave(roomID, d.client)
	}
	d.client.shutdown()

	c.metrics.ActiveConnections.Dec()
	c.logger.Infow("connection closed",
		"connection", d.client.ID,
		"reason", d.reason,
		"rooms", len(rooms),
	)
}

func (c *Core) handleEvent(cl *Client, env *Envelope) {
	switch env.Event {
	case EventJoinRoom:
		c.handleJoin(cl, env.RoomID)
	case EventSendMessage:
		c.handleSend(cl, env)
	default:
		c.metrics.DroppedEvents.Inc()
		c.logger.Warnw("unknown event dropped", "event", env.Event, "connection", cl.ID)
	}
}

func (c *Core) handleJoin(cl *Client, roomID string) {
	if roomID == "" {
		c.metrics.DroppedEvents.Inc()
		c.logger.Warnw("join-room dropped: no roomId", "connection", cl.ID)
		return
	}

	// A join racing its own disconnect must not resurrect the connection.
	if !c.registry.Track(cl, roomID) {
		c.logger.Warnw("join-room dropped: connection gone", "connection", cl.ID, "room", roomID)
		return
	}
	c.rooms.Join(roomID, cl)

	c.metrics.RoomJoins.Inc()
	cl.Enqueue(NewJoinedRoom(roomID))
	c.logger.Infow("joined room", "connection", cl.ID, "room", roomID)
}

func (c *Core) handleSend(cl *Client, env *Envelope) {
	if env.RoomID == "" {
		c.metrics.DroppedEvents.Inc()
		c.logger.Warnw("send-message dropped: no roomId", "connection", cl.ID)
		return
	}
	if len(env.Message) == 0 {
		c.metrics.DroppedEvents.Inc()
		c.logger.Warnw("send-message dropped: no message payload", "connection", cl.ID, "room", env.RoomID)
		return
	}
	if !c.registry.InRoom(cl, env.RoomID) {
		c.metrics.DroppedEvents.Inc()
		c.logger.Warnw("send-message dropped: sender not a member", "connection", cl.ID, "room", env.RoomID)
		return
	}

	members := c.rooms.MembersOf(env.RoomID)
	out := NewReceiveMessage(env.Message)

	// Fire-and-forget per member; a stalled member drops, never delays.
	for _, member := range members {
		if !member.Enqueue(out) {
			c.metrics.DroppedDeliveries.Inc()
			c.logger.Warnw("member queue full, dropping delivery", "connection", member.ID, "room", env.RoomID)
		}
	}

	c.metrics.MessagesRelayed.Inc()
	c.metrics.BroadcastFanout.Observe(float64(len(members)))
}
