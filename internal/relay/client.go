package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one live transport connection, transport-agnostic: websocket
// connections pump its queue through a Conn, polling sessions drain it over
// HTTP. Not addressable by other clients.
type Client struct {
	ID string

	send      chan *Envelope
	closeOnce sync.Once
}

func NewClient(buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:   uuid.NewString(),
		send: make(chan *Envelope, buffer),
	}
}

// Enqueue queues an envelope for delivery without blocking. Reports false
// when the client's queue is full; the caller decides whether that counts
// as a dropped delivery.
func (c *Client) Enqueue(env *Envelope) bool {
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// Receive exposes the outbound queue. The channel is closed once the
// connection is unregistered.
func (c *Client) Receive() <-chan *Envelope {
	return c.send
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// ReadPump consumes inbound envelopes until the transport fails or closes,
// then reports the disconnect to the core exactly once.
func (c *Client) ReadPump(core *Core, conn *Conn) {
	reason := "connection closed"
	defer func() {
		core.Disconnect(c, reason)
		_ = conn.Close()
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				core.logger.Warnw("ws read error", "connection", c.ID, "err", err)
				reason = "transport error"
			}
			return
		}

		core.Dispatch(c, &env)
	}
}

// WritePump drains the outbound queue onto the websocket until the queue is
// closed or a write fails. Closing the connection on a failed write unblocks
// the read pump, which owns disconnect reporting.
func (c *Client) WritePump(conn *Conn, timeout time.Duration) {
	defer conn.Close()

	for env := range c.send {
		if err := conn.WriteJSON(env, timeout); err != nil {
			return
		}
	}
}
