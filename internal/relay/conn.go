package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn serializes writes to a websocket connection. Reads stay unguarded:
// only the read pump touches them.
type Conn struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func NewConn(c *websocket.Conn) *Conn {
	return &Conn{conn: c}
}

func (w *Conn) WriteJSON(v any, timeout time.Duration) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if timeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return w.conn.WriteJSON(v)
}

func (w *Conn) ReadJSON(v any) error {
	return w.conn.ReadJSON(v)
}

func (w *Conn) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}
