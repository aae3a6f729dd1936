package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/meetflow/chat-relay/internal/relay"
)

const (
	TransportWebSocket = "websocket"
	TransportPolling   = "polling"
)

// transport is one way of moving envelopes to and from the relay. Read
// blocks until an envelope arrives or the transport dies.
type transport interface {
	Name() string
	Write(env *relay.Envelope) error
	Read() (*relay.Envelope, error)
	Close() error
}

type wsTransport struct {
	conn *websocket.Conn
	mu   sync.Mutex // guards writes
}

func dialWebSocket(ctx context.Context, baseURL string, timeout time.Duration) (*wsTransport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	conn, resp, err := dialer.DialContext(ctx, toWebSocketURL(baseURL)+"/api/socket", nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket handshake failed: %w", err)
	}

	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) Name() string { return TransportWebSocket }

func (t *wsTransport) Write(env *relay.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteJSON(env)
}

func (t *wsTransport) Read() (*relay.Envelope, error) {
	var env relay.Envelope
	if err := t.conn.ReadJSON(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func toWebSocketURL(baseURL string) string {
	if after, ok := strings.CutPrefix(baseURL, "https://"); ok {
		return "wss://" + after
	}
	if after, ok := strings.CutPrefix(baseURL, "http://"); ok {
		return "ws://" + after
	}
	return baseURL
}

// pollTransport drives the HTTP long-polling fallback. Read drains batches
// from /api/socket/poll; closing cancels any in-flight poll.
type pollTransport struct {
	baseURL string
	sid     string
	httpc   *http.Client
	queue   []*relay.Envelope

	ctx    context.Context
	cancel context.CancelFunc
}

func connectPolling(ctx context.Context, baseURL string, httpc *http.Client) (*pollTransport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/socket/connect", nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling handshake failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("polling handshake failed: status %d", resp.StatusCode)
	}

	var payload struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("polling handshake failed: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	return &pollTransport{
		baseURL: baseURL,
		sid:     payload.SID,
		httpc:   httpc,
		ctx:     sessionCtx,
		cancel:  cancel,
	}, nil
}

func (t *pollTransport) Name() string { return TransportPolling }

func (t *pollTransport) Write(env *relay.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/socket/emit?sid=%s", t.baseURL, t.sid)
	req, err := http.NewRequestWithContext(t.ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("emit rejected: status %d", resp.StatusCode)
	}
	return nil
}

func (t *pollTransport) Read() (*relay.Envelope, error) {
	for len(t.queue) == 0 {
		batch, err := t.poll()
		if err != nil {
			return nil, err
		}
		t.queue = batch
	}

	env := t.queue[0]
	t.queue = t.queue[1:]
	return env, nil
}

func (t *pollTransport) poll() ([]*relay.Envelope, error) {
	url := fmt.Sprintf("%s/api/socket/poll?sid=%s", t.baseURL, t.sid)
	req, err := http.NewRequestWithContext(t.ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll failed: status %d", resp.StatusCode)
	}

	var payload struct {
		Envelopes []*relay.Envelope `json:"envelopes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Envelopes, nil
}

func (t *pollTransport) Close() error {
	t.cancel()

	// Best-effort explicit teardown; the server reaps idle sessions anyway.
	url := fmt.Sprintf("%s/api/socket/disconnect?sid=%s", t.baseURL, t.sid)
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		return nil
	}
	if resp, err := t.httpc.Do(req); err == nil {
		resp.Body.Close()
	}
	return nil
}
