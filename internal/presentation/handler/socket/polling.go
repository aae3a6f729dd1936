package socket

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meetflow/chat-relay/internal/infrastructure/configs"
	"github.com/meetflow/chat-relay/internal/infrastructure/json"
	"github.com/meetflow/chat-relay/internal/relay"
	"go.uber.org/zap"
)

// The polling transport is the downgrade path for clients whose websocket
// handshake fails: POST /connect yields a session id, POST /emit submits
// envelopes, GET /poll long-polls the outbound queue. Sessions that stop
// polling are reaped after the configured TTL.

type pollSession struct {
	client *relay.Client

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *pollSession) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *pollSession) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// collect blocks up to wait for the first envelope, then drains whatever
// else is already queued. The second return is false once the session's
// queue has been closed by a disconnect.
func (s *pollSession) collect(wait time.Duration) ([]*relay.Envelope, bool) {
	var batch []*relay.Envelope

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case env, ok := <-s.client.Receive():
		if !ok {
			return batch, false
		}
		batch = append(batch, env)
	case <-timer.C:
		return batch, true
	}

	for {
		select {
		case env, ok := <-s.client.Receive():
			if !ok {
				return batch, false
			}
			batch = append(batch, env)
		default:
			return batch, true
		}
	}
}

type pollSessions struct {
	core   *relay.Core
	cfg    configs.RelayConfig
	logger *zap.SugaredLogger

	mu       sync.Mutex
	byID     map[string]*pollSession
	reapOnce sync.Once
}

func newPollSessions(core *relay.Core, cfg configs.RelayConfig, logger *zap.SugaredLogger) *pollSessions {
	return &pollSessions{
		core:   core,
		cfg:    cfg,
		logger: logger,
		byID:   make(map[string]*pollSession),
	}
}

func (ps *pollSessions) start() {
	ps.reapOnce.Do(func() {
		go ps.reap()
	})
}

func (ps *pollSessions) put(sid string, sess *pollSession) {
	ps.mu.Lock()
	ps.byID[sid] = sess
	ps.mu.Unlock()
}

func (ps *pollSessions) get(sid string) (*pollSession, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	sess, ok := ps.byID[sid]
	return sess, ok
}

func (ps *pollSessions) delete(sid string) {
	ps.mu.Lock()
	delete(ps.byID, sid)
	ps.mu.Unlock()
}

func (ps *pollSessions) reap() {
	ttl := ps.cfg.PollSessionTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-ttl)

		ps.mu.Lock()
		var expired []*pollSession
		for sid, sess := range ps.byID {
			if sess.idleSince(cutoff) {
				delete(ps.byID, sid)
				expired = append(expired, sess)
			}
		}
		ps.mu.Unlock()

		for _, sess := range expired {
			ps.logger.Infow("poll session expired", "connection", sess.client.ID)
			ps.core.Disconnect(sess.client, "ping timeout")
		}
	}
}

// Connect handles POST /api/socket/connect and opens a polling session.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	h.core.Start()
	h.sessions.start()

	client := relay.NewClient(h.cfg.ClientBuffer)
	h.core.Register(client)

	sid := uuid.NewString()
	sess := &pollSession{client: client}
	sess.touch()
	h.sessions.put(sid, sess)

	h.logger.Infow("poll session connected", "connection", client.ID, "sid", sid)
	json.Write(w, http.StatusCreated, connectResponse{SID: sid})
}

// Poll handles GET /api/socket/poll and returns a batch of envelopes,
// empty after the long-poll window passes without traffic.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.touch()

	wait := h.cfg.PollWait
	if wait <= 0 {
		wait = 25 * time.Second
	}

	envelopes, open := sess.collect(wait)
	if !open && len(envelopes) == 0 {
		h.sessions.delete(r.URL.Query().Get("sid"))
		json.WriteError(w, http.StatusGone, errors.New("session closed"), "Session closed")
		return
	}

	if envelopes == nil {
		envelopes = []*relay.Envelope{}
	}
	json.Write(w, http.StatusOK, pollResponse{Envelopes: envelopes})
}

// Emit handles POST /api/socket/emit and feeds one envelope to the relay.
func (h *Handler) Emit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.touch()

	var env relay.Envelope
	if err := json.Read(r, &env); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	h.core.Dispatch(sess.client, &env)
	w.WriteHeader(http.StatusAccepted)
}

// Disconnect handles POST /api/socket/disconnect for explicit teardown.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sid")

	sess, ok := h.sessions.get(sid)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.sessions.delete(sid)
	h.core.Disconnect(sess.client, "client namespace disconnect")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*pollSession, bool) {
	sid := r.URL.Query().Get("sid")
	if sid == "" {
		json.WriteBadRequestError(w, "sid query parameter is required")
		return nil, false
	}

	sess, ok := h.sessions.get(sid)
	if !ok {
		json.WriteNotFoundError(w, "Unknown session")
		return nil, false
	}
	return sess, true
}
