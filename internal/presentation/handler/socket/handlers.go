package socket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/meetflow/chat-relay/internal/infrastructure/configs"
	"github.com/meetflow/chat-relay/internal/presentation/utils"
	"github.com/meetflow/chat-relay/internal/relay"
	"go.uber.org/zap"
)

// Handler owns the /api/socket surface: the bootstrap endpoint, websocket
// upgrades, and the HTTP long-polling fallback transport.
type Handler struct {
	core     *relay.Core
	cfg      configs.RelayConfig
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
	sessions *pollSessions
}

func NewHandler(core *relay.Core, cfg configs.RelayConfig, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		core:   core,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		sessions: newPollSessions(core, cfg, logger),
	}
}

// Bootstrap handles GET /api/socket. The first call starts the relay core;
// afterwards the endpoint is a no-op that returns immediately. The request
// body is never read: the same path doubles as the websocket upgrade target
// for clients that request it.
func (h *Handler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	h.core.Start()
	h.sessions.start()

	if websocket.IsWebSocketUpgrade(r) {
		h.serveWebSocket(w, r)
		return
	}

	// Browsers hit this route before anything else; guests leave with an
	// identity cookie the upload endpoint can attribute files to.
	utils.EnsureIdentity(w, r)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warnw("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := relay.NewClient(h.cfg.ClientBuffer)
	h.core.Register(client)

	conn := relay.NewConn(wsConn)
	go client.WritePump(conn, h.cfg.WriteTimeout)
	go client.ReadPump(h.core, conn)

	h.logger.Infow("websocket connected", "connection", client.ID, "remote", r.RemoteAddr)
}

func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := len(allowed) == 0
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}
		for _, candidate := range allowed {
			if candidate == origin {
				return true
			}
		}
		return false
	}
}
