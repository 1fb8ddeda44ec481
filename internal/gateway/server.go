package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/deskpilot/deskpilot/internal/agent"
	"github.com/deskpilot/deskpilot/internal/bus"
	"github.com/deskpilot/deskpilot/internal/config"
	"github.com/deskpilot/deskpilot/pkg/protocol"
)

// Server accepts WebSocket clients and serves the session RPC methods.
type Server struct {
	cfg     config.GatewayConfig
	loop    *agent.Loop
	tracker *agent.Tracker
	events  *bus.Bus
	router  *MethodRouter
	limiter *RateLimiter

	httpServer *http.Server
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*Client
	seq     int64
}

// NewServer creates a gateway around one agent loop.
func NewServer(cfg config.GatewayConfig, loop *agent.Loop, tracker *agent.Tracker, events *bus.Bus) *Server {
	s := &Server{
		cfg:     cfg,
		loop:    loop,
		tracker: tracker,
		events:  events,
		limiter: NewRateLimiter(cfg.RequestsPerMinute, cfg.Burst),
		clients: make(map[string]*Client),
		upgrader: websocket.Upgrader{
			// The gateway binds to loopback by default; shells connect
			// locally, so origin checks stay permissive.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.router = NewMethodRouter(s)
	return s
}

// Start begins serving and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	s.events.Subscribe("gateway", s.broadcastSessionEvent)
	defer s.events.Unsubscribe("gateway")

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.broadcast(protocol.NewEvent(protocol.EventShutdown, nil))
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(conn, s)
	s.mu.Lock()
	s.clients[client.id] = client
	s.mu.Unlock()

	slog.Debug("client connected", "client", client.id, "remote", r.RemoteAddr)
	client.run(ctx)
}

// UpdateToken swaps the auth token, typically after a config reload.
// Existing authenticated clients keep their connections.
func (s *Server) UpdateToken(token string) {
	s.mu.Lock()
	s.cfg.Token = token
	s.mu.Unlock()
}

func (s *Server) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Token
}

func (s *Server) removeClient(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	slog.Debug("client disconnected", "client", c.id)
}

// broadcastSessionEvent forwards one agent progress event to all
// authenticated clients as an event frame.
func (s *Server) broadcastSessionEvent(ev bus.SessionEvent) {
	frame := protocol.NewEvent(protocol.EventSession, map[string]interface{}{
		"type":      subtypeFor(ev.Event.Type),
		"sessionId": ev.SessionID,
		"payload":   ev.Event,
	})
	s.broadcast(frame)
}

func (s *Server) broadcast(frame *protocol.EventFrame) {
	s.mu.Lock()
	s.seq++
	frame.Seq = s.seq
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if c.isAuthenticated() {
			c.SendEvent(frame)
		}
	}
}

func subtypeFor(t agent.EventType) string {
	switch t {
	case agent.EventIteration:
		return protocol.SessionEventIteration
	case agent.EventText:
		return protocol.SessionEventText
	case agent.EventThinking:
		return protocol.SessionEventThinking
	case agent.EventAction:
		return protocol.SessionEventAction
	case agent.EventError:
		return protocol.SessionEventError
	case agent.EventCompleted:
		return protocol.SessionEventCompleted
	default:
		return string(t)
	}
}
