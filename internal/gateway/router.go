package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/deskpilot/deskpilot/internal/agent"
	"github.com/deskpilot/deskpilot/internal/bus"
	"github.com/deskpilot/deskpilot/pkg/protocol"
)

// MethodHandler processes a single RPC method request.
type MethodHandler func(ctx context.Context, client *Client, req *protocol.RequestFrame)

// MethodRouter maps method names to handlers.
type MethodRouter struct {
	handlers map[string]MethodHandler
	server   *Server
}

func NewMethodRouter(server *Server) *MethodRouter {
	r := &MethodRouter{
		handlers: make(map[string]MethodHandler),
		server:   server,
	}
	r.registerDefaults()
	return r
}

// Register adds a method handler.
func (r *MethodRouter) Register(method string, handler MethodHandler) {
	r.handlers[method] = handler
}

// Handle dispatches a request to the appropriate handler.
func (r *MethodRouter) Handle(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	handler, ok := r.handlers[req.Method]
	if !ok {
		slog.Warn("unknown method", "method", req.Method, "client", client.id)
		client.SendResponse(protocol.NewErrorResponse(
			req.ID, protocol.ErrInvalidRequest, "unknown method: "+req.Method))
		return
	}

	// Everything except connect and health requires authentication.
	if req.Method != protocol.MethodConnect && req.Method != protocol.MethodHealth {
		if !client.isAuthenticated() {
			client.SendResponse(protocol.NewErrorResponse(
				req.ID, protocol.ErrUnauthorized, "not authenticated"))
			return
		}
		if !r.server.limiter.Allow(client.id) {
			client.SendResponse(protocol.NewErrorResponse(
				req.ID, protocol.ErrResourceExhausted, "rate limit exceeded"))
			return
		}
	}

	slog.Debug("handling method", "method", req.Method, "client", client.id, "req_id", req.ID)
	handler(ctx, client, req)
}

func (r *MethodRouter) registerDefaults() {
	r.Register(protocol.MethodConnect, r.handleConnect)
	r.Register(protocol.MethodHealth, r.handleHealth)
	r.Register(protocol.MethodStatus, r.handleStatus)
	r.Register(protocol.MethodSessionStart, r.handleSessionStart)
	r.Register(protocol.MethodSessionAbort, r.handleSessionAbort)
}

// --- Built-in handlers ---

func (r *MethodRouter) handleConnect(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	var params struct {
		Token string `json:"token"`
	}
	if req.Params != nil {
		json.Unmarshal(req.Params, &params)
	}

	configToken := r.server.token()
	if configToken != "" && params.Token != configToken {
		client.SendResponse(protocol.NewErrorResponse(
			req.ID, protocol.ErrUnauthorized, "invalid token"))
		return
	}

	client.setAuthenticated()
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"protocol": protocol.ProtocolVersion,
		"server": map[string]interface{}{
			"name": "deskpilot",
		},
	}))
}

func (r *MethodRouter) handleHealth(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"status": "ok",
	}))
}

func (r *MethodRouter) handleStatus(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	r.server.mu.Lock()
	clients := len(r.server.clients)
	r.server.mu.Unlock()

	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"activeSessions": r.server.tracker.Count(),
		"clients":        clients,
	}))
}

func (r *MethodRouter) handleSessionStart(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	var params struct {
		Message string `json:"message"`
	}
	if req.Params != nil {
		json.Unmarshal(req.Params, &params)
	}
	if params.Message == "" {
		client.SendResponse(protocol.NewErrorResponse(
			req.ID, protocol.ErrInvalidRequest, "message is required"))
		return
	}

	// The session outlives the client connection: it runs against the
	// gateway's context, and any client may abort it by ID.
	runCtx, cancel := context.WithCancel(ctx)
	run := r.server.loop.Start(runCtx, params.Message)
	r.server.tracker.Register(run.SessionID, cancel)

	go r.pumpEvents(run)

	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"sessionId": run.SessionID,
	}))
}

// pumpEvents forwards a run's progress events onto the broadcast bus and
// cleans up tracking when the run terminates.
func (r *MethodRouter) pumpEvents(run *agent.Run) {
	for ev := range run.Events() {
		r.server.events.Broadcast(bus.SessionEvent{
			SessionID: run.SessionID,
			Event:     ev,
		})
	}
	r.server.tracker.Unregister(run.SessionID)
}

func (r *MethodRouter) handleSessionAbort(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	var params struct {
		SessionID string `json:"sessionId"`
	}
	if req.Params != nil {
		json.Unmarshal(req.Params, &params)
	}

	if !r.server.tracker.Abort(params.SessionID) {
		client.SendResponse(protocol.NewErrorResponse(
			req.ID, protocol.ErrNotFound, "no active session: "+params.SessionID))
		return
	}
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"aborted": params.SessionID,
	}))
}
