package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/deskpilot/deskpilot/internal/agent"
	"github.com/deskpilot/deskpilot/internal/bus"
	"github.com/deskpilot/deskpilot/internal/computer"
	"github.com/deskpilot/deskpilot/internal/config"
	"github.com/deskpilot/deskpilot/internal/providers"
	"github.com/deskpilot/deskpilot/internal/tools"
	"github.com/deskpilot/deskpilot/pkg/protocol"
)

type cannedEndpoint struct {
	responses []*providers.MessagesResponse
	calls     int
}

func (e *cannedEndpoint) CreateMessage(ctx context.Context, req *providers.MessagesRequest) (*providers.MessagesResponse, error) {
	resp := e.responses[e.calls%len(e.responses)]
	e.calls++
	return resp, nil
}

// startTestGateway serves the websocket handler over httptest and
// returns a dial URL.
func startTestGateway(t *testing.T, token string) (*Server, string) {
	t.Helper()

	endpoint := &cannedEndpoint{responses: []*providers.MessagesResponse{{
		ID:         "msg_1",
		Role:       providers.RoleAssistant,
		Content:    []providers.Block{providers.TextBlock("All done.")},
		StopReason: providers.StopEndTurn,
	}}}
	sim := computer.NewSimulator(800, 600)
	loop := agent.NewLoop(agent.Config{
		Model:         "test-model",
		MaxIterations: 5,
		DisplayWidth:  800,
		DisplayHeight: 600,
	}, endpoint, tools.NewComputer(sim))

	s := NewServer(config.GatewayConfig{Token: token}, loop, agent.NewTracker(), bus.New())
	s.events.Subscribe("gateway", s.broadcastSessionEvent)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(context.Background(), w, r)
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { s.events.Unsubscribe("gateway") })

	return s, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dialGateway(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendRequest(t *testing.T, conn *websocket.Conn, id, method string, params interface{}) {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatal(err)
		}
		raw = data
	}
	req := protocol.RequestFrame{Type: protocol.FrameTypeRequest, ID: id, Method: method, Params: raw}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write request: %v", err)
	}
}

// readResponse skips event frames until the response with the given ID
// arrives.
func readResponse(t *testing.T, conn *websocket.Conn, id string) *protocol.ResponseFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var frame struct {
			protocol.ResponseFrame
			Event string `json:"event"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read: %v", err)
		}
		if frame.Type == protocol.FrameTypeResponse && frame.ID == id {
			return &frame.ResponseFrame
		}
	}
}

func TestGateway_ConnectRejectsBadToken(t *testing.T) {
	_, url := startTestGateway(t, "secret")
	conn := dialGateway(t, url)

	sendRequest(t, conn, "1", protocol.MethodConnect, map[string]string{"token": "wrong"})
	res := readResponse(t, conn, "1")

	if res.OK {
		t.Fatal("connect succeeded with a bad token")
	}
	if res.Error == nil || res.Error.Code != protocol.ErrUnauthorized {
		t.Errorf("error = %+v", res.Error)
	}
}

func TestGateway_RequiresAuthentication(t *testing.T) {
	_, url := startTestGateway(t, "secret")
	conn := dialGateway(t, url)

	sendRequest(t, conn, "1", protocol.MethodStatus, nil)
	res := readResponse(t, conn, "1")

	if res.OK {
		t.Fatal("status served without authentication")
	}
	if res.Error.Code != protocol.ErrUnauthorized {
		t.Errorf("code = %q", res.Error.Code)
	}
}

func TestGateway_HealthWorksUnauthenticated(t *testing.T) {
	_, url := startTestGateway(t, "secret")
	conn := dialGateway(t, url)

	sendRequest(t, conn, "1", protocol.MethodHealth, nil)
	res := readResponse(t, conn, "1")
	if !res.OK {
		t.Fatalf("health failed: %+v", res.Error)
	}
}

func TestGateway_SessionLifecycle(t *testing.T) {
	_, url := startTestGateway(t, "secret")
	conn := dialGateway(t, url)

	sendRequest(t, conn, "1", protocol.MethodConnect, map[string]string{"token": "secret"})
	if res := readResponse(t, conn, "1"); !res.OK {
		t.Fatalf("connect failed: %+v", res.Error)
	}

	sendRequest(t, conn, "2", protocol.MethodSessionStart, map[string]string{"message": "do the thing"})

	// Collect frames until the completion event; the start response and
	// session events interleave on the same connection.
	var sessionID string
	var sawText, sawCompleted bool
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for !sawCompleted || sessionID == "" {
		var frame struct {
			Type    string          `json:"type"`
			ID      string          `json:"id"`
			OK      bool            `json:"ok"`
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload,omitempty"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read: %v (sessionID=%q sawCompleted=%v)", err, sessionID, sawCompleted)
		}

		switch frame.Type {
		case protocol.FrameTypeResponse:
			if frame.ID != "2" || !frame.OK {
				t.Fatalf("unexpected response: %+v", frame)
			}
			var payload struct {
				SessionID string `json:"sessionId"`
			}
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				t.Fatal(err)
			}
			sessionID = payload.SessionID

		case protocol.FrameTypeEvent:
			if frame.Event != protocol.EventSession {
				continue
			}
			var payload struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				t.Fatal(err)
			}
			switch payload.Type {
			case protocol.SessionEventText:
				sawText = true
			case protocol.SessionEventCompleted:
				sawCompleted = true
			}
		}
	}

	if sessionID == "" {
		t.Error("no session ID returned")
	}
	if !sawText {
		t.Error("no text event broadcast")
	}
}

func TestGateway_BroadcastDuringConnect(t *testing.T) {
	// Broadcasters read each client's auth state while the read pump
	// flips it on connect; both sides must go through the client lock.
	s, url := startTestGateway(t, "")

	stop := make(chan struct{})
	broadcastDone := make(chan struct{})
	go func() {
		defer close(broadcastDone)
		for {
			select {
			case <-stop:
				return
			default:
				s.events.Broadcast(bus.SessionEvent{
					SessionID: "s1",
					Event:     agent.Event{Type: agent.EventText, Content: "tick"},
				})
			}
		}
	}()

	for i := 0; i < 5; i++ {
		conn := dialGateway(t, url)
		sendRequest(t, conn, "1", protocol.MethodConnect, nil)
		if res := readResponse(t, conn, "1"); !res.OK {
			t.Fatalf("connect failed: %+v", res.Error)
		}
		conn.Close()
	}

	close(stop)
	<-broadcastDone
}

func TestGateway_AbortUnknownSession(t *testing.T) {
	_, url := startTestGateway(t, "")
	conn := dialGateway(t, url)

	sendRequest(t, conn, "1", protocol.MethodConnect, nil)
	if res := readResponse(t, conn, "1"); !res.OK {
		t.Fatalf("connect failed: %+v", res.Error)
	}

	sendRequest(t, conn, "2", protocol.MethodSessionAbort, map[string]string{"sessionId": "ghost"})
	res := readResponse(t, conn, "2")
	if res.OK {
		t.Fatal("abort of unknown session succeeded")
	}
	if res.Error.Code != protocol.ErrNotFound {
		t.Errorf("code = %q", res.Error.Code)
	}
}

func TestGateway_SessionStartRequiresMessage(t *testing.T) {
	_, url := startTestGateway(t, "")
	conn := dialGateway(t, url)

	sendRequest(t, conn, "1", protocol.MethodConnect, nil)
	if res := readResponse(t, conn, "1"); !res.OK {
		t.Fatalf("connect failed: %+v", res.Error)
	}

	sendRequest(t, conn, "2", protocol.MethodSessionStart, map[string]string{})
	res := readResponse(t, conn, "2")
	if res.OK {
		t.Fatal("session started without a message")
	}
	if res.Error.Code != protocol.ErrInvalidRequest {
		t.Errorf("code = %q", res.Error.Code)
	}
}
