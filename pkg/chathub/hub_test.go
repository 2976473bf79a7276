package chathub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/landonvance1/BookSharingApp/internal/auth"
	"github.com/landonvance1/BookSharingApp/internal/model"
	"github.com/landonvance1/BookSharingApp/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeHubServer speaks the "Action|{json}" protocol and records what the
// client did, so tests can assert on auth, joins and resent frames.
type fakeHubServer struct {
	srv      *httptest.Server
	upgrader *gws.Upgrader

	mu     sync.Mutex
	conns  []*gws.Conn
	tokens []string
	joins  []int64
	sends  []sendPayload
}

func newFakeHubServer(t *testing.T) *fakeHubServer {
	t.Helper()
	f := &fakeHubServer{}
	f.upgrader = gws.NewUpgrader(f, &gws.ServerOption{})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/chathub", func(c *gin.Context) {
		token := c.Query("access_token")
		if token == "" {
			c.Status(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.tokens = append(f.tokens, token)
		f.mu.Unlock()

		socket, err := f.upgrader.Upgrade(c.Writer, c.Request)
		if err != nil {
			return
		}
		go socket.ReadLoop()
	})

	f.srv = httptest.NewServer(r)
	return f
}

func (f *fakeHubServer) endpoint() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/chathub"
}

func (f *fakeHubServer) joinCount(shareID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range f.joins {
		if id == shareID {
			n++
		}
	}
	return n
}

// dropAll closes every live connection while leaving the listener up, so
// the client sees a transport drop but reconnects can succeed.
func (f *fakeHubServer) dropAll() {
	f.mu.Lock()
	conns := f.conns
	f.conns = nil
	f.mu.Unlock()
	for _, conn := range conns {
		conn.WriteClose(1000, []byte("ServerDrop"))
	}
}

// shutdown kills the listener and every connection so nothing can reconnect.
func (f *fakeHubServer) shutdown() {
	f.srv.CloseClientConnections()
	f.srv.Listener.Close()
}

func (f *fakeHubServer) broadcast(action string, payload any) {
	frame, _ := EncodeFrame(action, payload)
	f.mu.Lock()
	conns := append([]*gws.Conn(nil), f.conns...)
	f.mu.Unlock()
	for _, conn := range conns {
		_ = conn.WriteMessage(gws.OpcodeText, frame)
	}
}

func (f *fakeHubServer) OnOpen(conn *gws.Conn) {
	f.mu.Lock()
	f.conns = append(f.conns, conn)
	f.mu.Unlock()
}

func (f *fakeHubServer) OnClose(conn *gws.Conn, err error) {}

func (f *fakeHubServer) OnPing(conn *gws.Conn, payload []byte) {
	_ = conn.WritePong(nil)
}

func (f *fakeHubServer) OnPong(conn *gws.Conn, payload []byte) {}

func (f *fakeHubServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	action, payload, err := DecodeFrame(message.Bytes())
	if err != nil {
		return
	}
	switch action {
	case ActionJoinShareChat:
		var p roomPayload
		if sonic.Unmarshal(payload, &p) == nil {
			f.mu.Lock()
			f.joins = append(f.joins, p.ShareID)
			f.mu.Unlock()
			frame, _ := EncodeFrame(ActionJoinedChat, p)
			_ = conn.WriteMessage(gws.OpcodeText, frame)
		}
	case ActionSendMessage:
		var p sendPayload
		if sonic.Unmarshal(payload, &p) == nil {
			f.mu.Lock()
			f.sends = append(f.sends, p)
			f.mu.Unlock()
		}
	}
}

func newTestHub(t *testing.T, endpoint string, cfg Config) *Hub {
	t.Helper()
	cfg.Endpoint = endpoint
	hub := NewHub(cfg, auth.NewStaticStore("hub-token"), zap.NewNop())
	t.Cleanup(hub.Disconnect)
	return hub
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// statusRecorder captures every status transition in order.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []ConnectionStatus
}

func (r *statusRecorder) record(s ConnectionStatus) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
}

func (r *statusRecorder) has(want ConnectionStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.statuses {
		if s == want {
			return true
		}
	}
	return false
}

func (r *statusRecorder) last() ConnectionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

func TestHub_InitializeWithoutTokenFailsFast(t *testing.T) {
	hub := NewHub(Config{Endpoint: "ws://127.0.0.1:1/chathub"}, auth.NewStaticStore(""), zap.NewNop())

	err := hub.Initialize()
	require.Error(t, err)
	assert.True(t, code.ErrorAuthenticationMissing.Is(err))
	assert.Equal(t, StatusDisconnected, hub.Status())
}

func TestHub_ConnectJoinAndSend(t *testing.T) {
	server := newFakeHubServer(t)
	t.Cleanup(server.srv.Close)

	hub := newTestHub(t, server.endpoint(), Config{})

	var rec statusRecorder
	hub.OnStatusChange(rec.record)

	received := make(chan model.ChatMessage, 1)
	hub.OnMessage(func(msg model.ChatMessage) { received <- msg })

	require.NoError(t, hub.Initialize())
	assert.Equal(t, StatusConnected, hub.Status())
	assert.True(t, rec.has(StatusConnecting))

	server.mu.Lock()
	tokens := append([]string(nil), server.tokens...)
	server.mu.Unlock()
	require.NotEmpty(t, tokens)
	assert.Equal(t, "hub-token", tokens[0])

	require.NoError(t, hub.JoinShareChat(42))
	waitFor(t, func() bool { return server.joinCount(42) == 1 }, "join frame")

	require.NoError(t, hub.SendMessage(42, "is the book still available?"))
	waitFor(t, func() bool {
		server.mu.Lock()
		defer server.mu.Unlock()
		return len(server.sends) == 1
	}, "send frame")

	server.broadcast(ActionReceiveMessage, model.ChatMessage{
		ID:      1,
		ShareID: 42,
		Content: "yes, come pick it up",
	})
	select {
	case msg := <-received:
		assert.Equal(t, int64(42), msg.ShareID)
		assert.Equal(t, "yes, come pick it up", msg.Content)
	case <-time.After(3 * time.Second):
		t.Fatal("no chat message delivered")
	}
}

func TestHub_JoinRequiresConnection(t *testing.T) {
	hub := NewHub(Config{Endpoint: "ws://127.0.0.1:1/chathub"}, auth.NewStaticStore("hub-token"), zap.NewNop())

	err := hub.JoinShareChat(1)
	require.Error(t, err)
	assert.True(t, code.ErrorNotConnected.Is(err))

	err = hub.SendMessage(1, "hello")
	require.Error(t, err)
	assert.True(t, code.ErrorNotConnected.Is(err))
}

func TestHub_ReconnectsAndRejoinsAfterDrop(t *testing.T) {
	server := newFakeHubServer(t)
	t.Cleanup(server.srv.Close)

	hub := newTestHub(t, server.endpoint(), Config{
		ReconnectBase: 5 * time.Millisecond,
		ReconnectCap:  20 * time.Millisecond,
	})

	var rec statusRecorder
	hub.OnStatusChange(rec.record)

	require.NoError(t, hub.Initialize())
	require.NoError(t, hub.JoinShareChat(7))
	waitFor(t, func() bool { return server.joinCount(7) == 1 }, "initial join")

	server.dropAll()

	waitFor(t, func() bool { return rec.has(StatusReconnecting) }, "reconnecting status")
	waitFor(t, func() bool { return hub.Status() == StatusConnected }, "reconnected")
	waitFor(t, func() bool { return server.joinCount(7) == 2 }, "room rejoined")

	assert.Equal(t, 0, hub.ReconnectAttempts())
	require.NoError(t, hub.SendMessage(7, "still here"))
}

func TestHub_ReconnectExhaustionEndsFailed(t *testing.T) {
	server := newFakeHubServer(t)

	hub := newTestHub(t, server.endpoint(), Config{
		ReconnectBase:        2 * time.Millisecond,
		ReconnectCap:         10 * time.Millisecond,
		MaxReconnectAttempts: 5,
	})

	var errMu sync.Mutex
	var errEvents []string
	hub.OnError(func(msg string) {
		errMu.Lock()
		errEvents = append(errEvents, msg)
		errMu.Unlock()
	})

	require.NoError(t, hub.Initialize())

	server.shutdown()

	waitFor(t, func() bool { return hub.Status() == StatusFailed }, "failed status")
	assert.Equal(t, 5, hub.ReconnectAttempts())

	// give a would-be sixth attempt time to show itself
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StatusFailed, hub.Status())

	errMu.Lock()
	defer errMu.Unlock()
	require.Len(t, errEvents, 1)
	assert.Contains(t, errEvents[0], code.ErrorTransportFailure.Msg())
}

func TestHub_DisconnectIsIdempotent(t *testing.T) {
	server := newFakeHubServer(t)
	t.Cleanup(server.srv.Close)

	hub := newTestHub(t, server.endpoint(), Config{})

	var rec statusRecorder
	hub.OnStatusChange(rec.record)

	require.NoError(t, hub.Initialize())
	require.NoError(t, hub.JoinShareChat(3))

	hub.Disconnect()
	assert.Equal(t, StatusDisconnected, hub.Status())

	hub.Disconnect()
	hub.Disconnect()
	assert.Equal(t, StatusDisconnected, hub.Status())
	assert.Equal(t, StatusDisconnected, rec.last())

	// an explicit disconnect must not trigger the reconnect loop
	time.Sleep(50 * time.Millisecond)
	assert.False(t, rec.has(StatusReconnecting))

	err := hub.JoinShareChat(3)
	require.Error(t, err)
	assert.True(t, code.ErrorNotConnected.Is(err))
}

func TestHub_StaleReconnectAfterDisconnectStaysSilent(t *testing.T) {
	server := newFakeHubServer(t)
	t.Cleanup(server.srv.Close)

	hub := newTestHub(t, server.endpoint(), Config{})
	require.NoError(t, hub.Initialize())

	hub.mu.Lock()
	staleGen := hub.generation
	hub.mu.Unlock()

	hub.Disconnect()

	var rec statusRecorder
	hub.OnStatusChange(rec.record)

	done := make(chan struct{})
	go func() {
		hub.reconnectLoop(staleGen, "hub-token", nil)
		close(done)
	}()
	<-done

	assert.False(t, rec.has(StatusReconnecting))
	assert.Equal(t, StatusDisconnected, hub.Status())
}

func TestHub_FailedJoinIsNotRemembered(t *testing.T) {
	server := newFakeHubServer(t)
	t.Cleanup(server.srv.Close)

	hub := newTestHub(t, server.endpoint(), Config{})
	require.NoError(t, hub.Initialize())

	// kill the transport client-side so the join frame cannot go out
	hub.mu.Lock()
	conn := hub.conn
	hub.mu.Unlock()
	conn.WriteClose(1000, nil)

	err := hub.JoinShareChat(42)
	require.Error(t, err)

	hub.mu.Lock()
	_, remembered := hub.joined[42]
	hub.mu.Unlock()
	assert.False(t, remembered, "a join that never reached the server must not be resent")
}

func TestHub_InitializeReplacesExistingConnection(t *testing.T) {
	server := newFakeHubServer(t)
	t.Cleanup(server.srv.Close)

	hub := newTestHub(t, server.endpoint(), Config{})

	require.NoError(t, hub.Initialize())
	require.NoError(t, hub.Initialize())
	assert.Equal(t, StatusConnected, hub.Status())

	server.mu.Lock()
	dials := len(server.tokens)
	server.mu.Unlock()
	assert.Equal(t, 2, dials)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(Config{Endpoint: "ws://127.0.0.1:1/chathub"}, auth.NewStaticStore("hub-token"), zap.NewNop())

	var calls int
	off := hub.OnStatusChange(func(ConnectionStatus) { calls++ })
	hub.setStatus(StatusConnecting)
	assert.Equal(t, 1, calls)

	off()
	off() // second call is a no-op
	hub.setStatus(StatusDisconnected)
	assert.Equal(t, 1, calls)
}

func TestFrameCodec(t *testing.T) {
	frame, err := EncodeFrame(ActionJoinShareChat, roomPayload{ShareID: 12})
	require.NoError(t, err)
	assert.Equal(t, `JoinShareChat|{"shareId":12}`, string(frame))

	action, payload, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, ActionJoinShareChat, action)

	var p roomPayload
	require.NoError(t, sonic.Unmarshal(payload, &p))
	assert.Equal(t, int64(12), p.ShareID)

	_, _, err = DecodeFrame([]byte("no separator here"))
	require.Error(t, err)
}
