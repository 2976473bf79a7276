// Package chathub owns the realtime chat connection: a single websocket per
// hub, its reconnect state machine, room membership and event fan-out.
package chathub

import (
	"net/url"
	"sync"
	"time"

	"github.com/landonvance1/BookSharingApp/internal/auth"
	"github.com/landonvance1/BookSharingApp/internal/model"
	"github.com/landonvance1/BookSharingApp/pkg/code"
	"github.com/landonvance1/BookSharingApp/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	DefaultPingInterval         = 25 * time.Second
	DefaultPingWait             = 40 * time.Second
	DefaultReconnectBase        = 1 * time.Second
	DefaultReconnectCap         = 30 * time.Second
	DefaultMaxReconnectAttempts = 5
)

// Config controls the hub connection.
type Config struct {
	// Endpoint websocket URL, e.g. ws://host/chathub
	Endpoint string
	// PingInterval keep-alive ping cadence
	PingInterval time.Duration
	// PingWait read deadline extension granted per pong
	PingWait time.Duration
	// ReconnectBase first reconnect delay, doubled per attempt
	ReconnectBase time.Duration
	// ReconnectCap upper bound on the reconnect delay
	ReconnectCap time.Duration
	// MaxReconnectAttempts attempts before giving up as Failed
	MaxReconnectAttempts int
}

func (c *Config) withDefaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PingWait <= 0 {
		c.PingWait = DefaultPingWait
	}
	if c.ReconnectBase <= 0 {
		c.ReconnectBase = DefaultReconnectBase
	}
	if c.ReconnectCap <= 0 {
		c.ReconnectCap = DefaultReconnectCap
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
}

// Hub is the process-wide chat channel manager. At most one physical
// connection exists at a time; Initialize while connected tears the old
// connection down first. All event callbacks fire outside the state lock.
type Hub struct {
	config Config
	creds  auth.Store
	logger *zap.Logger

	mu sync.Mutex
	// generation invalidates callbacks from connections that have been
	// superseded by a newer Initialize/Disconnect/reconnect
	generation uint64
	conn       *gws.Conn
	status     ConnectionStatus
	closing    bool
	attempts   int
	token      string
	joined     map[int64]bool
	pingDone   chan struct{}

	subMu      sync.Mutex
	nextSub    int
	statusSubs map[int]func(ConnectionStatus)
	msgSubs    map[int]func(model.ChatMessage)
	errSubs    map[int]func(string)
}

func NewHub(cfg Config, creds auth.Store, lg *zap.Logger) *Hub {
	cfg.withDefaults()
	return &Hub{
		config:     cfg,
		creds:      creds,
		logger:     lg,
		status:     StatusDisconnected,
		joined:     make(map[int64]bool),
		statusSubs: make(map[int]func(ConnectionStatus)),
		msgSubs:    make(map[int]func(model.ChatMessage)),
		errSubs:    make(map[int]func(string)),
	}
}

// Initialize acquires the credential and opens the connection. Fails fast
// with ErrorAuthenticationMissing when no token is available; that failure
// is never retried internally.
func (h *Hub) Initialize() error {
	h.mu.Lock()
	hadConn := h.conn != nil
	h.mu.Unlock()
	if hadConn {
		h.Disconnect()
	}

	token, err := h.creds.Token()
	if err != nil {
		return code.ErrorAuthenticationMissing.WithDetails(err.Error())
	}
	if token == "" {
		return code.ErrorAuthenticationMissing
	}
	if auth.TokenExpired(token, time.Now()) {
		h.logger.Warn("ChatHub credential appears expired, server will likely reject the connection")
	}

	h.mu.Lock()
	h.closing = false
	h.generation++
	h.token = token
	gen := h.generation
	h.mu.Unlock()

	h.setStatus(StatusConnecting)

	conn, err := h.dial(gen, token)
	if err != nil {
		h.setStatus(StatusFailed)
		h.notifyError("connection initialization failed: " + err.Error())
		return code.ErrorNetwork.WithDetails(err.Error())
	}

	if !h.install(gen, conn) {
		return code.ErrorNotConnected
	}
	h.setStatus(StatusConnected)
	h.logger.Info("ChatHub Connected")
	return nil
}

// Disconnect always ends in Disconnected, whatever the prior state, and is
// safe to call repeatedly.
func (h *Hub) Disconnect() {
	h.mu.Lock()
	h.closing = true
	h.generation++
	conn := h.conn
	h.conn = nil
	h.attempts = 0
	h.joined = make(map[int64]bool)
	if h.pingDone != nil {
		close(h.pingDone)
		h.pingDone = nil
	}
	h.mu.Unlock()

	if conn != nil {
		conn.WriteClose(1000, []byte("ClientClose"))
		h.logger.Info("ChatHub Disconnected")
	}
	h.setStatus(StatusDisconnected)
}

// JoinShareChat enters the share's chat room. Only legal while Connected.
// Membership is recorded only once the join frame goes out, so a failed
// join is not resent after a reconnect.
func (h *Hub) JoinShareChat(shareID int64) error {
	h.mu.Lock()
	conn := h.conn
	connected := h.status == StatusConnected && conn != nil
	h.mu.Unlock()

	if !connected {
		return code.ErrorNotConnected
	}
	if err := h.writeFrame(conn, ActionJoinShareChat, roomPayload{ShareID: shareID}); err != nil {
		return err
	}

	h.mu.Lock()
	h.joined[shareID] = true
	h.mu.Unlock()

	h.logger.Info("ChatHub Join", zap.Int64(logger.FieldShareID, shareID))
	return nil
}

// LeaveShareChat exits the room. A no-op while disconnected; send failures
// are logged, not propagated, matching best-effort teardown semantics.
func (h *Hub) LeaveShareChat(shareID int64) {
	h.mu.Lock()
	delete(h.joined, shareID)
	conn := h.conn
	connected := h.status == StatusConnected && conn != nil
	h.mu.Unlock()

	if !connected {
		return
	}
	if err := h.writeFrame(conn, ActionLeaveShareChat, roomPayload{ShareID: shareID}); err != nil {
		h.logger.Warn("ChatHub Leave failed", zap.Int64(logger.FieldShareID, shareID), zap.Error(err))
		return
	}
	h.logger.Info("ChatHub Leave", zap.Int64(logger.FieldShareID, shareID))
}

// SendMessage sends over the realtime channel. Callers fall back to the
// REST send on ErrorNotConnected; that policy lives above the hub.
func (h *Hub) SendMessage(shareID int64, content string) error {
	h.mu.Lock()
	conn := h.conn
	connected := h.status == StatusConnected && conn != nil
	h.mu.Unlock()

	if !connected {
		return code.ErrorNotConnected
	}
	return h.writeFrame(conn, ActionSendMessage, sendPayload{ShareID: shareID, Content: content})
}

// Status returns the current connection status.
func (h *Hub) Status() ConnectionStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// IsConnected reports whether the channel is usable right now.
func (h *Hub) IsConnected() bool {
	return h.Status() == StatusConnected
}

// ReconnectAttempts returns the current attempt counter; zero whenever the
// hub is healthy.
func (h *Hub) ReconnectAttempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// OnStatusChange subscribes to connection status updates. The returned
// handle unsubscribes.
func (h *Hub) OnStatusChange(fn func(ConnectionStatus)) func() {
	h.subMu.Lock()
	id := h.nextSub
	h.nextSub++
	h.statusSubs[id] = fn
	h.subMu.Unlock()
	return func() {
		h.subMu.Lock()
		delete(h.statusSubs, id)
		h.subMu.Unlock()
	}
}

// OnMessage subscribes to incoming chat messages.
func (h *Hub) OnMessage(fn func(model.ChatMessage)) func() {
	h.subMu.Lock()
	id := h.nextSub
	h.nextSub++
	h.msgSubs[id] = fn
	h.subMu.Unlock()
	return func() {
		h.subMu.Lock()
		delete(h.msgSubs, id)
		h.subMu.Unlock()
	}
}

// OnError subscribes to channel error events.
func (h *Hub) OnError(fn func(string)) func() {
	h.subMu.Lock()
	id := h.nextSub
	h.nextSub++
	h.errSubs[id] = fn
	h.subMu.Unlock()
	return func() {
		h.subMu.Lock()
		delete(h.errSubs, id)
		h.subMu.Unlock()
	}
}

// ------------------------------------> connection internals

func (h *Hub) dial(gen uint64, token string) (*gws.Conn, error) {
	addr := h.config.Endpoint + "?access_token=" + url.QueryEscape(token)
	conn, _, err := gws.NewClient(&connHandler{hub: h, gen: gen}, &gws.ClientOption{Addr: addr})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// install binds a freshly dialed connection to the hub unless a concurrent
// Disconnect/Initialize superseded it in the meantime.
func (h *Hub) install(gen uint64, conn *gws.Conn) bool {
	h.mu.Lock()
	if gen != h.generation || h.closing {
		h.mu.Unlock()
		conn.WriteClose(1000, []byte("Superseded"))
		return false
	}
	h.conn = conn
	h.attempts = 0
	done := make(chan struct{})
	h.pingDone = done
	h.mu.Unlock()

	go conn.ReadLoop()
	go h.pingLoop(conn, done)
	return true
}

// handleClose reacts to a transport close. Explicit disconnects were already
// handled; anything else enters the reconnect loop.
func (h *Hub) handleClose(gen uint64, err error) {
	h.mu.Lock()
	if gen != h.generation {
		h.mu.Unlock()
		return
	}
	h.conn = nil
	if h.pingDone != nil {
		close(h.pingDone)
		h.pingDone = nil
	}
	if h.closing {
		h.mu.Unlock()
		return
	}
	h.generation++
	newGen := h.generation
	token := h.token
	rooms := make([]int64, 0, len(h.joined))
	for id := range h.joined {
		rooms = append(rooms, id)
	}
	h.mu.Unlock()

	h.logger.Warn("ChatHub Connection lost", zap.Error(err))
	go h.reconnectLoop(newGen, token, rooms)
}

// reconnectLoop retries with exponential backoff: base delay doubling per
// attempt up to the cap, bounded by MaxReconnectAttempts. Exhaustion moves
// the hub to Failed and fires the error event exactly once; only an explicit
// Initialize leaves Failed.
func (h *Hub) reconnectLoop(gen uint64, token string, rooms []int64) {
	h.mu.Lock()
	if gen != h.generation || h.closing {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	h.setStatus(StatusReconnecting)

	for attempt := 0; attempt < h.config.MaxReconnectAttempts; attempt++ {
		delay := h.config.ReconnectBase << attempt
		if delay > h.config.ReconnectCap {
			delay = h.config.ReconnectCap
		}

		h.mu.Lock()
		if gen != h.generation || h.closing {
			h.mu.Unlock()
			return
		}
		h.attempts = attempt + 1
		h.mu.Unlock()

		time.Sleep(delay)

		h.mu.Lock()
		if gen != h.generation || h.closing {
			h.mu.Unlock()
			return
		}
		h.mu.Unlock()

		conn, err := h.dial(gen, token)
		if err != nil {
			h.logger.Warn("ChatHub Reconnect attempt failed",
				zap.Int(logger.FieldAttempt, attempt+1),
				zap.Error(err))
			continue
		}

		if !h.install(gen, conn) {
			return
		}
		h.setStatus(StatusConnected)
		h.logger.Info("ChatHub Reconnected", zap.Int(logger.FieldAttempt, attempt+1))

		// room membership does not survive a transport reconnect
		for _, id := range rooms {
			if err := h.JoinShareChat(id); err != nil {
				h.logger.Warn("ChatHub Rejoin failed", zap.Int64(logger.FieldShareID, id), zap.Error(err))
			}
		}
		return
	}

	h.mu.Lock()
	if gen != h.generation || h.closing {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	h.setStatus(StatusFailed)
	h.notifyError(code.ErrorTransportFailure.Msg())
	h.logger.Error("ChatHub Reconnect attempts exhausted",
		zap.Int(logger.FieldAttempt, h.config.MaxReconnectAttempts))
}

func (h *Hub) pingLoop(conn *gws.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WritePing(nil); err != nil {
				h.logger.Warn("ChatHub Ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *Hub) handleMessage(gen uint64, data []byte) {
	h.mu.Lock()
	stale := gen != h.generation
	h.mu.Unlock()
	if stale {
		return
	}

	action, payload, err := DecodeFrame(data)
	if err != nil {
		h.logger.Warn("ChatHub OnMessage illegal frame", zap.Error(err))
		return
	}

	switch action {
	case ActionReceiveMessage:
		var msg model.ChatMessage
		if err := sonic.Unmarshal(payload, &msg); err != nil {
			h.logger.Warn("ChatHub OnMessage decode failed", zap.Error(err))
			return
		}
		h.notifyMessage(msg)
	case ActionJoinedChat:
		var p roomPayload
		_ = sonic.Unmarshal(payload, &p)
		h.logger.Info("ChatHub Joined", zap.Int64(logger.FieldShareID, p.ShareID))
	case ActionLeftChat:
		var p roomPayload
		_ = sonic.Unmarshal(payload, &p)
		h.logger.Info("ChatHub Left", zap.Int64(logger.FieldShareID, p.ShareID))
	case ActionError:
		var p errorPayload
		if err := sonic.Unmarshal(payload, &p); err != nil || p.Message == "" {
			p.Message = string(payload)
		}
		h.notifyError(p.Message)
	default:
		h.logger.Warn("ChatHub OnMessage unknown action", zap.String(logger.FieldAction, action))
	}
}

func (h *Hub) writeFrame(conn *gws.Conn, action string, payload any) error {
	frame, err := EncodeFrame(action, payload)
	if err != nil {
		return code.ErrorInvalidParams.WithDetails(err.Error())
	}
	if err := conn.WriteMessage(gws.OpcodeText, frame); err != nil {
		return code.ErrorNetwork.WithDetails(err.Error())
	}
	return nil
}

func (h *Hub) setStatus(status ConnectionStatus) {
	h.mu.Lock()
	h.status = status
	h.mu.Unlock()

	h.subMu.Lock()
	fns := make([]func(ConnectionStatus), 0, len(h.statusSubs))
	for _, fn := range h.statusSubs {
		fns = append(fns, fn)
	}
	h.subMu.Unlock()
	for _, fn := range fns {
		fn(status)
	}
}

func (h *Hub) notifyMessage(msg model.ChatMessage) {
	h.subMu.Lock()
	fns := make([]func(model.ChatMessage), 0, len(h.msgSubs))
	for _, fn := range h.msgSubs {
		fns = append(fns, fn)
	}
	h.subMu.Unlock()
	for _, fn := range fns {
		fn(msg)
	}
}

func (h *Hub) notifyError(message string) {
	h.subMu.Lock()
	fns := make([]func(string), 0, len(h.errSubs))
	for _, fn := range h.errSubs {
		fns = append(fns, fn)
	}
	h.subMu.Unlock()
	for _, fn := range fns {
		fn(message)
	}
}

// ------------------------------------> gws event adapter

type connHandler struct {
	hub *Hub
	gen uint64
}

func (c *connHandler) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(c.hub.config.PingWait))
}

func (c *connHandler) OnClose(conn *gws.Conn, err error) {
	c.hub.handleClose(c.gen, err)
}

func (c *connHandler) OnPing(conn *gws.Conn, payload []byte) {
	_ = conn.SetDeadline(time.Now().Add(c.hub.config.PingWait))
	_ = conn.WritePong(nil)
}

func (c *connHandler) OnPong(conn *gws.Conn, payload []byte) {
	_ = conn.SetDeadline(time.Now().Add(c.hub.config.PingWait))
}

func (c *connHandler) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	c.hub.handleMessage(c.gen, message.Bytes())
}
