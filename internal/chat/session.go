// internal/chat/session.go

package chat

import (
    "context"
    "encoding/json"
    "errors"
    "log"
    "strings"
    "sync"
    "time"

    "github.com/cenkalti/backoff/v4"
    "github.com/gorilla/websocket"
)

const (
    // Time allowed to write a message to the peer
    writeWait = 10 * time.Second

    // Time allowed to read the next pong message from the peer
    pongWait = 60 * time.Second

    // Send pings to peer with this period (must be less than pongWait)
    pingPeriod = (pongWait * 9) / 10

    // Maximum message size allowed from peer
    maxMessageSize = 512 * 1024 // 512KB

    // Maximum number of queued outbound frames
    maxQueuedFrames = 256

    // DefaultHistoryLimit is how many recent messages one history fetch asks for.
    DefaultHistoryLimit = 50
)

// ErrMalformedFrame marks live frames that do not parse as an envelope.
var ErrMalformedFrame = errors.New("malformed live frame")

// HistoryFetcher is the slice of the REST client a session needs.
type HistoryFetcher interface {
    MessageHistory(ctx context.Context, conversationID int64, limit, offset int) ([]Message, error)
}

// TokenSource supplies the bearer credential. ok is false when no usable
// token is stored, in which case the session never dials.
type TokenSource interface {
    Token() (token string, ok bool)
}

// Conn is the subset of a websocket connection the session drives.
type Conn interface {
    ReadMessage() (messageType int, data []byte, err error)
    WriteMessage(messageType int, data []byte) error
    SetReadLimit(limit int64)
    SetReadDeadline(t time.Time) error
    SetWriteDeadline(t time.Time) error
    SetPongHandler(h func(appData string) error)
    Close() error
}

// Dialer opens the live channel for one conversation.
type Dialer interface {
    Dial(ctx context.Context, conversationID int64, token string) (Conn, error)
}

// ReconnectPolicy controls what happens after the live channel drops.
// Disabled by default: the connection stays down until the session is
// rebuilt, and the UI shows the disconnected indicator.
type ReconnectPolicy struct {
    Enabled         bool
    InitialInterval time.Duration
    MaxInterval     time.Duration
    MaxAttempts     int // 0 means unlimited
}

// SessionConfig tunes one chat session.
type SessionConfig struct {
    HistoryLimit    int
    SortByTimestamp bool
    Reconnect       ReconnectPolicy
}

// EventKind tags session events delivered to the UI.
type EventKind int

const (
    EventMessage EventKind = iota
    EventHistoryLoaded
    EventConnected
    EventDisconnected
)

// Event is pushed on the session's event channel whenever the rendered
// state changes. Message is set only for EventMessage.
type Event struct {
    Kind    EventKind
    Message *Message
}

// Session owns the live view of one conversation: one history fetch, one
// persistent connection, and the reconciled message log. One instance per
// open conversation view; sessions are never shared.
type Session struct {
    conversationID int64
    history        HistoryFetcher
    dialer         Dialer
    creds          TokenSource
    cfg            SessionConfig

    log      *messageLog
    outbound chan []byte
    events   chan Event

    mu             sync.RWMutex
    connected      bool
    loadingHistory bool

    cancel    context.CancelFunc
    wg        sync.WaitGroup
    closeOnce sync.Once
}

// NewSession builds a session for one conversation. Start must be called
// before the session does any I/O.
func NewSession(conversationID int64, history HistoryFetcher, dialer Dialer, creds TokenSource, cfg SessionConfig) *Session {
    if cfg.HistoryLimit <= 0 {
        cfg.HistoryLimit = DefaultHistoryLimit
    }
    if cfg.Reconnect.InitialInterval <= 0 {
        cfg.Reconnect.InitialInterval = time.Second
    }
    if cfg.Reconnect.MaxInterval <= 0 {
        cfg.Reconnect.MaxInterval = 30 * time.Second
    }

    return &Session{
        conversationID: conversationID,
        history:        history,
        dialer:         dialer,
        creds:          creds,
        cfg:            cfg,
        log:            newMessageLog(cfg.SortByTimestamp),
        outbound:       make(chan []byte, maxQueuedFrames),
        events:         make(chan Event, 64),
        loadingHistory: true,
    }
}

// Start kicks off the history fetch and the live connection. The two run
// concurrently; the merge-by-id rule makes their ordering irrelevant.
func (s *Session) Start(ctx context.Context) {
    ctx, s.cancel = context.WithCancel(ctx)

    s.wg.Add(1)
    go func() {
        defer s.wg.Done()
        s.loadHistory(ctx)
    }()

    token, ok := s.creds.Token()
    if !ok {
        log.Printf("conversation %d: no credential, staying disconnected", s.conversationID)
        return
    }

    s.wg.Add(1)
    go func() {
        defer s.wg.Done()
        s.connectLoop(ctx, token)
    }()
}

// Close tears the session down: live channel closed, goroutines drained,
// event channel closed. Safe to call more than once.
func (s *Session) Close() {
    s.closeOnce.Do(func() {
        if s.cancel != nil {
            s.cancel()
        }
        s.wg.Wait()
        close(s.events)
    })
}

// Events delivers state changes to the consuming view.
func (s *Session) Events() <-chan Event {
    return s.events
}

// Messages returns a copy of the reconciled message list.
func (s *Session) Messages() []Message {
    return s.log.snapshot()
}

// Connected reports whether the live channel is currently open.
func (s *Session) Connected() bool {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.connected
}

// LoadingHistory reports whether the initial history fetch is still in flight.
func (s *Session) LoadingHistory() bool {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.loadingHistory
}

// Send writes one message to the live channel. Gated: empty-after-trim
// content and a closed connection are both silent no-ops, matching the UI
// contract of disabling the send control instead of surfacing errors.
func (s *Session) Send(content string) {
    if strings.TrimSpace(content) == "" {
        sendsBlocked.WithLabelValues("empty").Inc()
        return
    }
    if !s.Connected() {
        sendsBlocked.WithLabelValues("disconnected").Inc()
        return
    }

    data, err := json.Marshal(outboundFrame{Content: content})
    if err != nil {
        return
    }

    select {
    case s.outbound <- data:
        messagesSent.Inc()
    default:
        log.Printf("conversation %d: outbound buffer full, dropping frame", s.conversationID)
    }
}

func (s *Session) loadHistory(ctx context.Context) {
    batch, err := s.history.MessageHistory(ctx, s.conversationID, s.cfg.HistoryLimit, 0)

    // A response landing after teardown must not mutate state.
    if ctx.Err() != nil {
        return
    }

    if err != nil {
        log.Printf("conversation %d: history fetch failed: %v", s.conversationID, err)
        s.setLoadingHistory(false)
        return
    }

    s.log.replaceHistory(batch)
    messagesReceived.WithLabelValues("history").Add(float64(len(batch)))
    s.setLoadingHistory(false)
    s.emit(Event{Kind: EventHistoryLoaded})
}

func (s *Session) connectLoop(ctx context.Context, token string) {
    bo := backoff.NewExponentialBackOff()
    bo.InitialInterval = s.cfg.Reconnect.InitialInterval
    bo.MaxInterval = s.cfg.Reconnect.MaxInterval
    bo.MaxElapsedTime = 0

    attempts := 0
    for {
        if ctx.Err() != nil {
            return
        }

        conn, err := s.dialer.Dial(ctx, s.conversationID, token)
        if err != nil {
            log.Printf("conversation %d: dial failed: %v", s.conversationID, err)
        } else {
            bo.Reset()
            attempts = 0
            s.setConnected(true)
            s.runConn(ctx, conn)
            s.setConnected(false)
        }

        if !s.cfg.Reconnect.Enabled || ctx.Err() != nil {
            return
        }
        attempts++
        if s.cfg.Reconnect.MaxAttempts > 0 && attempts > s.cfg.Reconnect.MaxAttempts {
            log.Printf("conversation %d: giving up after %d reconnect attempts", s.conversationID, attempts-1)
            return
        }
        reconnectAttempts.Inc()

        select {
        case <-time.After(bo.NextBackOff()):
        case <-ctx.Done():
            return
        }
    }
}

// runConn drives one live connection until it drops. The read pump runs on
// the calling goroutine; the write pump and the context watcher are spun off
// and joined through the shared stop channel.
func (s *Session) runConn(ctx context.Context, conn Conn) {
    stop := make(chan struct{})
    var once sync.Once
    shutdown := func() {
        once.Do(func() {
            close(stop)
            conn.Close()
        })
    }

    go func() {
        select {
        case <-ctx.Done():
        case <-stop:
        }
        shutdown()
    }()

    go s.writePump(conn, stop)
    s.readPump(conn)
    shutdown()
}

func (s *Session) readPump(conn Conn) {
    conn.SetReadLimit(maxMessageSize)
    conn.SetReadDeadline(time.Now().Add(pongWait))
    conn.SetPongHandler(func(string) error {
        conn.SetReadDeadline(time.Now().Add(pongWait))
        return nil
    })

    for {
        _, data, err := conn.ReadMessage()
        if err != nil {
            if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
                log.Printf("conversation %d: live channel error: %v", s.conversationID, err)
            }
            return
        }
        s.receive(data)
    }
}

func (s *Session) writePump(conn Conn, stop <-chan struct{}) {
    ticker := time.NewTicker(pingPeriod)
    defer ticker.Stop()

    for {
        select {
        case data := <-s.outbound:
            conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
                return
            }

        case <-ticker.C:
            conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
                return
            }

        case <-stop:
            return
        }
    }
}

// receive handles one inbound live frame. Malformed frames are counted and
// dropped; duplicate ids are dropped; everything else is normalized and
// appended.
func (s *Session) receive(data []byte) {
    env, err := ParseEnvelope(data)
    if err != nil {
        malformedFrames.Inc()
        return
    }

    msg := env.Normalize()
    if !s.log.append(msg) {
        duplicatesDropped.Inc()
        return
    }

    messagesReceived.WithLabelValues("live").Inc()
    s.emit(Event{Kind: EventMessage, Message: &msg})
}

func (s *Session) setConnected(connected bool) {
    s.mu.Lock()
    s.connected = connected
    s.mu.Unlock()

    if connected {
        connectionState.Set(1)
        s.emit(Event{Kind: EventConnected})
    } else {
        connectionState.Set(0)
        s.emit(Event{Kind: EventDisconnected})
    }
}

func (s *Session) setLoadingHistory(loading bool) {
    s.mu.Lock()
    s.loadingHistory = loading
    s.mu.Unlock()
}

func (s *Session) emit(ev Event) {
    select {
    case s.events <- ev:
    default:
        // Slow consumer, drop the event. State accessors stay correct.
    }
}
