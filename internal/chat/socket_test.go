package chat

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gorilla/websocket"
)

// End-to-end over a real websocket: dial with credential in the query,
// receive a pushed envelope, write a frame back.
func TestWebSocketDialerEndToEnd(t *testing.T) {
    upgrader := websocket.Upgrader{}
    handshake := make(chan *http.Request, 1)
    received := make(chan []byte, 1)

    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path != "/api/ws/42" {
            http.NotFound(w, r)
            return
        }
        handshake <- r.Clone(context.Background())

        conn, err := upgrader.Upgrade(w, r, nil)
        if err != nil {
            return
        }
        defer conn.Close()

        env := LivePushEnvelope{
            ID:             3,
            ConversationID: 42,
            SenderID:       7,
            SenderName:     "A",
            Content:        "hi",
            CreatedAt:      time.Now(),
        }
        if err := conn.WriteJSON(env); err != nil {
            return
        }

        _, data, err := conn.ReadMessage()
        if err != nil {
            return
        }
        received <- data
    }))
    defer srv.Close()

    wsBase := "ws" + strings.TrimPrefix(srv.URL, "http")
    dialer := NewWebSocketDialer(wsBase)

    session := NewSession(42, &fakeHistory{}, dialer, fakeCreds{token: "tok-abc", ok: true}, SessionConfig{})
    session.Start(context.Background())
    defer session.Close()

    waitFor(t, 2*time.Second, session.Connected)

    req := <-handshake
    if got := req.URL.Query().Get("token"); got != "tok-abc" {
        t.Fatalf("expected token query param, got %q", got)
    }
    if got := req.URL.Query().Get("clientId"); got != dialer.ClientID() {
        t.Fatalf("expected clientId %q on handshake, got %q", dialer.ClientID(), got)
    }

    waitFor(t, 2*time.Second, func() bool { return len(session.Messages()) == 1 })
    if msg := session.Messages()[0]; msg.ID != 3 || msg.Content != "hi" {
        t.Fatalf("unexpected live message %+v", msg)
    }

    session.Send("over the wire")

    select {
    case data := <-received:
        var frame struct {
            Content string `json:"content"`
        }
        if err := json.Unmarshal(data, &frame); err != nil {
            t.Fatalf("outbound frame is not valid JSON: %v", err)
        }
        if frame.Content != "over the wire" {
            t.Fatalf("unexpected outbound content %q", frame.Content)
        }
    case <-time.After(2 * time.Second):
        t.Fatal("server never received the outbound frame")
    }
}
