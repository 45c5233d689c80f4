// internal/chat/models.go

package chat

import (
    "encoding/json"
    "time"
)

// UserSnippet is the denormalized participant info the server attaches to
// conversations and messages (enough to render a name and avatar).
type UserSnippet struct {
    ID        int64  `json:"id"`
    Name      string `json:"name"`
    AvatarURL string `json:"avatarUrl,omitempty"`
}

// Conversation pairs exactly one client with one psychologist. The server
// enforces uniqueness per pair; this client only consumes it.
type Conversation struct {
    ID             int64       `json:"id"`
    ClientID       int64       `json:"clientId"`
    PsychologistID int64       `json:"psychologistId"`
    Client         UserSnippet `json:"client"`
    Psychologist   UserSnippet `json:"psychologist"`
    LastMessageAt  *time.Time  `json:"lastMessageAt,omitempty"`
    CreatedAt      time.Time   `json:"createdAt"`
    UnreadCount    int         `json:"unreadCount"`
}

// Peer returns the participant snippet for the side the viewer is not on.
func (c *Conversation) Peer(viewerID int64) UserSnippet {
    if c.ClientID == viewerID {
        return c.Psychologist
    }
    return c.Client
}

// Message is the REST shape of a chat message.
type Message struct {
    ID             int64        `json:"id"`
    ConversationID int64        `json:"conversationId"`
    SenderID       int64        `json:"senderId"`
    Sender         *UserSnippet `json:"sender,omitempty"`
    Content        string       `json:"content"`
    IsRead         bool         `json:"isRead"`
    CreatedAt      time.Time    `json:"createdAt"`
}

// LivePushEnvelope is the narrower shape delivered over the live channel.
// It carries a bare sender name instead of a full snippet and no read flag.
type LivePushEnvelope struct {
    ID             int64     `json:"id"`
    ConversationID int64     `json:"conversationId"`
    SenderID       int64     `json:"senderId"`
    SenderName     string    `json:"senderName"`
    Content        string    `json:"content"`
    CreatedAt      time.Time `json:"createdAt"`
}

// Normalize converts a live envelope into the REST Message shape. A live
// message is by definition unread for the receiving viewer.
func (e LivePushEnvelope) Normalize() Message {
    return Message{
        ID:             e.ID,
        ConversationID: e.ConversationID,
        SenderID:       e.SenderID,
        Sender:         &UserSnippet{ID: e.SenderID, Name: e.SenderName},
        Content:        e.Content,
        IsRead:         false,
        CreatedAt:      e.CreatedAt,
    }
}

// ParseEnvelope decodes a raw live frame. Frames that do not carry a message
// id are treated as malformed; the live channel has no other frame types.
func ParseEnvelope(data []byte) (LivePushEnvelope, error) {
    var env LivePushEnvelope
    if err := json.Unmarshal(data, &env); err != nil {
        return LivePushEnvelope{}, err
    }
    if env.ID == 0 {
        return LivePushEnvelope{}, ErrMalformedFrame
    }
    return env, nil
}

// outboundFrame is the only shape this client writes to the live channel.
type outboundFrame struct {
    Content string `json:"content"`
}
