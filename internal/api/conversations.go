// internal/api/conversations.go

package api

import (
    "context"
    "fmt"
    "net/http"
    "net/url"
    "strconv"

    "github.com/neurohelp/chat-client/internal/chat"
    "github.com/neurohelp/chat-client/internal/common/utils"
)

// StartConversationRequest opens (or reuses) the viewer's conversation with
// a psychologist. The server guarantees one live conversation per pair.
type StartConversationRequest struct {
    PsychologistID int64 `json:"psychologistId" validate:"required,gt=0"`
}

// ListConversations fetches all of the viewer's conversations.
func (c *Client) ListConversations(ctx context.Context) ([]chat.Conversation, error) {
    var conversations []chat.Conversation
    if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, nil, &conversations); err != nil {
        return nil, err
    }
    return conversations, nil
}

// UnreadTotal fetches the viewer's aggregate unread count.
func (c *Client) UnreadTotal(ctx context.Context) (int, error) {
    var out struct {
        Count int `json:"count"`
    }
    if err := c.do(ctx, http.MethodGet, "/api/conversations/unread", nil, nil, &out); err != nil {
        return 0, err
    }
    return out.Count, nil
}

// MessageHistory fetches up to limit messages at the given offset, oldest to
// newest as the server orders them.
func (c *Client) MessageHistory(ctx context.Context, conversationID int64, limit, offset int) ([]chat.Message, error) {
    query := url.Values{}
    query.Set("limit", strconv.Itoa(limit))
    query.Set("offset", strconv.Itoa(offset))

    var messages []chat.Message
    path := fmt.Sprintf("/api/conversations/%d/messages", conversationID)
    if err := c.do(ctx, http.MethodGet, path, query, nil, &messages); err != nil {
        return nil, err
    }
    return messages, nil
}

// StartConversation creates the conversation with a psychologist, or returns
// the existing one for the pair.
func (c *Client) StartConversation(ctx context.Context, req *StartConversationRequest) (*chat.Conversation, error) {
    if err := utils.ValidateStruct(req); err != nil {
        return nil, err
    }

    var conversation chat.Conversation
    if err := c.do(ctx, http.MethodPost, "/api/conversations", nil, req, &conversation); err != nil {
        return nil, err
    }
    return &conversation, nil
}

// MarkConversationRead zeroes the viewer's unread counter for one
// conversation. The web client fired this on opening a chat room.
func (c *Client) MarkConversationRead(ctx context.Context, conversationID int64) error {
    path := fmt.Sprintf("/api/conversations/%d/read", conversationID)
    return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}
