// internal/chat/conversations.go

package chat

import (
    "context"
    "fmt"
)

// ConversationFetcher is the slice of the REST client the loader needs.
type ConversationFetcher interface {
    ListConversations(ctx context.Context) ([]Conversation, error)
}

// ConversationList is a one-shot, whole-list view of the viewer's
// conversations. No cache and no pagination: every screen that needs the
// list refetches it in full, exactly like the web client did.
type ConversationList struct {
    api      ConversationFetcher
    viewerID int64

    conversations []Conversation
}

// NewConversationList builds a loader for the given viewer.
func NewConversationList(api ConversationFetcher, viewerID int64) *ConversationList {
    return &ConversationList{api: api, viewerID: viewerID}
}

// Load replaces the list wholesale. Failure leaves the previous contents
// untouched and surfaces to the caller as a page-level error.
func (l *ConversationList) Load(ctx context.Context) error {
    conversations, err := l.api.ListConversations(ctx)
    if err != nil {
        return fmt.Errorf("load conversations: %w", err)
    }
    l.conversations = conversations
    return nil
}

// All returns the loaded conversations.
func (l *ConversationList) All() []Conversation {
    return l.conversations
}

// Get returns the conversation with the given id.
func (l *ConversationList) Get(conversationID int64) (*Conversation, bool) {
    for i := range l.conversations {
        if l.conversations[i].ID == conversationID {
            return &l.conversations[i], true
        }
    }
    return nil, false
}

// Peer resolves the other participant of a conversation for the chat room
// header. ok is false when the conversation is not in the loaded list.
func (l *ConversationList) Peer(conversationID int64) (UserSnippet, bool) {
    conv, ok := l.Get(conversationID)
    if !ok {
        return UserSnippet{}, false
    }
    return conv.Peer(l.viewerID), true
}

// TotalUnread sums the per-conversation unread counters in the loaded list.
// The live badge uses the poller; this is the list screen's local sum.
func (l *ConversationList) TotalUnread() int {
    total := 0
    for i := range l.conversations {
        total += l.conversations[i].UnreadCount
    }
    return total
}
