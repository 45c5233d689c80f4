// internal/chat/reconcile.go

package chat

import (
    "sort"
    "sync"
)

// messageLog is the reconciled view of one conversation: the history batch
// and live pushes merged into a single duplicate-free sequence. History and
// live delivery can race, so every mutation goes through the same id check.
type messageLog struct {
    mu         sync.RWMutex
    messages   []Message
    seen       map[int64]struct{}
    sortByTime bool
}

func newMessageLog(sortByTime bool) *messageLog {
    return &messageLog{
        seen:       make(map[int64]struct{}),
        sortByTime: sortByTime,
    }
}

// replaceHistory applies a history batch atomically. Live messages that
// arrived before the batch are kept; batch entries duplicating them are
// dropped, so each id still appears exactly once.
func (l *messageLog) replaceHistory(batch []Message) {
    l.mu.Lock()
    defer l.mu.Unlock()

    merged := make([]Message, 0, len(batch)+len(l.messages))
    seen := make(map[int64]struct{}, len(batch)+len(l.messages))

    for _, msg := range batch {
        if _, dup := seen[msg.ID]; dup {
            continue
        }
        seen[msg.ID] = struct{}{}
        merged = append(merged, msg)
    }
    for _, msg := range l.messages {
        if _, dup := seen[msg.ID]; dup {
            continue
        }
        seen[msg.ID] = struct{}{}
        merged = append(merged, msg)
    }

    l.messages = merged
    l.seen = seen
    l.resort()
}

// append adds one live message. Returns false when the id was already
// present (history overlap or live redelivery) and the message was dropped.
func (l *messageLog) append(msg Message) bool {
    l.mu.Lock()
    defer l.mu.Unlock()

    if _, dup := l.seen[msg.ID]; dup {
        return false
    }
    l.seen[msg.ID] = struct{}{}
    l.messages = append(l.messages, msg)
    l.resort()
    return true
}

// resort is a no-op in arrival-order mode. Callers hold l.mu.
func (l *messageLog) resort() {
    if !l.sortByTime {
        return
    }
    sort.SliceStable(l.messages, func(i, j int) bool {
        return l.messages[i].CreatedAt.Before(l.messages[j].CreatedAt)
    })
}

// snapshot returns a copy safe to hand to callers.
func (l *messageLog) snapshot() []Message {
    l.mu.RLock()
    defer l.mu.RUnlock()

    out := make([]Message, len(l.messages))
    copy(out, l.messages)
    return out
}

func (l *messageLog) len() int {
    l.mu.RLock()
    defer l.mu.RUnlock()
    return len(l.messages)
}
