// internal/chat/unread.go

package chat

import (
    "context"
    "log"
    "sync"
    "time"
)

// DefaultUnreadPollInterval matches the badge refresh cadence of the web client.
const DefaultUnreadPollInterval = 30 * time.Second

// UnreadFetcher is the slice of the REST client the poller needs.
type UnreadFetcher interface {
    UnreadTotal(ctx context.Context) (int, error)
}

// UnreadPoller keeps the viewer's total unread count fresh on a fixed
// schedule. While unauthenticated the count is pinned to 0 and no network
// calls happen. Fetch failures keep the previous value (stale beats empty
// for a badge).
type UnreadPoller struct {
    api      UnreadFetcher
    interval time.Duration

    mu     sync.RWMutex
    count  int
    authed bool

    refresh chan struct{}
    cancel  context.CancelFunc
    wg      sync.WaitGroup
    once    sync.Once
}

// NewUnreadPoller builds a poller. interval <= 0 falls back to the default.
func NewUnreadPoller(api UnreadFetcher, interval time.Duration) *UnreadPoller {
    if interval <= 0 {
        interval = DefaultUnreadPollInterval
    }
    return &UnreadPoller{
        api:      api,
        interval: interval,
        refresh:  make(chan struct{}, 1),
    }
}

// Start launches the poll loop. No fetch happens until SetAuthenticated(true).
func (p *UnreadPoller) Start(ctx context.Context) {
    ctx, p.cancel = context.WithCancel(ctx)

    p.wg.Add(1)
    go func() {
        defer p.wg.Done()
        p.run(ctx)
    }()
}

// Stop halts polling and waits for the loop to exit.
func (p *UnreadPoller) Stop() {
    p.once.Do(func() {
        if p.cancel != nil {
            p.cancel()
        }
        p.wg.Wait()
    })
}

// Count returns the last known unread total, or 0 while unauthenticated.
func (p *UnreadPoller) Count() int {
    p.mu.RLock()
    defer p.mu.RUnlock()
    return p.count
}

// SetAuthenticated flips the auth gate. Turning it on triggers an immediate
// fetch; turning it off zeroes the count right away, not on the next tick.
func (p *UnreadPoller) SetAuthenticated(authed bool) {
    p.mu.Lock()
    p.authed = authed
    if !authed {
        p.count = 0
    }
    p.mu.Unlock()

    if authed {
        select {
        case p.refresh <- struct{}{}:
        default:
        }
    }
}

func (p *UnreadPoller) authenticated() bool {
    p.mu.RLock()
    defer p.mu.RUnlock()
    return p.authed
}

func (p *UnreadPoller) run(ctx context.Context) {
    ticker := time.NewTicker(p.interval)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return
        case <-p.refresh:
            p.fetch(ctx)
        case <-ticker.C:
            if p.authenticated() {
                p.fetch(ctx)
            }
        }
    }
}

func (p *UnreadPoller) fetch(ctx context.Context) {
    count, err := p.api.UnreadTotal(ctx)
    if err != nil {
        unreadPollFailures.Inc()
        log.Printf("unread poll failed: %v", err)
        return
    }

    p.mu.Lock()
    // Auth may have flipped off while the fetch was in flight.
    if p.authed {
        p.count = count
    }
    p.mu.Unlock()
}
