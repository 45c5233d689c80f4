package chat

import (
    "context"
    "errors"
    "sync/atomic"
    "testing"
    "time"
)

type fakeUnread struct {
    calls atomic.Int64
    count atomic.Int64
    err   atomic.Bool
}

func (f *fakeUnread) UnreadTotal(ctx context.Context) (int, error) {
    f.calls.Add(1)
    if f.err.Load() {
        return 0, errors.New("fetch failed")
    }
    return int(f.count.Load()), nil
}

func TestPollerFetchesImmediatelyWhenAuthenticated(t *testing.T) {
    api := &fakeUnread{}
    api.count.Store(5)

    poller := NewUnreadPoller(api, time.Hour)
    poller.Start(context.Background())
    defer poller.Stop()

    poller.SetAuthenticated(true)

    waitFor(t, time.Second, func() bool { return poller.Count() == 5 })
    if api.calls.Load() != 1 {
        t.Fatalf("expected a single immediate fetch, got %d", api.calls.Load())
    }
}

func TestPollerAuthGating(t *testing.T) {
    api := &fakeUnread{}
    api.count.Store(3)

    poller := NewUnreadPoller(api, 10*time.Millisecond)
    poller.Start(context.Background())
    defer poller.Stop()

    poller.SetAuthenticated(true)
    waitFor(t, time.Second, func() bool { return poller.Count() == 3 })

    poller.SetAuthenticated(false)

    // The count must drop to 0 immediately, not on the next tick.
    if got := poller.Count(); got != 0 {
        t.Fatalf("expected count 0 right after auth flip, got %d", got)
    }

    // And the ticks that follow must not issue network calls.
    calls := api.calls.Load()
    time.Sleep(60 * time.Millisecond)
    if got := api.calls.Load(); got != calls {
        t.Fatalf("poller kept fetching while unauthenticated: %d -> %d calls", calls, got)
    }
}

func TestPollerKeepsStaleValueOnFailure(t *testing.T) {
    api := &fakeUnread{}
    api.count.Store(7)

    poller := NewUnreadPoller(api, 10*time.Millisecond)
    poller.Start(context.Background())
    defer poller.Stop()

    poller.SetAuthenticated(true)
    waitFor(t, time.Second, func() bool { return poller.Count() == 7 })

    api.err.Store(true)
    calls := api.calls.Load()
    waitFor(t, time.Second, func() bool { return api.calls.Load() > calls+1 })

    if got := poller.Count(); got != 7 {
        t.Fatalf("expected stale value 7 retained across failures, got %d", got)
    }
}

func TestPollerUnauthenticatedFromStart(t *testing.T) {
    api := &fakeUnread{}

    poller := NewUnreadPoller(api, 10*time.Millisecond)
    poller.Start(context.Background())
    defer poller.Stop()

    time.Sleep(50 * time.Millisecond)

    if got := api.calls.Load(); got != 0 {
        t.Fatalf("expected no fetches before authentication, got %d", got)
    }
    if got := poller.Count(); got != 0 {
        t.Fatalf("expected count 0 before authentication, got %d", got)
    }
}
