package chat

import (
    "testing"
    "time"
)

func buildMessage(id int64, createdAt time.Time) Message {
    return Message{
        ID:             id,
        ConversationID: 42,
        SenderID:       7,
        Content:        "hello",
        CreatedAt:      createdAt,
    }
}

func TestMergeIsIdempotentAcrossSources(t *testing.T) {
    log := newMessageLog(false)
    now := time.Now()

    log.replaceHistory([]Message{buildMessage(1, now), buildMessage(2, now)})

    // Same ids redelivered live, plus one genuinely new message.
    if log.append(buildMessage(1, now)) {
        t.Fatal("expected live redelivery of id 1 to be dropped")
    }
    if log.append(buildMessage(2, now)) {
        t.Fatal("expected live redelivery of id 2 to be dropped")
    }
    if !log.append(buildMessage(3, now)) {
        t.Fatal("expected id 3 to be appended")
    }

    if got := log.len(); got != 3 {
        t.Fatalf("expected 3 messages, got %d", got)
    }

    seen := map[int64]int{}
    for _, msg := range log.snapshot() {
        seen[msg.ID]++
    }
    for id, count := range seen {
        if count != 1 {
            t.Fatalf("id %d appears %d times", id, count)
        }
    }
}

func TestHistoryThenLiveComposition(t *testing.T) {
    log := newMessageLog(false)
    now := time.Now()

    batch := make([]Message, 0, 5)
    for id := int64(1); id <= 5; id++ {
        batch = append(batch, buildMessage(id, now))
    }
    log.replaceHistory(batch)

    if !log.append(buildMessage(6, now)) {
        t.Fatal("expected live message 6 to be appended")
    }

    messages := log.snapshot()
    if len(messages) != 6 {
        t.Fatalf("expected 6 messages, got %d", len(messages))
    }
    if messages[5].ID != 6 {
        t.Fatalf("expected live message last, got id %d", messages[5].ID)
    }
}

func TestDuplicateLiveDeliveryLeavesLengthUnchanged(t *testing.T) {
    log := newMessageLog(false)
    now := time.Now()

    if !log.append(buildMessage(10, now)) {
        t.Fatal("first delivery should be appended")
    }
    before := log.len()

    if log.append(buildMessage(10, now)) {
        t.Fatal("second delivery of the same id should be dropped")
    }
    if got := log.len(); got != before {
        t.Fatalf("length changed from %d to %d on duplicate delivery", before, got)
    }
}

func TestHistoryKeepsEarlierLiveArrivals(t *testing.T) {
    log := newMessageLog(false)
    now := time.Now()

    // Live messages can land before the history response resolves.
    log.append(buildMessage(3, now))
    log.append(buildMessage(4, now))

    log.replaceHistory([]Message{buildMessage(1, now), buildMessage(2, now), buildMessage(3, now)})

    messages := log.snapshot()
    if len(messages) != 4 {
        t.Fatalf("expected 4 messages after merge, got %d", len(messages))
    }
    seen := map[int64]bool{}
    for _, msg := range messages {
        if seen[msg.ID] {
            t.Fatalf("id %d duplicated after history merge", msg.ID)
        }
        seen[msg.ID] = true
    }
}

func TestSortByTimestampReorders(t *testing.T) {
    log := newMessageLog(true)
    base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

    log.append(buildMessage(2, base.Add(2*time.Minute)))
    log.append(buildMessage(1, base.Add(1*time.Minute)))
    log.replaceHistory([]Message{buildMessage(3, base.Add(3 * time.Minute))})

    messages := log.snapshot()
    want := []int64{1, 2, 3}
    for i, id := range want {
        if messages[i].ID != id {
            t.Fatalf("position %d: expected id %d, got %d", i, id, messages[i].ID)
        }
    }
}

func TestArrivalOrderIsDefault(t *testing.T) {
    log := newMessageLog(false)
    base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

    // Later timestamp arrives first; arrival order must win by default.
    log.append(buildMessage(2, base.Add(2*time.Minute)))
    log.append(buildMessage(1, base.Add(1*time.Minute)))

    messages := log.snapshot()
    if messages[0].ID != 2 || messages[1].ID != 1 {
        t.Fatalf("expected arrival order [2 1], got [%d %d]", messages[0].ID, messages[1].ID)
    }
}
