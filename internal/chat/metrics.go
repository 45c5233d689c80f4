// internal/chat/metrics.go

package chat

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    messagesReceived = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "chat_messages_received_total",
            Help: "Messages applied to a session log, by source",
        },
        []string{"source"}, // "history" or "live"
    )

    duplicatesDropped = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "chat_duplicate_messages_dropped_total",
            Help: "Live messages discarded because the id was already present",
        },
    )

    malformedFrames = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "chat_malformed_frames_total",
            Help: "Inbound live frames that failed to parse",
        },
    )

    messagesSent = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "chat_messages_sent_total",
            Help: "Outbound frames written to the live channel",
        },
    )

    sendsBlocked = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "chat_sends_blocked_total",
            Help: "Send calls dropped by gating",
        },
        []string{"reason"}, // "disconnected" or "empty"
    )

    reconnectAttempts = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "chat_reconnect_attempts_total",
            Help: "Reconnect dials made after a dropped connection",
        },
    )

    connectionState = promauto.NewGauge(
        prometheus.GaugeOpts{
            Name: "chat_connection_state",
            Help: "1 while the live channel is open, 0 otherwise",
        },
    )

    unreadPollFailures = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "chat_unread_poll_failures_total",
            Help: "Unread-count fetches that failed (stale value retained)",
        },
    )
)
