package config

import (
    "testing"
    "time"
)

func TestLoadDefaults(t *testing.T) {
    cfg := Load()

    if cfg.APIBaseURL != "http://localhost:8080" {
        t.Fatalf("unexpected API base URL %q", cfg.APIBaseURL)
    }
    if cfg.HistoryLimit != 50 {
        t.Fatalf("unexpected history limit %d", cfg.HistoryLimit)
    }
    if cfg.UnreadPollInterval != 30*time.Second {
        t.Fatalf("unexpected poll interval %v", cfg.UnreadPollInterval)
    }
    if cfg.ReconnectEnabled {
        t.Fatal("reconnect must default to disabled")
    }
    if cfg.SortByTimestamp {
        t.Fatal("timestamp sorting must default to off")
    }
    if err := cfg.Validate(); err != nil {
        t.Fatalf("default config must validate: %v", err)
    }
}

func TestEnvOverrides(t *testing.T) {
    t.Setenv("NEUROHELP_API_URL", "https://api.example.test")
    t.Setenv("CHAT_HISTORY_LIMIT", "25")
    t.Setenv("UNREAD_POLL_INTERVAL", "5s")
    t.Setenv("CHAT_RECONNECT_ENABLED", "true")

    cfg := Load()
    if cfg.APIBaseURL != "https://api.example.test" {
        t.Fatalf("unexpected API base URL %q", cfg.APIBaseURL)
    }
    if cfg.HistoryLimit != 25 {
        t.Fatalf("unexpected history limit %d", cfg.HistoryLimit)
    }
    if cfg.UnreadPollInterval != 5*time.Second {
        t.Fatalf("unexpected poll interval %v", cfg.UnreadPollInterval)
    }
    if !cfg.ReconnectEnabled {
        t.Fatal("expected reconnect enabled")
    }
}

func TestValidateRejectsBadValues(t *testing.T) {
    cases := []struct {
        name   string
        mutate func(*Config)
    }{
        {"empty api url", func(c *Config) { c.APIBaseURL = "" }},
        {"empty ws url", func(c *Config) { c.WSBaseURL = "" }},
        {"empty token file", func(c *Config) { c.TokenFile = "" }},
        {"zero history limit", func(c *Config) { c.HistoryLimit = 0 }},
        {"huge history limit", func(c *Config) { c.HistoryLimit = 500 }},
        {"tiny poll interval", func(c *Config) { c.UnreadPollInterval = time.Millisecond }},
        {"tiny http timeout", func(c *Config) { c.HTTPTimeout = time.Millisecond }},
        {"inverted backoff", func(c *Config) {
            c.ReconnectEnabled = true
            c.ReconnectInitialInterval = time.Minute
            c.ReconnectMaxInterval = time.Second
        }},
    }

    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            cfg := Load()
            tc.mutate(cfg)
            if err := cfg.Validate(); err == nil {
                t.Fatalf("expected validation error for %s", tc.name)
            }
        })
    }
}
