// cmd/chat/main.go
// Terminal client for the NeuroHelp chat platform
// This file bootstraps all components and dispatches subcommands

package main

import (
    "bufio"
    "context"
    "flag"
    "fmt"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gorilla/mux"
    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/neurohelp/chat-client/internal/api"
    "github.com/neurohelp/chat-client/internal/chat"
    "github.com/neurohelp/chat-client/internal/config"
    "github.com/neurohelp/chat-client/internal/credentials"
)

func main() {
    log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

    // 1. Load environment variables
    if err := godotenv.Load(); err != nil {
        log.Printf("No .env file found (%v), using environment variables", err)
    }

    // 2. Load and validate configuration
    cfg := config.Load()
    if err := cfg.Validate(); err != nil {
        log.Fatal("Configuration validation failed: ", err)
    }

    // 3. Credential store
    store := credentials.NewStore(cfg.TokenFile)
    if err := store.Load(); err != nil && err != credentials.ErrNoToken {
        log.Fatal("Failed to load credentials: ", err)
    }

    // 4. REST client
    client := api.NewClient(cfg.APIBaseURL, store, cfg.HTTPTimeout)

    // 5. Optional metrics/debug listener
    if cfg.MetricsAddr != "" {
        go serveMetrics(cfg.MetricsAddr)
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    if len(os.Args) < 2 {
        usage()
        os.Exit(2)
    }

    var err error
    switch os.Args[1] {
    case "login":
        err = runLogin(store, os.Args[2:])
    case "logout":
        err = store.Clear()
    case "list":
        err = runList(ctx, client, store)
    case "start":
        err = runStart(ctx, client, os.Args[2:])
    case "open":
        err = runOpen(ctx, cfg, client, store, os.Args[2:])
    case "unread":
        err = runUnread(ctx, cfg, client, store)
    default:
        usage()
        os.Exit(2)
    }

    if err != nil {
        log.Fatal(err)
    }
}

func usage() {
    fmt.Fprintln(os.Stderr, `Usage: chat <command> [flags]

Commands:
  login -token <jwt>        store a session token
  logout                    forget the stored token
  list                      list your conversations
  start -psychologist <id>  start a conversation with a psychologist
  open -conversation <id>   open a conversation (interactive)
  unread                    watch your total unread count`)
}

func serveMetrics(addr string) {
    router := mux.NewRouter()
    router.Handle("/metrics", promhttp.Handler())
    router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        w.Write([]byte("ok"))
    })

    log.Printf("Metrics listening on %s", addr)
    if err := http.ListenAndServe(addr, router); err != nil {
        log.Printf("Metrics listener stopped: %v", err)
    }
}

func runLogin(store *credentials.Store, args []string) error {
    fs := flag.NewFlagSet("login", flag.ExitOnError)
    token := fs.String("token", "", "session token issued by the NeuroHelp API")
    fs.Parse(args)

    if *token == "" {
        return fmt.Errorf("login: -token is required")
    }
    if err := store.Save(*token); err != nil {
        return err
    }
    fmt.Println("Token stored.")
    return nil
}

func runList(ctx context.Context, client *api.Client, store *credentials.Store) error {
    viewerID, ok := store.UserID()
    if !ok {
        return fmt.Errorf("not logged in (run: chat login -token <jwt>)")
    }

    list := chat.NewConversationList(client, viewerID)
    if err := list.Load(ctx); err != nil {
        return err
    }

    conversations := list.All()
    if len(conversations) == 0 {
        fmt.Println("No conversations yet.")
        return nil
    }

    for _, conv := range conversations {
        peer := conv.Peer(viewerID)
        last := "never"
        if conv.LastMessageAt != nil {
            last = conv.LastMessageAt.Local().Format("2006-01-02 15:04")
        }
        fmt.Printf("#%-6d %-24s unread:%-4d last message: %s\n", conv.ID, peer.Name, conv.UnreadCount, last)
    }
    fmt.Printf("\nTotal unread: %d\n", list.TotalUnread())
    return nil
}

func runStart(ctx context.Context, client *api.Client, args []string) error {
    fs := flag.NewFlagSet("start", flag.ExitOnError)
    psychologistID := fs.Int64("psychologist", 0, "psychologist user id")
    fs.Parse(args)

    conv, err := client.StartConversation(ctx, &api.StartConversationRequest{
        PsychologistID: *psychologistID,
    })
    if err != nil {
        return err
    }
    fmt.Printf("Conversation #%d with %s ready.\n", conv.ID, conv.Psychologist.Name)
    return nil
}

func runOpen(ctx context.Context, cfg *config.Config, client *api.Client, store *credentials.Store, args []string) error {
    fs := flag.NewFlagSet("open", flag.ExitOnError)
    conversationID := fs.Int64("conversation", 0, "conversation id")
    fs.Parse(args)

    if *conversationID <= 0 {
        return fmt.Errorf("open: -conversation must be a positive id")
    }

    viewerID, ok := store.UserID()
    if !ok {
        return fmt.Errorf("not logged in (run: chat login -token <jwt>)")
    }

    // Resolve the other participant for the header, like the room screen did.
    list := chat.NewConversationList(client, viewerID)
    if err := list.Load(ctx); err != nil {
        return err
    }
    peer, found := list.Peer(*conversationID)
    if !found {
        return fmt.Errorf("conversation %d not found", *conversationID)
    }
    fmt.Printf("-- Chat with %s (conversation #%d) --\n", peer.Name, *conversationID)

    session := chat.NewSession(*conversationID, client, chat.NewWebSocketDialer(cfg.WSBaseURL), store, chat.SessionConfig{
        HistoryLimit:    cfg.HistoryLimit,
        SortByTimestamp: cfg.SortByTimestamp,
        Reconnect: chat.ReconnectPolicy{
            Enabled:         cfg.ReconnectEnabled,
            InitialInterval: cfg.ReconnectInitialInterval,
            MaxInterval:     cfg.ReconnectMaxInterval,
            MaxAttempts:     cfg.ReconnectMaxAttempts,
        },
    })
    session.Start(ctx)
    defer session.Close()

    // Opening the room resets the unread counter, same as the web client.
    if err := client.MarkConversationRead(ctx, *conversationID); err != nil {
        log.Printf("mark read failed: %v", err)
    }

    go renderEvents(session, viewerID, peer.Name)

    scanner := bufio.NewScanner(os.Stdin)
    lines := make(chan string)
    go func() {
        defer close(lines)
        for scanner.Scan() {
            lines <- scanner.Text()
        }
    }()

    for {
        select {
        case <-ctx.Done():
            fmt.Println("\nLeaving conversation.")
            return nil
        case line, open := <-lines:
            if !open {
                return nil
            }
            session.Send(line)
        }
    }
}

func renderEvents(session *chat.Session, viewerID int64, peerName string) {
    for ev := range session.Events() {
        switch ev.Kind {
        case chat.EventHistoryLoaded:
            for _, msg := range session.Messages() {
                printMessage(msg, viewerID, peerName)
            }
        case chat.EventMessage:
            printMessage(*ev.Message, viewerID, peerName)
        case chat.EventConnected:
            fmt.Println("[connected]")
        case chat.EventDisconnected:
            fmt.Println("[disconnected - messages cannot be sent]")
        }
    }
}

func printMessage(msg chat.Message, viewerID int64, peerName string) {
    name := peerName
    if msg.SenderID == viewerID {
        name = "you"
    } else if msg.Sender != nil && msg.Sender.Name != "" {
        name = msg.Sender.Name
    }
    fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Local().Format("15:04"), name, msg.Content)
}

func runUnread(ctx context.Context, cfg *config.Config, client *api.Client, store *credentials.Store) error {
    _, authed := store.Token()
    if !authed {
        return fmt.Errorf("not logged in (run: chat login -token <jwt>)")
    }

    poller := chat.NewUnreadPoller(client, cfg.UnreadPollInterval)
    poller.Start(ctx)
    defer poller.Stop()
    poller.SetAuthenticated(true)

    ticker := time.NewTicker(time.Second)
    defer ticker.Stop()

    last := -1
    for {
        select {
        case <-ctx.Done():
            return nil
        case <-ticker.C:
            if count := poller.Count(); count != last {
                fmt.Printf("Unread messages: %d\n", count)
                last = count
            }
        }
    }
}
