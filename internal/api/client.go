// internal/api/client.go

package api

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "log"
    "net/http"
    "net/url"
    "strings"
    "time"
)

// DefaultTimeout bounds every REST call. The web client relied on browser
// defaults; an explicit bound is the floor-raising fix here.
const DefaultTimeout = 15 * time.Second

// CredentialStore is what the client needs from credential storage: a token
// for each request and a way to drop it when the server rejects it.
type CredentialStore interface {
    Token() (string, bool)
    Clear() error
}

// Client talks to the NeuroHelp REST API with bearer authentication.
type Client struct {
    baseURL string
    httpc   *http.Client
    creds   CredentialStore
}

// NewClient builds a REST client for the given base URL. timeout <= 0 falls
// back to DefaultTimeout.
func NewClient(baseURL string, creds CredentialStore, timeout time.Duration) *Client {
    if timeout <= 0 {
        timeout = DefaultTimeout
    }
    return &Client{
        baseURL: strings.TrimRight(baseURL, "/"),
        httpc:   &http.Client{Timeout: timeout},
        creds:   creds,
    }
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
    endpoint := c.baseURL + path
    if len(query) > 0 {
        endpoint += "?" + query.Encode()
    }

    var reader io.Reader
    if body != nil {
        data, err := json.Marshal(body)
        if err != nil {
            return fmt.Errorf("encode request body: %w", err)
        }
        reader = bytes.NewReader(data)
    }

    req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
    if err != nil {
        return fmt.Errorf("build request: %w", err)
    }
    if body != nil {
        req.Header.Set("Content-Type", "application/json")
    }

    token, ok := c.creds.Token()
    if !ok {
        return ErrUnauthenticated
    }
    req.Header.Set("Authorization", "Bearer "+token)

    resp, err := c.httpc.Do(req)
    if err != nil {
        return fmt.Errorf("%s %s: %w", method, path, err)
    }
    defer resp.Body.Close()

    if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
        // Same policy as the web app: a rejected credential is dropped so
        // the next run starts logged out instead of looping on 401s.
        if err := c.creds.Clear(); err != nil {
            log.Printf("clearing rejected credential: %v", err)
        }
        return decodeAPIError(resp)
    }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return decodeAPIError(resp)
    }

    if out == nil {
        return nil
    }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        return fmt.Errorf("decode %s %s response: %w", method, path, err)
    }
    return nil
}
