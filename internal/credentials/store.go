// internal/credentials/store.go
// File-backed bearer token storage, the CLI's stand-in for the web
// client's localStorage entry.

package credentials

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/golang-jwt/jwt/v4"
)

// ErrNoToken is returned by Load when no token file exists yet.
var ErrNoToken = errors.New("no stored credential")

// Store holds the session token and persists it to a single file. It is
// injected into the REST client and chat session at construction; nothing
// reads ambient state.
type Store struct {
    path string

    mu    sync.RWMutex
    token string
}

// NewStore builds a store persisting to the given file path.
func NewStore(path string) *Store {
    return &Store{path: path}
}

// Load reads the token file into memory. A missing file is ErrNoToken.
func (s *Store) Load() error {
    data, err := os.ReadFile(s.path)
    if err != nil {
        if os.IsNotExist(err) {
            return ErrNoToken
        }
        return fmt.Errorf("read credential file: %w", err)
    }

    s.mu.Lock()
    s.token = strings.TrimSpace(string(data))
    s.mu.Unlock()
    return nil
}

// Save stores the token in memory and on disk, owner-readable only.
func (s *Store) Save(token string) error {
    token = strings.TrimSpace(token)

    if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
        return fmt.Errorf("create credential dir: %w", err)
    }
    if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
        return fmt.Errorf("write credential file: %w", err)
    }

    s.mu.Lock()
    s.token = token
    s.mu.Unlock()
    return nil
}

// Clear wipes the token from memory and disk. The REST client calls this on
// 401/403, same as the web app dropping its localStorage entry.
func (s *Store) Clear() error {
    s.mu.Lock()
    s.token = ""
    s.mu.Unlock()

    if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
        return fmt.Errorf("remove credential file: %w", err)
    }
    return nil
}

// Token returns the stored credential. ok is false when nothing is stored
// or the token carries an exp claim that has passed.
func (s *Store) Token() (string, bool) {
    s.mu.RLock()
    token := s.token
    s.mu.RUnlock()

    if token == "" {
        return "", false
    }
    if expired(token) {
        return "", false
    }
    return token, true
}

// UserID extracts the viewer id from the token's user_id claim. The server
// issues it as a string; older tokens carried a number, so both are accepted.
func (s *Store) UserID() (int64, bool) {
    token, ok := s.Token()
    if !ok {
        return 0, false
    }

    claims := jwt.MapClaims{}
    if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
        return 0, false
    }

    switch v := claims["user_id"].(type) {
    case string:
        id, err := strconv.ParseInt(v, 10, 64)
        if err != nil || id <= 0 {
            return 0, false
        }
        return id, true
    case float64:
        if v <= 0 {
            return 0, false
        }
        return int64(v), true
    }
    return 0, false
}

// expired inspects the exp claim without verifying the signature; the
// client holds no signing secret. Tokens that are not JWTs or carry no exp
// are treated as usable and left for the server to reject.
func expired(token string) bool {
    claims := jwt.MapClaims{}
    parser := jwt.NewParser()
    if _, _, err := parser.ParseUnverified(token, claims); err != nil {
        return false
    }

    exp, ok := claims["exp"].(float64)
    if !ok {
        return false
    }
    return time.Now().After(time.Unix(int64(exp), 0))
}
