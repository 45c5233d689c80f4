// internal/api/errors.go

package api

import (
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
)

var ErrUnauthenticated = errors.New("no credential available")

// APIError is a non-2xx response decoded into a value callers can inspect.
type APIError struct {
    StatusCode int
    Message    string
}

func (e *APIError) Error() string {
    if e.Message == "" {
        return fmt.Sprintf("api: status %d", e.StatusCode)
    }
    return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// errorBody is the server's error envelope. Some endpoints use "error",
// older ones "message"; both are accepted.
type errorBody struct {
    Error   string `json:"error"`
    Message string `json:"message"`
}

func decodeAPIError(resp *http.Response) error {
    apiErr := &APIError{StatusCode: resp.StatusCode}

    data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
    if err != nil {
        return apiErr
    }

    var body errorBody
    if err := json.Unmarshal(data, &body); err == nil {
        if body.Error != "" {
            apiErr.Message = body.Error
        } else {
            apiErr.Message = body.Message
        }
    }
    return apiErr
}
