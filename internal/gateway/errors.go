package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any APIError with status 401 via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

const fallbackMessage = "Request failed"

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// TransportError means no response was received at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// errorMessage prefers the server's detail field and falls back to the HTTP
// status phrase when the body is not JSON.
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return statusPhrase(resp)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return statusPhrase(resp)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return fallbackMessage
	}
	raw, err := json.Marshal(obj["detail"])
	if err != nil {
		return fallbackMessage
	}
	if msg := detailText(raw); msg != "" {
		return msg
	}
	return fallbackMessage
}

// detailText accepts a plain string or a list of validation entries with a msg field.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg != "" {
				msgs = append(msgs, e.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func statusPhrase(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return fallbackMessage
}
