package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/camuig/trader-console/internal/logger"
)

func init() {
	// The backend expects numbers, not quoted decimals.
	decimal.MarshalJSONWithoutQuotes = true
}

// Session is the credential source the client reads on every request.
type Session interface {
	Token() string
	Clear()
}

// Client is a thin JSON round-tripper over the backend API. It never retries,
// never times out on its own and never caches.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	logger     *logger.Logger
}

func NewClient(baseURL string, httpClient *http.Client, sess Session, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    sess,
		logger:     log,
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON; a nil body sends no payload at all.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.failure(resp)
	}
	if out == nil {
		return nil
	}

	if err := decodeBody(resp, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeBody treats an empty body as "nothing to decode".
func decodeBody(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// send attaches the credential and correlation id and performs the round trip.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend call failed", "method", req.Method, "path", req.URL.Path, "request_id", requestID, "error", err)
		return nil, &TransportError{Err: err}
	}

	c.logger.Debug("backend call", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "request_id", requestID)
	return resp, nil
}

func (c *Client) failure(resp *http.Response) error {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: errorMessage(resp),
	}
	if resp.StatusCode == http.StatusUnauthorized && c.session != nil {
		c.session.Clear()
	}
	return apiErr
}
