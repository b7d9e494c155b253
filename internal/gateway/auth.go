package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Login exchanges form-encoded credentials for a bearer token. It does not
// touch the session; the caller decides where the token goes.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	var out LoginResponse
	if err := decodeBody(resp, &out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access_token")
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{
		"current_password": current,
		"new_password":     next,
	}
	return c.Post(ctx, "/api/auth/change-password", body, nil)
}
