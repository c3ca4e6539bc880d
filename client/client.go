// Package client is a typed consumer of the chat backend's HTTP API. It holds
// the client side of a session: the cookie delivered at login and the public
// profile derived from server responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/rpineda/aichat-be/internal/models"
)

// Profile is the subset of an account the server exposes.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status int
	Cause  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Cause)
}

// Client talks to the backend and tracks session state. The session token
// travels in the httpOnly cookie managed by the jar; SetBearerToken switches
// to header transport instead.
type Client struct {
	baseURL string
	hc      *http.Client
	bearer  string
	profile *Profile
}

// New creates a Client for the backend at baseURL.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Jar: jar, Timeout: 90 * time.Second},
	}, nil
}

// SetBearerToken makes the client authenticate with an Authorization header
// instead of the session cookie.
func (c *Client) SetBearerToken(token string) { c.bearer = token }

// LoggedIn reports whether the client currently holds an authenticated
// session.
func (c *Client) LoggedIn() bool { return c.profile != nil }

// Profile returns the profile from the last successful signup, login or
// auth-status call, or nil when logged out.
func (c *Client) Profile() *Profile { return c.profile }

// Signup registers a new account and starts a session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodPost, "/user/signup",
		map[string]string{"name": name, "email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.profile = &out
	return &out, nil
}

// Login authenticates with existing credentials and starts a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodPost, "/user/login",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.profile = &out
	return &out, nil
}

// AuthStatus asks the server whether the held session is still valid and
// refreshes the profile. On an unauthorized answer the local session state is
// cleared.
func (c *Client) AuthStatus(ctx context.Context) (*Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodGet, "/user/auth-status", nil, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			c.profile = nil
		}
		return nil, err
	}
	c.profile = &out
	return &out, nil
}

// Logout ends the session. Local state is cleared even if the server call
// fails, matching the stateless-session design.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/user/logout", nil, nil)
	c.profile = nil
	c.bearer = ""
	return err
}

// NewChat submits a message and returns the full updated chat history,
// ending with the user turn and the assistant's reply.
func (c *Client) NewChat(ctx context.Context, message string) ([]models.Message, error) {
	var out struct {
		Chats []models.Message `json:"chats"`
	}
	err := c.do(ctx, http.MethodPost, "/chat/new", map[string]string{"message": message}, &out)
	if err != nil {
		return nil, err
	}
	return out.Chats, nil
}

// AllChats returns the stored chat history.
func (c *Client) AllChats(ctx context.Context) ([]models.Message, error) {
	var out struct {
		Chats []models.Message `json:"chats"`
	}
	err := c.do(ctx, http.MethodGet, "/chat/all-chats", nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Chats, nil
}

// DeleteChats clears the stored chat history.
func (c *Client) DeleteChats(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/chat/delete", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Cause string `json:"cause"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{Status: resp.StatusCode, Cause: errBody.Cause}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}
