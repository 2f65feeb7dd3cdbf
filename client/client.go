package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	ba "github.com/panyam/blogauth"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: HTTP %d", e.Status)
	}
	return fmt.Sprintf("request failed: HTTP %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// AuthClient calls the blogauth HTTP API and remembers the access token
// from the last successful signup or signin.
type AuthClient struct {
	mu            sync.RWMutex
	serverURL     string
	httpClient    *http.Client
	baseTransport http.RoundTripper
	session       *ba.AuthResponse
}

// ClientOption configures an AuthClient
type ClientOption func(*AuthClient)

// WithHTTPClient sets a custom base HTTP client (for timeouts, TLS config, etc.)
// The transport from this client will be wrapped with auth handling.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *AuthClient) {
		if client == nil {
			return
		}
		if client.Transport != nil {
			c.baseTransport = client.Transport
		}
		c.httpClient.Timeout = client.Timeout
		c.httpClient.CheckRedirect = client.CheckRedirect
		c.httpClient.Jar = client.Jar
	}
}

// WithTransport sets a custom base transport (for connection pooling, proxies, etc.)
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *AuthClient) {
		c.baseTransport = transport
	}
}

// WithToken starts the client with an access token obtained earlier
func WithToken(token string) ClientOption {
	return func(c *AuthClient) {
		c.session = &ba.AuthResponse{AccessToken: token}
	}
}

// NewAuthClient creates a client for the API mounted at serverURL
// (e.g. "http://localhost:3000" or "https://blog.example.com/api").
func NewAuthClient(serverURL string, opts ...ClientOption) *AuthClient {
	c := &AuthClient{
		serverURL:     strings.TrimSuffix(serverURL, "/"),
		httpClient:    &http.Client{},
		baseTransport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Transport = &tokenTransport{client: c}
	return c
}

// HTTPClient returns an HTTP client that sends the current access token
func (c *AuthClient) HTTPClient() *http.Client {
	return c.httpClient
}

// ServerURL returns the server URL this client is configured for
func (c *AuthClient) ServerURL() string {
	return c.serverURL
}

// Token returns the current access token, or "" before signing in
func (c *AuthClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

// Session returns the response of the last successful signin
func (c *AuthClient) Session() *ba.AuthResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// IsLoggedIn returns true if the client holds an access token
func (c *AuthClient) IsLoggedIn() bool {
	return c.Token() != ""
}

// Signup registers a password account and signs in as it
func (c *AuthClient) Signup(ctx context.Context, fullname, email, password string) (*ba.AuthResponse, error) {
	return c.signin(ctx, "/signup", ba.SignupRequest{Fullname: fullname, Email: email, Password: password})
}

// Signin signs in with email and password
func (c *AuthClient) Signin(ctx context.Context, email, password string) (*ba.AuthResponse, error) {
	return c.signin(ctx, "/signin", ba.SigninRequest{Email: email, Password: password})
}

// GoogleAuth signs in with a Google ID token
func (c *AuthClient) GoogleAuth(ctx context.Context, idToken string) (*ba.AuthResponse, error) {
	return c.signin(ctx, "/google-auth", ba.GoogleAuthRequest{AccessToken: idToken})
}

// Me returns the profile of the signed in user
func (c *AuthClient) Me(ctx context.Context) (*ba.ProfileResponse, error) {
	var profile ba.ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout ends the server session and forgets the access token
func (c *AuthClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, nil)
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return err
}

func (c *AuthClient) signin(ctx context.Context, path string, body any) (*ba.AuthResponse, error) {
	var resp ba.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.session = &resp
	c.mu.Unlock()
	return &resp, nil
}

func (c *AuthClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	endpoint, err := url.JoinPath(c.serverURL, path)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		json.Unmarshal(data, &errBody)
		return &APIError{Status: resp.StatusCode, Message: errBody.Error}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid response from server: %w", err)
	}
	return nil
}
