// Package client is the Go SDK for the CuraLink API. It owns the session
// credentials, keeps at most one in-flight request per logical operation,
// and maps every failure into a small closed taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"curalink.org/internal/auth"
)

const defaultTimeout = 15 * time.Second

// Client talks to one CuraLink server. It is safe for concurrent use;
// superseding searches in particular complete on different goroutines.
type Client struct {
	baseURL  string
	http     *http.Client
	creds    CredentialStore
	registry *Registry

	// identity observed on the last successful login/register/me, used for
	// local pre-checks. Nil when unknown. Guarded by mu.
	mu       sync.Mutex
	identity *auth.User
}

func (c *Client) setIdentity(u *auth.User) {
	c.mu.Lock()
	c.identity = u
	c.mu.Unlock()
}

// identitySnapshot returns a copy of the last observed identity, or nil when
// no identity is known.
func (c *Client) identitySnapshot() *auth.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil
	}
	u := *c.identity
	return &u
}

// Option configures a Client.
type Option func(*Client)

// WithCredentialStore overrides the default file-backed store.
func WithCredentialStore(store CredentialStore) Option {
	return func(c *Client) { c.creds = store }
}

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a Client for the given base URL, e.g. "https://api.curalink.org".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, opErr("new", ErrValidation, "base URL must be absolute")
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.creds == nil {
		store, err := NewFileStore(u.Scheme + "://" + u.Host)
		if err != nil {
			return nil, opErr("new", ErrUnexpected, "cannot locate credential store: "+err.Error())
		}
		c.creds = store
	}
	return c, nil
}

// CancelAll aborts every in-flight registry-keyed operation.
func (c *Client) CancelAll() { c.registry.CancelAll() }

// call performs one JSON request. The token is read from the store fresh on
// every call. Responses to a context already cancelled (a superseded search,
// a caller timeout) are discarded and surface as Cancelled.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return opErr(op, ErrUnexpected, "encode request: "+err.Error())
		}
		reader = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, op, method, path, query, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, op, out)
}

// callForm performs one form-encoded request (the login flow).
func (c *Client) callForm(ctx context.Context, op, path string, form url.Values, out any) error {
	req, err := c.newRequest(ctx, op, http.MethodPost, path, nil, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, op, out)
}

func (c *Client) newRequest(ctx context.Context, op, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, opErr(op, ErrUnexpected, "build request: "+err.Error())
	}
	creds, err := c.creds.Load()
	if err != nil {
		return nil, opErr(op, ErrUnexpected, "read credentials: "+err.Error())
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return opErr(op, ErrCancelled, "operation cancelled")
		}
		return opErr(op, ErrNetwork, "request failed: "+err.Error())
	}
	defer resp.Body.Close()

	// A response that arrives after the operation was superseded or the
	// caller gave up is stale; never deliver it.
	if req.Context().Err() != nil {
		return opErr(op, ErrCancelled, "operation cancelled")
	}

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return opErr(op, ErrUnexpected, "decode response: "+err.Error())
	}
	return nil
}

func (c *Client) errorFromResponse(op string, resp *http.Response) error {
	var body struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &body)
	if body.Error == "" {
		body.Error = fmt.Sprintf("server returned %s", resp.Status)
	}

	kind := kindForResponse(resp.StatusCode, body.Reason)
	if kind == ErrUnauthenticated {
		// The session is dead; drop it so later calls fail fast locally.
		_ = c.creds.Clear()
		c.setIdentity(nil)
	}
	return &Error{
		Op:      op,
		Message: body.Error,
		Reason:  body.Reason,
		Status:  resp.StatusCode,
		kind:    kind,
	}
}
