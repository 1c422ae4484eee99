// Package apiclient is a Go client for the coin endpoints. It keeps a local
// optimistic mirror of the balance so callers can gate UI affordances without
// a round trip; the server remains the only authority on whether a debit
// happens.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oatmeal/resume-builder/internal/mirror"
	"github.com/oatmeal/resume-builder/internal/types"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the server, carrying the
// machine-readable reason code when the body had one.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("api error %d (%s)", e.StatusCode, e.Reason)
}

// Client talks to the coin endpoints on behalf of one authenticated user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	balance *mirror.Balance
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client for the given server and bearer token. The mirror
// starts unsynced; call Refresh at session start.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		balance: mirror.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mirror returns the client's cached balance. It is advisory: HasEnough may
// say yes and the server still refuse, and vice versa after a credit.
func (c *Client) Mirror() *mirror.Balance {
	return c.balance
}

// Refresh fetches the authoritative balance and reconciles the mirror.
func (c *Client) Refresh(ctx context.Context) (*types.BalanceResponse, error) {
	var resp types.BalanceResponse
	if err := c.do(ctx, http.MethodGet, "/coins/balance", nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	c.balance.Reconcile(resp.Coins, resp.ResetAt)
	return &resp, nil
}

// Check asks the server whether the user can currently afford a feature.
// Advisory: a true answer reserves nothing.
func (c *Client) Check(ctx context.Context, feature string) (*types.CheckCoinsResponse, error) {
	req := types.CheckCoinsRequest{Feature: feature}
	var resp types.CheckCoinsResponse
	if err := c.do(ctx, http.MethodPost, "/coins/check", req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	c.balance.Reconcile(resp.Coins, resp.ResetAt)
	return &resp, nil
}

// Deduct spends coins for one feature use. A refusal for insufficient coins
// is a result (Success false), not an error. The mirror is reconciled after
// every attempt: both outcomes carry the authoritative balance, and on
// transport or server failure a best-effort Refresh re-syncs it.
func (c *Client) Deduct(ctx context.Context, feature string) (*types.DeductCoinsResponse, error) {
	body, err := json.Marshal(types.DeductCoinsRequest{Feature: feature})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpResp, err := c.send(ctx, http.MethodPost, "/coins/deduct", bytes.NewReader(body))
	if err != nil {
		_, _ = c.Refresh(ctx)
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		_, _ = c.Refresh(ctx)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch httpResp.StatusCode {
	case http.StatusOK:
		var resp types.DeductCoinsResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			_, _ = c.Refresh(ctx)
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		c.balance.Reconcile(resp.Coins, resp.ResetAt)
		return &resp, nil

	case http.StatusForbidden:
		var refusal struct {
			Error   string    `json:"error"`
			Reason  string    `json:"reason"`
			Coins   int       `json:"coins"`
			ResetAt time.Time `json:"reset_at"`
		}
		if err := json.Unmarshal(raw, &refusal); err != nil {
			_, _ = c.Refresh(ctx)
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		c.balance.Reconcile(refusal.Coins, refusal.ResetAt)
		return &types.DeductCoinsResponse{
			Success: false,
			Coins:   refusal.Coins,
			ResetAt: refusal.ResetAt,
			Message: refusal.Error,
		}, nil

	default:
		apiErr := parseAPIError(httpResp.StatusCode, raw)
		_, _ = c.Refresh(ctx)
		return nil, apiErr
	}
}

// do sends a JSON request and decodes the response when the status matches
// wantStatus; any other status becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, reqBody any, wantStatus int, out any) error {
	var body io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpResp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != wantStatus {
		return parseAPIError(httpResp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func parseAPIError(status int, raw []byte) *APIError {
	var body struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	_ = json.Unmarshal(raw, &body)
	return &APIError{StatusCode: status, Reason: body.Reason, Message: body.Error}
}
