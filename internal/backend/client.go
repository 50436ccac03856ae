// Package backend is the REST client for the remote rental backend. It is
// the only code that speaks HTTP to the server; the façade and the
// synchronizer both go through it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnreachable wraps transport-level failures: DNS, refused connections,
// timeouts. Callers use it to pick the offline fallback path.
var ErrUnreachable = errors.New("backend unreachable")

// RejectionError is a non-success HTTP response from the backend.
type RejectionError struct {
	StatusCode int
	Body       string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("backend rejected request with status %d: %s", e.StatusCode, e.Body)
}

// IsRejection reports whether err is a backend rejection (as opposed to a
// transport failure).
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// TokenSource supplies the bearer token for authenticated requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the remote backend over JSON/HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient creates a backend client. timeout bounds every individual
// request; tokens may be nil for token-less deployments.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// Health probes the backend. A nil error means the server answered 200.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// CreateContract creates a contract directly (online path).
func (c *Client) CreateContract(ctx context.Context, req CreateContractRequest) (*ContractResponse, error) {
	var resp ContractResponse
	if err := c.do(ctx, http.MethodPost, "/contracts/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateContract updates a contract directly by its backend id.
func (c *Client) UpdateContract(ctx context.Context, remoteID int64, req UpdateContractRequest) (*ContractResponse, error) {
	var resp ContractResponse
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/contracts/%d", remoteID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CloseContract closes a contract directly by its backend id.
func (c *Client) CloseContract(ctx context.Context, remoteID int64, req CloseContractRequest) (*ContractResponse, error) {
	var resp ContractResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/contracts/%d/close", remoteID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TerminateContract terminates a contract. Termination has no offline path,
// so this is only ever called directly.
func (c *Client) TerminateContract(ctx context.Context, remoteID int64, comment *string) (*ContractResponse, error) {
	body := map[string]interface{}{}
	if comment != nil {
		body["comment"] = *comment
	}
	var resp ContractResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/contracts/%d/terminate", remoteID), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListActiveContracts fetches all active contracts from the backend.
func (c *Client) ListActiveContracts(ctx context.Context) ([]ContractResponse, error) {
	var resp []ContractResponse
	if err := c.do(ctx, http.MethodGet, "/contracts/active", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SyncContracts sends one reconciliation batch and returns the id mappings.
func (c *Client) SyncContracts(ctx context.Context, batch SyncBatchRequest) (*SyncBatchResponse, error) {
	var resp SyncBatchResponse
	if err := c.do(ctx, http.MethodPost, "/sync/contracts", batch, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListClients fetches the client directory.
func (c *Client) ListClients(ctx context.Context) ([]ClientInfo, error) {
	var resp []ClientInfo
	if err := c.do(ctx, http.MethodGet, "/clients", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetClient fetches one client by id.
func (c *Client) GetClient(ctx context.Context, id int64) (*ClientInfo, error) {
	var resp ClientInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/clients/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateClient registers a new client. Online-only; there is no offline
// path for directory writes.
func (c *Client) CreateClient(ctx context.Context, client ClientInfo) (*ClientInfo, error) {
	var resp ClientInfo
	if err := c.do(ctx, http.MethodPost, "/clients", client, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTools fetches the tool inventory.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	var resp []ToolInfo
	if err := c.do(ctx, http.MethodGet, "/tools", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetTool fetches one tool by id.
func (c *Client) GetTool(ctx context.Context, id int64) (*ToolInfo, error) {
	var resp ToolInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tools/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTool registers a new inventory tool. Online-only.
func (c *Client) CreateTool(ctx context.Context, tool ToolInfo) (*ToolInfo, error) {
	var resp ToolInfo
	if err := c.do(ctx, http.MethodPost, "/tools", tool, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do runs one JSON request/response cycle. Transport errors come back
// wrapped in ErrUnreachable; non-2xx responses come back as RejectionError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RejectionError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
