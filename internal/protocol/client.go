package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xvierd/keeper/internal/domain"
)

// Client sends requests to a daemon over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

// Ensure Client implements Channel.
var _ Channel = (*Client)(nil)

// NewClient creates a client that dials the daemon's unix socket.
func NewClient(socketPath string, timeout time.Duration) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}
	return &Client{
		http:    &http.Client{Transport: transport, Timeout: timeout},
		baseURL: "http://keeper",
	}
}

// NewHTTPClient creates a client for a daemon reachable at baseURL.
func NewHTTPClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc, baseURL: strings.TrimRight(baseURL, "/")}
}

// Send delivers req and waits for its response.
// Actions the daemon does not know are refused without a round trip.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	if !req.Action.Valid() {
		return Response{}, fmt.Errorf("%w %q", domain.ErrUnknownAction, req.Action)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", domain.ErrDaemonUnavailable, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	var resp Response
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, 1<<16)).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("failed to decode response (status %d): %w", httpResp.StatusCode, err)
	}
	return resp, nil
}

// Ping checks that the daemon is answering.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDaemonUnavailable, err)
	}
	_ = httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned %s", domain.ErrDaemonUnavailable, httpResp.Status)
	}
	return nil
}
