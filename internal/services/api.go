package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/muse/internal/shared"
	"golang.org/x/time/rate"
)

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	TimeoutSeconds    int
	RequestsPerSecond float64
	BurstSize         int
}

// Client performs raw HTTP exchanges with the muse backend. All requests
// pass through a rate limiter before hitting the wire.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// streamClient carries no overall timeout: event streams stay open
	// for as long as the server keeps sending frames.
	streamClient *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a backend client. A nil HTTP client falls back to a
// client with the configured timeout; zero rate-limit settings disable
// throttling.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8000"
	}

	httpClient := opts.HTTPClient
	var streamClient *http.Client
	if httpClient == nil {
		timeout := time.Duration(opts.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
		streamClient = &http.Client{}
	} else {
		// A caller-supplied timeout must not apply to event streams, which
		// stay open for the whole generation.
		derived := *httpClient
		derived.Timeout = 0
		streamClient = &derived
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = opts.BurstSize
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		baseURL:      opts.BaseURL,
		httpClient:   httpClient,
		streamClient: streamClient,
		limiter:      rate.NewLimiter(limit, burst),
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Call performs one request/response exchange. A non-nil body is encoded
// as JSON. Non-2xx statuses are returned as [shared.ErrBackend] carrying
// the response body text; the raw response is still returned for callers
// that want the status code.
func (c *Client) Call(ctx context.Context, method, path string, body any) (*APIResponse, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, fmt.Errorf("%w: status %d: %s", shared.ErrBackend, resp.StatusCode, string(resp.Body))
	}

	return resp, nil
}

// Get performs a GET request to the specified path.
func (c *Client) Get(ctx context.Context, path string) (*APIResponse, error) {
	return c.Call(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON-encodable body.
func (c *Client) Post(ctx context.Context, path string, body any) (*APIResponse, error) {
	return c.Call(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*APIResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// OpenEventStream POSTs body to path and returns the response as a lazy
// event sequence. A non-2xx status fails immediately with
// [shared.ErrBackend]; the caller owns the returned stream and must close
// it to release the connection.
func (c *Client) OpenEventStream(ctx context.Context, path string, body any) (*EventStream, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrBackend, resp.StatusCode, string(respBody))
	}

	return NewEventStream(resp.Body), nil
}
