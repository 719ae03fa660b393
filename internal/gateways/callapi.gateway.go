package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	// ErrCallNotFound is returned when the call API has no record of the id.
	ErrCallNotFound = errors.New("call not found")
	// ErrCallRejected is returned when the call API refuses the initiate request.
	ErrCallRejected = errors.New("call rejected by call api")
)

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxConns        int
	ReadBufferSize  int
	WriteBufferSize int
}

// Client talks to the call simulation service. Every call is a single bounded
// attempt; a failure is final for the caller's tick or request.
type Client struct {
	config *Config
	client *fasthttp.Client
}

type initiateCallRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type callEnvelope struct {
	Success bool              `json:"success"`
	Call    *model.CallRecord `json:"call"`
	Error   string            `json:"error"`
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.BaseURL == "" {
		return nil, errors.New("call api base url is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	httpClient := &fasthttp.Client{
		MaxConnsPerHost:     config.MaxConns,
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: 60 * time.Second,
		ReadBufferSize:      config.ReadBufferSize,
		WriteBufferSize:     config.WriteBufferSize,
	}

	logger.Info("Call API client initialized", "url", config.BaseURL, "timeout", config.Timeout)

	return &Client{
		config: config,
		client: httpClient,
	}, nil
}

// InitiateCall asks the call API to start a call and returns the created record.
func (c *Client) InitiateCall(ctx context.Context, phoneNumber string) (*model.CallRecord, error) {
	reqBody, err := json.Marshal(initiateCallRequest{PhoneNumber: phoneNumber})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	status, body, err := c.doRequest(ctx, "POST", "/api/call", reqBody)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusCreated {
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrCallRejected, status, body)
	}

	var envelope callEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if envelope.Call == nil {
		return nil, fmt.Errorf("%w: empty call payload", ErrCallRejected)
	}

	return envelope.Call, nil
}

// GetCall fetches the live state of a call.
func (c *Client) GetCall(ctx context.Context, callID string) (*model.CallRecord, error) {
	path := fmt.Sprintf("/api/call/%s", callID)
	status, body, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusNotFound {
		return nil, ErrCallNotFound
	}
	if status != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", status, body)
	}

	var envelope callEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if envelope.Call == nil {
		return nil, ErrCallNotFound
	}

	return envelope.Call, nil
}

// Health probes the call API liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	status, body, err := c.doRequest(ctx, "GET", "/health", nil)
	if err != nil {
		return err
	}
	if status != fasthttp.StatusOK {
		return fmt.Errorf("unexpected status code: %d, body: %s", status, body)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		return err
	}
	if health.Status != "healthy" {
		return fmt.Errorf("call api unhealthy: %s", health.Status)
	}
	return nil
}

// doRequest performs an HTTP request with a hard deadline and no retries.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	url := c.config.BaseURL + path
	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")

	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return resp.StatusCode(), result, nil
}
