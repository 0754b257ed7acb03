// Package judge provides a Go client for the judge0-docker-cli HTTP API.
//
// Usage:
//
//	client := judge.New("http://localhost:8080")
//
//	sub, err := client.Submit(ctx, judge.SubmitRequest{
//	    Language:   "python3",
//	    SourceCode: `print("Hello, World!")`,
//	})
//
//	job, err := client.Wait(ctx, sub.JobID)
//	fmt.Print(*job.Stdout)
package judge

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

// Client talks to one judge server.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPollInterval sets how often Wait polls for a terminal status.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New creates a judge client. baseURL is the server root
// (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{},
		pollInterval: 500 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit queues source code for execution and returns the assigned job id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	return doRequest[SubmitResponse](ctx, c, http.MethodPost, "/submissions", req, http.StatusCreated)
}

// Job fetches the current record for a job.
func (c *Client) Job(ctx context.Context, jobID string) (*Job, error) {
	return doRequest[Job](ctx, c, http.MethodGet, "/submissions/"+jobID, nil, http.StatusOK)
}

// Wait polls until the job reaches a terminal status or ctx expires.
func (c *Client) Wait(ctx context.Context, jobID string) (*Job, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		job, err := c.Job(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Health checks that the judge server is reachable and reports queue depth.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return doRequest[HealthResponse](ctx, c, http.MethodGet, "/health", nil, http.StatusOK)
}

// Languages lists the languages the server accepts.
func (c *Client) Languages(ctx context.Context) ([]LanguageInfo, error) {
	out, err := doRequest[languagesResponse](ctx, c, http.MethodGet, "/languages", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return out.Languages, nil
}

// --- internal helpers ---

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("judge: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doRequest[T any](ctx context.Context, c *Client, method, path string, body any, expectedStatus int) (*T, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		return nil, parseError(resp)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("judge: decode response: %w", err)
	}
	return &out, nil
}

func parseError(resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		e.Message = body.Error
		e.Detail = body.Detail
	} else {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

// IsNotFound reports whether err is an API "job not found" response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
