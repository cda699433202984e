package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is a VisionClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string

	// Responses are returned in order, one per request. When exhausted,
	// ResponseText is used. Handler, when set, overrides everything.
	Responses []string
	Handler   func(req *VisionRequest) (string, error)

	// Rate limiting
	RPS        float64
	Retries    int
	RetryDelay time.Duration

	// State
	mu           sync.Mutex
	requestCount atomic.Int64

	// Recorded requests for assertions.
	Requests []*VisionRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
		RPS:          100,
		Retries:      3,
		RetryDelay:   time.Millisecond,
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// RequestsPerSecond returns the RPS limit for rate limiting.
func (c *MockClient) RequestsPerSecond() float64 {
	return c.RPS
}

// MaxRetries returns the maximum retry attempts.
func (c *MockClient) MaxRetries() int {
	return c.Retries
}

// RetryDelayBase returns the base delay between retries.
func (c *MockClient) RetryDelayBase() time.Duration {
	return c.RetryDelay
}

// RequestCount returns the number of Invoke calls made.
func (c *MockClient) RequestCount() int {
	return int(c.requestCount.Load())
}

// Invoke returns the next scripted response.
func (c *MockClient) Invoke(ctx context.Context, req *VisionRequest) (*VisionResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	if c.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Latency):
		}
	}

	c.mu.Lock()
	c.Requests = append(c.Requests, req)
	var content string
	var handlerErr error
	switch {
	case c.Handler != nil:
		content, handlerErr = c.Handler(req)
	case len(c.Responses) > 0:
		content = c.Responses[0]
		c.Responses = c.Responses[1:]
	default:
		content = c.ResponseText
	}
	c.mu.Unlock()

	result := &VisionResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.ShouldFail || (c.FailAfter > 0 && int(count) > c.FailAfter) {
		result.Success = false
		result.ErrorType = "mock_error"
		result.ErrorMessage = "mock failure"
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock failure")
	}
	if handlerErr != nil {
		result.Success = false
		result.ErrorType = "mock_error"
		result.ErrorMessage = handlerErr.Error()
		result.ExecutionTime = time.Since(start)
		return result, handlerErr
	}

	result.Content = content
	result.ExecutionTime = time.Since(start)
	result.Success = true
	return result, nil
}
