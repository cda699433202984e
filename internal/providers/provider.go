// Package providers implements vision-model clients used by the pipeline.
package providers

import (
	"context"
	"time"
)

// VisionClient is the interface for multimodal model invocations.
// Implementations are responsible for transport-level retry; callers layer
// their own bounded retry policy on top for stage-level failures.
type VisionClient interface {
	// Invoke sends a prompt plus page images and returns the raw model text.
	Invoke(ctx context.Context, req *VisionRequest) (*VisionResult, error)

	// Name returns the client identifier (e.g. "openrouter").
	Name() string

	// Rate limiting and retry properties, consumed by workers and callers.
	RequestsPerSecond() float64
	MaxRetries() int
	RetryDelayBase() time.Duration
}

// VisionRequest is a single multimodal model call.
type VisionRequest struct {
	// Prompt is the user prompt text.
	Prompt string `json:"prompt"`

	// Images are raw page images (PNG), sent in order after the prompt.
	Images [][]byte `json:"-"`

	// Generation parameters.
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`

	// Model overrides the client default if non-empty.
	Model string `json:"model,omitempty"`

	// Request tracking.
	RequestID string `json:"-"`
}

// VisionResult is the complete response from a model call.
type VisionResult struct {
	// Response content (raw model text).
	Content string `json:"content"`

	// Token counts.
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Timing.
	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info.
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking.
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	// Success/error.
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
