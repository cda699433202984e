package config

import "time"

// Config holds procdoc configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Providers ProvidersCfg `mapstructure:"providers" yaml:"providers"`
	Pipeline  PipelineCfg  `mapstructure:"pipeline" yaml:"pipeline"`
}

// ProvidersCfg configures the vision providers and selects the active one.
type ProvidersCfg struct {
	Vision  string                     `mapstructure:"vision" yaml:"vision"` // Active provider name
	Clients map[string]VisionClientCfg `mapstructure:"clients" yaml:"clients"`
}

// VisionClientCfg configures a single vision provider.
type VisionClientCfg struct {
	Type           string  `mapstructure:"type" yaml:"type"`       // "openrouter", "openai"
	Model          string  `mapstructure:"model" yaml:"model"`     // Model name
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelaySecs int     `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	TimeoutSecs    int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// RetryDelay returns the configured retry delay as a duration.
func (c VisionClientCfg) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySecs) * time.Second
}

// Timeout returns the configured HTTP timeout as a duration.
func (c VisionClientCfg) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PipelineCfg tunes the document pipeline.
type PipelineCfg struct {
	// BatchSize is the maximum number of page images per detection call.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// MaxWorkers bounds concurrent section extraction calls.
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers"`

	// ExtractRetries bounds attempts per section extraction before the
	// section is recorded as failed.
	ExtractRetries int `mapstructure:"extract_retries" yaml:"extract_retries"`

	// ConfidenceThreshold is the aggregate confidence needed for auto-approval.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`

	// LowConfidenceThreshold marks individual sections as needing review.
	LowConfidenceThreshold float64 `mapstructure:"low_confidence_threshold" yaml:"low_confidence_threshold"`

	// MaxTokensDetection caps model output for section detection calls.
	MaxTokensDetection int `mapstructure:"max_tokens_detection" yaml:"max_tokens_detection"`

	// MaxTokensExtraction caps model output for section extraction calls.
	MaxTokensExtraction int `mapstructure:"max_tokens_extraction" yaml:"max_tokens_extraction"`

	// DetectionFallback, when true, substitutes a single whole-document
	// section instead of failing when detection produces nothing. Off by
	// default: a fabricated structure is worse than an explicit failure.
	DetectionFallback bool `mapstructure:"detection_fallback" yaml:"detection_fallback"`

	// DPI used when rasterizing PDF pages.
	DPI int `mapstructure:"dpi" yaml:"dpi"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersCfg{
			Vision: "openrouter",
			Clients: map[string]VisionClientCfg{
				"openrouter": {
					Type:           "openrouter",
					Model:          "anthropic/claude-sonnet-4.5",
					APIKey:         "${OPENROUTER_API_KEY}",
					RateLimit:      2.0,
					MaxRetries:     3,
					RetryDelaySecs: 5,
					TimeoutSecs:    300,
				},
				"openai": {
					Type:           "openai",
					Model:          "gpt-4o",
					APIKey:         "${OPENAI_API_KEY}",
					RateLimit:      2.0,
					MaxRetries:     3,
					RetryDelaySecs: 5,
					TimeoutSecs:    300,
				},
			},
		},
		Pipeline: PipelineCfg{
			BatchSize:              20,
			MaxWorkers:             5,
			ExtractRetries:         3,
			ConfidenceThreshold:    0.85,
			LowConfidenceThreshold: 0.70,
			MaxTokensDetection:     4096,
			MaxTokensExtraction:    16000,
			DetectionFallback:      false,
			DPI:                    150,
		},
	}
}
