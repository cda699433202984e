package config

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Providers.Vision != "openrouter" {
		t.Errorf("default vision provider = %q, want openrouter", cfg.Providers.Vision)
	}
	or, ok := cfg.Providers.Clients["openrouter"]
	if !ok {
		t.Fatal("expected openrouter client config")
	}
	if or.APIKey != "${OPENROUTER_API_KEY}" {
		t.Errorf("expected API key placeholder, got %q", or.APIKey)
	}
	if cfg.Pipeline.BatchSize != 20 {
		t.Errorf("batch size = %d, want 20", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.ConfidenceThreshold != 0.85 || cfg.Pipeline.LowConfidenceThreshold != 0.70 {
		t.Errorf("thresholds = %v/%v, want 0.85/0.70",
			cfg.Pipeline.ConfidenceThreshold, cfg.Pipeline.LowConfidenceThreshold)
	}
	if cfg.Pipeline.DetectionFallback {
		t.Error("detection fallback must default to off")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		if got := ResolveEnvVars("${TEST_API_KEY}"); got != "secret123" {
			t.Errorf("got %q, want secret123", got)
		}
	})

	t.Run("missing variable resolves empty", func(t *testing.T) {
		if got := ResolveEnvVars("${DEFINITELY_NOT_SET_XYZ}"); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})

	t.Run("plain strings pass through", func(t *testing.T) {
		if got := ResolveEnvVars("literal-key"); got != "literal-key" {
			t.Errorf("got %q", got)
		}
	})
}

func TestActiveVision(t *testing.T) {
	t.Run("resolves configured provider", func(t *testing.T) {
		os.Setenv("TEST_VISION_KEY", "k-123")
		defer os.Unsetenv("TEST_VISION_KEY")

		cfg := &Config{
			Providers: ProvidersCfg{
				Vision: "primary",
				Clients: map[string]VisionClientCfg{
					"primary": {Type: "openrouter", Model: "m", APIKey: "${TEST_VISION_KEY}"},
				},
			},
		}
		name, client, err := cfg.ActiveVision()
		if err != nil {
			t.Fatalf("ActiveVision() error = %v", err)
		}
		if name != "primary" || client.APIKey != "k-123" {
			t.Errorf("got %s / %q", name, client.APIKey)
		}
	})

	t.Run("unknown provider errors", func(t *testing.T) {
		cfg := &Config{Providers: ProvidersCfg{Vision: "missing"}}
		if _, _, err := cfg.ActiveVision(); err == nil {
			t.Error("expected error")
		}
	})
}
