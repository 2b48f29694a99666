package ai

import (
	"testing"

	"github.com/neothink-dao/platform-bridge/internal/profile"
)

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *EmbeddingConfig
		expectError bool
	}{
		{
			name: "OpenAI config",
			cfg: &EmbeddingConfig{
				Model:      "text-embedding-3-small",
				Dimensions: 1536,
				APIKey:     "test-key",
			},
			expectError: false,
		},
		{
			name: "OpenAI-compatible endpoint",
			cfg: &EmbeddingConfig{
				Model:      "text-embedding-3-small",
				Dimensions: 1536,
				APIKey:     "test-key",
				BaseURL:    "http://localhost:8080/v1",
			},
			expectError: false,
		},
		{
			name: "Missing API key",
			cfg: &EmbeddingConfig{
				Model: "text-embedding-3-small",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmbedder(tt.cfg)
			if (err != nil) != tt.expectError {
				t.Errorf("NewEmbedder() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestEmbedderDimensions(t *testing.T) {
	embedder, err := NewEmbedder(&EmbeddingConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
		APIKey:     "test-key",
	})
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}
	if got := embedder.Dimensions(); got != 1536 {
		t.Errorf("Dimensions() = %d, want 1536", got)
	}
}

// TestNewConfigFromProfile tests config defaults.
func TestNewConfigFromProfile(t *testing.T) {
	disabled := NewConfigFromProfile(&profile.Profile{AIEnabled: false})
	if disabled.Enabled {
		t.Error("expected AI disabled")
	}

	enabled := NewConfigFromProfile(&profile.Profile{
		AIEnabled:      true,
		AIOpenAIAPIKey: "test-key",
	})
	if !enabled.Enabled {
		t.Fatal("expected AI enabled")
	}
	if enabled.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("default model = %q", enabled.Embedding.Model)
	}
	if enabled.Embedding.Dimensions != 1536 {
		t.Errorf("default dimensions = %d", enabled.Embedding.Dimensions)
	}
}
