package profile

import (
	"os"
	"testing"

	"github.com/neothink-dao/platform-bridge/internal/platform"
)

func TestProfileDefaults(t *testing.T) {
	clearBridgeEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	if profile.AIEnabled {
		t.Error("AIEnabled should be false by default")
	}
	if profile.AIOpenAIBaseURL != "https://api.openai.com/v1" {
		t.Errorf("AIOpenAIBaseURL default: got %q", profile.AIOpenAIBaseURL)
	}
	if profile.AIEmbeddingModel != "text-embedding-3-small" {
		t.Errorf("AIEmbeddingModel default: got %q", profile.AIEmbeddingModel)
	}
	if profile.AIEmbeddingDimSize != 1536 {
		t.Errorf("AIEmbeddingDimSize default: got %d", profile.AIEmbeddingDimSize)
	}
	if profile.RedisAddr != "" {
		t.Errorf("RedisAddr should be empty by default, got %q", profile.RedisAddr)
	}
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
	}{
		{
			name:     "NEOTHINK_JWT_SECRET",
			envVar:   "NEOTHINK_JWT_SECRET",
			envValue: "super-secret",
			field:    func(p *Profile) string { return p.JWTSecret },
		},
		{
			name:     "NEOTHINK_REDIS_ADDR",
			envVar:   "NEOTHINK_REDIS_ADDR",
			envValue: "localhost:6379",
			field:    func(p *Profile) string { return p.RedisAddr },
		},
		{
			name:     "NEOTHINK_AI_OPENAI_API_KEY",
			envVar:   "NEOTHINK_AI_OPENAI_API_KEY",
			envValue: "openai-key",
			field:    func(p *Profile) string { return p.AIOpenAIAPIKey },
		},
		{
			name:     "NEOTHINK_AI_EMBEDDING_MODEL",
			envVar:   "NEOTHINK_AI_EMBEDDING_MODEL",
			envValue: "custom-embedding-model",
			field:    func(p *Profile) string { return p.AIEmbeddingModel },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearBridgeEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			if actual := tt.field(profile); actual != tt.envValue {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.envValue, actual)
			}
		})
	}
}

func TestParsePlatformDomains(t *testing.T) {
	table := ParsePlatformDomains("hub=https://go.neothink.io/, ascenders=https://go.joinascenders.org,mars=https://mars.example")

	if got := table[platform.Hub]; got != "https://go.neothink.io" {
		t.Errorf("hub domain: got %q", got)
	}
	if got := table[platform.Ascenders]; got != "https://go.joinascenders.org" {
		t.Errorf("ascenders domain: got %q", got)
	}
	if len(table) != 2 {
		t.Errorf("unknown platforms should be dropped, table has %d entries", len(table))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		profile     *Profile
		expectError bool
	}{
		{
			name:        "postgres without DSN",
			profile:     &Profile{Mode: "prod", Driver: "postgres"},
			expectError: true,
		},
		{
			name:        "postgres with DSN",
			profile:     &Profile{Mode: "prod", Driver: "postgres", DSN: "postgres://localhost/neothink"},
			expectError: false,
		},
		{
			name:        "unknown driver",
			profile:     &Profile{Mode: "dev", Driver: "mysql", DSN: "whatever"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestValidateNormalizesMode(t *testing.T) {
	profile := &Profile{Mode: "staging", Driver: "postgres", DSN: "postgres://localhost/neothink"}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if profile.Mode != "demo" {
		t.Errorf("unknown mode should normalize to demo, got %q", profile.Mode)
	}
}

func clearBridgeEnvVars() {
	for _, envVar := range []string{
		"NEOTHINK_JWT_SECRET",
		"NEOTHINK_REDIS_ADDR",
		"NEOTHINK_REDIS_PASSWORD",
		"NEOTHINK_PLATFORM_DOMAINS",
		"NEOTHINK_AI_ENABLED",
		"NEOTHINK_AI_OPENAI_API_KEY",
		"NEOTHINK_AI_OPENAI_BASE_URL",
		"NEOTHINK_AI_EMBEDDING_MODEL",
		"NEOTHINK_OAUTH_NAME",
		"NEOTHINK_OAUTH_CLIENT_ID",
		"NEOTHINK_OAUTH_CLIENT_SECRET",
		"NEOTHINK_OAUTH_AUTH_URL",
		"NEOTHINK_OAUTH_TOKEN_URL",
		"NEOTHINK_OAUTH_USERINFO_URL",
		"NEOTHINK_OAUTH_REDIRECT_URL",
		"NEOTHINK_OAUTH_SCOPES",
	} {
		os.Unsetenv(envVar)
	}
}
