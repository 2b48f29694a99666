package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// Profile is the configuration to start the bridge server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory (SQLite database location)
	Data string
	// DSN points to where the bridge stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the public url of this bridge instance
	InstanceURL string

	// JWTSecret verifies access tokens minted by the identity provider.
	JWTSecret string

	// OAuth sign-in is enabled when a client id is configured.
	OAuthName         string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthUserInfoURL  string
	OAuthRedirectURL  string
	OAuthScopes       []string

	// RedisAddr enables the Redis cache tier and the Redis realtime
	// broker when set. Empty means in-process only.
	RedisAddr     string
	RedisPassword string

	// PlatformDomains overrides the default platform -> origin table
	// used by the navigation service.
	PlatformDomains map[platform.ID]string

	// AI Configuration
	AIEnabled          bool   // NEOTHINK_AI_ENABLED
	AIOpenAIAPIKey     string // NEOTHINK_AI_OPENAI_API_KEY
	AIOpenAIBaseURL    string // NEOTHINK_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIEmbeddingModel   string // NEOTHINK_AI_EMBEDDING_MODEL (default: text-embedding-3-small)
	AIEmbeddingDimSize int    // NEOTHINK_AI_EMBEDDING_DIMENSIONS (default: 1536)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and an API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIOpenAIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from NEOTHINK_* environment variables.
func (p *Profile) FromEnv() {
	p.JWTSecret = getEnvOrDefault("NEOTHINK_JWT_SECRET", p.JWTSecret)
	p.RedisAddr = getEnvOrDefault("NEOTHINK_REDIS_ADDR", p.RedisAddr)
	p.RedisPassword = getEnvOrDefault("NEOTHINK_REDIS_PASSWORD", p.RedisPassword)

	p.OAuthName = getEnvOrDefault("NEOTHINK_OAUTH_NAME", "supabase")
	p.OAuthClientID = getEnvOrDefault("NEOTHINK_OAUTH_CLIENT_ID", p.OAuthClientID)
	p.OAuthClientSecret = getEnvOrDefault("NEOTHINK_OAUTH_CLIENT_SECRET", p.OAuthClientSecret)
	p.OAuthAuthURL = getEnvOrDefault("NEOTHINK_OAUTH_AUTH_URL", p.OAuthAuthURL)
	p.OAuthTokenURL = getEnvOrDefault("NEOTHINK_OAUTH_TOKEN_URL", p.OAuthTokenURL)
	p.OAuthUserInfoURL = getEnvOrDefault("NEOTHINK_OAUTH_USERINFO_URL", p.OAuthUserInfoURL)
	p.OAuthRedirectURL = getEnvOrDefault("NEOTHINK_OAUTH_REDIRECT_URL", p.OAuthRedirectURL)
	if scopes := os.Getenv("NEOTHINK_OAUTH_SCOPES"); scopes != "" {
		p.OAuthScopes = strings.Split(scopes, ",")
	}

	if os.Getenv("NEOTHINK_AI_ENABLED") != "" {
		p.AIEnabled = os.Getenv("NEOTHINK_AI_ENABLED") == "true"
	}
	p.AIOpenAIAPIKey = getEnvOrDefault("NEOTHINK_AI_OPENAI_API_KEY", p.AIOpenAIAPIKey)
	p.AIOpenAIBaseURL = getEnvOrDefault("NEOTHINK_AI_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.AIEmbeddingModel = getEnvOrDefault("NEOTHINK_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	if p.AIEmbeddingDimSize == 0 {
		p.AIEmbeddingDimSize = 1536
	}

	if domains := os.Getenv("NEOTHINK_PLATFORM_DOMAINS"); domains != "" {
		p.PlatformDomains = ParsePlatformDomains(domains)
	}
}

// ParsePlatformDomains parses "hub=https://go.neothink.io,ascenders=..."
// into a platform domain table, dropping unknown platforms.
func ParsePlatformDomains(raw string) map[platform.ID]string {
	table := make(map[platform.ID]string)
	for _, pair := range strings.Split(raw, ",") {
		name, origin, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		id := platform.ID(strings.ToLower(strings.TrimSpace(name)))
		if !platform.IsValid(id) {
			continue
		}
		table[id] = strings.TrimRight(strings.TrimSpace(origin), "/")
	}
	return table
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	switch p.Driver {
	case "postgres":
		if p.DSN == "" {
			return errors.New("DSN is required for the postgres driver")
		}
	case "sqlite":
		if p.Mode == "prod" && p.Data == "" {
			p.Data = "/var/opt/neothink"
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("neothink_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	default:
		return errors.Errorf("unsupported driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}

	return nil
}
