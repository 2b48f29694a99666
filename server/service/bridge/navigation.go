package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// contextQueryParam carries the encoded navigation context between
// platform origins.
const contextQueryParam = "nt_context"

// NavigationContext is the request-scoped blob appended to
// cross-platform URLs. It is serialized into a query parameter and
// never persisted.
type NavigationContext struct {
	SourcePlatform platform.ID `json:"sourcePlatform"`
	PreserveState  bool        `json:"preserveState"`
	Referrer       string      `json:"referrer,omitempty"`
}

// NavigationService builds cross-platform URLs and keeps the
// device-local last-location bookkeeping.
type NavigationService struct {
	domains map[platform.ID]string
	state   *StateService
	local   LocalStore
}

// NewNavigationService creates a navigation service. domains maps each
// platform to its public origin, e.g. "https://www.joinascenders.org".
func NewNavigationService(domains map[platform.ID]string, state *StateService, local LocalStore) *NavigationService {
	return &NavigationService{
		domains: domains,
		state:   state,
		local:   local,
	}
}

// BuildURL returns a fully-qualified URL to another platform, with the
// navigation context appended when non-nil.
func (s *NavigationService) BuildURL(target platform.ID, path string, navCtx *NavigationContext) (string, error) {
	if err := validatePlatform(target); err != nil {
		return "", err
	}
	base, ok := s.domains[target]
	if !ok {
		return "", errors.Errorf("no domain configured for platform %q", target)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "invalid domain for platform %q", target)
	}
	if path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		u.Path = path
	}

	if navCtx != nil {
		encoded, err := EncodeContext(navCtx)
		if err != nil {
			return "", err
		}
		query := u.Query()
		query.Set(contextQueryParam, encoded)
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// EncodeContext serializes a navigation context into its URL-safe form.
func EncodeContext(navCtx *NavigationContext) (string, error) {
	payload, err := json.Marshal(navCtx)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode navigation context")
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeContext parses the encoded navigation context from an incoming
// URL parameter.
func DecodeContext(encoded string) (*NavigationContext, error) {
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode navigation context")
	}
	navCtx := &NavigationContext{}
	if err := json.Unmarshal(payload, navCtx); err != nil {
		return nil, errors.Wrap(err, "failed to decode navigation context")
	}
	if err := validatePlatform(navCtx.SourcePlatform); err != nil {
		return nil, err
	}
	return navCtx, nil
}

// StoreLastLocation records the last visited path for a platform in
// device-local storage.
func (s *NavigationService) StoreLastLocation(p platform.ID, path string) error {
	if err := validatePlatform(p); err != nil {
		return err
	}
	s.local.Set(lastLocationKey(p), path)
	return nil
}

// LastLocation returns the stored last visited path, or "" when none
// has been recorded.
func (s *NavigationService) LastLocation(p platform.ID) string {
	value, _ := s.local.Get(lastLocationKey(p))
	return value
}

// DetectPlatform resolves the serving platform from a request host.
func (s *NavigationService) DetectPlatform(host string) platform.ID {
	return platform.ResolveFromHost(host)
}

// NavigateWithStatePreservation flushes the current platform's state
// before building the outbound URL, so the destination can pick it up
// after the browser leaves this origin. The built URL carries a
// navigation context with PreserveState set.
func (s *NavigationService) NavigateWithStatePreservation(ctx context.Context, userID string, from, to platform.ID, path string, state map[string]any) (string, error) {
	if err := validatePlatform(from); err != nil {
		return "", err
	}

	if state != nil {
		if _, err := s.state.SaveState(ctx, userID, from, state); err != nil {
			return "", err
		}
	}

	built, err := s.BuildURL(to, path, &NavigationContext{
		SourcePlatform: from,
		PreserveState:  true,
	})
	if err != nil {
		return "", err
	}

	// Record where the user is heading so the destination can resume
	// there on its next cold start. Losing this is not worth failing
	// the navigation.
	if s.state != nil && path != "" {
		if _, err := s.state.SaveLastVisited(ctx, userID, to, path); err != nil {
			slog.Warn("failed to record last visited path",
				slog.String("user_id", userID),
				slog.String("platform", string(to)),
				slog.String("error", err.Error()))
		}
	}
	return built, nil
}
