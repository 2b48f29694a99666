// Package platform defines the closed set of tenant identifiers used to
// partition all per-user data across the Neothink ecosystem.
package platform

import (
	"strings"
)

// ID is a tenant identifier. The set is closed: every per-user record in
// the bridge is keyed by one of these values and unknown values are
// rejected at service boundaries.
type ID string

const (
	Hub         ID = "hub"
	Ascenders   ID = "ascenders"
	Neothinkers ID = "neothinkers"
	Immortals   ID = "immortals"
	// App and Admin are administrative variants used by internal tooling.
	App   ID = "app"
	Admin ID = "admin"

	// Default is returned whenever a platform cannot be determined.
	Default = Hub
)

// All returns every known platform identifier, administrative variants
// included.
func All() []ID {
	return []ID{Hub, Ascenders, Neothinkers, Immortals, App, Admin}
}

// Core returns the four user-facing platforms. Cross-platform operations
// that default to "all platforms" use this set.
func Core() []ID {
	return []ID{Hub, Ascenders, Neothinkers, Immortals}
}

// IsValid reports whether id is a member of the closed platform set.
func IsValid(id ID) bool {
	switch id {
	case Hub, Ascenders, Neothinkers, Immortals, App, Admin:
		return true
	}
	return false
}

// Parse converts a raw string into a platform ID, falling back to
// Default for unknown input. Use IsValid first when unknown input must
// be rejected instead of degraded.
func Parse(raw string) ID {
	id := ID(strings.ToLower(strings.TrimSpace(raw)))
	if IsValid(id) {
		return id
	}
	return Default
}

// hostTable maps request hostnames to platforms. Subdomain-qualified
// production hosts and bare local development hosts are both listed.
var hostTable = map[string]ID{
	"go.joinascenders.org":    Ascenders,
	"www.joinascenders.org":   Ascenders,
	"joinascenders.org":       Ascenders,
	"go.joinneothinkers.org":  Neothinkers,
	"www.joinneothinkers.org": Neothinkers,
	"joinneothinkers.org":     Neothinkers,
	"go.joinimmortals.org":    Immortals,
	"www.joinimmortals.org":   Immortals,
	"joinimmortals.org":       Immortals,
	"go.neothink.io":          Hub,
	"neothink.io":             Hub,
	"app.neothink.io":         App,
	"admin.neothink.io":       Admin,
}

// ResolveFromHost maps a request host to a platform identifier.
// Unmatched input always degrades to Default; there is no error path.
func ResolveFromHost(host string) ID {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	if id, ok := hostTable[host]; ok {
		return id
	}
	// Development hosts carry the platform as the first label, e.g.
	// "ascenders.localhost".
	if label, _, found := strings.Cut(host, "."); found {
		if id := ID(label); IsValid(id) {
			return id
		}
	}
	return Default
}
