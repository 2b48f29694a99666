// Package bridge implements the cross-platform services shared by the
// platform family: preference sync, notifications, state transfer and
// navigation. Operations return explicit errors; the *OrDefault
// variants give callers the fail-open contract where transport
// failures degrade to defaults.
package bridge

import (
	"github.com/pkg/errors"

	"github.com/neothink-dao/platform-bridge/internal/platform"
)

// ErrUnknownPlatform is returned when an operation names a platform
// outside the closed platform set.
var ErrUnknownPlatform = errors.New("unknown platform identifier")

func validatePlatform(p platform.ID) error {
	if !platform.IsValid(p) {
		return errors.Wrapf(ErrUnknownPlatform, "%q", p)
	}
	return nil
}

func validatePlatforms(platforms []platform.ID) error {
	for _, p := range platforms {
		if err := validatePlatform(p); err != nil {
			return err
		}
	}
	return nil
}
