package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// CheckConfigCompatibility checks if a config file written for
// configVersion can be loaded by an application at appVersion.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The config's minor version must not exceed the application's
//   - Patch versions can differ (e.g., 1.2.0 loads a 1.2.5 config)
func CheckConfigCompatibility(appVersion, configVersion string) error {
	appVersion = strings.TrimPrefix(appVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	// Skip version check for "main" (development builds)
	if appVersion == "main" || configVersion == "main" {
		return nil
	}

	appSemver, err := semver.NewVersion(appVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid application version '%s'", appVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	if appSemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"major version mismatch: application is %d.x.x but config requires %d.x.x",
			appSemver.Major(), configSemver.Major())
	}

	if configSemver.Minor() > appSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"config version %s is newer than application version %s",
			configVersion, appVersion)
	}

	return nil
}
