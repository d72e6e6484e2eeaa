package version

// Version is the current version of the greenquant binaries.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/greenquant-lab/greenquant/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "v1.0.0"

// GetVersion returns the current version of the application.
func GetVersion() string {
	return Version
}
