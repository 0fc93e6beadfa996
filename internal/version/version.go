package version

// Version is the engine version. It is set at build time:
// -ldflags "-X github.com/rxtech-lab/argo-options/internal/version.Version=1.2.3"
// "main" marks a development build.
var Version = "v1.0.0"

// GetVersion returns the engine version.
func GetVersion() string {
	return Version
}
