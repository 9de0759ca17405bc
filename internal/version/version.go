// Package version carries build information for exchangectl.
//
// Set at build time:
//
//	go build -ldflags "-X github.com/openbroker/exchange-client/internal/version.Version=0.3.0 \
//	                   -X github.com/openbroker/exchange-client/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/exchangectl
package version

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the short git hash.
	Commit = "unknown"
)

// String returns "version (commit)".
func String() string {
	return Version + " (" + Commit + ")"
}

// UserAgent is sent on every REST request and WebSocket upgrade.
func UserAgent() string {
	return "exchangectl/" + Version
}
