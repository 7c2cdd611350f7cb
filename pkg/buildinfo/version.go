// Package buildinfo holds version information injected at link time:
//
//	go build -ldflags "-X github.com/matzehuels/babelone/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/babelone/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/babelone/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/babelone
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// Short returns the version with its commit, e.g. "v1.2.3 (abc1234)".
func Short() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
