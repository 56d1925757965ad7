// Package version carries build identity injected at link time.
package version

// Set via -ldflags at build time.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the git hash the binary was built from.
	Commit = "<unknown>"

	// Date is the build timestamp.
	Date = "<unknown>"
)
