// Package version holds the module's release version, bumped by
// cmd/bump_version.
package version

const Version = "0.1.0"
