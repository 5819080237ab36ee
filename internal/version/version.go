// Package version provides the build version metadata.
package version

import "fmt"

// Version is the release version, bumped on each tagged release.
var Version = "0.3.1"

// DevVersion is the version suffix used in non-prod modes.
var DevVersion = "0.3.1"

func GetCurrentVersion(mode string) string {
	if mode == "prod" {
		return Version
	}
	return fmt.Sprintf("%s-%s", DevVersion, mode)
}
