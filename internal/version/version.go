// Package version provides the semantic version of the current build.
package version

import (
	"fmt"
	"strings"
)

// Version is the service version, bumped on release.
var Version = "0.4.2"

// DevVersion is the developing version suffixed to dev builds.
var DevVersion = "0.4.2"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return fmt.Sprintf("%s-%s", DevVersion, mode)
	}
	return Version
}

func GetMinorVersion(version string) string {
	versionList := strings.Split(version, ".")
	if len(versionList) < 3 {
		return ""
	}
	return versionList[0] + "." + versionList[1]
}
