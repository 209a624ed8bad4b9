package version

import (
	"fmt"
	"runtime"

	"dashgrid/internal/schema"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Get returns the current version
func Get() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// String describes the build and the document schema it reads and writes.
func String() string {
	return fmt.Sprintf("dash %s (schema %s, %s/%s)", Get(), schema.APIVersion, runtime.GOOS, runtime.GOARCH)
}
