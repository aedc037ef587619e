package config

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Version is set at build time with -ldflags "-X stationcharts/internal/config.Version=..."
var Version = ""

// GetVersion returns the build version, APP_VERSION, the VERSION file next to the
// working directory, the module build info, or a fallback, in that order.
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	for _, p := range []string{"VERSION", filepath.Join("..", "VERSION")} {
		if content, err := os.ReadFile(p); err == nil {
			if v := strings.TrimSpace(string(content)); v != "" {
				return v
			}
		}
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "0.1.0"
}
